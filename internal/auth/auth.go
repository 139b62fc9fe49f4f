package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/dshills/storefront/internal/storage"
	"github.com/dshills/storefront/pkg/types"
)

const (
	// MinPasswordLength is the shortest accepted password
	MinPasswordLength = 8
	// MaxNameLength bounds the display name
	MaxNameLength = 255
	// tokenBytes is the entropy of an issued token
	tokenBytes = 32
	// DefaultTokenName labels tokens issued by register and login
	DefaultTokenName = "auth_token"
)

// RegisterInput is the payload of a registration request
type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// Session is an authenticated user with the plaintext token just issued.
// The plaintext is never stored; only its SHA-256 digest is.
type Session struct {
	User  *types.User
	Token string
}

// Service registers users and issues and checks bearer tokens
type Service struct {
	store storage.Store
	cost  int
}

// Option configures a Service
type Option func(*Service)

// WithBcryptCost overrides the password hashing cost
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates an auth service
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{store: store, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user and issues their first token
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	verr := types.NewValidationError()
	if in.Name == "" {
		verr.Add("name", "The name field is required.")
	} else if utf8.RuneCountInString(in.Name) > MaxNameLength {
		verr.Add("name", "The name field must not be greater than 255 characters.")
	}
	if in.Email == "" {
		verr.Add("email", "The email field is required.")
	} else if !validEmail(in.Email) {
		verr.Add("email", "The email field must be a valid email address.")
	}
	if in.Password == "" {
		verr.Add("password", "The password field is required.")
	} else if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		verr.Add("password", "The password field must be at least 8 characters.")
	} else if in.Password != in.PasswordConfirmation {
		verr.Add("password", "The password field confirmation does not match.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &types.User{Name: in.Name, Email: in.Email, PasswordHash: hash}
	err = s.store.CreateUser(ctx, user)
	if errors.Is(err, storage.ErrAlreadyExists) {
		verr.Add("email", "The email has already been taken.")
		return nil, verr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// Login checks credentials and issues a new token
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)

	verr := types.NewValidationError()
	if email == "" {
		verr.Add("email", "The email field is required.")
	}
	if password == "" {
		verr.Add("password", "The password field is required.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, types.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, types.ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// Authenticate resolves a plaintext bearer token to its user and token record
func (s *Service) Authenticate(ctx context.Context, plaintext string) (*types.User, *types.AccessToken, error) {
	plaintext = strings.TrimSpace(plaintext)
	if plaintext == "" {
		return nil, nil, types.ErrUnauthenticated
	}

	token, err := s.store.GetTokenByHash(ctx, HashToken(plaintext))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, types.ErrUnauthenticated
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load token: %w", err)
	}

	user, err := s.store.GetUser(ctx, token.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, types.ErrUnauthenticated
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.store.TouchToken(ctx, token.ID); err != nil {
		return nil, nil, fmt.Errorf("failed to touch token: %w", err)
	}
	return user, token, nil
}

// Logout revokes one token
func (s *Service) Logout(ctx context.Context, tokenID int64) error {
	err := s.store.DeleteToken(ctx, tokenID)
	if errors.Is(err, storage.ErrNotFound) {
		return types.ErrUnauthenticated
	}
	return err
}

func (s *Service) issueToken(ctx context.Context, userID int64) (string, error) {
	plaintext, err := newTokenString()
	if err != nil {
		return "", err
	}
	token := &types.AccessToken{
		UserID:    userID,
		Name:      DefaultTokenName,
		TokenHash: HashToken(plaintext),
	}
	if err := s.store.CreateToken(ctx, token); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	return plaintext, nil
}

// HashToken returns the digest stored for a plaintext token
func HashToken(plaintext string) [32]byte {
	return sha256.Sum256([]byte(plaintext))
}

func newTokenString() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// Reject display-name forms like "Bob <bob@example.com>"
	return addr.Address == email && strings.Contains(email, "@")
}
