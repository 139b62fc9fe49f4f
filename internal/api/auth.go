package api

import (
	"net/http"

	"github.com/dshills/storefront/internal/auth"
	"github.com/dshills/storefront/pkg/types"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	// Type errors first; required and format rules belong to the auth service.
	verr := types.NewValidationError()
	var in auth.RegisterInput
	in.Name, _ = stringField(body, "name", false, verr)
	in.Email, _ = stringField(body, "email", false, verr)
	in.Password, _ = stringField(body, "password", false, verr)
	in.PasswordConfirmation, _ = stringField(body, "password_confirmation", false, verr)
	if err := verr.OrNil(); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	session, err := s.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResource(session))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	verr := types.NewValidationError()
	email, _ := stringField(body, "email", false, verr)
	password, _ := stringField(body, "password", false, verr)
	if err := verr.OrNil(); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	session, err := s.auth.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResource(session))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := tokenFrom(r.Context())
	if err := s.auth.Logout(r.Context(), token.ID); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msgLoggedOut})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newUserResource(userFrom(r.Context())))
}

func newSessionResource(session *auth.Session) sessionResource {
	return sessionResource{
		User:      newUserResource(session.User),
		Token:     session.Token,
		TokenType: "Bearer",
	}
}
