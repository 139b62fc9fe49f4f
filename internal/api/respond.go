package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dshills/storefront/pkg/types"
)

// Response messages
const (
	msgUnauthenticated    = "Unauthenticated."
	msgForbidden          = "Unauthorized"
	msgNotFound           = "Not found."
	msgInvalidCredentials = "The provided credentials are incorrect."
	msgServerError        = "Server Error"
	msgOrderPlaced        = "Order placed successfully"
	msgLoggedOut          = "Logged out successfully"
)

// errorBody is the envelope for every failed request
type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// dataBody wraps a single resource
type dataBody struct {
	Data any `json:"data"`
}

// pageMeta navigates a paginated listing
type pageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// pageBody wraps one page of resources
type pageBody struct {
	Data any      `json:"data"`
	Meta pageMeta `json:"meta"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto a status code and envelope. Unknown
// errors are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *types.ValidationError
	var stockErr *types.InsufficientStockError
	var productErr *types.ProductNotFoundError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Message: msgBodyTooLarge})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Message: verr.Error(), Errors: verr.Fields})
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Message: stockErr.Error()})
	case errors.As(err, &productErr):
		writeJSON(w, http.StatusNotFound, errorBody{Message: "Product not found."})
	case errors.Is(err, types.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Message: err.Error()})
	case errors.Is(err, types.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Message: msgNotFound})
	case errors.Is(err, types.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Message: msgForbidden})
	case errors.Is(err, types.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: msgInvalidCredentials})
	case errors.Is(err, types.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: msgUnauthenticated})
	default:
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "request_id", requestIDFrom(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: msgServerError})
	}
}

// Resources

type productResource struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	Image       *string   `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newProductResource(p *types.Product) *productResource {
	if p == nil {
		return nil
	}
	return &productResource{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(types.MoneyScale),
		Category:    p.Category,
		Stock:       p.Stock,
		Image:       p.Image,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func newProductResources(products []*types.Product) []*productResource {
	out := make([]*productResource, 0, len(products))
	for _, p := range products {
		out = append(out, newProductResource(p))
	}
	return out
}

type orderItemResource struct {
	ID        int64            `json:"id"`
	ProductID int64            `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     string           `json:"price"`
	Product   *productResource `json:"product"`
}

type orderResource struct {
	ID        int64               `json:"id"`
	UserID    int64               `json:"user_id"`
	Total     string              `json:"total"`
	Status    string              `json:"status"`
	Items     []orderItemResource `json:"items"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func newOrderResource(o *types.Order) *orderResource {
	items := make([]orderItemResource, 0, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items = append(items, orderItemResource{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price.StringFixed(types.MoneyScale),
			Product:   newProductResource(item.Product),
		})
	}
	return &orderResource{
		ID:        o.ID,
		UserID:    o.UserID,
		Total:     o.Total.StringFixed(types.MoneyScale),
		Status:    string(o.Status),
		Items:     items,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

type userResource struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserResource(u *types.User) userResource {
	return userResource{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

type sessionResource struct {
	User      userResource `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
}

func newPageBody[T any, R any](page types.Page[T], convert func(T) R) pageBody {
	data := make([]R, 0, len(page.Items))
	for _, item := range page.Items {
		data = append(data, convert(item))
	}
	return pageBody{
		Data: data,
		Meta: pageMeta{
			CurrentPage: page.CurrentPage,
			LastPage:    page.LastPage,
			PerPage:     page.PerPage,
			Total:       page.Total,
		},
	}
}
