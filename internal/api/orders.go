package api

import (
	"fmt"
	"net/http"

	"github.com/dshills/storefront/pkg/types"
)

// ordersPerPage is fixed for order history
const ordersPerPage = 10

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	req := parsePage(r)
	req.PerPage = ordersPerPage

	page, err := s.orders.ListForUser(r.Context(), user.ID, req)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageBody(page, newOrderResource))
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	items, err := parseItems(body)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	order, err := s.orders.PlaceOrder(r.Context(), user.ID, items)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string         `json:"message"`
		Order   *orderResource `json:"order"`
	}{Message: msgOrderPlaced, Order: newOrderResource(order)})
}

func (s *Server) handleShowOrder(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, s.logger, fmt.Errorf("order %q: %w", r.PathValue("id"), types.ErrNotFound))
		return
	}

	order, err := s.orders.GetForUser(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: newOrderResource(order)})
}
