package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dshills/storefront/pkg/types"
)

// Cache headers on product listings
const (
	CacheStatusHeader = "X-Cache"
	cacheHit          = "HIT"
	cacheMiss         = "MISS"
)

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	listing, err := s.catalog.List(r.Context(), filter, parsePage(r))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	// Listings may be up to one TTL old; say so.
	if ttl := s.catalog.TTL(); ttl > 0 {
		status := cacheMiss
		if listing.CacheHit {
			status = cacheHit
		}
		w.Header().Set(CacheStatusHeader, status)
		w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(ttl.Seconds())))
	}
	writeJSON(w, http.StatusOK, newPageBody(listing.Page, newProductResource))
}

func (s *Server) handleShowProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, s.logger, fmt.Errorf("product %q: %w", r.PathValue("id"), types.ErrNotFound))
		return
	}
	product, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: newProductResource(product)})
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	product, err := parseProduct(body)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if err := s.catalog.Create(r.Context(), product); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataBody{Data: newProductResource(product)})
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, s.logger, fmt.Errorf("product %q: %w", r.PathValue("id"), types.ErrNotFound))
		return
	}
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	patch, err := parseProductPatch(body)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	product, err := s.catalog.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: newProductResource(product)})
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, s.logger, fmt.Errorf("product %q: %w", r.PathValue("id"), types.ErrNotFound))
		return
	}
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
