package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/shoplite/shoplite/internal/database"
	"github.com/shoplite/shoplite/internal/web/events"
)

type itemRequest struct {
	Session *sessionRef       `json:"session"`
	Banner  *database.Banner  `json:"banner"`
	Product *database.Product `json:"product"`
	Fields  map[string]any    `json:"fields"`
}

var (
	bannerFields  = map[string]struct{}{"alias": {}, "title": {}, "text": {}, "pic": {}}
	productFields = map[string]struct{}{"name": {}, "type": {}, "price": {}, "discount_check": {}, "pic": {}}
)

// decodeOptional parses the request body into dst. An empty body is
// fine (the session pair may travel in headers instead); anything else
// that fails to parse is a malformed request.
func decodeOptional(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// filterFields keeps only the keys present in the allowlist and
// reports the first rejected key.
func filterFields(fields map[string]any, allowed map[string]struct{}) (map[string]any, string) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if _, ok := allowed[k]; !ok {
			return nil, k
		}
		out[k] = v
	}
	return out, ""
}

// CreateBanner handles POST /api/item/banner (admin only)
func (h *Handlers) CreateBanner(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeOptional(r, &req); err != nil {
		h.jsonError(w, "malformed request body", http.StatusBadRequest)
		return
	}

	if _, ok := h.adminSession(w, r, req.Session); !ok {
		return
	}
	if req.Banner == nil || req.Banner.Alias == "" {
		h.jsonError(w, "banner data not found", http.StatusBadRequest)
		return
	}

	h.checkPicReference(req.Banner.Pic)
	if err := h.db.AddBanner(req.Banner); err != nil {
		h.storeError(w, err)
		return
	}

	log.Info().Str("alias", req.Banner.Alias).Msg("Banner created")
	h.broadcast(events.EventBannerCreated, req.Banner)
	h.writeJSON(w, http.StatusOK, map[string]any{"banner": req.Banner})
}

// UpdateBanner handles POST /api/item/banner/{alias} (admin only).
// The payload carries a fields map applied as a partial update.
func (h *Handlers) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeOptional(r, &req); err != nil {
		h.jsonError(w, "malformed request body", http.StatusBadRequest)
		return
	}

	if _, ok := h.adminSession(w, r, req.Session); !ok {
		return
	}
	if len(req.Fields) == 0 {
		h.jsonError(w, "no fields to update", http.StatusBadRequest)
		return
	}

	fields, rejected := filterFields(req.Fields, bannerFields)
	if rejected != "" {
		h.jsonError(w, "unknown field: "+rejected, http.StatusBadRequest)
		return
	}
	if pic, ok := fields["pic"].(string); ok {
		h.checkPicReference(pic)
	}

	alias := chi.URLParam(r, "alias")
	banner, err := h.db.UpdateBanner(alias, fields)
	if err != nil {
		h.storeError(w, err)
		return
	}

	log.Info().Str("alias", alias).Msg("Banner updated")
	h.broadcast(events.EventBannerUpdated, banner)
	h.writeJSON(w, http.StatusOK, map[string]any{"banner": banner})
}

// GetBanner handles GET /api/item/banner/{alias}
func (h *Handlers) GetBanner(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeOptional(r, &req); err != nil {
		h.jsonError(w, "malformed request body", http.StatusBadRequest)
		return
	}

	if _, ok := h.liveSession(w, r, req.Session); !ok {
		return
	}

	banner, err := h.db.FindBanner(map[string]any{"alias": chi.URLParam(r, "alias")})
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"banner": banner})
}

// CreateProduct handles POST /api/item/product (admin only)
func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeOptional(r, &req); err != nil {
		h.jsonError(w, "malformed request body", http.StatusBadRequest)
		return
	}

	if _, ok := h.adminSession(w, r, req.Session); !ok {
		return
	}
	if req.Product == nil || req.Product.Name == "" {
		h.jsonError(w, "product data not found", http.StatusBadRequest)
		return
	}

	h.checkPicReference(req.Product.Pic)
	if err := h.db.AddProduct(req.Product); err != nil {
		h.storeError(w, err)
		return
	}

	log.Info().Str("name", req.Product.Name).Int64("id", req.Product.ID).Msg("Product created")
	h.broadcast(events.EventProductCreated, req.Product)
	h.writeJSON(w, http.StatusOK, map[string]any{"product": req.Product})
}

// UpdateProduct handles POST /api/item/product/{id} (admin only)
func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeOptional(r, &req); err != nil {
		h.jsonError(w, "malformed request body", http.StatusBadRequest)
		return
	}

	if _, ok := h.adminSession(w, r, req.Session); !ok {
		return
	}
	if len(req.Fields) == 0 {
		h.jsonError(w, "no fields to update", http.StatusBadRequest)
		return
	}

	fields, rejected := filterFields(req.Fields, productFields)
	if rejected != "" {
		h.jsonError(w, "unknown field: "+rejected, http.StatusBadRequest)
		return
	}
	if pic, ok := fields["pic"].(string); ok {
		h.checkPicReference(pic)
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "bad product id", http.StatusBadRequest)
		return
	}

	product, err := h.db.UpdateProduct(id, fields)
	if err != nil {
		h.storeError(w, err)
		return
	}

	log.Info().Int64("id", id).Msg("Product updated")
	h.broadcast(events.EventProductUpdated, product)
	h.writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

// GetProduct handles GET /api/item/product/{key}. The key is either a
// numeric id or the literal "all" for the whole catalog.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeOptional(r, &req); err != nil {
		h.jsonError(w, "malformed request body", http.StatusBadRequest)
		return
	}

	if _, ok := h.liveSession(w, r, req.Session); !ok {
		return
	}

	key := chi.URLParam(r, "key")
	if key == "all" {
		products, err := h.db.FindProducts(nil)
		if err != nil {
			h.storeError(w, err)
			return
		}
		if products == nil {
			products = []*database.Product{}
		}
		h.writeJSON(w, http.StatusOK, map[string]any{"products": products})
		return
	}

	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		h.jsonError(w, "bad product id", http.StatusBadRequest)
		return
	}

	product, err := h.db.FindProduct(map[string]any{"id": id})
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"product": product})
}
