package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/julieginest/prjCyberA3/internal/model"
	mw "github.com/julieginest/prjCyberA3/internal/server/middleware"
	"github.com/julieginest/prjCyberA3/internal/store"
)

// ProductHandler is thin CRUD glue over the catalog. The permission gates
// in front of each route do the real work.
type ProductHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewProductHandler creates a ProductHandler.
func NewProductHandler(st *store.Store, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{store: st, logger: logger}
}

// List returns all products. GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("product list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, model.ListResponse[model.Product]{Items: products, Count: len(products)})
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	ImagePath   string `json:"image_path"`
	Bestseller  bool   `json:"bestseller"`
}

// Create inserts a product. POST /api/v1/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "product name is required")
		return
	}

	p := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		ImagePath:   req.ImagePath,
	}
	// Marking a bestseller is its own permission, separate from creation.
	if req.Bestseller {
		if !mw.GetIdentity(r.Context()).Can(model.PermSetBestseller) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		p.Bestseller = true
	}

	if err := h.store.CreateProduct(r.Context(), p); err != nil {
		h.logger.Error("product create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Update replaces a product's fields. PUT /api/v1/products/{productID}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req productRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("product lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	identity := mw.GetIdentity(r.Context())
	if req.ImagePath != p.ImagePath && !identity.Can(model.PermUpdateImage) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if req.Bestseller != p.Bestseller && !identity.Can(model.PermSetBestseller) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	p.Name = req.Name
	p.Description = req.Description
	p.PriceCents = req.PriceCents
	p.ImagePath = req.ImagePath
	p.Bestseller = req.Bestseller

	if err := h.store.UpdateProduct(r.Context(), p); err != nil {
		h.logger.Error("product update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete removes a product. DELETE /api/v1/products/{productID}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.store.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("product delete failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
