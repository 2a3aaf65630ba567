package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/go-storefront/internal/api/dto"
	"github.com/hugh/go-storefront/internal/database/models"
	"github.com/hugh/go-storefront/internal/products"
)

type ProductHandler struct {
	catalog products.Catalog
	logger  *slog.Logger
}

func NewProductHandler(catalog products.Catalog, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.List(r.Context())
	if err != nil {
		writeInternalError(w, r, h.logger, err)
		return
	}
	if list == nil {
		list = []models.Product{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	_, err := h.catalog.Add(r.Context(), products.AddInput{
		Name:        req.Name,
		Stock:       *req.Stock,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.Remove(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := h.catalog.Update(r.Context(), id, products.UpdateInput{
		Description: req.Description,
		Stock:       *req.Stock,
		Price:       req.Price,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, products.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "Product does not exist")
	case errors.Is(err, products.ErrProductExists):
		writeError(w, http.StatusConflict, "Product with given name exists")
	default:
		writeInternalError(w, r, h.logger, err)
	}
}
