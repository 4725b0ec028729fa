package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tokonova/tokonova/application/port/inbound"
	"github.com/tokonova/tokonova/infrastructure/http/response"
)

type CatalogHandler struct {
	catalogUseCase inbound.CatalogUseCase
}

func NewCatalogHandler(catalogUseCase inbound.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{catalogUseCase: catalogUseCase}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	resp, err := h.catalogUseCase.ListProducts(r.Context(), page, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "success", resp)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		response.BadRequest(w, "Product id is required")
		return
	}

	product, err := h.catalogUseCase.GetProduct(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "success", product)
}

func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalogUseCase.ListServices(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "success", services)
}

func (h *CatalogHandler) Homepage(w http.ResponseWriter, r *http.Request) {
	home, err := h.catalogUseCase.Homepage(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "success", home)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req inbound.UpsertProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	product, err := h.catalogUseCase.CreateProduct(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Product created", product)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		response.BadRequest(w, "Product id is required")
		return
	}

	var req inbound.UpsertProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	product, err := h.catalogUseCase.UpdateProduct(r.Context(), id, req)
	if err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Product updated", product)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		response.BadRequest(w, "Product id is required")
		return
	}

	if err := h.catalogUseCase.DeleteProduct(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Product deleted", nil)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
