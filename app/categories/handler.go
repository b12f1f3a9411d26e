package categories

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/datumcontrole/category-store/models"
	"github.com/rs/zerolog"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type CategoryResponse struct {
	Name         string `json:"name"`
	Sublocations int    `json:"sublocations"`
	Color        string `json:"color"`
}

type ListResponse struct {
	Total      int                `json:"total"`
	Categories []CategoryResponse `json:"categories"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type categoryInput struct {
	Name         string `json:"name"`
	Sublocations int    `json:"sublocations"`
	Color        string `json:"color"`
}

type CategoryProvider interface {
	Size(ctx context.Context) (int64, error)
	AddCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context, offset, limit int, filters models.CategoryFilters) ([]models.Category, int64, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, name string) error
}

type CategoryHandler struct {
	repo CategoryProvider
	log  zerolog.Logger
}

func NewCategoryHandler(r CategoryProvider, log zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{repo: r, log: log}
}

// Register mounts the category routes on mux.
func (h *CategoryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /categories", h.HandleGetAll)
	mux.HandleFunc("POST /categories", h.HandleCreate)
	mux.HandleFunc("GET /categories/count", h.HandleCount)
	mux.HandleFunc("GET /categories/{name}", h.HandleGet)
	mux.HandleFunc("PUT /categories/{name}", h.HandleUpdate)
	mux.HandleFunc("DELETE /categories/{name}", h.HandleDelete)
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	// Parse pagination query params
	offset := 0
	limit := defaultLimit

	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			limit = min(max(l, 1), maxLimit)
		}
	}

	filters := models.CategoryFilters{
		Color:      r.URL.Query().Get("color"),
		NamePrefix: r.URL.Query().Get("prefix"),
	}

	categories, total, err := h.repo.ListCategories(r.Context(), offset, limit, filters)
	if err != nil {
		h.writeError(w, err, "failed to fetch categories")
		return
	}

	response := ListResponse{
		Total:      int(total),
		Categories: make([]CategoryResponse, len(categories)),
	}
	for i, c := range categories {
		response.Categories[i] = toResponse(&c)
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *CategoryHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	size, err := h.repo.Size(r.Context())
	if err != nil {
		h.writeError(w, err, "failed to count categories")
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: size})
}

func (h *CategoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	category, err := h.repo.GetCategory(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeError(w, err, "failed to fetch category")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(category))
}

func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input categoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("Invalid JSON body"))
		return
	}

	if input.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("Missing name"))
		return
	}

	category := &models.Category{
		Name:         input.Name,
		Sublocations: input.Sublocations,
		Color:        input.Color,
	}

	if err := h.repo.AddCategory(r.Context(), category); err != nil {
		h.writeError(w, err, "Failed to create category")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Category created successfully",
	})
}

// HandleUpdate answers 501: categories cannot be changed in place, so the
// request body is not read.
func (h *CategoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	category := &models.Category{Name: r.PathValue("name")}
	if err := h.repo.UpdateCategory(r.Context(), category); err != nil {
		h.writeError(w, err, "Failed to update category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteCategory(r.Context(), r.PathValue("name")); err != nil {
		h.writeError(w, err, "Failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toResponse(c *models.Category) CategoryResponse {
	return CategoryResponse{
		Name:         c.Name,
		Sublocations: c.Sublocations,
		Color:        c.Color,
	}
}

// writeError maps repository errors to status codes. Database faults are
// logged and answered with internalMsg so driver details stay private.
func (h *CategoryHandler) writeError(w http.ResponseWriter, err error, internalMsg string) {
	switch {
	case errors.Is(err, models.ErrInvalidCategory):
		writeJSON(w, http.StatusBadRequest, errorResponse("Invalid category"))
	case errors.Is(err, models.ErrCategoryNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse("Category not found"))
	case errors.Is(err, models.ErrCategoryExists):
		writeJSON(w, http.StatusConflict, errorResponse("Category already exists"))
	case errors.Is(err, models.ErrNotImplemented):
		writeJSON(w, http.StatusNotImplemented, errorResponse("Updating categories is not supported"))
	default:
		h.log.Error().Err(err).Msg(internalMsg)
		writeJSON(w, http.StatusInternalServerError, errorResponse(internalMsg))
	}
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
