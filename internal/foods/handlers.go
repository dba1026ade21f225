package foods

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/fdg312/diet-hub/internal/diet"
)

// Handler handles HTTP requests for the food catalog.
type Handler struct {
	service *Service
}

// NewHandler creates a new food catalog handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleList handles GET /v1/foods?category=&q=&min_kcal=&max_kcal=&limit=&offset=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := ListParams{
		Category: q.Get("category"),
		Query:    q.Get("q"),
		Limit:    parseIntQuery(r, "limit", defaultLimit),
		Offset:   parseIntQuery(r, "offset", 0),
	}
	var err error
	if params.MinKcal, err = parseFloatQuery(r, "min_kcal"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "min_kcal must be a number")
		return
	}
	if params.MaxKcal, err = parseFloatQuery(r, "max_kcal"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "max_kcal must be a number")
		return
	}

	foods, total, err := h.service.List(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, err, "Failed to list foods")
		return
	}

	items := make([]FoodDTO, len(foods))
	for i, f := range foods {
		items[i] = ToDTO(f)
	}
	limit, offset := normalizePage(params.Limit, params.Offset)

	writeJSON(w, http.StatusOK, ListFoodsResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// HandleGet handles GET /v1/foods/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	food, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to get food")
		return
	}
	writeJSON(w, http.StatusOK, ToDTO(*food))
}

// HandleCreate handles POST /v1/foods
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req FoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	food, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create food")
		return
	}
	writeJSON(w, http.StatusCreated, ToDTO(*food))
}

// HandleUpdate handles PUT /v1/foods/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req FoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	food, err := h.service.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to update food")
		return
	}
	writeJSON(w, http.StatusOK, ToDTO(*food))
}

// HandleDelete handles DELETE /v1/foods/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, err, "Failed to delete food")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePutImage handles PUT /v1/foods/{id}/image. Accepts either a raw
// image body or multipart/form-data with a "file" field.
func (h *Handler) HandlePutImage(w http.ResponseWriter, r *http.Request) {
	limit := h.service.maxImageBytes()
	// multipart framing needs some room on top of the image itself
	r.Body = http.MaxBytesReader(w, r.Body, limit+64<<10)

	var (
		data     []byte
		declared string
		err      error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, ferr := r.FormFile("file")
		if ferr != nil {
			if isTooLarge(ferr) {
				writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Image exceeds size limit")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid_request", "file field is required")
			return
		}
		defer file.Close()
		declared = header.Header.Get("Content-Type")
		data, err = io.ReadAll(file)
	} else {
		declared = r.Header.Get("Content-Type")
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Image exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to read image")
		return
	}

	food, err := h.service.PutImage(r.Context(), r.PathValue("id"), data, declared)
	if err != nil {
		h.writeServiceError(w, err, "Failed to store image")
		return
	}
	writeJSON(w, http.StatusOK, ToDTO(*food))
}

// HandleGetImage handles GET /v1/foods/{id}/image
func (h *Handler) HandleGetImage(w http.ResponseWriter, r *http.Request) {
	url, data, contentType, err := h.service.Image(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to load image")
		return
	}
	if url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// HandleSuggestions handles GET /v1/foods/suggestions?goal=&target_kcal=&category=
func (h *Handler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	target, err := parseFloatQuery(r, "target_kcal")
	if err != nil || target == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "target_kcal is required and must be a number")
		return
	}
	goal := r.URL.Query().Get("goal")
	if goal == "" {
		goal = string(diet.GoalMaintain)
	}

	resp, err := h.service.Suggestions(r.Context(), goal, *target, r.URL.Query().Get("category"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to build suggestions")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, diet.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Food not found")
	case errors.Is(err, ErrNoImage):
		writeError(w, http.StatusNotFound, "not_found", "Food has no image")
	case errors.Is(err, ErrDuplicateName):
		writeError(w, http.StatusConflict, "duplicate_name", err.Error())
	case errors.Is(err, ErrLimitReached):
		writeError(w, http.StatusConflict, "limit_reached", err.Error())
	case errors.Is(err, ErrImageTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Image exceeds size limit")
	case errors.Is(err, ErrUnsupportedMedia):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", err.Error())
	case errors.Is(err, ErrBlobUnavailable):
		writeError(w, http.StatusServiceUnavailable, "blob_unavailable", err.Error())
	default:
		log.Printf("foods: %s: %v", fallback, err)
		writeError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultValue
	}
	return val
}

func parseFloatQuery(r *http.Request, key string) (*float64, error) {
	valStr := strings.TrimSpace(r.URL.Query().Get(key))
	if valStr == "" {
		return nil, nil
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return nil, err
	}
	return &val, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
