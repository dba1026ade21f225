package users

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/fdg312/diet-hub/internal/userctx"
)

// Handler содержит HTTP обработчики админки пользователей
type Handler struct {
	service *Service
}

// NewHandler создаёт новый handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleList обрабатывает GET /v1/admin/users?q=&limit=&offset=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	resp, err := h.service.List(r.Context(), q.Get("q"), limit, offset)
	if err != nil {
		log.Printf("users: list failed: %v", err)
		h.sendError(w, http.StatusInternalServerError, "internal_error", "Failed to list users")
		return
	}

	h.sendJSON(w, http.StatusOK, resp)
}

// HandleUpdateRole обрабатывает PATCH /v1/admin/users/{id}
func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}

	actorID, _ := userctx.GetUserID(r.Context())
	user, err := h.service.UpdateRole(r.Context(), actorID, r.PathValue("id"), req.Role)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, user)
}

// HandleDelete обрабатывает DELETE /v1/admin/users/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actorID, _ := userctx.GetUserID(r.Context())
	if err := h.service.Delete(r.Context(), actorID, r.PathValue("id")); err != nil {
		h.sendServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sendServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRole):
		h.sendError(w, http.StatusBadRequest, "invalid_role", err.Error())
	case errors.Is(err, ErrSelfDemotion), errors.Is(err, ErrSelfDeletion):
		h.sendError(w, http.StatusConflict, "self_modification", err.Error())
	case errors.Is(err, ErrUserNotFound):
		h.sendError(w, http.StatusNotFound, "not_found", "User not found")
	default:
		log.Printf("users: %v", err)
		h.sendError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func (h *Handler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) sendError(w http.ResponseWriter, status int, code, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
