package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fdg312/diet-hub/internal/userctx"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleSignUp handles POST /v1/auth/signup
func (h *Handlers) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	resp, err := h.service.SignUp(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword):
			writeErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, ErrEmailTaken):
			writeErrorResponse(w, http.StatusConflict, "email_taken", "Email already registered")
		default:
			log.Printf("auth: signup failed: %v", err)
			writeErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleLogin handles POST /v1/auth/login
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
			return
		}
		log.Printf("auth: login failed: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDevAuth handles POST /v1/auth/dev
func (h *Handlers) HandleDevAuth(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.SignInDev(r.Context())
	if err != nil {
		if errors.Is(err, ErrDevAuthDisabled) {
			writeErrorResponse(w, http.StatusNotFound, "not_found", "Dev auth is only available when APP_ENV=local")
			return
		}
		writeErrorResponse(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleMe handles GET /v1/auth/me
func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	user, err := h.service.Me(r.Context(), userID, userctx.GetRole(r.Context()))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		writeErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
