package reports

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/fdg312/diet-hub/internal/userctx"
)

// Handlers serves meal plan exports.
type Handlers struct {
	plans PlanSource
	now   func() time.Time
}

// NewHandlers creates new handlers
func NewHandlers(plans PlanSource) *Handlers {
	return &Handlers{plans: plans, now: time.Now}
}

// HandleExport handles GET /v1/meal/plan/export?format=pdf|csv
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_format", "Format must be 'pdf' or 'csv'")
		return
	}

	plan, found, err := h.plans.Get(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR: load meal plan for export: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "plan_not_found", "Meal plan not found")
		return
	}

	now := h.now()
	var data []byte
	switch format {
	case FormatCSV:
		data, err = GenerateCSV(plan)
	default:
		data, err = GeneratePDF(plan, now)
	}
	if err != nil {
		log.Printf("ERROR: generate %s export: %v", format, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to generate export")
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename(format, now)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

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
