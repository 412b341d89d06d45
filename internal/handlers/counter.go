package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eavinstitute/admissions/internal/app"
)

type CounterHandler struct {
	service *app.Service
}

func NewCounterHandler(service *app.Service) *CounterHandler {
	return &CounterHandler{
		service: service,
	}
}

// HandlePreview shows the admission number the next application would
// receive, without consuming it.
func (h *CounterHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"next_number": h.service.Allocator.PeekNext(),
	})
}

// HandleConflicts answers whether a proposed starting number would
// collide with numbers already issued. ?starting=N is required.
func (h *CounterHandler) HandleConflicts(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	raw := r.URL.Query().Get("starting")
	starting, err := strconv.Atoi(raw)
	if err != nil || starting < 1 {
		http.Error(w, "starting must be a positive integer", http.StatusBadRequest)
		return
	}

	report, err := h.service.Allocator.CheckConflicts(starting)
	if err != nil {
		logger.Error.Printf("ERROR: %v", err)
		http.Error(w, "Failed to check conflicts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleReset re-seats the counter so the next allocation issues the
// requested starting number, raised past issued numbers if needed.
func (h *CounterHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		StartingNumber int `json:"starting_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.StartingNumber < 1 {
		http.Error(w, "starting_number must be a positive integer", http.StatusBadRequest)
		return
	}

	result, err := h.service.Allocator.ResetCounterSafely(req.StartingNumber)
	if err != nil {
		logger.Error.Printf("ERROR: %v", err)
		http.Error(w, "Failed to reset counter", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
