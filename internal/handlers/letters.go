package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eavinstitute/admissions/internal/models"
)

// HandleLetterDownload re-derives the admission letter PDF on demand; the
// document is never stored. Unknown id is 404, a generation failure is 500
// with an error body.
func (h *ApplicationHandler) HandleLetterDownload(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid application id", http.StatusBadRequest)
		return
	}

	pdf, err := h.service.Engine.BuildLetter(id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "Application not found", http.StatusNotFound)
			return
		}
		logger.Error.Printf("Failed to generate letter for application %d: %v", id, err)
		http.Error(w, fmt.Sprintf("Failed to generate letter: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="admission-letter-%d.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		logger.Debug.Printf("Error writing PDF response: %v", err)
	}
}
