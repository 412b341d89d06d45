package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eavinstitute/admissions/internal/app"
	"github.com/eavinstitute/admissions/internal/metrics"
	"github.com/eavinstitute/admissions/internal/models"
	"github.com/eavinstitute/admissions/internal/workflow"
)

type ApplicationHandler struct {
	service *app.Service
}

func NewApplicationHandler(service *app.Service) *ApplicationHandler {
	return &ApplicationHandler{
		service: service,
	}
}

type applicationRequest struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Course     string `json:"course"`
	Location   string `json:"location"`
	PriorGrade string `json:"prior_grade"`
}

func (req *applicationRequest) apply(a *models.Application) {
	a.FullName = req.FullName
	a.Email = req.Email
	a.Phone = req.Phone
	a.Course = req.Course
	a.Location = req.Location
	a.PriorGrade = req.PriorGrade
}

// HandleSubmit is the public online application form endpoint. No auth.
func (h *ApplicationHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, models.SourceOnline)
}

// HandleAdminCreate records a walk-in application entered by an admin.
func (h *ApplicationHandler) HandleAdminCreate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	h.create(w, r, models.SourceManual)
}

func (h *ApplicationHandler) create(w http.ResponseWriter, r *http.Request, source models.Source) {
	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.APIRequestDuration.WithLabelValues(
			r.URL.Path,
			r.Method,
			"200",
		).Observe(duration)
	}()

	var req applicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var application models.Application
	req.apply(&application)

	if err := h.service.CreateApplication(&application, source); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, application)
}

func (h *ApplicationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	filter := models.ApplicationFilter{
		NameContains: r.URL.Query().Get("q"),
		NumberPrefix: r.URL.Query().Get("number_prefix"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			http.Error(w, "Invalid status filter", http.StatusBadRequest)
			return
		}
		filter.Status = status
	}

	apps, err := h.service.Store.ListApplications(filter)
	if err != nil {
		logger.Error.Printf("ERROR: %v", err)
		http.Error(w, "Failed to fetch applications", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": apps,
	})
}

func (h *ApplicationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid application id", http.StatusBadRequest)
		return
	}

	application, err := h.service.Store.GetApplication(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, application)
}

func (h *ApplicationHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid application id", http.StatusBadRequest)
		return
	}

	application, err := h.service.Store.GetApplication(id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req applicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.apply(application)

	intl, err := h.service.Phones.Normalize(application.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	application.Phone = intl

	if err := application.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if err := h.service.Store.UpdateApplication(application); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, application)
}

func (h *ApplicationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid application id", http.StatusBadRequest)
		return
	}

	if err := h.service.Store.DeleteApplication(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTransition moves an application through the status lifecycle. A
// notification failure after the status write comes back as 200 with a
// notification_error field, so the admin sees the acceptance stuck but
// retryable.
func (h *ApplicationHandler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid application id", http.StatusBadRequest)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Engine.Transition(id, status, "admin")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse(result))
}

// HandleResend re-triggers the admission letter and email for an accepted
// application.
func (h *ApplicationHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid application id", http.StatusBadRequest)
		return
	}

	result, err := h.service.Engine.Resend(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse(result))
}

func (h *ApplicationHandler) HandleEmailLogs(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid application id", http.StatusBadRequest)
		return
	}

	logs, err := h.service.Store.ListEmailLogs(id)
	if err != nil {
		logger.Error.Printf("ERROR: %v", err)
		http.Error(w, "Failed to fetch email logs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": logs,
	})
}

func transitionResponse(result *workflow.TransitionResult) map[string]interface{} {
	resp := map[string]interface{}{
		"record": result.Record,
		"no_op":  result.NoOp,
	}
	if result.SMSLink != "" {
		resp["sms_link"] = result.SMSLink
	}
	if result.WhatsAppLink != "" {
		resp["whatsapp_link"] = result.WhatsAppLink
	}
	if result.NotifyErr != nil {
		resp["notification_error"] = result.NotifyErr.Error()
	}
	return resp
}
