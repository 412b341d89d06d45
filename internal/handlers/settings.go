package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eavinstitute/admissions/internal/app"
	"github.com/eavinstitute/admissions/internal/models"
)

type SettingHandler struct {
	service *app.Service
}

func NewSettingHandler(service *app.Service) *SettingHandler {
	return &SettingHandler{
		service: service,
	}
}

func (h *SettingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	settings, err := h.service.Store.ListSettings()
	if err != nil {
		logger.Error.Printf("ERROR: %v", err)
		http.Error(w, "Failed to fetch settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": settings,
	})
}

// HandleUpsert writes one setting. Switching approvalMode to automatic
// arms the whole pending backlog with staggered due times.
func (h *SettingHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var setting models.Setting
	if err := json.NewDecoder(r.Body).Decode(&setting); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if setting.Key == "" {
		http.Error(w, "Setting key is required", http.StatusBadRequest)
		return
	}
	if setting.Key == models.SettingApprovalMode &&
		setting.Value != models.ApprovalModeManual && setting.Value != models.ApprovalModeAutomatic {
		http.Error(w, "approvalMode must be manual or automatic", http.StatusBadRequest)
		return
	}

	wasAutomatic := false
	if prev, err := h.service.Store.GetSetting(models.SettingApprovalMode); err == nil {
		wasAutomatic = prev.Value == models.ApprovalModeAutomatic
	}

	if err := h.service.Store.UpsertSetting(&setting); err != nil {
		writeError(w, err)
		return
	}

	response := map[string]interface{}{"setting": setting}
	if setting.Key == models.SettingApprovalMode &&
		setting.Value == models.ApprovalModeAutomatic && !wasAutomatic {
		armed, err := h.service.Scheduler.ArmBacklog()
		if err != nil {
			logger.Error.Printf("Failed to arm pending backlog: %v", err)
			response["backlog_error"] = err.Error()
		} else {
			response["backlog_armed"] = armed
		}
	}

	writeJSON(w, http.StatusOK, response)
}
