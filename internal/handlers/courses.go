package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eavinstitute/admissions/internal/app"
	"github.com/eavinstitute/admissions/internal/models"
)

type CourseHandler struct {
	service *app.Service
}

func NewCourseHandler(service *app.Service) *CourseHandler {
	return &CourseHandler{
		service: service,
	}
}

// HandleList is public: the application form needs the course catalogue.
func (h *CourseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.Store.ListCourses()
	if err != nil {
		logger.Error.Printf("ERROR: %v", err)
		http.Error(w, "Failed to fetch courses", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": courses,
	})
}

func (h *CourseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var course models.Course
	if err := json.NewDecoder(r.Body).Decode(&course); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := course.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Store.CreateCourse(&course); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid course id", http.StatusBadRequest)
		return
	}

	var course models.Course
	if err := json.NewDecoder(r.Body).Decode(&course); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	course.ID = id
	if err := course.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Store.UpdateCourse(&course); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ValidateAuth(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid course id", http.StatusBadRequest)
		return
	}

	if err := h.service.Store.DeleteCourse(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
