package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eavinstitute/admissions/internal/app"
	"github.com/eavinstitute/admissions/internal/handlers"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to start service: %v", err)
	}
	defer service.Close()

	if err := service.Scheduler.Start(); err != nil {
		logger.Error.Fatalf("Failed to start auto-approval scheduler: %v", err)
	}
	defer service.Scheduler.Stop()

	applicationHandler := handlers.NewApplicationHandler(service)
	courseHandler := handlers.NewCourseHandler(service)
	settingHandler := handlers.NewSettingHandler(service)
	counterHandler := handlers.NewCounterHandler(service)

	// public surface for the application form
	http.HandleFunc("POST /api/v1/applications", applicationHandler.HandleSubmit)
	http.HandleFunc("GET /api/v1/courses", courseHandler.HandleList)

	// admin surface
	http.HandleFunc("GET /api/v1/admin/applications", applicationHandler.HandleList)
	http.HandleFunc("POST /api/v1/admin/applications", applicationHandler.HandleAdminCreate)
	http.HandleFunc("GET /api/v1/admin/applications/{id}", applicationHandler.HandleGet)
	http.HandleFunc("PUT /api/v1/admin/applications/{id}", applicationHandler.HandleUpdate)
	http.HandleFunc("DELETE /api/v1/admin/applications/{id}", applicationHandler.HandleDelete)
	http.HandleFunc("POST /api/v1/admin/applications/{id}/status", applicationHandler.HandleTransition)
	http.HandleFunc("POST /api/v1/admin/applications/{id}/resend", applicationHandler.HandleResend)
	http.HandleFunc("GET /api/v1/admin/applications/{id}/letter", applicationHandler.HandleLetterDownload)
	http.HandleFunc("GET /api/v1/admin/applications/{id}/emails", applicationHandler.HandleEmailLogs)

	http.HandleFunc("POST /api/v1/admin/courses", courseHandler.HandleCreate)
	http.HandleFunc("PUT /api/v1/admin/courses/{id}", courseHandler.HandleUpdate)
	http.HandleFunc("DELETE /api/v1/admin/courses/{id}", courseHandler.HandleDelete)

	http.HandleFunc("GET /api/v1/admin/settings", settingHandler.HandleList)
	http.HandleFunc("PUT /api/v1/admin/settings", settingHandler.HandleUpsert)

	http.HandleFunc("GET /api/v1/admin/counter/next", counterHandler.HandlePreview)
	http.HandleFunc("GET /api/v1/admin/counter/conflicts", counterHandler.HandleConflicts)
	http.HandleFunc("POST /api/v1/admin/counter/reset", counterHandler.HandleReset)

	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	logger.Info.Printf("Starting admissions server on %s", service.Config.Server.Port)
	logger.Info.Printf("Admission number prefix: %s", service.Config.Admissions.Prefix)
	logger.Debug.Printf("Approval mode default: %s", service.Config.Admissions.ApprovalMode)
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Admissions server failed: %v", err)
	}
}
