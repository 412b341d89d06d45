package main

import (
	"flag"
	"os"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eavinstitute/admissions/internal/app"
)

// Renders the admission letter for one application to a PDF file,
// handy for reprints without going through the API.
func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	var id = flag.Int64("id", 0, "Application ID")
	var out = flag.String("out", "letter.pdf", "Output PDF path")
	flag.Parse()

	if *id < 1 {
		logger.Error.Fatalf("A positive -id is required")
	}

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to start service: %v", err)
	}
	defer service.Close()

	application, err := service.Store.GetApplication(*id)
	if err != nil {
		logger.Error.Fatalf("Failed to fetch application %d: %v", *id, err)
	}

	pdf, err := service.Engine.BuildLetter(*id)
	if err != nil {
		logger.Error.Fatalf("Failed to build letter for application %d: %v", *id, err)
	}

	if err := os.WriteFile(*out, pdf, 0o644); err != nil {
		logger.Error.Fatalf("Failed to write %s: %v", *out, err)
	}

	logger.Info.Printf("Wrote letter for %s (%s) to %s", application.FullName, application.AdmissionNumber, *out)
}
