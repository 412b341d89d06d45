package app

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eavinstitute/admissions/internal/allocator"
	"github.com/eavinstitute/admissions/internal/metrics"
	"github.com/eavinstitute/admissions/internal/models"
	"github.com/eavinstitute/admissions/internal/notify"
	"github.com/eavinstitute/admissions/internal/store"
	"github.com/eavinstitute/admissions/internal/workflow"
)

type Service struct {
	Config    *Config
	Store     store.AdmissionStore
	Auth      *Auth
	Sender    notify.EmailSender
	Phones    *notify.PhoneNormalizer
	Allocator *allocator.Allocator
	Engine    *workflow.Engine
	Scheduler *workflow.Scheduler
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	var sender notify.EmailSender
	if config.Email.SendgridKey != "" {
		sender = notify.NewSendgridSender(config.Email.SendgridKey, config.Email.FromName, config.Email.FromEmail)
	} else {
		logger.Info.Println("no sendgrid key configured, emails go to the log")
		sender = notify.NewConsoleSender()
	}

	phones := notify.NewPhoneNormalizer(config.Admissions.CountryCode)
	alloc := allocator.New(st, config.Admissions.Prefix, config.Admissions.StartingNumber)
	engine := workflow.NewEngine(st, sender, phones, workflow.Institute{
		Name:          config.Institute.Name,
		Address:       config.Institute.Address,
		ReportingDate: config.Institute.ReportingDate,
	})
	scheduler := workflow.NewScheduler(st, engine,
		config.SweepInterval(), config.Stagger(), config.AutoApprovalDelay())

	svc := &Service{
		Config:    config,
		Store:     st,
		Auth:      auth,
		Sender:    sender,
		Phones:    phones,
		Allocator: alloc,
		Engine:    engine,
		Scheduler: scheduler,
	}

	if err := svc.seedSettings(); err != nil {
		return nil, fmt.Errorf("failed to seed settings: %w", err)
	}

	return svc, nil
}

// seedSettings inserts the workflow settings the dashboard edits, without
// overwriting values an admin already changed.
func (s *Service) seedSettings() error {
	defaults := []models.Setting{
		{Key: models.SettingStartingNumber, Value: strconv.Itoa(s.Config.Admissions.StartingNumber),
			Description: "Reference floor for admission number allocation"},
		{Key: models.SettingApprovalMode, Value: s.Config.Admissions.ApprovalMode,
			Description: "manual or automatic approval of new applications"},
		{Key: models.SettingAutoApprovalDelay, Value: strconv.Itoa(s.Config.Admissions.AutoApprovalDelayMin),
			Description: "Minutes to wait before automatic approval"},
		{Key: models.SettingReportingDate, Value: s.Config.Institute.ReportingDate,
			Description: "Reporting date printed on admission letters"},
	}
	for i := range defaults {
		if _, err := s.Store.GetSetting(defaults[i].Key); err == nil {
			continue
		}
		if err := s.Store.UpsertSetting(&defaults[i]); err != nil {
			return err
		}
	}
	return nil
}

// CreateApplication validates, allocates the admission number and persists
// a new pending record, then arms auto-approval when that mode is on.
func (s *Service) CreateApplication(app *models.Application, source models.Source) error {
	intl, err := s.Phones.Normalize(app.Phone)
	if err != nil {
		return err
	}
	app.Phone = intl
	app.Status = models.StatusPending
	app.Source = source

	if err := app.Validate(); err != nil {
		return err
	}
	if _, err := s.Store.GetCourseByName(app.Course); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewValidationError("course", fmt.Sprintf("unknown course %q", app.Course))
		}
		return fmt.Errorf("failed to verify course %q: %w", app.Course, err)
	}

	number, err := s.Allocator.Allocate()
	if err != nil {
		return err
	}
	app.AdmissionNumber = number

	if err := s.Store.CreateApplication(app); err != nil {
		return err
	}
	metrics.ApplicationsTotal.WithLabelValues(string(source), app.Course).Inc()
	logger.Info.Printf("application %d created: %s (%s)", app.ID, app.AdmissionNumber, source)

	if err := s.Scheduler.Arm(app.ID); err != nil {
		// Arming is best-effort; the record exists and can be approved manually.
		logger.Error.Printf("failed to arm auto-approval for application %d: %v", app.ID, err)
	}
	return nil
}

// ValidateAuth checks the bearer token on admin requests.
func (s *Service) ValidateAuth(r *http.Request) error {
	if !s.Config.Server.EnableAuth {
		return nil
	}

	authHeader := r.Header.Get(s.Config.Auth.TokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fmt.Errorf("Invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	return s.Auth.ValidateToken(r.Context(), token)
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
