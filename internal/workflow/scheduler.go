package workflow

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eavinstitute/admissions/internal/models"
	"github.com/eavinstitute/admissions/internal/store"
)

// Scheduler drives automatic approval. Arming persists a due-at timestamp
// on the application row, and a periodic sweep fires the pending->accepted
// transition for rows whose due-at has elapsed. Because the deadline lives
// in the database rather than in an in-process timer, armed approvals
// survive a restart.
//
// Cancellation is implicit: any manual transition (or delete) clears the
// due-at, and the sweep only ever selects rows still pending. A timer that
// fires after the admin already rejected the record is a no-op.
type Scheduler struct {
	store        store.AdmissionStore
	engine       *Engine
	cron         *gocron.Scheduler
	sweepEvery   time.Duration
	stagger      time.Duration
	defaultDelay time.Duration
}

func NewScheduler(s store.AdmissionStore, engine *Engine, sweepEvery, stagger, defaultDelay time.Duration) *Scheduler {
	return &Scheduler{
		store:        s,
		engine:       engine,
		cron:         gocron.NewScheduler(time.UTC),
		sweepEvery:   sweepEvery,
		stagger:      stagger,
		defaultDelay: defaultDelay,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.Every(s.sweepEvery).Do(s.Sweep); err != nil {
		return fmt.Errorf("failed to schedule auto-approval sweep: %w", err)
	}
	s.cron.StartAsync()
	logger.Info.Printf("auto-approval sweep running every %s", s.sweepEvery)
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// automaticMode reports whether the approvalMode setting is "automatic".
func (s *Scheduler) automaticMode() bool {
	setting, err := s.store.GetSetting(models.SettingApprovalMode)
	if err != nil {
		return false
	}
	return setting.Value == models.ApprovalModeAutomatic
}

// Delay returns the configured auto-approval delay.
func (s *Scheduler) Delay() time.Duration {
	setting, err := s.store.GetSetting(models.SettingAutoApprovalDelay)
	if err != nil {
		return s.defaultDelay
	}
	minutes, err := strconv.Atoi(setting.Value)
	if err != nil || minutes < 0 {
		return s.defaultDelay
	}
	return time.Duration(minutes) * time.Minute
}

// Arm schedules auto-approval for one application, a no-op unless
// automatic mode is on.
func (s *Scheduler) Arm(id int64) error {
	if !s.automaticMode() {
		return nil
	}
	due := time.Now().UTC().Add(s.Delay())
	if err := s.store.ArmAutoApproval(id, due); err != nil {
		return err
	}
	logger.Debug.Printf("application %d armed for auto-approval at %s", id, due.Format(time.RFC3339))
	return nil
}

// ArmBacklog arms every pending application that is not already armed,
// staggering the due times so enabling automatic mode on a large backlog
// does not dispatch every notification at once. Returns how many were
// armed.
func (s *Scheduler) ArmBacklog() (int, error) {
	pending, err := s.store.ListApplications(models.ApplicationFilter{Status: models.StatusPending})
	if err != nil {
		return 0, err
	}

	base := time.Now().UTC().Add(s.Delay())
	armed := 0
	for _, app := range pending {
		if app.AutoApproveDue != nil {
			continue
		}
		due := base.Add(time.Duration(armed) * s.stagger)
		if err := s.store.ArmAutoApproval(app.ID, due); err != nil {
			return armed, err
		}
		armed++
	}
	if armed > 0 {
		logger.Info.Printf("armed %d pending application(s) for auto-approval", armed)
	}
	return armed, nil
}

// Sweep fires the accepted transition for every armed row whose due-at has
// elapsed. Exported so tests (and the settings handler, right after
// enabling automatic mode) can run a sweep deterministically.
func (s *Scheduler) Sweep() {
	if !s.automaticMode() {
		return
	}

	due, err := s.store.DueAutoApprovals(time.Now().UTC())
	if err != nil {
		logger.Error.Printf("auto-approval sweep failed: %v", err)
		return
	}

	for _, app := range due {
		result, err := s.engine.Transition(app.ID, models.StatusAccepted, "auto")
		if err != nil {
			logger.Error.Printf("auto-approval of application %d failed: %v", app.ID, err)
			// Disarm so a permanently failing row does not wedge every sweep.
			if derr := s.store.DisarmAutoApproval(app.ID); derr != nil {
				logger.Error.Printf("failed to disarm application %d: %v", app.ID, derr)
			}
			continue
		}
		if result.NotifyErr != nil {
			logger.Error.Printf("application %d auto-approved, notification pending retry: %v", app.ID, result.NotifyErr)
		}
	}
}
