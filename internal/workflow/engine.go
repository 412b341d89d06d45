package workflow

import (
	"fmt"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eavinstitute/admissions/internal/letter"
	"github.com/eavinstitute/admissions/internal/metrics"
	"github.com/eavinstitute/admissions/internal/models"
	"github.com/eavinstitute/admissions/internal/notify"
	"github.com/eavinstitute/admissions/internal/store"
)

// validTransitions lists every allowed (from -> to) pair. Accepted and
// Rejected are reversible through Pending; there is no direct
// accepted <-> rejected edge.
var validTransitions = map[models.Status][]models.Status{
	models.StatusPending:  {models.StatusAccepted, models.StatusRejected},
	models.StatusAccepted: {models.StatusPending},
	models.StatusRejected: {models.StatusPending},
}

func transitionAllowed(from, to models.Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Institute holds the static letterhead details and the fallback
// reporting date used when the setting is absent.
type Institute struct {
	Name          string
	Address       string
	ReportingDate string
}

// Engine governs the application lifecycle. The status write is durable
// and authoritative; the acceptance side effects (letter, email, deep
// links) are best-effort follow-ups that never roll the status back.
type Engine struct {
	store     store.AdmissionStore
	sender    notify.EmailSender
	phones    *notify.PhoneNormalizer
	institute Institute
}

func NewEngine(s store.AdmissionStore, sender notify.EmailSender, phones *notify.PhoneNormalizer, inst Institute) *Engine {
	return &Engine{
		store:     s,
		sender:    sender,
		phones:    phones,
		institute: inst,
	}
}

// TransitionResult reports a transition. NotifyErr being non-nil means
// partial success: status updated, notification failed and can be retried
// with Resend.
type TransitionResult struct {
	Record       *models.Application `json:"record"`
	NoOp         bool                `json:"no_op"`
	NotifyErr    error               `json:"-"`
	SMSLink      string              `json:"sms_link,omitempty"`
	WhatsAppLink string              `json:"whatsapp_link,omitempty"`
}

// Transition moves an application to newStatus. A repeated call with the
// record already in newStatus is a no-op and does NOT re-trigger side
// effects; resending is an explicit separate action.
func (e *Engine) Transition(id int64, newStatus models.Status, trigger string) (*TransitionResult, error) {
	app, err := e.store.GetApplication(id)
	if err != nil {
		return nil, err
	}

	if app.Status == newStatus {
		return &TransitionResult{Record: app, NoOp: true}, nil
	}
	if !transitionAllowed(app.Status, newStatus) {
		return nil, models.NewValidationError("status",
			fmt.Sprintf("cannot move application from %s to %s", app.Status, newStatus))
	}

	from := app.Status
	app, err = e.store.UpdateApplicationStatus(id, newStatus)
	if err != nil {
		return nil, err
	}
	metrics.TransitionsTotal.WithLabelValues(string(from), string(newStatus), trigger).Inc()
	logger.Info.Printf("application %d: %s -> %s (%s)", id, from, newStatus, trigger)

	result := &TransitionResult{Record: app}
	if newStatus == models.StatusAccepted {
		e.notifyAccepted(app, result)
	}
	return result, nil
}

// Resend re-runs the acceptance side effects for an already-accepted
// record without touching its status.
func (e *Engine) Resend(id int64) (*TransitionResult, error) {
	app, err := e.store.GetApplication(id)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusAccepted {
		return nil, models.NewValidationError("status",
			fmt.Sprintf("cannot resend admission letter for a %s application", app.Status))
	}

	result := &TransitionResult{Record: app}
	e.notifyAccepted(app, result)
	return result, nil
}

// notifyAccepted generates the letter, attempts email delivery and
// prepares the messaging deep links. Exactly one letter attempt and at
// most one email attempt per invocation; any failure lands in
// result.NotifyErr instead of propagating.
func (e *Engine) notifyAccepted(app *models.Application, result *TransitionResult) {
	pdf, err := e.buildLetter(app)
	if err != nil {
		logger.Error.Printf("letter generation failed for application %d: %v", app.ID, err)
		metrics.NotificationsTotal.WithLabelValues("letter", "failed").Inc()
		result.NotifyErr = &models.NotificationError{ApplicationID: app.ID, Stage: "letter", Err: err}
		return
	}
	metrics.NotificationsTotal.WithLabelValues("letter", "generated").Inc()

	if app.Email != "" {
		email := notify.ComposeEmail(
			"Admission to "+e.institute.Name+" - {admissionNumber}",
			notify.DefaultTemplates[notify.IntentApproved],
			app,
		)
		email.Attachment = &notify.Attachment{
			Filename:    "admission-letter-" + app.AdmissionNumber + ".pdf",
			ContentType: "application/pdf",
			Content:     pdf,
		}
		result.NotifyErr = e.deliver(app, email)
	}

	text, _ := notify.RenderIntent(notify.IntentApproved, app)
	if link, err := e.phones.SMSLink(app.Phone, text); err == nil {
		result.SMSLink = link
	} else {
		logger.Debug.Printf("no sms link for application %d: %v", app.ID, err)
	}
	if link, err := e.phones.WhatsAppLink(app.Phone, text); err == nil {
		result.WhatsAppLink = link
	} else {
		logger.Debug.Printf("no whatsapp link for application %d: %v", app.ID, err)
	}
}

func (e *Engine) deliver(app *models.Application, email *notify.Email) error {
	entry := &models.EmailLog{
		ApplicationID: app.ID,
		Recipient:     email.To,
		Subject:       email.Subject,
	}

	providerID, err := e.sender.Send(email)
	if err != nil {
		logger.Error.Printf("email delivery failed for application %d: %v", app.ID, err)
		metrics.NotificationsTotal.WithLabelValues("email", "failed").Inc()
		entry.Status = models.EmailStatusFailed
		entry.Error = err.Error()
		if logErr := e.store.CreateEmailLog(entry); logErr != nil {
			logger.Error.Printf("failed to record email log for application %d: %v", app.ID, logErr)
		}
		return &models.NotificationError{ApplicationID: app.ID, Stage: "email", Err: err}
	}

	metrics.NotificationsTotal.WithLabelValues("email", "sent").Inc()
	entry.Status = models.EmailStatusSent
	entry.ProviderID = providerID
	if logErr := e.store.CreateEmailLog(entry); logErr != nil {
		logger.Error.Printf("failed to record email log for application %d: %v", app.ID, logErr)
	}
	if err := e.store.MarkLetterSent(app.ID, time.Now().UTC()); err != nil {
		logger.Error.Printf("failed to mark letter sent for application %d: %v", app.ID, err)
	}
	return nil
}

// BuildLetter regenerates the admission letter PDF for download-by-id.
func (e *Engine) BuildLetter(id int64) ([]byte, error) {
	app, err := e.store.GetApplication(id)
	if err != nil {
		return nil, err
	}
	return e.buildLetter(app)
}

func (e *Engine) buildLetter(app *models.Application) ([]byte, error) {
	data := letter.Data{
		InstituteName:    e.institute.Name,
		InstituteAddress: e.institute.Address,
		FullName:         app.FullName,
		AdmissionNumber:  app.AdmissionNumber,
		Course:           app.Course,
		ReportingDate:    e.reportingDate(),
	}

	// A dangling course name is tolerated; the letter just prints zero fees.
	if course, err := e.store.GetCourseByName(app.Course); err == nil {
		data.FeePerYear = course.FeePerYear
		data.FeeBalance = course.FeeBalance
	} else {
		logger.Debug.Printf("no course %q for application %d, letter fees left empty", app.Course, app.ID)
	}

	return letter.Generate(data)
}

func (e *Engine) reportingDate() string {
	if setting, err := e.store.GetSetting(models.SettingReportingDate); err == nil && setting.Value != "" {
		return setting.Value
	}
	return e.institute.ReportingDate
}
