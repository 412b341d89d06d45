package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eavinstitute/admissions/internal/models"
	"github.com/eavinstitute/admissions/internal/notify"
	"github.com/eavinstitute/admissions/internal/store/sqlite"
)

// failingSender fails every delivery, for partial-success assertions.
type failingSender struct {
	attempts int
}

func (f *failingSender) Send(email *notify.Email) (string, error) {
	f.attempts++
	return "", errors.New("smtp said no")
}

var testInstitute = Institute{
	Name:          "East African Vocational Institute",
	Address:       "P.O. Box 1234, Nakuru",
	ReportingDate: "2026-05-04",
}

func setupEngine(t *testing.T, sender notify.EmailSender) (*Engine, *sqlite.SQLiteStore) {
	s, err := sqlite.NewSQLiteStore(":memory:", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.DB.Exec(`
		INSERT INTO courses (name, fee_balance, fee_per_year)
		VALUES ('Plumbing', 1500, 32000)`)
	require.NoError(t, err)

	phones := notify.NewPhoneNormalizer("254")
	return NewEngine(s, sender, phones, testInstitute), s
}

func createApplication(t *testing.T, s *sqlite.SQLiteStore, email string) *models.Application {
	app := &models.Application{
		FullName:        "John Mwangi",
		Email:           email,
		Phone:           "254712345678",
		Course:          "Plumbing",
		AdmissionNumber: "EAVI/1001/26",
		Status:          models.StatusPending,
		Source:          models.SourceOnline,
	}
	require.NoError(t, s.CreateApplication(app))
	return app
}

func TestTransitionAccept(t *testing.T) {
	sender := notify.NewConsoleSender()
	engine, s := setupEngine(t, sender)
	app := createApplication(t, s, "john@example.com")

	result, err := engine.Transition(app.ID, models.StatusAccepted, "admin")
	require.NoError(t, err)

	t.Run("status persisted", func(t *testing.T) {
		assert.Equal(t, models.StatusAccepted, result.Record.Status)
		got, err := s.GetApplication(app.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAccepted, got.Status)
	})

	t.Run("exactly one email with letter attached", func(t *testing.T) {
		sent := sender.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "john@example.com", sent[0].To)
		require.NotNil(t, sent[0].Attachment)
		assert.Equal(t, "application/pdf", sent[0].Attachment.ContentType)
		assert.NotEmpty(t, sent[0].Attachment.Content)
	})

	t.Run("deep links prepared", func(t *testing.T) {
		assert.Contains(t, result.SMSLink, "sms:+254712345678")
		assert.Contains(t, result.WhatsAppLink, "https://wa.me/254712345678")
	})

	t.Run("delivery recorded", func(t *testing.T) {
		logs, err := s.ListEmailLogs(app.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, models.EmailStatusSent, logs[0].Status)

		got, err := s.GetApplication(app.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.LetterSentAt)
	})
}

func TestTransitionNoOp(t *testing.T) {
	sender := notify.NewConsoleSender()
	engine, s := setupEngine(t, sender)
	app := createApplication(t, s, "john@example.com")

	_, err := engine.Transition(app.ID, models.StatusAccepted, "admin")
	require.NoError(t, err)

	result, err := engine.Transition(app.ID, models.StatusAccepted, "admin")
	require.NoError(t, err)
	assert.True(t, result.NoOp)
	assert.Len(t, sender.Sent(), 1, "repeat accept must not resend")
}

func TestTransitionIllegal(t *testing.T) {
	engine, s := setupEngine(t, notify.NewConsoleSender())
	app := createApplication(t, s, "")

	_, err := engine.Transition(app.ID, models.StatusAccepted, "admin")
	require.NoError(t, err)

	_, err = engine.Transition(app.ID, models.StatusRejected, "admin")
	require.Error(t, err)
	var vErr *models.ValidationError
	assert.ErrorAs(t, err, &vErr, "accepted -> rejected has no direct edge")

	got, err := s.GetApplication(app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status, "failed transition leaves status untouched")
}

func TestTransitionReversal(t *testing.T) {
	engine, s := setupEngine(t, notify.NewConsoleSender())
	app := createApplication(t, s, "")

	for _, step := range []models.Status{
		models.StatusRejected,
		models.StatusPending,
		models.StatusAccepted,
	} {
		result, err := engine.Transition(app.ID, step, "admin")
		require.NoError(t, err)
		assert.Equal(t, step, result.Record.Status)
	}
}

func TestTransitionUnknownApplication(t *testing.T) {
	engine, _ := setupEngine(t, notify.NewConsoleSender())

	_, err := engine.Transition(9999, models.StatusAccepted, "admin")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAcceptWithoutEmail(t *testing.T) {
	sender := notify.NewConsoleSender()
	engine, s := setupEngine(t, sender)
	app := createApplication(t, s, "")

	result, err := engine.Transition(app.ID, models.StatusAccepted, "admin")
	require.NoError(t, err)

	assert.Nil(t, result.NotifyErr)
	assert.Empty(t, sender.Sent(), "no address, no email attempt")
	assert.NotEmpty(t, result.SMSLink, "deep links still prepared")
}

func TestAcceptPartialSuccess(t *testing.T) {
	sender := &failingSender{}
	engine, s := setupEngine(t, sender)
	app := createApplication(t, s, "john@example.com")

	result, err := engine.Transition(app.ID, models.StatusAccepted, "admin")
	require.NoError(t, err, "delivery failure must not fail the transition")

	t.Run("status still updated", func(t *testing.T) {
		got, err := s.GetApplication(app.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAccepted, got.Status)
	})

	t.Run("failure surfaced for retry", func(t *testing.T) {
		require.Error(t, result.NotifyErr)
		var nErr *models.NotificationError
		require.ErrorAs(t, result.NotifyErr, &nErr)
		assert.Equal(t, "email", nErr.Stage)
		assert.Equal(t, 1, sender.attempts)
	})

	t.Run("failed attempt logged", func(t *testing.T) {
		logs, err := s.ListEmailLogs(app.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, models.EmailStatusFailed, logs[0].Status)
		assert.Equal(t, "smtp said no", logs[0].Error)
	})
}

func TestResend(t *testing.T) {
	sender := notify.NewConsoleSender()
	engine, s := setupEngine(t, sender)
	app := createApplication(t, s, "john@example.com")

	t.Run("resend before accept is rejected", func(t *testing.T) {
		_, err := engine.Resend(app.ID)
		var vErr *models.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	_, err := engine.Transition(app.ID, models.StatusAccepted, "admin")
	require.NoError(t, err)

	t.Run("resend repeats delivery", func(t *testing.T) {
		result, err := engine.Resend(app.ID)
		require.NoError(t, err)
		assert.False(t, result.NoOp)
		assert.Len(t, sender.Sent(), 2)

		logs, err := s.ListEmailLogs(app.ID)
		require.NoError(t, err)
		assert.Len(t, logs, 2, "each attempt appends a log row")
	})
}

func TestBuildLetter(t *testing.T) {
	engine, s := setupEngine(t, notify.NewConsoleSender())
	app := createApplication(t, s, "")

	t.Run("pdf bytes", func(t *testing.T) {
		pdf, err := engine.BuildLetter(app.ID)
		require.NoError(t, err)
		assert.True(t, len(pdf) > 4)
		assert.Equal(t, "%PDF", string(pdf[:4]))
	})

	t.Run("dangling course tolerated", func(t *testing.T) {
		orphan := &models.Application{
			FullName:        "Grace Achieng",
			Phone:           "254712345679",
			Course:          "Dropped Course",
			AdmissionNumber: "EAVI/1002/26",
			Status:          models.StatusAccepted,
			Source:          models.SourceManual,
		}
		require.NoError(t, s.CreateApplication(orphan))

		pdf, err := engine.BuildLetter(orphan.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, pdf)
	})

	t.Run("missing application", func(t *testing.T) {
		_, err := engine.BuildLetter(9999)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
