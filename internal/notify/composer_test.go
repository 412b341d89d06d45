package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eavinstitute/admissions/internal/models"
)

func sampleApplication() *models.Application {
	return &models.Application{
		FullName:        "Grace Achieng",
		Email:           "grace@example.com",
		Phone:           "254712345678",
		Course:          "Electrical Installation",
		AdmissionNumber: "EAVI/1007/26",
	}
}

func TestRender(t *testing.T) {
	app := sampleApplication()

	t.Run("substitutes every placeholder", func(t *testing.T) {
		got := Render("{name} / {course} / {admissionNumber} / {phone} / {email}", app)
		assert.Equal(t,
			"Grace Achieng / Electrical Installation / EAVI/1007/26 / 254712345678 / grace@example.com",
			got)
	})

	t.Run("repeated placeholders all replaced", func(t *testing.T) {
		got := Render("{name} {name}", app)
		assert.Equal(t, "Grace Achieng Grace Achieng", got)
	})

	t.Run("unknown placeholders pass through", func(t *testing.T) {
		got := Render("Hello {nothing}", app)
		assert.Equal(t, "Hello {nothing}", got)
	})

	t.Run("deterministic", func(t *testing.T) {
		template := DefaultTemplates[IntentApproved]
		assert.Equal(t, Render(template, app), Render(template, app))
	})
}

func TestRenderIntent(t *testing.T) {
	app := sampleApplication()

	t.Run("approved template", func(t *testing.T) {
		got, err := RenderIntent(IntentApproved, app)
		require.NoError(t, err)
		assert.Contains(t, got, "Grace Achieng")
		assert.Contains(t, got, "EAVI/1007/26")
		assert.NotContains(t, got, "{")
	})

	t.Run("every stock template renders clean", func(t *testing.T) {
		for intent := range DefaultTemplates {
			got, err := RenderIntent(intent, app)
			require.NoError(t, err)
			assert.NotContains(t, got, "{", "intent %s left a placeholder", intent)
		}
	})

	t.Run("unknown intent", func(t *testing.T) {
		_, err := RenderIntent("nope", app)
		assert.Error(t, err)
	})
}

func TestComposeEmail(t *testing.T) {
	app := sampleApplication()

	email := ComposeEmail("Admission to {course}", "Dear {name},\nwelcome aboard.", app)

	assert.Equal(t, "grace@example.com", email.To)
	assert.Equal(t, "Admission to Electrical Installation", email.Subject)
	assert.Equal(t, "Dear Grace Achieng,\nwelcome aboard.", email.TextBody)
	assert.Equal(t, "<html><body><p>Dear Grace Achieng,</p><p>welcome aboard.</p></body></html>", email.HTMLBody)
	assert.Nil(t, email.Attachment)
}
