package notify

import (
	"fmt"
	"strings"

	"github.com/eavinstitute/admissions/internal/models"
)

// Message intents with stock templates. Admins may also pass a custom
// template string; rendering is the same flat placeholder substitution
// either way, no conditionals or loops.
const (
	IntentApproved      = "approved"
	IntentDocumentReady = "document-ready"
	IntentRequestInfo   = "request-info"
)

var DefaultTemplates = map[string]string{
	IntentApproved: "Dear {name}, congratulations! Your application for {course} has been accepted. " +
		"Your admission number is {admissionNumber}. We will be in touch on {phone} with reporting details.",
	IntentDocumentReady: "Dear {name}, your admission letter for {course} (admission number {admissionNumber}) " +
		"is ready. Please check {email} or contact the admissions office.",
	IntentRequestInfo: "Dear {name}, we need more information to process your application for {course}. " +
		"Please contact the admissions office quoting {admissionNumber}.",
}

// Render substitutes every placeholder occurrence in template from the
// application record. Pure: same inputs, same output, no side effects.
func Render(template string, app *models.Application) string {
	return strings.NewReplacer(
		"{name}", app.FullName,
		"{course}", app.Course,
		"{admissionNumber}", app.AdmissionNumber,
		"{phone}", app.Phone,
		"{email}", app.Email,
	).Replace(template)
}

// RenderIntent renders one of the stock templates.
func RenderIntent(intent string, app *models.Application) (string, error) {
	template, ok := DefaultTemplates[intent]
	if !ok {
		return "", fmt.Errorf("unknown message intent %q", intent)
	}
	return Render(template, app), nil
}

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Email struct {
	To         string
	Subject    string
	HTMLBody   string
	TextBody   string
	Attachment *Attachment
}

// ComposeEmail renders the template into a minimal HTML document with a
// plain-text alternative. Delivery belongs to an EmailSender; this stays
// pure.
func ComposeEmail(subject, template string, app *models.Application) *Email {
	text := Render(template, app)
	html := "<html><body><p>" + strings.ReplaceAll(text, "\n", "</p><p>") + "</p></body></html>"
	return &Email{
		To:       app.Email,
		Subject:  Render(subject, app),
		HTMLBody: html,
		TextBody: text,
	}
}
