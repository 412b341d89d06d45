package notify

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender delivers a composed email and reports the provider message
// id. Delivery is fire-and-forget from the composer's perspective; the
// caller decides what to do with a failure (log it, surface it as a
// partial success, offer a resend).
type EmailSender interface {
	Send(email *Email) (providerID string, err error)
}

type SendgridSender struct {
	key       string
	fromName  string
	fromEmail string
}

var _ EmailSender = (*SendgridSender)(nil)

func NewSendgridSender(key, fromName, fromEmail string) *SendgridSender {
	return &SendgridSender{
		key:       key,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SendgridSender) Send(email *Email) (string, error) {
	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(s.fromName, s.fromEmail))
	m.Subject = email.Subject

	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail("", email.To))
	m.AddPersonalizations(p)

	m.AddContent(
		sgmail.NewContent("text/plain", email.TextBody),
		sgmail.NewContent("text/html", email.HTMLBody),
	)

	if at := email.Attachment; at != nil {
		m.AddAttachment(&sgmail.Attachment{
			Content:     base64.StdEncoding.EncodeToString(at.Content),
			Type:        at.ContentType,
			Filename:    at.Filename,
			Disposition: "attachment",
		})
	}

	client := sendgrid.NewSendClient(s.key)
	resp, err := client.Send(m)
	if err != nil {
		return "", fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}

	ids := resp.Headers["X-Message-Id"]
	if len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}
