package notify

import (
	"fmt"
	"sync"

	"github.com/shrimpsizemoose/trekker/logger"
)

// ConsoleSender logs emails instead of delivering them. Used in dev mode
// (no sendgrid key configured) and in tests, where Sent allows asserting
// exactly how many attempts were made.
type ConsoleSender struct {
	mu   sync.Mutex
	sent []Email
	seq  int
}

var _ EmailSender = (*ConsoleSender)(nil)

func NewConsoleSender() *ConsoleSender {
	return &ConsoleSender{}
}

func (s *ConsoleSender) Send(email *Email) (string, error) {
	s.mu.Lock()
	s.sent = append(s.sent, *email)
	s.seq++
	id := fmt.Sprintf("console-%d", s.seq)
	s.mu.Unlock()

	logger.Info.Printf("email to=%s subject=%q", email.To, email.Subject)
	logger.Debug.Printf("email body: %s", email.TextBody)
	if email.Attachment != nil {
		logger.Debug.Printf("email attachment: %s (%d bytes)", email.Attachment.Filename, len(email.Attachment.Content))
	}
	return id, nil
}

// Sent returns a copy of everything delivered so far.
func (s *ConsoleSender) Sent() []Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Email, len(s.sent))
	copy(out, s.sent)
	return out
}
