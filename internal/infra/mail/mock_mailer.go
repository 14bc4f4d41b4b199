package mail

import (
	"context"
	"encoding/json"

	"policy-pulse-server/internal/domain"
)

// MockMailer logs the rendered message instead of delivering it. Used when
// MAIL_MODE=mock so local runs never touch a relay.
type MockMailer struct {
	logger domain.Logger
}

// NewMockMailer creates a new mock mailer
func NewMockMailer(logger domain.Logger) *MockMailer {
	return &MockMailer{logger: logger}
}

// Send logs the message as JSON and reports success.
func (m *MockMailer) Send(ctx context.Context, msg *domain.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{
		"to":      msg.To,
		"subject": msg.Subject,
		"text":    msg.Text,
	})
	if err != nil {
		return err
	}

	m.logger.Info("Mock mail send", "message", string(payload))
	return nil
}
