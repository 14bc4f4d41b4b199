package mail

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"policy-pulse-server/internal/domain"
)

// SMTPMailer delivers messages through a plain SMTP relay. Auth is used only
// when a username is configured, so local relays work without credentials.
type SMTPMailer struct {
	addr     string
	from     string
	username string
	password string
	logger   domain.Logger
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(addr, from, username, password string, logger domain.Logger) *SMTPMailer {
	return &SMTPMailer{
		addr:     addr,
		from:     from,
		username: username,
		password: password,
		logger:   logger,
	}
}

// Send delivers one message, honoring context cancellation before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg *domain.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.username != "" {
		host := m.addr
		if i := strings.LastIndex(host, ":"); i != -1 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.username, m.password, host)
	}

	body := renderMIME(m.from, msg)
	if err := smtp.SendMail(m.addr, auth, m.from, []string{msg.To}, body); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", msg.To, err)
	}

	m.logger.Debug("Mail delivered", "to", msg.To, "subject", msg.Subject)
	return nil
}

const mimeBoundary = "policy-pulse-alt"

// renderMIME builds the raw message: multipart/alternative when both bodies
// are present, a single part otherwise.
func renderMIME(from string, msg *domain.MailMessage) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	for k, v := range msg.Headers {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case msg.HTML != "" && msg.Text != "":
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mimeBoundary)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", mimeBoundary, msg.Text)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", mimeBoundary, msg.HTML)
		fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	case msg.HTML != "":
		fmt.Fprintf(&b, "Content-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", msg.HTML)
	default:
		fmt.Fprintf(&b, "Content-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", msg.Text)
	}

	return []byte(b.String())
}
