package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"policy-pulse-server/internal/domain"
	apperrors "policy-pulse-server/pkg/errors"
)

// NotificationBatchSize bounds how many sends run concurrently per batch.
const NotificationBatchSize = 25

// NotificationServiceImpl fans plan-change e-mails out in bounded batches.
// Failures are collected per recipient; one bounce never aborts the rest.
type NotificationServiceImpl struct {
	mailer  domain.Mailer
	limiter *rate.Limiter
	logger  domain.Logger
}

// NewNotificationService creates a new notification service. sendsPerSecond
// paces outbound mail across batches; zero or negative disables pacing.
func NewNotificationService(mailer domain.Mailer, sendsPerSecond float64, logger domain.Logger) *NotificationServiceImpl {
	limit := rate.Inf
	if sendsPerSecond > 0 {
		limit = rate.Limit(sendsPerSecond)
	}
	return &NotificationServiceImpl{
		mailer:  mailer,
		limiter: rate.NewLimiter(limit, NotificationBatchSize),
		logger:  logger,
	}
}

// SendPlanChangeEmails renders and delivers the change summary to every
// recipient with an e-mail address.
func (s *NotificationServiceImpl) SendPlanChangeEmails(ctx context.Context, req domain.PlanChangeNotification) (*domain.NotificationResult, error) {
	if strings.TrimSpace(req.SummaryHTML) == "" && strings.TrimSpace(req.SummaryText) == "" {
		return nil, apperrors.NewValidationError("summaryHtml or summaryText is required")
	}

	recipients := make([]domain.NotificationRecipient, 0, len(req.Patients))
	for _, p := range req.Patients {
		if strings.TrimSpace(p.Email) != "" {
			recipients = append(recipients, p)
		}
	}
	if len(recipients) == 0 {
		return nil, apperrors.NewValidationError("no recipients with an email address")
	}

	subject := req.Subject
	if subject == "" {
		subject = fmt.Sprintf("Your insurance plan coverage changed (%s)", time.Now().UTC().Format("2006-01-02"))
	}

	result := &domain.NotificationResult{Failed: []domain.NotificationFailure{}}
	var mu sync.Mutex

	for start := 0; start < len(recipients); start += NotificationBatchSize {
		end := start + NotificationBatchSize
		if end > len(recipients) {
			end = len(recipients)
		}

		var wg sync.WaitGroup
		for _, recipient := range recipients[start:end] {
			wg.Add(1)
			go func(r domain.NotificationRecipient) {
				defer wg.Done()

				if err := s.limiter.Wait(ctx); err != nil {
					mu.Lock()
					result.Failed = append(result.Failed, domain.NotificationFailure{Email: r.Email, Error: err.Error()})
					mu.Unlock()
					return
				}

				msg := s.renderMessage(subject, req, r)
				if err := s.mailer.Send(ctx, msg); err != nil {
					s.logger.Warn("Plan-change email failed", "email", r.Email, "error", err.Error())
					mu.Lock()
					result.Failed = append(result.Failed, domain.NotificationFailure{Email: r.Email, Error: err.Error()})
					mu.Unlock()
					return
				}

				mu.Lock()
				result.Sent++
				mu.Unlock()
			}(recipient)
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return result, err
		}
	}

	s.logger.Info("Plan-change notifications dispatched",
		"recipients", len(recipients),
		"sent", result.Sent,
		"failed", len(result.Failed))

	return result, nil
}

func (s *NotificationServiceImpl) renderMessage(subject string, req domain.PlanChangeNotification, r domain.NotificationRecipient) *domain.MailMessage {
	greetName := r.Name
	if greetName == "" {
		greetName = "there"
	}

	text := req.SummaryText
	if text != "" {
		text = fmt.Sprintf("Hi %s,\n\n%s\n", greetName, text)
	}

	html := req.SummaryHTML
	if html != "" {
		html = fmt.Sprintf("<p>Hi %s,</p>\n%s", greetName, html)
	}

	headers := map[string]string{}
	if r.PatientID != "" {
		headers["X-Patient-Ref"] = r.PatientID
	}

	return &domain.MailMessage{
		To:      r.Email,
		Subject: subject,
		Text:    text,
		HTML:    html,
		Headers: headers,
	}
}
