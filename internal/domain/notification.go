package domain

// NotificationRecipient is one patient to notify about plan changes.
type NotificationRecipient struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	PatientID string `json:"patientId,omitempty"`
}

// PlanChangeNotification carries a change summary plus the recipients.
// Subject is optional; a dated default is generated when empty. At least one
// of SummaryHTML/SummaryText should be set.
type PlanChangeNotification struct {
	Subject     string                  `json:"subject,omitempty"`
	SummaryHTML string                  `json:"summaryHtml,omitempty"`
	SummaryText string                  `json:"summaryText,omitempty"`
	Patients    []NotificationRecipient `json:"patients"`
}

// NotificationFailure records one undeliverable recipient.
type NotificationFailure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// NotificationResult summarizes a batch send. Partial failures are collected
// per recipient, never aborting the rest of the batch.
type NotificationResult struct {
	Sent   int                   `json:"sent"`
	Failed []NotificationFailure `json:"failed"`
}

// MailMessage is one rendered outbound e-mail handed to the Mailer.
type MailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
	Headers map[string]string
}
