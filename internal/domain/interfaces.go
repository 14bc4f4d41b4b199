package domain

import (
	"context"

	"github.com/supabase-community/supabase-go"
)

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetMaxFileSize() int64
	GetLogLevel() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetStorageBucket() string
	GetJWTSecret() string
	GetMailMode() string
	GetMailFrom() string
	GetMailSendRate() float64
	GetSMTPAddr() string
	GetSMTPUser() string
	GetSMTPPassword() string
}

// SupabaseClient wraps the shared Supabase connection
type SupabaseClient interface {
	Initialize() error
	ValidateToken(token string) (*SupabaseUser, error)

	DB() *supabase.Client
}

// PolicyRepository is the policy-directory read/write contract
type PolicyRepository interface {
	List(ctx context.Context) ([]*Policy, error)
	GetByID(ctx context.Context, id string) (*Policy, error)
	GetByFileName(ctx context.Context, fileName string) (*Policy, error)
	Create(ctx context.Context, policy *Policy) error
}

// UserRepository is the user-directory read contract
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// GetInsuredOnAny returns all users whose insured-policy reference list
	// contains any of the given policy paths, deduplicated by user ID.
	GetInsuredOnAny(ctx context.Context, policyPaths []string) ([]*User, error)
}

// ReportRepository persists impact reports; every run writes a new report.
type ReportRepository interface {
	Save(ctx context.Context, policyPath string, report *ImpactReport) error
	ListIndex(ctx context.Context, policyPath string, limit int) ([]*ImpactIndexEntry, error)
}

// PolicyFileStore reads policy PDF bytes from the storage bucket
type PolicyFileStore interface {
	Download(ctx context.Context, objectName string) ([]byte, error)
}

// Mailer delivers a single rendered message
type Mailer interface {
	Send(ctx context.Context, msg *MailMessage) error
}

// CompareService runs the document-diff pipeline over two PDF byte buffers
type CompareService interface {
	CompareStructured(ctx context.Context, oldPDF, newPDF []byte) (*StructuredDiff, error)
	CompareUnified(ctx context.Context, oldPDF, newPDF []byte, opts UnifiedOptions) (*UnifiedDiff, error)
	CompareInline(ctx context.Context, oldPDF, newPDF []byte, maxEqualChunkLines int) (string, error)
	CompareTables(ctx context.Context, oldPDF, newPDF []byte, section TableSection) (*TableDiff, error)
}

// ImpactService resolves which insured users a coverage change affects
type ImpactService interface {
	Run(ctx context.Context, params ImpactParams) (*ImpactReport, error)
	ListReports(ctx context.Context, policyID string, limit int) ([]*ImpactIndexEntry, error)
}

// RecommendationService scores and ranks policies against a user's medications
type RecommendationService interface {
	RecommendBetter(ctx context.Context, userID string, opts RecommendOptions) (*Recommendation, error)
}

// PolicyService covers directory reads plus PDF-driven ingestion
type PolicyService interface {
	List(ctx context.Context) ([]*Policy, error)
	GetByID(ctx context.Context, id string) (*Policy, error)
	Ingest(ctx context.Context, req IngestRequest) (*Policy, error)
	ComparePolicyFiles(ctx context.Context, oldPolicyID, newPolicyID string) (oldPDF, newPDF []byte, oldPolicy, newPolicy *Policy, err error)
}

// NotificationService sends plan-change notifications in batches
type NotificationService interface {
	SendPlanChangeEmails(ctx context.Context, req PlanChangeNotification) (*NotificationResult, error)
}
