package config

import (
	"policy-pulse-server/internal/domain"
	"policy-pulse-server/internal/infra/mail"
	"policy-pulse-server/internal/repository"
	"policy-pulse-server/internal/service"
	"policy-pulse-server/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	SupabaseClient domain.SupabaseClient

	PolicyRepository domain.PolicyRepository
	UserRepository   domain.UserRepository
	ReportRepository domain.ReportRepository
	PolicyFileStore  domain.PolicyFileStore
	Mailer           domain.Mailer

	CompareService        domain.CompareService
	ImpactService         domain.ImpactService
	RecommendationService domain.RecommendationService
	PolicyService         domain.PolicyService
	NotificationService   domain.NotificationService
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	cfg := NewConfig()
	appLogger := logger.NewLogger(cfg.GetLogLevel())

	// Initialize Supabase client
	supabaseClient := repository.NewSupabaseClient(cfg, appLogger)

	// Initialize repositories
	policyRepo := repository.NewSupabasePolicyRepository(supabaseClient, appLogger)
	userRepo := repository.NewSupabaseUserRepository(supabaseClient, appLogger)
	reportRepo := repository.NewSupabaseReportRepository(supabaseClient, appLogger)
	fileStore := repository.NewStorageFileStore(
		cfg.GetSupabaseURL(),
		cfg.GetSupabaseKey(),
		cfg.GetStorageBucket(),
		appLogger,
	)

	var mailer domain.Mailer
	if cfg.GetMailMode() == "smtp" {
		mailer = mail.NewSMTPMailer(
			cfg.GetSMTPAddr(),
			cfg.GetMailFrom(),
			cfg.GetSMTPUser(),
			cfg.GetSMTPPassword(),
			appLogger,
		)
	} else {
		mailer = mail.NewMockMailer(appLogger)
	}

	// Initialize services
	extractor := service.NewPDFExtractor(appLogger)
	compareService := service.NewCompareService(extractor, appLogger)
	impactService := service.NewImpactService(policyRepo, userRepo, reportRepo, appLogger)
	recommendationService := service.NewRecommendationService(policyRepo, userRepo, appLogger)
	policyService := service.NewPolicyService(policyRepo, fileStore, extractor, appLogger)
	notificationService := service.NewNotificationService(mailer, cfg.GetMailSendRate(), appLogger)

	return &Container{
		Config:         cfg,
		Logger:         appLogger,
		SupabaseClient: supabaseClient,

		PolicyRepository: policyRepo,
		UserRepository:   userRepo,
		ReportRepository: reportRepo,
		PolicyFileStore:  fileStore,
		Mailer:           mailer,

		CompareService:        compareService,
		ImpactService:         impactService,
		RecommendationService: recommendationService,
		PolicyService:         policyService,
		NotificationService:   notificationService,
	}
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetSupabaseClient returns the Supabase client instance
func (c *Container) GetSupabaseClient() domain.SupabaseClient {
	return c.SupabaseClient
}
