package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/supabase-community/supabase-go"

	"policy-pulse-server/internal/domain"
)

// SupabaseClientImpl implements the domain.SupabaseClient interface
type SupabaseClientImpl struct {
	client *supabase.Client
	config domain.Config
	logger domain.Logger
}

// NewSupabaseClient creates a new Supabase client instance
func NewSupabaseClient(config domain.Config, logger domain.Logger) domain.SupabaseClient {
	return &SupabaseClientImpl{
		config: config,
		logger: logger,
	}
}

// Initialize establishes a connection to Supabase
func (s *SupabaseClientImpl) Initialize() error {
	supabaseURL := s.config.GetSupabaseURL()
	supabaseKey := s.config.GetSupabaseKey()

	if supabaseURL == "" || supabaseKey == "" {
		return fmt.Errorf("Supabase URL and key must be provided")
	}

	client, err := supabase.NewClient(supabaseURL, supabaseKey, &supabase.ClientOptions{})
	if err != nil {
		return fmt.Errorf("failed to create Supabase client: %w", err)
	}

	s.client = client
	s.logger.Info("Supabase client initialized successfully", "url", supabaseURL)
	return nil
}

// DB returns the typed Supabase client for repository use
func (s *SupabaseClientImpl) DB() *supabase.Client {
	return s.client
}

// ValidateToken resolves a Supabase JWT to its user via the auth endpoint.
func (s *SupabaseClientImpl) ValidateToken(token string) (*domain.SupabaseUser, error) {
	if s.client == nil {
		return nil, fmt.Errorf("Supabase client not initialized")
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.Count(token, ".") != 2 {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.client.Auth.WithToken(token).GetUser()
	if err != nil {
		s.logger.Debug("Token validation failed", "error", err.Error())
		return nil, domain.ErrInvalidToken
	}

	return &domain.SupabaseUser{
		ID:           user.ID.String(),
		Email:        user.Email,
		UserMetadata: user.UserMetadata,
		CreatedAt:    user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    user.UpdatedAt.Format(time.RFC3339),
	}, nil
}
