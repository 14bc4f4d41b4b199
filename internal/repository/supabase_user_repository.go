package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"policy-pulse-server/internal/domain"
)

const userTable = "users"

// SupabaseUserRepository implements the domain.UserRepository interface
type SupabaseUserRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseUserRepository creates a new Supabase user repository
func NewSupabaseUserRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.UserRepository {
	return &SupabaseUserRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// GetByID returns one user record
func (r *SupabaseUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	resp, _, err := client.From(userTable).
		Select("*", "", false).
		Eq("id", id).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	var users []*domain.User
	if err := json.Unmarshal(resp, &users); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	if len(users) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return users[0], nil
}

// GetInsuredOnAny returns all patients whose insured-policy reference list
// contains any of the given policy paths, deduplicated by user ID. The
// patient directory is small, so membership is checked after a role-scoped
// fetch rather than with an array-contains filter.
func (r *SupabaseUserRepository) GetInsuredOnAny(ctx context.Context, policyPaths []string) ([]*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(policyPaths) == 0 {
		return []*domain.User{}, nil
	}

	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	resp, _, err := client.From(userTable).
		Select("*", "", false).
		Eq("role", "patient").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch insured users: %w", err)
	}

	var users []*domain.User
	if err := json.Unmarshal(resp, &users); err != nil {
		return nil, fmt.Errorf("failed to parse insured users: %w", err)
	}

	wanted := make(map[string]bool, len(policyPaths))
	for _, p := range policyPaths {
		wanted[p] = true
	}

	seen := make(map[string]bool)
	matched := []*domain.User{}
	for _, u := range users {
		if seen[u.ID] {
			continue
		}
		for _, ref := range u.InsuredAt {
			if wanted[ref] {
				seen[u.ID] = true
				matched = append(matched, u)
				break
			}
		}
	}

	r.logger.Debug("Insured user lookup",
		"paths", len(policyPaths),
		"candidates", len(users),
		"matched", len(matched))

	return matched, nil
}
