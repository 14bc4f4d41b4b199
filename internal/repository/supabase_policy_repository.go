package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"policy-pulse-server/internal/domain"
)

const (
	policyTable       = "policies"
	policyCacheTTL    = 5 * time.Minute
	policyCachePurge  = 10 * time.Minute
	policyListCacheID = "__list__"
)

// SupabasePolicyRepository implements the domain.PolicyRepository interface.
// Single-policy reads are cached: the impact resolver and recommender hit the
// same few directory rows on every run.
type SupabasePolicyRepository struct {
	supabaseClient domain.SupabaseClient
	cache          *gocache.Cache
	logger         domain.Logger
}

// NewSupabasePolicyRepository creates a new Supabase policy repository
func NewSupabasePolicyRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.PolicyRepository {
	return &SupabasePolicyRepository{
		supabaseClient: supabaseClient,
		cache:          gocache.New(policyCacheTTL, policyCachePurge),
		logger:         logger,
	}
}

// List returns every policy version in the directory
func (r *SupabasePolicyRepository) List(ctx context.Context) ([]*domain.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	resp, _, err := client.From(policyTable).
		Select("*", "", false).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}

	var policies []*domain.Policy
	if err := json.Unmarshal(resp, &policies); err != nil {
		return nil, fmt.Errorf("failed to parse policy list: %w", err)
	}
	return policies, nil
}

// GetByID returns one policy version, serving repeat reads from cache
func (r *SupabasePolicyRepository) GetByID(ctx context.Context, id string) (*domain.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cached, found := r.cache.Get(id); found {
		return cached.(*domain.Policy), nil
	}

	policy, err := r.getOne(ctx, "id", id)
	if err != nil {
		return nil, err
	}

	r.cache.Set(id, policy, gocache.DefaultExpiration)
	return policy, nil
}

// GetByFileName returns the policy record backing one stored PDF
func (r *SupabasePolicyRepository) GetByFileName(ctx context.Context, fileName string) (*domain.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.getOne(ctx, "be_file_name", fileName)
}

func (r *SupabasePolicyRepository) getOne(ctx context.Context, column, value string) (*domain.Policy, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	resp, _, err := client.From(policyTable).
		Select("*", "", false).
		Eq(column, value).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch policy by %s: %w", column, err)
	}

	var policies []*domain.Policy
	if err := json.Unmarshal(resp, &policies); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	if len(policies) == 0 {
		return nil, domain.ErrPolicyNotFound
	}
	return policies[0], nil
}

// Create stores a new policy version
func (r *SupabasePolicyRepository) Create(ctx context.Context, policy *domain.Policy) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	client := r.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	data := map[string]interface{}{
		"id":                    policy.ID,
		"name":                  policy.Name,
		"summary":               policy.Summary,
		"version":               policy.Version,
		"effective_date":        policy.EffectiveDate,
		"insurance_company_ref": policy.InsuranceCompanyRef,
		"be_file_name":          policy.FileName,
		"coverage_map":          json.RawMessage(policy.CoverageMap),
		"created_at":            policy.CreatedAt.Format(time.RFC3339),
	}

	_, _, err := client.From(policyTable).Insert(data, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to insert policy: %w", err)
	}

	r.cache.Set(policy.ID, policy, gocache.DefaultExpiration)
	r.logger.Info("Policy stored", "policy_id", policy.ID, "version", policy.Version)
	return nil
}
