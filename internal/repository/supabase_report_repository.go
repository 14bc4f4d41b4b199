package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"

	"policy-pulse-server/internal/domain"
)

const (
	reportTable      = "impact_reports"
	reportIndexTable = "impact_report_index"
)

// SupabaseReportRepository implements the domain.ReportRepository interface.
// Each run writes the full report plus one flat index row keyed by the
// policy path, so listings never deserialize whole reports.
type SupabaseReportRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseReportRepository creates a new Supabase report repository
func NewSupabaseReportRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.ReportRepository {
	return &SupabaseReportRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// Save stores an immutable report and its index row
func (r *SupabaseReportRepository) Save(ctx context.Context, policyPath string, report *domain.ImpactReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	client := r.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize impact report: %w", err)
	}

	reportRow := map[string]interface{}{
		"run_id":      report.RunID,
		"policy_path": policyPath,
		"report":      json.RawMessage(reportJSON),
		"created_at":  report.ComparedAt.Format(time.RFC3339),
	}
	_, _, err = client.From(reportTable).Insert(reportRow, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to insert impact report: %w", err)
	}

	indexRow := map[string]interface{}{
		"run_id":              report.RunID,
		"policy_path":         policyPath,
		"changed_medications": report.ChangedMedications,
		"affected_count":      report.AffectedCount,
		"created_at":          report.ComparedAt.Format(time.RFC3339),
	}
	_, _, err = client.From(reportIndexTable).Insert(indexRow, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to insert impact report index: %w", err)
	}

	r.logger.Info("Impact report persisted",
		"run_id", report.RunID,
		"policy_path", policyPath,
		"affected", report.AffectedCount)
	return nil
}

// ListIndex returns index entries for one policy path, newest first
func (r *SupabaseReportRepository) ListIndex(ctx context.Context, policyPath string, limit int) ([]*domain.ImpactIndexEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	resp, _, err := client.From(reportIndexTable).
		Select("*", "", false).
		Eq("policy_path", policyPath).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list impact report index: %w", err)
	}

	var entries []*domain.ImpactIndexEntry
	if err := json.Unmarshal(resp, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse impact report index: %w", err)
	}
	return entries, nil
}
