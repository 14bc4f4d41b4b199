package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"policy-pulse-server/internal/domain"
)

const noChangesNote = "No coverage changes detected."

// DefaultReportListLimit caps index listings when the caller does not ask
// for a specific page size.
const DefaultReportListLimit = 20

// ImpactServiceImpl resolves which insured patients a coverage change
// between two policy versions affects.
type ImpactServiceImpl struct {
	policies domain.PolicyRepository
	users    domain.UserRepository
	reports  domain.ReportRepository
	logger   domain.Logger
}

// NewImpactService creates a new impact resolver service
func NewImpactService(
	policies domain.PolicyRepository,
	users domain.UserRepository,
	reports domain.ReportRepository,
	logger domain.Logger,
) *ImpactServiceImpl {
	return &ImpactServiceImpl{
		policies: policies,
		users:    users,
		reports:  reports,
		logger:   logger,
	}
}

type policyFetchResult struct {
	which  string
	policy *domain.Policy
	err    error
}

// Run executes one resolver pass: fetch both policies, diff their coverage
// maps, and intersect the changed medications with each insured patient's
// medication set. A missing policy is fatal; an empty diff produces a valid
// zero-impact report.
func (s *ImpactServiceImpl) Run(ctx context.Context, params domain.ImpactParams) (*domain.ImpactReport, error) {
	oldPolicy, newPolicy, err := s.fetchPolicyPair(ctx, params.OldPolicyID, params.NewPolicyID)
	if err != nil {
		return nil, err
	}

	diff := domain.DiffCoverageMaps(oldPolicy.CoverageMap, newPolicy.CoverageMap)

	report := &domain.ImpactReport{
		RunID:              uuid.New().String(),
		ChangedMedications: diff.ChangedMedications,
		ChangeDetails:      diff.Details,
		AffectedPatients:   []domain.AffectedPatient{},
		OldPolicy:          oldPolicy.Ref(),
		NewPolicy:          newPolicy.Ref(),
		ComparedAt:         time.Now().UTC(),
	}

	if len(diff.ChangedMedications) == 0 {
		report.Note = noChangesNote
	} else {
		patients, err := s.resolveAffected(ctx, params, oldPolicy, newPolicy, diff)
		if err != nil {
			return nil, err
		}
		report.AffectedPatients = patients
	}
	report.AffectedCount = len(report.AffectedPatients)

	s.logger.Info("Impact run completed",
		"run_id", report.RunID,
		"old_policy", oldPolicy.ID,
		"new_policy", newPolicy.ID,
		"changed_medications", len(report.ChangedMedications),
		"affected", report.AffectedCount)

	if params.ShouldPersist() {
		policyPath := s.indexPath(params, newPolicy)
		if err := s.reports.Save(ctx, policyPath, report); err != nil {
			return nil, fmt.Errorf("failed to persist impact report: %w", err)
		}
	}

	return report, nil
}

// fetchPolicyPair loads both policy versions concurrently. Either side
// missing fails the run.
func (s *ImpactServiceImpl) fetchPolicyPair(ctx context.Context, oldID, newID string) (*domain.Policy, *domain.Policy, error) {
	results := make(chan policyFetchResult, 2)

	fetch := func(which, id string) {
		p, err := s.policies.GetByID(ctx, id)
		results <- policyFetchResult{which: which, policy: p, err: err}
	}
	go fetch("old", oldID)
	go fetch("new", newID)

	var oldPolicy, newPolicy *domain.Policy
	for i := 0; i < 2; i++ {
		res := <-results
		if res.err != nil {
			return nil, nil, fmt.Errorf("failed to load %s policy: %w", res.which, res.err)
		}
		if res.which == "old" {
			oldPolicy = res.policy
		} else {
			newPolicy = res.policy
		}
	}
	return oldPolicy, newPolicy, nil
}

// resolveAffected finds insured patients whose medications intersect the
// changed set. Matching is exact on normalized names; near-miss spellings
// do not match.
func (s *ImpactServiceImpl) resolveAffected(
	ctx context.Context,
	params domain.ImpactParams,
	oldPolicy, newPolicy *domain.Policy,
	diff domain.CoverageDiff,
) ([]domain.AffectedPatient, error) {
	paths := s.scopePaths(params, oldPolicy, newPolicy)

	users, err := s.users.GetInsuredOnAny(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("failed to load insured users: %w", err)
	}

	changed := make(map[string]domain.ChangeDetail, len(diff.ChangedMedications))
	for _, med := range diff.ChangedMedications {
		changed[med] = diff.Details[med]
	}

	affected := []domain.AffectedPatient{}
	for _, u := range users {
		if !strings.EqualFold(u.Role, "patient") {
			continue
		}

		var impacts []domain.MedicationImpact
		for _, med := range u.Medications() {
			detail, hit := changed[med]
			if !hit {
				continue
			}
			impacts = append(impacts, domain.MedicationImpact{
				Medication: med,
				Old:        detail.Old,
				Next:       detail.Next,
			})
		}
		if len(impacts) == 0 {
			continue
		}

		affected = append(affected, domain.AffectedPatient{
			UserID:              u.ID,
			Name:                u.Name,
			Email:               u.Email,
			MedicationsImpacted: impacts,
		})
	}
	return affected, nil
}

// scopePaths returns the insured-policy references to search. An explicit
// scoping policy narrows the search to exactly one reference; otherwise
// users insured under either compared version are candidates.
func (s *ImpactServiceImpl) scopePaths(params domain.ImpactParams, oldPolicy, newPolicy *domain.Policy) []string {
	if params.InsuredPolicyID != "" {
		return []string{domain.PolicyPath(params.InsuredPolicyID)}
	}
	paths := []string{domain.PolicyPath(oldPolicy.ID)}
	if newPolicy.ID != oldPolicy.ID {
		paths = append(paths, domain.PolicyPath(newPolicy.ID))
	}
	return paths
}

func (s *ImpactServiceImpl) indexPath(params domain.ImpactParams, newPolicy *domain.Policy) string {
	if params.InsuredPolicyID != "" {
		return domain.PolicyPath(params.InsuredPolicyID)
	}
	return domain.PolicyPath(newPolicy.ID)
}

// ListReports returns the stored index entries for one policy, newest first.
func (s *ImpactServiceImpl) ListReports(ctx context.Context, policyID string, limit int) ([]*domain.ImpactIndexEntry, error) {
	if limit <= 0 {
		limit = DefaultReportListLimit
	}
	entries, err := s.reports.ListIndex(ctx, domain.PolicyPath(policyID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list impact reports: %w", err)
	}
	return entries, nil
}
