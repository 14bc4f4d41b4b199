package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"policy-pulse-server/internal/domain"
	apperrors "policy-pulse-server/pkg/errors"
)

// Points awarded per medication: full coverage is worth double a 100%
// reimbursement line because it also waives utilization limits.
const (
	fullCoveragePoints = 2.0
)

// RecommendationServiceImpl scores the policy directory against a patient's
// medication list and ranks the options that beat their current policy.
type RecommendationServiceImpl struct {
	policies domain.PolicyRepository
	users    domain.UserRepository
	logger   domain.Logger
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(
	policies domain.PolicyRepository,
	users domain.UserRepository,
	logger domain.Logger,
) *RecommendationServiceImpl {
	return &RecommendationServiceImpl{
		policies: policies,
		users:    users,
		logger:   logger,
	}
}

// ScorePolicy computes the fit of one coverage map against a medication
// list. Scores are derived per request and never persisted.
func ScorePolicy(coverage *domain.CoverageMap, meds []string) domain.PolicyScore {
	score := domain.PolicyScore{
		TotalMeds: len(meds),
		Details:   make([]domain.MedScoreDetail, 0, len(meds)),
	}

	var percentSum float64
	for _, med := range meds {
		detail := domain.MedScoreDetail{
			Medication: med,
			Status:     string(domain.CoverageNotCovered),
		}

		entry, found := coverage.Get(med)
		if found {
			switch entry.Type {
			case domain.CoverageCovered:
				detail.Status = string(domain.CoverageCovered)
				detail.Percent = 100
				detail.Points = fullCoveragePoints
				score.CoveredCount++
				score.FullCoverageCount++
			case domain.CoveragePercent:
				pct := 0.0
				if entry.Percent != nil {
					pct = *entry.Percent
				}
				detail.Status = string(domain.CoveragePercent)
				detail.Percent = pct
				detail.Points = clampUnit(pct / 100)
				if pct > 0 {
					score.CoveredCount++
				}
			}
		}

		percentSum += detail.Percent
		score.Score += detail.Points
		score.Details = append(score.Details, detail)
	}

	if score.TotalMeds > 0 {
		score.CoverageRate = float64(score.CoveredCount) / float64(score.TotalMeds)
		score.AvgPercent = percentSum / float64(score.TotalMeds)
	}
	return score
}

func clampUnit(n float64) float64 {
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// RecommendBetter ranks the directory's latest policy versions against the
// user's current policy and returns only the options whose improvement
// clears the threshold.
func (s *RecommendationServiceImpl) RecommendBetter(ctx context.Context, userID string, opts domain.RecommendOptions) (*domain.Recommendation, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !strings.EqualFold(user.Role, "patient") {
		return nil, domain.ErrNotAPatient
	}

	meds := user.Medications()
	if len(meds) == 0 {
		return nil, apperrors.NewValidationError("user has no medications to score against")
	}

	currentID, err := s.resolveCurrentPolicyID(user, opts)
	if err != nil {
		return nil, err
	}

	current, err := s.policies.GetByID(ctx, currentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current policy: %w", err)
	}
	currentRanked := domain.RankedPolicy{
		PolicyRef:   current.Ref(),
		PolicyScore: ScorePolicy(current.Coverage(), meds),
	}

	all, err := s.policies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}

	better := []domain.RankedPolicy{}
	for _, candidate := range latestVersions(all) {
		if candidate.ID == current.ID {
			continue
		}

		ranked := domain.RankedPolicy{
			PolicyRef:   candidate.Ref(),
			PolicyScore: ScorePolicy(candidate.Coverage(), meds),
		}
		ranked.DeltaScore = ranked.Score - currentRanked.Score
		ranked.PctImprovement = pctImprovement(currentRanked.Score, ranked.Score)

		if ranked.DeltaScore > 0 && ranked.PctImprovement >= opts.MinImprovement {
			better = append(better, ranked)
		}
	}

	sortRanked(better)

	s.logger.Info("Recommendation computed",
		"user_id", userID,
		"current_policy", currentID,
		"candidates", len(all),
		"better_options", len(better))

	return &domain.Recommendation{
		UserID:          userID,
		Medications:     meds,
		MinImprovement:  opts.MinImprovement,
		CurrentPolicyID: currentID,
		Current:         currentRanked,
		Count:           len(better),
		BetterOptions:   better,
	}, nil
}

// resolveCurrentPolicyID picks the policy to beat: explicit override first,
// then the user's recorded current policy, then the most recent insured
// reference.
func (s *RecommendationServiceImpl) resolveCurrentPolicyID(user *domain.User, opts domain.RecommendOptions) (string, error) {
	if opts.CurrentPolicyID != "" {
		return opts.CurrentPolicyID, nil
	}
	if user.CurrentPolicyID != "" {
		return user.CurrentPolicyID, nil
	}
	if len(user.InsuredAt) > 0 {
		last := user.InsuredAt[len(user.InsuredAt)-1]
		return strings.TrimPrefix(last, "policies/"), nil
	}
	return "", domain.ErrNoCurrentPolicy
}

// latestVersions collapses the directory to the highest version per
// (name, insurance company) pair.
func latestVersions(policies []*domain.Policy) []*domain.Policy {
	type groupKey struct {
		name    string
		company string
	}

	latest := make(map[groupKey]*domain.Policy)
	var order []groupKey
	for _, p := range policies {
		key := groupKey{
			name:    strings.ToLower(strings.TrimSpace(p.Name)),
			company: p.InsuranceCompanyRef,
		}
		existing, seen := latest[key]
		if !seen {
			order = append(order, key)
			latest[key] = p
			continue
		}
		if p.Version > existing.Version {
			latest[key] = p
		}
	}

	result := make([]*domain.Policy, 0, len(order))
	for _, key := range order {
		result = append(result, latest[key])
	}
	return result
}

// pctImprovement is the fractional gain over the current score. A zero
// current score counts as fully improvable when the candidate scores at all.
func pctImprovement(currentScore, candidateScore float64) float64 {
	if candidateScore == 0 {
		return 0
	}
	if currentScore == 0 {
		return 1
	}
	return (candidateScore - currentScore) / currentScore
}

// sortRanked orders better options by delta, then absolute score, then
// coverage rate, then name for a stable tie-break.
func sortRanked(ranked []domain.RankedPolicy) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.DeltaScore != b.DeltaScore {
			return a.DeltaScore > b.DeltaScore
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.CoverageRate != b.CoverageRate {
			return a.CoverageRate > b.CoverageRate
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}
