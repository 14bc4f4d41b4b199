package domain

import (
	"encoding/json"
	"time"
)

// Policy is one version of an insurance policy as stored in the directory.
// CoverageMap is kept raw because three historical shapes coexist in storage;
// NormalizeCoverageMap converts whichever is present (no migration required).
type Policy struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Summary             string          `json:"summary,omitempty"`
	Version             int             `json:"version"`
	EffectiveDate       string          `json:"effective_date,omitempty"`
	InsuranceCompanyRef string          `json:"insurance_company_ref,omitempty"`
	FileName            string          `json:"be_file_name"`
	CoverageMap         json.RawMessage `json:"coverage_map"`
	CreatedAt           time.Time       `json:"created_at,omitempty"`
}

// Coverage returns the policy's normalized coverage map.
func (p *Policy) Coverage() *CoverageMap {
	return NormalizeCoverageMap(p.CoverageMap)
}

// PolicyRef identifies one policy version inside reports and diff output.
type PolicyRef struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Version       int    `json:"version"`
	FileName      string `json:"be_file_name,omitempty"`
	EffectiveDate string `json:"effective_date,omitempty"`
}

// Ref returns the report-facing reference for this policy.
func (p *Policy) Ref() PolicyRef {
	return PolicyRef{
		ID:            p.ID,
		Name:          p.Name,
		Version:       p.Version,
		FileName:      p.FileName,
		EffectiveDate: p.EffectiveDate,
	}
}

// MedScoreDetail explains one medication's contribution to a policy score.
type MedScoreDetail struct {
	Medication string  `json:"medication"`
	Status     string  `json:"status"` // covered | percent | not_covered
	Percent    float64 `json:"percent"`
	Points     float64 `json:"points"`
}

// PolicyScore is the derived fit of one policy against a medication list.
// Recomputed per request, never persisted.
type PolicyScore struct {
	CoveredCount      int              `json:"coveredCount"`
	TotalMeds         int              `json:"totalMeds"`
	CoverageRate      float64          `json:"coverageRate"`
	FullCoverageCount int              `json:"fullCoverageCount"`
	AvgPercent        float64          `json:"avgPercent"`
	Score             float64          `json:"score"`
	Details           []MedScoreDetail `json:"details"`
}

// RankedPolicy is one candidate in a recommendation, with its improvement
// over the user's current policy.
type RankedPolicy struct {
	PolicyRef
	PolicyScore
	DeltaScore     float64 `json:"deltaScore"`
	PctImprovement float64 `json:"pctImprovement"`
}

// RecommendOptions tune the better-than-current ranking.
type RecommendOptions struct {
	// MinImprovement is the minimum fractional score improvement a candidate
	// must offer over the current policy (0.1 = 10%).
	MinImprovement float64
	// CurrentPolicyID overrides the resolution of the user's current policy.
	CurrentPolicyID string
}

// Recommendation is the ranking response for one user.
type Recommendation struct {
	UserID          string         `json:"userId"`
	Medications     []string       `json:"medications"`
	MinImprovement  float64        `json:"minImprovement"`
	CurrentPolicyID string         `json:"resolvedCurrentPolicyId"`
	Current         RankedPolicy   `json:"current"`
	Count           int            `json:"count"`
	BetterOptions   []RankedPolicy `json:"betterOptions"`
}

// IngestRequest describes a policy PDF already present in the storage bucket
// that should become a directory record.
type IngestRequest struct {
	FileName            string `json:"fileName"`
	Name                string `json:"name"`
	Summary             string `json:"summary,omitempty"`
	InsuranceCompanyRef string `json:"insuranceCompanyRef"`
	EffectiveDate       string `json:"effectiveDate,omitempty"`
}
