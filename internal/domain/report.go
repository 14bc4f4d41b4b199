package domain

import "time"

// MedicationImpact is the before/after coverage for one medication a user
// actually takes.
type MedicationImpact struct {
	Medication string         `json:"medication"`
	Old        *CoverageEntry `json:"old"`
	Next       *CoverageEntry `json:"next"`
}

// AffectedPatient is one insured user touched by a coverage change.
type AffectedPatient struct {
	UserID              string             `json:"userId"`
	Name                string             `json:"name"`
	Email               string             `json:"email"`
	MedicationsImpacted []MedicationImpact `json:"medicationsImpacted"`
}

// ImpactReport records which insured users a coverage change between two
// policy versions affects. Immutable once written: every resolver run
// produces a new report under a fresh run ID.
type ImpactReport struct {
	RunID              string                  `json:"runId"`
	ChangedMedications []string                `json:"changedMedications"`
	ChangeDetails      map[string]ChangeDetail `json:"changeDetails,omitempty"`
	AffectedCount      int                     `json:"affectedCount"`
	AffectedPatients   []AffectedPatient       `json:"affectedPatients"`
	OldPolicy          PolicyRef               `json:"oldPolicy"`
	NewPolicy          PolicyRef               `json:"newPolicy"`
	ComparedAt         time.Time               `json:"comparedAt"`
	Note               string                  `json:"note,omitempty"`
}

// ImpactIndexEntry is the flat secondary index record written alongside each
// report for lightweight listing.
type ImpactIndexEntry struct {
	PolicyPath         string    `json:"policy_path"`
	RunID              string    `json:"run_id"`
	ChangedMedications []string  `json:"changed_medications"`
	AffectedCount      int       `json:"affected_count"`
	CreatedAt          time.Time `json:"created_at"`
}

// ImpactParams drive one impact-resolver run.
type ImpactParams struct {
	OldPolicyID string `json:"oldPolicyId"`
	NewPolicyID string `json:"newPolicyId"`
	// InsuredPolicyID optionally restricts the candidate search to users
	// insured under this one policy (the scoping policy). The report is
	// indexed under it when set, under the new policy otherwise.
	InsuredPolicyID string `json:"insuredPolicyId,omitempty"`
	// Persist is a tri-state flag: an omitted field means persist.
	Persist *bool `json:"persist,omitempty"`
}

// ShouldPersist reports whether the run's report gets stored. Runs persist
// unless the caller explicitly opts out.
func (p ImpactParams) ShouldPersist() bool {
	return p.Persist == nil || *p.Persist
}

// PolicyPath converts a policy ID to the "policies/<id>" reference form used
// in user records and report indexes.
func PolicyPath(policyID string) string {
	return "policies/" + policyID
}
