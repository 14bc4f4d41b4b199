package domain

import "time"

// Illness groups the medications a patient takes for one condition.
type Illness struct {
	Name        string   `json:"name"`
	Medications []string `json:"medications"`
}

// User is an insured person as exposed by the user directory.
// InsuredAt holds policy paths of the form "policies/<id>".
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	InsuredAt       []string  `json:"insured_at"`
	Illnesses       []Illness `json:"illnesses"`
	MedicationsFlat []string  `json:"medications_flat,omitempty"`
	CurrentPolicyID string    `json:"current_policy_id,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// Medications returns the user's medication set, normalized and deduplicated
// in first-seen order. The pre-flattened field wins when present; otherwise
// the illnesses are walked.
func (u *User) Medications() []string {
	seen := make(map[string]bool)
	var meds []string

	add := func(raw string) {
		med := NormalizeMedName(raw)
		if med == "" || seen[med] {
			return
		}
		seen[med] = true
		meds = append(meds, med)
	}

	if len(u.MedicationsFlat) > 0 {
		for _, m := range u.MedicationsFlat {
			add(m)
		}
		return meds
	}

	for _, illness := range u.Illnesses {
		for _, m := range illness.Medications {
			add(m)
		}
	}
	return meds
}

// SupabaseUser represents a user from Supabase Auth
type SupabaseUser struct {
	ID           string
	Email        string
	UserMetadata map[string]interface{}
	CreatedAt    string
	UpdatedAt    string
}
