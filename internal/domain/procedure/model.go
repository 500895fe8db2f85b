package procedure

import "time"

// Procedure maps to the procedures table. Organization ids reference the
// directory entries for the performing and facility organizations.
type Procedure struct {
	ID             string    `db:"id" json:"id"`
	PatientID      string    `db:"patient_id" json:"patient_id"`
	EncounterID    string    `db:"encounter_id" json:"encounter_id,omitempty"`
	ExternalID     string    `db:"external_id" json:"external_id,omitempty"`
	Code           string    `db:"code" json:"code,omitempty"`
	Title          string    `db:"title" json:"title"`
	Date           string    `db:"date" json:"date,omitempty"`
	PerformerOrgID string    `db:"performer_org_id" json:"performer_org_id,omitempty"`
	FacilityOrgID  string    `db:"facility_org_id" json:"facility_org_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
