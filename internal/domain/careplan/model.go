package careplan

import "time"

// CarePlan maps to the care_plans table, one row per planned activity.
type CarePlan struct {
	ID          string    `db:"id" json:"id"`
	PatientID   string    `db:"patient_id" json:"patient_id"`
	EncounterID string    `db:"encounter_id" json:"encounter_id,omitempty"`
	ExternalID  string    `db:"external_id" json:"external_id,omitempty"`
	Code        string    `db:"code" json:"code,omitempty"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Date        string    `db:"date" json:"date,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// FunctionalStatus maps to the functional_statuses table and carries both
// functional and cognitive status observations.
type FunctionalStatus struct {
	ID          string    `db:"id" json:"id"`
	PatientID   string    `db:"patient_id" json:"patient_id"`
	EncounterID string    `db:"encounter_id" json:"encounter_id,omitempty"`
	ExternalID  string    `db:"external_id" json:"external_id,omitempty"`
	Code        string    `db:"code" json:"code,omitempty"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Date        string    `db:"date" json:"date,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
