package allergy

import "time"

// Allergy maps to the allergies table. Severity, Reaction and Outcome hold
// vocabulary option ids.
type Allergy struct {
	ID          string    `db:"id" json:"id"`
	PatientID   string    `db:"patient_id" json:"patient_id"`
	EncounterID string    `db:"encounter_id" json:"encounter_id,omitempty"`
	ExternalID  string    `db:"external_id" json:"external_id,omitempty"`
	Code        string    `db:"code" json:"code,omitempty"`
	Title       string    `db:"title" json:"title"`
	BegDate     string    `db:"begdate" json:"begdate,omitempty"`
	EndDate     string    `db:"enddate" json:"enddate,omitempty"`
	Active      bool      `db:"active" json:"active"`
	Severity    string    `db:"severity" json:"severity,omitempty"`
	Reaction    string    `db:"reaction" json:"reaction,omitempty"`
	Outcome     string    `db:"outcome" json:"outcome,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
