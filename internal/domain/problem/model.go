package problem

import "time"

// Problem maps to the problems table. Code carries the prefixed coded value
// (for example SNOMED-CT:233604007) and Outcome a vocabulary option id.
type Problem struct {
	ID          string    `db:"id" json:"id"`
	PatientID   string    `db:"patient_id" json:"patient_id"`
	EncounterID string    `db:"encounter_id" json:"encounter_id,omitempty"`
	ExternalID  string    `db:"external_id" json:"external_id,omitempty"`
	Code        string    `db:"code" json:"code,omitempty"`
	Title       string    `db:"title" json:"title"`
	BegDate     string    `db:"begdate" json:"begdate,omitempty"`
	EndDate     string    `db:"enddate" json:"enddate,omitempty"`
	Active      bool      `db:"active" json:"active"`
	Outcome     string    `db:"outcome" json:"outcome,omitempty"`
	Comments    string    `db:"comments" json:"comments,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
