package medication

import "time"

// Status values for a prescription row. Discontinued rows stay visible in
// the chart with a closed date range.
const (
	StatusActive       = 1
	StatusDiscontinued = -1
)

// Medication maps to the prescriptions table. Route, DoseUnit and RateUnit
// hold vocabulary option ids and ProviderID a directory entry.
type Medication struct {
	ID         string    `db:"id" json:"id"`
	PatientID  string    `db:"patient_id" json:"patient_id"`
	ExternalID string    `db:"external_id" json:"external_id,omitempty"`
	Drug       string    `db:"drug" json:"drug"`
	DrugCode   string    `db:"drug_code" json:"drug_code,omitempty"`
	StartDate  string    `db:"start_date" json:"start_date,omitempty"`
	EndDate    string    `db:"end_date" json:"end_date,omitempty"`
	Status     int       `db:"status" json:"status"`
	Route      string    `db:"route" json:"route,omitempty"`
	Dose       string    `db:"dose" json:"dose,omitempty"`
	DoseUnit   string    `db:"dose_unit" json:"dose_unit,omitempty"`
	Rate       string    `db:"rate" json:"rate,omitempty"`
	RateUnit   string    `db:"rate_unit" json:"rate_unit,omitempty"`
	PRN        bool      `db:"prn" json:"prn"`
	Note       string    `db:"note" json:"note,omitempty"`
	Indication string    `db:"indication" json:"indication,omitempty"`
	ProviderID string    `db:"provider_id" json:"provider_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
