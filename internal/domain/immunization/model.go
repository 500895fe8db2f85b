package immunization

import "time"

// Immunization maps to the immunizations table. Route, AmountUnit,
// Manufacturer and CompletionStatus hold vocabulary option ids and
// ProviderID a directory entry.
type Immunization struct {
	ID               string    `db:"id" json:"id"`
	PatientID        string    `db:"patient_id" json:"patient_id"`
	ExternalID       string    `db:"external_id" json:"external_id,omitempty"`
	CVXCode          string    `db:"cvx_code" json:"cvx_code,omitempty"`
	Vaccine          string    `db:"vaccine" json:"vaccine"`
	AdministeredDate string    `db:"administered_date" json:"administered_date,omitempty"`
	Amount           string    `db:"amount" json:"amount,omitempty"`
	AmountUnit       string    `db:"amount_unit" json:"amount_unit,omitempty"`
	Route            string    `db:"route" json:"route,omitempty"`
	Manufacturer     string    `db:"manufacturer" json:"manufacturer,omitempty"`
	CompletionStatus string    `db:"completion_status" json:"completion_status,omitempty"`
	ProviderID       string    `db:"provider_id" json:"provider_id,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
