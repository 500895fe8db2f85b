package encounter

import "time"

// Encounter maps to the encounters table. Date is the visit date in
// YYYY-MM-DD form. ExternalID carries the source system's encounter
// identifier when the document supplied one.
type Encounter struct {
	ID            string    `db:"id" json:"id"`
	PatientID     string    `db:"patient_id" json:"patient_id"`
	ExternalID    string    `db:"external_id" json:"external_id,omitempty"`
	Date          string    `db:"date" json:"date,omitempty"`
	Reason        string    `db:"reason" json:"reason,omitempty"`
	ProviderID    string    `db:"provider_id" json:"provider_id,omitempty"`
	FacilityID    string    `db:"facility_id" json:"facility_id,omitempty"`
	DischargeDisp string    `db:"discharge_disposition" json:"discharge_disposition,omitempty"`
	DiagnosisCode string    `db:"diagnosis_code" json:"diagnosis_code,omitempty"`
	DiagnosisText string    `db:"diagnosis_text" json:"diagnosis_text,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Form links a clinical record to the encounter it was charted under. Every
// imported record gets one so the visit view can enumerate its contents.
type Form struct {
	ID          string    `db:"id" json:"id"`
	PatientID   string    `db:"patient_id" json:"patient_id"`
	EncounterID string    `db:"encounter_id" json:"encounter_id"`
	Name        string    `db:"name" json:"name"`
	TableName   string    `db:"table_name" json:"table_name"`
	RecordID    string    `db:"record_id" json:"record_id"`
	Date        string    `db:"date" json:"date,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
