package vitals

import "time"

// Vitals maps to the vitals table, one row per observation set. Measurement
// fields keep the document's string values so units survive as sent.
type Vitals struct {
	ID               string    `db:"id" json:"id"`
	PatientID        string    `db:"patient_id" json:"patient_id"`
	EncounterID      string    `db:"encounter_id" json:"encounter_id,omitempty"`
	ExternalID       string    `db:"external_id" json:"external_id,omitempty"`
	Date             string    `db:"date" json:"date,omitempty"`
	Temperature      string    `db:"temperature" json:"temperature,omitempty"`
	BPD              string    `db:"bpd" json:"bpd,omitempty"`
	BPS              string    `db:"bps" json:"bps,omitempty"`
	HeadCirc         string    `db:"head_circ" json:"head_circ,omitempty"`
	Pulse            string    `db:"pulse" json:"pulse,omitempty"`
	Height           string    `db:"height" json:"height,omitempty"`
	OxygenSaturation string    `db:"oxygen_saturation" json:"oxygen_saturation,omitempty"`
	Respiration      string    `db:"respiration" json:"respiration,omitempty"`
	Weight           string    `db:"weight" json:"weight,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
