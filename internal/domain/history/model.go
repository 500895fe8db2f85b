package history

import (
	"strings"
	"time"
)

// ObservationValue is one social-history observation: the narrative note,
// the coded status, the observation date and an optional SNOMED code.
// Older chart exports carry these as a single pipe-joined string; the codec
// below keeps that form readable and writable.
type ObservationValue struct {
	Note   string `json:"note,omitempty"`
	Status string `json:"status,omitempty"`
	Date   string `json:"date,omitempty"`
	SNOMED string `json:"snomed,omitempty"`
}

// String renders the legacy pipe-joined form, trimming trailing empty parts.
func (v ObservationValue) String() string {
	parts := []string{v.Note, v.Status, v.Date, v.SNOMED}
	n := len(parts)
	for n > 0 && parts[n-1] == "" {
		n--
	}
	return strings.Join(parts[:n], "|")
}

// IsZero reports whether the observation carries no data.
func (v ObservationValue) IsZero() bool {
	return v == ObservationValue{}
}

// ParseObservationValue reads the legacy pipe-joined form.
func ParseObservationValue(s string) ObservationValue {
	var v ObservationValue
	parts := strings.SplitN(s, "|", 4)
	for i, p := range parts {
		switch i {
		case 0:
			v.Note = p
		case 1:
			v.Status = p
		case 2:
			v.Date = p
		case 3:
			v.SNOMED = p
		}
	}
	return v
}

// SocialHistory maps to the social_histories table, one row per patient.
type SocialHistory struct {
	ID        string           `db:"id" json:"id"`
	PatientID string           `db:"patient_id" json:"patient_id"`
	Tobacco   ObservationValue `json:"tobacco"`
	Alcohol   ObservationValue `json:"alcohol"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}
