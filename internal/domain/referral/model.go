package referral

import "time"

// Referral maps to the referrals table. Body is the narrative reason text
// lifted from the document.
type Referral struct {
	ID        string    `db:"id" json:"id"`
	PatientID string    `db:"patient_id" json:"patient_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
