package documents

import "time"

// Document is one uploaded clinical document, stored verbatim. PatientID is
// empty until the import that carried it is applied; ApprovalStatus mirrors
// the owning audit so the chart view can filter without a join.
type Document struct {
	ID             string    `db:"id" json:"id"`
	PatientID      string    `db:"patient_id" json:"patient_id,omitempty"`
	Name           string    `db:"name" json:"name,omitempty"`
	Type           string    `db:"doc_type" json:"doc_type"`
	MimeType       string    `db:"mime_type" json:"mime_type"`
	Content        []byte    `db:"content" json:"-"`
	ApprovalStatus int       `db:"approval_status" json:"approval_status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
