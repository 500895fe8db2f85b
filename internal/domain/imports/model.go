package imports

import "time"

// Approval states an import audit moves through. Pending audits hold their
// staged rows until a reviewer approves or discards them; both outcomes are
// terminal.
const (
	StatusPending   = 1
	StatusApproved  = 2
	StatusDiscarded = 3
)

// AuditTypeImport tags audit rows created by the document import pipeline.
const AuditTypeImport = "12"

// ImportAudit is the head row of one staged import. DocType discriminates
// how the staged rows decode; SourceIP records where the upload came from.
type ImportAudit struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	PatientID  string    `db:"patient_id" json:"patient_id,omitempty"`
	Type       string    `db:"audit_type" json:"audit_type"`
	DocType    string    `db:"doc_type" json:"doc_type"`
	Status     int       `db:"approval_status" json:"approval_status"`
	SourceIP   string    `db:"source_ip" json:"source_ip,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ImportAuditDetail is one staged field value. Entity names the staging
// group, Instance separates repeated entries within it.
type ImportAuditDetail struct {
	ID       string `db:"id" json:"id"`
	AuditID  string `db:"audit_id" json:"audit_id"`
	Entity   string `db:"entity" json:"entity"`
	Instance int    `db:"instance" json:"instance"`
	Field    string `db:"field" json:"field"`
	Value    string `db:"value" json:"value"`
}

// MedReconciliation records that a reviewed import was folded into the
// patient's chart under the given encounter.
type MedReconciliation struct {
	ID          string    `db:"id" json:"id"`
	PatientID   string    `db:"patient_id" json:"patient_id"`
	EncounterID string    `db:"encounter_id" json:"encounter_id"`
	AuditID     string    `db:"audit_id" json:"audit_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Decision is one reviewer choice about a staged entry, addressed by its
// instance index within the section.
type Decision struct {
	Index       int  `json:"index"`
	Skip        bool `json:"skip,omitempty"`
	Resolved    bool `json:"resolved,omitempty"`
	Discontinue bool `json:"discontinue,omitempty"`
}

// ApprovalForm carries the reviewer's per-section decisions. Sections left
// nil import everything as staged. Demographics entries override staged
// patient fields by staged field name.
type ApprovalForm struct {
	Demographics       map[string]string `json:"demographics,omitempty"`
	Problems           []Decision        `json:"problems,omitempty"`
	Allergies          []Decision        `json:"allergies,omitempty"`
	Medications        []Decision        `json:"medications,omitempty"`
	Immunizations      []Decision        `json:"immunizations,omitempty"`
	Encounters         []Decision        `json:"encounters,omitempty"`
	Vitals             []Decision        `json:"vitals,omitempty"`
	Procedures         []Decision        `json:"procedures,omitempty"`
	LabResults         []Decision        `json:"lab_results,omitempty"`
	CarePlans          []Decision        `json:"care_plans,omitempty"`
	FunctionalStatuses []Decision        `json:"functional_statuses,omitempty"`
	Referrals          []Decision        `json:"referrals,omitempty"`
}
