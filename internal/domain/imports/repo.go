package imports

import "context"

// Repository provides access to the import_audit, import_audit_detail and
// med_reconciliations tables. Get methods return nil when no row matches.
type Repository interface {
	CreateAudit(ctx context.Context, a *ImportAudit) error
	GetAudit(ctx context.Context, id string) (*ImportAudit, error)
	ListAudits(ctx context.Context, status int, limit, offset int) ([]*ImportAudit, int, error)
	SetStatus(ctx context.Context, id string, status int) error
	SetPatient(ctx context.Context, id, patientID string) error

	CreateDetails(ctx context.Context, rows []*ImportAuditDetail) error
	ListDetails(ctx context.Context, auditID string) ([]*ImportAuditDetail, error)

	CreateReconciliation(ctx context.Context, r *MedReconciliation) error
}
