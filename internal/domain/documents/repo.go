package documents

import "context"

// Repository provides access to the documents table. GetByID returns nil
// when no row matches.
type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id string) (*Document, error)
	SetPatient(ctx context.Context, id, patientID string) error
	SetApprovalStatus(ctx context.Context, id string, status int) error
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Document, int, error)
}
