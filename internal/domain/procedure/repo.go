package procedure

import "context"

// Repository provides access to the procedures table. Find methods return
// nil when nothing matches.
type Repository interface {
	Create(ctx context.Context, p *Procedure) error
	Update(ctx context.Context, p *Procedure) error
	GetByID(ctx context.Context, id string) (*Procedure, error)
	FindByExternalID(ctx context.Context, patientID, externalID string) (*Procedure, error)
	FindByCodeDate(ctx context.Context, patientID, code, date string) (*Procedure, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Procedure, error)
}
