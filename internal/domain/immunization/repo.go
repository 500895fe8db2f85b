package immunization

import "context"

// Repository provides access to the immunizations table. Find methods return
// nil when nothing matches.
type Repository interface {
	Create(ctx context.Context, im *Immunization) error
	Update(ctx context.Context, im *Immunization) error
	GetByID(ctx context.Context, id string) (*Immunization, error)
	FindByExternalID(ctx context.Context, patientID, externalID string) (*Immunization, error)
	FindByCVXDate(ctx context.Context, patientID, cvx, date string) (*Immunization, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Immunization, error)
}
