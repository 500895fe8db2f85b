package vitals

import "context"

// Repository provides access to the vitals table. Find methods return nil
// when nothing matches.
type Repository interface {
	Create(ctx context.Context, v *Vitals) error
	Update(ctx context.Context, v *Vitals) error
	GetByID(ctx context.Context, id string) (*Vitals, error)
	FindByExternalID(ctx context.Context, patientID, externalID string) (*Vitals, error)
	FindByDate(ctx context.Context, patientID, date string) (*Vitals, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Vitals, error)
}
