package allergy

import "context"

// Repository provides access to the allergies table. Find methods return nil
// when nothing matches.
type Repository interface {
	Create(ctx context.Context, a *Allergy) error
	Update(ctx context.Context, a *Allergy) error
	GetByID(ctx context.Context, id string) (*Allergy, error)
	FindByExternalID(ctx context.Context, patientID, externalID string) (*Allergy, error)
	FindByCode(ctx context.Context, patientID, code string) (*Allergy, error)
	FindByTitle(ctx context.Context, patientID, title string) (*Allergy, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Allergy, error)
}
