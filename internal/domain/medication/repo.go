package medication

import "context"

// Repository provides access to the prescriptions table. Find methods return
// nil when nothing matches.
type Repository interface {
	Create(ctx context.Context, m *Medication) error
	Update(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id string) (*Medication, error)
	FindByExternalID(ctx context.Context, patientID, externalID string) (*Medication, error)
	FindByDrug(ctx context.Context, patientID, drug string) (*Medication, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Medication, error)
}
