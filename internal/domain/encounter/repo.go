package encounter

import "context"

// Repository provides access to encounters and their form links. Find
// methods return nil when nothing matches.
type Repository interface {
	Create(ctx context.Context, e *Encounter) error
	Update(ctx context.Context, e *Encounter) error
	GetByID(ctx context.Context, id string) (*Encounter, error)
	FindByExternalID(ctx context.Context, patientID, externalID string) (*Encounter, error)
	FindByDate(ctx context.Context, patientID, date string) (*Encounter, error)
	// Latest returns the patient's most recent encounter by visit date.
	Latest(ctx context.Context, patientID string) (*Encounter, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Encounter, error)
	AddForm(ctx context.Context, f *Form) error
	ListForms(ctx context.Context, encounterID string) ([]*Form, error)
}
