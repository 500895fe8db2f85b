package problem

import "context"

// Repository provides access to the problems table. Find methods return nil
// when nothing matches.
type Repository interface {
	Create(ctx context.Context, p *Problem) error
	Update(ctx context.Context, p *Problem) error
	GetByID(ctx context.Context, id string) (*Problem, error)
	FindByExternalID(ctx context.Context, patientID, externalID string) (*Problem, error)
	FindByCodeBegdate(ctx context.Context, patientID, code, begdate string) (*Problem, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Problem, error)
}
