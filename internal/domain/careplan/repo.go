package careplan

import "context"

// Repository provides access to care plans and functional statuses. Find
// methods return nil when nothing matches.
type Repository interface {
	CreatePlan(ctx context.Context, p *CarePlan) error
	UpdatePlan(ctx context.Context, p *CarePlan) error
	FindPlanByExternalID(ctx context.Context, patientID, externalID string) (*CarePlan, error)
	FindPlanByCodeDate(ctx context.Context, patientID, code, date string) (*CarePlan, error)
	ListPlansByPatient(ctx context.Context, patientID string) ([]*CarePlan, error)

	CreateStatus(ctx context.Context, st *FunctionalStatus) error
	UpdateStatus(ctx context.Context, st *FunctionalStatus) error
	FindStatusByExternalID(ctx context.Context, patientID, externalID string) (*FunctionalStatus, error)
	FindStatusByCodeDate(ctx context.Context, patientID, code, date string) (*FunctionalStatus, error)
	ListStatusesByPatient(ctx context.Context, patientID string) ([]*FunctionalStatus, error)
}
