package patient

import "context"

// Repository provides access to the patients table. Find methods return nil
// when no patient matches.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	Update(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id string) (*Patient, error)
	FindByPubpid(ctx context.Context, pubpid string) (*Patient, error)
	FindByNameDOB(ctx context.Context, firstName, lastName, dob string) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
