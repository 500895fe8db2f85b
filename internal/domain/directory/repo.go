package directory

import "context"

// Repository provides access to the provider directory. Find methods return
// nil when no entry matches.
type Repository interface {
	FindByNPI(ctx context.Context, npi string) (*Provider, error)
	FindByName(ctx context.Context, kind Kind, firstName, lastName string) (*Provider, error)
	FindByOrganization(ctx context.Context, kind Kind, organization string) (*Provider, error)
	Create(ctx context.Context, p *Provider) error
	GetByID(ctx context.Context, id string) (*Provider, error)
}
