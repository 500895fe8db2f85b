package directory

import (
	"context"
	"fmt"
)

// Service resolves directory references from imported documents, creating
// entries on first sight and substituting placeholder identities when the
// document omits the party entirely.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureProvider resolves an individual provider by NPI, creating one when
// missing. A provider without an NPI is assigned the shared placeholder NPI
// so every imported record remains attributable.
func (s *Service) EnsureProvider(ctx context.Context, p Provider) (string, error) {
	if p.NPI == "" {
		p.NPI = PlaceholderNPI
	}
	existing, err := s.repo.FindByNPI(ctx, p.NPI)
	if err != nil {
		return "", fmt.Errorf("lookup provider by npi: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	p.Kind = KindProvider
	p.Active = true
	if err := s.repo.Create(ctx, &p); err != nil {
		return "", fmt.Errorf("create provider %q: %w", p.NPI, err)
	}
	return p.ID, nil
}

// EnsureOrganization resolves an organization by display name, falling back
// to the placeholder practice when no name came through.
func (s *Service) EnsureOrganization(ctx context.Context, name string) (string, error) {
	return s.ensureOrg(ctx, KindOrganization, name, PlaceholderPractice)
}

// EnsureFacility resolves the treating facility, falling back to the
// placeholder hospital.
func (s *Service) EnsureFacility(ctx context.Context, name string) (string, error) {
	return s.ensureOrg(ctx, KindOrganization, name, PlaceholderFacility)
}

// EnsureLab resolves the performing laboratory for imported results. Quality
// reporting documents carry no lab identity and resolve to their own
// placeholder so the two import paths stay distinguishable.
func (s *Service) EnsureLab(ctx context.Context, name string, qrda bool) (string, error) {
	fallback := PlaceholderLab
	if qrda {
		fallback = PlaceholderQRDALab
	}
	return s.ensureOrg(ctx, KindLab, name, fallback)
}

func (s *Service) ensureOrg(ctx context.Context, kind Kind, name, fallback string) (string, error) {
	if name == "" {
		name = fallback
	}
	existing, err := s.repo.FindByOrganization(ctx, kind, name)
	if err != nil {
		return "", fmt.Errorf("lookup %s %q: %w", kind, name, err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	p := Provider{Kind: kind, Organization: name, Active: true}
	if err := s.repo.Create(ctx, &p); err != nil {
		return "", fmt.Errorf("create %s %q: %w", kind, name, err)
	}
	return p.ID, nil
}
