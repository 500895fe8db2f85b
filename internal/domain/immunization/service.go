package immunization

import (
	"context"
	"fmt"
	"strings"

	"github.com/ccdbridge/ccdbridge/internal/domain/directory"
	"github.com/ccdbridge/ccdbridge/internal/domain/vocab"
	"github.com/ccdbridge/ccdbridge/internal/platform/ccda"
)

// OptionResolver resolves display texts and route codes to vocabulary
// option ids.
type OptionResolver interface {
	EnsureOption(ctx context.Context, listID, title, codes string) (string, error)
	EnsureRouteOption(ctx context.Context, route, display string) (string, error)
}

// ProviderResolver resolves the administering provider to a directory entry.
type ProviderResolver interface {
	EnsureProvider(ctx context.Context, p directory.Provider) (string, error)
}

type Service struct {
	repo      Repository
	options   OptionResolver
	providers ProviderResolver
}

func NewService(repo Repository, options OptionResolver, providers ProviderResolver) *Service {
	return &Service{repo: repo, options: options, providers: providers}
}

// Upsert stores one immunization from a document. Records without a CVX
// code are skipped. Matching prefers the source system's id and falls back
// to vaccine plus administration date.
func (s *Service) Upsert(ctx context.Context, patientID string, f ccda.ImmunizationFields) (*Immunization, error) {
	if f.CVXCode == "" || f.CVXCode == "0" {
		return nil, nil
	}

	date := ccda.StorageDate(f.AdministeredDate)

	route, err := s.options.EnsureRouteOption(ctx, f.RouteCode, f.RouteText)
	if err != nil {
		return nil, err
	}
	amountUnit, err := s.options.EnsureOption(ctx, vocab.ListDrugUnits, f.AmountUnit, "")
	if err != nil {
		return nil, err
	}
	manufacturer, err := s.options.EnsureOption(ctx, vocab.ListImmunizationMaker, f.Manufacturer, "")
	if err != nil {
		return nil, err
	}
	completion, err := s.options.EnsureOption(ctx, vocab.ListImmunizationStatus, f.CompletionStatus, "")
	if err != nil {
		return nil, err
	}

	first, last := splitName(f.ProviderName)
	providerID, err := s.providers.EnsureProvider(ctx, directory.Provider{
		NPI:          f.ProviderNPI,
		FirstName:    first,
		LastName:     last,
		Organization: f.Organization,
		Street:       f.ProviderAddress,
		City:         f.ProviderCity,
		State:        f.ProviderState,
		Zip:          f.ProviderPostalCode,
		Phone:        f.ProviderTelecom,
	})
	if err != nil {
		return nil, err
	}

	im := &Immunization{
		PatientID:        patientID,
		ExternalID:       f.Extension,
		CVXCode:          f.CVXCode,
		Vaccine:          f.CVXText,
		AdministeredDate: date,
		Amount:           f.Amount,
		AmountUnit:       amountUnit,
		Route:            route,
		Manufacturer:     manufacturer,
		CompletionStatus: completion,
		ProviderID:       providerID,
	}

	existing, err := s.find(ctx, im)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		im.ID = existing.ID
		im.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, im); err != nil {
			return nil, fmt.Errorf("update immunization %s: %w", im.ID, err)
		}
		return im, nil
	}

	if err := s.repo.Create(ctx, im); err != nil {
		return nil, fmt.Errorf("create immunization: %w", err)
	}
	return im, nil
}

func (s *Service) find(ctx context.Context, im *Immunization) (*Immunization, error) {
	if im.ExternalID != "" {
		found, err := s.repo.FindByExternalID(ctx, im.PatientID, im.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("lookup immunization by external id: %w", err)
		}
		if found != nil {
			return found, nil
		}
	}
	found, err := s.repo.FindByCVXDate(ctx, im.PatientID, im.CVXCode, im.AdministeredDate)
	if err != nil {
		return nil, fmt.Errorf("lookup immunization by vaccine: %w", err)
	}
	return found, nil
}

// splitName breaks a flat person name into first and last, keeping extra
// tokens with the last name.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return "", parts[0]
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*Immunization, error) {
	return s.repo.ListByPatient(ctx, patientID)
}
