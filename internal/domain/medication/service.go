package medication

import (
	"context"
	"fmt"
	"time"

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

// ProviderResolver resolves the prescribing provider to a directory entry.
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

// Upsert stores one medication from a document. Records with neither a drug
// name nor a drug code are skipped. Matching prefers the source system's id
// and falls back to the drug name, so a renamed source id does not duplicate
// the prescription. A discontinue marker closes the date range and flips the
// row to discontinued.
func (s *Service) Upsert(ctx context.Context, patientID string, f ccda.MedicationFields) (*Medication, error) {
	if f.DrugText == "" && (f.DrugCode == "" || f.DrugCode == "0") {
		return nil, nil
	}
	drugCode := ""
	if f.DrugCode != "" && f.DrugCode != "0" {
		drugCode = "RXNORM:" + f.DrugCode
	}

	start := ccda.StorageDate(f.Begdate)
	end := ccda.StorageDate(f.Enddate)
	status := StatusActive
	if f.Discontinue == "1" {
		if end == "" {
			end = time.Now().UTC().Format("2006-01-02")
		}
		status = StatusDiscontinued
	} else {
		end = ""
	}

	route, err := s.options.EnsureRouteOption(ctx, f.Route, f.RouteDisplay)
	if err != nil {
		return nil, err
	}
	doseUnit, err := s.options.EnsureOption(ctx, vocab.ListDrugUnits, f.DoseUnit, "")
	if err != nil {
		return nil, err
	}
	rateUnit, err := s.options.EnsureOption(ctx, vocab.ListDrugUnits, f.RateUnit, "")
	if err != nil {
		return nil, err
	}

	providerID, err := s.providers.EnsureProvider(ctx, directory.Provider{
		NPI:       f.ProviderNPI,
		FirstName: f.ProviderFname,
		LastName:  f.ProviderLname,
		Street:    f.ProviderAddress,
		City:      f.ProviderCity,
		State:     f.ProviderState,
		Zip:       f.ProviderPostalCode,
	})
	if err != nil {
		return nil, err
	}

	m := &Medication{
		PatientID:  patientID,
		ExternalID: f.Extension,
		Drug:       f.DrugText,
		DrugCode:   drugCode,
		StartDate:  start,
		EndDate:    end,
		Status:     status,
		Route:      route,
		Dose:       f.Dose,
		DoseUnit:   doseUnit,
		Rate:       f.Rate,
		RateUnit:   rateUnit,
		PRN:        f.PRN == "1",
		Note:       f.Note,
		Indication: f.Indication,
		ProviderID: providerID,
	}

	existing, err := s.find(ctx, m)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, m); err != nil {
			return nil, fmt.Errorf("update medication %s: %w", m.ID, err)
		}
		return m, nil
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create medication: %w", err)
	}
	return m, nil
}

func (s *Service) find(ctx context.Context, m *Medication) (*Medication, error) {
	if m.ExternalID != "" {
		found, err := s.repo.FindByExternalID(ctx, m.PatientID, m.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("lookup medication by external id: %w", err)
		}
		if found != nil {
			return found, nil
		}
	}
	if m.Drug != "" {
		found, err := s.repo.FindByDrug(ctx, m.PatientID, m.Drug)
		if err != nil {
			return nil, fmt.Errorf("lookup medication by drug: %w", err)
		}
		return found, nil
	}
	return nil, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*Medication, error) {
	return s.repo.ListByPatient(ctx, patientID)
}
