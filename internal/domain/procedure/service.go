package procedure

import (
	"context"
	"fmt"
	"strings"

	"github.com/ccdbridge/ccdbridge/internal/platform/ccda"
)

// OrgResolver resolves organization names to directory entries.
type OrgResolver interface {
	EnsureOrganization(ctx context.Context, name string) (string, error)
	EnsureFacility(ctx context.Context, name string) (string, error)
}

// Charting resolves the encounter a record charts under and records the
// form link.
type Charting interface {
	ResolveEncounter(ctx context.Context, patientID, date string) (string, error)
	LinkForm(ctx context.Context, patientID, encounterID, name, table, recordID, date string) error
}

type Service struct {
	repo     Repository
	orgs     OrgResolver
	charting Charting
}

func NewService(repo Repository, orgs OrgResolver, charting Charting) *Service {
	return &Service{repo: repo, orgs: orgs, charting: charting}
}

// Upsert stores one procedure from a document. Records without a usable
// procedure code are skipped. Matching prefers the source system's id and
// falls back to code plus date.
func (s *Service) Upsert(ctx context.Context, patientID string, f ccda.ProcedureFields) (*Procedure, error) {
	if f.Code == "" || f.Code == "0" {
		return nil, nil
	}
	system := f.CodeSystemName
	if system == "" {
		system = "CPT4"
	}
	code := strings.ToUpper(strings.ReplaceAll(system, " ", "-")) + ":" + f.Code

	date := ccda.StorageDate(f.Date)

	// The resolver substitutes placeholder organizations when the document
	// named none, so every procedure stays attributable.
	performerOrg, err := s.orgs.EnsureOrganization(ctx, f.Organization1)
	if err != nil {
		return nil, err
	}
	facilityOrg, err := s.orgs.EnsureFacility(ctx, f.Organization2)
	if err != nil {
		return nil, err
	}

	encounterID, err := s.charting.ResolveEncounter(ctx, patientID, date)
	if err != nil {
		return nil, err
	}

	p := &Procedure{
		PatientID:      patientID,
		EncounterID:    encounterID,
		ExternalID:     f.Extension,
		Code:           code,
		Title:          f.CodeText,
		Date:           date,
		PerformerOrgID: performerOrg,
		FacilityOrgID:  facilityOrg,
	}

	existing, err := s.find(ctx, p)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("update procedure %s: %w", p.ID, err)
		}
		return p, nil
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create procedure: %w", err)
	}
	if err := s.charting.LinkForm(ctx, patientID, encounterID, "Procedures", "procedures", p.ID, date); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) find(ctx context.Context, p *Procedure) (*Procedure, error) {
	if p.ExternalID != "" {
		found, err := s.repo.FindByExternalID(ctx, p.PatientID, p.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("lookup procedure by external id: %w", err)
		}
		if found != nil {
			return found, nil
		}
	}
	found, err := s.repo.FindByCodeDate(ctx, p.PatientID, p.Code, p.Date)
	if err != nil {
		return nil, fmt.Errorf("lookup procedure by code: %w", err)
	}
	return found, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*Procedure, error) {
	return s.repo.ListByPatient(ctx, patientID)
}
