package careplan

import (
	"context"
	"fmt"

	"github.com/ccdbridge/ccdbridge/internal/platform/ccda"
)

// Charting resolves the encounter a record charts under and records the
// form link.
type Charting interface {
	ResolveEncounter(ctx context.Context, patientID, date string) (string, error)
	LinkForm(ctx context.Context, patientID, encounterID, name, table, recordID, date string) error
}

type Service struct {
	repo     Repository
	charting Charting
}

func NewService(repo Repository, charting Charting) *Service {
	return &Service{repo: repo, charting: charting}
}

// UpsertPlan stores one planned activity from a document. Records with
// neither a code nor text are skipped. Matching prefers the source system's
// id and falls back to code plus date.
func (s *Service) UpsertPlan(ctx context.Context, patientID string, f ccda.CarePlanFields) (*CarePlan, error) {
	if (f.Code == "" || f.Code == "0") && f.Text == "" {
		return nil, nil
	}

	date := ccda.StorageDate(f.Date)
	encounterID, err := s.charting.ResolveEncounter(ctx, patientID, date)
	if err != nil {
		return nil, err
	}

	p := &CarePlan{
		PatientID:   patientID,
		EncounterID: encounterID,
		ExternalID:  f.Extension,
		Code:        f.Code,
		Title:       f.Text,
		Description: f.Description,
		Date:        date,
	}

	existing, err := s.findPlan(ctx, p)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		if err := s.repo.UpdatePlan(ctx, p); err != nil {
			return nil, fmt.Errorf("update care plan %s: %w", p.ID, err)
		}
		return p, nil
	}

	if err := s.repo.CreatePlan(ctx, p); err != nil {
		return nil, fmt.Errorf("create care plan: %w", err)
	}
	if err := s.charting.LinkForm(ctx, patientID, encounterID, "Care Plan", "care_plans", p.ID, date); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) findPlan(ctx context.Context, p *CarePlan) (*CarePlan, error) {
	if p.ExternalID != "" {
		found, err := s.repo.FindPlanByExternalID(ctx, p.PatientID, p.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("lookup care plan by external id: %w", err)
		}
		if found != nil {
			return found, nil
		}
	}
	found, err := s.repo.FindPlanByCodeDate(ctx, p.PatientID, p.Code, p.Date)
	if err != nil {
		return nil, fmt.Errorf("lookup care plan by code: %w", err)
	}
	return found, nil
}

// UpsertStatus stores one functional or cognitive status observation.
func (s *Service) UpsertStatus(ctx context.Context, patientID string, f ccda.FunctionalStatusFields) (*FunctionalStatus, error) {
	if (f.Code == "" || f.Code == "0") && f.Text == "" {
		return nil, nil
	}

	date := ccda.StorageDate(f.Date)
	encounterID, err := s.charting.ResolveEncounter(ctx, patientID, date)
	if err != nil {
		return nil, err
	}

	st := &FunctionalStatus{
		PatientID:   patientID,
		EncounterID: encounterID,
		ExternalID:  f.Extension,
		Code:        f.Code,
		Title:       f.Text,
		Description: f.Description,
		Date:        date,
	}

	existing, err := s.findStatus(ctx, st)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		st.ID = existing.ID
		st.CreatedAt = existing.CreatedAt
		if err := s.repo.UpdateStatus(ctx, st); err != nil {
			return nil, fmt.Errorf("update functional status %s: %w", st.ID, err)
		}
		return st, nil
	}

	if err := s.repo.CreateStatus(ctx, st); err != nil {
		return nil, fmt.Errorf("create functional status: %w", err)
	}
	if err := s.charting.LinkForm(ctx, patientID, encounterID,
		"Functional and Cognitive Status", "functional_statuses", st.ID, date); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) findStatus(ctx context.Context, st *FunctionalStatus) (*FunctionalStatus, error) {
	if st.ExternalID != "" {
		found, err := s.repo.FindStatusByExternalID(ctx, st.PatientID, st.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("lookup functional status by external id: %w", err)
		}
		if found != nil {
			return found, nil
		}
	}
	found, err := s.repo.FindStatusByCodeDate(ctx, st.PatientID, st.Code, st.Date)
	if err != nil {
		return nil, fmt.Errorf("lookup functional status by code: %w", err)
	}
	return found, nil
}

func (s *Service) ListPlansByPatient(ctx context.Context, patientID string) ([]*CarePlan, error) {
	return s.repo.ListPlansByPatient(ctx, patientID)
}

func (s *Service) ListStatusesByPatient(ctx context.Context, patientID string) ([]*FunctionalStatus, error) {
	return s.repo.ListStatusesByPatient(ctx, patientID)
}
