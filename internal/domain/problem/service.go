package problem

import (
	"context"
	"fmt"
	"time"

	"github.com/ccdbridge/ccdbridge/internal/domain/vocab"
	"github.com/ccdbridge/ccdbridge/internal/platform/ccda"
)

// OptionResolver resolves display texts to vocabulary option ids.
type OptionResolver interface {
	EnsureOption(ctx context.Context, listID, title, codes string) (string, error)
}

// Charting resolves the encounter a record charts under and records the
// form link.
type Charting interface {
	ResolveEncounter(ctx context.Context, patientID, date string) (string, error)
	LinkForm(ctx context.Context, patientID, encounterID, name, table, recordID, date string) error
}

type Service struct {
	repo     Repository
	options  OptionResolver
	charting Charting
}

func NewService(repo Repository, options OptionResolver, charting Charting) *Service {
	return &Service{repo: repo, options: options, charting: charting}
}

// Upsert stores one problem from a document. Records without a usable
// diagnosis code are skipped and return nil. Matching prefers the source
// system's id and falls back to code plus onset date, so re-imports update
// in place.
func (s *Service) Upsert(ctx context.Context, patientID string, f ccda.ProblemFields) (*Problem, error) {
	if f.DiagnosisCode == "" || f.DiagnosisCode == "0" {
		return nil, nil
	}
	code := "SNOMED-CT:" + f.DiagnosisCode

	begdate := ccda.StorageDate(f.Begdate)
	enddate := ccda.StorageDate(f.Enddate)
	active := f.Status != "completed"
	if f.Resolved == "1" {
		if enddate == "" {
			enddate = time.Now().UTC().Format("2006-01-02")
		}
		active = false
	} else {
		enddate = ""
	}

	outcome, err := s.options.EnsureOption(ctx, vocab.ListOutcome, f.ObservationText, vocab.SnomedCode(f.Observation))
	if err != nil {
		return nil, err
	}

	encounterID, err := s.charting.ResolveEncounter(ctx, patientID, begdate)
	if err != nil {
		return nil, err
	}

	p := &Problem{
		PatientID:   patientID,
		EncounterID: encounterID,
		ExternalID:  f.Extension,
		Code:        code,
		Title:       f.Title,
		BegDate:     begdate,
		EndDate:     enddate,
		Active:      active,
		Outcome:     outcome,
	}

	existing, err := s.find(ctx, p)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		if p.Comments == "" {
			p.Comments = existing.Comments
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("update problem %s: %w", p.ID, err)
		}
		return p, nil
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create problem: %w", err)
	}
	if err := s.charting.LinkForm(ctx, patientID, encounterID, "Problems", "problems", p.ID, begdate); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) find(ctx context.Context, p *Problem) (*Problem, error) {
	if p.ExternalID != "" {
		found, err := s.repo.FindByExternalID(ctx, p.PatientID, p.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("lookup problem by external id: %w", err)
		}
		if found != nil {
			return found, nil
		}
	}
	found, err := s.repo.FindByCodeBegdate(ctx, p.PatientID, p.Code, p.BegDate)
	if err != nil {
		return nil, fmt.Errorf("lookup problem by code: %w", err)
	}
	return found, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*Problem, error) {
	return s.repo.ListByPatient(ctx, patientID)
}
