package allergy

import (
	"context"
	"fmt"
	"strings"
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

// Upsert stores one allergy from a document. Records with neither a coded
// substance nor a display name are skipped. Matching prefers the source
// system's id, then the coded substance, then the display name.
func (s *Service) Upsert(ctx context.Context, patientID string, f ccda.AllergyFields) (*Allergy, error) {
	if (f.Code == "" || f.Code == "0") && f.Title == "" {
		return nil, nil
	}
	code := prefixCode(f.CodeSystemName, f.Code)

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

	severity, err := s.options.EnsureOption(ctx, vocab.ListSeverity, "", vocab.SnomedCode(f.Severity))
	if err != nil {
		return nil, err
	}
	reaction, err := s.options.EnsureOption(ctx, vocab.ListReaction, f.ReactionText, vocab.SnomedCode(f.Reaction))
	if err != nil {
		return nil, err
	}
	outcome, err := s.options.EnsureOption(ctx, vocab.ListOutcome, "", vocab.SnomedCode(f.Outcome))
	if err != nil {
		return nil, err
	}

	encounterID, err := s.charting.ResolveEncounter(ctx, patientID, begdate)
	if err != nil {
		return nil, err
	}

	a := &Allergy{
		PatientID:   patientID,
		EncounterID: encounterID,
		ExternalID:  f.Extension,
		Code:        code,
		Title:       f.Title,
		BegDate:     begdate,
		EndDate:     enddate,
		Active:      active,
		Severity:    severity,
		Reaction:    reaction,
		Outcome:     outcome,
	}

	existing, err := s.find(ctx, a)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, a); err != nil {
			return nil, fmt.Errorf("update allergy %s: %w", a.ID, err)
		}
		return a, nil
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create allergy: %w", err)
	}
	if err := s.charting.LinkForm(ctx, patientID, encounterID, "Allergies", "allergies", a.ID, begdate); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) find(ctx context.Context, a *Allergy) (*Allergy, error) {
	if a.ExternalID != "" {
		found, err := s.repo.FindByExternalID(ctx, a.PatientID, a.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("lookup allergy by external id: %w", err)
		}
		if found != nil {
			return found, nil
		}
	}
	if a.Code != "" {
		found, err := s.repo.FindByCode(ctx, a.PatientID, a.Code)
		if err != nil {
			return nil, fmt.Errorf("lookup allergy by code: %w", err)
		}
		if found != nil {
			return found, nil
		}
	}
	if a.Title != "" {
		found, err := s.repo.FindByTitle(ctx, a.PatientID, a.Title)
		if err != nil {
			return nil, fmt.Errorf("lookup allergy by title: %w", err)
		}
		return found, nil
	}
	return nil, nil
}

// prefixCode builds the stored coded value, defaulting the substance code
// system to RxNorm when the document named none.
func prefixCode(system, code string) string {
	if code == "" || code == "0" {
		return ""
	}
	if system == "" {
		system = "RXNORM"
	}
	system = strings.ToUpper(strings.ReplaceAll(system, " ", "-"))
	return system + ":" + code
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*Allergy, error) {
	return s.repo.ListByPatient(ctx, patientID)
}
