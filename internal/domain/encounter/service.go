package encounter

import (
	"context"
	"fmt"
	"time"
)

// BootstrapReason marks visits created to anchor imported records that
// arrived without a matching encounter.
const BootstrapReason = "Imported from clinical document"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Upsert stores an encounter from a document, matching an existing visit by
// external id first and by date second. The returned encounter carries the
// surviving row's id.
func (s *Service) Upsert(ctx context.Context, e *Encounter) (*Encounter, error) {
	if e.PatientID == "" {
		return nil, fmt.Errorf("patient id is required")
	}

	existing, err := s.find(ctx, e)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		e.ID = existing.ID
		e.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, e); err != nil {
			return nil, fmt.Errorf("update encounter %s: %w", e.ID, err)
		}
		return e, nil
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create encounter: %w", err)
	}
	return e, nil
}

func (s *Service) find(ctx context.Context, e *Encounter) (*Encounter, error) {
	if e.ExternalID != "" {
		found, err := s.repo.FindByExternalID(ctx, e.PatientID, e.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("lookup encounter by external id: %w", err)
		}
		if found != nil {
			return found, nil
		}
	}
	if e.Date != "" {
		found, err := s.repo.FindByDate(ctx, e.PatientID, e.Date)
		if err != nil {
			return nil, fmt.Errorf("lookup encounter by date: %w", err)
		}
		return found, nil
	}
	return nil, nil
}

// Resolve returns the encounter an imported record should chart under: the
// visit on the record's date when one exists, otherwise the patient's latest
// visit, otherwise a new visit created on that date. Records therefore never
// land without an encounter.
func (s *Service) Resolve(ctx context.Context, patientID, date string) (*Encounter, error) {
	if date != "" {
		found, err := s.repo.FindByDate(ctx, patientID, date)
		if err != nil {
			return nil, fmt.Errorf("lookup encounter by date: %w", err)
		}
		if found != nil {
			return found, nil
		}
	}

	latest, err := s.repo.Latest(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("lookup latest encounter: %w", err)
	}
	if latest != nil {
		return latest, nil
	}

	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	e := &Encounter{PatientID: patientID, Date: date, Reason: BootstrapReason}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("bootstrap encounter: %w", err)
	}
	return e, nil
}

// Link records a form row tying a stored clinical record to its encounter.
func (s *Service) Link(ctx context.Context, patientID, encounterID, name, table, recordID, date string) error {
	f := &Form{
		PatientID:   patientID,
		EncounterID: encounterID,
		Name:        name,
		TableName:   table,
		RecordID:    recordID,
		Date:        date,
	}
	if err := s.repo.AddForm(ctx, f); err != nil {
		return fmt.Errorf("link %s record %s to encounter %s: %w", table, recordID, encounterID, err)
	}
	return nil
}

// Charting adapts the service to the narrow interface the record packages
// consume: resolve-to-id plus form linking.
type Charting struct {
	svc *Service
}

func NewCharting(svc *Service) Charting {
	return Charting{svc: svc}
}

func (c Charting) ResolveEncounter(ctx context.Context, patientID, date string) (string, error) {
	e, err := c.svc.Resolve(ctx, patientID, date)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

func (c Charting) LinkForm(ctx context.Context, patientID, encounterID, name, table, recordID, date string) error {
	return c.svc.Link(ctx, patientID, encounterID, name, table, recordID, date)
}

func (s *Service) Get(ctx context.Context, id string) (*Encounter, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*Encounter, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListForms(ctx context.Context, encounterID string) ([]*Form, error) {
	return s.repo.ListForms(ctx, encounterID)
}
