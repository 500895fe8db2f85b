package vitals

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

// Upsert stores one vitals set from a document. Sets with no measurements
// are skipped. Matching prefers the source system's id and falls back to the
// observation date, so the same panel never charts twice.
func (s *Service) Upsert(ctx context.Context, patientID string, f ccda.VitalsFields) (*Vitals, error) {
	if empty(f) {
		return nil, nil
	}

	date := ccda.StorageDate(f.Date)

	encounterID, err := s.charting.ResolveEncounter(ctx, patientID, date)
	if err != nil {
		return nil, err
	}

	v := &Vitals{
		PatientID:        patientID,
		EncounterID:      encounterID,
		ExternalID:       f.Extension,
		Date:             date,
		Temperature:      f.Temperature,
		BPD:              f.BPD,
		BPS:              f.BPS,
		HeadCirc:         f.HeadCirc,
		Pulse:            f.Pulse,
		Height:           f.Height,
		OxygenSaturation: f.OxygenSaturation,
		Respiration:      f.Respiration,
		Weight:           f.Weight,
	}

	existing, err := s.find(ctx, v)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		v.ID = existing.ID
		v.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, v); err != nil {
			return nil, fmt.Errorf("update vitals %s: %w", v.ID, err)
		}
		return v, nil
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create vitals: %w", err)
	}
	if err := s.charting.LinkForm(ctx, patientID, encounterID, "Vitals", "vitals", v.ID, date); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) find(ctx context.Context, v *Vitals) (*Vitals, error) {
	if v.ExternalID != "" {
		found, err := s.repo.FindByExternalID(ctx, v.PatientID, v.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("lookup vitals by external id: %w", err)
		}
		if found != nil {
			return found, nil
		}
	}
	if v.Date != "" {
		found, err := s.repo.FindByDate(ctx, v.PatientID, v.Date)
		if err != nil {
			return nil, fmt.Errorf("lookup vitals by date: %w", err)
		}
		return found, nil
	}
	return nil, nil
}

func empty(f ccda.VitalsFields) bool {
	return f.Temperature == "" && f.BPD == "" && f.BPS == "" && f.HeadCirc == "" &&
		f.Pulse == "" && f.Height == "" && f.OxygenSaturation == "" &&
		f.Respiration == "" && f.Weight == ""
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*Vitals, error) {
	return s.repo.ListByPatient(ctx, patientID)
}
