package referral

import (
	"context"
	"fmt"

	"github.com/ccdbridge/ccdbridge/internal/platform/ccda"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Upsert stores one referral narrative. Empty bodies are skipped, and an
// identical narrative for the same patient is not stored twice.
func (s *Service) Upsert(ctx context.Context, patientID string, f ccda.ReferralFields) (*Referral, error) {
	if f.Body == "" {
		return nil, nil
	}

	existing, err := s.repo.FindByBody(ctx, patientID, f.Body)
	if err != nil {
		return nil, fmt.Errorf("lookup referral: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	ref := &Referral{PatientID: patientID, Body: f.Body}
	if err := s.repo.Create(ctx, ref); err != nil {
		return nil, fmt.Errorf("create referral: %w", err)
	}
	return ref, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*Referral, error) {
	return s.repo.ListByPatient(ctx, patientID)
}
