package history

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

// Apply folds a document's social-history observations into the patient's
// single history row, creating it on first sight. Observations the document
// did not carry leave the stored values untouched.
func (s *Service) Apply(ctx context.Context, patientID string, fields []ccda.SocialHistoryFields) (*SocialHistory, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	tobacco, alcohol := merge(fields)
	if tobacco.IsZero() && alcohol.IsZero() {
		return nil, nil
	}

	h, err := s.repo.FindByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("lookup social history: %w", err)
	}
	if h == nil {
		h = &SocialHistory{PatientID: patientID, Tobacco: tobacco, Alcohol: alcohol}
		if err := s.repo.Create(ctx, h); err != nil {
			return nil, fmt.Errorf("create social history: %w", err)
		}
		return h, nil
	}

	if !tobacco.IsZero() {
		h.Tobacco = tobacco
	}
	if !alcohol.IsZero() {
		h.Alcohol = alcohol
	}
	if err := s.repo.Update(ctx, h); err != nil {
		return nil, fmt.Errorf("update social history %s: %w", h.ID, err)
	}
	return h, nil
}

func merge(fields []ccda.SocialHistoryFields) (tobacco, alcohol ObservationValue) {
	for _, f := range fields {
		if f.TobaccoNote != "" || f.TobaccoStatus != "" {
			tobacco = ObservationValue{
				Note:   f.TobaccoNote,
				Status: f.TobaccoStatus,
				Date:   ccda.StorageDate(f.TobaccoDate),
				SNOMED: f.TobaccoSNOMED,
			}
		}
		if f.AlcoholNote != "" || f.AlcoholStatus != "" {
			alcohol = ObservationValue{
				Note:   f.AlcoholNote,
				Status: f.AlcoholStatus,
				Date:   ccda.StorageDate(f.AlcoholDate),
			}
		}
	}
	return tobacco, alcohol
}

func (s *Service) Get(ctx context.Context, patientID string) (*SocialHistory, error) {
	return s.repo.FindByPatient(ctx, patientID)
}
