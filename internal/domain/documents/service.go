package documents

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, d *Document) error {
	if len(d.Content) == 0 {
		return fmt.Errorf("document content is required")
	}
	if d.MimeType == "" {
		d.MimeType = "application/xml"
	}
	return s.repo.Create(ctx, d)
}

func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) SetPatient(ctx context.Context, id, patientID string) error {
	return s.repo.SetPatient(ctx, id, patientID)
}

func (s *Service) SetApprovalStatus(ctx context.Context, id string, status int) error {
	return s.repo.SetApprovalStatus(ctx, id, status)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Document, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}
