package documents

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	docs []*Document
}

func (m *mockRepo) Create(_ context.Context, d *Document) error {
	d.ID = uuid.New().String()
	m.docs = append(m.docs, d)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Document, error) {
	for _, d := range m.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) SetPatient(_ context.Context, id, patientID string) error {
	for _, d := range m.docs {
		if d.ID == id {
			d.PatientID = patientID
		}
	}
	return nil
}

func (m *mockRepo) SetApprovalStatus(_ context.Context, id string, status int) error {
	for _, d := range m.docs {
		if d.ID == id {
			d.ApprovalStatus = status
		}
	}
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID string, limit, offset int) ([]*Document, int, error) {
	var out []*Document
	for _, d := range m.docs {
		if d.PatientID == patientID {
			out = append(out, d)
		}
	}
	return out, len(out), nil
}

func TestCreateRequiresContent(t *testing.T) {
	svc := NewService(&mockRepo{})
	if err := svc.Create(context.Background(), &Document{Name: "empty.xml"}); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestCreateDefaultsMimeType(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	d := &Document{Name: "ccd.xml", Type: "ccd", Content: []byte("<ClinicalDocument/>")}
	if err := svc.Create(context.Background(), d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.MimeType != "application/xml" {
		t.Errorf("unexpected mime type %q", d.MimeType)
	}
}

func TestApprovalMirror(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	d := &Document{Type: "ccd", Content: []byte("<ClinicalDocument/>")}
	if err := svc.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.SetPatient(ctx, d.ID, "p1"); err != nil {
		t.Fatalf("SetPatient: %v", err)
	}
	if err := svc.SetApprovalStatus(ctx, d.ID, 2); err != nil {
		t.Fatalf("SetApprovalStatus: %v", err)
	}

	got, err := svc.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PatientID != "p1" || got.ApprovalStatus != 2 {
		t.Errorf("unexpected document: %+v", got)
	}
}
