package problem

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ccdbridge/ccdbridge/internal/platform/ccda"
)

type mockRepo struct {
	problems []*Problem
	updates  int
}

func (m *mockRepo) Create(_ context.Context, p *Problem) error {
	p.ID = uuid.New().String()
	m.problems = append(m.problems, p)
	return nil
}

func (m *mockRepo) Update(_ context.Context, p *Problem) error {
	m.updates++
	for i, old := range m.problems {
		if old.ID == p.ID {
			m.problems[i] = p
		}
	}
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Problem, error) {
	for _, p := range m.problems {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) FindByExternalID(_ context.Context, patientID, externalID string) (*Problem, error) {
	for _, p := range m.problems {
		if p.PatientID == patientID && p.ExternalID == externalID {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) FindByCodeBegdate(_ context.Context, patientID, code, begdate string) (*Problem, error) {
	for _, p := range m.problems {
		if p.PatientID == patientID && p.Code == code && p.BegDate == begdate {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID string) ([]*Problem, error) {
	var out []*Problem
	for _, p := range m.problems {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockOptions struct{}

func (mockOptions) EnsureOption(_ context.Context, _, title, codes string) (string, error) {
	if title == "" && codes == "" {
		return "", nil
	}
	return "opt-" + codes + title, nil
}

type mockCharting struct {
	encounterID string
	links       int
}

func (m *mockCharting) ResolveEncounter(_ context.Context, _, _ string) (string, error) {
	if m.encounterID == "" {
		m.encounterID = uuid.New().String()
	}
	return m.encounterID, nil
}

func (m *mockCharting) LinkForm(_ context.Context, _, _, _, _, _, _ string) error {
	m.links++
	return nil
}

func pneumonia() ccda.ProblemFields {
	return ccda.ProblemFields{
		Extension:     "PRB-1",
		Begdate:       "20210310",
		DiagnosisCode: "233604007",
		Title:         "Pneumonia",
		Status:        "active",
	}
}

func TestUpsertCreatesProblem(t *testing.T) {
	repo := &mockRepo{}
	charting := &mockCharting{}
	svc := NewService(repo, mockOptions{}, charting)

	p, err := svc.Upsert(context.Background(), "p1", pneumonia())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if p == nil {
		t.Fatal("expected a stored problem")
	}
	if p.Code != "SNOMED-CT:233604007" {
		t.Errorf("unexpected code %q", p.Code)
	}
	if p.BegDate != "2021-03-10" {
		t.Errorf("unexpected onset date %q", p.BegDate)
	}
	if !p.Active {
		t.Error("expected active problem")
	}
	if p.EncounterID != charting.encounterID {
		t.Error("expected problem charted under resolved encounter")
	}
	if charting.links != 1 {
		t.Errorf("expected one form link, got %d", charting.links)
	}
}

func TestUpsertSkipsZeroCode(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, mockOptions{}, &mockCharting{})

	f := pneumonia()
	f.DiagnosisCode = "0"
	p, err := svc.Upsert(context.Background(), "p1", f)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if p != nil || len(repo.problems) != 0 {
		t.Error("expected zero-code record to be skipped")
	}
}

func TestUpsertIdempotentByExternalID(t *testing.T) {
	repo := &mockRepo{}
	charting := &mockCharting{}
	svc := NewService(repo, mockOptions{}, charting)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, "p1", pneumonia())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second, err := svc.Upsert(ctx, "p1", pneumonia())
	if err != nil {
		t.Fatalf("Upsert second call: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected update of %s, got new row %s", first.ID, second.ID)
	}
	if len(repo.problems) != 1 {
		t.Errorf("expected one problem, got %d", len(repo.problems))
	}
	if charting.links != 1 {
		t.Errorf("expected form linked once, got %d", charting.links)
	}
}

func TestUpsertDedupsByCodeAndOnset(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, mockOptions{}, &mockCharting{})
	ctx := context.Background()

	f := pneumonia()
	f.Extension = ""
	if _, err := svc.Upsert(ctx, "p1", f); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := svc.Upsert(ctx, "p1", f); err != nil {
		t.Fatalf("Upsert second call: %v", err)
	}
	if len(repo.problems) != 1 {
		t.Errorf("expected dedup by code and onset, got %d rows", len(repo.problems))
	}
}

func TestUpsertScopedToPatient(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, mockOptions{}, &mockCharting{})
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "p1", pneumonia()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := svc.Upsert(ctx, "p2", pneumonia()); err != nil {
		t.Fatalf("Upsert other patient: %v", err)
	}
	if len(repo.problems) != 2 {
		t.Errorf("expected one problem per patient, got %d", len(repo.problems))
	}
}

func TestUpsertResolvedClosesProblem(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, mockOptions{}, &mockCharting{})

	f := pneumonia()
	f.Resolved = "1"
	p, err := svc.Upsert(context.Background(), "p1", f)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if p.Active {
		t.Error("expected resolved problem inactive")
	}
	today := time.Now().UTC().Format("2006-01-02")
	if p.EndDate != today {
		t.Errorf("expected end date %s, got %s", today, p.EndDate)
	}
}

func TestUpsertResolvedKeepsSuppliedEndDate(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, mockOptions{}, &mockCharting{})

	f := pneumonia()
	f.Resolved = "1"
	f.Enddate = "20230615"
	p, err := svc.Upsert(context.Background(), "p1", f)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if p.EndDate != "2023-06-15" {
		t.Errorf("expected documented end date 2023-06-15, got %q", p.EndDate)
	}
	if p.Active {
		t.Error("expected resolved problem inactive")
	}
}

func TestUpsertUnresolvedClearsEndDate(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, mockOptions{}, &mockCharting{})

	f := pneumonia()
	f.Enddate = "20230615"
	p, err := svc.Upsert(context.Background(), "p1", f)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if p.EndDate != "" {
		t.Errorf("expected open range for active problem, got end date %q", p.EndDate)
	}
	if !p.Active {
		t.Error("expected active problem")
	}
}
