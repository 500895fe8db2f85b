package encounter

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	encounters []*Encounter
	forms      []*Form
}

func (m *mockRepo) Create(_ context.Context, e *Encounter) error {
	e.ID = uuid.New().String()
	m.encounters = append(m.encounters, e)
	return nil
}

func (m *mockRepo) Update(_ context.Context, e *Encounter) error {
	for i, old := range m.encounters {
		if old.ID == e.ID {
			m.encounters[i] = e
		}
	}
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Encounter, error) {
	for _, e := range m.encounters {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) FindByExternalID(_ context.Context, patientID, externalID string) (*Encounter, error) {
	for _, e := range m.encounters {
		if e.PatientID == patientID && e.ExternalID == externalID {
			return e, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) FindByDate(_ context.Context, patientID, date string) (*Encounter, error) {
	for _, e := range m.encounters {
		if e.PatientID == patientID && e.Date == date {
			return e, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) Latest(_ context.Context, patientID string) (*Encounter, error) {
	var latest *Encounter
	for _, e := range m.encounters {
		if e.PatientID != patientID {
			continue
		}
		if latest == nil || e.Date > latest.Date {
			latest = e
		}
	}
	return latest, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID string) ([]*Encounter, error) {
	var out []*Encounter
	for _, e := range m.encounters {
		if e.PatientID == patientID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockRepo) AddForm(_ context.Context, f *Form) error {
	f.ID = uuid.New().String()
	m.forms = append(m.forms, f)
	return nil
}

func (m *mockRepo) ListForms(_ context.Context, encounterID string) ([]*Form, error) {
	var out []*Form
	for _, f := range m.forms {
		if f.EncounterID == encounterID {
			out = append(out, f)
		}
	}
	return out, nil
}

func TestUpsertMatchesByExternalID(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, &Encounter{PatientID: "p1", ExternalID: "ENC-1", Date: "2021-03-10"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second, err := svc.Upsert(ctx, &Encounter{PatientID: "p1", ExternalID: "ENC-1", Date: "2021-03-10", Reason: "Follow up"})
	if err != nil {
		t.Fatalf("Upsert second call: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected update of %s, got new row %s", first.ID, second.ID)
	}
	if len(repo.encounters) != 1 {
		t.Errorf("expected one encounter, got %d", len(repo.encounters))
	}
	if repo.encounters[0].Reason != "Follow up" {
		t.Error("expected updated reason")
	}
}

func TestUpsertFallsBackToDate(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, &Encounter{PatientID: "p1", Date: "2021-03-10"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second, err := svc.Upsert(ctx, &Encounter{PatientID: "p1", Date: "2021-03-10"})
	if err != nil {
		t.Fatalf("Upsert second call: %v", err)
	}
	if second.ID != first.ID {
		t.Error("expected match by date")
	}
}

func TestUpsertScopedToPatient(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, &Encounter{PatientID: "p1", ExternalID: "ENC-1"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := svc.Upsert(ctx, &Encounter{PatientID: "p2", ExternalID: "ENC-1"}); err != nil {
		t.Fatalf("Upsert other patient: %v", err)
	}
	if len(repo.encounters) != 2 {
		t.Errorf("expected separate encounters per patient, got %d", len(repo.encounters))
	}
}

func TestResolvePrefersSameDate(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	onDate, _ := svc.Upsert(ctx, &Encounter{PatientID: "p1", Date: "2021-03-10"})
	if _, err := svc.Upsert(ctx, &Encounter{PatientID: "p1", Date: "2022-06-01"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := svc.Resolve(ctx, "p1", "2021-03-10")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != onDate.ID {
		t.Errorf("expected encounter on record date, got %s", got.ID)
	}
}

func TestResolveFallsBackToLatest(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, &Encounter{PatientID: "p1", Date: "2020-01-15"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	latest, _ := svc.Upsert(ctx, &Encounter{PatientID: "p1", Date: "2022-06-01"})

	got, err := svc.Resolve(ctx, "p1", "2021-03-10")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != latest.ID {
		t.Errorf("expected latest encounter, got %s", got.ID)
	}
}

func TestResolveBootstrapsWhenNoneExist(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	got, err := svc.Resolve(context.Background(), "p1", "2021-03-10")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got == nil || got.ID == "" {
		t.Fatal("expected a bootstrapped encounter")
	}
	if got.Date != "2021-03-10" || got.Reason != BootstrapReason {
		t.Errorf("unexpected bootstrap encounter: %+v", got)
	}
	if len(repo.encounters) != 1 {
		t.Errorf("expected one encounter, got %d", len(repo.encounters))
	}
}

func TestLinkRecordsForm(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	enc, err := svc.Resolve(ctx, "p1", "2021-03-10")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := svc.Link(ctx, "p1", enc.ID, "Problems", "problems", "rec-1", "2021-03-10"); err != nil {
		t.Fatalf("Link: %v", err)
	}

	forms, err := svc.ListForms(ctx, enc.ID)
	if err != nil {
		t.Fatalf("ListForms: %v", err)
	}
	if len(forms) != 1 || forms[0].TableName != "problems" || forms[0].RecordID != "rec-1" {
		t.Errorf("unexpected forms: %+v", forms)
	}
}
