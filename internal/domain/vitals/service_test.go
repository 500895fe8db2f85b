package vitals

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ccdbridge/ccdbridge/internal/platform/ccda"
)

type mockRepo struct {
	sets []*Vitals
}

func (m *mockRepo) Create(_ context.Context, v *Vitals) error {
	v.ID = uuid.New().String()
	m.sets = append(m.sets, v)
	return nil
}

func (m *mockRepo) Update(_ context.Context, v *Vitals) error {
	for i, old := range m.sets {
		if old.ID == v.ID {
			m.sets[i] = v
		}
	}
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Vitals, error) {
	for _, v := range m.sets {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) FindByExternalID(_ context.Context, patientID, externalID string) (*Vitals, error) {
	for _, v := range m.sets {
		if v.PatientID == patientID && v.ExternalID == externalID {
			return v, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) FindByDate(_ context.Context, patientID, date string) (*Vitals, error) {
	for _, v := range m.sets {
		if v.PatientID == patientID && v.Date == date {
			return v, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID string) ([]*Vitals, error) {
	var out []*Vitals
	for _, v := range m.sets {
		if v.PatientID == patientID {
			out = append(out, v)
		}
	}
	return out, nil
}

type mockCharting struct {
	links int
}

func (m *mockCharting) ResolveEncounter(_ context.Context, _, _ string) (string, error) {
	return "enc-1", nil
}

func (m *mockCharting) LinkForm(_ context.Context, _, _, _, _, _, _ string) error {
	m.links++
	return nil
}

func panel() ccda.VitalsFields {
	return ccda.VitalsFields{
		Extension: "VIT-1",
		Date:      "20210310",
		BPS:       "132",
		BPD:       "86",
		Pulse:     "80",
		Weight:    "88.45",
	}
}

func TestUpsertCreatesVitals(t *testing.T) {
	repo := &mockRepo{}
	charting := &mockCharting{}
	svc := NewService(repo, charting)

	v, err := svc.Upsert(context.Background(), "p1", panel())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if v == nil {
		t.Fatal("expected stored vitals")
	}
	if v.Date != "2021-03-10" || v.BPS != "132" {
		t.Errorf("unexpected vitals: %+v", v)
	}
	if charting.links != 1 {
		t.Errorf("expected one form link, got %d", charting.links)
	}
}

func TestUpsertSkipsEmptyPanel(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, &mockCharting{})

	v, err := svc.Upsert(context.Background(), "p1", ccda.VitalsFields{Extension: "VIT-2", Date: "20210310"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if v != nil || len(repo.sets) != 0 {
		t.Error("expected empty panel to be skipped")
	}
}

func TestUpsertIdempotent(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, &mockCharting{})
	ctx := context.Background()

	first, err := svc.Upsert(ctx, "p1", panel())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second, err := svc.Upsert(ctx, "p1", panel())
	if err != nil {
		t.Fatalf("Upsert second call: %v", err)
	}
	if second.ID != first.ID || len(repo.sets) != 1 {
		t.Errorf("expected update in place, got %d rows", len(repo.sets))
	}
}

func TestUpsertDedupsByDate(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, &mockCharting{})
	ctx := context.Background()

	f := panel()
	f.Extension = ""
	if _, err := svc.Upsert(ctx, "p1", f); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	f.Pulse = "82"
	if _, err := svc.Upsert(ctx, "p1", f); err != nil {
		t.Fatalf("Upsert second call: %v", err)
	}
	if len(repo.sets) != 1 {
		t.Errorf("expected dedup by date, got %d rows", len(repo.sets))
	}
	if repo.sets[0].Pulse != "82" {
		t.Error("expected refreshed measurement")
	}
}
