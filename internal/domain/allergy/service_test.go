package allergy

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ccdbridge/ccdbridge/internal/platform/ccda"
)

type mockRepo struct {
	allergies []*Allergy
}

func (m *mockRepo) Create(_ context.Context, a *Allergy) error {
	a.ID = uuid.New().String()
	m.allergies = append(m.allergies, a)
	return nil
}

func (m *mockRepo) Update(_ context.Context, a *Allergy) error {
	for i, old := range m.allergies {
		if old.ID == a.ID {
			m.allergies[i] = a
		}
	}
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Allergy, error) {
	for _, a := range m.allergies {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) FindByExternalID(_ context.Context, patientID, externalID string) (*Allergy, error) {
	for _, a := range m.allergies {
		if a.PatientID == patientID && a.ExternalID == externalID {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) FindByCode(_ context.Context, patientID, code string) (*Allergy, error) {
	for _, a := range m.allergies {
		if a.PatientID == patientID && a.Code == code {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) FindByTitle(_ context.Context, patientID, title string) (*Allergy, error) {
	for _, a := range m.allergies {
		if a.PatientID == patientID && a.Title == title {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID string) ([]*Allergy, error) {
	var out []*Allergy
	for _, a := range m.allergies {
		if a.PatientID == patientID {
			out = append(out, a)
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
	links int
}

func (m *mockCharting) ResolveEncounter(_ context.Context, _, _ string) (string, error) {
	return "enc-1", nil
}

func (m *mockCharting) LinkForm(_ context.Context, _, _, _, _, _, _ string) error {
	m.links++
	return nil
}

func penicillin() ccda.AllergyFields {
	return ccda.AllergyFields{
		Extension:    "ALG-1",
		Begdate:      "20190102",
		Code:         "7980",
		Title:        "Penicillin G",
		Severity:     "371924009",
		Reaction:     "247472004",
		ReactionText: "Hives",
		Status:       "active",
	}
}

func TestUpsertCreatesAllergy(t *testing.T) {
	repo := &mockRepo{}
	charting := &mockCharting{}
	svc := NewService(repo, mockOptions{}, charting)

	a, err := svc.Upsert(context.Background(), "p1", penicillin())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if a == nil {
		t.Fatal("expected a stored allergy")
	}
	if a.Code != "RXNORM:7980" {
		t.Errorf("unexpected code %q", a.Code)
	}
	if a.Severity != "opt-SNOMED-CT:371924009" || a.Reaction != "opt-SNOMED-CT:247472004Hives" {
		t.Errorf("unexpected vocab resolution: severity=%q reaction=%q", a.Severity, a.Reaction)
	}
	if charting.links != 1 {
		t.Errorf("expected one form link, got %d", charting.links)
	}
}

func TestUpsertIdempotent(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, mockOptions{}, &mockCharting{})
	ctx := context.Background()

	first, err := svc.Upsert(ctx, "p1", penicillin())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second, err := svc.Upsert(ctx, "p1", penicillin())
	if err != nil {
		t.Fatalf("Upsert second call: %v", err)
	}
	if second.ID != first.ID || len(repo.allergies) != 1 {
		t.Errorf("expected update in place, got %d rows", len(repo.allergies))
	}
}

func TestUpsertDedupsByCodeWithoutExternalID(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, mockOptions{}, &mockCharting{})
	ctx := context.Background()

	f := penicillin()
	f.Extension = ""
	if _, err := svc.Upsert(ctx, "p1", f); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := svc.Upsert(ctx, "p1", f); err != nil {
		t.Fatalf("Upsert second call: %v", err)
	}
	if len(repo.allergies) != 1 {
		t.Errorf("expected dedup by substance code, got %d rows", len(repo.allergies))
	}
}

func TestUpsertDedupsByTitleWithoutCode(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, mockOptions{}, &mockCharting{})
	ctx := context.Background()

	f := penicillin()
	f.Extension = ""
	f.Code = ""
	if _, err := svc.Upsert(ctx, "p1", f); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := svc.Upsert(ctx, "p1", f); err != nil {
		t.Fatalf("Upsert second call: %v", err)
	}
	if len(repo.allergies) != 1 {
		t.Errorf("expected dedup by display name, got %d rows", len(repo.allergies))
	}
}

func TestUpsertSkipsEmptyRecord(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, mockOptions{}, &mockCharting{})

	a, err := svc.Upsert(context.Background(), "p1", ccda.AllergyFields{Extension: "ALG-2"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if a != nil || len(repo.allergies) != 0 {
		t.Error("expected record without substance to be skipped")
	}
}

func TestUpsertResolvedKeepsSuppliedEndDate(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, mockOptions{}, &mockCharting{})

	f := penicillin()
	f.Resolved = "1"
	f.Enddate = "20230615"
	a, err := svc.Upsert(context.Background(), "p1", f)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if a.Active {
		t.Error("expected resolved allergy inactive")
	}
	if a.EndDate != "2023-06-15" {
		t.Errorf("expected documented end date 2023-06-15, got %q", a.EndDate)
	}
}

func TestUpsertUnresolvedClearsEndDate(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, mockOptions{}, &mockCharting{})

	f := penicillin()
	f.Enddate = "20230615"
	a, err := svc.Upsert(context.Background(), "p1", f)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if a.EndDate != "" {
		t.Errorf("expected open range for active allergy, got end date %q", a.EndDate)
	}
	if !a.Active {
		t.Error("expected active allergy")
	}
}

func TestPrefixCodeNamedSystem(t *testing.T) {
	if got := prefixCode("SNOMED CT", "91936005"); got != "SNOMED-CT:91936005" {
		t.Errorf("unexpected prefixed code %q", got)
	}
	if got := prefixCode("", "7980"); got != "RXNORM:7980" {
		t.Errorf("expected RxNorm fallback, got %q", got)
	}
	if got := prefixCode("RXNORM", "0"); got != "" {
		t.Errorf("expected empty for zero code, got %q", got)
	}
}
