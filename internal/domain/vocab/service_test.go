package vocab

import (
	"context"
	"fmt"
	"testing"
)

type mockRepo struct {
	options []*Option
	nextID  int
}

func newMockRepo() *mockRepo {
	return &mockRepo{nextID: 1}
}

func (m *mockRepo) FindByTitle(_ context.Context, listID, title string) (*Option, error) {
	for _, o := range m.options {
		if o.ListID == listID && o.Title == title {
			return o, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) FindByCodes(_ context.Context, listID, codes string) (*Option, error) {
	for _, o := range m.options {
		if o.ListID == listID && o.Codes == codes {
			return o, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) FindByNotes(_ context.Context, listID, notes string) (*Option, error) {
	for _, o := range m.options {
		if o.ListID == listID && o.Notes == notes {
			return o, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) Insert(_ context.Context, opt *Option) error {
	opt.OptionID = fmt.Sprintf("%d", m.nextID)
	m.nextID++
	m.options = append(m.options, opt)
	return nil
}

func (m *mockRepo) Activate(_ context.Context, listID, optionID string) error {
	for _, o := range m.options {
		if o.ListID == listID && o.OptionID == optionID {
			o.Activity = true
		}
	}
	return nil
}

func (m *mockRepo) List(_ context.Context, listID string) ([]*Option, error) {
	var out []*Option
	for _, o := range m.options {
		if o.ListID == listID {
			out = append(out, o)
		}
	}
	return out, nil
}

func TestEnsureOptionProvisionsOnce(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.EnsureOption(ctx, ListSeverity, "Moderate to severe", "SNOMED-CT:371924009")
	if err != nil {
		t.Fatalf("EnsureOption: %v", err)
	}
	if first == "" {
		t.Fatal("expected a provisioned option id")
	}

	second, err := svc.EnsureOption(ctx, ListSeverity, "Moderate to severe", "SNOMED-CT:371924009")
	if err != nil {
		t.Fatalf("EnsureOption second call: %v", err)
	}
	if second != first {
		t.Errorf("expected reuse of option %s, got %s", first, second)
	}
	if len(repo.options) != 1 {
		t.Errorf("expected exactly one provisioned option, got %d", len(repo.options))
	}
}

func TestEnsureOptionFindsByCodes(t *testing.T) {
	repo := newMockRepo()
	repo.options = append(repo.options, &Option{
		ListID: ListOutcome, OptionID: "7", Title: "Resolved", Codes: "SNOMED-CT:413322009", Activity: true,
	})
	svc := NewService(repo)

	id, err := svc.EnsureOption(context.Background(), ListOutcome, "", "SNOMED-CT:413322009")
	if err != nil {
		t.Fatalf("EnsureOption: %v", err)
	}
	if id != "7" {
		t.Errorf("expected option 7 via codes, got %q", id)
	}
}

func TestEnsureOptionEmptyInputsResolveEmpty(t *testing.T) {
	svc := NewService(newMockRepo())
	id, err := svc.EnsureOption(context.Background(), ListReaction, "", "")
	if err != nil {
		t.Fatalf("EnsureOption: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty option id, got %q", id)
	}
}

func TestEnsureOptionBareCodeDoesNotProvision(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	id, err := svc.EnsureOption(context.Background(), ListSeverity, "", "SNOMED-CT:24484000")
	if err != nil {
		t.Fatalf("EnsureOption: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty id for code with no display text, got %q", id)
	}
	if len(repo.options) != 0 {
		t.Errorf("expected no provisioned options, got %d", len(repo.options))
	}
}

func TestEnsureOptionReactivates(t *testing.T) {
	repo := newMockRepo()
	repo.options = append(repo.options, &Option{
		ListID: ListDrugForm, OptionID: "3", Title: "tablet", Activity: false,
	})
	svc := NewService(repo)

	id, err := svc.EnsureOption(context.Background(), ListDrugForm, "tablet", "")
	if err != nil {
		t.Fatalf("EnsureOption: %v", err)
	}
	if id != "3" {
		t.Errorf("expected existing option 3, got %q", id)
	}
	if !repo.options[0].Activity {
		t.Error("expected option reactivated")
	}
}

func TestEnsureRouteOptionKeyedByNotes(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	id, err := svc.EnsureRouteOption(ctx, "C38288", "Oral")
	if err != nil {
		t.Fatalf("EnsureRouteOption: %v", err)
	}
	if id == "" {
		t.Fatal("expected provisioned route option")
	}
	if repo.options[0].Notes != "C38288" || repo.options[0].Title != "Oral" {
		t.Errorf("unexpected provisioned route: %+v", repo.options[0])
	}

	again, err := svc.EnsureRouteOption(ctx, "C38288", "Oral")
	if err != nil {
		t.Fatalf("EnsureRouteOption second call: %v", err)
	}
	if again != id {
		t.Errorf("expected route reuse, got %s vs %s", again, id)
	}
}

func TestSnomedCode(t *testing.T) {
	if got := SnomedCode("371924009"); got != "SNOMED-CT:371924009" {
		t.Errorf("unexpected code %q", got)
	}
	if got := SnomedCode(""); got != "" {
		t.Errorf("expected empty passthrough, got %q", got)
	}
}
