package labs

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ccdbridge/ccdbridge/internal/platform/ccda"
)

type mockRepo struct {
	orders  []*Order
	codes   []*OrderCode
	reports []*Report
	results []*Result
}

func (m *mockRepo) CreateOrder(_ context.Context, o *Order) error {
	o.ID = uuid.New().String()
	m.orders = append(m.orders, o)
	return nil
}

func (m *mockRepo) FindOrderByExternalID(_ context.Context, patientID, externalID string) (*Order, error) {
	for _, o := range m.orders {
		if o.PatientID == patientID && o.ExternalID == externalID {
			return o, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) ClearOrder(_ context.Context, orderID string) error {
	var codes []*OrderCode
	for _, c := range m.codes {
		if c.OrderID != orderID {
			codes = append(codes, c)
		}
	}
	m.codes = codes

	reportIDs := map[string]bool{}
	var reports []*Report
	for _, rep := range m.reports {
		if rep.OrderID == orderID {
			reportIDs[rep.ID] = true
			continue
		}
		reports = append(reports, rep)
	}
	m.reports = reports

	var results []*Result
	for _, res := range m.results {
		if !reportIDs[res.ReportID] {
			results = append(results, res)
		}
	}
	m.results = results
	return nil
}

func (m *mockRepo) CreateOrderCode(_ context.Context, c *OrderCode) error {
	c.ID = uuid.New().String()
	m.codes = append(m.codes, c)
	return nil
}

func (m *mockRepo) CreateReport(_ context.Context, rep *Report) error {
	rep.ID = uuid.New().String()
	m.reports = append(m.reports, rep)
	return nil
}

func (m *mockRepo) CreateResult(_ context.Context, res *Result) error {
	res.ID = uuid.New().String()
	m.results = append(m.results, res)
	return nil
}

func (m *mockRepo) GetOrder(_ context.Context, orderID string) (*OrderView, error) {
	for _, o := range m.orders {
		if o.ID == orderID {
			return &OrderView{Order: o}, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) ListOrdersByPatient(_ context.Context, patientID string) ([]*Order, error) {
	var out []*Order
	for _, o := range m.orders {
		if o.PatientID == patientID {
			out = append(out, o)
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

type mockLabs struct {
	names []string
}

func (m *mockLabs) EnsureLab(_ context.Context, name string, qrda bool) (string, error) {
	if name == "" && qrda {
		name = "qrda-lab"
	} else if name == "" {
		name = "default-lab"
	}
	m.names = append(m.names, name)
	return "lab-" + name, nil
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

func cbcRows() []ccda.LabResultFields {
	return []ccda.LabResultFields{
		{
			ProcText: "CBC", ProcCode: "58410-2", Extension: "ORD-1", Date: "20210310",
			Status: "final", ResultText: "Hemoglobin", ResultCode: "718-7",
			ResultRange: "13.0-18.0 g/dL", ResultValue: "14.2", ResultUnit: "g/dL",
			ResultDate: "20210310",
		},
		{
			ProcText: "CBC", ProcCode: "58410-2", Extension: "ORD-1", Date: "20210310",
			Status: "final", ResultText: "Platelets", ResultCode: "777-3",
			ResultRange: "150-450", ResultValue: "250", ResultUnit: "10*3/uL",
			ResultDate: "20210310",
		},
	}
}

func TestUpsertAllFansOut(t *testing.T) {
	repo := &mockRepo{}
	charting := &mockCharting{}
	svc := NewService(repo, mockOptions{}, &mockLabs{}, charting)

	orders, err := svc.UpsertAll(context.Background(), "p1", cbcRows(), false)
	if err != nil {
		t.Fatalf("UpsertAll: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected one order, got %d", len(orders))
	}
	if len(repo.codes) != 1 || repo.codes[0].Code != "58410-2" {
		t.Errorf("unexpected order codes: %+v", repo.codes)
	}
	if len(repo.reports) != 1 {
		t.Errorf("expected one report, got %d", len(repo.reports))
	}
	if len(repo.results) != 2 {
		t.Errorf("expected two results, got %d", len(repo.results))
	}
	if repo.results[0].RangeLow != "13.0" || repo.results[0].RangeHigh != "18.0" {
		t.Errorf("unexpected range split: %+v", repo.results[0])
	}
	if charting.links != 1 {
		t.Errorf("expected one form link, got %d", charting.links)
	}
}

func TestUpsertAllRebuildsOnReimport(t *testing.T) {
	repo := &mockRepo{}
	charting := &mockCharting{}
	svc := NewService(repo, mockOptions{}, &mockLabs{}, charting)
	ctx := context.Background()

	if _, err := svc.UpsertAll(ctx, "p1", cbcRows(), false); err != nil {
		t.Fatalf("UpsertAll: %v", err)
	}
	if _, err := svc.UpsertAll(ctx, "p1", cbcRows(), false); err != nil {
		t.Fatalf("UpsertAll second call: %v", err)
	}
	if len(repo.orders) != 1 {
		t.Errorf("expected one order after re-import, got %d", len(repo.orders))
	}
	if len(repo.results) != 2 {
		t.Errorf("expected fan-out rebuilt, got %d results", len(repo.results))
	}
	if charting.links != 1 {
		t.Errorf("expected form linked once, got %d", charting.links)
	}
}

func TestUpsertAllGroupsByExtension(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, mockOptions{}, &mockLabs{}, &mockCharting{})

	rows := cbcRows()
	rows[1].Extension = "ORD-2"
	orders, err := svc.UpsertAll(context.Background(), "p1", rows, false)
	if err != nil {
		t.Fatalf("UpsertAll: %v", err)
	}
	if len(orders) != 2 || len(repo.reports) != 2 {
		t.Errorf("expected two orders, got %d orders %d reports", len(orders), len(repo.reports))
	}
}

func TestUpsertAllQRDALab(t *testing.T) {
	labs := &mockLabs{}
	svc := NewService(&mockRepo{}, mockOptions{}, labs, &mockCharting{})

	if _, err := svc.UpsertAll(context.Background(), "p1", cbcRows(), true); err != nil {
		t.Fatalf("UpsertAll: %v", err)
	}
	if len(labs.names) == 0 || labs.names[0] != "qrda-lab" {
		t.Errorf("expected quality-reporting lab fallback, got %v", labs.names)
	}
}

func TestSplitRange(t *testing.T) {
	cases := []struct {
		in, low, high string
	}{
		{"13.0-18.0 g/dL", "13.0", "18.0"},
		{"150-450", "150", "450"},
		{"negative", "", ""},
		{"", "", ""},
		{"-5", "", ""},
	}
	for _, c := range cases {
		low, high := splitRange(c.in)
		if low != c.low || high != c.high {
			t.Errorf("splitRange(%q) = %q, %q", c.in, low, high)
		}
	}
}
