package imports

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ccdbridge/ccdbridge/internal/domain/allergy"
	"github.com/ccdbridge/ccdbridge/internal/domain/careplan"
	"github.com/ccdbridge/ccdbridge/internal/domain/directory"
	"github.com/ccdbridge/ccdbridge/internal/domain/documents"
	"github.com/ccdbridge/ccdbridge/internal/domain/encounter"
	"github.com/ccdbridge/ccdbridge/internal/domain/history"
	"github.com/ccdbridge/ccdbridge/internal/domain/immunization"
	"github.com/ccdbridge/ccdbridge/internal/domain/labs"
	"github.com/ccdbridge/ccdbridge/internal/domain/medication"
	"github.com/ccdbridge/ccdbridge/internal/domain/patient"
	"github.com/ccdbridge/ccdbridge/internal/domain/problem"
	"github.com/ccdbridge/ccdbridge/internal/domain/procedure"
	"github.com/ccdbridge/ccdbridge/internal/domain/referral"
	"github.com/ccdbridge/ccdbridge/internal/domain/vitals"
	"github.com/ccdbridge/ccdbridge/internal/platform/ccda"
)

type stubMapper struct {
	bundle *ccda.Bundle
	err    error
}

func (m *stubMapper) Map(_ []byte) (*ccda.Bundle, error) {
	return m.bundle, m.err
}

type mockAudits struct {
	audits  map[string]*ImportAudit
	details []*ImportAuditDetail
	recs    []*MedReconciliation
}

func newMockAudits() *mockAudits {
	return &mockAudits{audits: make(map[string]*ImportAudit)}
}

func (m *mockAudits) CreateAudit(_ context.Context, a *ImportAudit) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	m.audits[a.ID] = a
	return nil
}

func (m *mockAudits) GetAudit(_ context.Context, id string) (*ImportAudit, error) {
	return m.audits[id], nil
}

func (m *mockAudits) ListAudits(_ context.Context, status, limit, offset int) ([]*ImportAudit, int, error) {
	var out []*ImportAudit
	for _, a := range m.audits {
		if status == 0 || a.Status == status {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockAudits) SetStatus(_ context.Context, id string, status int) error {
	if a := m.audits[id]; a != nil {
		a.Status = status
	}
	return nil
}

func (m *mockAudits) SetPatient(_ context.Context, id, patientID string) error {
	if a := m.audits[id]; a != nil {
		a.PatientID = patientID
	}
	return nil
}

func (m *mockAudits) CreateDetails(_ context.Context, rows []*ImportAuditDetail) error {
	m.details = append(m.details, rows...)
	return nil
}

func (m *mockAudits) ListDetails(_ context.Context, auditID string) ([]*ImportAuditDetail, error) {
	var out []*ImportAuditDetail
	for _, d := range m.details {
		if d.AuditID == auditID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockAudits) CreateReconciliation(_ context.Context, r *MedReconciliation) error {
	r.ID = uuid.New().String()
	m.recs = append(m.recs, r)
	return nil
}

type mockDocs struct {
	docs map[string]*documents.Document
}

func newMockDocs() *mockDocs {
	return &mockDocs{docs: make(map[string]*documents.Document)}
}

func (m *mockDocs) Create(_ context.Context, d *documents.Document) error {
	d.ID = uuid.New().String()
	m.docs[d.ID] = d
	return nil
}

func (m *mockDocs) SetPatient(_ context.Context, id, patientID string) error {
	if d := m.docs[id]; d != nil {
		d.PatientID = patientID
	}
	return nil
}

func (m *mockDocs) SetApprovalStatus(_ context.Context, id string, status int) error {
	if d := m.docs[id]; d != nil {
		d.ApprovalStatus = status
	}
	return nil
}

type mockPatients struct {
	ensured []patient.Demographics
	created bool
}

func (m *mockPatients) Ensure(_ context.Context, d patient.Demographics) (*patient.Patient, bool, error) {
	m.ensured = append(m.ensured, d)
	return &patient.Patient{ID: "p1", FirstName: d.FirstName, LastName: d.LastName}, m.created, nil
}

type mockEncounters struct {
	upserts []*encounter.Encounter
}

func (m *mockEncounters) Upsert(_ context.Context, e *encounter.Encounter) (*encounter.Encounter, error) {
	e.ID = uuid.New().String()
	m.upserts = append(m.upserts, e)
	return e, nil
}

func (m *mockEncounters) Resolve(_ context.Context, patientID, _ string) (*encounter.Encounter, error) {
	return &encounter.Encounter{ID: "enc-anchor", PatientID: patientID}, nil
}

type mockProblems struct{ fields []ccda.ProblemFields }

func (m *mockProblems) Upsert(_ context.Context, _ string, f ccda.ProblemFields) (*problem.Problem, error) {
	if f.DiagnosisCode == "" || f.DiagnosisCode == "0" {
		return nil, nil
	}
	m.fields = append(m.fields, f)
	return &problem.Problem{}, nil
}

type mockAllergies struct{ fields []ccda.AllergyFields }

func (m *mockAllergies) Upsert(_ context.Context, _ string, f ccda.AllergyFields) (*allergy.Allergy, error) {
	m.fields = append(m.fields, f)
	return &allergy.Allergy{}, nil
}

type mockMedications struct{ fields []ccda.MedicationFields }

func (m *mockMedications) Upsert(_ context.Context, _ string, f ccda.MedicationFields) (*medication.Medication, error) {
	m.fields = append(m.fields, f)
	return &medication.Medication{}, nil
}

type mockImmunizations struct{ fields []ccda.ImmunizationFields }

func (m *mockImmunizations) Upsert(_ context.Context, _ string, f ccda.ImmunizationFields) (*immunization.Immunization, error) {
	m.fields = append(m.fields, f)
	return &immunization.Immunization{}, nil
}

type mockVitals struct{ fields []ccda.VitalsFields }

func (m *mockVitals) Upsert(_ context.Context, _ string, f ccda.VitalsFields) (*vitals.Vitals, error) {
	m.fields = append(m.fields, f)
	return &vitals.Vitals{}, nil
}

type mockProcedures struct{ fields []ccda.ProcedureFields }

func (m *mockProcedures) Upsert(_ context.Context, _ string, f ccda.ProcedureFields) (*procedure.Procedure, error) {
	m.fields = append(m.fields, f)
	return &procedure.Procedure{}, nil
}

type mockLabs struct {
	rows []ccda.LabResultFields
	qrda bool
}

func (m *mockLabs) UpsertAll(_ context.Context, _ string, rows []ccda.LabResultFields, qrda bool) ([]*labs.Order, error) {
	m.rows = append(m.rows, rows...)
	m.qrda = qrda
	if len(rows) == 0 {
		return nil, nil
	}
	return []*labs.Order{{}}, nil
}

type mockCarePlans struct {
	plans    []ccda.CarePlanFields
	statuses []ccda.FunctionalStatusFields
}

func (m *mockCarePlans) UpsertPlan(_ context.Context, _ string, f ccda.CarePlanFields) (*careplan.CarePlan, error) {
	m.plans = append(m.plans, f)
	return &careplan.CarePlan{}, nil
}

func (m *mockCarePlans) UpsertStatus(_ context.Context, _ string, f ccda.FunctionalStatusFields) (*careplan.FunctionalStatus, error) {
	m.statuses = append(m.statuses, f)
	return &careplan.FunctionalStatus{}, nil
}

type mockReferrals struct{ fields []ccda.ReferralFields }

func (m *mockReferrals) Upsert(_ context.Context, _ string, f ccda.ReferralFields) (*referral.Referral, error) {
	m.fields = append(m.fields, f)
	return &referral.Referral{}, nil
}

type mockHistory struct{ fields []ccda.SocialHistoryFields }

func (m *mockHistory) Apply(_ context.Context, _ string, fields []ccda.SocialHistoryFields) (*history.SocialHistory, error) {
	m.fields = append(m.fields, fields...)
	if len(fields) == 0 {
		return nil, nil
	}
	return &history.SocialHistory{}, nil
}

type mockDirectory struct {
	providers  []directory.Provider
	facilities []string
}

func (m *mockDirectory) EnsureProvider(_ context.Context, p directory.Provider) (string, error) {
	m.providers = append(m.providers, p)
	return "prov-1", nil
}

func (m *mockDirectory) EnsureFacility(_ context.Context, name string) (string, error) {
	m.facilities = append(m.facilities, name)
	return "fac-1", nil
}

type testEnv struct {
	svc        *Service
	audits     *mockAudits
	docs       *mockDocs
	patients   *mockPatients
	encounters *mockEncounters
	problems   *mockProblems
	meds       *mockMedications
	labs       *mockLabs
	hist       *mockHistory
	dir        *mockDirectory
}

func newTestEnv(b *ccda.Bundle) *testEnv {
	env := &testEnv{
		audits:     newMockAudits(),
		docs:       newMockDocs(),
		patients:   &mockPatients{},
		encounters: &mockEncounters{},
		problems:   &mockProblems{},
		meds:       &mockMedications{},
		labs:       &mockLabs{},
		hist:       &mockHistory{},
		dir:        &mockDirectory{},
	}
	env.svc = NewService(Deps{
		Logger:        zerolog.Nop(),
		Mapper:        &stubMapper{bundle: b},
		Audits:        env.audits,
		Docs:          env.docs,
		Patients:      env.patients,
		Encounters:    env.encounters,
		Problems:      env.problems,
		Allergies:     &mockAllergies{},
		Medications:   env.meds,
		Immunizations: &mockImmunizations{},
		Vitals:        &mockVitals{},
		Procedures:    &mockProcedures{},
		Labs:          env.labs,
		CarePlans:     &mockCarePlans{},
		Referrals:     &mockReferrals{},
		History:       env.hist,
		Directory:     env.dir,
	})
	return env
}

func TestImportStagesPendingAudit(t *testing.T) {
	env := newTestEnv(sampleBundle())

	res, err := env.svc.ImportDocument(context.Background(), []byte("<doc/>"), ImportOptions{Name: "ccd.xml"})
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if res.Status != StatusPending || res.AuditID == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(env.audits.details) == 0 {
		t.Error("expected staged detail rows")
	}
	if len(env.patients.ensured) != 0 || len(env.problems.fields) != 0 {
		t.Error("staged import must not touch the chart")
	}
	if env.docs.docs[res.DocumentID] == nil {
		t.Error("expected stored document")
	}
}

func TestImportDirectApplies(t *testing.T) {
	env := newTestEnv(sampleBundle())
	env.patients.created = true

	res, err := env.svc.ImportDocument(context.Background(), []byte("<doc/>"), ImportOptions{Direct: true})
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if res.Status != StatusApproved || res.PatientID != "p1" || !res.NewPatient {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Counts["problems"] != 2 || res.Counts["medications"] != 1 || res.Counts["vitals"] != 1 {
		t.Errorf("unexpected counts: %v", res.Counts)
	}
	audit := env.audits.audits[res.AuditID]
	if audit == nil || audit.Status != StatusApproved || audit.PatientID != "p1" {
		t.Errorf("unexpected audit: %+v", audit)
	}
	doc := env.docs.docs[res.DocumentID]
	if doc.PatientID != "p1" || doc.ApprovalStatus != StatusApproved {
		t.Errorf("document mirror not updated: %+v", doc)
	}
	if len(env.audits.recs) != 1 || env.audits.recs[0].EncounterID != "enc-anchor" {
		t.Errorf("expected reconciliation row, got %+v", env.audits.recs)
	}
	if len(env.audits.details) != 0 {
		t.Error("direct import must not stage rows")
	}
}

func TestImportRejectsUnparseable(t *testing.T) {
	env := newTestEnv(nil)
	env.svc.d.Mapper = &stubMapper{err: errors.New("bad xml")}

	if _, err := env.svc.ImportDocument(context.Background(), []byte("junk"), ImportOptions{}); err == nil {
		t.Fatal("expected parse error")
	}
	if len(env.docs.docs) != 0 {
		t.Error("unparseable document must not be stored")
	}
}

func TestApproveAppliesStagedBundle(t *testing.T) {
	env := newTestEnv(sampleBundle())
	ctx := context.Background()

	staged, err := env.svc.ImportDocument(ctx, []byte("<doc/>"), ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}

	res, err := env.svc.Approve(ctx, staged.AuditID, nil)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if res.Status != StatusApproved || res.PatientID != "p1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(env.problems.fields) != 2 || env.problems.fields[0].Extension != "PRB-1" {
		t.Errorf("unexpected problems applied: %+v", env.problems.fields)
	}
	if env.docs.docs[staged.DocumentID].ApprovalStatus != StatusApproved {
		t.Error("document mirror not approved")
	}
	if len(env.audits.recs) != 1 {
		t.Errorf("expected one reconciliation row, got %d", len(env.audits.recs))
	}
}

func TestApproveRejectsNonPending(t *testing.T) {
	env := newTestEnv(sampleBundle())
	ctx := context.Background()

	staged, err := env.svc.ImportDocument(ctx, []byte("<doc/>"), ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if _, err := env.svc.Approve(ctx, staged.AuditID, nil); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := env.svc.Approve(ctx, staged.AuditID, nil); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestApproveUnknownAudit(t *testing.T) {
	env := newTestEnv(sampleBundle())
	if _, err := env.svc.Approve(context.Background(), "missing", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDiscardIsTerminal(t *testing.T) {
	env := newTestEnv(sampleBundle())
	ctx := context.Background()

	staged, err := env.svc.ImportDocument(ctx, []byte("<doc/>"), ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if err := env.svc.Discard(ctx, staged.AuditID); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if env.audits.audits[staged.AuditID].Status != StatusDiscarded {
		t.Error("audit not discarded")
	}
	if env.docs.docs[staged.DocumentID].ApprovalStatus != StatusDiscarded {
		t.Error("document mirror not discarded")
	}
	if _, err := env.svc.Approve(ctx, staged.AuditID, nil); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending after discard, got %v", err)
	}
	if len(env.patients.ensured) != 0 {
		t.Error("discarded import must not touch the chart")
	}
}

func TestApproveHonorsDecisions(t *testing.T) {
	env := newTestEnv(sampleBundle())
	ctx := context.Background()

	staged, err := env.svc.ImportDocument(ctx, []byte("<doc/>"), ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}

	form := &ApprovalForm{
		Demographics: map[string]string{"fname": "Anabel"},
		Problems:     []Decision{{Index: 0, Skip: true}, {Index: 1, Resolved: true}},
		Medications:  []Decision{{Index: 0, Discontinue: true}},
	}
	if _, err := env.svc.Approve(ctx, staged.AuditID, form); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if len(env.problems.fields) != 1 || env.problems.fields[0].Extension != "PRB-2" {
		t.Fatalf("expected only PRB-2 applied, got %+v", env.problems.fields)
	}
	if env.problems.fields[0].Resolved != "1" {
		t.Error("expected resolved marker on PRB-2")
	}
	if len(env.meds.fields) != 1 || env.meds.fields[0].Discontinue != "1" {
		t.Errorf("expected discontinued medication, got %+v", env.meds.fields)
	}
	if got := env.patients.ensured[0].FirstName; got != "Anabel" {
		t.Errorf("expected demographic override, got %q", got)
	}
}

func TestApplySetsQRDAFlagForLabs(t *testing.T) {
	b := sampleBundle()
	b.DocType = ccda.DocTypeQRDA
	b.LabResults = []ccda.LabResultFields{{Extension: "ORD-1", ProcCode: "57021-8", ResultValue: "13.1"}}
	env := newTestEnv(b)

	if _, err := env.svc.ImportDocument(context.Background(), []byte("<doc/>"), ImportOptions{Direct: true}); err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if !env.labs.qrda {
		t.Error("expected QRDA flag passed to lab fan-out")
	}
}

func TestApplyResolvesEncounterParties(t *testing.T) {
	b := sampleBundle()
	b.Encounters = []ccda.EncounterFields{{
		Extension:    "ENC-1",
		Date:         "20210310",
		ProviderNPI:  "1234567890",
		ProviderName: "Maria Del Carmen",
		FacilityName: "Community Hospital",
	}}
	env := newTestEnv(b)

	if _, err := env.svc.ImportDocument(context.Background(), []byte("<doc/>"), ImportOptions{Direct: true}); err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if len(env.encounters.upserts) != 1 {
		t.Fatalf("expected one encounter upsert, got %d", len(env.encounters.upserts))
	}
	e := env.encounters.upserts[0]
	if e.ProviderID != "prov-1" || e.FacilityID != "fac-1" || e.Date != "2021-03-10" {
		t.Errorf("unexpected encounter: %+v", e)
	}
	p := env.dir.providers[0]
	if p.FirstName != "Maria" || p.LastName != "Del Carmen" || p.NPI != "1234567890" {
		t.Errorf("unexpected provider: %+v", p)
	}
	if env.dir.facilities[0] != "Community Hospital" {
		t.Errorf("unexpected facility: %v", env.dir.facilities)
	}
}

func TestApplyResolvesPartiesWhenDocumentSilent(t *testing.T) {
	b := sampleBundle()
	b.Encounters = []ccda.EncounterFields{{Extension: "ENC-1", Date: "20210310"}}
	env := newTestEnv(b)

	if _, err := env.svc.ImportDocument(context.Background(), []byte("<doc/>"), ImportOptions{Direct: true}); err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	e := env.encounters.upserts[0]
	if e.ProviderID != "prov-1" || e.FacilityID != "fac-1" {
		t.Errorf("expected placeholder parties resolved, got %+v", e)
	}
	if len(env.dir.providers) != 1 || env.dir.providers[0].NPI != "" {
		t.Errorf("expected provider resolved without an NPI, got %+v", env.dir.providers)
	}
	if len(env.dir.facilities) != 1 || env.dir.facilities[0] != "" {
		t.Errorf("expected facility resolved without a name, got %v", env.dir.facilities)
	}
}
