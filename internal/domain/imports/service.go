package imports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
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
	"github.com/ccdbridge/ccdbridge/internal/platform/db"
)

var (
	ErrNotFound   = errors.New("import audit not found")
	ErrNotPending = errors.New("import audit is not pending")
)

// Mapper parses a raw document into the flat bundle form.
type Mapper interface {
	Map(xmlData []byte) (*ccda.Bundle, error)
}

// DocumentStore persists the raw uploaded documents and mirrors the audit's
// approval status onto them.
type DocumentStore interface {
	Create(ctx context.Context, d *documents.Document) error
	SetPatient(ctx context.Context, id, patientID string) error
	SetApprovalStatus(ctx context.Context, id string, status int) error
}

// TxRunner wraps a unit of work in a transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type PatientEnsurer interface {
	Ensure(ctx context.Context, d patient.Demographics) (*patient.Patient, bool, error)
}

type EncounterWriter interface {
	Upsert(ctx context.Context, e *encounter.Encounter) (*encounter.Encounter, error)
	Resolve(ctx context.Context, patientID, date string) (*encounter.Encounter, error)
}

type ProblemWriter interface {
	Upsert(ctx context.Context, patientID string, f ccda.ProblemFields) (*problem.Problem, error)
}

type AllergyWriter interface {
	Upsert(ctx context.Context, patientID string, f ccda.AllergyFields) (*allergy.Allergy, error)
}

type MedicationWriter interface {
	Upsert(ctx context.Context, patientID string, f ccda.MedicationFields) (*medication.Medication, error)
}

type ImmunizationWriter interface {
	Upsert(ctx context.Context, patientID string, f ccda.ImmunizationFields) (*immunization.Immunization, error)
}

type VitalsWriter interface {
	Upsert(ctx context.Context, patientID string, f ccda.VitalsFields) (*vitals.Vitals, error)
}

type ProcedureWriter interface {
	Upsert(ctx context.Context, patientID string, f ccda.ProcedureFields) (*procedure.Procedure, error)
}

type LabWriter interface {
	UpsertAll(ctx context.Context, patientID string, rows []ccda.LabResultFields, qrda bool) ([]*labs.Order, error)
}

type CarePlanWriter interface {
	UpsertPlan(ctx context.Context, patientID string, f ccda.CarePlanFields) (*careplan.CarePlan, error)
	UpsertStatus(ctx context.Context, patientID string, f ccda.FunctionalStatusFields) (*careplan.FunctionalStatus, error)
}

type ReferralWriter interface {
	Upsert(ctx context.Context, patientID string, f ccda.ReferralFields) (*referral.Referral, error)
}

type HistoryApplier interface {
	Apply(ctx context.Context, patientID string, fields []ccda.SocialHistoryFields) (*history.SocialHistory, error)
}

type DirectoryResolver interface {
	EnsureProvider(ctx context.Context, p directory.Provider) (string, error)
	EnsureFacility(ctx context.Context, name string) (string, error)
}

// Deps wires the orchestrator to the mapper, the stores and every record
// service it fans out to. Tx defaults to a database transaction when Pool is
// set and to a passthrough otherwise.
type Deps struct {
	Pool   *pgxpool.Pool
	Logger zerolog.Logger

	Mapper Mapper
	Audits Repository
	Docs   DocumentStore

	Patients      PatientEnsurer
	Encounters    EncounterWriter
	Problems      ProblemWriter
	Allergies     AllergyWriter
	Medications   MedicationWriter
	Immunizations ImmunizationWriter
	Vitals        VitalsWriter
	Procedures    ProcedureWriter
	Labs          LabWriter
	CarePlans     CarePlanWriter
	Referrals     ReferralWriter
	History       HistoryApplier
	Directory     DirectoryResolver

	Tx TxRunner
}

// Service runs the document import pipeline: parse, stage for review or
// apply directly, then approve or discard staged audits.
type Service struct {
	d Deps
}

func NewService(d Deps) *Service {
	if d.Mapper == nil {
		d.Mapper = ccda.NewMapper()
	}
	if d.Tx == nil {
		if pool := d.Pool; pool != nil {
			d.Tx = func(ctx context.Context, fn func(ctx context.Context) error) error {
				return db.WithTx(ctx, pool, fn)
			}
		} else {
			d.Tx = func(ctx context.Context, fn func(ctx context.Context) error) error {
				return fn(ctx)
			}
		}
	}
	return &Service{d: d}
}

// ImportOptions control one upload. Direct skips review and writes the
// chart immediately.
type ImportOptions struct {
	Name     string
	Direct   bool
	SourceIP string
}

// ImportResult reports what an upload produced. PatientID and Counts are
// set only once the document has been applied.
type ImportResult struct {
	AuditID    string         `json:"audit_id"`
	DocumentID string         `json:"document_id"`
	DocType    string         `json:"doc_type"`
	Status     int            `json:"status"`
	PatientID  string         `json:"patient_id,omitempty"`
	NewPatient bool           `json:"new_patient,omitempty"`
	Counts     map[string]int `json:"counts,omitempty"`
}

// ImportDocument parses an uploaded document, stores the raw payload and
// either stages it for review or applies it to the chart directly.
func (s *Service) ImportDocument(ctx context.Context, content []byte, opts ImportOptions) (*ImportResult, error) {
	b, err := s.d.Mapper.Map(content)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	doc := &documents.Document{
		Name:     opts.Name,
		Type:     b.DocType,
		MimeType: "application/xml",
		Content:  content,
	}
	if err := s.d.Docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	audit := &ImportAudit{
		DocumentID: doc.ID,
		Type:       AuditTypeImport,
		DocType:    b.DocType,
		Status:     StatusPending,
		SourceIP:   opts.SourceIP,
	}

	if opts.Direct {
		audit.Status = StatusApproved
		var res *applyResult
		err := s.d.Tx(ctx, func(ctx context.Context) error {
			var err error
			if res, err = s.apply(ctx, b); err != nil {
				return err
			}
			audit.PatientID = res.patientID
			if err := s.d.Audits.CreateAudit(ctx, audit); err != nil {
				return err
			}
			return s.finishApproval(ctx, audit, res)
		})
		if err != nil {
			return nil, err
		}
		s.d.Logger.Info().Str("audit_id", audit.ID).Str("patient_id", res.patientID).
			Str("doc_type", b.DocType).Msg("document imported directly")
		return &ImportResult{
			AuditID:    audit.ID,
			DocumentID: doc.ID,
			DocType:    b.DocType,
			Status:     audit.Status,
			PatientID:  res.patientID,
			NewPatient: res.patientCreated,
			Counts:     res.counts,
		}, nil
	}

	if err := s.d.Audits.CreateAudit(ctx, audit); err != nil {
		return nil, fmt.Errorf("create audit: %w", err)
	}
	if err := s.d.Audits.CreateDetails(ctx, Stage(audit.ID, b)); err != nil {
		return nil, fmt.Errorf("stage document: %w", err)
	}
	s.d.Logger.Info().Str("audit_id", audit.ID).Str("doc_type", b.DocType).
		Msg("document staged for review")
	return &ImportResult{
		AuditID:    audit.ID,
		DocumentID: doc.ID,
		DocType:    b.DocType,
		Status:     audit.Status,
	}, nil
}

// Approve decodes a pending audit's staged rows, applies the reviewer's
// decisions and writes the chart in one transaction. Approved audits are
// terminal; calling Approve again returns ErrNotPending.
func (s *Service) Approve(ctx context.Context, auditID string, form *ApprovalForm) (*ImportResult, error) {
	audit, err := s.d.Audits.GetAudit(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if audit == nil {
		return nil, ErrNotFound
	}
	if audit.Status != StatusPending {
		return nil, ErrNotPending
	}

	details, err := s.d.Audits.ListDetails(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("load staged rows: %w", err)
	}
	b, err := ccda.DecodeBundle(audit.DocType, Reassemble(details))
	if err != nil {
		return nil, fmt.Errorf("decode staged rows: %w", err)
	}
	if err := applyForm(b, form); err != nil {
		return nil, fmt.Errorf("apply review decisions: %w", err)
	}

	var res *applyResult
	err = s.d.Tx(ctx, func(ctx context.Context) error {
		var err error
		if res, err = s.apply(ctx, b); err != nil {
			return err
		}
		audit.PatientID = res.patientID
		audit.Status = StatusApproved
		if err := s.d.Audits.SetPatient(ctx, audit.ID, res.patientID); err != nil {
			return err
		}
		if err := s.d.Audits.SetStatus(ctx, audit.ID, StatusApproved); err != nil {
			return err
		}
		return s.finishApproval(ctx, audit, res)
	})
	if err != nil {
		return nil, err
	}

	s.d.Logger.Info().Str("audit_id", audit.ID).Str("patient_id", res.patientID).
		Msg("import approved")
	return &ImportResult{
		AuditID:    audit.ID,
		DocumentID: audit.DocumentID,
		DocType:    audit.DocType,
		Status:     StatusApproved,
		PatientID:  res.patientID,
		NewPatient: res.patientCreated,
		Counts:     res.counts,
	}, nil
}

// Discard marks a pending audit rejected. The staged rows stay for audit
// trail purposes but the chart is never touched.
func (s *Service) Discard(ctx context.Context, auditID string) error {
	audit, err := s.d.Audits.GetAudit(ctx, auditID)
	if err != nil {
		return err
	}
	if audit == nil {
		return ErrNotFound
	}
	if audit.Status != StatusPending {
		return ErrNotPending
	}

	err = s.d.Tx(ctx, func(ctx context.Context) error {
		if err := s.d.Audits.SetStatus(ctx, audit.ID, StatusDiscarded); err != nil {
			return err
		}
		return s.d.Docs.SetApprovalStatus(ctx, audit.DocumentID, StatusDiscarded)
	})
	if err != nil {
		return err
	}
	s.d.Logger.Info().Str("audit_id", audit.ID).Msg("import discarded")
	return nil
}

func (s *Service) Get(ctx context.Context, auditID string) (*ImportAudit, []*ImportAuditDetail, error) {
	audit, err := s.d.Audits.GetAudit(ctx, auditID)
	if err != nil {
		return nil, nil, err
	}
	if audit == nil {
		return nil, nil, ErrNotFound
	}
	details, err := s.d.Audits.ListDetails(ctx, auditID)
	if err != nil {
		return nil, nil, err
	}
	return audit, details, nil
}

func (s *Service) List(ctx context.Context, status int, limit, offset int) ([]*ImportAudit, int, error) {
	return s.d.Audits.ListAudits(ctx, status, limit, offset)
}

// finishApproval mirrors the approval onto the document row and records the
// reconciliation anchor.
func (s *Service) finishApproval(ctx context.Context, audit *ImportAudit, res *applyResult) error {
	if err := s.d.Docs.SetPatient(ctx, audit.DocumentID, res.patientID); err != nil {
		return err
	}
	if err := s.d.Docs.SetApprovalStatus(ctx, audit.DocumentID, StatusApproved); err != nil {
		return err
	}
	return s.d.Audits.CreateReconciliation(ctx, &MedReconciliation{
		PatientID:   res.patientID,
		EncounterID: res.encounterID,
		AuditID:     audit.ID,
	})
}

type applyResult struct {
	patientID      string
	patientCreated bool
	encounterID    string
	counts         map[string]int
}

// apply writes one decoded bundle into the chart. Sections whose services
// skip unusable entries simply do not count them.
func (s *Service) apply(ctx context.Context, b *ccda.Bundle) (*applyResult, error) {
	p, created, err := s.d.Patients.Ensure(ctx, demographics(b.Patient))
	if err != nil {
		return nil, fmt.Errorf("ensure patient: %w", err)
	}
	counts := make(map[string]int)

	for _, f := range b.Encounters {
		e := &encounter.Encounter{
			PatientID:     p.ID,
			ExternalID:    f.Extension,
			Date:          ccda.StorageDate(f.Date),
			DiagnosisCode: f.DiagnosisCode,
			DiagnosisText: f.DiagnosisIssue,
		}
		// Resolve even when the document named nobody; the directory
		// substitutes its placeholder identities.
		first, last := splitName(f.ProviderName)
		e.ProviderID, err = s.d.Directory.EnsureProvider(ctx, directory.Provider{
			NPI:       f.ProviderNPI,
			FirstName: first,
			LastName:  last,
			Street:    f.ProviderAddress,
			City:      f.ProviderCity,
			State:     f.ProviderState,
			Zip:       f.ProviderPostalCode,
		})
		if err != nil {
			return nil, fmt.Errorf("encounter provider: %w", err)
		}
		e.FacilityID, err = s.d.Directory.EnsureFacility(ctx, f.FacilityName)
		if err != nil {
			return nil, fmt.Errorf("encounter facility: %w", err)
		}
		if _, err := s.d.Encounters.Upsert(ctx, e); err != nil {
			return nil, err
		}
		counts["encounters"]++
	}

	for _, f := range b.Problems {
		rec, err := s.d.Problems.Upsert(ctx, p.ID, f)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			counts["problems"]++
		}
	}
	for _, f := range b.Allergies {
		rec, err := s.d.Allergies.Upsert(ctx, p.ID, f)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			counts["allergies"]++
		}
	}
	for _, f := range b.Medications {
		rec, err := s.d.Medications.Upsert(ctx, p.ID, f)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			counts["medications"]++
		}
	}
	for _, f := range b.Immunizations {
		rec, err := s.d.Immunizations.Upsert(ctx, p.ID, f)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			counts["immunizations"]++
		}
	}
	for _, f := range b.Vitals {
		rec, err := s.d.Vitals.Upsert(ctx, p.ID, f)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			counts["vitals"]++
		}
	}
	for _, f := range b.Procedures {
		rec, err := s.d.Procedures.Upsert(ctx, p.ID, f)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			counts["procedures"]++
		}
	}
	for _, f := range b.CarePlans {
		rec, err := s.d.CarePlans.UpsertPlan(ctx, p.ID, f)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			counts["care_plans"]++
		}
	}
	for _, f := range b.FunctionalStatuses {
		rec, err := s.d.CarePlans.UpsertStatus(ctx, p.ID, f)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			counts["functional_statuses"]++
		}
	}
	for _, f := range b.Referrals {
		rec, err := s.d.Referrals.Upsert(ctx, p.ID, f)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			counts["referrals"]++
		}
	}

	orders, err := s.d.Labs.UpsertAll(ctx, p.ID, b.LabResults, b.DocType == ccda.DocTypeQRDA)
	if err != nil {
		return nil, err
	}
	if len(orders) > 0 {
		counts["lab_orders"] = len(orders)
	}

	hist, err := s.d.History.Apply(ctx, p.ID, b.SocialHistories)
	if err != nil {
		return nil, err
	}
	if hist != nil {
		counts["social_history"] = 1
	}

	// Anchor the reconciliation on the visit the import charted under.
	anchor, err := s.d.Encounters.Resolve(ctx, p.ID, "")
	if err != nil {
		return nil, fmt.Errorf("resolve reconciliation encounter: %w", err)
	}

	return &applyResult{
		patientID:      p.ID,
		patientCreated: created,
		encounterID:    anchor.ID,
		counts:         counts,
	}, nil
}

// applyForm folds the reviewer's decisions into the decoded bundle before it
// is applied.
func applyForm(b *ccda.Bundle, form *ApprovalForm) error {
	if form == nil {
		return nil
	}
	if err := ccda.OverridePatient(&b.Patient, form.Demographics); err != nil {
		return err
	}

	b.Problems = filterSection(b.Problems, form.Problems, func(f *ccda.ProblemFields, d Decision) {
		if d.Resolved {
			f.Resolved = "1"
		}
	})
	b.Allergies = filterSection(b.Allergies, form.Allergies, func(f *ccda.AllergyFields, d Decision) {
		if d.Resolved {
			f.Resolved = "1"
		}
	})
	b.Medications = filterSection(b.Medications, form.Medications, func(f *ccda.MedicationFields, d Decision) {
		if d.Discontinue {
			f.Discontinue = "1"
		}
	})
	b.Immunizations = filterSection(b.Immunizations, form.Immunizations, nil)
	b.Encounters = filterSection(b.Encounters, form.Encounters, nil)
	b.Vitals = filterSection(b.Vitals, form.Vitals, nil)
	b.Procedures = filterSection(b.Procedures, form.Procedures, nil)
	b.LabResults = filterSection(b.LabResults, form.LabResults, nil)
	b.CarePlans = filterSection(b.CarePlans, form.CarePlans, nil)
	b.FunctionalStatuses = filterSection(b.FunctionalStatuses, form.FunctionalStatuses, nil)
	b.Referrals = filterSection(b.Referrals, form.Referrals, nil)
	return nil
}

func filterSection[T any](items []T, decisions []Decision, mark func(*T, Decision)) []T {
	if len(decisions) == 0 {
		return items
	}
	byIndex := make(map[int]Decision, len(decisions))
	for _, d := range decisions {
		byIndex[d.Index] = d
	}
	out := make([]T, 0, len(items))
	for i := range items {
		d, ok := byIndex[i]
		if ok && d.Skip {
			continue
		}
		if ok && mark != nil {
			mark(&items[i], d)
		}
		out = append(out, items[i])
	}
	return out
}

func demographics(f ccda.PatientFields) patient.Demographics {
	return patient.Demographics{
		Pubpid:      f.Pubpid,
		SS:          f.SS,
		FirstName:   f.Fname,
		LastName:    f.Lname,
		DOB:         ccda.StorageDate(f.DOB),
		Sex:         f.Sex,
		Street:      f.Street,
		City:        f.City,
		State:       f.State,
		PostalCode:  f.PostalCode,
		CountryCode: f.CountryCode,
		PhoneHome:   f.PhoneHome,
		Status:      f.Status,
		Religion:    f.Religion,
		Race:        f.Race,
		Ethnicity:   f.Ethnicity,
	}
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
