package imports

import (
	"reflect"
	"testing"

	"github.com/ccdbridge/ccdbridge/internal/platform/ccda"
)

func sampleBundle() *ccda.Bundle {
	return &ccda.Bundle{
		DocType: ccda.DocTypeCCD,
		Patient: ccda.PatientFields{
			Fname: "Ana", Lname: "Mendes", DOB: "19800515", Sex: "Female",
			Pubpid: "MRN-100", City: "Salem", State: "MA",
		},
		Author:    ccda.AuthorFields{Family: "Ruiz", Given: "Carla", Time: "20210310"},
		Custodian: ccda.CustodianFields{Organization: "Community Health"},
		Problems: []ccda.ProblemFields{
			{Extension: "PRB-1", DiagnosisCode: "233604007", Title: "Pneumonia", Begdate: "20210310"},
			{Extension: "PRB-2", DiagnosisCode: "38341003", Title: "Hypertension", Begdate: "20190102"},
		},
		Medications: []ccda.MedicationFields{
			{Extension: "MED-1", DrugCode: "314076", DrugText: "Lisinopril 10mg", Begdate: "20190102"},
		},
		Vitals: []ccda.VitalsFields{
			{Extension: "VIT-1", Date: "20210310", Pulse: "72", BPS: "120", BPD: "80"},
		},
	}
}

func TestStageRoundTrip(t *testing.T) {
	b := sampleBundle()
	rows := Stage("audit-1", b)
	if len(rows) == 0 {
		t.Fatal("expected staged rows")
	}
	for _, r := range rows {
		if r.AuditID != "audit-1" {
			t.Fatalf("row missing audit id: %+v", r)
		}
		if r.Value == "" {
			t.Fatalf("empty value staged: %+v", r)
		}
	}

	got, err := ccda.DecodeBundle(b.DocType, Reassemble(rows))
	if err != nil {
		t.Fatalf("DecodeBundle: %v", err)
	}
	if !reflect.DeepEqual(got, b) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, b)
	}
}

func TestStagePreservesInstanceOrder(t *testing.T) {
	b := sampleBundle()
	rows := Stage("audit-1", b)

	got, err := ccda.DecodeBundle(b.DocType, Reassemble(rows))
	if err != nil {
		t.Fatalf("DecodeBundle: %v", err)
	}
	if len(got.Problems) != 2 || got.Problems[0].Extension != "PRB-1" || got.Problems[1].Extension != "PRB-2" {
		t.Errorf("problem order lost: %+v", got.Problems)
	}
}

func TestOrderedGroups(t *testing.T) {
	rows := Stage("audit-1", sampleBundle())
	groups := OrderedGroups(rows)

	problems := groups[ccda.TableProblems]
	if len(problems) != 2 {
		t.Fatalf("expected 2 problem instances, got %d", len(problems))
	}
	if problems[0]["extension"] != "PRB-1" || problems[1]["extension"] != "PRB-2" {
		t.Errorf("unexpected instance order: %v", problems)
	}
	if groups[ccda.TablePatient][0]["fname"] != "Ana" {
		t.Errorf("patient group missing: %v", groups[ccda.TablePatient])
	}
}
