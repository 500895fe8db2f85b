package ccda

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Entity group names used for staging. Problems, allergies and medications
// keep their historical list table names so staged imports remain readable
// next to data imported by older systems.
const (
	TablePatient          = "patient_data"
	TableAuthor           = "author"
	TableDataEnterer      = "data_enterer"
	TableInformant        = "informant"
	TableCustodian        = "custodian"
	TableDocumentationOf  = "documentation_of"
	TableImmunization     = "immunization"
	TableProblems         = "lists1"
	TableAllergies        = "lists2"
	TableMedications      = "lists3"
	TableEncounter        = "encounter"
	TableVitals           = "vital_sign"
	TableSocialHistory    = "social_history"
	TableProcedure        = "procedure"
	TableLabResult        = "procedure_result"
	TableCarePlan         = "care_plan"
	TableFunctionalStatus = "functional_cognitive_status"
	TableReferral         = "referral"
)

// DocTypeCCD and DocTypeQRDA discriminate the two supported document kinds.
const (
	DocTypeCCD  = "ccd"
	DocTypeQRDA = "qrda"
)

// Bundle is the flat intermediate representation produced by the Mapper.
// Every field is a string taken from the document; dates stay in HL7 compact
// form until reconciliation so the staged and direct paths convert through
// the same helper.
type Bundle struct {
	DocType         string
	Patient         PatientFields
	Author          AuthorFields
	DataEnterer     ContactFields
	Informant       ContactFields
	Custodian       CustodianFields
	DocumentationOf string

	Problems           []ProblemFields
	Allergies          []AllergyFields
	Medications        []MedicationFields
	Immunizations      []ImmunizationFields
	Encounters         []EncounterFields
	Vitals             []VitalsFields
	SocialHistories    []SocialHistoryFields
	Procedures         []ProcedureFields
	LabResults         []LabResultFields
	CarePlans          []CarePlanFields
	FunctionalStatuses []FunctionalStatusFields
	Referrals          []ReferralFields
}

type PatientFields struct {
	Fname       string `stage:"fname"`
	Lname       string `stage:"lname"`
	DOB         string `stage:"DOB"`
	Sex         string `stage:"sex"`
	Pubpid      string `stage:"pubpid"`
	SS          string `stage:"ss"`
	Street      string `stage:"street"`
	City        string `stage:"city"`
	State       string `stage:"state"`
	PostalCode  string `stage:"postal_code"`
	CountryCode string `stage:"country_code"`
	PhoneHome   string `stage:"phone_home"`
	Status      string `stage:"status"`
	Religion    string `stage:"religion"`
	Race        string `stage:"race"`
	Ethnicity   string `stage:"ethnicity"`
}

type AuthorFields struct {
	Extension  string `stage:"extension"`
	Address    string `stage:"address"`
	City       string `stage:"city"`
	State      string `stage:"state"`
	PostalCode string `stage:"postalCode"`
	Country    string `stage:"country"`
	Phone      string `stage:"phone"`
	Given      string `stage:"name_given"`
	Family     string `stage:"name_family"`
	Time       string `stage:"time"`
}

type ContactFields struct {
	Extension  string `stage:"extension"`
	Address    string `stage:"address"`
	City       string `stage:"city"`
	State      string `stage:"state"`
	PostalCode string `stage:"postalCode"`
	Country    string `stage:"country"`
	Phone      string `stage:"phone"`
	Given      string `stage:"name_given"`
	Family     string `stage:"name_family"`
}

type CustodianFields struct {
	Organization string `stage:"organization"`
	Address      string `stage:"address"`
	City         string `stage:"city"`
	State        string `stage:"state"`
	PostalCode   string `stage:"postalCode"`
	Country      string `stage:"country"`
	Phone        string `stage:"phone"`
}

type ProblemFields struct {
	Extension       string `stage:"extension"`
	Root            string `stage:"root"`
	Begdate         string `stage:"begdate"`
	Enddate         string `stage:"enddate"`
	DiagnosisCode   string `stage:"diagnosis"`
	Title           string `stage:"title"`
	Status          string `stage:"activity"`
	Observation     string `stage:"observation"`
	ObservationText string `stage:"observation_text"`
	Resolved        string `stage:"resolved"`
}

type AllergyFields struct {
	Extension      string `stage:"extension"`
	Begdate        string `stage:"begdate"`
	Enddate        string `stage:"enddate"`
	Code           string `stage:"diagnosis"`
	Title          string `stage:"title"`
	Severity       string `stage:"severity_al"`
	Status         string `stage:"activity"`
	Reaction       string `stage:"reaction"`
	ReactionText   string `stage:"reaction_text"`
	CodeSystemName string `stage:"codeSystemName"`
	Outcome        string `stage:"outcome"`
	Resolved       string `stage:"resolved"`
}

type MedicationFields struct {
	Extension    string `stage:"extension"`
	Root         string `stage:"root"`
	Begdate      string `stage:"begdate"`
	Enddate      string `stage:"enddate"`
	Route        string `stage:"route"`
	RouteDisplay string `stage:"route_display"`
	Note         string `stage:"note"`
	Indication   string `stage:"indication"`
	Dose         string `stage:"dose"`
	DoseUnit     string `stage:"dose_unit"`
	Rate         string `stage:"rate"`
	RateUnit     string `stage:"rate_unit"`
	DrugCode     string `stage:"drugcode"`
	DrugText     string `stage:"drug"`
	PRN          string `stage:"prn"`
	Discontinue  string `stage:"discontinue"`

	ProviderNPI        string `stage:"provider_npi"`
	ProviderTitle      string `stage:"provider_title"`
	ProviderFname      string `stage:"provider_fname"`
	ProviderLname      string `stage:"provider_lname"`
	ProviderAddress    string `stage:"provider_address"`
	ProviderCity       string `stage:"provider_city"`
	ProviderState      string `stage:"provider_state"`
	ProviderPostalCode string `stage:"provider_postalCode"`
	ProviderCountry    string `stage:"provider_country"`
	ProviderRoot       string `stage:"provider_root"`
}

type ImmunizationFields struct {
	Extension        string `stage:"extension"`
	Root             string `stage:"root"`
	AdministeredDate string `stage:"administered_date"`
	RouteCode        string `stage:"route_code"`
	RouteText        string `stage:"route_code_text"`
	CVXCode          string `stage:"cvx_code"`
	CVXText          string `stage:"cvx_code_text"`
	Amount           string `stage:"amount_administered"`
	AmountUnit       string `stage:"amount_administered_unit"`
	Manufacturer     string `stage:"manufacturer"`
	CompletionStatus string `stage:"completion_status"`

	ProviderNPI        string `stage:"provider_npi"`
	ProviderName       string `stage:"provider_name"`
	ProviderAddress    string `stage:"provider_address"`
	ProviderCity       string `stage:"provider_city"`
	ProviderState      string `stage:"provider_state"`
	ProviderPostalCode string `stage:"provider_postalCode"`
	ProviderCountry    string `stage:"provider_country"`
	ProviderTelecom    string `stage:"provider_telecom"`
	Organization       string `stage:"represented_organization"`
	OrganizationTele   string `stage:"represented_organization_tele"`
}

type EncounterFields struct {
	Extension string `stage:"extension"`
	Root      string `stage:"root"`
	Date      string `stage:"date"`

	ProviderNPI        string `stage:"provider_npi"`
	ProviderName       string `stage:"provider_name"`
	ProviderAddress    string `stage:"provider_address"`
	ProviderCity       string `stage:"provider_city"`
	ProviderState      string `stage:"provider_state"`
	ProviderPostalCode string `stage:"provider_postalCode"`
	ProviderCountry    string `stage:"provider_country"`

	FacilityName    string `stage:"represented_organization_name"`
	FacilityAddress string `stage:"represented_organization_address"`
	FacilityCity    string `stage:"represented_organization_city"`
	FacilityState   string `stage:"represented_organization_state"`
	FacilityZip     string `stage:"represented_organization_zip"`
	FacilityCountry string `stage:"represented_organization_country"`
	FacilityTelecom string `stage:"represented_organization_telecom"`

	DiagnosisDate  string `stage:"encounter_diagnosis_date"`
	DiagnosisCode  string `stage:"encounter_diagnosis_code"`
	DiagnosisIssue string `stage:"encounter_diagnosis_issue"`
}

type VitalsFields struct {
	Extension        string `stage:"extension"`
	Date             string `stage:"date"`
	Temperature      string `stage:"temperature"`
	BPD              string `stage:"bpd"`
	BPS              string `stage:"bps"`
	HeadCirc         string `stage:"head_circ"`
	Pulse            string `stage:"pulse"`
	Height           string `stage:"height"`
	OxygenSaturation string `stage:"oxygen_saturation"`
	Respiration      string `stage:"respiration"`
	Weight           string `stage:"weight"`
}

type SocialHistoryFields struct {
	TobaccoNote   string `stage:"tobacco_note"`
	TobaccoStatus string `stage:"tobacco_status"`
	TobaccoDate   string `stage:"tobacco_date"`
	TobaccoSNOMED string `stage:"tobacco_snomed"`
	AlcoholNote   string `stage:"alcohol_note"`
	AlcoholStatus string `stage:"alcohol_status"`
	AlcoholDate   string `stage:"alcohol_date"`
}

type ProcedureFields struct {
	Extension      string `stage:"extension"`
	Root           string `stage:"root"`
	CodeSystemName string `stage:"codeSystemName"`
	Code           string `stage:"code"`
	CodeText       string `stage:"code_text"`
	Date           string `stage:"date"`

	Organization1           string `stage:"represented_organization1"`
	OrganizationAddress1    string `stage:"represented_organization_address1"`
	OrganizationCity1       string `stage:"represented_organization_city1"`
	OrganizationState1      string `stage:"represented_organization_state1"`
	OrganizationPostalCode1 string `stage:"represented_organization_postalcode1"`
	OrganizationCountry1    string `stage:"represented_organization_country1"`
	OrganizationTelecom1    string `stage:"represented_organization_telecom1"`

	Organization2           string `stage:"represented_organization2"`
	OrganizationAddress2    string `stage:"represented_organization_address2"`
	OrganizationCity2       string `stage:"represented_organization_city2"`
	OrganizationState2      string `stage:"represented_organization_state2"`
	OrganizationPostalCode2 string `stage:"represented_organization_postalcode2"`
	OrganizationCountry2    string `stage:"represented_organization_country2"`
}

// LabResultFields is one flat result row; rows sharing an extension group
// into a single order before the multi-table fan-out.
type LabResultFields struct {
	ProcText    string `stage:"proc_text"`
	ProcCode    string `stage:"proc_code"`
	Extension   string `stage:"extension"`
	Date        string `stage:"date"`
	Status      string `stage:"status"`
	ResultText  string `stage:"result"`
	ResultCode  string `stage:"result_code"`
	ResultRange string `stage:"result_range"`
	ResultValue string `stage:"result_value"`
	ResultUnit  string `stage:"result_unit"`
	ResultDate  string `stage:"result_date"`
}

type CarePlanFields struct {
	Extension   string `stage:"extension"`
	Root        string `stage:"root"`
	Text        string `stage:"text"`
	Code        string `stage:"code"`
	Description string `stage:"description"`
	Date        string `stage:"date"`
}

type FunctionalStatusFields struct {
	Extension   string `stage:"extension"`
	Root        string `stage:"root"`
	Text        string `stage:"text"`
	Code        string `stage:"code"`
	Date        string `stage:"date"`
	Description string `stage:"description"`
}

type ReferralFields struct {
	Root string `stage:"root"`
	Body string `stage:"body"`
}

// Groups flattens the bundle into staging form: entity name -> ordered field
// maps, one per instance. Header groups stage as instance zero.
func (b *Bundle) Groups() map[string][]map[string]string {
	g := map[string][]map[string]string{
		TablePatient:   {encodeStage(b.Patient)},
		TableAuthor:    {encodeStage(b.Author)},
		TableCustodian: {encodeStage(b.Custodian)},
	}
	if b.DataEnterer != (ContactFields{}) {
		g[TableDataEnterer] = []map[string]string{encodeStage(b.DataEnterer)}
	}
	if b.Informant != (ContactFields{}) {
		g[TableInformant] = []map[string]string{encodeStage(b.Informant)}
	}
	if b.DocumentationOf != "" {
		g[TableDocumentationOf] = []map[string]string{{"assignedPerson": b.DocumentationOf}}
	}

	for _, p := range b.Problems {
		g[TableProblems] = append(g[TableProblems], encodeStage(p))
	}
	for _, a := range b.Allergies {
		g[TableAllergies] = append(g[TableAllergies], encodeStage(a))
	}
	for _, m := range b.Medications {
		g[TableMedications] = append(g[TableMedications], encodeStage(m))
	}
	for _, e := range b.Encounters {
		g[TableEncounter] = append(g[TableEncounter], encodeStage(e))
	}
	for _, v := range b.Vitals {
		g[TableVitals] = append(g[TableVitals], encodeStage(v))
	}
	for _, s := range b.SocialHistories {
		g[TableSocialHistory] = append(g[TableSocialHistory], encodeStage(s))
	}
	for _, p := range b.Procedures {
		g[TableProcedure] = append(g[TableProcedure], encodeStage(p))
	}
	for _, r := range b.LabResults {
		g[TableLabResult] = append(g[TableLabResult], encodeStage(r))
	}
	for _, c := range b.CarePlans {
		g[TableCarePlan] = append(g[TableCarePlan], encodeStage(c))
	}
	for _, f := range b.FunctionalStatuses {
		g[TableFunctionalStatus] = append(g[TableFunctionalStatus], encodeStage(f))
	}
	for _, r := range b.Referrals {
		g[TableReferral] = append(g[TableReferral], encodeStage(r))
	}
	for _, im := range b.Immunizations {
		g[TableImmunization] = append(g[TableImmunization], encodeStage(im))
	}
	return g
}

// DecodeBundle rebuilds a Bundle from reassembled staged groups
// (entity name -> instance index -> field -> value).
func DecodeBundle(docType string, groups map[string]map[int]map[string]string) (*Bundle, error) {
	b := &Bundle{DocType: docType}

	if err := decodeSingle(groups[TablePatient], &b.Patient); err != nil {
		return nil, fmt.Errorf("decode patient: %w", err)
	}
	if err := decodeSingle(groups[TableAuthor], &b.Author); err != nil {
		return nil, fmt.Errorf("decode author: %w", err)
	}
	if err := decodeSingle(groups[TableDataEnterer], &b.DataEnterer); err != nil {
		return nil, fmt.Errorf("decode data enterer: %w", err)
	}
	if err := decodeSingle(groups[TableInformant], &b.Informant); err != nil {
		return nil, fmt.Errorf("decode informant: %w", err)
	}
	if err := decodeSingle(groups[TableCustodian], &b.Custodian); err != nil {
		return nil, fmt.Errorf("decode custodian: %w", err)
	}
	if doc := groups[TableDocumentationOf]; doc != nil {
		if fields, ok := doc[0]; ok {
			b.DocumentationOf = fields["assignedPerson"]
		}
	}

	if err := decodeSlice(groups[TableProblems], &b.Problems); err != nil {
		return nil, fmt.Errorf("decode problems: %w", err)
	}
	if err := decodeSlice(groups[TableAllergies], &b.Allergies); err != nil {
		return nil, fmt.Errorf("decode allergies: %w", err)
	}
	if err := decodeSlice(groups[TableMedications], &b.Medications); err != nil {
		return nil, fmt.Errorf("decode medications: %w", err)
	}
	if err := decodeSlice(groups[TableImmunization], &b.Immunizations); err != nil {
		return nil, fmt.Errorf("decode immunizations: %w", err)
	}
	if err := decodeSlice(groups[TableEncounter], &b.Encounters); err != nil {
		return nil, fmt.Errorf("decode encounters: %w", err)
	}
	if err := decodeSlice(groups[TableVitals], &b.Vitals); err != nil {
		return nil, fmt.Errorf("decode vitals: %w", err)
	}
	if err := decodeSlice(groups[TableSocialHistory], &b.SocialHistories); err != nil {
		return nil, fmt.Errorf("decode social history: %w", err)
	}
	if err := decodeSlice(groups[TableProcedure], &b.Procedures); err != nil {
		return nil, fmt.Errorf("decode procedures: %w", err)
	}
	if err := decodeSlice(groups[TableLabResult], &b.LabResults); err != nil {
		return nil, fmt.Errorf("decode lab results: %w", err)
	}
	if err := decodeSlice(groups[TableCarePlan], &b.CarePlans); err != nil {
		return nil, fmt.Errorf("decode care plans: %w", err)
	}
	if err := decodeSlice(groups[TableFunctionalStatus], &b.FunctionalStatuses); err != nil {
		return nil, fmt.Errorf("decode functional statuses: %w", err)
	}
	if err := decodeSlice(groups[TableReferral], &b.Referrals); err != nil {
		return nil, fmt.Errorf("decode referrals: %w", err)
	}

	return b, nil
}

// OverridePatient applies reviewer edits, keyed by staged field name, on top
// of the decoded demographics. Fields absent from the map keep their values.
func OverridePatient(p *PatientFields, overrides map[string]string) error {
	if len(overrides) == 0 {
		return nil
	}
	return decodeStage(overrides, p)
}

// encodeStage flattens a field record into a field-name map using stage tags.
func encodeStage(v interface{}) map[string]string {
	out := make(map[string]string)
	rv := reflect.ValueOf(v)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		tag := rt.Field(i).Tag.Get("stage")
		if tag == "" || tag == "-" {
			continue
		}
		if rv.Field(i).Kind() == reflect.String {
			out[tag] = rv.Field(i).String()
		}
	}
	return out
}

func decodeStage(fields map[string]string, dst interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "stage",
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(fields)
}

func decodeSingle(group map[int]map[string]string, dst interface{}) error {
	if group == nil {
		return nil
	}
	fields, ok := group[0]
	if !ok {
		return nil
	}
	return decodeStage(fields, dst)
}

func decodeSlice[T any](group map[int]map[string]string, dst *[]T) error {
	if len(group) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(group))
	for i := range group {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	for _, i := range indexes {
		var rec T
		if err := decodeStage(group[i], &rec); err != nil {
			return err
		}
		*dst = append(*dst, rec)
	}
	return nil
}
