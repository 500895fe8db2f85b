package ccda

import "encoding/xml"

// CDA OIDs and template identifiers.
const (
	// CDA namespace
	CDANamespace = "urn:hl7-org:v3"

	// Document-level template IDs
	OIDUSRealmHeader = "2.16.840.1.113883.10.20.22.1.1"
	OIDCCDDocument   = "2.16.840.1.113883.10.20.22.1.2"
	// QRDA Category I documents route to the quality-report mapping path.
	OIDQRDADocument = "2.16.840.1.113883.10.20.24.1.2"

	// LOINC codes for section identification
	LOINCAllergies        = "48765-2"
	LOINCMedications      = "10160-0"
	LOINCProblems         = "11450-4"
	LOINCProcedures       = "47519-4"
	LOINCResults          = "30954-2"
	LOINCVitalSigns       = "8716-3"
	LOINCImmunizations    = "11369-6"
	LOINCSocialHistory    = "29762-2"
	LOINCPlanOfCare       = "18776-5"
	LOINCEncounters       = "46240-8"
	LOINCFunctionalStatus = "47420-5"
	LOINCReferralReason   = "42349-1"

	// Code system OIDs
	OIDLOINC  = "2.16.840.1.113883.6.1"
	OIDSNOMED = "2.16.840.1.113883.6.96"
	OIDRxNorm = "2.16.840.1.113883.6.88"
	OIDCVX    = "2.16.840.1.113883.12.292"
)

// ClinicalDocument is the root element of a CDA R2 document.
type ClinicalDocument struct {
	XMLName         xml.Name         `xml:"ClinicalDocument"`
	TemplateIDs     []TemplateID     `xml:"templateId"`
	ID              *InstanceID      `xml:"id"`
	Code            *Code            `xml:"code"`
	Title           string           `xml:"title"`
	EffectiveTime   *TimeValue       `xml:"effectiveTime"`
	RecordTarget    *RecordTarget    `xml:"recordTarget"`
	Authors         []Author         `xml:"author"`
	DataEnterer     *DataEnterer     `xml:"dataEnterer"`
	Informants      []Informant      `xml:"informant"`
	Custodian       *Custodian       `xml:"custodian"`
	DocumentationOf *DocumentationOf `xml:"documentationOf"`
	Component       *Component       `xml:"component"`
}

// TemplateID specifies a template identifier with optional extension.
type TemplateID struct {
	Root      string `xml:"root,attr"`
	Extension string `xml:"extension,attr"`
}

// InstanceID is a unique instance identifier.
type InstanceID struct {
	Root      string `xml:"root,attr"`
	Extension string `xml:"extension,attr"`
}

// Code represents a coded value with optional code system.
type Code struct {
	Code           string `xml:"code,attr"`
	CodeSystem     string `xml:"codeSystem,attr"`
	CodeSystemName string `xml:"codeSystemName,attr"`
	DisplayName    string `xml:"displayName,attr"`
	NullFlavor     string `xml:"nullFlavor,attr"`
}

// TimeValue holds a time stamp in HL7 compact form (YYYYMMDD or YYYYMMDDHHmmss).
type TimeValue struct {
	Value string `xml:"value,attr"`
}

// TimeRange represents an effectiveTime interval with a point value or
// low/high boundaries.
type TimeRange struct {
	Value string     `xml:"value,attr"`
	Low   *TimeValue `xml:"low"`
	High  *TimeValue `xml:"high"`
}

// RecordTarget holds the patient information in the CDA header.
type RecordTarget struct {
	PatientRole *PatientRole `xml:"patientRole"`
}

// PatientRole contains patient identifiers and demographics.
type PatientRole struct {
	IDs      []InstanceID `xml:"id"`
	Addrs    []Address    `xml:"addr"`
	Telecoms []Telecom    `xml:"telecom"`
	Patient  *Patient     `xml:"patient"`
}

// Patient holds patient demographic data.
type Patient struct {
	Names                    []Name     `xml:"name"`
	AdministrativeGenderCode *Code      `xml:"administrativeGenderCode"`
	BirthTime                *TimeValue `xml:"birthTime"`
	MaritalStatusCode        *Code      `xml:"maritalStatusCode"`
	ReligiousAffiliationCode *Code      `xml:"religiousAffiliationCode"`
	RaceCode                 *Code      `xml:"raceCode"`
	EthnicGroupCode          *Code      `xml:"ethnicGroupCode"`
}

// Name represents a person's name. Use "L" marks the legal name.
type Name struct {
	Use    string   `xml:"use,attr"`
	Prefix string   `xml:"prefix"`
	Given  []string `xml:"given"`
	Family string   `xml:"family"`
}

// Address represents a postal address.
type Address struct {
	Use           string `xml:"use,attr"`
	StreetAddress string `xml:"streetAddressLine"`
	City          string `xml:"city"`
	State         string `xml:"state"`
	PostalCode    string `xml:"postalCode"`
	Country       string `xml:"country"`
}

// Telecom represents a contact point.
type Telecom struct {
	Use   string `xml:"use,attr"`
	Value string `xml:"value,attr"`
}

// Author holds authoring information in the CDA header.
type Author struct {
	Time           *TimeValue      `xml:"time"`
	AssignedAuthor *AssignedEntity `xml:"assignedAuthor"`
}

// DataEnterer identifies who keyed the document in.
type DataEnterer struct {
	AssignedEntity *AssignedEntity `xml:"assignedEntity"`
}

// Informant identifies an information source for the document.
type Informant struct {
	AssignedEntity *AssignedEntity `xml:"assignedEntity"`
	RelatedEntity  *RelatedEntity  `xml:"relatedEntity"`
}

// RelatedEntity is a non-clinical informant (e.g. a family member).
type RelatedEntity struct {
	RelatedPerson *Person `xml:"relatedPerson"`
}

// AssignedEntity is a person or device filling a header role.
type AssignedEntity struct {
	IDs                     []InstanceID  `xml:"id"`
	Code                    *Code         `xml:"code"`
	Addrs                   []Address     `xml:"addr"`
	Telecoms                []Telecom     `xml:"telecom"`
	AssignedPerson          *Person       `xml:"assignedPerson"`
	RepresentedOrganization *Organization `xml:"representedOrganization"`
}

// Person wraps a person name.
type Person struct {
	Names []Name `xml:"name"`
}

// Organization represents a healthcare organization.
type Organization struct {
	IDs      []InstanceID `xml:"id"`
	Names    []string     `xml:"name"`
	Telecoms []Telecom    `xml:"telecom"`
	Addrs    []Address    `xml:"addr"`
}

// Custodian holds the custodian organization in the CDA header.
type Custodian struct {
	AssignedCustodian *AssignedCustodian `xml:"assignedCustodian"`
}

// AssignedCustodian contains the custodian organization.
type AssignedCustodian struct {
	RepresentedCustodianOrganization *CustodianOrganization `xml:"representedCustodianOrganization"`
}

// CustodianOrganization identifies the custodian.
type CustodianOrganization struct {
	IDs      []InstanceID `xml:"id"`
	Name     string       `xml:"name"`
	Telecoms []Telecom    `xml:"telecom"`
	Addrs    []Address    `xml:"addr"`
}

// DocumentationOf records the service event documented.
type DocumentationOf struct {
	ServiceEvent *ServiceEvent `xml:"serviceEvent"`
}

// ServiceEvent describes the clinical service documented, including its
// performers.
type ServiceEvent struct {
	ClassCode     string      `xml:"classCode,attr"`
	EffectiveTime *TimeRange  `xml:"effectiveTime"`
	Performers    []Performer `xml:"performer"`
}

// Performer links an assigned entity to a service event.
type Performer struct {
	TypeCode       string          `xml:"typeCode,attr"`
	AssignedEntity *AssignedEntity `xml:"assignedEntity"`
}

// Component wraps the structured body of the CDA document.
type Component struct {
	StructuredBody *StructuredBody `xml:"structuredBody"`
}

// StructuredBody holds the document sections.
type StructuredBody struct {
	Components []SectionComponent `xml:"component"`
}

// SectionComponent wraps a single section.
type SectionComponent struct {
	Section *Section `xml:"section"`
}

// Section represents a CDA section with template, code, narrative, and entries.
type Section struct {
	TemplateIDs []TemplateID `xml:"templateId"`
	Code        *Code        `xml:"code"`
	Title       string       `xml:"title"`
	Text        *Narrative   `xml:"text"`
	Entries     []Entry      `xml:"entry"`
}

// Narrative is the human-readable block of a section. Referral sections
// carry their body here rather than in coded entries.
type Narrative struct {
	Paragraphs []string `xml:"paragraph"`
	Content    string   `xml:",chardata"`
}

// Entry represents a CDA entry element containing clinical data.
type Entry struct {
	TypeCode                string                   `xml:"typeCode,attr"`
	Act                     *Act                     `xml:"act"`
	Organizer               *Organizer               `xml:"organizer"`
	SubstanceAdministration *SubstanceAdministration `xml:"substanceAdministration"`
	Procedure               *ProcedureEntry          `xml:"procedure"`
	Encounter               *EncounterEntry          `xml:"encounter"`
	Observation             *ObservationEntry        `xml:"observation"`
}

// Act represents a CDA act element.
type Act struct {
	ClassCode          string              `xml:"classCode,attr"`
	MoodCode           string              `xml:"moodCode,attr"`
	TemplateIDs        []TemplateID        `xml:"templateId"`
	IDs                []InstanceID        `xml:"id"`
	Code               *Code               `xml:"code"`
	StatusCode         *Code               `xml:"statusCode"`
	EffectiveTime      *TimeRange          `xml:"effectiveTime"`
	EntryRelationships []EntryRelationship `xml:"entryRelationship"`
}

// EntryRelationship links entries together.
type EntryRelationship struct {
	TypeCode    string            `xml:"typeCode,attr"`
	Observation *ObservationEntry `xml:"observation"`
	Act         *Act              `xml:"act"`
}

// ObservationEntry represents a CDA observation.
type ObservationEntry struct {
	ClassCode          string              `xml:"classCode,attr"`
	MoodCode           string              `xml:"moodCode,attr"`
	TemplateIDs        []TemplateID        `xml:"templateId"`
	IDs                []InstanceID        `xml:"id"`
	Code               *Code               `xml:"code"`
	Text               string              `xml:"text"`
	StatusCode         *Code               `xml:"statusCode"`
	EffectiveTime      *TimeRange          `xml:"effectiveTime"`
	Value              *Value              `xml:"value"`
	InterpretationCode *Code               `xml:"interpretationCode"`
	ReferenceRanges    []ReferenceRange    `xml:"referenceRange"`
	Participant        *EntryParticipant   `xml:"participant"`
	EntryRelationships []EntryRelationship `xml:"entryRelationship"`
}

// ReferenceRange holds the textual reference range of a result observation.
type ReferenceRange struct {
	ObservationRange *ObservationRange `xml:"observationRange"`
}

// ObservationRange carries the range text.
type ObservationRange struct {
	Text string `xml:"text"`
}

// Value represents a typed value (physical quantity, coded value, etc.).
type Value struct {
	Type           string `xml:"type,attr"`
	Value          string `xml:"value,attr"`
	Unit           string `xml:"unit,attr"`
	Code           string `xml:"code,attr"`
	CodeSystem     string `xml:"codeSystem,attr"`
	CodeSystemName string `xml:"codeSystemName,attr"`
	DisplayName    string `xml:"displayName,attr"`
}

// EntryParticipant represents a participant in an entry.
type EntryParticipant struct {
	TypeCode        string           `xml:"typeCode,attr"`
	ParticipantRole *ParticipantRole `xml:"participantRole"`
}

// ParticipantRole holds participant role information.
type ParticipantRole struct {
	ClassCode     string         `xml:"classCode,attr"`
	Code          *Code          `xml:"code"`
	Addrs         []Address      `xml:"addr"`
	Telecoms      []Telecom      `xml:"telecom"`
	PlayingEntity *PlayingEntity `xml:"playingEntity"`
}

// PlayingEntity holds an entity name and code.
type PlayingEntity struct {
	ClassCode string `xml:"classCode,attr"`
	Code      *Code  `xml:"code"`
	Name      string `xml:"name"`
}

// SubstanceAdministration represents a medication or immunization entry.
type SubstanceAdministration struct {
	ClassCode          string              `xml:"classCode,attr"`
	MoodCode           string              `xml:"moodCode,attr"`
	NegationInd        string              `xml:"negationInd,attr"`
	TemplateIDs        []TemplateID        `xml:"templateId"`
	IDs                []InstanceID        `xml:"id"`
	Text               string              `xml:"text"`
	StatusCode         *Code               `xml:"statusCode"`
	EffectiveTimes     []TimeRange         `xml:"effectiveTime"`
	RouteCode          *Code               `xml:"routeCode"`
	DoseQuantity       *Value              `xml:"doseQuantity"`
	RateQuantity       *Value              `xml:"rateQuantity"`
	Consumable         *Consumable         `xml:"consumable"`
	Performers         []Performer         `xml:"performer"`
	EntryRelationships []EntryRelationship `xml:"entryRelationship"`
	Precondition       *Precondition       `xml:"precondition"`
}

// Precondition carries PRN criteria on a medication entry.
type Precondition struct {
	Criterion *Criterion `xml:"criterion"`
}

// Criterion holds the precondition value.
type Criterion struct {
	Value *Value `xml:"value"`
}

// Consumable wraps a manufactured product (medication or vaccine).
type Consumable struct {
	ManufacturedProduct *ManufacturedProduct `xml:"manufacturedProduct"`
}

// ManufacturedProduct holds a medication material and its manufacturer.
type ManufacturedProduct struct {
	TemplateIDs            []TemplateID          `xml:"templateId"`
	ManufacturedMaterial   *ManufacturedMaterial `xml:"manufacturedMaterial"`
	ManufacturerOrganization *Organization       `xml:"manufacturerOrganization"`
}

// ManufacturedMaterial holds the medication code and lot.
type ManufacturedMaterial struct {
	Code          *Code  `xml:"code"`
	LotNumberText string `xml:"lotNumberText"`
}

// Organizer groups related observations (lab panels, vital sign sets).
type Organizer struct {
	ClassCode     string               `xml:"classCode,attr"`
	MoodCode      string               `xml:"moodCode,attr"`
	TemplateIDs   []TemplateID         `xml:"templateId"`
	IDs           []InstanceID         `xml:"id"`
	Code          *Code                `xml:"code"`
	StatusCode    *Code                `xml:"statusCode"`
	EffectiveTime *TimeRange           `xml:"effectiveTime"`
	Components    []OrganizerComponent `xml:"component"`
}

// OrganizerComponent wraps an observation inside an organizer.
type OrganizerComponent struct {
	Observation *ObservationEntry `xml:"observation"`
}

// ProcedureEntry represents a CDA procedure.
type ProcedureEntry struct {
	ClassCode     string       `xml:"classCode,attr"`
	MoodCode      string       `xml:"moodCode,attr"`
	TemplateIDs   []TemplateID `xml:"templateId"`
	IDs           []InstanceID `xml:"id"`
	Code          *Code        `xml:"code"`
	StatusCode    *Code        `xml:"statusCode"`
	EffectiveTime *TimeRange   `xml:"effectiveTime"`
	Performers    []Performer  `xml:"performer"`
}

// EncounterEntry represents a CDA encounter.
type EncounterEntry struct {
	ClassCode          string              `xml:"classCode,attr"`
	MoodCode           string              `xml:"moodCode,attr"`
	TemplateIDs        []TemplateID        `xml:"templateId"`
	IDs                []InstanceID        `xml:"id"`
	Code               *Code               `xml:"code"`
	EffectiveTime      *TimeRange          `xml:"effectiveTime"`
	Performers         []Performer         `xml:"performer"`
	Participants       []EntryParticipant  `xml:"participant"`
	EntryRelationships []EntryRelationship `xml:"entryRelationship"`
}
