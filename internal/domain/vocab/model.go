package vocab

// Well-known option lists touched by document imports.
const (
	ListSeverity           = "severity_ccda"
	ListReaction           = "Reaction"
	ListOutcome            = "outcome"
	ListDrugRoute          = "drug_route"
	ListDrugForm           = "drug_form"
	ListDrugUnits          = "drug_units"
	ListProcUnit           = "proc_unit"
	ListImmunizationStatus = "Immunization_Completion_Status"
	ListImmunizationMaker  = "Immunization_Manufacturer"
	ListReligion           = "religious_affiliation"
	ListRace               = "race"
	ListEthnicity          = "ethnicity"
)

// Option is one row of the controlled-vocabulary table. OptionID is unique
// within its list and allocated sequentially for auto-provisioned entries.
type Option struct {
	ListID   string `json:"list_id" db:"list_id"`
	OptionID string `json:"option_id" db:"option_id"`
	Title    string `json:"title" db:"title"`
	Codes    string `json:"codes,omitempty" db:"codes"`
	Notes    string `json:"notes,omitempty" db:"notes"`
	Activity bool   `json:"activity" db:"activity"`
}
