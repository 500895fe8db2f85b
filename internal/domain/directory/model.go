package directory

// Kind distinguishes the directory entries an import can reference.
type Kind string

const (
	KindProvider     Kind = "external_provider"
	KindOrganization Kind = "external_org"
	KindLab          Kind = "external_lab"
)

// Placeholder identities substituted when a document omits the real party.
// Imported charts always carry an attributable provider and facility even
// when the source system sent none.
const (
	PlaceholderNPI      = "987654321"
	PlaceholderPractice = "External Physicians Practice"
	PlaceholderFacility = "External Health and Hospitals"
	PlaceholderLab      = "External Lab"
	PlaceholderQRDALab  = "Qrda Lab"
)

// Provider is a directory entry referenced by imported clinical data. For
// organizations and labs the name fields are empty and Organization carries
// the display name.
type Provider struct {
	ID           string `json:"id" db:"id"`
	Kind         Kind   `json:"kind" db:"kind"`
	NPI          string `json:"npi,omitempty" db:"npi"`
	FirstName    string `json:"first_name,omitempty" db:"first_name"`
	LastName     string `json:"last_name,omitempty" db:"last_name"`
	Organization string `json:"organization,omitempty" db:"organization"`
	Street       string `json:"street,omitempty" db:"street"`
	City         string `json:"city,omitempty" db:"city"`
	State        string `json:"state,omitempty" db:"state"`
	Zip          string `json:"zip,omitempty" db:"zip"`
	Phone        string `json:"phone,omitempty" db:"phone"`
	Active       bool   `json:"active" db:"active"`
}
