package patient

import "time"

// Patient maps to the patients table. Demographic code fields (Status,
// Religion, Race, Ethnicity) hold controlled-vocabulary option ids.
type Patient struct {
	ID          string    `db:"id" json:"id"`
	Pubpid      string    `db:"pubpid" json:"pubpid"`
	SS          string    `db:"ss" json:"ss,omitempty"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	DOB         string    `db:"dob" json:"dob,omitempty"`
	Sex         string    `db:"sex" json:"sex,omitempty"`
	Street      string    `db:"street" json:"street,omitempty"`
	City        string    `db:"city" json:"city,omitempty"`
	State       string    `db:"state" json:"state,omitempty"`
	PostalCode  string    `db:"postal_code" json:"postal_code,omitempty"`
	CountryCode string    `db:"country_code" json:"country_code,omitempty"`
	PhoneHome   string    `db:"phone_home" json:"phone_home,omitempty"`
	Status      string    `db:"status" json:"status,omitempty"`
	Religion    string    `db:"religion" json:"religion,omitempty"`
	Race        string    `db:"race" json:"race,omitempty"`
	Ethnicity   string    `db:"ethnicity" json:"ethnicity,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Demographics carries the raw demographic strings lifted from a document,
// before vocabulary resolution. Religion, Race and Ethnicity are display
// texts, not option ids.
type Demographics struct {
	Pubpid      string
	SS          string
	FirstName   string
	LastName    string
	DOB         string
	Sex         string
	Street      string
	City        string
	State       string
	PostalCode  string
	CountryCode string
	PhoneHome   string
	Status      string
	Religion    string
	Race        string
	Ethnicity   string
}
