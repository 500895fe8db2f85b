package labs

import "time"

// Order maps to the procedure_orders table, one row per result group from a
// document. LabID references the performing lab's directory entry.
type Order struct {
	ID          string    `db:"id" json:"id"`
	PatientID   string    `db:"patient_id" json:"patient_id"`
	EncounterID string    `db:"encounter_id" json:"encounter_id,omitempty"`
	ExternalID  string    `db:"external_id" json:"external_id,omitempty"`
	Date        string    `db:"date" json:"date,omitempty"`
	LabID       string    `db:"lab_id" json:"lab_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// OrderCode maps to the procedure_order_codes table and names the ordered
// test.
type OrderCode struct {
	ID      string `db:"id" json:"id"`
	OrderID string `db:"order_id" json:"order_id"`
	Code    string `db:"code" json:"code,omitempty"`
	Text    string `db:"text" json:"text,omitempty"`
}

// Report maps to the procedure_reports table.
type Report struct {
	ID      string `db:"id" json:"id"`
	OrderID string `db:"order_id" json:"order_id"`
	Date    string `db:"date" json:"date,omitempty"`
	Status  string `db:"status" json:"status,omitempty"`
}

// Result maps to the procedure_results table. Unit holds a vocabulary option
// id; RangeLow and RangeHigh are split from the document's reference range
// when it has the low-high form.
type Result struct {
	ID        string `db:"id" json:"id"`
	ReportID  string `db:"report_id" json:"report_id"`
	Code      string `db:"code" json:"code,omitempty"`
	Text      string `db:"text" json:"text,omitempty"`
	Value     string `db:"value" json:"value,omitempty"`
	Unit      string `db:"unit" json:"unit,omitempty"`
	RangeText string `db:"range_text" json:"range_text,omitempty"`
	RangeLow  string `db:"range_low" json:"range_low,omitempty"`
	RangeHigh string `db:"range_high" json:"range_high,omitempty"`
	Date      string `db:"date" json:"date,omitempty"`
	Status    string `db:"status" json:"status,omitempty"`
}

// OrderView bundles an order with its fan-out rows for the review surface.
type OrderView struct {
	Order   *Order       `json:"order"`
	Codes   []*OrderCode `json:"codes"`
	Reports []*Report    `json:"reports"`
	Results []*Result    `json:"results"`
}
