package labs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ccdbridge/ccdbridge/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const orderCols = `id, patient_id, encounter_id, external_id, date, lab_id, created_at`

func (r *repoPG) CreateOrder(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	o.CreatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO procedure_orders (`+orderCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.PatientID, o.EncounterID, o.ExternalID, o.Date, o.LabID, o.CreatedAt,
	)
	return err
}

func (r *repoPG) FindOrderByExternalID(ctx context.Context, patientID, externalID string) (*Order, error) {
	var o Order
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+orderCols+` FROM procedure_orders WHERE patient_id = $1 AND external_id = $2 LIMIT 1`,
		patientID, externalID,
	).Scan(&o.ID, &o.PatientID, &o.EncounterID, &o.ExternalID, &o.Date, &o.LabID, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repoPG) ClearOrder(ctx context.Context, orderID string) error {
	c := r.conn(ctx)
	if _, err := c.Exec(ctx, `
		DELETE FROM procedure_results WHERE report_id IN
			(SELECT id FROM procedure_reports WHERE order_id = $1)`, orderID); err != nil {
		return err
	}
	if _, err := c.Exec(ctx, `DELETE FROM procedure_reports WHERE order_id = $1`, orderID); err != nil {
		return err
	}
	_, err := c.Exec(ctx, `DELETE FROM procedure_order_codes WHERE order_id = $1`, orderID)
	return err
}

func (r *repoPG) CreateOrderCode(ctx context.Context, c *OrderCode) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO procedure_order_codes (id, order_id, code, text)
		VALUES ($1, $2, $3, $4)`,
		c.ID, c.OrderID, c.Code, c.Text,
	)
	return err
}

func (r *repoPG) CreateReport(ctx context.Context, rep *Report) error {
	if rep.ID == "" {
		rep.ID = uuid.New().String()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO procedure_reports (id, order_id, date, status)
		VALUES ($1, $2, $3, $4)`,
		rep.ID, rep.OrderID, rep.Date, rep.Status,
	)
	return err
}

func (r *repoPG) CreateResult(ctx context.Context, res *Result) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO procedure_results (id, report_id, code, text, value, unit,
			range_text, range_low, range_high, date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		res.ID, res.ReportID, res.Code, res.Text, res.Value, res.Unit,
		res.RangeText, res.RangeLow, res.RangeHigh, res.Date, res.Status,
	)
	return err
}

func (r *repoPG) GetOrder(ctx context.Context, orderID string) (*OrderView, error) {
	c := r.conn(ctx)

	var o Order
	err := c.QueryRow(ctx,
		`SELECT `+orderCols+` FROM procedure_orders WHERE id = $1`, orderID,
	).Scan(&o.ID, &o.PatientID, &o.EncounterID, &o.ExternalID, &o.Date, &o.LabID, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	view := &OrderView{Order: &o}

	rows, err := c.Query(ctx,
		`SELECT id, order_id, code, text FROM procedure_order_codes WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var oc OrderCode
		if err := rows.Scan(&oc.ID, &oc.OrderID, &oc.Code, &oc.Text); err != nil {
			return nil, err
		}
		view.Codes = append(view.Codes, &oc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	repRows, err := c.Query(ctx,
		`SELECT id, order_id, date, status FROM procedure_reports WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer repRows.Close()
	for repRows.Next() {
		var rep Report
		if err := repRows.Scan(&rep.ID, &rep.OrderID, &rep.Date, &rep.Status); err != nil {
			return nil, err
		}
		view.Reports = append(view.Reports, &rep)
	}
	if err := repRows.Err(); err != nil {
		return nil, err
	}

	resRows, err := c.Query(ctx, `
		SELECT r.id, r.report_id, r.code, r.text, r.value, r.unit,
		       r.range_text, r.range_low, r.range_high, r.date, r.status
		FROM procedure_results r
		JOIN procedure_reports p ON p.id = r.report_id
		WHERE p.order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer resRows.Close()
	for resRows.Next() {
		var res Result
		if err := resRows.Scan(&res.ID, &res.ReportID, &res.Code, &res.Text, &res.Value, &res.Unit,
			&res.RangeText, &res.RangeLow, &res.RangeHigh, &res.Date, &res.Status); err != nil {
			return nil, err
		}
		view.Results = append(view.Results, &res)
	}
	return view, resRows.Err()
}

func (r *repoPG) ListOrdersByPatient(ctx context.Context, patientID string) ([]*Order, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+orderCols+` FROM procedure_orders WHERE patient_id = $1 ORDER BY date`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.PatientID, &o.EncounterID, &o.ExternalID, &o.Date,
			&o.LabID, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}
