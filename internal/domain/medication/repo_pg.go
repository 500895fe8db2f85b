package medication

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

const medCols = `id, patient_id, external_id, drug, drug_code, start_date, end_date, status,
	route, dose, dose_unit, rate, rate_unit, prn, note, indication, provider_id, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, m *Medication) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescriptions (`+medCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		m.ID, m.PatientID, m.ExternalID, m.Drug, m.DrugCode, m.StartDate, m.EndDate, m.Status,
		m.Route, m.Dose, m.DoseUnit, m.Rate, m.RateUnit, m.PRN, m.Note, m.Indication, m.ProviderID,
		m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, m *Medication) error {
	m.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescriptions SET
			external_id = $2, drug = $3, drug_code = $4, start_date = $5, end_date = $6,
			status = $7, route = $8, dose = $9, dose_unit = $10, rate = $11, rate_unit = $12,
			prn = $13, note = $14, indication = $15, provider_id = $16, updated_at = $17
		WHERE id = $1`,
		m.ID, m.ExternalID, m.Drug, m.DrugCode, m.StartDate, m.EndDate,
		m.Status, m.Route, m.Dose, m.DoseUnit, m.Rate, m.RateUnit,
		m.PRN, m.Note, m.Indication, m.ProviderID, m.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Medication, error) {
	return scanMed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medCols+` FROM prescriptions WHERE id = $1`, id))
}

func (r *repoPG) FindByExternalID(ctx context.Context, patientID, externalID string) (*Medication, error) {
	return scanMed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medCols+` FROM prescriptions WHERE patient_id = $1 AND external_id = $2 LIMIT 1`,
		patientID, externalID))
}

func (r *repoPG) FindByDrug(ctx context.Context, patientID, drug string) (*Medication, error) {
	return scanMed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medCols+` FROM prescriptions WHERE patient_id = $1 AND drug = $2 LIMIT 1`,
		patientID, drug))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*Medication, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+medCols+` FROM prescriptions WHERE patient_id = $1 ORDER BY start_date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Medication
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.PatientID, &m.ExternalID, &m.Drug, &m.DrugCode,
			&m.StartDate, &m.EndDate, &m.Status, &m.Route, &m.Dose, &m.DoseUnit,
			&m.Rate, &m.RateUnit, &m.PRN, &m.Note, &m.Indication, &m.ProviderID,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func scanMed(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.PatientID, &m.ExternalID, &m.Drug, &m.DrugCode,
		&m.StartDate, &m.EndDate, &m.Status, &m.Route, &m.Dose, &m.DoseUnit,
		&m.Rate, &m.RateUnit, &m.PRN, &m.Note, &m.Indication, &m.ProviderID,
		&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
