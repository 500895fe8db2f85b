package immunization

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

const immCols = `id, patient_id, external_id, cvx_code, vaccine, administered_date, amount,
	amount_unit, route, manufacturer, completion_status, provider_id, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, im *Immunization) error {
	if im.ID == "" {
		im.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	im.CreatedAt = now
	im.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO immunizations (`+immCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		im.ID, im.PatientID, im.ExternalID, im.CVXCode, im.Vaccine, im.AdministeredDate, im.Amount,
		im.AmountUnit, im.Route, im.Manufacturer, im.CompletionStatus, im.ProviderID,
		im.CreatedAt, im.UpdatedAt,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, im *Immunization) error {
	im.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE immunizations SET
			external_id = $2, cvx_code = $3, vaccine = $4, administered_date = $5, amount = $6,
			amount_unit = $7, route = $8, manufacturer = $9, completion_status = $10,
			provider_id = $11, updated_at = $12
		WHERE id = $1`,
		im.ID, im.ExternalID, im.CVXCode, im.Vaccine, im.AdministeredDate, im.Amount,
		im.AmountUnit, im.Route, im.Manufacturer, im.CompletionStatus, im.ProviderID, im.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Immunization, error) {
	return scanImm(r.conn(ctx).QueryRow(ctx,
		`SELECT `+immCols+` FROM immunizations WHERE id = $1`, id))
}

func (r *repoPG) FindByExternalID(ctx context.Context, patientID, externalID string) (*Immunization, error) {
	return scanImm(r.conn(ctx).QueryRow(ctx,
		`SELECT `+immCols+` FROM immunizations WHERE patient_id = $1 AND external_id = $2 LIMIT 1`,
		patientID, externalID))
}

func (r *repoPG) FindByCVXDate(ctx context.Context, patientID, cvx, date string) (*Immunization, error) {
	return scanImm(r.conn(ctx).QueryRow(ctx,
		`SELECT `+immCols+` FROM immunizations
		 WHERE patient_id = $1 AND cvx_code = $2 AND administered_date = $3 LIMIT 1`,
		patientID, cvx, date))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*Immunization, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+immCols+` FROM immunizations WHERE patient_id = $1 ORDER BY administered_date`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Immunization
	for rows.Next() {
		var im Immunization
		if err := rows.Scan(&im.ID, &im.PatientID, &im.ExternalID, &im.CVXCode, &im.Vaccine,
			&im.AdministeredDate, &im.Amount, &im.AmountUnit, &im.Route, &im.Manufacturer,
			&im.CompletionStatus, &im.ProviderID, &im.CreatedAt, &im.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &im)
	}
	return out, rows.Err()
}

func scanImm(row pgx.Row) (*Immunization, error) {
	var im Immunization
	err := row.Scan(&im.ID, &im.PatientID, &im.ExternalID, &im.CVXCode, &im.Vaccine,
		&im.AdministeredDate, &im.Amount, &im.AmountUnit, &im.Route, &im.Manufacturer,
		&im.CompletionStatus, &im.ProviderID, &im.CreatedAt, &im.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &im, nil
}
