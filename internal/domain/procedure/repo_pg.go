package procedure

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

const procCols = `id, patient_id, encounter_id, external_id, code, title, date,
	performer_org_id, facility_org_id, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Procedure) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO procedures (`+procCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.PatientID, p.EncounterID, p.ExternalID, p.Code, p.Title, p.Date,
		p.PerformerOrgID, p.FacilityOrgID, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, p *Procedure) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE procedures SET
			encounter_id = $2, external_id = $3, code = $4, title = $5, date = $6,
			performer_org_id = $7, facility_org_id = $8, updated_at = $9
		WHERE id = $1`,
		p.ID, p.EncounterID, p.ExternalID, p.Code, p.Title, p.Date,
		p.PerformerOrgID, p.FacilityOrgID, p.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Procedure, error) {
	return scanProc(r.conn(ctx).QueryRow(ctx,
		`SELECT `+procCols+` FROM procedures WHERE id = $1`, id))
}

func (r *repoPG) FindByExternalID(ctx context.Context, patientID, externalID string) (*Procedure, error) {
	return scanProc(r.conn(ctx).QueryRow(ctx,
		`SELECT `+procCols+` FROM procedures WHERE patient_id = $1 AND external_id = $2 LIMIT 1`,
		patientID, externalID))
}

func (r *repoPG) FindByCodeDate(ctx context.Context, patientID, code, date string) (*Procedure, error) {
	return scanProc(r.conn(ctx).QueryRow(ctx,
		`SELECT `+procCols+` FROM procedures WHERE patient_id = $1 AND code = $2 AND date = $3 LIMIT 1`,
		patientID, code, date))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*Procedure, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+procCols+` FROM procedures WHERE patient_id = $1 ORDER BY date`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Procedure
	for rows.Next() {
		var p Procedure
		if err := rows.Scan(&p.ID, &p.PatientID, &p.EncounterID, &p.ExternalID, &p.Code, &p.Title,
			&p.Date, &p.PerformerOrgID, &p.FacilityOrgID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func scanProc(row pgx.Row) (*Procedure, error) {
	var p Procedure
	err := row.Scan(&p.ID, &p.PatientID, &p.EncounterID, &p.ExternalID, &p.Code, &p.Title,
		&p.Date, &p.PerformerOrgID, &p.FacilityOrgID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
