package problem

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

const probCols = `id, patient_id, encounter_id, external_id, code, title, begdate, enddate,
	active, outcome, comments, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Problem) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO problems (`+probCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.PatientID, p.EncounterID, p.ExternalID, p.Code, p.Title, p.BegDate, p.EndDate,
		p.Active, p.Outcome, p.Comments, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, p *Problem) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE problems SET
			encounter_id = $2, external_id = $3, code = $4, title = $5, begdate = $6,
			enddate = $7, active = $8, outcome = $9, comments = $10, updated_at = $11
		WHERE id = $1`,
		p.ID, p.EncounterID, p.ExternalID, p.Code, p.Title, p.BegDate,
		p.EndDate, p.Active, p.Outcome, p.Comments, p.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Problem, error) {
	return scanProblem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+probCols+` FROM problems WHERE id = $1`, id))
}

func (r *repoPG) FindByExternalID(ctx context.Context, patientID, externalID string) (*Problem, error) {
	return scanProblem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+probCols+` FROM problems WHERE patient_id = $1 AND external_id = $2 LIMIT 1`,
		patientID, externalID))
}

func (r *repoPG) FindByCodeBegdate(ctx context.Context, patientID, code, begdate string) (*Problem, error) {
	return scanProblem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+probCols+` FROM problems WHERE patient_id = $1 AND code = $2 AND begdate = $3 LIMIT 1`,
		patientID, code, begdate))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*Problem, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+probCols+` FROM problems WHERE patient_id = $1 ORDER BY begdate`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Problem
	for rows.Next() {
		var p Problem
		if err := rows.Scan(&p.ID, &p.PatientID, &p.EncounterID, &p.ExternalID, &p.Code, &p.Title,
			&p.BegDate, &p.EndDate, &p.Active, &p.Outcome, &p.Comments, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func scanProblem(row pgx.Row) (*Problem, error) {
	var p Problem
	err := row.Scan(&p.ID, &p.PatientID, &p.EncounterID, &p.ExternalID, &p.Code, &p.Title,
		&p.BegDate, &p.EndDate, &p.Active, &p.Outcome, &p.Comments, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
