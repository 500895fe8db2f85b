package allergy

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

const allergyCols = `id, patient_id, encounter_id, external_id, code, title, begdate, enddate,
	active, severity, reaction, outcome, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Allergy) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO allergies (`+allergyCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.PatientID, a.EncounterID, a.ExternalID, a.Code, a.Title, a.BegDate, a.EndDate,
		a.Active, a.Severity, a.Reaction, a.Outcome, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, a *Allergy) error {
	a.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE allergies SET
			encounter_id = $2, external_id = $3, code = $4, title = $5, begdate = $6,
			enddate = $7, active = $8, severity = $9, reaction = $10, outcome = $11, updated_at = $12
		WHERE id = $1`,
		a.ID, a.EncounterID, a.ExternalID, a.Code, a.Title, a.BegDate,
		a.EndDate, a.Active, a.Severity, a.Reaction, a.Outcome, a.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Allergy, error) {
	return scanAllergy(r.conn(ctx).QueryRow(ctx,
		`SELECT `+allergyCols+` FROM allergies WHERE id = $1`, id))
}

func (r *repoPG) FindByExternalID(ctx context.Context, patientID, externalID string) (*Allergy, error) {
	return scanAllergy(r.conn(ctx).QueryRow(ctx,
		`SELECT `+allergyCols+` FROM allergies WHERE patient_id = $1 AND external_id = $2 LIMIT 1`,
		patientID, externalID))
}

func (r *repoPG) FindByCode(ctx context.Context, patientID, code string) (*Allergy, error) {
	return scanAllergy(r.conn(ctx).QueryRow(ctx,
		`SELECT `+allergyCols+` FROM allergies WHERE patient_id = $1 AND code = $2 LIMIT 1`,
		patientID, code))
}

func (r *repoPG) FindByTitle(ctx context.Context, patientID, title string) (*Allergy, error) {
	return scanAllergy(r.conn(ctx).QueryRow(ctx,
		`SELECT `+allergyCols+` FROM allergies WHERE patient_id = $1 AND title = $2 LIMIT 1`,
		patientID, title))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*Allergy, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+allergyCols+` FROM allergies WHERE patient_id = $1 ORDER BY title`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Allergy
	for rows.Next() {
		var a Allergy
		if err := rows.Scan(&a.ID, &a.PatientID, &a.EncounterID, &a.ExternalID, &a.Code, &a.Title,
			&a.BegDate, &a.EndDate, &a.Active, &a.Severity, &a.Reaction, &a.Outcome,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func scanAllergy(row pgx.Row) (*Allergy, error) {
	var a Allergy
	err := row.Scan(&a.ID, &a.PatientID, &a.EncounterID, &a.ExternalID, &a.Code, &a.Title,
		&a.BegDate, &a.EndDate, &a.Active, &a.Severity, &a.Reaction, &a.Outcome,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
