package careplan

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

const planCols = `id, patient_id, encounter_id, external_id, code, title, description, date,
	created_at, updated_at`

func (r *repoPG) CreatePlan(ctx context.Context, p *CarePlan) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO care_plans (`+planCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.PatientID, p.EncounterID, p.ExternalID, p.Code, p.Title, p.Description, p.Date,
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *repoPG) UpdatePlan(ctx context.Context, p *CarePlan) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE care_plans SET
			encounter_id = $2, external_id = $3, code = $4, title = $5, description = $6,
			date = $7, updated_at = $8
		WHERE id = $1`,
		p.ID, p.EncounterID, p.ExternalID, p.Code, p.Title, p.Description, p.Date, p.UpdatedAt,
	)
	return err
}

func (r *repoPG) FindPlanByExternalID(ctx context.Context, patientID, externalID string) (*CarePlan, error) {
	return scanPlan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+planCols+` FROM care_plans WHERE patient_id = $1 AND external_id = $2 LIMIT 1`,
		patientID, externalID))
}

func (r *repoPG) FindPlanByCodeDate(ctx context.Context, patientID, code, date string) (*CarePlan, error) {
	return scanPlan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+planCols+` FROM care_plans WHERE patient_id = $1 AND code = $2 AND date = $3 LIMIT 1`,
		patientID, code, date))
}

func (r *repoPG) ListPlansByPatient(ctx context.Context, patientID string) ([]*CarePlan, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+planCols+` FROM care_plans WHERE patient_id = $1 ORDER BY date`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*CarePlan
	for rows.Next() {
		var p CarePlan
		if err := rows.Scan(&p.ID, &p.PatientID, &p.EncounterID, &p.ExternalID, &p.Code, &p.Title,
			&p.Description, &p.Date, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

const statusCols = `id, patient_id, encounter_id, external_id, code, title, description, date,
	created_at, updated_at`

func (r *repoPG) CreateStatus(ctx context.Context, st *FunctionalStatus) error {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO functional_statuses (`+statusCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		st.ID, st.PatientID, st.EncounterID, st.ExternalID, st.Code, st.Title, st.Description,
		st.Date, st.CreatedAt, st.UpdatedAt,
	)
	return err
}

func (r *repoPG) UpdateStatus(ctx context.Context, st *FunctionalStatus) error {
	st.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE functional_statuses SET
			encounter_id = $2, external_id = $3, code = $4, title = $5, description = $6,
			date = $7, updated_at = $8
		WHERE id = $1`,
		st.ID, st.EncounterID, st.ExternalID, st.Code, st.Title, st.Description, st.Date, st.UpdatedAt,
	)
	return err
}

func (r *repoPG) FindStatusByExternalID(ctx context.Context, patientID, externalID string) (*FunctionalStatus, error) {
	return scanStatus(r.conn(ctx).QueryRow(ctx,
		`SELECT `+statusCols+` FROM functional_statuses WHERE patient_id = $1 AND external_id = $2 LIMIT 1`,
		patientID, externalID))
}

func (r *repoPG) FindStatusByCodeDate(ctx context.Context, patientID, code, date string) (*FunctionalStatus, error) {
	return scanStatus(r.conn(ctx).QueryRow(ctx,
		`SELECT `+statusCols+` FROM functional_statuses
		 WHERE patient_id = $1 AND code = $2 AND date = $3 LIMIT 1`,
		patientID, code, date))
}

func (r *repoPG) ListStatusesByPatient(ctx context.Context, patientID string) ([]*FunctionalStatus, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+statusCols+` FROM functional_statuses WHERE patient_id = $1 ORDER BY date`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*FunctionalStatus
	for rows.Next() {
		var st FunctionalStatus
		if err := rows.Scan(&st.ID, &st.PatientID, &st.EncounterID, &st.ExternalID, &st.Code,
			&st.Title, &st.Description, &st.Date, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

func scanPlan(row pgx.Row) (*CarePlan, error) {
	var p CarePlan
	err := row.Scan(&p.ID, &p.PatientID, &p.EncounterID, &p.ExternalID, &p.Code, &p.Title,
		&p.Description, &p.Date, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanStatus(row pgx.Row) (*FunctionalStatus, error) {
	var st FunctionalStatus
	err := row.Scan(&st.ID, &st.PatientID, &st.EncounterID, &st.ExternalID, &st.Code, &st.Title,
		&st.Description, &st.Date, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
