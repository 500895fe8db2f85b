package vitals

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

const vitalsCols = `id, patient_id, encounter_id, external_id, date, temperature, bpd, bps,
	head_circ, pulse, height, oxygen_saturation, respiration, weight, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, v *Vitals) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO vitals (`+vitalsCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		v.ID, v.PatientID, v.EncounterID, v.ExternalID, v.Date, v.Temperature, v.BPD, v.BPS,
		v.HeadCirc, v.Pulse, v.Height, v.OxygenSaturation, v.Respiration, v.Weight,
		v.CreatedAt, v.UpdatedAt,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, v *Vitals) error {
	v.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE vitals SET
			encounter_id = $2, external_id = $3, date = $4, temperature = $5, bpd = $6, bps = $7,
			head_circ = $8, pulse = $9, height = $10, oxygen_saturation = $11, respiration = $12,
			weight = $13, updated_at = $14
		WHERE id = $1`,
		v.ID, v.EncounterID, v.ExternalID, v.Date, v.Temperature, v.BPD, v.BPS,
		v.HeadCirc, v.Pulse, v.Height, v.OxygenSaturation, v.Respiration, v.Weight, v.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Vitals, error) {
	return scanVitals(r.conn(ctx).QueryRow(ctx,
		`SELECT `+vitalsCols+` FROM vitals WHERE id = $1`, id))
}

func (r *repoPG) FindByExternalID(ctx context.Context, patientID, externalID string) (*Vitals, error) {
	return scanVitals(r.conn(ctx).QueryRow(ctx,
		`SELECT `+vitalsCols+` FROM vitals WHERE patient_id = $1 AND external_id = $2 LIMIT 1`,
		patientID, externalID))
}

func (r *repoPG) FindByDate(ctx context.Context, patientID, date string) (*Vitals, error) {
	return scanVitals(r.conn(ctx).QueryRow(ctx,
		`SELECT `+vitalsCols+` FROM vitals WHERE patient_id = $1 AND date = $2 LIMIT 1`,
		patientID, date))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*Vitals, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+vitalsCols+` FROM vitals WHERE patient_id = $1 ORDER BY date`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Vitals
	for rows.Next() {
		var v Vitals
		if err := rows.Scan(&v.ID, &v.PatientID, &v.EncounterID, &v.ExternalID, &v.Date,
			&v.Temperature, &v.BPD, &v.BPS, &v.HeadCirc, &v.Pulse, &v.Height,
			&v.OxygenSaturation, &v.Respiration, &v.Weight, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func scanVitals(row pgx.Row) (*Vitals, error) {
	var v Vitals
	err := row.Scan(&v.ID, &v.PatientID, &v.EncounterID, &v.ExternalID, &v.Date,
		&v.Temperature, &v.BPD, &v.BPS, &v.HeadCirc, &v.Pulse, &v.Height,
		&v.OxygenSaturation, &v.Respiration, &v.Weight, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
