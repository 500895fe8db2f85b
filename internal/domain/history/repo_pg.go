package history

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

const histCols = `id, patient_id, tobacco_note, tobacco_status, tobacco_date, tobacco_snomed,
	alcohol_note, alcohol_status, alcohol_date, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, h *SocialHistory) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO social_histories (`+histCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		h.ID, h.PatientID, h.Tobacco.Note, h.Tobacco.Status, h.Tobacco.Date, h.Tobacco.SNOMED,
		h.Alcohol.Note, h.Alcohol.Status, h.Alcohol.Date, h.CreatedAt, h.UpdatedAt,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, h *SocialHistory) error {
	h.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE social_histories SET
			tobacco_note = $2, tobacco_status = $3, tobacco_date = $4, tobacco_snomed = $5,
			alcohol_note = $6, alcohol_status = $7, alcohol_date = $8, updated_at = $9
		WHERE id = $1`,
		h.ID, h.Tobacco.Note, h.Tobacco.Status, h.Tobacco.Date, h.Tobacco.SNOMED,
		h.Alcohol.Note, h.Alcohol.Status, h.Alcohol.Date, h.UpdatedAt,
	)
	return err
}

func (r *repoPG) FindByPatient(ctx context.Context, patientID string) (*SocialHistory, error) {
	var h SocialHistory
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+histCols+` FROM social_histories WHERE patient_id = $1`, patientID,
	).Scan(&h.ID, &h.PatientID, &h.Tobacco.Note, &h.Tobacco.Status, &h.Tobacco.Date,
		&h.Tobacco.SNOMED, &h.Alcohol.Note, &h.Alcohol.Status, &h.Alcohol.Date,
		&h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}
