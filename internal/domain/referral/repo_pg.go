package referral

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

func (r *repoPG) Create(ctx context.Context, ref *Referral) error {
	if ref.ID == "" {
		ref.ID = uuid.New().String()
	}
	ref.CreatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO referrals (id, patient_id, body, created_at)
		VALUES ($1, $2, $3, $4)`,
		ref.ID, ref.PatientID, ref.Body, ref.CreatedAt,
	)
	return err
}

func (r *repoPG) FindByBody(ctx context.Context, patientID, body string) (*Referral, error) {
	var ref Referral
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, patient_id, body, created_at FROM referrals
		 WHERE patient_id = $1 AND body = $2 LIMIT 1`,
		patientID, body,
	).Scan(&ref.ID, &ref.PatientID, &ref.Body, &ref.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*Referral, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, patient_id, body, created_at FROM referrals
		 WHERE patient_id = $1 ORDER BY created_at`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Referral
	for rows.Next() {
		var ref Referral
		if err := rows.Scan(&ref.ID, &ref.PatientID, &ref.Body, &ref.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &ref)
	}
	return out, rows.Err()
}
