package documents

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

const docCols = `id, patient_id, name, doc_type, mime_type, content,
	approval_status, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, d *Document) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO documents (`+docCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.PatientID, d.Name, d.Type, d.MimeType, d.Content,
		d.ApprovalStatus, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Document, error) {
	var d Document
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+docCols+` FROM documents WHERE id = $1`, id,
	).Scan(&d.ID, &d.PatientID, &d.Name, &d.Type, &d.MimeType, &d.Content,
		&d.ApprovalStatus, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) SetPatient(ctx context.Context, id, patientID string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE documents SET patient_id = $2, updated_at = $3 WHERE id = $1`,
		id, patientID, time.Now().UTC())
	return err
}

func (r *repoPG) SetApprovalStatus(ctx context.Context, id string, status int) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE documents SET approval_status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Document, int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, name, doc_type, mime_type, approval_status, created_at, updated_at
		FROM documents
		WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.PatientID, &d.Name, &d.Type, &d.MimeType,
			&d.ApprovalStatus, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		docs = append(docs, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}
