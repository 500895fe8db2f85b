package imports

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

const auditCols = `id, document_id, patient_id, audit_type, doc_type, approval_status,
	source_ip, created_at, updated_at`

func (r *repoPG) CreateAudit(ctx context.Context, a *ImportAudit) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO import_audit (`+auditCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.DocumentID, a.PatientID, a.Type, a.DocType, a.Status,
		a.SourceIP, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetAudit(ctx context.Context, id string) (*ImportAudit, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+auditCols+` FROM import_audit WHERE id = $1`, id)
	return scanAudit(row)
}

func (r *repoPG) ListAudits(ctx context.Context, status int, limit, offset int) ([]*ImportAudit, int, error) {
	where := ``
	args := []interface{}{limit, offset}
	if status != 0 {
		where = ` WHERE approval_status = $3`
		args = append(args, status)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+auditCols+` FROM import_audit`+where+`
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var audits []*ImportAudit
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, 0, err
		}
		audits = append(audits, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	countArgs := args[2:]
	countWhere := ``
	if status != 0 {
		countWhere = ` WHERE approval_status = $1`
	}
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM import_audit`+countWhere, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return audits, total, nil
}

func (r *repoPG) SetStatus(ctx context.Context, id string, status int) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE import_audit SET approval_status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	return err
}

func (r *repoPG) SetPatient(ctx context.Context, id, patientID string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE import_audit SET patient_id = $2, updated_at = $3 WHERE id = $1`,
		id, patientID, time.Now().UTC())
	return err
}

func (r *repoPG) CreateDetails(ctx context.Context, rows []*ImportAuditDetail) error {
	q := r.conn(ctx)
	for _, d := range rows {
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO import_audit_detail (id, audit_id, entity, instance, field, value)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			d.ID, d.AuditID, d.Entity, d.Instance, d.Field, d.Value,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) ListDetails(ctx context.Context, auditID string) ([]*ImportAuditDetail, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, audit_id, entity, instance, field, value
		FROM import_audit_detail
		WHERE audit_id = $1
		ORDER BY entity, instance, field`, auditID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []*ImportAuditDetail
	for rows.Next() {
		var d ImportAuditDetail
		if err := rows.Scan(&d.ID, &d.AuditID, &d.Entity, &d.Instance, &d.Field, &d.Value); err != nil {
			return nil, err
		}
		details = append(details, &d)
	}
	return details, rows.Err()
}

func (r *repoPG) CreateReconciliation(ctx context.Context, rec *MedReconciliation) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO med_reconciliations (id, patient_id, encounter_id, audit_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.PatientID, rec.EncounterID, rec.AuditID, rec.CreatedAt,
	)
	return err
}

func scanAudit(row pgx.Row) (*ImportAudit, error) {
	var a ImportAudit
	err := row.Scan(&a.ID, &a.DocumentID, &a.PatientID, &a.Type, &a.DocType,
		&a.Status, &a.SourceIP, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
