package encounter

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

const encCols = `id, patient_id, external_id, date, reason, provider_id, facility_id,
	discharge_disposition, diagnosis_code, diagnosis_text, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, e *Encounter) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO encounters (`+encCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.PatientID, e.ExternalID, e.Date, e.Reason, e.ProviderID, e.FacilityID,
		e.DischargeDisp, e.DiagnosisCode, e.DiagnosisText, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, e *Encounter) error {
	e.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE encounters SET
			external_id = $2, date = $3, reason = $4, provider_id = $5, facility_id = $6,
			discharge_disposition = $7, diagnosis_code = $8, diagnosis_text = $9, updated_at = $10
		WHERE id = $1`,
		e.ID, e.ExternalID, e.Date, e.Reason, e.ProviderID, e.FacilityID,
		e.DischargeDisp, e.DiagnosisCode, e.DiagnosisText, e.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Encounter, error) {
	return scanEnc(r.conn(ctx).QueryRow(ctx,
		`SELECT `+encCols+` FROM encounters WHERE id = $1`, id))
}

func (r *repoPG) FindByExternalID(ctx context.Context, patientID, externalID string) (*Encounter, error) {
	return scanEnc(r.conn(ctx).QueryRow(ctx,
		`SELECT `+encCols+` FROM encounters WHERE patient_id = $1 AND external_id = $2 LIMIT 1`,
		patientID, externalID))
}

func (r *repoPG) FindByDate(ctx context.Context, patientID, date string) (*Encounter, error) {
	return scanEnc(r.conn(ctx).QueryRow(ctx,
		`SELECT `+encCols+` FROM encounters WHERE patient_id = $1 AND date = $2
		 ORDER BY created_at DESC LIMIT 1`,
		patientID, date))
}

func (r *repoPG) Latest(ctx context.Context, patientID string) (*Encounter, error) {
	return scanEnc(r.conn(ctx).QueryRow(ctx,
		`SELECT `+encCols+` FROM encounters WHERE patient_id = $1
		 ORDER BY date DESC, created_at DESC LIMIT 1`,
		patientID))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*Encounter, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+encCols+` FROM encounters WHERE patient_id = $1 ORDER BY date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var encs []*Encounter
	for rows.Next() {
		var e Encounter
		if err := rows.Scan(&e.ID, &e.PatientID, &e.ExternalID, &e.Date, &e.Reason,
			&e.ProviderID, &e.FacilityID, &e.DischargeDisp, &e.DiagnosisCode, &e.DiagnosisText,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		encs = append(encs, &e)
	}
	return encs, rows.Err()
}

func (r *repoPG) AddForm(ctx context.Context, f *Form) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	f.CreatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO forms (id, patient_id, encounter_id, name, table_name, record_id, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.ID, f.PatientID, f.EncounterID, f.Name, f.TableName, f.RecordID, f.Date, f.CreatedAt,
	)
	return err
}

func (r *repoPG) ListForms(ctx context.Context, encounterID string) ([]*Form, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, encounter_id, name, table_name, record_id, date, created_at
		FROM forms WHERE encounter_id = $1 ORDER BY created_at`, encounterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []*Form
	for rows.Next() {
		var f Form
		if err := rows.Scan(&f.ID, &f.PatientID, &f.EncounterID, &f.Name, &f.TableName,
			&f.RecordID, &f.Date, &f.CreatedAt); err != nil {
			return nil, err
		}
		forms = append(forms, &f)
	}
	return forms, rows.Err()
}

func scanEnc(row pgx.Row) (*Encounter, error) {
	var e Encounter
	err := row.Scan(&e.ID, &e.PatientID, &e.ExternalID, &e.Date, &e.Reason,
		&e.ProviderID, &e.FacilityID, &e.DischargeDisp, &e.DiagnosisCode, &e.DiagnosisText,
		&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
