package patient

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

const patientCols = `id, pubpid, ss, first_name, last_name, dob, sex, street, city, state,
	postal_code, country_code, phone_home, status, religion, race, ethnicity, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (`+patientCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		p.ID, p.Pubpid, p.SS, p.FirstName, p.LastName, p.DOB, p.Sex, p.Street, p.City, p.State,
		p.PostalCode, p.CountryCode, p.PhoneHome, p.Status, p.Religion, p.Race, p.Ethnicity,
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET
			pubpid = $2, ss = $3, first_name = $4, last_name = $5, dob = $6, sex = $7,
			street = $8, city = $9, state = $10, postal_code = $11, country_code = $12,
			phone_home = $13, status = $14, religion = $15, race = $16, ethnicity = $17,
			updated_at = $18
		WHERE id = $1`,
		p.ID, p.Pubpid, p.SS, p.FirstName, p.LastName, p.DOB, p.Sex,
		p.Street, p.City, p.State, p.PostalCode, p.CountryCode,
		p.PhoneHome, p.Status, p.Religion, p.Race, p.Ethnicity, p.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *repoPG) FindByPubpid(ctx context.Context, pubpid string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE pubpid = $1`, pubpid))
}

func (r *repoPG) FindByNameDOB(ctx context.Context, firstName, lastName, dob string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients
		 WHERE first_name = $1 AND last_name = $2 AND dob = $3
		 ORDER BY created_at LIMIT 1`, firstName, lastName, dob))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patients ORDER BY last_name, first_name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatientRows(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Pubpid, &p.SS, &p.FirstName, &p.LastName, &p.DOB, &p.Sex,
		&p.Street, &p.City, &p.State, &p.PostalCode, &p.CountryCode, &p.PhoneHome,
		&p.Status, &p.Religion, &p.Race, &p.Ethnicity, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPatientRows(rows pgx.Rows) (*Patient, error) {
	var p Patient
	err := rows.Scan(&p.ID, &p.Pubpid, &p.SS, &p.FirstName, &p.LastName, &p.DOB, &p.Sex,
		&p.Street, &p.City, &p.State, &p.PostalCode, &p.CountryCode, &p.PhoneHome,
		&p.Status, &p.Religion, &p.Race, &p.Ethnicity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
