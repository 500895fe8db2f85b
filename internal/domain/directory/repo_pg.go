package directory

import (
	"context"
	"errors"

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

const provCols = `id, kind, npi, first_name, last_name, organization, street, city, state, zip, phone, active`

func (r *repoPG) FindByNPI(ctx context.Context, npi string) (*Provider, error) {
	return scanProvider(r.conn(ctx).QueryRow(ctx,
		`SELECT `+provCols+` FROM providers WHERE npi = $1 ORDER BY active DESC LIMIT 1`, npi))
}

func (r *repoPG) FindByName(ctx context.Context, kind Kind, firstName, lastName string) (*Provider, error) {
	return scanProvider(r.conn(ctx).QueryRow(ctx,
		`SELECT `+provCols+` FROM providers WHERE kind = $1 AND first_name = $2 AND last_name = $3 LIMIT 1`,
		kind, firstName, lastName))
}

func (r *repoPG) FindByOrganization(ctx context.Context, kind Kind, organization string) (*Provider, error) {
	return scanProvider(r.conn(ctx).QueryRow(ctx,
		`SELECT `+provCols+` FROM providers WHERE kind = $1 AND organization = $2 LIMIT 1`,
		kind, organization))
}

func (r *repoPG) Create(ctx context.Context, p *Provider) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO providers (`+provCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Kind, p.NPI, p.FirstName, p.LastName, p.Organization,
		p.Street, p.City, p.State, p.Zip, p.Phone, p.Active,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Provider, error) {
	return scanProvider(r.conn(ctx).QueryRow(ctx,
		`SELECT `+provCols+` FROM providers WHERE id = $1`, id))
}

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	err := row.Scan(&p.ID, &p.Kind, &p.NPI, &p.FirstName, &p.LastName, &p.Organization,
		&p.Street, &p.City, &p.State, &p.Zip, &p.Phone, &p.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
