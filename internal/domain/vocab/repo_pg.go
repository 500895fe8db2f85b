package vocab

import (
	"context"
	"errors"

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

const optCols = `list_id, option_id, title, codes, notes, activity`

func (r *repoPG) FindByTitle(ctx context.Context, listID, title string) (*Option, error) {
	return scanOpt(r.conn(ctx).QueryRow(ctx,
		`SELECT `+optCols+` FROM list_options WHERE list_id = $1 AND title = $2`, listID, title))
}

func (r *repoPG) FindByCodes(ctx context.Context, listID, codes string) (*Option, error) {
	return scanOpt(r.conn(ctx).QueryRow(ctx,
		`SELECT `+optCols+` FROM list_options WHERE list_id = $1 AND codes = $2`, listID, codes))
}

func (r *repoPG) FindByNotes(ctx context.Context, listID, notes string) (*Option, error) {
	return scanOpt(r.conn(ctx).QueryRow(ctx,
		`SELECT `+optCols+` FROM list_options WHERE list_id = $1 AND notes = $2`, listID, notes))
}

// Insert computes the next option id and stores the row in one statement so
// two importers cannot race the same id.
func (r *repoPG) Insert(ctx context.Context, opt *Option) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO list_options (list_id, option_id, title, codes, notes, activity)
		SELECT $1,
		       (COALESCE(MAX(option_id::int) FILTER (WHERE option_id ~ '^[0-9]+$'), 0) + 1)::text,
		       $2, $3, $4, TRUE
		FROM list_options WHERE list_id = $1
		RETURNING option_id`,
		opt.ListID, opt.Title, opt.Codes, opt.Notes,
	).Scan(&opt.OptionID)
}

func (r *repoPG) Activate(ctx context.Context, listID, optionID string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE list_options SET activity = TRUE WHERE list_id = $1 AND option_id = $2`, listID, optionID)
	return err
}

func (r *repoPG) List(ctx context.Context, listID string) ([]*Option, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+optCols+` FROM list_options WHERE list_id = $1 ORDER BY option_id`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opts []*Option
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ListID, &o.OptionID, &o.Title, &o.Codes, &o.Notes, &o.Activity); err != nil {
			return nil, err
		}
		opts = append(opts, &o)
	}
	return opts, rows.Err()
}

func scanOpt(row pgx.Row) (*Option, error) {
	var o Option
	err := row.Scan(&o.ListID, &o.OptionID, &o.Title, &o.Codes, &o.Notes, &o.Activity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
