package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ZipCode is one row of the RUCA reference table.
type ZipCode struct {
	Zip      string
	RUCACode int
}

// GetRUCACode returns the RUCA code for a ZIP. The bool is false when the
// ZIP is not in the reference table.
func (r *Repository) GetRUCACode(ctx context.Context, zip string) (int, bool, error) {
	var code int
	err := r.pool.QueryRow(ctx, `
		SELECT ruca_code FROM zip_ruca WHERE zip = $1
	`, zip).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return code, true, nil
}

// UpsertCodes bulk-loads RUCA reference rows, used by the import command.
func (r *Repository) UpsertCodes(ctx context.Context, codes []ZipCode) (int, error) {
	batch := &pgx.Batch{}
	for _, c := range codes {
		batch.Queue(`
			INSERT INTO zip_ruca (zip, ruca_code)
			VALUES ($1, $2)
			ON CONFLICT (zip) DO UPDATE SET ruca_code = EXCLUDED.ruca_code
		`, c.Zip, c.RUCACode)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range codes {
		if _, err := results.Exec(); err != nil {
			return 0, err
		}
	}

	return len(codes), nil
}
