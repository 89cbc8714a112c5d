package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the controller identity in a single-row table.
// It implements Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Current implements Store.
func (s *PostgresStore) Current(ctx context.Context) (string, error) {
	var addr string
	err := s.pool.QueryRow(ctx, `SELECT address FROM controller WHERE id = 1`).Scan(&addr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("read controller: %w", err)
	}
	return addr, nil
}

// Init implements Store.
func (s *PostgresStore) Init(ctx context.Context, addr string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO controller (id, address) VALUES (1, $1)
		 ON CONFLICT (id) DO NOTHING`, addr)
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}
	return nil
}

// Replace implements Store. The WHERE clause makes the compare-and-swap a
// single atomic statement; zero rows affected means the caller lost.
func (s *PostgresStore) Replace(ctx context.Context, expected, next string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE controller SET address = $1 WHERE id = 1 AND address = $2`,
		next, expected)
	if err != nil {
		return fmt.Errorf("replace controller: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotAuthorized
	}
	return nil
}
