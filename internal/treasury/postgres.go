package treasury

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the balance in a single-row table with a
// non-negative CHECK constraint. It implements Store.
//
// Every mutation is a single guarded UPDATE, so concurrent operations
// serialise on the row lock and the balance can never go negative.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Balance implements Store.
func (s *PostgresStore) Balance(ctx context.Context) (int64, error) {
	var balance int64
	if err := s.pool.QueryRow(ctx,
		`SELECT balance FROM treasury WHERE id = 1`).Scan(&balance); err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// Credit implements Store.
func (s *PostgresStore) Credit(ctx context.Context, amount int64) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	var balance int64
	if err := s.pool.QueryRow(ctx,
		`UPDATE treasury SET balance = balance + $1 WHERE id = 1 RETURNING balance`,
		amount).Scan(&balance); err != nil {
		return 0, fmt.Errorf("credit treasury: %w", err)
	}
	return balance, nil
}

// Debit implements Store.
func (s *PostgresStore) Debit(ctx context.Context, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE treasury SET balance = balance - $1 WHERE id = 1 AND balance >= $1`,
		amount)
	if err != nil {
		return 0, fmt.Errorf("debit treasury: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrInsufficientFunds
	}
	return s.Balance(ctx)
}

// DebitAll implements Store. The CTE locks the row, so the drained amount
// read and the zeroing update are one atomic step.
func (s *PostgresStore) DebitAll(ctx context.Context) (int64, error) {
	var drained int64
	err := s.pool.QueryRow(ctx, `
		WITH tip AS (
			SELECT balance FROM treasury WHERE id = 1 FOR UPDATE
		)
		UPDATE treasury SET balance = 0
		FROM tip
		WHERE treasury.id = 1 AND tip.balance > 0
		RETURNING tip.balance`).Scan(&drained)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNoFunds
		}
		return 0, fmt.Errorf("drain treasury: %w", err)
	}
	return drained, nil
}
