package proof

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists proofs to PostgreSQL. It implements Store.
//
// The proofs table carries a primary key on cid and a unique constraint on
// post_id, so a single INSERT enforces both uniqueness invariants
// atomically.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Insert implements Store. Unique-constraint violations are mapped onto the
// package sentinel errors by constraint name.
func (s *PostgresStore) Insert(ctx context.Context, p *Proof) error {
	q := `
		INSERT INTO proofs (cid, post_id, registered_at, recorder)
		VALUES ($1, $2, $3, $4)`
	_, err := s.pool.Exec(ctx, q, p.CID, p.PostID, p.RegisteredAt, p.Recorder)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "proofs_post_id_key" {
				return ErrDuplicatePostID
			}
			return ErrDuplicateCID
		}
		return fmt.Errorf("insert proof: %w", err)
	}
	return nil
}

// GetByCID implements Store.
func (s *PostgresStore) GetByCID(ctx context.Context, cid string) (*Proof, error) {
	return s.scanOne(ctx,
		`SELECT cid, post_id, registered_at, recorder FROM proofs WHERE cid = $1`, cid)
}

// GetByPostID implements Store.
func (s *PostgresStore) GetByPostID(ctx context.Context, postID string) (*Proof, error) {
	return s.scanOne(ctx,
		`SELECT cid, post_id, registered_at, recorder FROM proofs WHERE post_id = $1`, postID)
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, cid string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM proofs WHERE cid = $1`, cid); err != nil {
		return fmt.Errorf("delete proof: %w", err)
	}
	return nil
}

// Count implements Store.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM proofs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count proofs: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) scanOne(ctx context.Context, q string, arg any) (*Proof, error) {
	p := &Proof{}
	err := s.pool.QueryRow(ctx, q, arg).Scan(&p.CID, &p.PostID, &p.RegisteredAt, &p.Recorder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query proof: %w", err)
	}
	return p, nil
}
