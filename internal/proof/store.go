package proof

import (
	"context"
	"errors"
)

// ErrEmptyCID is returned when a registration carries an empty CID.
var ErrEmptyCID = errors.New("cid must not be empty")

// ErrEmptyPostID is returned when a registration carries an empty post ID.
var ErrEmptyPostID = errors.New("post id must not be empty")

// ErrDuplicateCID is returned when the CID is already registered.
var ErrDuplicateCID = errors.New("cid already registered")

// ErrDuplicatePostID is returned when the post ID is already bound to a CID.
var ErrDuplicatePostID = errors.New("post id already registered")

// ErrNotFound is returned by store lookups that find no matching proof.
// The Service translates it into the zero-Proof read contract.
var ErrNotFound = errors.New("proof not found")

// Store is the persistence interface for the proof ledger.
// Both MemoryStore and PostgresStore implement this interface.
//
// Insert must update both indices atomically: a concurrent reader observes
// either no registration or the complete one, never a half-written pair.
type Store interface {
	// Insert stores a fully populated proof. It fails with ErrDuplicateCID
	// or ErrDuplicatePostID on a key conflict and leaves the indices
	// unchanged on any error.
	Insert(ctx context.Context, p *Proof) error

	// GetByCID returns the proof registered for cid, or ErrNotFound.
	GetByCID(ctx context.Context, cid string) (*Proof, error)

	// GetByPostID resolves postID to its CID and returns that proof,
	// or ErrNotFound.
	GetByPostID(ctx context.Context, postID string) (*Proof, error)

	// Delete removes the proof registered for cid from both indices.
	// Deleting an unknown cid is a no-op. The Service uses it only to
	// unwind a registration whose event could not be recorded.
	Delete(ctx context.Context, cid string) error

	// Count returns the number of registered proofs.
	Count(ctx context.Context) (int, error)
}
