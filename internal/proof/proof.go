// Package proof implements the screenshot proof ledger: an append-only,
// dual-indexed registry binding a content identifier (CID) to the source
// post it was captured from.
//
// A proof is created exactly once and never mutated or deleted. Lookups by
// CID or by post ID never fail for unknown keys — they return the zero
// Proof, so an absent record reads the same as zeroed storage.
package proof
