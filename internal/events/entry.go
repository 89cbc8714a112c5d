package events

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GenesisHash is the canonical well-known hash of the genesis entry.
// It serves as the trust anchor of the chain; all subsequent entry hashes
// chain from this constant rather than from a computed value.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// SystemActor is recorded as the actor on entries the registry itself
// produces (the genesis entry).
const SystemActor = "clipx-system"

// Event types appended to the chain.
const (
	TypeGenesis               = "genesis"
	TypeScreenshotRegistered  = "screenshot.registered"
	TypeFundsReceived         = "funds.received"
	TypeFundsWithdrawn        = "funds.withdrawn"
	TypeFundsTransferred      = "funds.transferred"
	TypeControllerTransferred = "owner.changed"
)

// Entry is a single notification record in the event chain.
type Entry struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`    // one of the Type* constants
	Actor     string    `json:"actor"`   // caller address or SystemActor
	Subject   string    `json:"subject"` // CID, recipient address, or new controller
	DataHash  string    `json:"data_hash"` // SHA-256 of the JSON payload
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// hashEntry computes a deterministic SHA-256 hash over an entry's fields.
// This function must never be called on the genesis entry (index 0).
func hashEntry(e *Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s|%s|%s|%s",
		e.Index, e.Timestamp.Format(time.RFC3339Nano),
		e.Type, e.Actor, e.Subject, e.DataHash, e.PrevHash,
	)
	return hex.EncodeToString(h.Sum(nil))
}

// sha256Sum returns the hex-encoded SHA-256 digest of data.
func sha256Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
