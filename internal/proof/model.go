package proof

import "time"

// Proof is one registered screenshot binding. CID is the primary key,
// PostID the unique secondary key.
type Proof struct {
	CID          string    `json:"cid"`
	PostID       string    `json:"post_id"`
	RegisteredAt time.Time `json:"registered_at"`
	Recorder     string    `json:"recorder"` // address of the submitting caller
}

// Registered reports whether p describes a real registration.
// The zero Proof (unknown lookup result) has a zero RegisteredAt.
func (p *Proof) Registered() bool {
	return p != nil && !p.RegisteredAt.IsZero()
}
