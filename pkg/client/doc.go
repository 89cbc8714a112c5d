// Package client provides the ClipX proofledger Go SDK for registering
// and verifying screenshot proofs and for operating the custodial
// treasury over the registry's HTTP API.
//
// Basic usage:
//
//	c, err := client.New("http://localhost:8080")
//	if err != nil { ... }
//
//	token, err := c.IssueToken(ctx, "my-address", issuerSecret)
//	proof, err := c.RegisterProof(ctx, "bafybeie...", "post-42")
//	proof, err = c.Verify(ctx, "bafybeie...")
//
// Proof lookups are public. Mutating calls carry the bearer token from
// IssueToken or WithBearerToken.
package client
