// Package events implements the registry's tamper-evident notification log.
//
// Every state change in the system (proof registration, treasury movement,
// controller handover) is appended here as a hash-chained entry. The chain
// begins with a well-known genesis entry whose Hash equals GenesisHash
// (64 hex zeros); every subsequent entry records the SHA-256 of its
// predecessor, making any tampering detectable via Verify.
//
// Two implementations of the Chain interface are provided:
//   - MemoryChain: in-process, for testing and development.
//   - PostgresChain: durable, for production use.
package events
