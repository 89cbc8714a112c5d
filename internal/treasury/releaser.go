package treasury

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LogReleaser is a Releaser that records releases without moving value.
// It is the default wiring when no settlement rail is configured: the
// operator reconciles logged releases against the external system.
type LogReleaser struct {
	logger *zap.Logger
}

// NewLogReleaser creates a LogReleaser.
func NewLogReleaser(logger *zap.Logger) *LogReleaser {
	return &LogReleaser{logger: logger}
}

// Release implements Releaser.
func (r *LogReleaser) Release(_ context.Context, recipient string, amount int64) error {
	r.logger.Info("value released",
		zap.String("recipient", recipient),
		zap.Int64("amount", amount),
	)
	return nil
}

// MemoryBank is a Releaser that tracks per-address balances in memory.
// It is used in tests and memory-backed deployments to observe where
// released value lands.
type MemoryBank struct {
	mu       sync.RWMutex
	accounts map[string]int64
}

// NewMemoryBank creates an empty MemoryBank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{accounts: make(map[string]int64)}
}

// Release implements Releaser.
func (b *MemoryBank) Release(_ context.Context, recipient string, amount int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[recipient] += amount
	return nil
}

// BalanceOf returns the total value released to addr.
func (b *MemoryBank) BalanceOf(addr string) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.accounts[addr]
}
