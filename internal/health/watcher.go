// Package health runs the registry's background integrity watcher: it
// periodically re-verifies the event hash chain and pings the backing
// database, so a corrupted chain is noticed minutes after it happens
// rather than on the next manual audit.
package health

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/ClipXonchain/proofledger/internal/events"
	"go.uber.org/zap"
)

// Config holds integrity watcher configuration.
type Config struct {
	CheckInterval time.Duration
	CheckTimeout  time.Duration
}

// Pinger checks that the backing store is reachable.
// *pgxpool.Pool satisfies this interface; memory deployments pass nil.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetricsRecordFunc is an optional callback for recording check results.
type MetricsRecordFunc func(success bool)

// Watcher periodically verifies the event chain and store connectivity.
type Watcher struct {
	chain     events.Chain
	pinger    Pinger // nil = skip connectivity check
	cfg       Config
	onMetrics MetricsRecordFunc
	logger    *zap.Logger

	mu       sync.Mutex
	lastErr  error
	lastRoot string
}

// New creates a Watcher.
func New(chain events.Chain, pinger Pinger, cfg Config, logger *zap.Logger) *Watcher {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 5 * time.Minute
	}
	if cfg.CheckTimeout == 0 {
		cfg.CheckTimeout = 30 * time.Second
	}
	return &Watcher{chain: chain, pinger: pinger, cfg: cfg, logger: logger}
}

// SetMetricsRecord configures the metrics recording callback.
func (w *Watcher) SetMetricsRecord(fn MetricsRecordFunc) {
	w.onMetrics = fn
}

// Start runs the watcher loop until quit is signalled or closed.
func (w *Watcher) Start(quit <-chan os.Signal) {
	ticker := time.NewTicker(w.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), w.cfg.CheckTimeout)
			w.Check(ctx)
			cancel()
		case <-quit:
			return
		}
	}
}

// Check runs one verification pass and records the outcome.
func (w *Watcher) Check(ctx context.Context) {
	err := w.verify(ctx)

	var root string
	if err == nil {
		root, _ = w.chain.Root(ctx)
	}

	w.mu.Lock()
	w.lastErr = err
	if err == nil {
		w.lastRoot = root
	}
	w.mu.Unlock()

	if w.onMetrics != nil {
		w.onMetrics(err == nil)
	}

	if err != nil {
		w.logger.Error("integrity check FAILED", zap.Error(err))
		return
	}
	w.logger.Debug("integrity check ok", zap.String("root", root))
}

// LastResult returns the most recent check outcome: the chain root observed
// and the error, nil when the last pass was clean.
func (w *Watcher) LastResult() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRoot, w.lastErr
}

func (w *Watcher) verify(ctx context.Context) error {
	if w.pinger != nil {
		if err := w.pinger.Ping(ctx); err != nil {
			return err
		}
	}
	return w.chain.Verify(ctx)
}
