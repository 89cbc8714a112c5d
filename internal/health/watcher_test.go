package health

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ClipXonchain/proofledger/internal/events"
	"go.uber.org/zap"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(context.Context) error { return s.err }

func TestCheck_cleanChain(t *testing.T) {
	chain := events.NewMemoryChain()
	if _, err := chain.Append(context.Background(), events.TypeFundsReceived, "0xsender", "", nil); err != nil {
		t.Fatal(err)
	}

	var recorded []bool
	w := New(chain, nil, Config{}, zap.NewNop())
	w.SetMetricsRecord(func(success bool) { recorded = append(recorded, success) })

	w.Check(context.Background())

	root, err := w.LastResult()
	if err != nil {
		t.Errorf("clean chain reported error: %v", err)
	}
	if root == "" {
		t.Error("expected a chain root after a clean check")
	}
	if len(recorded) != 1 || !recorded[0] {
		t.Errorf("metrics = %v, want one success", recorded)
	}
}

func TestCheck_tamperedChain(t *testing.T) {
	chain := events.NewMemoryChain()
	e, err := chain.Append(context.Background(), events.TypeFundsReceived, "0xsender", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	e.Actor = "0xforged"

	w := New(chain, nil, Config{}, zap.NewNop())
	w.Check(context.Background())

	if _, err := w.LastResult(); err == nil {
		t.Error("tampered chain not reported")
	}
}

func TestStart_returnsWhenChannelClosed(t *testing.T) {
	w := New(events.NewMemoryChain(), nil, Config{CheckInterval: time.Hour}, zap.NewNop())

	stop := make(chan os.Signal)
	done := make(chan struct{})
	go func() {
		w.Start(stop)
		close(done)
	}()

	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after its stop channel was closed")
	}
}

func TestCheck_unreachableStore(t *testing.T) {
	chain := events.NewMemoryChain()
	w := New(chain, &stubPinger{err: errors.New("connection refused")}, Config{}, zap.NewNop())

	var recorded []bool
	w.SetMetricsRecord(func(success bool) { recorded = append(recorded, success) })

	w.Check(context.Background())

	if _, err := w.LastResult(); err == nil {
		t.Error("unreachable store not reported")
	}
	if len(recorded) != 1 || recorded[0] {
		t.Errorf("metrics = %v, want one failure", recorded)
	}
}
