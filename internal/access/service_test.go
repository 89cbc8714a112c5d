package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ClipXonchain/proofledger/internal/access"
	"github.com/ClipXonchain/proofledger/internal/events"
	"go.uber.org/zap"
)

var ctx = context.Background()

func newService(controller string) (*access.Service, *events.MemoryChain) {
	chain := events.NewMemoryChain()
	return access.NewService(access.NewMemoryStore(controller), chain, zap.NewNop()), chain
}

func TestCurrent(t *testing.T) {
	svc, _ := newService("0xdeployer")

	got, err := svc.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != "0xdeployer" {
		t.Errorf("Current = %q, want 0xdeployer", got)
	}
}

func TestAuthorize(t *testing.T) {
	svc, _ := newService("0xdeployer")

	if err := svc.Authorize(ctx, "0xdeployer"); err != nil {
		t.Errorf("controller should be authorized: %v", err)
	}
	if err := svc.Authorize(ctx, "0xmallory"); !errors.Is(err, access.ErrNotAuthorized) {
		t.Errorf("non-controller: got %v, want ErrNotAuthorized", err)
	}
	if err := svc.Authorize(ctx, ""); !errors.Is(err, access.ErrNotAuthorized) {
		t.Errorf("empty caller: got %v, want ErrNotAuthorized", err)
	}
}

func TestTransfer(t *testing.T) {
	svc, chain := newService("0xdeployer")

	if err := svc.Transfer(ctx, "0xnew", "0xdeployer"); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != "0xnew" {
		t.Errorf("Current = %q, want 0xnew", got)
	}

	// The old controller loses its privileges.
	if err := svc.Transfer(ctx, "0xother", "0xdeployer"); !errors.Is(err, access.ErrNotAuthorized) {
		t.Errorf("old controller: got %v, want ErrNotAuthorized", err)
	}

	tip, err := chain.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if tip.Type != events.TypeControllerTransferred || tip.Subject != "0xnew" {
		t.Errorf("chain tip = %+v, want owner.changed to 0xnew", tip)
	}
}

func TestTransfer_rejectsEmptyTarget(t *testing.T) {
	svc, _ := newService("0xdeployer")

	if err := svc.Transfer(ctx, "", "0xdeployer"); !errors.Is(err, access.ErrInvalidAddress) {
		t.Errorf("got %v, want ErrInvalidAddress", err)
	}

	got, _ := svc.Current(ctx)
	if got != "0xdeployer" {
		t.Errorf("controller changed to %q on a rejected transfer", got)
	}
}

func TestTransfer_rejectsNonController(t *testing.T) {
	svc, _ := newService("0xdeployer")

	if err := svc.Transfer(ctx, "0xnew", "0xmallory"); !errors.Is(err, access.ErrNotAuthorized) {
		t.Errorf("got %v, want ErrNotAuthorized", err)
	}

	got, _ := svc.Current(ctx)
	if got != "0xdeployer" {
		t.Errorf("controller changed to %q on a rejected transfer", got)
	}
}

// failingChain refuses every append, simulating an event-log outage.
type failingChain struct{}

var errChainDown = errors.New("event log unavailable")

func (failingChain) Append(context.Context, string, string, string, any) (*events.Entry, error) {
	return nil, errChainDown
}
func (failingChain) Get(context.Context, int) (*events.Entry, error) { return nil, errChainDown }
func (failingChain) Len(context.Context) (int, error)                { return 0, errChainDown }
func (failingChain) Verify(context.Context) error                    { return errChainDown }
func (failingChain) Root(context.Context) (string, error)            { return "", errChainDown }

func TestTransfer_appendFailureRestoresController(t *testing.T) {
	svc := access.NewService(access.NewMemoryStore("0xdeployer"), failingChain{}, zap.NewNop())

	if err := svc.Transfer(ctx, "0xnew", "0xdeployer"); err == nil {
		t.Fatal("Transfer should fail when its event cannot be recorded")
	}

	// An error return must leave the old controller in place, privileges
	// intact.
	got, err := svc.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != "0xdeployer" {
		t.Errorf("Current = %q, want 0xdeployer after failed transfer", got)
	}
	if err := svc.Authorize(ctx, "0xdeployer"); err != nil {
		t.Errorf("old controller lost privileges: %v", err)
	}
	if err := svc.Authorize(ctx, "0xnew"); !errors.Is(err, access.ErrNotAuthorized) {
		t.Errorf("target gained privileges on a failed transfer: %v", err)
	}
}

func TestInit_onlySetsWhenUnset(t *testing.T) {
	store := access.NewMemoryStore("")

	if err := store.Init(ctx, "0xfirst"); err != nil {
		t.Fatal(err)
	}
	if err := store.Init(ctx, "0xsecond"); err != nil {
		t.Fatal(err)
	}

	got, err := store.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != "0xfirst" {
		t.Errorf("Current = %q, want 0xfirst", got)
	}
}
