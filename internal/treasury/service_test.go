package treasury_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ClipXonchain/proofledger/internal/access"
	"github.com/ClipXonchain/proofledger/internal/events"
	"github.com/ClipXonchain/proofledger/internal/treasury"
	"go.uber.org/zap"
)

var ctx = context.Background()

const controller = "0xcontroller"

// failingReleaser simulates a transport-layer release failure.
type failingReleaser struct{}

func (failingReleaser) Release(context.Context, string, int64) error {
	return errors.New("recipient rejected the transfer")
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

func newService(releaser treasury.Releaser) (*treasury.Service, *events.MemoryChain) {
	chain := events.NewMemoryChain()
	auth := access.NewService(access.NewMemoryStore(controller), chain, zap.NewNop())
	svc := treasury.NewService(treasury.NewMemoryStore(), auth, releaser, chain, zap.NewNop())
	return svc, chain
}

func TestAcceptIncoming(t *testing.T) {
	svc, chain := newService(treasury.NewMemoryBank())

	balance, err := svc.AcceptIncoming(ctx, 100, "0xsender")
	if err != nil {
		t.Fatal(err)
	}
	if balance != 100 {
		t.Errorf("balance = %d, want 100", balance)
	}

	got, err := svc.Balance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != 100 {
		t.Errorf("Balance = %d, want 100", got)
	}

	tip, err := chain.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if tip.Type != events.TypeFundsReceived || tip.Actor != "0xsender" {
		t.Errorf("chain tip = %+v, want funds.received from 0xsender", tip)
	}
}

func TestAcceptIncoming_zeroValue(t *testing.T) {
	svc, chain := newService(treasury.NewMemoryBank())

	// Incoming value is accepted unconditionally; a zero-value deposit
	// leaves the balance alone but still lands on the chain.
	balance, err := svc.AcceptIncoming(ctx, 0, "0xsender")
	if err != nil {
		t.Fatalf("zero deposit should be accepted: %v", err)
	}
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}

	tip, err := chain.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if tip.Type != events.TypeFundsReceived || tip.Actor != "0xsender" {
		t.Errorf("chain tip = %+v, want funds.received from 0xsender", tip)
	}
}

func TestAcceptIncoming_rejectsNegative(t *testing.T) {
	svc, chain := newService(treasury.NewMemoryBank())

	if _, err := svc.AcceptIncoming(ctx, -5, "0xsender"); !errors.Is(err, treasury.ErrInvalidAmount) {
		t.Errorf("negative amount: got %v, want ErrInvalidAmount", err)
	}
	if n, _ := chain.Len(ctx); n != 1 { // genesis only
		t.Errorf("chain length = %d, want 1", n)
	}
}

func TestWithdrawAll(t *testing.T) {
	bank := treasury.NewMemoryBank()
	svc, _ := newService(bank)

	if _, err := svc.AcceptIncoming(ctx, 75, "0xsender"); err != nil {
		t.Fatal(err)
	}

	amount, err := svc.WithdrawAll(ctx, controller)
	if err != nil {
		t.Fatal(err)
	}
	if amount != 75 {
		t.Errorf("withdrew %d, want 75", amount)
	}

	balance, _ := svc.Balance(ctx)
	if balance != 0 {
		t.Errorf("balance after WithdrawAll = %d, want 0", balance)
	}
	if got := bank.BalanceOf(controller); got != 75 {
		t.Errorf("controller received %d, want 75", got)
	}
}

func TestAcceptIncoming_appendFailureRefundsCredit(t *testing.T) {
	auth := access.NewService(access.NewMemoryStore(controller), events.NewMemoryChain(), zap.NewNop())
	svc := treasury.NewService(treasury.NewMemoryStore(), auth, treasury.NewMemoryBank(), failingChain{}, zap.NewNop())

	if _, err := svc.AcceptIncoming(ctx, 40, "0xsender"); err == nil {
		t.Fatal("deposit should fail when its event cannot be recorded")
	}

	// An error return must leave the balance where it started.
	balance, err := svc.Balance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if balance != 0 {
		t.Errorf("balance = %d, want 0 after failed deposit", balance)
	}
}

func TestWithdrawAll_appendFailureStillReleases(t *testing.T) {
	// The release precedes the event and cannot be taken back, so an
	// event-log outage must not abort an already completed withdrawal.
	store := treasury.NewMemoryStore()
	if _, err := store.Credit(ctx, 60); err != nil {
		t.Fatal(err)
	}
	bank := treasury.NewMemoryBank()
	auth := access.NewService(access.NewMemoryStore(controller), events.NewMemoryChain(), zap.NewNop())
	svc := treasury.NewService(store, auth, bank, failingChain{}, zap.NewNop())

	amount, err := svc.WithdrawAll(ctx, controller)
	if err != nil {
		t.Fatalf("WithdrawAll should survive an event-log outage: %v", err)
	}
	if amount != 60 {
		t.Errorf("withdrew %d, want 60", amount)
	}
	if got := bank.BalanceOf(controller); got != 60 {
		t.Errorf("controller received %d, want 60", got)
	}
}

func TestWithdrawAll_requiresController(t *testing.T) {
	svc, _ := newService(treasury.NewMemoryBank())

	if _, err := svc.AcceptIncoming(ctx, 10, "0xsender"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.WithdrawAll(ctx, "0xmallory"); !errors.Is(err, access.ErrNotAuthorized) {
		t.Errorf("got %v, want ErrNotAuthorized", err)
	}

	balance, _ := svc.Balance(ctx)
	if balance != 10 {
		t.Errorf("balance changed on rejected withdrawal: %d", balance)
	}
}

func TestWithdrawAll_emptyTreasury(t *testing.T) {
	svc, _ := newService(treasury.NewMemoryBank())

	if _, err := svc.WithdrawAll(ctx, controller); !errors.Is(err, treasury.ErrNoFunds) {
		t.Errorf("got %v, want ErrNoFunds", err)
	}
}

func TestWithdrawAll_releaseFailureRestoresBalance(t *testing.T) {
	svc, chain := newService(failingReleaser{})

	if _, err := svc.AcceptIncoming(ctx, 50, "0xsender"); err != nil {
		t.Fatal(err)
	}

	_, err := svc.WithdrawAll(ctx, controller)
	if !errors.Is(err, treasury.ErrTransferFailed) {
		t.Errorf("got %v, want ErrTransferFailed", err)
	}

	balance, _ := svc.Balance(ctx)
	if balance != 50 {
		t.Errorf("balance = %d, want 50 after aborted withdrawal", balance)
	}

	// Only the deposit event should exist; no withdrawal was completed.
	n, _ := chain.Len(ctx)
	if n != 2 { // genesis + funds.received
		t.Errorf("chain length = %d, want 2", n)
	}
}

func TestTransferTo(t *testing.T) {
	bank := treasury.NewMemoryBank()
	svc, _ := newService(bank)

	if _, err := svc.AcceptIncoming(ctx, 100, "0xsender"); err != nil {
		t.Fatal(err)
	}

	if err := svc.TransferTo(ctx, "0xbob", 40, controller); err != nil {
		t.Fatal(err)
	}

	balance, _ := svc.Balance(ctx)
	if balance != 60 {
		t.Errorf("balance = %d, want 60", balance)
	}
	if got := bank.BalanceOf("0xbob"); got != 40 {
		t.Errorf("0xbob received %d, want 40", got)
	}
}

func TestTransferTo_validation(t *testing.T) {
	svc, _ := newService(treasury.NewMemoryBank())

	if _, err := svc.AcceptIncoming(ctx, 100, "0xsender"); err != nil {
		t.Fatal(err)
	}

	if err := svc.TransferTo(ctx, "0xbob", 40, "0xmallory"); !errors.Is(err, access.ErrNotAuthorized) {
		t.Errorf("non-controller: got %v, want ErrNotAuthorized", err)
	}
	if err := svc.TransferTo(ctx, "", 40, controller); !errors.Is(err, treasury.ErrInvalidRecipient) {
		t.Errorf("empty recipient: got %v, want ErrInvalidRecipient", err)
	}
	if err := svc.TransferTo(ctx, "0xbob", 101, controller); !errors.Is(err, treasury.ErrInsufficientFunds) {
		t.Errorf("overdraft: got %v, want ErrInsufficientFunds", err)
	}
	if err := svc.TransferTo(ctx, "0xbob", 0, controller); !errors.Is(err, treasury.ErrInvalidAmount) {
		t.Errorf("zero amount: got %v, want ErrInvalidAmount", err)
	}

	balance, _ := svc.Balance(ctx)
	if balance != 100 {
		t.Errorf("balance = %d, want 100 after rejected transfers", balance)
	}
}

func TestTransferTo_releaseFailureRestoresBalance(t *testing.T) {
	svc, _ := newService(failingReleaser{})

	if _, err := svc.AcceptIncoming(ctx, 100, "0xsender"); err != nil {
		t.Fatal(err)
	}

	err := svc.TransferTo(ctx, "0xbob", 40, controller)
	if !errors.Is(err, treasury.ErrTransferFailed) {
		t.Errorf("got %v, want ErrTransferFailed", err)
	}

	balance, _ := svc.Balance(ctx)
	if balance != 100 {
		t.Errorf("balance = %d, want 100 after aborted transfer", balance)
	}
}

// TestConservation exercises a mixed deposit/withdraw/transfer sequence and
// checks that the balance always equals accepted minus released.
func TestConservation(t *testing.T) {
	bank := treasury.NewMemoryBank()
	svc, _ := newService(bank)

	var accepted, released int64
	deposit := func(amount int64) {
		t.Helper()
		if _, err := svc.AcceptIncoming(ctx, amount, "0xsender"); err != nil {
			t.Fatal(err)
		}
		accepted += amount
	}

	deposit(100)
	deposit(250)

	if err := svc.TransferTo(ctx, "0xbob", 80, controller); err != nil {
		t.Fatal(err)
	}
	released += 80

	deposit(30)

	amount, err := svc.WithdrawAll(ctx, controller)
	if err != nil {
		t.Fatal(err)
	}
	released += amount

	balance, _ := svc.Balance(ctx)
	if balance != accepted-released {
		t.Errorf("balance = %d, want %d", balance, accepted-released)
	}
	if balance != 0 {
		t.Errorf("WithdrawAll must drain to exactly 0, got %d", balance)
	}
	if total := bank.BalanceOf("0xbob") + bank.BalanceOf(controller); total != released {
		t.Errorf("bank received %d, want %d", total, released)
	}
}
