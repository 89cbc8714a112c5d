package treasury

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ClipXonchain/proofledger/internal/events"
	"go.uber.org/zap"
)

// Authorizer gates privileged treasury operations.
// *access.Service satisfies this interface.
type Authorizer interface {
	Authorize(ctx context.Context, caller string) error
	Current(ctx context.Context) (string, error)
}

// Notifier is an optional callback for fanning treasury events out to
// external subscribers.
type Notifier func(ctx context.Context, eventType string, payload map[string]string)

// Service implements deposits, withdrawals, and directed transfers over the
// held balance.
type Service struct {
	store    Store
	auth     Authorizer
	releaser Releaser
	chain    events.Chain // nil = no event recording
	notify   Notifier     // nil = no webhook fan-out
	logger   *zap.Logger
}

// NewService creates a treasury Service.
func NewService(store Store, auth Authorizer, releaser Releaser, chain events.Chain, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		auth:     auth,
		releaser: releaser,
		chain:    chain,
		logger:   logger,
	}
}

// SetNotifier configures the webhook fan-out callback.
func (s *Service) SetNotifier(fn Notifier) {
	s.notify = fn
}

// Balance returns the current held balance.
func (s *Service) Balance(ctx context.Context) (int64, error) {
	return s.store.Balance(ctx)
}

// AcceptIncoming credits amount to the balance unconditionally, zero
// included. It is the deposit path for every value-bearing call, including
// the dispatch layer's default handler for requests that match no named
// operation. The deposit either fully succeeds (balance credited, event
// recorded) or fully fails with the balance unchanged.
func (s *Service) AcceptIncoming(ctx context.Context, amount int64, sender string) (int64, error) {
	balance, err := s.store.Credit(ctx, amount)
	if err != nil {
		return 0, err
	}

	payload := map[string]string{
		"sender": sender,
		"amount": strconv.FormatInt(amount, 10),
	}

	if s.chain != nil {
		if _, err := s.chain.Append(ctx, events.TypeFundsReceived, sender, "", payload); err != nil {
			// A deposit without its event must not stand: debit the credit
			// back so an error return leaves the balance unchanged.
			if amount > 0 {
				if _, undoErr := s.store.Debit(ctx, amount); undoErr != nil {
					s.logger.Error("unwind deposit",
						zap.Int64("amount", amount), zap.Error(undoErr))
				}
			}
			s.logger.Error("record deposit event", zap.Error(err))
			return 0, fmt.Errorf("record deposit event: %w", err)
		}
	}

	if s.notify != nil {
		s.notify(ctx, events.TypeFundsReceived, payload)
	}

	s.logger.Info("funds received",
		zap.String("sender", sender),
		zap.Int64("amount", amount),
		zap.Int64("balance", balance),
	)
	return balance, nil
}

// WithdrawAll drains the entire balance to the controller. Only the current
// controller may withdraw, and the balance must be positive. The debit is
// committed before the release call; a failed release is compensated and
// reported as ErrTransferFailed.
func (s *Service) WithdrawAll(ctx context.Context, caller string) (int64, error) {
	if err := s.auth.Authorize(ctx, caller); err != nil {
		return 0, err
	}

	amount, err := s.store.DebitAll(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.releaser.Release(ctx, caller, amount); err != nil {
		if _, creditErr := s.store.Credit(ctx, amount); creditErr != nil {
			// The refund itself failed; this needs operator attention.
			s.logger.Error("withdrawal refund failed",
				zap.Int64("amount", amount), zap.Error(creditErr))
		}
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	s.emit(ctx, events.TypeFundsWithdrawn, caller, caller, map[string]string{
		"controller": caller,
		"amount":     strconv.FormatInt(amount, 10),
	})

	s.logger.Info("funds withdrawn",
		zap.String("controller", caller),
		zap.Int64("amount", amount),
	)
	return amount, nil
}

// TransferTo releases amount to recipient. Only the current controller may
// transfer; the recipient must be non-empty and the amount covered by the
// balance. Same debit-before-release ordering as WithdrawAll.
func (s *Service) TransferTo(ctx context.Context, recipient string, amount int64, caller string) error {
	if err := s.auth.Authorize(ctx, caller); err != nil {
		return err
	}
	if recipient == "" {
		return ErrInvalidRecipient
	}

	if _, err := s.store.Debit(ctx, amount); err != nil {
		return err
	}

	if err := s.releaser.Release(ctx, recipient, amount); err != nil {
		if _, creditErr := s.store.Credit(ctx, amount); creditErr != nil {
			s.logger.Error("transfer refund failed",
				zap.Int64("amount", amount), zap.Error(creditErr))
		}
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	s.emit(ctx, events.TypeFundsTransferred, caller, recipient, map[string]string{
		"controller": caller,
		"recipient":  recipient,
		"amount":     strconv.FormatInt(amount, 10),
	})

	s.logger.Info("funds transferred",
		zap.String("controller", caller),
		zap.String("recipient", recipient),
		zap.Int64("amount", amount),
	)
	return nil
}

// emit records an event for an outbound release that has already happened.
// The release is irreversible and the chain append-only, so a failed append
// here can neither abort the operation nor be unwound; it is logged for
// operator reconciliation.
func (s *Service) emit(ctx context.Context, eventType, actor, subject string, payload map[string]string) {
	if s.chain != nil {
		if _, err := s.chain.Append(ctx, eventType, actor, subject, payload); err != nil {
			s.logger.Error("record treasury event",
				zap.String("type", eventType), zap.Error(err))
		}
	}
	if s.notify != nil {
		s.notify(ctx, eventType, payload)
	}
}
