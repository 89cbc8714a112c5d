package access

import (
	"context"
	"fmt"

	"github.com/ClipXonchain/proofledger/internal/events"
	"go.uber.org/zap"
)

// Notifier is an optional callback for fanning ownership events out to
// external subscribers.
type Notifier func(ctx context.Context, eventType string, payload map[string]string)

// Service implements controller reads, the capability check, and the
// ownership-transfer operation.
type Service struct {
	store  Store
	chain  events.Chain // nil = no event recording
	notify Notifier     // nil = no webhook fan-out
	logger *zap.Logger
}

// NewService creates an access Service.
func NewService(store Store, chain events.Chain, logger *zap.Logger) *Service {
	return &Service{store: store, chain: chain, logger: logger}
}

// SetNotifier configures the webhook fan-out callback.
func (s *Service) SetNotifier(fn Notifier) {
	s.notify = fn
}

// Current returns the controller address.
func (s *Service) Current(ctx context.Context) (string, error) {
	return s.store.Current(ctx)
}

// Authorize returns nil iff caller is the current controller. Privileged
// operations call this before touching any other state.
func (s *Service) Authorize(ctx context.Context, caller string) error {
	current, err := s.store.Current(ctx)
	if err != nil {
		return fmt.Errorf("read controller: %w", err)
	}
	if caller == "" || caller != current {
		return ErrNotAuthorized
	}
	return nil
}

// Transfer hands the controller role from caller to next. Only the current
// controller may transfer, and the target must be non-empty.
func (s *Service) Transfer(ctx context.Context, next, caller string) error {
	if next == "" {
		return ErrInvalidAddress
	}
	if err := s.Authorize(ctx, caller); err != nil {
		return err
	}

	if err := s.store.Replace(ctx, caller, next); err != nil {
		return err
	}

	payload := map[string]string{
		"previous": caller,
		"next":     next,
	}

	if s.chain != nil {
		if _, err := s.chain.Append(ctx, events.TypeControllerTransferred, caller, next, payload); err != nil {
			// A handover without its event must not stand: swap the
			// controller back so an error return leaves no observable state.
			if undoErr := s.store.Replace(ctx, next, caller); undoErr != nil {
				s.logger.Error("unwind controller transfer",
					zap.String("next", next), zap.Error(undoErr))
			}
			s.logger.Error("record ownership event", zap.Error(err))
			return fmt.Errorf("record ownership event: %w", err)
		}
	}

	if s.notify != nil {
		s.notify(ctx, events.TypeControllerTransferred, payload)
	}

	s.logger.Info("controller transferred",
		zap.String("previous", caller),
		zap.String("next", next),
	)
	return nil
}
