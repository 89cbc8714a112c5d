package proof

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ClipXonchain/proofledger/internal/events"
	"go.uber.org/zap"
)

// Notifier is an optional callback for fanning registration events out to
// external subscribers. *webhooks.Service satisfies this signature.
type Notifier func(ctx context.Context, eventType string, payload map[string]string)

// Service contains the registration and lookup logic of the proof ledger.
type Service struct {
	store  Store
	chain  events.Chain // nil = no event recording
	notify Notifier     // nil = no webhook fan-out
	logger *zap.Logger
}

// NewService creates a proof Service. chain may be nil to disable event
// recording.
func NewService(store Store, chain events.Chain, logger *zap.Logger) *Service {
	return &Service{store: store, chain: chain, logger: logger}
}

// SetNotifier configures the webhook fan-out callback.
func (s *Service) SetNotifier(fn Notifier) {
	s.notify = fn
}

// Register binds cid to postID on behalf of caller. The registration either
// fully succeeds (both indices updated, event recorded) or fully fails with
// one of ErrEmptyCID, ErrEmptyPostID, ErrDuplicateCID, ErrDuplicatePostID
// and no state change.
func (s *Service) Register(ctx context.Context, cid, postID, caller string) (*Proof, error) {
	if cid == "" {
		return nil, ErrEmptyCID
	}
	if postID == "" {
		return nil, ErrEmptyPostID
	}

	p := &Proof{
		CID:          cid,
		PostID:       postID,
		RegisteredAt: time.Now().UTC(),
		Recorder:     caller,
	}

	if err := s.store.Insert(ctx, p); err != nil {
		return nil, err
	}

	payload := map[string]string{
		"cid":           p.CID,
		"post_id":       p.PostID,
		"recorder":      p.Recorder,
		"registered_at": strconv.FormatInt(p.RegisteredAt.Unix(), 10),
	}

	if s.chain != nil {
		if _, err := s.chain.Append(ctx, events.TypeScreenshotRegistered, caller, cid, payload); err != nil {
			// A registration without its event must not stand: unwind the
			// insert so an error return leaves no observable state.
			if delErr := s.store.Delete(ctx, cid); delErr != nil {
				s.logger.Error("unwind registration",
					zap.String("cid", cid), zap.Error(delErr))
			}
			s.logger.Error("record registration event", zap.String("cid", cid), zap.Error(err))
			return nil, fmt.Errorf("record registration event: %w", err)
		}
	}

	if s.notify != nil {
		s.notify(ctx, events.TypeScreenshotRegistered, payload)
	}

	s.logger.Info("screenshot registered",
		zap.String("cid", cid),
		zap.String("post_id", postID),
		zap.String("recorder", caller),
	)
	return p, nil
}

// Verify looks up a proof by CID. An unknown CID yields the zero Proof and
// no error; only infrastructure failures are reported.
func (s *Service) Verify(ctx context.Context, cid string) (*Proof, error) {
	p, err := s.store.GetByCID(ctx, cid)
	if errors.Is(err, ErrNotFound) {
		return &Proof{}, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ByPostID looks up a proof by post ID. An unknown post ID yields the zero
// Proof and no error, matching the Verify contract.
func (s *Service) ByPostID(ctx context.Context, postID string) (*Proof, error) {
	p, err := s.store.GetByPostID(ctx, postID)
	if errors.Is(err, ErrNotFound) {
		return &Proof{}, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Count returns the number of registered proofs.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
