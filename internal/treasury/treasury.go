// Package treasury implements the registry's custodial balance: it accepts
// incoming value unconditionally and releases it only through
// controller-authorized operations.
//
// The one subtle correctness property lives here: the balance debit is
// finalized in the store *before* the external release call is issued
// (check-effects-interact). A recipient able to re-enter the registry while
// the release is in flight observes a balance that is already reduced, so
// the same funds can never be released twice. When the release itself
// fails, the debit is compensated and the operation reports
// ErrTransferFailed with the balance back where it started.
package treasury

import (
	"context"
	"errors"
)

// ErrNoFunds is returned by WithdrawAll when the balance is zero.
var ErrNoFunds = errors.New("treasury balance is zero")

// ErrInsufficientFunds is returned when a transfer requests more than the
// current balance.
var ErrInsufficientFunds = errors.New("amount exceeds treasury balance")

// ErrInvalidRecipient is returned when a transfer targets an empty address.
var ErrInvalidRecipient = errors.New("recipient address must not be empty")

// ErrInvalidAmount is returned when a deposit carries a negative amount or
// a debit a non-positive one.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrTransferFailed is returned when the external release mechanism reports
// failure. The balance is left unchanged.
var ErrTransferFailed = errors.New("value release failed")

// Releaser is the external mechanism that moves value out of the registry.
// Capturing value transport is outside the core; production deployments
// plug in whatever settlement rail they use.
type Releaser interface {
	Release(ctx context.Context, recipient string, amount int64) error
}

// Store is the persistence interface for the held balance.
// Both MemoryStore and PostgresStore implement this interface.
// The balance is never observable below zero.
type Store interface {
	// Balance returns the current balance.
	Balance(ctx context.Context) (int64, error)

	// Credit adds amount (>= 0) and returns the new balance. A zero
	// credit leaves the balance untouched but is not an error; incoming
	// value is accepted unconditionally.
	Credit(ctx context.Context, amount int64) (int64, error)

	// Debit atomically subtracts amount, failing with ErrInsufficientFunds
	// when amount exceeds the balance. Returns the new balance.
	Debit(ctx context.Context, amount int64) (int64, error)

	// DebitAll atomically drains the balance to zero and returns the
	// drained amount, failing with ErrNoFunds when it is already zero.
	DebitAll(ctx context.Context) (int64, error)
}
