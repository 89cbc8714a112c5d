// Package access owns the registry's single controller identity and gates
// every privileged operation on it.
//
// The controller is an opaque address string, initialised at bootstrap to
// the configured deployer address and replaceable only by the current
// controller. The capability check is an explicit function (Authorize)
// invoked at the top of each privileged operation, before any state is
// read or written.
package access

import (
	"context"
	"errors"
)

// ErrNotAuthorized is returned when the caller is not the current controller.
var ErrNotAuthorized = errors.New("caller is not the controller")

// ErrInvalidAddress is returned when an ownership transfer targets an empty
// address.
var ErrInvalidAddress = errors.New("controller address must not be empty")

// Store is the persistence interface for the controller identity.
// Both MemoryStore and PostgresStore implement this interface.
type Store interface {
	// Current returns the controller address, or "" if not initialised.
	Current(ctx context.Context) (string, error)

	// Init sets the controller address only if none is set yet.
	Init(ctx context.Context, addr string) error

	// Replace atomically swaps the controller from expected to next.
	// It returns ErrNotAuthorized when the stored address is not expected.
	Replace(ctx context.Context, expected, next string) error
}
