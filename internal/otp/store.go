package otp

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when no live code exists for an email.
var ErrNotFound = errors.New("otp not found")

// Store keeps at most one pending code per email address.
type Store interface {
	// Get returns the pending code or ErrNotFound.
	Get(ctx context.Context, email string) (string, error)
	// Set stores code for email, replacing any pending one.
	Set(ctx context.Context, email, code string) error
	// Delete removes the pending code. Deleting a missing entry is not an error.
	Delete(ctx context.Context, email string) error
}
