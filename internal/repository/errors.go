// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow the service layer to tell
// apart the failure scenarios it must react to.  ErrNotFound means the
// row does not exist, while ErrConflict signals that a unique key rejected
// the write (for example a seat that already belongs to another order).
package repository

import "errors"

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with a unique key.  For
// order items and tickets this means the seat is already taken for the
// event.
var ErrConflict = errors.New("conflict")
