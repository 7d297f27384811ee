package entity

import "errors"

// Domain-level sentinel errors shared across use cases.
// ErrNotFound indicates a provider explicitly reported no data for the
// requested symbol (as opposed to a transport failure).
var ErrNotFound = errors.New("entity: not found")
