package errors

import "errors"

var (
	ErrNotFound        = errors.New("slot request not found")
	ErrInvalidID       = errors.New("invalid slot request ID format")
	ErrStale           = errors.New("slot request state changed since read")
	ErrOpenNegotiation = errors.New("event already has an open slot request")
)
