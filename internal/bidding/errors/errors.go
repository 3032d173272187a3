package errors

import "errors"

var (
	ErrBidNotFound = errors.New("bid not found")

	ErrInvalidID = errors.New("invalid bid ID format")

	ErrAlreadyResolved = errors.New("listing already resolved")
)
