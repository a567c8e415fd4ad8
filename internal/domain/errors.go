package domain

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound covers a missing message, one that is already read, and one
	// addressed to somebody else.
	ErrNotFound        = errors.New("message not found")
	ErrUnauthenticated = errors.New("unauthenticated")
)
