package glowsphere

import (
	"errors"
	"strconv"
)

// Error is a contract failure carrying an unsigned error code. Public methods
// failing with Error return (err code) responses and have all of their
// storage changes reverted.
type Error uint64

// Contract error codes.
const (
	ErrNotAuthorized Error = 100
	ErrNotFound      Error = 101
	ErrAlreadyExists Error = 102
	ErrInvalidInput  Error = 103
	ErrSelfFollow    Error = 104
	ErrNotLiked      Error = 105
)

// Errors returned for calls that can't be executed at all.
var (
	ErrMethodNotFound = errors.New("method not found")
	ErrInvalidArgs    = errors.New("invalid arguments")
	ErrTooManyEvents  = errors.New("too many notifications")
)

// Code returns the numeric code of the error.
func (e Error) Code() uint64 {
	return uint64(e)
}

// Error implements the error interface.
func (e Error) Error() string {
	switch e {
	case ErrNotAuthorized:
		return "err-not-authorized"
	case ErrNotFound:
		return "err-not-found"
	case ErrAlreadyExists:
		return "err-already-exists"
	case ErrInvalidInput:
		return "err-invalid-input"
	case ErrSelfFollow:
		return "err-self-follow"
	case ErrNotLiked:
		return "err-not-liked"
	default:
		return "err-u" + strconv.FormatUint(uint64(e), 10)
	}
}
