package sphererpc

import (
	"fmt"
)

type (
	// Error represents JSON-RPC 2.0 error type.
	Error struct {
		Code    int64  `json:"code"`
		Message string `json:"message"`
		Data    string `json:"data,omitempty"`
	}
)

// Standard JSON-RPC 2.0 error codes.
const (
	// ParseErrorCode is returned when invalid JSON was received by the server.
	ParseErrorCode = -32700
	// InvalidRequestCode is returned when the JSON sent is not a valid Request object.
	InvalidRequestCode = -32600
	// MethodNotFoundCode is returned when the method does not exist / is not
	// available.
	MethodNotFoundCode = -32601
	// InvalidParamsCode is returned when method parameters are invalid.
	InvalidParamsCode = -32602
	// InternalServerErrorCode is returned on internal JSON-RPC errors.
	InternalServerErrorCode = -32603
)

// Application error codes.
const (
	// UnknownBlockCode is returned when the requested block is not in the chain.
	UnknownBlockCode = -101
	// UnknownReceiptCode is returned when there is no receipt for the given
	// transaction hash.
	UnknownReceiptCode = -103
	// ValidationFailedCode is returned for transactions failing verification.
	ValidationFailedCode = -500
	// AlreadyExistsCode is returned for transactions already pooled or included.
	AlreadyExistsCode = -501
	// MempoolCapReachedCode is returned when the memory pool is full.
	MempoolCapReachedCode = -502
	// ExpiredTransactionCode is returned for transactions with ValidUntilBlock
	// out of the acceptable range.
	ExpiredTransactionCode = -503
	// InvalidSignatureCode is returned for unsigned or badly signed transactions.
	InvalidSignatureCode = -504
	// UnknownContractMethodCode is returned for calls of methods the contract
	// doesn't have.
	UnknownContractMethodCode = -505
)

var (
	// ErrInvalidParams represents a generic "Invalid params" error.
	ErrInvalidParams = NewInvalidParamsError("")
	// ErrUnknownBlock is returned for missing blocks.
	ErrUnknownBlock = NewError(UnknownBlockCode, "Unknown block", "")
	// ErrUnknownReceipt is returned for transactions without receipt.
	ErrUnknownReceipt = NewError(UnknownReceiptCode, "Unknown transaction", "")
	// ErrValidationFailed is returned for transactions failing verification.
	ErrValidationFailed = NewError(ValidationFailedCode, "Verification failed", "")
	// ErrAlreadyExists is returned for duplicate transactions.
	ErrAlreadyExists = NewError(AlreadyExistsCode, "Already exists", "")
	// ErrMempoolCapReached is returned when the pool can't accept more transactions.
	ErrMempoolCapReached = NewError(MempoolCapReachedCode, "Memory pool is full", "")
	// ErrExpiredTransaction is returned for expired transactions.
	ErrExpiredTransaction = NewError(ExpiredTransactionCode, "Invalid ValidUntilBlock", "")
	// ErrInvalidSignature is returned for badly signed transactions.
	ErrInvalidSignature = NewError(InvalidSignatureCode, "Invalid signature", "")
	// ErrUnknownContractMethod is returned for unknown contract methods.
	ErrUnknownContractMethod = NewError(UnknownContractMethodCode, "Unknown contract method", "")
)

// NewError is an Error constructor that takes Error contents from its
// parameters.
func NewError(code int64, message string, data string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NewParseError creates a new error with code
// -32700.
func NewParseError(data string) *Error {
	return NewError(ParseErrorCode, "Parse error", data)
}

// NewInvalidRequestError creates a new error with
// code -32600.
func NewInvalidRequestError(data string) *Error {
	return NewError(InvalidRequestCode, "Invalid Request", data)
}

// NewMethodNotFoundError creates a new error with
// code -32601.
func NewMethodNotFoundError(data string) *Error {
	return NewError(MethodNotFoundCode, "Method not found", data)
}

// NewInvalidParamsError creates a new error with
// code -32602.
func NewInvalidParamsError(data string) *Error {
	return NewError(InvalidParamsCode, "Invalid params", data)
}

// NewInternalServerError creates a new error with
// code -32603.
func NewInternalServerError(data string) *Error {
	return NewError(InternalServerErrorCode, "Internal error", data)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Data) == 0 {
		return fmt.Sprintf("%s (%d)", e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%d) - %s", e.Message, e.Code, e.Data)
}

// Is denotes whether the error matches the target one.
func (e *Error) Is(target error) bool {
	clTarget, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == clTarget.Code
}

// WrapErrorWithData returns copy of the given error with the specified data
// and cause. It does not modify the source error.
func WrapErrorWithData(e *Error, data string) *Error {
	return NewError(e.Code, e.Message, data)
}
