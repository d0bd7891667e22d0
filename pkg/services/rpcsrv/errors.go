package rpcsrv

import (
	"errors"
	"net/http"

	"github.com/glowsphere/glowsphere/pkg/core"
	"github.com/glowsphere/glowsphere/pkg/core/glowsphere"
	"github.com/glowsphere/glowsphere/pkg/core/mempool"
	"github.com/glowsphere/glowsphere/pkg/core/transaction"
	"github.com/glowsphere/glowsphere/pkg/sphererpc"
)

// getHTTPCodeForError returns the HTTP status code used for the given
// JSON-RPC error of a single (non-batch) request.
func getHTTPCodeForError(respErr *sphererpc.Error) int {
	var httpCode int
	switch respErr.Code {
	case sphererpc.ParseErrorCode:
		httpCode = http.StatusBadRequest
	case sphererpc.InvalidRequestCode, sphererpc.InvalidParamsCode:
		httpCode = http.StatusUnprocessableEntity
	case sphererpc.MethodNotFoundCode:
		httpCode = http.StatusMethodNotAllowed
	case sphererpc.InternalServerErrorCode:
		httpCode = http.StatusInternalServerError
	default:
		httpCode = http.StatusOK
	}
	return httpCode
}

// submissionError converts transaction pooling errors into RPC errors.
func submissionError(err error) *sphererpc.Error {
	var rpcErr *sphererpc.Error
	switch {
	case errors.Is(err, core.ErrAlreadyExists), errors.Is(err, mempool.ErrDup):
		rpcErr = sphererpc.ErrAlreadyExists
	case errors.Is(err, mempool.ErrOOM):
		rpcErr = sphererpc.ErrMempoolCapReached
	case errors.Is(err, core.ErrTxExpired), errors.Is(err, core.ErrTxValidUntilTooFar):
		rpcErr = sphererpc.ErrExpiredTransaction
	case errors.Is(err, transaction.ErrInvalidSignature), errors.Is(err, transaction.ErrNoSender):
		rpcErr = sphererpc.ErrInvalidSignature
	case errors.Is(err, glowsphere.ErrMethodNotFound):
		rpcErr = sphererpc.ErrUnknownContractMethod
	default:
		rpcErr = sphererpc.ErrValidationFailed
	}
	return sphererpc.WrapErrorWithData(rpcErr, err.Error())
}

// invocationError converts read-only call errors into RPC errors. Bad
// argument values rejected by a safe method are invalid params.
func invocationError(err error) *sphererpc.Error {
	switch {
	case errors.Is(err, glowsphere.ErrMethodNotFound):
		return sphererpc.WrapErrorWithData(sphererpc.ErrUnknownContractMethod, err.Error())
	case errors.Is(err, glowsphere.ErrInvalidArgs), errors.Is(err, glowsphere.ErrInvalidInput):
		return sphererpc.WrapErrorWithData(sphererpc.ErrInvalidParams, err.Error())
	default:
		return sphererpc.NewInternalServerError(err.Error())
	}
}
