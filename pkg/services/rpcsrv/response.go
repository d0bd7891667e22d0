package rpcsrv

import (
	"github.com/glowsphere/glowsphere/pkg/sphererpc"
)

type (
	// abstractResult is an interface which represents either single JSON-RPC 2.0 response
	// or batch JSON-RPC 2.0 response.
	abstractResult interface {
		RunForErrors(f func(jsonErr *sphererpc.Error))
	}

	// abstract represents abstract JSON-RPC 2.0 response. It is used as a server-side response
	// representation.
	abstract struct {
		sphererpc.Header
		Error  *sphererpc.Error `json:"error,omitempty"`
		Result any              `json:"result,omitempty"`
	}

	// abstractBatch represents abstract JSON-RPC 2.0 batch-response.
	abstractBatch []abstract
)

// RunForErrors implements abstractResult interface.
func (a abstract) RunForErrors(f func(jsonErr *sphererpc.Error)) {
	if a.Error != nil {
		f(a.Error)
	}
}

// RunForErrors implements abstractResult interface.
func (ab abstractBatch) RunForErrors(f func(jsonErr *sphererpc.Error)) {
	for _, a := range ab {
		a.RunForErrors(f)
	}
}
