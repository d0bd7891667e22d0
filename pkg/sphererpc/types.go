/*
Package sphererpc contains a set of types used for JSON-RPC communication with
GlowSphere nodes. It defines basic request/response types as well as a set of
errors and additional parameters used for specific requests/responses.
*/
package sphererpc

import (
	"encoding/json"

	"github.com/glowsphere/glowsphere/pkg/util"
)

const (
	// JSONRPCVersion is the only JSON-RPC protocol version supported.
	JSONRPCVersion = "2.0"
)

type (
	// Request represents JSON-RPC request. It's generic enough to be used in
	// many generic JSON-RPC communication scenarios, yet at the same time it's
	// tailored for the GlowSphere RPC client needs.
	Request struct {
		// JSONRPC is the protocol version, only valid when it contains JSONRPCVersion.
		JSONRPC string `json:"jsonrpc"`
		// Method is the method being called.
		Method string `json:"method"`
		// Params is a set of method-specific parameters passed to the call.
		// All GlowSphere calls expect params to be an array.
		Params []any `json:"params"`
		// ID is an identifier associated with this request. The client uses
		// numeric identifiers.
		ID uint64 `json:"id"`
	}

	// Header is a generic JSON-RPC 2.0 response header (ID and JSON-RPC version).
	Header struct {
		ID      json.RawMessage `json:"id"`
		JSONRPC string          `json:"jsonrpc"`
	}

	// HeaderAndError adds an Error (that can be empty) to the Header, it's used
	// to construct type-specific responses.
	HeaderAndError struct {
		Header
		Error *Error `json:"error,omitempty"`
	}

	// Response represents a standard raw JSON-RPC 2.0
	// response: http://www.jsonrpc.org/specification#response_object.
	Response struct {
		HeaderAndError
		Result json.RawMessage `json:"result,omitempty"`
	}

	// Notification is a type used to represent wire format of events, they're
	// special in that they look like requests but they don't have IDs and their
	// "method" is actually an event name.
	Notification struct {
		JSONRPC string  `json:"jsonrpc"`
		Event   EventID `json:"method"`
		Payload []any   `json:"params"`
	}

	// BlockFilter is a wrapper structure for the block event filter. It
	// allows to limit notifications to a range of block indexes.
	BlockFilter struct {
		Since *uint32 `json:"since,omitempty"`
		Till  *uint32 `json:"till,omitempty"`
	}
	// ExecutionFilter is a wrapper structure used for transaction_executed
	// events. It allows to choose receipts by sender, method and outcome.
	// State is one of "ok", "err" or "fault".
	ExecutionFilter struct {
		Sender *util.Uint160 `json:"sender,omitempty"`
		Method *string       `json:"method,omitempty"`
		State  *string       `json:"state,omitempty"`
	}

	// MempoolEventFilter is a wrapper structure for mempool events. It allows
	// to filter pooled transactions by sender and event type ("added" or
	// "removed").
	MempoolEventFilter struct {
		Sender *util.Uint160 `json:"sender,omitempty"`
		Type   *string       `json:"type,omitempty"`
	}
)

// EventID implements EventContainer interface and returns notification ID.
func (n *Notification) EventID() EventID {
	return n.Event
}

// EventPayload implements EventContainer interface and returns notification
// object.
func (n *Notification) EventPayload() any {
	return n.Payload[0]
}

// Execution states used by ExecutionFilter.
const (
	ExecutionOK    = "ok"
	ExecutionErr   = "err"
	ExecutionFault = "fault"
)
