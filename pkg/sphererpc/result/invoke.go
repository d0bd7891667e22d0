package result

import (
	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// Invoke represents a code invocation result and is used by several RPC calls
// that invoke contract methods without persisting anything.
type Invoke struct {
	Method     string                    `json:"method"`
	Caller     util.Uint160              `json:"caller"`
	BlockIndex uint32                    `json:"blockindex"`
	Response   smartcontract.Response    `json:"response"`
	Events     []state.NotificationEvent `json:"events"`
}

// NewInvoke builds the invocation result out of the read-only call receipt.
func NewInvoke(r *state.Receipt) *Invoke {
	events := r.Events
	if events == nil {
		events = []state.NotificationEvent{}
	}
	return &Invoke{
		Method:     r.Method,
		Caller:     r.Sender,
		BlockIndex: r.BlockIndex,
		Response:   r.Response,
		Events:     events,
	}
}
