package glowsphere

import (
	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// Storage is the key-value interface the contract works with. It's usually
// a per-call storage.MemCachedStore layer, so writes can be dropped when the
// call fails.
type Storage interface {
	Get([]byte) ([]byte, error)
	Put(key, value []byte)
	Delete(key []byte)
}

// Context is the execution context of a single contract call.
type Context struct {
	Store Storage
	// Caller is the tx-sender of the call.
	Caller util.Uint160
	// BlockIndex is the height of the block being processed (or the
	// current height for read-only calls).
	BlockIndex uint32
	// Events are notifications emitted during the call.
	Events []state.NotificationEvent
}

// NewContext returns a new call context.
func NewContext(s Storage, caller util.Uint160, index uint32) *Context {
	return &Context{
		Store:      s,
		Caller:     caller,
		BlockIndex: index,
		Events:     []state.NotificationEvent{},
	}
}

// Notify emits a notification.
func (ic *Context) Notify(name string, args ...smartcontract.Parameter) error {
	if len(ic.Events) >= state.MaxEventsPerCall {
		return ErrTooManyEvents
	}
	ic.Events = append(ic.Events, state.NotificationEvent{Name: name, Item: args})
	return nil
}
