package rpcsrv

import (
	"github.com/glowsphere/glowsphere/pkg/sphererpc"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
)

type (
	// subscriber is an event subscriber.
	subscriber struct {
		writer    chan<- *websocket.PreparedMessage
		ws        *websocket.Conn
		overflown atomic.Bool
		// These work like slots as there is not a lot of them (it's
		// cheaper doing it this way rather than creating a map).
		feeds [maxFeeds]feed
	}
	// feed stores subscriber's desired event ID with filter.
	feed struct {
		id     uuid.UUID
		event  sphererpc.EventID
		filter any
	}
)

// EventID implements rpcevent.Comparator interface and returns notification ID.
func (f feed) EventID() sphererpc.EventID {
	return f.event
}

// Filter implements rpcevent.Comparator interface and returns notification filter.
func (f feed) Filter() any {
	return f.filter
}

const (
	// Maximum number of subscriptions per one client.
	maxFeeds = 16

	// This sets notification messages buffer depth. Event generation is
	// spiky (a block with hundreds of transactions produces hundreds of
	// receipts at once) while the network side is slow, this channel only
	// holds pointers.
	notificationBufSize = 1024
)
