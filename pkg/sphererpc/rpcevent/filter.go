package rpcevent

import (
	"github.com/glowsphere/glowsphere/pkg/core/block"
	"github.com/glowsphere/glowsphere/pkg/core/mempoolevent"
	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/sphererpc"
)

type (
	// Comparator is an interface required from notification event filter to be able to
	// filter notifications.
	Comparator interface {
		EventID() sphererpc.EventID
		Filter() any
	}
	// Container is an interface required from notification event to be able to
	// pass filter.
	Container interface {
		EventID() sphererpc.EventID
		EventPayload() any
	}
)

// ReceiptState returns the execution state of the receipt as used by
// sphererpc.ExecutionFilter.
func ReceiptState(r *state.Receipt) string {
	switch {
	case r.IsFault():
		return sphererpc.ExecutionFault
	case r.Response.OK:
		return sphererpc.ExecutionOK
	default:
		return sphererpc.ExecutionErr
	}
}

// Matches filters our given Container against Comparator filter.
func Matches(f Comparator, r Container) bool {
	expectedEvent := f.EventID()
	filter := f.Filter()
	if r.EventID() != expectedEvent {
		return false
	}
	if filter == nil {
		return true
	}
	switch f.EventID() {
	case sphererpc.BlockEventID:
		filt := filter.(sphererpc.BlockFilter)
		b := r.EventPayload().(*block.Block)
		sinceOk := filt.Since == nil || *filt.Since <= b.Index
		tillOk := filt.Till == nil || b.Index <= *filt.Till
		return sinceOk && tillOk
	case sphererpc.ExecutionEventID:
		filt := filter.(sphererpc.ExecutionFilter)
		receipt := r.EventPayload().(*state.Receipt)
		senderOk := filt.Sender == nil || receipt.Sender.Equals(*filt.Sender)
		methodOk := filt.Method == nil || receipt.Method == *filt.Method
		stateOk := filt.State == nil || ReceiptState(receipt) == *filt.State
		return senderOk && methodOk && stateOk
	case sphererpc.MempoolEventID:
		filt := filter.(sphererpc.MempoolEventFilter)
		e := r.EventPayload().(*mempoolevent.Event)
		senderOk := filt.Sender == nil || e.Tx.SenderHash().Equals(*filt.Sender)
		typeOk := filt.Type == nil || e.Type.String() == *filt.Type
		return senderOk && typeOk
	}
	return false
}
