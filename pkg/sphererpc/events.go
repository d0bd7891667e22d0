package sphererpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventID represents an event type happening on the chain.
type EventID byte

const (
	// InvalidEventID is an invalid event id that is the default value of
	// EventID. It's only used as an initial value similar to nil.
	InvalidEventID EventID = iota
	// BlockEventID is a `block_added` event.
	BlockEventID
	// ExecutionEventID is used for `transaction_executed` events.
	ExecutionEventID
	// MempoolEventID is used for `mempool_event` events.
	MempoolEventID
	// MissedEventID notifies user of missed events.
	MissedEventID EventID = 255
)

var eventNames = map[EventID]string{
	BlockEventID:     "block_added",
	ExecutionEventID: "transaction_executed",
	MempoolEventID:   "mempool_event",
	MissedEventID:    "event_missed",
}

// String is a good old Stringer implementation.
func (e EventID) String() string {
	if s, ok := eventNames[e]; ok {
		return s
	}
	return "unknown"
}

// GetEventIDFromString converts an input string into an EventID if it's possible.
func GetEventIDFromString(s string) (EventID, error) {
	for id, name := range eventNames {
		if name == s {
			return id, nil
		}
	}
	return 0, errors.New("invalid stream name")
}

// MarshalJSON implements the json.Marshaler interface.
func (e EventID) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (e *EventID) UnmarshalJSON(b []byte) error {
	var s string

	err := json.Unmarshal(b, &s)
	if err != nil {
		return err
	}
	id, err := GetEventIDFromString(s)
	if err != nil {
		return fmt.Errorf("failed to parse event ID from string %s: %w", s, err)
	}
	*e = id
	return nil
}
