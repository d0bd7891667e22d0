package mempoolevent

import (
	"encoding/json"
	"fmt"

	"github.com/glowsphere/glowsphere/pkg/core/transaction"
)

// Type is the kind of change that happened to the pool.
type Type byte

// Pool event kinds.
const (
	TransactionAdded   Type = 0x01
	TransactionRemoved Type = 0x02
)

var typeNames = map[Type]string{
	TransactionAdded:   "added",
	TransactionRemoved: "removed",
}

// Event is sent to pool subscribers whenever a pending call transaction
// enters or leaves the pool. Removal happens both on block inclusion and on
// expiration.
type Event struct {
	Type Type                     `json:"type"`
	Tx   *transaction.Transaction `json:"transaction"`
}

func (e Type) String() string {
	if s, ok := typeNames[e]; ok {
		return s
	}
	return "unknown"
}

// ParseType returns the Type with the given name ("added" or "removed").
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("invalid pool event type %q", s)
}

// MarshalJSON implements the json.Marshaler interface.
func (e Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (e *Type) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := ParseType(s)
	if err != nil {
		return err
	}
	*e = t
	return nil
}
