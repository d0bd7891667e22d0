package manifest

import (
	"errors"
	"fmt"
)

// ABI represents a contract application binary interface.
type ABI struct {
	Methods []Method `json:"methods"`
	Events  []Event  `json:"events"`
}

// Manifest represents contract metadata.
type Manifest struct {
	// Name is a contract's name.
	Name string `json:"name"`
	// ABI is a contract's ABI.
	ABI ABI `json:"abi"`
	// Extra is an implementation-defined user data.
	Extra any `json:"extra,omitempty"`
}

// NewManifest returns a new manifest with necessary fields initialized.
func NewManifest(name string) *Manifest {
	return &Manifest{
		Name: name,
		ABI: ABI{
			Methods: []Method{},
			Events:  []Event{},
		},
	}
}

// GetMethod returns the method with the specified name.
func (a *ABI) GetMethod(name string) *Method {
	for i := range a.Methods {
		if a.Methods[i].Name == name {
			return &a.Methods[i]
		}
	}
	return nil
}

// GetEvent returns the event with the specified name.
func (a *ABI) GetEvent(name string) *Event {
	for i := range a.Events {
		if a.Events[i].Name == name {
			return &a.Events[i]
		}
	}
	return nil
}

// IsValid checks manifest internal consistency: it must have a name,
// method and event names must be unique and non-empty.
func (m *Manifest) IsValid() error {
	if m.Name == "" {
		return errors.New("no name")
	}
	if len(m.ABI.Methods) == 0 {
		return errors.New("no methods")
	}
	methods := make(map[string]struct{}, len(m.ABI.Methods))
	for i := range m.ABI.Methods {
		if err := m.ABI.Methods[i].IsValid(); err != nil {
			return fmt.Errorf("method %q: %w", m.ABI.Methods[i].Name, err)
		}
		if _, ok := methods[m.ABI.Methods[i].Name]; ok {
			return fmt.Errorf("duplicate method %q", m.ABI.Methods[i].Name)
		}
		methods[m.ABI.Methods[i].Name] = struct{}{}
	}
	events := make(map[string]struct{}, len(m.ABI.Events))
	for i := range m.ABI.Events {
		if m.ABI.Events[i].Name == "" {
			return errors.New("empty event name")
		}
		if _, ok := events[m.ABI.Events[i].Name]; ok {
			return fmt.Errorf("duplicate event %q", m.ABI.Events[i].Name)
		}
		events[m.ABI.Events[i].Name] = struct{}{}
	}
	return nil
}
