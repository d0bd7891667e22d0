package manifest

import (
	"errors"
	"fmt"

	"github.com/glowsphere/glowsphere/pkg/smartcontract"
)

// Parameter represents a contract method parameter definition.
type Parameter struct {
	Name string                  `json:"name"`
	Type smartcontract.ParamType `json:"type"`
}

// Method represents method's metadata.
type Method struct {
	Name       string                  `json:"name"`
	Parameters []Parameter             `json:"parameters"`
	ReturnType smartcontract.ParamType `json:"returntype"`
	// Safe methods are read-only, they never change the state.
	Safe bool `json:"safe"`
}

// Event is a description of a single event.
type Event struct {
	Name       string      `json:"name"`
	Parameters []Parameter `json:"parameters"`
}

// NewParameter returns a new parameter of the specified name and type.
func NewParameter(name string, typ smartcontract.ParamType) Parameter {
	return Parameter{
		Name: name,
		Type: typ,
	}
}

// IsValid checks method definition consistency.
func (m *Method) IsValid() error {
	if m.Name == "" {
		return errors.New("empty name")
	}
	names := make(map[string]struct{}, len(m.Parameters))
	for i := range m.Parameters {
		if m.Parameters[i].Name == "" {
			return fmt.Errorf("parameter #%d has no name", i)
		}
		if _, ok := names[m.Parameters[i].Name]; ok {
			return fmt.Errorf("duplicate parameter %q", m.Parameters[i].Name)
		}
		names[m.Parameters[i].Name] = struct{}{}
	}
	return nil
}

// CheckArgs checks that the given arguments match method parameters in
// number and types. AnyType parameter accepts everything.
func (m *Method) CheckArgs(args []smartcontract.Parameter) error {
	if len(args) != len(m.Parameters) {
		return fmt.Errorf("%s: expected %d arguments, got %d", m.Name, len(m.Parameters), len(args))
	}
	for i := range args {
		exp := m.Parameters[i].Type
		if exp != smartcontract.AnyType && args[i].Type != exp {
			return fmt.Errorf("%s: argument %q: expected %s, got %s", m.Name, m.Parameters[i].Name, exp, args[i].Type)
		}
	}
	return nil
}

// CheckCompliance checks that the given event payload matches the event
// definition.
func (e *Event) CheckCompliance(params []smartcontract.Parameter) error {
	if len(params) != len(e.Parameters) {
		return fmt.Errorf("%s: expected %d parameters, got %d", e.Name, len(e.Parameters), len(params))
	}
	for i := range params {
		if e.Parameters[i].Type != smartcontract.AnyType && params[i].Type != e.Parameters[i].Type {
			return fmt.Errorf("%s: parameter %q: expected %s, got %s", e.Name, e.Parameters[i].Name, e.Parameters[i].Type, params[i].Type)
		}
	}
	return nil
}
