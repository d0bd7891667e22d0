package smartcontract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/glowsphere/glowsphere/pkg/encoding/address"
	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// MaxNestingDepth is the maximum depth of nested arrays and maps that can be
// decoded.
const MaxNestingDepth = 8

// Parameter represents a contract parameter. Value is nil for AnyType (none),
// bool for BoolType, uint64 for IntegerType, string for StringType,
// util.Uint160 for Hash160Type, []Parameter for ArrayType and
// []ParameterPair for MapType.
type Parameter struct {
	// Type of the parameter.
	Type ParamType `json:"type"`
	// The actual value of the parameter.
	Value any `json:"value"`
}

// ParameterPair represents key-value pair, a slice of which is stored in
// MapType Parameter.
type ParameterPair struct {
	Key   Parameter `json:"key"`
	Value Parameter `json:"value"`
}

// NewParameter returns a Parameter with proper initialized Value
// of the given ParamType.
func NewParameter(t ParamType) Parameter {
	return Parameter{
		Type:  t,
		Value: nil,
	}
}

// None returns an empty optional value.
func None() Parameter {
	return Parameter{Type: AnyType}
}

// NewBool returns a BoolType parameter.
func NewBool(b bool) Parameter {
	return Parameter{Type: BoolType, Value: b}
}

// NewInteger returns an IntegerType parameter.
func NewInteger(i uint64) Parameter {
	return Parameter{Type: IntegerType, Value: i}
}

// NewString returns a StringType parameter.
func NewString(s string) Parameter {
	return Parameter{Type: StringType, Value: s}
}

// NewHash160 returns a Hash160Type parameter.
func NewHash160(u util.Uint160) Parameter {
	return Parameter{Type: Hash160Type, Value: u}
}

// NewArray returns an ArrayType parameter.
func NewArray(items ...Parameter) Parameter {
	if items == nil {
		items = []Parameter{}
	}
	return Parameter{Type: ArrayType, Value: items}
}

// NewMap returns a MapType parameter with string keys in the given order.
func NewMap(pairs ...ParameterPair) Parameter {
	if pairs == nil {
		pairs = []ParameterPair{}
	}
	return Parameter{Type: MapType, Value: pairs}
}

// Pair is a shortcut for a string-keyed ParameterPair.
func Pair(key string, value Parameter) ParameterPair {
	return ParameterPair{Key: NewString(key), Value: value}
}

// NewParameterFromValue infers the parameter type from the given Go value and
// returns a Parameter holding it. Negative integers are rejected since the
// contract operates on unsigned values only.
func NewParameterFromValue(value any) (Parameter, error) {
	switch v := value.(type) {
	case nil:
		return None(), nil
	case Parameter:
		return v, nil
	case *Parameter:
		return *v, nil
	case bool:
		return NewBool(v), nil
	case uint64:
		return NewInteger(v), nil
	case uint32:
		return NewInteger(uint64(v)), nil
	case uint16:
		return NewInteger(uint64(v)), nil
	case uint8:
		return NewInteger(uint64(v)), nil
	case uint:
		return NewInteger(uint64(v)), nil
	case int:
		return newSignedInteger(int64(v))
	case int64:
		return newSignedInteger(v)
	case int32:
		return newSignedInteger(int64(v))
	case int16:
		return newSignedInteger(int64(v))
	case int8:
		return newSignedInteger(int64(v))
	case string:
		return NewString(v), nil
	case util.Uint160:
		return NewHash160(v), nil
	case *util.Uint160:
		return NewHash160(*v), nil
	case []Parameter:
		return NewArray(v...), nil
	case []ParameterPair:
		return NewMap(v...), nil
	case []string:
		arr := make([]Parameter, len(v))
		for i := range v {
			arr[i] = NewString(v[i])
		}
		return NewArray(arr...), nil
	case []any:
		arr := make([]Parameter, len(v))
		for i := range v {
			p, err := NewParameterFromValue(v[i])
			if err != nil {
				return Parameter{}, fmt.Errorf("item %d: %w", i, err)
			}
			arr[i] = p
		}
		return NewArray(arr...), nil
	default:
		return Parameter{}, fmt.Errorf("unsupported parameter %T", value)
	}
}

func newSignedInteger(i int64) (Parameter, error) {
	if i < 0 {
		return Parameter{}, fmt.Errorf("negative integer %d", i)
	}
	return NewInteger(uint64(i)), nil
}

// NewParametersFromValues is a helper for several NewParameterFromValue calls.
func NewParametersFromValues(values ...any) ([]Parameter, error) {
	res := make([]Parameter, 0, len(values))
	for i := range values {
		p, err := NewParameterFromValue(values[i])
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

// IsNone returns true for an empty optional value.
func (p Parameter) IsNone() bool {
	return p.Type == AnyType && p.Value == nil
}

// GetBoolean returns the boolean value of the parameter.
func (p Parameter) GetBoolean() (bool, error) {
	v, ok := p.Value.(bool)
	if p.Type != BoolType || !ok {
		return false, fmt.Errorf("expected Boolean, got %s", p.Type)
	}
	return v, nil
}

// GetInteger returns the integer value of the parameter.
func (p Parameter) GetInteger() (uint64, error) {
	v, ok := p.Value.(uint64)
	if p.Type != IntegerType || !ok {
		return 0, fmt.Errorf("expected Integer, got %s", p.Type)
	}
	return v, nil
}

// GetString returns the string value of the parameter.
func (p Parameter) GetString() (string, error) {
	v, ok := p.Value.(string)
	if p.Type != StringType || !ok {
		return "", fmt.Errorf("expected String, got %s", p.Type)
	}
	return v, nil
}

// GetHash160 returns the principal value of the parameter.
func (p Parameter) GetHash160() (util.Uint160, error) {
	v, ok := p.Value.(util.Uint160)
	if p.Type != Hash160Type || !ok {
		return util.Uint160{}, fmt.Errorf("expected Hash160, got %s", p.Type)
	}
	return v, nil
}

// GetArray returns the list value of the parameter.
func (p Parameter) GetArray() ([]Parameter, error) {
	v, ok := p.Value.([]Parameter)
	if p.Type != ArrayType || (!ok && p.Value != nil) {
		return nil, fmt.Errorf("expected Array, got %s", p.Type)
	}
	return v, nil
}

// GetMap returns the key-value pairs of the parameter.
func (p Parameter) GetMap() ([]ParameterPair, error) {
	v, ok := p.Value.([]ParameterPair)
	if p.Type != MapType || (!ok && p.Value != nil) {
		return nil, fmt.Errorf("expected Map, got %s", p.Type)
	}
	return v, nil
}

// MapValue returns the value stored under the given string key of a MapType
// parameter.
func (p Parameter) MapValue(key string) (Parameter, bool) {
	pairs, err := p.GetMap()
	if err != nil {
		return Parameter{}, false
	}
	for i := range pairs {
		if k, err := pairs[i].Key.GetString(); err == nil && k == key {
			return pairs[i].Value, true
		}
	}
	return Parameter{}, false
}

// String returns Clarity-like textual representation of the value. Typed
// parameters without a proper value (like a null Integer coming from JSON)
// are printed as <Type null>.
func (p Parameter) String() string {
	switch p.Type {
	case AnyType:
		return "none"
	case BoolType:
		if v, ok := p.Value.(bool); ok {
			return strconv.FormatBool(v)
		}
	case IntegerType:
		if v, ok := p.Value.(uint64); ok {
			return "u" + strconv.FormatUint(v, 10)
		}
	case StringType:
		if v, ok := p.Value.(string); ok {
			return strconv.Quote(v)
		}
	case Hash160Type:
		if v, ok := p.Value.(util.Uint160); ok {
			return address.Uint160ToString(v)
		}
	case ArrayType:
		arr, _ := p.Value.([]Parameter)
		var sb strings.Builder
		sb.WriteString("(list")
		for i := range arr {
			sb.WriteByte(' ')
			sb.WriteString(arr[i].String())
		}
		sb.WriteByte(')')
		return sb.String()
	case MapType:
		pairs, _ := p.Value.([]ParameterPair)
		var sb strings.Builder
		sb.WriteByte('{')
		for i := range pairs {
			if i != 0 {
				sb.WriteString(", ")
			}
			if k, err := pairs[i].Key.GetString(); err == nil {
				sb.WriteString(k)
			} else {
				sb.WriteString(pairs[i].Key.String())
			}
			sb.WriteString(": ")
			sb.WriteString(pairs[i].Value.String())
		}
		sb.WriteByte('}')
		return sb.String()
	default:
		return fmt.Sprintf("<%d>", int(p.Type))
	}
	if p.Value == nil {
		return "<" + p.Type.String() + " null>"
	}
	return fmt.Sprintf("<%s %v>", p.Type, p.Value)
}

type rawParameter struct {
	Type  ParamType       `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON implements Marshaler interface.
func (p Parameter) MarshalJSON() ([]byte, error) {
	var (
		resultRawValue json.RawMessage
		resultErr      error
	)
	if p.Value == nil && p.Type != ArrayType && p.Type != MapType {
		if validParamTypes[p.Type] {
			return json.Marshal(rawParameter{Type: p.Type})
		}
		return nil, fmt.Errorf("can't marshal %s", p.Type)
	}
	switch p.Type {
	case BoolType, StringType, Hash160Type:
		resultRawValue, resultErr = json.Marshal(p.Value)
	case IntegerType:
		val, ok := p.Value.(uint64)
		if !ok {
			resultErr = errors.New("invalid integer value")
			break
		}
		resultRawValue = json.RawMessage(`"` + strconv.FormatUint(val, 10) + `"`)
	case ArrayType:
		var value, _ = p.Value.([]Parameter)
		if value == nil {
			value = []Parameter{}
		}
		resultRawValue, resultErr = json.Marshal(value)
	case MapType:
		var ppair, _ = p.Value.([]ParameterPair)
		if ppair == nil {
			ppair = []ParameterPair{}
		}
		resultRawValue, resultErr = json.Marshal(ppair)
	case AnyType:
		resultRawValue = nil
	default:
		resultErr = fmt.Errorf("can't marshal %s", p.Type)
	}
	if resultErr != nil {
		return nil, resultErr
	}
	return json.Marshal(rawParameter{
		Type:  p.Type,
		Value: resultRawValue,
	})
}

// UnmarshalJSON implements Unmarshaler interface.
func (p *Parameter) UnmarshalJSON(data []byte) (err error) {
	var (
		r       rawParameter
		s       string
		boolean bool
	)
	if err = json.Unmarshal(data, &r); err != nil {
		return
	}
	p.Type = r.Type
	p.Value = nil
	if len(r.Value) == 0 || bytes.Equal(r.Value, []byte("null")) {
		return
	}
	switch r.Type {
	case BoolType:
		if err = json.Unmarshal(r.Value, &boolean); err != nil {
			return
		}
		p.Value = boolean
	case StringType:
		if err = json.Unmarshal(r.Value, &s); err != nil {
			return
		}
		p.Value = s
	case IntegerType:
		var i uint64
		if err = json.Unmarshal(r.Value, &s); err != nil {
			// Plain JSON numbers are accepted too.
			if err = json.Unmarshal(r.Value, &i); err != nil {
				return
			}
			p.Value = i
			return
		}
		i, err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			return
		}
		p.Value = i
	case ArrayType:
		var rs []Parameter
		if err = json.Unmarshal(r.Value, &rs); err != nil {
			return
		}
		p.Value = rs
	case MapType:
		var ppair []ParameterPair
		if err = json.Unmarshal(r.Value, &ppair); err != nil {
			return
		}
		p.Value = ppair
	case Hash160Type:
		if err = json.Unmarshal(r.Value, &s); err != nil {
			return
		}
		var h util.Uint160
		if h, err = parseHash160(s); err != nil {
			return
		}
		p.Value = h
	case AnyType:
	default:
		return fmt.Errorf("can't unmarshal %s", p.Type)
	}
	return
}

// EncodeBinary implements the io.Serializable interface.
func (p *Parameter) EncodeBinary(w *io.BinWriter) {
	p.Type.EncodeBinary(w)
	switch p.Type {
	case AnyType:
	case BoolType:
		w.WriteBool(p.Value.(bool))
	case IntegerType:
		w.WriteU64LE(p.Value.(uint64))
	case StringType:
		w.WriteString(p.Value.(string))
	case Hash160Type:
		w.WriteUint160(p.Value.(util.Uint160))
	case ArrayType:
		arr, _ := p.Value.([]Parameter)
		w.WriteVarUint(uint64(len(arr)))
		for i := range arr {
			arr[i].EncodeBinary(w)
		}
	case MapType:
		pairs, _ := p.Value.([]ParameterPair)
		w.WriteVarUint(uint64(len(pairs)))
		for i := range pairs {
			pairs[i].Key.EncodeBinary(w)
			pairs[i].Value.EncodeBinary(w)
		}
	default:
		w.Err = fmt.Errorf("can't encode %s", p.Type)
	}
}

// DecodeBinary implements the io.Serializable interface.
func (p *Parameter) DecodeBinary(r *io.BinReader) {
	p.decodeBinary(r, 0)
}

func (p *Parameter) decodeBinary(r *io.BinReader, depth int) {
	if depth > MaxNestingDepth {
		r.Err = errors.New("parameter nesting is too deep")
		return
	}
	p.Type.DecodeBinary(r)
	if r.Err != nil {
		return
	}
	switch p.Type {
	case AnyType:
		p.Value = nil
	case BoolType:
		p.Value = r.ReadBool()
	case IntegerType:
		p.Value = r.ReadU64LE()
	case StringType:
		p.Value = r.ReadString()
	case Hash160Type:
		p.Value = r.ReadUint160()
	case ArrayType:
		n := r.ReadVarUint()
		if n > io.MaxArraySize {
			r.Err = fmt.Errorf("array is too big (%d)", n)
			return
		}
		arr := make([]Parameter, n)
		for i := range arr {
			arr[i].decodeBinary(r, depth+1)
		}
		p.Value = arr
	case MapType:
		n := r.ReadVarUint()
		if n > io.MaxArraySize {
			r.Err = fmt.Errorf("map is too big (%d)", n)
			return
		}
		pairs := make([]ParameterPair, n)
		for i := range pairs {
			pairs[i].Key.decodeBinary(r, depth+1)
			pairs[i].Value.decodeBinary(r, depth+1)
		}
		p.Value = pairs
	}
}

// NewParameterFromString returns a new Parameter initialized from the given
// string in "type:value" format. It is intended to be used in user-facing
// interfaces and has some heuristics in it to simplify parameter passing: when
// the type is omitted it's inferred from the value, ':' can be escaped with
// '\'. Lists and tuples can't be constructed this way.
func NewParameterFromString(in string) (*Parameter, error) {
	var (
		char    rune
		val     string
		err     error
		r       *strings.Reader
		buf     strings.Builder
		escaped bool
		hadType bool
		res     = &Parameter{}
	)
	r = strings.NewReader(in)
	for char, _, err = r.ReadRune(); err == nil && char != utf8.RuneError; char, _, err = r.ReadRune() {
		if char == '\\' && !escaped {
			escaped = true
			continue
		}
		if char == ':' && !escaped && !hadType {
			res.Type, err = ParseParamType(buf.String())
			if err != nil {
				return nil, err
			}
			if res.Type == ArrayType || res.Type == MapType || res.Type == AnyType {
				return nil, fmt.Errorf("unsupported parameter type %s", res.Type)
			}
			buf.Reset()
			hadType = true
			continue
		}
		escaped = false
		// We don't care about length and it never fails.
		_, _ = buf.WriteRune(char)
	}
	if char == utf8.RuneError {
		return nil, errors.New("bad UTF-8 string")
	}

	val = buf.String()
	if !hadType {
		res.Type = inferParamType(val)
	}
	res.Value, err = adjustValToType(res.Type, val)
	if err != nil {
		return nil, err
	}
	return res, nil
}
