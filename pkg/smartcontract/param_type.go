package smartcontract

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/glowsphere/glowsphere/pkg/encoding/address"
	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// ParamType represents the Type of the contract parameter.
type ParamType int

// A list of supported contract parameter types.
const (
	UnknownType ParamType = -1
	AnyType     ParamType = 0x00
	BoolType    ParamType = 0x10
	IntegerType ParamType = 0x11
	StringType  ParamType = 0x13
	Hash160Type ParamType = 0x14
	ArrayType   ParamType = 0x20
	MapType     ParamType = 0x22
)

// validParamTypes contains a map of known ParamTypes.
var validParamTypes = map[ParamType]bool{
	AnyType:     true,
	BoolType:    true,
	IntegerType: true,
	StringType:  true,
	Hash160Type: true,
	ArrayType:   true,
	MapType:     true,
}

// String implements the stringer interface.
func (pt ParamType) String() string {
	switch pt {
	case BoolType:
		return "Boolean"
	case IntegerType:
		return "Integer"
	case Hash160Type:
		return "Hash160"
	case StringType:
		return "String"
	case ArrayType:
		return "Array"
	case MapType:
		return "Map"
	case AnyType:
		return "Any"
	default:
		return ""
	}
}

// MarshalJSON implements the json.Marshaler interface.
func (pt ParamType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + pt.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (pt *ParamType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	p, err := ParseParamType(s)
	if err != nil {
		return err
	}

	*pt = p
	return nil
}

// EncodeBinary implements the io.Serializable interface.
func (pt ParamType) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(pt))
}

// DecodeBinary implements the io.Serializable interface.
func (pt *ParamType) DecodeBinary(r *io.BinReader) {
	t := ParamType(r.ReadB())
	if r.Err == nil && !validParamTypes[t] {
		r.Err = fmt.Errorf("unknown parameter type %d", t)
		return
	}
	*pt = t
}

// ParseParamType is a user-friendly string to ParamType converter, it's
// case-insensitive and makes the following conversions:
//
//	bool, boolean -> BoolType
//	int, integer, uint -> IntegerType
//	hash160, principal -> Hash160Type
//	string, ascii -> StringType
//	array, list -> ArrayType
//	map, tuple -> MapType
//	any, none -> AnyType
//
// anything else generates an error.
func ParseParamType(typ string) (ParamType, error) {
	switch strings.ToLower(typ) {
	case "bool", "boolean":
		return BoolType, nil
	case "int", "integer", "uint":
		return IntegerType, nil
	case "hash160", "principal":
		return Hash160Type, nil
	case "string", "ascii":
		return StringType, nil
	case "array", "list":
		return ArrayType, nil
	case "map", "tuple":
		return MapType, nil
	case "any", "none":
		return AnyType, nil
	default:
		return UnknownType, fmt.Errorf("bad parameter type: %s", typ)
	}
}

// adjustValToType is a value type-checker and converter.
func adjustValToType(typ ParamType, val string) (any, error) {
	switch typ {
	case BoolType:
		switch val {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, errors.New("invalid boolean value")
		}
	case IntegerType:
		i, err := strconv.ParseUint(strings.TrimPrefix(val, "u"), 10, 64)
		if err != nil {
			return nil, errors.New("invalid integer value")
		}
		return i, nil
	case Hash160Type:
		return parseHash160(val)
	case StringType:
		if !IsASCII(val) {
			return nil, errors.New("not an ASCII string")
		}
		return val, nil
	default:
		return nil, errors.New("unsupported parameter type")
	}
}

// parseHash160 accepts both addresses and hex-encoded principals.
func parseHash160(val string) (util.Uint160, error) {
	u, err := address.StringToUint160(val)
	if err == nil {
		return u, nil
	}
	return util.Uint160DecodeString(strings.TrimPrefix(val, "0x"))
}

// inferParamType tries to infer the value type from its contents. It returns
// IntegerType for anything that looks like a decimal unsigned integer
// (optionally with Clarity-style "u" prefix), BoolType for true and false
// values, Hash160Type for addresses and hex strings encoding 20 bytes long
// values and StringType for anything else.
func inferParamType(val string) ParamType {
	if _, err := strconv.ParseUint(strings.TrimPrefix(val, "u"), 10, 64); err == nil {
		return IntegerType
	}

	if val == "true" || val == "false" {
		return BoolType
	}

	if _, err := address.StringToUint160(val); err == nil {
		return Hash160Type
	}

	if b, err := hex.DecodeString(strings.TrimPrefix(val, "0x")); err == nil && len(b) == util.Uint160Size {
		return Hash160Type
	}
	// Anything can be a string.
	return StringType
}

// IsASCII checks that the string contains only printable ASCII characters.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
