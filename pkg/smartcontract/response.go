package smartcontract

import (
	"fmt"

	"github.com/glowsphere/glowsphere/pkg/io"
)

// Response is the result of a public contract call: either (ok value) or
// (err code). Only an ok response commits the state changes of the call.
type Response struct {
	OK    bool      `json:"ok"`
	Value Parameter `json:"value"`
}

// NewOK returns a successful response holding the given value.
func NewOK(v Parameter) Response {
	return Response{OK: true, Value: v}
}

// NewErr returns an error response with the given unsigned error code.
func NewErr(code uint64) Response {
	return Response{OK: false, Value: NewInteger(code)}
}

// ErrorCode returns the error code of an err response.
func (r Response) ErrorCode() (uint64, bool) {
	if r.OK {
		return 0, false
	}
	code, err := r.Value.GetInteger()
	if err != nil {
		return 0, false
	}
	return code, true
}

// String implements the fmt.Stringer interface.
func (r Response) String() string {
	if r.OK {
		return fmt.Sprintf("(ok %s)", r.Value)
	}
	return fmt.Sprintf("(err %s)", r.Value)
}

// EncodeBinary implements the io.Serializable interface.
func (r *Response) EncodeBinary(w *io.BinWriter) {
	w.WriteBool(r.OK)
	r.Value.EncodeBinary(w)
}

// DecodeBinary implements the io.Serializable interface.
func (r *Response) DecodeBinary(br *io.BinReader) {
	r.OK = br.ReadBool()
	r.Value.DecodeBinary(br)
}
