package state

import (
	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// MaxEventsPerCall is the maximum number of notifications a single call can
// emit.
const MaxEventsPerCall = 16

// NotificationEvent is a named notification emitted by a successful contract
// call along with its payload.
type NotificationEvent struct {
	Name string                    `json:"eventname"`
	Item []smartcontract.Parameter `json:"state"`
}

// Receipt represents the result of a transaction execution, gathering together
// the response, notifications and other metadata.
type Receipt struct {
	TxHash     util.Uint256           `json:"txhash"`
	BlockIndex uint32                 `json:"blockindex"`
	Method     string                 `json:"method"`
	Sender     util.Uint160           `json:"sender"`
	Response   smartcontract.Response `json:"response"`
	Events     []NotificationEvent    `json:"events"`
	// FaultException is set when the transaction could not be executed at
	// all (bad signature, unknown method, wrong arguments, expiration).
	FaultException string `json:"exception,omitempty"`
}

// EncodeBinary implements the io.Serializable interface.
func (ne *NotificationEvent) EncodeBinary(w *io.BinWriter) {
	w.WriteString(ne.Name)
	w.WriteVarUint(uint64(len(ne.Item)))
	for i := range ne.Item {
		ne.Item[i].EncodeBinary(w)
	}
}

// DecodeBinary implements the io.Serializable interface.
func (ne *NotificationEvent) DecodeBinary(r *io.BinReader) {
	ne.Name = r.ReadString()
	ne.Item = io.ReadArray[smartcontract.Parameter](r)
}

// IsFault returns true if the transaction wasn't executed.
func (r *Receipt) IsFault() bool {
	return r.FaultException != ""
}

// Succeeded returns true if the call returned an ok response.
func (r *Receipt) Succeeded() bool {
	return !r.IsFault() && r.Response.OK
}

// EncodeBinary implements the io.Serializable interface.
func (r *Receipt) EncodeBinary(w *io.BinWriter) {
	w.WriteUint256(r.TxHash)
	w.WriteU32LE(r.BlockIndex)
	w.WriteString(r.Method)
	w.WriteUint160(r.Sender)
	r.Response.EncodeBinary(w)
	io.WriteArray(w, r.eventPointers())
	w.WriteString(r.FaultException)
}

func (r *Receipt) eventPointers() []*NotificationEvent {
	res := make([]*NotificationEvent, len(r.Events))
	for i := range r.Events {
		res[i] = &r.Events[i]
	}
	return res
}

// DecodeBinary implements the io.Serializable interface.
func (r *Receipt) DecodeBinary(br *io.BinReader) {
	r.TxHash = br.ReadUint256()
	r.BlockIndex = br.ReadU32LE()
	r.Method = br.ReadString()
	r.Sender = br.ReadUint160()
	r.Response.DecodeBinary(br)
	r.Events = io.ReadArray[NotificationEvent](br, MaxEventsPerCall)
	r.FaultException = br.ReadString()
}
