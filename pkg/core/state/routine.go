package state

import (
	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// MaxProducts is the maximum number of products in a routine.
const MaxProducts = 10

// Routine is a skincare routine published by its creator.
type Routine struct {
	ID          uint64
	Creator     util.Uint160
	Name        string
	Description string
	Products    []string
	IsPublic    bool
	Likes       uint64
	// CreatedAt is the index of the block the routine was created in.
	CreatedAt uint32
}

// EncodeBinary implements the io.Serializable interface.
func (r *Routine) EncodeBinary(w *io.BinWriter) {
	w.WriteU64LE(r.ID)
	w.WriteUint160(r.Creator)
	w.WriteString(r.Name)
	w.WriteString(r.Description)
	w.WriteVarUint(uint64(len(r.Products)))
	for _, p := range r.Products {
		w.WriteString(p)
	}
	w.WriteBool(r.IsPublic)
	w.WriteU64LE(r.Likes)
	w.WriteU32LE(r.CreatedAt)
}

// DecodeBinary implements the io.Serializable interface.
func (r *Routine) DecodeBinary(br *io.BinReader) {
	r.ID = br.ReadU64LE()
	r.Creator = br.ReadUint160()
	r.Name = br.ReadString()
	r.Description = br.ReadString()
	n := br.ReadVarUint()
	if n > MaxProducts {
		if br.Err == nil {
			br.Err = errTooManyProducts
		}
		return
	}
	r.Products = make([]string, n)
	for i := range r.Products {
		r.Products[i] = br.ReadString()
	}
	r.IsPublic = br.ReadBool()
	r.Likes = br.ReadU64LE()
	r.CreatedAt = br.ReadU32LE()
}

// VisibleTo returns true if the routine can be seen by the given principal.
func (r *Routine) VisibleTo(u util.Uint160) bool {
	return r.IsPublic || r.Creator.Equals(u)
}

// ToParameter converts the routine into a tuple.
func (r *Routine) ToParameter() smartcontract.Parameter {
	products := make([]smartcontract.Parameter, len(r.Products))
	for i := range r.Products {
		products[i] = smartcontract.NewString(r.Products[i])
	}
	return smartcontract.NewMap(
		smartcontract.Pair("creator", smartcontract.NewHash160(r.Creator)),
		smartcontract.Pair("name", smartcontract.NewString(r.Name)),
		smartcontract.Pair("description", smartcontract.NewString(r.Description)),
		smartcontract.Pair("products", smartcontract.NewArray(products...)),
		smartcontract.Pair("is-public", smartcontract.NewBool(r.IsPublic)),
		smartcontract.Pair("likes", smartcontract.NewInteger(r.Likes)),
		smartcontract.Pair("created-at", smartcontract.NewInteger(uint64(r.CreatedAt))),
	)
}
