package state

import (
	"errors"

	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
)

var errTooManyProducts = errors.New("too many products")

// ProgressRecord is a note on a routine kept by its owner.
type ProgressRecord struct {
	RoutineID uint64
	Notes     string
	PhotoHash string
	// Timestamp is the index of the block the record was added in.
	Timestamp uint32
}

// EncodeBinary implements the io.Serializable interface.
func (p *ProgressRecord) EncodeBinary(w *io.BinWriter) {
	w.WriteU64LE(p.RoutineID)
	w.WriteString(p.Notes)
	w.WriteString(p.PhotoHash)
	w.WriteU32LE(p.Timestamp)
}

// DecodeBinary implements the io.Serializable interface.
func (p *ProgressRecord) DecodeBinary(r *io.BinReader) {
	p.RoutineID = r.ReadU64LE()
	p.Notes = r.ReadString()
	p.PhotoHash = r.ReadString()
	p.Timestamp = r.ReadU32LE()
}

// ToParameter converts the record into a tuple.
func (p *ProgressRecord) ToParameter() smartcontract.Parameter {
	return smartcontract.NewMap(
		smartcontract.Pair("routine-id", smartcontract.NewInteger(p.RoutineID)),
		smartcontract.Pair("notes", smartcontract.NewString(p.Notes)),
		smartcontract.Pair("photo-hash", smartcontract.NewString(p.PhotoHash)),
		smartcontract.Pair("timestamp", smartcontract.NewInteger(uint64(p.Timestamp))),
	)
}

// UserStats holds per-principal counters.
type UserStats struct {
	Routines  uint64
	Followers uint64
	Following uint64
	Records   uint64
}

// EncodeBinary implements the io.Serializable interface.
func (s *UserStats) EncodeBinary(w *io.BinWriter) {
	w.WriteU64LE(s.Routines)
	w.WriteU64LE(s.Followers)
	w.WriteU64LE(s.Following)
	w.WriteU64LE(s.Records)
}

// DecodeBinary implements the io.Serializable interface.
func (s *UserStats) DecodeBinary(r *io.BinReader) {
	s.Routines = r.ReadU64LE()
	s.Followers = r.ReadU64LE()
	s.Following = r.ReadU64LE()
	s.Records = r.ReadU64LE()
}

// ToParameter converts the stats into a tuple.
func (s *UserStats) ToParameter() smartcontract.Parameter {
	return smartcontract.NewMap(
		smartcontract.Pair("routines", smartcontract.NewInteger(s.Routines)),
		smartcontract.Pair("followers", smartcontract.NewInteger(s.Followers)),
		smartcontract.Pair("following", smartcontract.NewInteger(s.Following)),
		smartcontract.Pair("records", smartcontract.NewInteger(s.Records)),
	)
}
