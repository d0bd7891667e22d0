package block

import (
	"encoding/json"
	"errors"

	"github.com/glowsphere/glowsphere/pkg/crypto/hash"
	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// Header holds the head info of a block.
type Header struct {
	// Index/height of the block.
	Index uint32

	// Timestamp is the number of milliseconds since the Unix epoch when the
	// block was produced.
	Timestamp uint64

	// Hash of the previous block.
	PrevHash util.Uint256

	// Root hash of the transaction list.
	MerkleRoot util.Uint256
}

// baseAux is used to marshal/unmarshal to/from JSON, it's almost the same
// as original Header, but with Hash added.
type baseAux struct {
	Hash       util.Uint256 `json:"hash"`
	Index      uint32       `json:"index"`
	Timestamp  uint64       `json:"time"`
	PrevHash   util.Uint256 `json:"previousblockhash"`
	MerkleRoot util.Uint256 `json:"merkleroot"`
}

// Hash returns the hash of the block header.
func (h *Header) Hash() util.Uint256 {
	buf := io.NewBufBinWriter()
	h.EncodeBinary(buf.BinWriter)
	if buf.Err != nil {
		panic(buf.Err)
	}
	return hash.Sha256(buf.Bytes())
}

// EncodeBinary implements the io.Serializable interface.
func (h *Header) EncodeBinary(bw *io.BinWriter) {
	bw.WriteU32LE(h.Index)
	bw.WriteU64LE(h.Timestamp)
	bw.WriteUint256(h.PrevHash)
	bw.WriteUint256(h.MerkleRoot)
}

// DecodeBinary implements the io.Serializable interface.
func (h *Header) DecodeBinary(br *io.BinReader) {
	h.Index = br.ReadU32LE()
	h.Timestamp = br.ReadU64LE()
	h.PrevHash = br.ReadUint256()
	h.MerkleRoot = br.ReadUint256()
}

// MarshalJSON implements the json.Marshaler interface.
func (h Header) MarshalJSON() ([]byte, error) {
	return json.Marshal(baseAux{
		Hash:       h.Hash(),
		Index:      h.Index,
		Timestamp:  h.Timestamp,
		PrevHash:   h.PrevHash,
		MerkleRoot: h.MerkleRoot,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (h *Header) UnmarshalJSON(data []byte) error {
	aux := new(baseAux)
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	h.Index = aux.Index
	h.Timestamp = aux.Timestamp
	h.PrevHash = aux.PrevHash
	h.MerkleRoot = aux.MerkleRoot
	if !aux.Hash.Equals(h.Hash()) {
		return errors.New("json 'hash' doesn't match block hash")
	}
	return nil
}
