package block

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/glowsphere/glowsphere/pkg/core/transaction"
	"github.com/glowsphere/glowsphere/pkg/crypto/hash"
	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// MaxTransactionsPerBlock is the maximum number of transactions per block.
const MaxTransactionsPerBlock = 512

// ErrMerkleMismatch is returned for blocks with a wrong transaction root.
var ErrMerkleMismatch = errors.New("MerkleRoot mismatch")

// Block represents one block in the chain.
type Block struct {
	Header

	// Transaction list.
	Transactions []*transaction.Transaction
}

// auxBlockOut is used for JSON i/o.
type auxBlockOut struct {
	Transactions []*transaction.Transaction `json:"tx"`
}

// auxBlockIn is used for JSON i/o.
type auxBlockIn struct {
	Transactions []json.RawMessage `json:"tx"`
}

// New creates a block at the given height on top of prev, computing its
// merkle root.
func New(index uint32, prev util.Uint256, timestamp uint64, txes []*transaction.Transaction) *Block {
	b := &Block{
		Header: Header{
			Index:     index,
			Timestamp: timestamp,
			PrevHash:  prev,
		},
		Transactions: txes,
	}
	b.RebuildMerkleRoot()
	return b
}

// GetHeader returns the Header of the Block.
func (b *Block) GetHeader() *Header {
	h := b.Header
	return &h
}

// computeMerkleTree computes Merkle tree based on actual block's data.
func (b *Block) computeMerkleTree() util.Uint256 {
	hashes := make([]util.Uint256, len(b.Transactions))
	for i, tx := range b.Transactions {
		hashes[i] = tx.Hash()
	}
	return hash.CalcMerkleRoot(hashes)
}

// RebuildMerkleRoot rebuilds the merkleroot of the block.
func (b *Block) RebuildMerkleRoot() {
	b.MerkleRoot = b.computeMerkleTree()
}

// Verify verifies the integrity of the block.
func (b *Block) Verify() error {
	if len(b.Transactions) > MaxTransactionsPerBlock {
		return fmt.Errorf("too many transactions: %d", len(b.Transactions))
	}
	hashes := make(map[util.Uint256]bool, len(b.Transactions))
	for _, tx := range b.Transactions {
		if hashes[tx.Hash()] {
			return errors.New("transaction duplication is not allowed")
		}
		hashes[tx.Hash()] = true
	}

	merkle := b.computeMerkleTree()
	if !b.MerkleRoot.Equals(merkle) {
		return ErrMerkleMismatch
	}
	return nil
}

// DecodeBinary decodes the block from the given BinReader, implementing
// Serializable interface.
func (b *Block) DecodeBinary(br *io.BinReader) {
	b.Header.DecodeBinary(br)
	count := br.ReadVarUint()
	if br.Err != nil {
		return
	}
	if count > MaxTransactionsPerBlock {
		br.Err = fmt.Errorf("too many transactions: %d", count)
		return
	}
	txes := make([]*transaction.Transaction, count)
	for i := range txes {
		tx := new(transaction.Transaction)
		tx.DecodeBinary(br)
		txes[i] = tx
	}
	b.Transactions = txes
	if br.Err != nil {
		return
	}
	br.Err = b.Verify()
}

// EncodeBinary encodes the block to the given BinWriter, implementing
// Serializable interface.
func (b *Block) EncodeBinary(bw *io.BinWriter) {
	b.Header.EncodeBinary(bw)
	io.WriteArray(bw, b.Transactions)
}

// Bytes returns serialized block.
func (b *Block) Bytes() ([]byte, error) {
	buf := io.NewBufBinWriter()
	b.EncodeBinary(buf.BinWriter)
	if buf.Err != nil {
		return nil, buf.Err
	}
	return buf.Bytes(), nil
}

// NewBlockFromBytes decodes a block from its binary representation.
func NewBlockFromBytes(data []byte) (*Block, error) {
	b := new(Block)
	r := io.NewBinReaderFromBuf(data)
	b.DecodeBinary(r)
	if r.Err != nil {
		return nil, r.Err
	}
	return b, nil
}

// MarshalJSON implements the json.Marshaler interface.
func (b Block) MarshalJSON() ([]byte, error) {
	txes := b.Transactions
	if txes == nil {
		txes = []*transaction.Transaction{}
	}
	auxb, err := json.Marshal(auxBlockOut{Transactions: txes})
	if err != nil {
		return nil, err
	}
	baseBytes, err := json.Marshal(b.Header)
	if err != nil {
		return nil, err
	}

	// Stitch them together.
	if baseBytes[len(baseBytes)-1] != '}' || auxb[0] != '{' {
		return nil, errors.New("can't merge internal jsons")
	}
	baseBytes[len(baseBytes)-1] = ','
	baseBytes = append(baseBytes, auxb[1:]...)
	return baseBytes, nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (b *Block) UnmarshalJSON(data []byte) error {
	// As Header and auxb are at the same level in json,
	// do unmarshalling separately for both structs.
	auxb := new(auxBlockIn)
	if err := json.Unmarshal(data, auxb); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &b.Header); err != nil {
		return err
	}
	b.Transactions = make([]*transaction.Transaction, 0, len(auxb.Transactions))
	for _, txBytes := range auxb.Transactions {
		tx := new(transaction.Transaction)
		if err := tx.UnmarshalJSON(txBytes); err != nil {
			return err
		}
		b.Transactions = append(b.Transactions, tx)
	}
	return b.Verify()
}
