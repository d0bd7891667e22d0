package dao

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/glowsphere/glowsphere/pkg/core/block"
	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/core/storage"
	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// ErrNoCurrentBlock is returned when the store has no chain in it yet.
var ErrNoCurrentBlock = errors.New("no current block")

// Simple is memCached wrapper around DB, simple DAO implementation.
type Simple struct {
	Store *storage.MemCachedStore
}

// NewSimple creates new simple dao using provided backend store.
func NewSimple(backend storage.Store) *Simple {
	return &Simple{Store: storage.NewMemCachedStore(backend)}
}

// GetWrapped returns new DAO instance with another layer of wrapped
// MemCachedStore around the current DAO Store.
func (dao *Simple) GetWrapped() *Simple {
	return NewSimple(dao.Store)
}

// GetAndDecode performs get operation and decoding with serializable structures.
func (dao *Simple) GetAndDecode(entity io.Serializable, key []byte) error {
	entityBytes, err := dao.Store.Get(key)
	if err != nil {
		return err
	}
	reader := io.NewBinReaderFromBuf(entityBytes)
	entity.DecodeBinary(reader)
	return reader.Err
}

// Put performs put operation with serializable structures.
func (dao *Simple) Put(entity io.Serializable, key []byte) error {
	return dao.putWithBuffer(entity, key, io.NewBufBinWriter())
}

// putWithBuffer performs put operation using buf as a pre-allocated buffer for serialization.
func (dao *Simple) putWithBuffer(entity io.Serializable, key []byte, buf *io.BufBinWriter) error {
	entity.EncodeBinary(buf.BinWriter)
	if buf.Err != nil {
		return buf.Err
	}
	dao.Store.Put(key, buf.Bytes())
	return nil
}

// -- start receipts.

func makeReceiptKey(hash util.Uint256) []byte {
	return storage.AppendPrefix(storage.DataReceipt, hash.BytesBE())
}

// GetReceipt gets the execution receipt of the given transaction.
func (dao *Simple) GetReceipt(hash util.Uint256) (*state.Receipt, error) {
	r := new(state.Receipt)
	if err := dao.GetAndDecode(r, makeReceiptKey(hash)); err != nil {
		return nil, err
	}
	return r, nil
}

// PutReceipt puts the given receipt into the store.
func (dao *Simple) PutReceipt(r *state.Receipt) error {
	return dao.Put(r, makeReceiptKey(r.TxHash))
}

// HasTransaction returns true if the given transaction was already
// included into some block.
func (dao *Simple) HasTransaction(hash util.Uint256) bool {
	_, err := dao.Store.Get(makeReceiptKey(hash))
	return err == nil
}

// -- end receipts.

// -- start blocks.

func makeBlockKey(index uint32) []byte {
	key := make([]byte, 5)
	key[0] = byte(storage.DataBlock)
	binary.BigEndian.PutUint32(key[1:], index)
	return key
}

func makeBlockIndexKey(hash util.Uint256) []byte {
	return storage.AppendPrefix(storage.IXBlockIndex, hash.BytesBE())
}

// StoreAsBlock stores the given block under its index along with the
// hash->index mapping.
func (dao *Simple) StoreAsBlock(b *block.Block) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	dao.Store.Put(makeBlockKey(b.Index), data)
	idx := make([]byte, 4)
	binary.LittleEndian.PutUint32(idx, b.Index)
	dao.Store.Put(makeBlockIndexKey(b.Hash()), idx)
	return nil
}

// GetBlockByIndex returns the block stored at the given height.
func (dao *Simple) GetBlockByIndex(index uint32) (*block.Block, error) {
	data, err := dao.Store.Get(makeBlockKey(index))
	if err != nil {
		return nil, err
	}
	return block.NewBlockFromBytes(data)
}

// GetBlockIndex returns the height of the block with the given hash.
func (dao *Simple) GetBlockIndex(hash util.Uint256) (uint32, error) {
	idx, err := dao.Store.Get(makeBlockIndexKey(hash))
	if err != nil {
		return 0, err
	}
	if len(idx) != 4 {
		return 0, fmt.Errorf("bad block index length %d", len(idx))
	}
	return binary.LittleEndian.Uint32(idx), nil
}

// GetBlock returns the block with the given hash.
func (dao *Simple) GetBlock(hash util.Uint256) (*block.Block, error) {
	index, err := dao.GetBlockIndex(hash)
	if err != nil {
		return nil, err
	}
	return dao.GetBlockByIndex(index)
}

// StoreAsCurrentBlock stores the hash and index of the given block with
// prefix SYSCurrentBlock.
func (dao *Simple) StoreAsCurrentBlock(b *block.Block) {
	buf := io.NewBufBinWriter()
	buf.WriteUint256(b.Hash())
	buf.WriteU32LE(b.Index)
	dao.Store.Put(storage.SYSCurrentBlock.Bytes(), buf.Bytes())
}

// GetCurrentBlock returns the hash and index of the current block.
func (dao *Simple) GetCurrentBlock() (util.Uint256, uint32, error) {
	b, err := dao.Store.Get(storage.SYSCurrentBlock.Bytes())
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			err = ErrNoCurrentBlock
		}
		return util.Uint256{}, 0, err
	}
	r := io.NewBinReaderFromBuf(b)
	h := r.ReadUint256()
	index := r.ReadU32LE()
	return h, index, r.Err
}

// -- end blocks.

// -- other.

// GetVersion attempts to get the current version stored in the
// underlying store.
func (dao *Simple) GetVersion() (string, error) {
	version, err := dao.Store.Get(storage.SYSVersion.Bytes())
	return string(version), err
}

// PutVersion stores the given version in the underlying store.
func (dao *Simple) PutVersion(v string) {
	dao.Store.Put(storage.SYSVersion.Bytes(), []byte(v))
}

// Persist flushes all the changes made into the (supposedly) persistent
// underlying store.
func (dao *Simple) Persist() (int, error) {
	return dao.Store.Persist()
}
