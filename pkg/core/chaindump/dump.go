/*
Package chaindump implements export and import of chain blocks in a simple
length-prefixed binary format.
*/
package chaindump

import (
	"fmt"

	"github.com/glowsphere/glowsphere/pkg/core/block"
	"github.com/glowsphere/glowsphere/pkg/io"
)

// DumperRestorer is an interface to get/add blocks from/to.
type DumperRestorer interface {
	AddBlock(block *block.Block) error
	BlockHeight() uint32
	GetBlockByIndex(index uint32) (*block.Block, error)
}

// Dump writes count blocks from start to the provided writer.
// Note: header needs to be written separately by a client.
func Dump(bc DumperRestorer, w *io.BinWriter, start, count uint32) error {
	if count == 0 {
		return nil
	}
	if start+count-1 > bc.BlockHeight() || start+count < start {
		return fmt.Errorf("chain is too low: requested blocks up to %d, height is %d", start+count-1, bc.BlockHeight())
	}
	for i := start; i < start+count; i++ {
		b, err := bc.GetBlockByIndex(i)
		if err != nil {
			return err
		}
		bytes, err := b.Bytes()
		if err != nil {
			return err
		}
		w.WriteU32LE(uint32(len(bytes)))
		w.WriteBytes(bytes)
		if w.Err != nil {
			return w.Err
		}
	}
	return nil
}

// Restore restores blocks from the provided reader. The genesis block is
// never added since every chain creates its own one.
// f is called after addition of every block.
func Restore(bc DumperRestorer, r *io.BinReader, skip, count uint32, f func(b *block.Block) error) error {
	readBlock := func(r *io.BinReader) ([]byte, error) {
		var size = r.ReadU32LE()
		if size > maxBlockSize {
			return nil, fmt.Errorf("block is too big: %d", size)
		}
		buf := make([]byte, size)
		r.ReadBytes(buf)
		return buf, r.Err
	}

	i := uint32(0)
	for ; i < skip; i++ {
		_, err := readBlock(r)
		if err != nil {
			return err
		}
	}

	for ; i < skip+count; i++ {
		buf, err := readBlock(r)
		if err != nil {
			return err
		}
		b, err := block.NewBlockFromBytes(buf)
		if err != nil {
			return fmt.Errorf("failed to decode block %d: %w", i, err)
		}
		if b.Index != 0 {
			err = bc.AddBlock(b)
			if err != nil {
				return fmt.Errorf("failed to add block %d: %w", i, err)
			}
		}
		if f != nil {
			if err := f(b); err != nil {
				return err
			}
		}
	}
	return nil
}

// maxBlockSize limits the size of a single dumped block.
const maxBlockSize = 16 << 20
