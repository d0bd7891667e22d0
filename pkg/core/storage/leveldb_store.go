package storage

import (
	"errors"
	"fmt"

	"github.com/glowsphere/glowsphere/pkg/core/storage/dbconfig"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// bloomBitsPerKey is the LevelDB bloom filter size, contract lookups are
// mostly point reads.
const bloomBitsPerKey = 10

// LevelDBStore is a Store backed by a LevelDB database directory.
type LevelDBStore struct {
	db   *leveldb.DB
	path string
}

// NewLevelDBStore opens (or creates) the database in
// cfg.DataDirectoryPath.
func NewLevelDBStore(cfg dbconfig.LevelDBOptions) (*LevelDBStore, error) {
	opts := &opt.Options{
		Filter:         filter.NewBloomFilter(bloomBitsPerKey),
		ReadOnly:       cfg.ReadOnly,
		ErrorIfMissing: cfg.ReadOnly,
	}
	db, err := leveldb.OpenFile(cfg.DataDirectoryPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB at %s: %w", cfg.DataDirectoryPath, err)
	}
	return &LevelDBStore{db: db, path: cfg.DataDirectoryPath}, nil
}

// Get implements the Store interface.
func (s *LevelDBStore) Get(key []byte) ([]byte, error) {
	value, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	return value, err
}

// PutChangeSet implements the Store interface. The whole set is written as
// a single batch.
func (s *LevelDBStore) PutChangeSet(puts map[string][]byte) error {
	batch := new(leveldb.Batch)
	for k, v := range puts {
		if v == nil {
			batch.Delete([]byte(k))
		} else {
			batch.Put([]byte(k), v)
		}
	}
	return s.db.Write(batch, nil)
}

// Seek implements the Store interface.
func (s *LevelDBStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	iter := s.db.NewIterator(seekRangeToPrefixes(rng), nil)
	defer iter.Release()
	iterate(iter, rng.Backwards, f)
}

func iterate(iter iterator.Iterator, backwards bool, f func(k, v []byte) bool) {
	first, next := iter.First, iter.Next
	if backwards {
		first, next = iter.Last, iter.Prev
	}
	for ok := first(); ok; ok = next() {
		if !f(iter.Key(), iter.Value()) {
			return
		}
	}
}

// Close implements the Store interface.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
