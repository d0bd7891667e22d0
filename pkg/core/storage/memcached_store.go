package storage

import (
	"bytes"
)

// MemCachedStore is a wrapper around persistent store that caches all changes
// being made for them to be later flushed in one batch. Deleted keys are kept
// as nil values until persisted.
type MemCachedStore struct {
	MemoryStore

	// Persistent Store.
	ps Store
}

// NewMemCachedStore creates a new MemCachedStore object.
func NewMemCachedStore(lower Store) *MemCachedStore {
	return &MemCachedStore{
		MemoryStore: MemoryStore{mem: make(map[string][]byte)},
		ps:          lower,
	}
}

// Get implements the Store interface.
func (s *MemCachedStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	val, ok := s.mem[string(key)]
	s.mut.RUnlock()
	if ok {
		if val == nil {
			return nil, ErrKeyNotFound
		}
		return val, nil
	}
	return s.ps.Get(key)
}

// Delete drops the KV pair from the store. The deletion is only visible in
// this layer until Persist.
func (s *MemCachedStore) Delete(key []byte) {
	s.mut.Lock()
	s.mem[string(key)] = nil
	s.mut.Unlock()
}

// PutChangeSet implements the Store interface. Changes are cached in the
// layer. Never returns an error.
func (s *MemCachedStore) PutChangeSet(puts map[string][]byte) error {
	s.mut.Lock()
	for k := range puts {
		s.mem[k] = puts[k]
	}
	s.mut.Unlock()
	return nil
}

// Seek implements the Store interface. Items of this layer shadow the ones
// from the lower Store.
func (s *MemCachedStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	memRes := s.seekList(rng)
	s.mut.RUnlock()

	var lowerRes []KeyValue
	s.ps.Seek(rng, func(k, v []byte) bool {
		lowerRes = append(lowerRes, KeyValue{Key: bytes.Clone(k), Value: bytes.Clone(v)})
		return true
	})

	cmp := getCmpFunc(rng.Backwards)
	var i, j int
	for i < len(memRes) || j < len(lowerRes) {
		var kv KeyValue
		switch {
		case j == len(lowerRes):
			kv = memRes[i]
			i++
		case i == len(memRes):
			kv = lowerRes[j]
			j++
		default:
			c := cmp(memRes[i].Key, lowerRes[j].Key)
			switch {
			case c < 0:
				kv = memRes[i]
				i++
			case c > 0:
				kv = lowerRes[j]
				j++
			default:
				kv = memRes[i]
				i++
				j++
			}
		}
		if kv.Value == nil {
			continue
		}
		if !f(kv.Key, kv.Value) {
			return
		}
	}
}

// GetBatch returns the currently accumulated changeset, nil values denote
// deleted keys.
func (s *MemCachedStore) GetBatch() map[string][]byte {
	s.mut.RLock()
	defer s.mut.RUnlock()
	res := make(map[string][]byte, len(s.mem))
	for k, v := range s.mem {
		res[k] = v
	}
	return res
}

// Persist flushes all the cached contents into the (supposedly) persistent
// store ps. It returns the number of flushed keys.
func (s *MemCachedStore) Persist() (int, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	keys := len(s.mem)
	if keys == 0 {
		return 0, nil
	}
	err := s.ps.PutChangeSet(s.mem)
	if err != nil {
		return 0, err
	}
	s.mem = make(map[string][]byte)
	return keys, nil
}

// Close implements Store interface, clears up memory and closes the lower layer
// Store.
func (s *MemCachedStore) Close() error {
	// It's always successful.
	_ = s.MemoryStore.Close()
	return s.ps.Close()
}
