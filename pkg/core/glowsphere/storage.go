package glowsphere

import (
	"encoding/binary"
	"errors"

	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/core/storage"
	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// Storage key prefixes, all of them go under storage.STStorage.
const (
	prefixRoutine      = 0x01
	prefixLike         = 0x02
	prefixFollow       = 0x03
	prefixRecord       = 0x04
	prefixRecordCount  = 0x05
	prefixStats        = 0x06
	prefixRoutineCount = 0x07
)

func makeKey(prefix byte, parts ...[]byte) []byte {
	n := 1
	for i := range parts {
		n += len(parts[i])
	}
	key := make([]byte, 0, n)
	key = append(key, prefix)
	for i := range parts {
		key = append(key, parts[i]...)
	}
	return storage.AppendPrefix(storage.STStorage, key)
}

func idBytes(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

func routineKey(id uint64) []byte {
	return makeKey(prefixRoutine, idBytes(id))
}

func likeKey(u util.Uint160, id uint64) []byte {
	return makeKey(prefixLike, u.BytesBE(), idBytes(id))
}

func followKey(follower, followee util.Uint160) []byte {
	return makeKey(prefixFollow, follower.BytesBE(), followee.BytesBE())
}

func recordKey(u util.Uint160, id uint64) []byte {
	return makeKey(prefixRecord, u.BytesBE(), idBytes(id))
}

func recordCountKey(u util.Uint160) []byte {
	return makeKey(prefixRecordCount, u.BytesBE())
}

func statsKey(u util.Uint160) []byte {
	return makeKey(prefixStats, u.BytesBE())
}

var routineCountKey = makeKey(prefixRoutineCount)

// getConvertible gets an item from the storage and decodes it. It returns
// storage.ErrKeyNotFound for missing items.
func getConvertible(s Storage, key []byte, item io.Serializable) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	r := io.NewBinReaderFromBuf(data)
	item.DecodeBinary(r)
	return r.Err
}

func putConvertible(s Storage, key []byte, item io.Serializable) error {
	bw := io.NewBufBinWriter()
	item.EncodeBinary(bw.BinWriter)
	if bw.Err != nil {
		return bw.Err
	}
	s.Put(key, bw.Bytes())
	return nil
}

func getUint64(s Storage, key []byte) (uint64, error) {
	data, err := s.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, errors.New("invalid counter")
	}
	return binary.LittleEndian.Uint64(data), nil
}

func putUint64(s Storage, key []byte, v uint64) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	s.Put(key, b)
}

func hasFlag(s Storage, key []byte) (bool, error) {
	_, err := s.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func setFlag(s Storage, key []byte) {
	s.Put(key, []byte{1})
}

// loadRoutine returns the routine or ErrNotFound.
func loadRoutine(s Storage, id uint64) (*state.Routine, error) {
	r := new(state.Routine)
	err := getConvertible(s, routineKey(id), r)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func loadStats(s Storage, u util.Uint160) (*state.UserStats, error) {
	st := new(state.UserStats)
	err := getConvertible(s, statsKey(u), st)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return nil, err
	}
	return st, nil
}

// updateStats applies f to the principal's stats and saves them.
func updateStats(s Storage, u util.Uint160, f func(*state.UserStats)) error {
	st, err := loadStats(s, u)
	if err != nil {
		return err
	}
	f(st)
	return putConvertible(s, statsKey(u), st)
}
