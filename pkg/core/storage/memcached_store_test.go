package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemCachedStorePersist(t *testing.T) {
	// persistent Store
	ps := NewMemoryStore()
	// cached Store
	ts := NewMemCachedStore(ps)
	// persisting nothing should do nothing
	c, err := ts.Persist()
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, c)
	// persisting one key should result in one key in ps and nothing in ts
	ts.Put([]byte("key"), []byte("value"))
	c, err = ts.Persist()
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, c)
	v, err := ps.Get([]byte("key"))
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte("value"), v)
	v, err = ts.MemoryStore.Get([]byte("key"))
	assert.Equal(t, ErrKeyNotFound, err)
	assert.Equal(t, []byte(nil), v)
	// now we overwrite the previous `key` contents and also add `key2`,
	ts.Put([]byte("key"), []byte("newvalue"))
	ts.Put([]byte("key2"), []byte("value2"))
	// this is to check that now key is written into the ps before we do
	// persist
	v, err = ps.Get([]byte("key2"))
	assert.Equal(t, ErrKeyNotFound, err)
	assert.Equal(t, []byte(nil), v)
	// two keys should be persisted (one overwritten and one new) and
	// available in the ps
	c, err = ts.Persist()
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, c)
	v, err = ps.Get([]byte("key"))
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte("newvalue"), v)
	v, err = ps.Get([]byte("key2"))
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte("value2"), v)
	// we've persisted some values, make sure successive persist is a no-op
	c, err = ts.Persist()
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, c)
	// test persisting deletions
	ts.Delete([]byte("key"))
	_, err = ts.Get([]byte("key"))
	assert.Equal(t, ErrKeyNotFound, err)
	_, err = ps.Get([]byte("key"))
	assert.Equal(t, nil, err)
	c, err = ts.Persist()
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, c)
	_, err = ps.Get([]byte("key"))
	assert.Equal(t, ErrKeyNotFound, err)
	assert.Equal(t, 1, ps.Len())
}

func TestMemCachedStoreLayers(t *testing.T) {
	ps := NewMemoryStore()
	ps.Put([]byte("a1"), []byte("lower"))
	ps.Put([]byte("a2"), []byte("lower"))
	ps.Put([]byte("a3"), []byte("lower"))

	block := NewMemCachedStore(ps)
	block.Put([]byte("a2"), []byte("block"))

	tx := NewMemCachedStore(block)
	tx.Delete([]byte("a3"))
	tx.Put([]byte("a4"), []byte("tx"))

	var keys, values []string
	tx.Seek(SeekRange{Prefix: []byte("a")}, func(k, v []byte) bool {
		keys = append(keys, string(k))
		values = append(values, string(v))
		return true
	})
	require.Equal(t, []string{"a1", "a2", "a4"}, keys)
	require.Equal(t, []string{"lower", "block", "tx"}, values)

	batch := tx.GetBatch()
	require.Len(t, batch, 2)
	require.Nil(t, batch["a3"])

	// Dropping the tx layer leaves the lower ones untouched.
	_, err := block.Get([]byte("a3"))
	require.NoError(t, err)

	_, err = tx.Persist()
	require.NoError(t, err)
	_, err = block.Get([]byte("a3"))
	require.ErrorIs(t, err, ErrKeyNotFound)
	_, err = ps.Get([]byte("a3"))
	require.NoError(t, err)

	_, err = block.Persist()
	require.NoError(t, err)
	_, err = ps.Get([]byte("a3"))
	require.ErrorIs(t, err, ErrKeyNotFound)
	v, err := ps.Get([]byte("a4"))
	require.NoError(t, err)
	require.Equal(t, []byte("tx"), v)

	var backwards []string
	ps.Seek(SeekRange{Prefix: []byte("a"), Backwards: true}, func(k, v []byte) bool {
		backwards = append(backwards, string(k))
		return true
	})
	require.Equal(t, []string{"a4", "a2", "a1"}, backwards)
}

func TestMemoryStoreBasics(t *testing.T) {
	s := NewMemoryStore()
	s.Put([]byte("k"), []byte("v"))
	v, err := s.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)
	s.Delete([]byte("k"))
	_, err = s.Get([]byte("k"))
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.Equal(t, 0, s.Len())
}

func TestAppendPrefix(t *testing.T) {
	require.Equal(t, []byte{byte(STStorage), 1, 2}, AppendPrefix(STStorage, []byte{1, 2}))
	require.Equal(t, []byte{byte(SYSVersion)}, SYSVersion.Bytes())
}
