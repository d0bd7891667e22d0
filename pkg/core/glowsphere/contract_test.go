package glowsphere

import (
	"testing"

	"github.com/glowsphere/glowsphere/pkg/core/storage"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/util"
	"github.com/stretchr/testify/require"
)

var (
	alice = util.Uint160{1}
	bob   = util.Uint160{2}
)

type testChain struct {
	t     *testing.T
	c     *Contract
	store *storage.MemoryStore
	index uint32
}

func newTestChain(t *testing.T) *testChain {
	return &testChain{t: t, c: New(), store: storage.NewMemoryStore(), index: 1}
}

// call runs a method in its own layer persisting it only on ok response.
func (tc *testChain) call(caller util.Uint160, method string, args ...any) (smartcontract.Response, *Context) {
	params, err := smartcontract.NewParametersFromValues(args...)
	require.NoError(tc.t, err)
	layer := storage.NewMemCachedStore(tc.store)
	ic := NewContext(layer, caller, tc.index)
	res, err := tc.c.Invoke(ic, method, params)
	require.NoError(tc.t, err)
	if res.OK {
		_, err = layer.Persist()
		require.NoError(tc.t, err)
	}
	tc.index++
	return res, ic
}

func (tc *testChain) ok(caller util.Uint160, method string, args ...any) smartcontract.Parameter {
	res, _ := tc.call(caller, method, args...)
	require.True(tc.t, res.OK, "%s: %s", method, res)
	return res.Value
}

func (tc *testChain) fail(code Error, caller util.Uint160, method string, args ...any) {
	res, ic := tc.call(caller, method, args...)
	c, isErr := res.ErrorCode()
	require.True(tc.t, isErr, "%s: %s", method, res)
	require.Equal(tc.t, code.Code(), c)
	require.Empty(tc.t, ic.Events)
}

func (tc *testChain) stats(u util.Uint160) (routines, followers, following, records uint64) {
	st := tc.ok(u, MethodGetUserStats, u)
	get := func(k string) uint64 {
		v, ok := st.MapValue(k)
		require.True(tc.t, ok)
		i, err := v.GetInteger()
		require.NoError(tc.t, err)
		return i
	}
	return get("routines"), get("followers"), get("following"), get("records")
}

func TestManifestIsValid(t *testing.T) {
	c := New()
	require.NoError(t, c.Manifest().IsValid())
	require.NotNil(t, c.GetMethod(MethodCreateRoutine))
	require.False(t, c.GetMethod(MethodCreateRoutine).Safe)
	require.True(t, c.GetMethod(MethodGetRoutine).Safe)
	require.Nil(t, c.GetMethod("transfer"))
}

func TestInvokeFaults(t *testing.T) {
	c := New()
	ic := NewContext(storage.NewMemCachedStore(storage.NewMemoryStore()), alice, 1)

	_, err := c.Invoke(ic, "transfer", nil)
	require.ErrorIs(t, err, ErrMethodNotFound)

	_, err = c.Invoke(ic, MethodLikeRoutine, nil)
	require.ErrorIs(t, err, ErrInvalidArgs)

	_, err = c.Invoke(ic, MethodLikeRoutine, []smartcontract.Parameter{smartcontract.NewString("1")})
	require.ErrorIs(t, err, ErrInvalidArgs)
}

func TestCreateRoutine(t *testing.T) {
	tc := newTestChain(t)
	products := []string{"Cleanser", "Toner", "Moisturizer"}

	res, ic := tc.call(alice, MethodCreateRoutine, "Morning Routine", "My daily morning skincare routine", products, true)
	require.Equal(t, "(ok u1)", res.String())
	require.Len(t, ic.Events, 1)
	require.Equal(t, EventRoutineCreated, ic.Events[0].Name)
	require.NoError(t, tc.c.Manifest().ABI.GetEvent(EventRoutineCreated).CheckCompliance(ic.Events[0].Item))

	routine := tc.ok(alice, MethodGetRoutine, 1)
	for k, expected := range map[string]smartcontract.Parameter{
		"creator":     smartcontract.NewHash160(alice),
		"name":        smartcontract.NewString("Morning Routine"),
		"description": smartcontract.NewString("My daily morning skincare routine"),
		"is-public":   smartcontract.NewBool(true),
		"likes":       smartcontract.NewInteger(0),
		"created-at":  smartcontract.NewInteger(1),
	} {
		v, ok := routine.MapValue(k)
		require.True(t, ok, k)
		require.Equal(t, expected, v, k)
	}

	require.Equal(t, smartcontract.NewInteger(2), tc.ok(bob, MethodCreateRoutine, "Evening", "", []string{}, false))
	require.Equal(t, smartcontract.NewInteger(2), tc.ok(bob, MethodGetRoutineCount))

	routines, _, _, _ := tc.stats(alice)
	require.Equal(t, uint64(1), routines)
}

func TestCreateRoutineInvalidInput(t *testing.T) {
	tc := newTestChain(t)
	long := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = 'a'
		}
		return string(b)
	}
	tooMany := make([]string, MaxProducts+1)
	for i := range tooMany {
		tooMany[i] = "p"
	}

	tc.fail(ErrInvalidInput, alice, MethodCreateRoutine, "", "d", []string{}, true)
	tc.fail(ErrInvalidInput, alice, MethodCreateRoutine, long(MaxNameLen+1), "d", []string{}, true)
	tc.fail(ErrInvalidInput, alice, MethodCreateRoutine, "n", long(MaxDescriptionLen+1), []string{}, true)
	tc.fail(ErrInvalidInput, alice, MethodCreateRoutine, "n", "d", tooMany, true)
	tc.fail(ErrInvalidInput, alice, MethodCreateRoutine, "n", "d", []string{""}, true)
	tc.fail(ErrInvalidInput, alice, MethodCreateRoutine, "n", "d", []any{1}, true)
	tc.fail(ErrInvalidInput, alice, MethodCreateRoutine, "naïve", "d", []string{}, true)

	// Boundaries are fine.
	tc.ok(alice, MethodCreateRoutine, long(MaxNameLen), long(MaxDescriptionLen), tooMany[:MaxProducts], true)
	// Failed calls don't consume ids.
	require.Equal(t, smartcontract.NewInteger(1), tc.ok(alice, MethodGetRoutineCount))
}

func TestLikes(t *testing.T) {
	tc := newTestChain(t)
	tc.ok(alice, MethodCreateRoutine, "Test Routine", "Test Description", []string{"Product 1"}, true)

	require.Equal(t, smartcontract.NewBool(true), tc.ok(bob, MethodLikeRoutine, 1))
	require.Equal(t, smartcontract.NewBool(true), tc.ok(bob, MethodHasLikedRoutine, bob, 1))
	require.Equal(t, smartcontract.NewBool(false), tc.ok(bob, MethodHasLikedRoutine, alice, 1))
	tc.fail(ErrAlreadyExists, bob, MethodLikeRoutine, 1)
	tc.fail(ErrNotFound, bob, MethodLikeRoutine, 7)

	tc.ok(alice, MethodLikeRoutine, 1)
	likes, _ := tc.ok(alice, MethodGetRoutine, 1).MapValue("likes")
	require.Equal(t, smartcontract.NewInteger(2), likes)

	require.Equal(t, smartcontract.NewBool(true), tc.ok(bob, MethodUnlikeRoutine, 1))
	tc.fail(ErrNotLiked, bob, MethodUnlikeRoutine, 1)
	tc.fail(ErrNotFound, bob, MethodUnlikeRoutine, 7)
	require.Equal(t, smartcontract.NewBool(false), tc.ok(bob, MethodHasLikedRoutine, bob, 1))
	likes, _ = tc.ok(alice, MethodGetRoutine, 1).MapValue("likes")
	require.Equal(t, smartcontract.NewInteger(1), likes)
}

func TestPrivateRoutine(t *testing.T) {
	tc := newTestChain(t)
	tc.ok(alice, MethodCreateRoutine, "Secret", "", []string{}, false)

	require.True(t, tc.ok(bob, MethodGetRoutine, 1).IsNone())
	require.False(t, tc.ok(alice, MethodGetRoutine, 1).IsNone())
	require.True(t, tc.ok(bob, MethodGetRoutine, 2).IsNone())
	tc.fail(ErrNotAuthorized, bob, MethodLikeRoutine, 1)
	tc.fail(ErrNotAuthorized, bob, MethodAddProgressRecord, 1, "notes", "hash")

	tc.fail(ErrNotAuthorized, bob, MethodSetRoutineVisibility, 1, true)
	tc.fail(ErrNotFound, alice, MethodSetRoutineVisibility, 5, true)
	res, ic := tc.call(alice, MethodSetRoutineVisibility, 1, true)
	require.True(t, res.OK)
	require.Equal(t, EventVisibilityChanged, ic.Events[0].Name)

	require.False(t, tc.ok(bob, MethodGetRoutine, 1).IsNone())
	tc.ok(bob, MethodLikeRoutine, 1)
}

func TestFollows(t *testing.T) {
	tc := newTestChain(t)

	require.Equal(t, smartcontract.NewBool(true), tc.ok(alice, MethodFollowUser, bob))
	require.Equal(t, smartcontract.NewBool(true), tc.ok(alice, MethodIsFollowing, alice, bob))
	require.Equal(t, smartcontract.NewBool(false), tc.ok(alice, MethodIsFollowing, bob, alice))
	tc.fail(ErrAlreadyExists, alice, MethodFollowUser, bob)
	tc.fail(ErrSelfFollow, alice, MethodFollowUser, alice)

	_, followers, following, _ := tc.stats(alice)
	require.Equal(t, uint64(0), followers)
	require.Equal(t, uint64(1), following)
	_, followers, following, _ = tc.stats(bob)
	require.Equal(t, uint64(1), followers)
	require.Equal(t, uint64(0), following)

	tc.fail(ErrNotLiked, bob, MethodUnfollowUser, alice)
	require.Equal(t, smartcontract.NewBool(true), tc.ok(alice, MethodUnfollowUser, bob))
	require.Equal(t, smartcontract.NewBool(false), tc.ok(alice, MethodIsFollowing, alice, bob))
	_, followers, _, _ = tc.stats(bob)
	require.Equal(t, uint64(0), followers)
}

func TestProgressRecords(t *testing.T) {
	tc := newTestChain(t)
	tc.ok(alice, MethodCreateRoutine, "Morning Routine", "d", []string{"Cleanser"}, true)

	require.Equal(t, smartcontract.NewInteger(1), tc.ok(alice, MethodAddProgressRecord, 1, "Skin feels great", "QmPhotoHash"))
	require.Equal(t, smartcontract.NewInteger(2), tc.ok(alice, MethodAddProgressRecord, 1, "", "QmPhotoHash2"))
	// Record ids are per user.
	require.Equal(t, smartcontract.NewInteger(1), tc.ok(bob, MethodAddProgressRecord, 1, "bob's", "QmBob"))

	rec := tc.ok(alice, MethodGetProgressRecord, alice, 1)
	for k, expected := range map[string]smartcontract.Parameter{
		"routine-id": smartcontract.NewInteger(1),
		"notes":      smartcontract.NewString("Skin feels great"),
		"photo-hash": smartcontract.NewString("QmPhotoHash"),
	} {
		v, ok := rec.MapValue(k)
		require.True(t, ok, k)
		require.Equal(t, expected, v, k)
	}
	require.True(t, tc.ok(bob, MethodGetProgressRecord, alice, 1).IsNone())
	require.True(t, tc.ok(alice, MethodGetProgressRecord, alice, 3).IsNone())

	tc.fail(ErrNotFound, alice, MethodAddProgressRecord, 9, "n", "h")
	tc.fail(ErrInvalidInput, alice, MethodAddProgressRecord, 1, "n", "")
	big := make([]byte, MaxNotesLen+1)
	for i := range big {
		big[i] = 'x'
	}
	tc.fail(ErrInvalidInput, alice, MethodAddProgressRecord, 1, string(big), "h")

	_, _, _, records := tc.stats(alice)
	require.Equal(t, uint64(2), records)
}

func TestErrorStrings(t *testing.T) {
	require.Equal(t, "err-not-found", ErrNotFound.Error())
	require.Equal(t, "err-u7", Error(7).Error())
}
