package glowsphere_test

import (
	"testing"

	"github.com/glowsphere/glowsphere/pkg/core/glowsphere"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/spheretest"
	"github.com/glowsphere/glowsphere/pkg/spheretest/chain"
	"github.com/stretchr/testify/require"
)

func newInvoker(t *testing.T) *spheretest.ContractInvoker {
	return spheretest.NewExecutor(t, chain.NewSingle(t)).DeployerInvoker()
}

func field(t *testing.T, p smartcontract.Parameter, key string) smartcontract.Parameter {
	v, ok := p.MapValue(key)
	require.True(t, ok, key)
	return v
}

func TestCreateAndGetRoutine(t *testing.T) {
	c := newInvoker(t)

	h := c.Invoke(t, 1, glowsphere.MethodCreateRoutine, "Morning Routine", "My daily morning skincare routine",
		[]string{"Cleanser", "Toner", "Moisturizer"}, true)
	r := c.GetReceipt(t, h)
	require.Equal(t, "(ok u1)", r.Response.String())
	require.Len(t, r.Events, 1)
	require.Equal(t, glowsphere.EventRoutineCreated, r.Events[0].Name)

	routine := c.WithSigner(spheretest.Account("wallet_1")).InvokeRead(t, glowsphere.MethodGetRoutine, 1)
	require.Equal(t, smartcontract.NewHash160(c.Deployer.Principal()), field(t, routine, "creator"))
	require.Equal(t, smartcontract.NewString("Morning Routine"), field(t, routine, "name"))
	require.Equal(t, smartcontract.NewInteger(0), field(t, routine, "likes"))
	require.Equal(t, smartcontract.NewInteger(uint64(r.BlockIndex)), field(t, routine, "created-at"))
	products, err := field(t, routine, "products").GetArray()
	require.NoError(t, err)
	require.Len(t, products, 3)
}

func TestFollowUser(t *testing.T) {
	var (
		c  = newInvoker(t)
		w1 = spheretest.Account("wallet_1")
		w2 = spheretest.Account("wallet_2")
	)
	c.WithSigner(w1).Invoke(t, true, glowsphere.MethodFollowUser, w2.Principal())
	require.Equal(t, smartcontract.NewBool(true), c.InvokeRead(t, glowsphere.MethodIsFollowing, w1.Principal(), w2.Principal()))
	require.Equal(t, smartcontract.NewBool(false), c.InvokeRead(t, glowsphere.MethodIsFollowing, w2.Principal(), w1.Principal()))

	c.WithSigner(w1).InvokeFail(t, glowsphere.ErrAlreadyExists.Code(), glowsphere.MethodFollowUser, w2.Principal())
	c.WithSigner(w1).InvokeFail(t, glowsphere.ErrSelfFollow.Code(), glowsphere.MethodFollowUser, w1.Principal())

	stats := c.InvokeRead(t, glowsphere.MethodGetUserStats, w2.Principal())
	require.Equal(t, smartcontract.NewInteger(1), field(t, stats, "followers"))
}

func TestLikeRoutine(t *testing.T) {
	var (
		c  = newInvoker(t)
		w1 = spheretest.Account("wallet_1")
	)
	c.Invoke(t, 1, glowsphere.MethodCreateRoutine, "Test Routine", "Test Description", []string{"Product 1"}, true)
	c.WithSigner(w1).Invoke(t, true, glowsphere.MethodLikeRoutine, 1)
	require.Equal(t, smartcontract.NewBool(true), c.InvokeRead(t, glowsphere.MethodHasLikedRoutine, w1.Principal(), 1))

	routine := c.InvokeRead(t, glowsphere.MethodGetRoutine, 1)
	require.Equal(t, smartcontract.NewInteger(1), field(t, routine, "likes"))
}

func TestAddProgressRecord(t *testing.T) {
	c := newInvoker(t)
	c.Invoke(t, 1, glowsphere.MethodCreateRoutine, "Morning Routine", "d", []string{"Cleanser"}, true)
	h := c.Invoke(t, 1, glowsphere.MethodAddProgressRecord, 1, "Skin feels great", "QmPhotoHash")

	rec := c.InvokeRead(t, glowsphere.MethodGetProgressRecord, c.Deployer.Principal(), 1)
	require.Equal(t, smartcontract.NewInteger(1), field(t, rec, "routine-id"))
	require.Equal(t, smartcontract.NewString("Skin feels great"), field(t, rec, "notes"))
	require.Equal(t, smartcontract.NewString("QmPhotoHash"), field(t, rec, "photo-hash"))
	require.Equal(t, smartcontract.NewInteger(uint64(c.GetReceipt(t, h).BlockIndex)), field(t, rec, "timestamp"))
}

func TestFailedCallIsReverted(t *testing.T) {
	c := newInvoker(t)
	c.Invoke(t, 1, glowsphere.MethodCreateRoutine, "r", "", []string{}, false)

	c.WithSigner(spheretest.Account("wallet_1")).InvokeFail(t, glowsphere.ErrNotAuthorized.Code(), glowsphere.MethodLikeRoutine, 1)
	c.Invoke(t, true, glowsphere.MethodSetRoutineVisibility, 1, true)
	c.WithSigner(spheretest.Account("wallet_1")).Invoke(t, true, glowsphere.MethodLikeRoutine, 1)
	require.Equal(t, smartcontract.NewInteger(1), field(t, c.InvokeRead(t, glowsphere.MethodGetRoutine, 1), "likes"))
}
