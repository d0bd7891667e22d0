package rpcclient_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glowsphere/glowsphere/pkg/config"
	"github.com/glowsphere/glowsphere/pkg/core"
	"github.com/glowsphere/glowsphere/pkg/core/block"
	"github.com/glowsphere/glowsphere/pkg/core/glowsphere"
	"github.com/glowsphere/glowsphere/pkg/core/mempoolevent"
	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/core/storage"
	"github.com/glowsphere/glowsphere/pkg/crypto/keys"
	"github.com/glowsphere/glowsphere/pkg/rpcclient"
	"github.com/glowsphere/glowsphere/pkg/services/rpcsrv"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/sphererpc"
	"github.com/glowsphere/glowsphere/pkg/util"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	deployer = keys.NewPrivateKeyFromSeed("deployer")
	wallet1  = keys.NewPrivateKeyFromSeed("wallet_1")
	wallet2  = keys.NewPrivateKeyFromSeed("wallet_2")
)

func newTestNode(t *testing.T) (*core.Blockchain, string) {
	chain, err := core.NewBlockchain(storage.NewMemoryStore(), config.Default().ProtocolConfiguration, zaptest.NewLogger(t))
	require.NoError(t, err)
	chain.Run()

	cfg := config.Default().ApplicationConfiguration.RPC
	cfg.Addresses = []string{"localhost:0"}
	errCh := make(chan error, 1)
	srv := rpcsrv.New(chain, cfg, "/GLOWSPHERE:test/", zaptest.NewLogger(t), errCh)
	srv.Start()
	t.Cleanup(func() {
		srv.Shutdown()
		chain.Close()
	})
	return chain, srv.Addresses()[0]
}

func newClient(t *testing.T, addr string) *rpcclient.Client {
	c, err := rpcclient.New(context.Background(), "http://"+addr, rpcclient.Options{})
	require.NoError(t, err)
	require.NoError(t, c.Init())
	t.Cleanup(c.Close)
	return c
}

// mineFromPool mines a block with all pooled transactions.
func mineFromPool(t *testing.T, chain *core.Blockchain) *block.Block {
	b, err := chain.MineBlock(chain.GetMemPool().GetVerifiedTransactions()...)
	require.NoError(t, err)
	return b
}

func TestGetEndpoint(t *testing.T) {
	host := "http://localhost:1234"
	c, err := rpcclient.New(context.Background(), host, rpcclient.Options{})
	require.NoError(t, err)
	require.Equal(t, host, c.Endpoint())
}

func TestCalculateValidUntilBlockNotInitialized(t *testing.T) {
	c, err := rpcclient.New(context.Background(), "http://localhost:1234", rpcclient.Options{})
	require.NoError(t, err)
	_, err = c.CalculateValidUntilBlock()
	require.Error(t, err)
}

func TestClientChainQueries(t *testing.T) {
	chain, addr := newTestNode(t)
	c := newClient(t, addr)
	require.NoError(t, c.Ping())

	v, err := c.GetVersion()
	require.NoError(t, err)
	require.Equal(t, "/GLOWSPHERE:test/", v.UserAgent)
	require.Equal(t, glowsphere.Name, v.Contract)

	count, err := c.GetBlockCount()
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)

	best, err := c.GetBestBlockHash()
	require.NoError(t, err)
	require.Equal(t, chain.CurrentBlockHash(), best)

	b, err := c.GetBlockByIndex(0)
	require.NoError(t, err)
	require.Equal(t, best, b.Hash())
	b, err = c.GetBlockByHash(best)
	require.NoError(t, err)
	require.Equal(t, uint32(0), b.Index)

	vb, err := c.GetBlockByIndexVerbose(0)
	require.NoError(t, err)
	require.Equal(t, uint32(1), vb.Confirmations)
	vb, err = c.GetBlockByHashVerbose(best)
	require.NoError(t, err)
	require.Equal(t, best, vb.Hash())

	_, err = c.GetBlockByIndex(5)
	require.ErrorIs(t, err, sphererpc.ErrUnknownBlock)

	m, err := c.GetManifest()
	require.NoError(t, err)
	require.Equal(t, glowsphere.Name, m.Name)
	require.NotNil(t, m.ABI.GetMethod(glowsphere.MethodAddProgressRecord))

	require.NoError(t, c.ValidateAddress(wallet1.Address()))
	require.Error(t, c.ValidateAddress("bogus"))

	vub, err := c.CalculateValidUntilBlock()
	require.NoError(t, err)
	require.Equal(t, chain.GetConfig().MaxValidUntilBlockIncrement, vub)

	_, err = c.GetReceipt(util.Uint256{1})
	require.ErrorIs(t, err, sphererpc.ErrUnknownReceipt)
}

func TestClientContractFlow(t *testing.T) {
	chain, addr := newTestNode(t)
	c := newClient(t, addr)

	tx, err := c.SignAndPushTx(deployer, glowsphere.MethodCreateRoutine,
		smartcontract.NewString("Morning Routine"),
		smartcontract.NewString("Gentle cleanse"),
		smartcontract.NewArray(smartcontract.NewString("cleanser")),
		smartcontract.NewBool(true))
	require.NoError(t, err)

	_, err = c.SendRawTransaction(tx)
	require.ErrorIs(t, err, sphererpc.ErrAlreadyExists)

	mined := make(chan error, 1)
	go func() {
		time.Sleep(20 * time.Millisecond)
		_, err := chain.MineBlock(chain.GetMemPool().GetVerifiedTransactions()...)
		mined <- err
	}()
	r, err := c.WaitReceipt(context.Background(), tx.Hash(), tx.ValidUntilBlock, 10*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, <-mined)
	require.Equal(t, "(ok u1)", r.Response.String())

	routine, err := c.GetRoutine(1, nil)
	require.NoError(t, err)
	likes, ok := routine.MapValue("likes")
	require.True(t, ok)
	require.Equal(t, uint64(0), likes.Value)

	missing, err := c.GetRoutine(9, nil)
	require.NoError(t, err)
	require.True(t, missing.IsNone())

	caller := wallet1.Principal()
	inv, err := c.InvokeFunction(glowsphere.MethodLikeRoutine, []smartcontract.Parameter{smartcontract.NewInteger(1)}, &caller)
	require.NoError(t, err)
	require.True(t, inv.Response.OK)

	_, err = c.InvokeFunction("nope", nil, nil)
	require.ErrorIs(t, err, sphererpc.ErrUnknownContractMethod)

	like, err := c.SignAndPushTx(wallet1, glowsphere.MethodLikeRoutine, smartcontract.NewInteger(1))
	require.NoError(t, err)
	follow, err := c.SignAndPushTx(wallet1, glowsphere.MethodFollowUser, smartcontract.NewHash160(wallet2.Principal()))
	require.NoError(t, err)
	record, err := c.SignAndPushTx(wallet1, glowsphere.MethodAddProgressRecord,
		smartcontract.NewInteger(1), smartcontract.NewString("Skin feels smoother"), smartcontract.NewString("QmHash"))
	require.NoError(t, err)
	mineFromPool(t, chain)

	for _, tx := range []util.Uint256{like.Hash(), follow.Hash(), record.Hash()} {
		r, err := c.GetReceipt(tx)
		require.NoError(t, err)
		require.True(t, r.Succeeded(), r.Response.String())
	}

	liked, err := c.HasLiked(wallet1.Principal(), 1)
	require.NoError(t, err)
	require.True(t, liked)

	following, err := c.IsFollowing(wallet1.Principal(), wallet2.Principal())
	require.NoError(t, err)
	require.True(t, following)
	following, err = c.IsFollowing(wallet2.Principal(), wallet1.Principal())
	require.NoError(t, err)
	require.False(t, following)

	p, err := c.GetProgressRecord(wallet1.Principal(), 1, nil)
	require.NoError(t, err)
	require.True(t, p.IsNone())
	other := wallet2.Principal()
	p, err = c.GetProgressRecord(wallet1.Principal(), 1, &other)
	require.NoError(t, err)
	require.True(t, p.IsNone())
	p, err = c.GetProgressRecord(wallet1.Principal(), 1, &caller)
	require.NoError(t, err)
	notes, ok := p.MapValue("notes")
	require.True(t, ok)
	require.Equal(t, "Skin feels smoother", notes.Value)

	stats, err := c.GetUserStats(wallet1.Principal())
	require.NoError(t, err)
	following2, ok := stats.MapValue("following")
	require.True(t, ok)
	require.Equal(t, uint64(1), following2.Value)
}

func TestWaitReceiptNotAccepted(t *testing.T) {
	chain, addr := newTestNode(t)
	c := newClient(t, addr)

	// The transaction is never pooled, so it can't be accepted.
	_, err := chain.MineBlock()
	require.NoError(t, err)
	_, err = c.WaitReceipt(context.Background(), util.Uint256{1}, 1, 5*time.Millisecond)
	require.ErrorIs(t, err, rpcclient.ErrTxNotAccepted)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.WaitReceipt(ctx, util.Uint256{1}, 100, 5*time.Millisecond)
	require.ErrorIs(t, err, rpcclient.ErrContextDone)
}

func TestWSClientSubscriptions(t *testing.T) {
	chain, addr := newTestNode(t)
	wsc, err := rpcclient.NewWS(context.Background(), "ws://"+addr+"/ws", rpcclient.WSOptions{})
	require.NoError(t, err)
	t.Cleanup(wsc.Close)
	require.NoError(t, wsc.Init())

	blocks := make(chan *block.Block, 10)
	receipts := make(chan *state.Receipt, 10)
	mempoolEvents := make(chan *mempoolevent.Event, 10)

	_, err = wsc.ReceiveBlocks(nil, nil)
	require.ErrorIs(t, err, rpcclient.ErrNilNotificationReceiver)

	blockID, err := wsc.ReceiveBlocks(nil, blocks)
	require.NoError(t, err)
	okState := sphererpc.ExecutionOK
	_, err = wsc.ReceiveExecutions(&sphererpc.ExecutionFilter{State: &okState}, receipts)
	require.NoError(t, err)
	added := "added"
	_, err = wsc.ReceiveMempoolEvents(&sphererpc.MempoolEventFilter{Type: &added}, mempoolEvents)
	require.NoError(t, err)

	// Regular calls go over the same connection.
	count, err := wsc.GetBlockCount()
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)

	good, err := wsc.SignAndPushTx(wallet1, glowsphere.MethodFollowUser, smartcontract.NewHash160(wallet2.Principal()))
	require.NoError(t, err)
	bad, err := wsc.SignAndPushTx(wallet1, glowsphere.MethodLikeRoutine, smartcontract.NewInteger(42))
	require.NoError(t, err)

	for _, h := range []util.Uint256{good.Hash(), bad.Hash()} {
		select {
		case e := <-mempoolEvents:
			require.Equal(t, mempoolevent.TransactionAdded, e.Type)
			require.Equal(t, h, e.Tx.Hash())
		case <-time.After(2 * time.Second):
			t.Fatal("no mempool event")
		}
	}

	mined := mineFromPool(t, chain)
	select {
	case b := <-blocks:
		require.Equal(t, mined.Hash(), b.Hash())
		require.Len(t, b.Transactions, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("no block event")
	}
	select {
	case r := <-receipts:
		// Only the successful follow matches the filter.
		assert.Equal(t, good.Hash(), r.TxHash)
		assert.Equal(t, "(ok true)", r.Response.String())
	case <-time.After(2 * time.Second):
		t.Fatal("no execution event")
	}

	require.NoError(t, wsc.Unsubscribe(blockID))
	_, ok := <-blocks
	require.False(t, ok)
	require.Error(t, wsc.Unsubscribe(blockID))
	require.NoError(t, wsc.UnsubscribeAll())
	_, ok = <-receipts
	require.False(t, ok)

	wsc.Close()
	_, err = wsc.GetBlockCount()
	require.True(t, errors.Is(err, rpcclient.ErrWSConnLost))
	require.NoError(t, wsc.GetError())
}

func TestWSClientFiltersPerReceiver(t *testing.T) {
	chain, addr := newTestNode(t)
	wsc, err := rpcclient.NewWS(context.Background(), "ws://"+addr+"/ws", rpcclient.WSOptions{})
	require.NoError(t, err)
	t.Cleanup(wsc.Close)
	require.NoError(t, wsc.Init())

	okState, errState := sphererpc.ExecutionOK, sphererpc.ExecutionErr
	okReceipts := make(chan *state.Receipt, 10)
	errReceipts := make(chan *state.Receipt, 10)
	_, err = wsc.ReceiveExecutions(&sphererpc.ExecutionFilter{State: &okState}, okReceipts)
	require.NoError(t, err)
	_, err = wsc.ReceiveExecutions(&sphererpc.ExecutionFilter{State: &errState}, errReceipts)
	require.NoError(t, err)

	follow, err := wsc.SignAndPushTx(wallet1, glowsphere.MethodFollowUser, smartcontract.NewHash160(wallet2.Principal()))
	require.NoError(t, err)
	like, err := wsc.SignAndPushTx(wallet1, glowsphere.MethodLikeRoutine, smartcontract.NewInteger(42))
	require.NoError(t, err)
	mineFromPool(t, chain)

	for _, tc := range []struct {
		ch       chan *state.Receipt
		hash     util.Uint256
		response string
	}{
		{okReceipts, follow.Hash(), "(ok true)"},
		{errReceipts, like.Hash(), "(err u101)"},
	} {
		select {
		case r := <-tc.ch:
			require.Equal(t, tc.hash, r.TxHash)
			require.Equal(t, tc.response, r.Response.String())
		case <-time.After(2 * time.Second):
			t.Fatal("no execution event")
		}
	}
	// Both receipts went over the connection, each receiver got only its own.
	require.Never(t, func() bool { return len(okReceipts)+len(errReceipts) != 0 },
		200*time.Millisecond, 10*time.Millisecond)
}

func TestWSClientEventMissed(t *testing.T) {
	subscribed := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < 2; i++ {
			req := new(sphererpc.Request)
			if conn.ReadJSON(req) != nil {
				return
			}
			resp := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":"sub-%d"}`, req.ID, i)
			if conn.WriteMessage(websocket.TextMessage, []byte(resp)) != nil {
				return
			}
		}
		<-subscribed
		if conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","method":"event_missed","params":[]}`)) != nil {
			return
		}
		// Wait for the client to go away.
		for conn.ReadJSON(new(sphererpc.Request)) == nil {
		}
	}))
	t.Cleanup(srv.Close)

	wsc, err := rpcclient.NewWS(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), rpcclient.WSOptions{})
	require.NoError(t, err)
	t.Cleanup(wsc.Close)

	blocks := make(chan *block.Block, 1)
	receipts := make(chan *state.Receipt, 1)
	_, err = wsc.ReceiveBlocks(nil, blocks)
	require.NoError(t, err)
	_, err = wsc.ReceiveExecutions(nil, receipts)
	require.NoError(t, err)
	close(subscribed)

	requireClosed := func(closed func() bool) {
		done := make(chan bool, 1)
		go func() { done <- closed() }()
		select {
		case ok := <-done:
			require.True(t, ok)
		case <-time.After(2 * time.Second):
			t.Fatal("receiver is not closed")
		}
	}
	requireClosed(func() bool {
		_, ok := <-blocks
		return !ok
	})
	requireClosed(func() bool {
		_, ok := <-receipts
		return !ok
	})
	// The connection itself stays usable.
	require.NoError(t, wsc.GetError())
}
