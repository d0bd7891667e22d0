package core

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glowsphere/glowsphere/pkg/config"
	"github.com/glowsphere/glowsphere/pkg/core/block"
	"github.com/glowsphere/glowsphere/pkg/core/glowsphere"
	"github.com/glowsphere/glowsphere/pkg/core/mempool"
	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/core/storage"
	"github.com/glowsphere/glowsphere/pkg/core/storage/dbconfig"
	"github.com/glowsphere/glowsphere/pkg/core/transaction"
	"github.com/glowsphere/glowsphere/pkg/crypto/keys"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	deployer = keys.NewPrivateKeyFromSeed("deployer")
	wallet1  = keys.NewPrivateKeyFromSeed("wallet_1")
	wallet2  = keys.NewPrivateKeyFromSeed("wallet_2")
)

func testConfig() config.ProtocolConfiguration {
	return config.Default().ProtocolConfiguration
}

func newTestChain(t *testing.T) *Blockchain {
	return newTestChainWithStore(t, storage.NewMemoryStore())
}

func newTestChainWithStore(t *testing.T, s storage.Store) *Blockchain {
	bc, err := NewBlockchain(s, testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return bc
}

var nonce uint32

func newTx(t *testing.T, bc *Blockchain, signer *keys.PrivateKey, method string, args ...any) *transaction.Transaction {
	params, err := smartcontract.NewParametersFromValues(args...)
	require.NoError(t, err)
	nonce++
	tx := transaction.New(method, params, nonce, bc.BlockHeight()+10)
	tx.Sign(signer)
	return tx
}

func mine(t *testing.T, bc *Blockchain, txs ...*transaction.Transaction) []*state.Receipt {
	b, err := bc.MineBlock(txs...)
	require.NoError(t, err)
	res := make([]*state.Receipt, len(txs))
	for i := range txs {
		res[i], err = bc.GetReceipt(txs[i].Hash())
		require.NoError(t, err)
		require.Equal(t, b.Index, res[i].BlockIndex)
	}
	return res
}

func TestNewBlockchainGenesis(t *testing.T) {
	bc := newTestChain(t)
	require.Equal(t, uint32(0), bc.BlockHeight())

	genesis, err := bc.GetBlockByIndex(0)
	require.NoError(t, err)
	require.Equal(t, genesis.Hash(), bc.CurrentBlockHash())
	require.Equal(t, uint64(genesisTimestamp), genesis.Timestamp)
	require.Empty(t, genesis.Transactions)

	_, err = bc.GetBlockByIndex(1)
	require.ErrorIs(t, err, storage.ErrKeyNotFound)

	_, err = NewBlockchain(storage.NewMemoryStore(), testConfig(), nil)
	require.Error(t, err)

	badCfg := testConfig()
	badCfg.MemPoolSize = 0
	_, err = NewBlockchain(storage.NewMemoryStore(), badCfg, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestBlockchainRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.bolt")
	open := func() *Blockchain {
		s, err := storage.NewStore(dbconfig.DBConfiguration{
			Type:          dbconfig.BoltDB,
			BoltDBOptions: dbconfig.BoltDBOptions{FilePath: path},
		})
		require.NoError(t, err)
		return newTestChainWithStore(t, s)
	}

	bc := open()
	tx := newTx(t, bc, deployer, glowsphere.MethodCreateRoutine, "Morning Routine", "", []string{"Cleanser"}, true)
	mine(t, bc, tx)
	top := bc.CurrentBlockHash()
	bc.Close()

	bc = open()
	defer bc.Close()
	require.Equal(t, uint32(1), bc.BlockHeight())
	require.Equal(t, top, bc.CurrentBlockHash())
	r, err := bc.GetReceipt(tx.Hash())
	require.NoError(t, err)
	require.True(t, r.Succeeded())

	res, err := bc.CallReadOnly(deployer.Principal(), glowsphere.MethodGetRoutineCount)
	require.NoError(t, err)
	require.Equal(t, "(ok u1)", res.Response.String())
}

func TestVersionMismatch(t *testing.T) {
	s := storage.NewMemoryStore()
	s.Put(storage.SYSVersion.Bytes(), []byte("0.0.1"))
	_, err := NewBlockchain(s, testConfig(), zaptest.NewLogger(t))
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestAddBlockErrors(t *testing.T) {
	bc := newTestChain(t)
	top := bc.CurrentBlockHash()

	t.Run("bad index", func(t *testing.T) {
		err := bc.AddBlock(block.New(2, top, 1, nil))
		require.ErrorIs(t, err, ErrInvalidBlockIndex)
	})
	t.Run("bad prev hash", func(t *testing.T) {
		err := bc.AddBlock(block.New(1, util.Uint256{1}, 1, nil))
		require.ErrorIs(t, err, ErrHashMismatch)
	})
	t.Run("bad merkle root", func(t *testing.T) {
		b := block.New(1, top, 1, []*transaction.Transaction{newTx(t, bc, deployer, glowsphere.MethodGetRoutineCount)})
		b.MerkleRoot = util.Uint256{}
		require.ErrorIs(t, bc.AddBlock(b), block.ErrMerkleMismatch)
	})
	t.Run("duplicate transaction", func(t *testing.T) {
		tx := newTx(t, bc, deployer, glowsphere.MethodFollowUser, wallet1.Principal())
		mine(t, bc, tx)
		_, err := bc.MineBlock(tx)
		require.ErrorIs(t, err, ErrAlreadyExists)
	})
	require.Equal(t, uint32(1), bc.BlockHeight())
}

func TestMineBlockTimestamps(t *testing.T) {
	bc := newTestChain(t)
	fixed := time.UnixMilli(genesisTimestamp - 1000)
	bc.timeNow = func() time.Time { return fixed }

	b1, err := bc.MineBlock()
	require.NoError(t, err)
	b2, err := bc.MineBlock()
	require.NoError(t, err)
	require.Greater(t, b1.Timestamp, uint64(genesisTimestamp))
	require.Greater(t, b2.Timestamp, b1.Timestamp)
	require.Equal(t, b1.Hash(), b2.PrevHash)

	bc.timeNow = time.Now
	b3, err := bc.MineBlock()
	require.NoError(t, err)
	require.InDelta(t, time.Now().UnixMilli(), int64(b3.Timestamp), float64(time.Second.Milliseconds()))
}

func TestApplyTransactions(t *testing.T) {
	bc := newTestChain(t)

	create := newTx(t, bc, deployer, glowsphere.MethodCreateRoutine, "Morning Routine", "Daily glow",
		[]string{"Cleanser", "Toner", "Moisturizer"}, true)
	invalid := newTx(t, bc, deployer, glowsphere.MethodCreateRoutine, "", "", []string{}, true)
	unknown := newTx(t, bc, deployer, "burn-routine", 1)
	badArgs := newTx(t, bc, deployer, glowsphere.MethodLikeRoutine, "one")
	tampered := newTx(t, bc, wallet1, glowsphere.MethodLikeRoutine, 1)
	tampered.Signature[len(tampered.Signature)-1] ^= 0xff
	like := newTx(t, bc, wallet1, glowsphere.MethodLikeRoutine, 1)

	rs := mine(t, bc, create, invalid, unknown, badArgs, tampered, like)

	require.True(t, rs[0].Succeeded())
	require.Equal(t, "(ok u1)", rs[0].Response.String())
	require.Len(t, rs[0].Events, 1)
	require.Equal(t, glowsphere.EventRoutineCreated, rs[0].Events[0].Name)
	require.Equal(t, deployer.Principal(), rs[0].Sender)

	require.False(t, rs[1].IsFault())
	require.Equal(t, "(err u103)", rs[1].Response.String())
	require.Empty(t, rs[1].Events)

	for _, r := range rs[2:5] {
		require.True(t, r.IsFault(), r.Method)
		require.False(t, r.Succeeded())
	}
	require.Contains(t, rs[2].FaultException, "method not found")
	require.Contains(t, rs[3].FaultException, "invalid arguments")
	require.Contains(t, rs[4].FaultException, transaction.ErrInvalidSignature.Error())

	require.Equal(t, "(ok true)", rs[5].Response.String())

	// Only the successful calls changed the state.
	res, err := bc.CallReadOnly(util.Uint160{}, glowsphere.MethodGetRoutineCount)
	require.NoError(t, err)
	require.Equal(t, "(ok u1)", res.Response.String())
	res, err = bc.CallReadOnly(util.Uint160{}, glowsphere.MethodHasLikedRoutine, smartcontract.NewHash160(wallet1.Principal()), smartcontract.NewInteger(1))
	require.NoError(t, err)
	require.Equal(t, "(ok true)", res.Response.String())
}

func TestExpiredTransaction(t *testing.T) {
	bc := newTestChain(t)
	tx := transaction.New(glowsphere.MethodFollowUser, []smartcontract.Parameter{smartcontract.NewHash160(wallet2.Principal())}, 1, 0)
	tx.Sign(wallet1)
	rs := mine(t, bc, tx)
	require.True(t, rs[0].IsFault())
	require.Contains(t, rs[0].FaultException, ErrTxExpired.Error())

	tooFar := transaction.New(glowsphere.MethodFollowUser, []smartcontract.Parameter{smartcontract.NewHash160(wallet2.Principal())}, 2,
		bc.BlockHeight()+1+bc.GetConfig().MaxValidUntilBlockIncrement)
	tooFar.Sign(wallet1)
	require.ErrorIs(t, bc.VerifyTx(tooFar), ErrTxValidUntilTooFar)
}

func TestCallReadOnly(t *testing.T) {
	bc := newTestChain(t)

	t.Run("dry run of a public method", func(t *testing.T) {
		res, err := bc.CallReadOnly(deployer.Principal(), glowsphere.MethodCreateRoutine,
			smartcontract.NewString("Evening"), smartcontract.NewString(""), smartcontract.NewArray(), smartcontract.NewBool(false))
		require.NoError(t, err)
		require.Equal(t, "(ok u1)", res.Response.String())
		require.Len(t, res.Events, 1)

		// Nothing persisted.
		res, err = bc.CallReadOnly(deployer.Principal(), glowsphere.MethodGetRoutineCount)
		require.NoError(t, err)
		require.Equal(t, "(ok u0)", res.Response.String())
	})
	t.Run("unknown method", func(t *testing.T) {
		_, err := bc.CallReadOnly(deployer.Principal(), "drop-table")
		require.ErrorIs(t, err, glowsphere.ErrMethodNotFound)
	})
	t.Run("missing routine", func(t *testing.T) {
		res, err := bc.CallReadOnly(deployer.Principal(), glowsphere.MethodGetRoutine, smartcontract.NewInteger(42))
		require.NoError(t, err)
		require.True(t, res.Response.OK)
		require.True(t, res.Response.Value.IsNone())
	})
}

func TestPoolTx(t *testing.T) {
	bc := newTestChain(t)

	tx := newTx(t, bc, wallet1, glowsphere.MethodFollowUser, wallet2.Principal())
	require.NoError(t, bc.PoolTx(tx))
	require.ErrorIs(t, bc.PoolTx(tx), mempool.ErrDup)
	require.Equal(t, 1, bc.GetMemPool().Count())

	unknown := newTx(t, bc, wallet1, "teleport")
	require.ErrorIs(t, bc.PoolTx(unknown), glowsphere.ErrMethodNotFound)

	unsigned := transaction.New(glowsphere.MethodFollowUser, nil, 5, 5)
	require.ErrorIs(t, bc.PoolTx(unsigned), transaction.ErrNoSender)

	// Included transactions are removed from the pool and can't be added again.
	mine(t, bc, tx)
	require.Equal(t, 0, bc.GetMemPool().Count())
	require.True(t, bc.HasTransaction(tx.Hash()))
	require.ErrorIs(t, bc.PoolTx(tx), ErrAlreadyExists)
}

func TestSubscriptions(t *testing.T) {
	bc := newTestChain(t)
	bc.Run()
	defer bc.Close()

	blockCh := make(chan *block.Block, 4)
	receiptCh := make(chan *state.Receipt, 4)
	bc.SubscribeForBlocks(blockCh)
	bc.SubscribeForExecutions(receiptCh)

	tx := newTx(t, bc, wallet1, glowsphere.MethodFollowUser, wallet2.Principal())
	b, err := bc.MineBlock(tx)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(blockCh) == 1 && len(receiptCh) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, b.Hash(), (<-blockCh).Hash())
	r := <-receiptCh
	assert.Equal(t, tx.Hash(), r.TxHash)
	assert.True(t, r.Succeeded())

	bc.UnsubscribeFromBlocks(blockCh)
	bc.UnsubscribeFromExecutions(receiptCh)
	_, err = bc.MineBlock()
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, blockCh)
}

func TestManifest(t *testing.T) {
	bc := newTestChain(t)
	m := bc.GetManifest()
	require.Equal(t, glowsphere.Name, m.Name)
	require.NotNil(t, m.ABI.GetMethod(glowsphere.MethodCreateRoutine))
}
