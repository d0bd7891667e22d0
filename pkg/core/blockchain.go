package core

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glowsphere/glowsphere/pkg/config"
	"github.com/glowsphere/glowsphere/pkg/core/block"
	"github.com/glowsphere/glowsphere/pkg/core/dao"
	"github.com/glowsphere/glowsphere/pkg/core/glowsphere"
	"github.com/glowsphere/glowsphere/pkg/core/mempool"
	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/core/storage"
	"github.com/glowsphere/glowsphere/pkg/core/transaction"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/smartcontract/manifest"
	"github.com/glowsphere/glowsphere/pkg/util"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Tuning parameters.
const (
	version = "0.1.0"

	// genesisTimestamp is the timestamp of block 0 (2024-01-01T00:00:00Z).
	genesisTimestamp = 1704067200000

	// receiptCacheSize is the number of recent receipts kept in memory.
	receiptCacheSize = 1024
)

var (
	// ErrInvalidBlockIndex is returned when trying to add a block that
	// doesn't directly follow the current one.
	ErrInvalidBlockIndex = errors.New("invalid block index")
	// ErrHashMismatch is returned when the block doesn't refer to the
	// current block as its previous one.
	ErrHashMismatch = errors.New("previous block hash mismatch")
	// ErrAlreadyExists is returned when trying to add a transaction that's
	// already in the chain.
	ErrAlreadyExists = errors.New("already exists")
	// ErrTxExpired is returned when the transaction's ValidUntilBlock has
	// passed.
	ErrTxExpired = errors.New("transaction has expired")
	// ErrTxValidUntilTooFar is returned when the transaction's ValidUntilBlock
	// is too far in the future.
	ErrTxValidUntilTooFar = errors.New("transaction ValidUntilBlock is too far")
	// ErrVersionMismatch is returned when the database was created by an
	// incompatible node version.
	ErrVersionMismatch = errors.New("storage version mismatch")
)

type receiptKind byte

const (
	receiptOK receiptKind = iota
	receiptErr
	receiptFault
)

// Blockchain represents the GlowSphere ledger: blocks of signed contract
// calls applied to the contract storage.
type Blockchain struct {
	config config.ProtocolConfiguration

	log *zap.Logger

	contract *glowsphere.Contract

	// lock protects the chain state changes, read-only calls are done under
	// the read lock.
	lock sync.RWMutex

	// Data access object for CRUD operations around storage. It's write-cached.
	dao *dao.Simple

	// Current index/height of the highest block.
	blockHeight atomic.Uint32
	// Hash and timestamp of the highest block, protected by lock.
	topBlockHash      util.Uint256
	topBlockTimestamp uint64

	// Recent receipts.
	receipts *lru.Cache

	memPool *mempool.Pool

	// timeNow returns the current time, replaced in tests.
	timeNow func() time.Time

	isRunning   atomic.Bool
	stopCh      chan struct{}
	runToExitCh chan struct{}

	subCh   chan any
	unsubCh chan any
	events  chan bcEvent
}

// bcEvent is an internal event generated by the Blockchain and then
// broadcasted to other parties. It joins the new block and associated
// receipts.
type bcEvent struct {
	block    *block.Block
	receipts []*state.Receipt
}

// NewBlockchain returns a new blockchain object that will use the given
// Store as its underlying storage. It restores the chain state from the
// storage or creates a genesis block if the storage is empty.
func NewBlockchain(s storage.Store, cfg config.ProtocolConfiguration, log *zap.Logger) (*Blockchain, error) {
	if log == nil {
		return nil, errors.New("empty logger")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid protocol configuration: %w", err)
	}
	receipts, _ := lru.New(receiptCacheSize) // Never errors for positive size.
	bc := &Blockchain{
		config:      cfg,
		log:         log,
		contract:    glowsphere.New(),
		dao:         dao.NewSimple(s),
		receipts:    receipts,
		memPool:     mempool.New(cfg.MemPoolSize, true, updateMempoolMetrics),
		timeNow:     time.Now,
		stopCh:      make(chan struct{}),
		runToExitCh: make(chan struct{}),
		subCh:       make(chan any),
		unsubCh:     make(chan any),
		events:      make(chan bcEvent, 16),
	}

	if err := bc.init(); err != nil {
		return nil, err
	}
	return bc, nil
}

func (bc *Blockchain) init() error {
	ver, err := bc.dao.GetVersion()
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			return fmt.Errorf("failed to read storage version: %w", err)
		}
		bc.log.Info("no storage version found! creating genesis block")
		bc.dao.PutVersion(version)
		genesis := block.New(0, util.Uint256{}, genesisTimestamp, nil)
		if err := bc.dao.StoreAsBlock(genesis); err != nil {
			return err
		}
		bc.dao.StoreAsCurrentBlock(genesis)
		if _, err := bc.dao.Persist(); err != nil {
			return fmt.Errorf("failed to persist genesis block: %w", err)
		}
		bc.setTop(genesis)
		return nil
	}
	if ver != version {
		return fmt.Errorf("%w: CLI version = %s, DB version = %s", ErrVersionMismatch, version, ver)
	}

	bc.log.Info("restoring blockchain", zap.String("version", version))
	_, height, err := bc.dao.GetCurrentBlock()
	if err != nil {
		return fmt.Errorf("failed to retrieve current block: %w", err)
	}
	top, err := bc.dao.GetBlockByIndex(height)
	if err != nil {
		return fmt.Errorf("failed to retrieve block %d: %w", height, err)
	}
	bc.setTop(top)
	bc.log.Info("blockchain restored", zap.Uint32("height", height))
	return nil
}

func (bc *Blockchain) setTop(b *block.Block) {
	bc.topBlockHash = b.Hash()
	bc.topBlockTimestamp = b.Timestamp
	bc.blockHeight.Store(b.Index)
	updateBlockHeightMetric(b.Index)
}

// Run runs the notification dispatcher and the pool subscriptions until
// Close is called.
func (bc *Blockchain) Run() {
	if !bc.isRunning.CompareAndSwap(false, true) {
		return
	}
	bc.memPool.RunSubscriptions()
	go bc.notificationDispatcher()
}

// Close stops Blockchain's internal loop, syncs changes to persistent storage
// and closes it. The Blockchain is no longer functional after the call to Close.
func (bc *Blockchain) Close() {
	if bc.isRunning.CompareAndSwap(true, false) {
		close(bc.stopCh)
		<-bc.runToExitCh
		bc.memPool.StopSubscriptions()
	}
	bc.lock.Lock()
	defer bc.lock.Unlock()
	if _, err := bc.dao.Persist(); err != nil {
		bc.log.Warn("failed to persist", zap.Error(err))
	}
	if err := bc.dao.Store.Close(); err != nil {
		bc.log.Panic("closing DB failed", zap.Error(err))
	}
}

// GetConfig returns the config stored in the blockchain.
func (bc *Blockchain) GetConfig() config.ProtocolConfiguration {
	return bc.config
}

// GetMemPool returns the memory pool of the blockchain.
func (bc *Blockchain) GetMemPool() *mempool.Pool {
	return bc.memPool
}

// GetManifest returns the manifest of the contract.
func (bc *Blockchain) GetManifest() *manifest.Manifest {
	return bc.contract.Manifest()
}

// BlockHeight returns the height/index of the highest block.
func (bc *Blockchain) BlockHeight() uint32 {
	return bc.blockHeight.Load()
}

// CurrentBlockHash returns the highest processed block hash.
func (bc *Blockchain) CurrentBlockHash() util.Uint256 {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	return bc.topBlockHash
}

// GetBlock returns a Block by the given hash.
func (bc *Blockchain) GetBlock(hash util.Uint256) (*block.Block, error) {
	return bc.dao.GetBlock(hash)
}

// GetBlockByIndex returns a Block by its height.
func (bc *Blockchain) GetBlockByIndex(index uint32) (*block.Block, error) {
	if index > bc.BlockHeight() {
		return nil, storage.ErrKeyNotFound
	}
	return bc.dao.GetBlockByIndex(index)
}

// GetReceipt returns the execution receipt of the given transaction.
func (bc *Blockchain) GetReceipt(hash util.Uint256) (*state.Receipt, error) {
	if r, ok := bc.receipts.Get(hash); ok {
		return r.(*state.Receipt), nil
	}
	r, err := bc.dao.GetReceipt(hash)
	if err != nil {
		return nil, err
	}
	bc.receipts.Add(hash, r)
	return r, nil
}

// HasTransaction returns true if the blockchain contains the given
// transaction hash.
func (bc *Blockchain) HasTransaction(hash util.Uint256) bool {
	return bc.dao.HasTransaction(hash)
}

// AddBlock accepts a successive block for the Blockchain, applies its
// transactions and persists the result.
func (bc *Blockchain) AddBlock(b *block.Block) error {
	bc.lock.Lock()
	defer bc.lock.Unlock()

	expectedHeight := bc.BlockHeight() + 1
	if expectedHeight != b.Index {
		return fmt.Errorf("%w: expected %d, got %d", ErrInvalidBlockIndex, expectedHeight, b.Index)
	}
	if !b.PrevHash.Equals(bc.topBlockHash) {
		return fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, bc.topBlockHash, b.PrevHash)
	}
	if err := b.Verify(); err != nil {
		return fmt.Errorf("block %s is invalid: %w", b.Hash(), err)
	}
	for _, tx := range b.Transactions {
		if bc.dao.HasTransaction(tx.Hash()) {
			return fmt.Errorf("%w: transaction %s", ErrAlreadyExists, tx.Hash())
		}
	}
	return bc.storeBlock(b)
}

// MineBlock creates the next block containing the given transactions and
// adds it to the chain.
func (bc *Blockchain) MineBlock(txs ...*transaction.Transaction) (*block.Block, error) {
	bc.lock.RLock()
	ts := uint64(bc.timeNow().UnixMilli())
	if ts <= bc.topBlockTimestamp {
		ts = bc.topBlockTimestamp + 1
	}
	b := block.New(bc.BlockHeight()+1, bc.topBlockHash, ts, txs)
	bc.lock.RUnlock()

	if err := bc.AddBlock(b); err != nil {
		return nil, err
	}
	return b, nil
}

// storeBlock applies all transactions of the block one by one, each in its
// own storage layer, and persists the result. Must be called under the lock.
func (bc *Blockchain) storeBlock(b *block.Block) error {
	var (
		start    = time.Now()
		cache    = bc.dao.GetWrapped()
		receipts = make([]*state.Receipt, 0, len(b.Transactions))
	)
	for _, tx := range b.Transactions {
		r, kind := bc.applyTransaction(cache, tx, b.Index)
		if err := cache.PutReceipt(r); err != nil {
			return fmt.Errorf("failed to store receipt for %s: %w", tx.Hash(), err)
		}
		receipts = append(receipts, r)
		updateReceiptMetrics(kind)
	}
	if err := cache.StoreAsBlock(b); err != nil {
		return err
	}
	cache.StoreAsCurrentBlock(b)

	if _, err := cache.Persist(); err != nil {
		return fmt.Errorf("failed to persist block layer: %w", err)
	}
	if _, err := bc.dao.Persist(); err != nil {
		return fmt.Errorf("failed to persist block %d: %w", b.Index, err)
	}
	bc.setTop(b)
	for _, r := range receipts {
		bc.receipts.Add(r.TxHash, r)
	}

	bc.memPool.RemoveStale(func(tx *transaction.Transaction) bool {
		return !bc.dao.HasTransaction(tx.Hash()) && tx.ValidUntilBlock > b.Index
	})

	bc.log.Debug("block processed",
		zap.Uint32("height", b.Index),
		zap.Int("txs", len(b.Transactions)),
		zap.Duration("took", time.Since(start)))

	if bc.isRunning.Load() {
		bc.events <- bcEvent{block: b, receipts: receipts}
	}
	return nil
}

// applyTransaction executes the transaction against the given DAO and returns
// its receipt. State changes are only persisted into the DAO when the call
// returns an ok response.
func (bc *Blockchain) applyTransaction(d *dao.Simple, tx *transaction.Transaction, index uint32) (*state.Receipt, receiptKind) {
	r := &state.Receipt{
		TxHash:     tx.Hash(),
		BlockIndex: index,
		Method:     tx.Method,
		Sender:     tx.SenderHash(),
		Events:     []state.NotificationEvent{},
	}
	fault := func(err error) (*state.Receipt, receiptKind) {
		r.FaultException = err.Error()
		bc.log.Debug("transaction fault",
			zap.Stringer("hash", r.TxHash),
			zap.String("method", tx.Method),
			zap.Error(err))
		return r, receiptFault
	}

	if err := bc.verifyTxAt(d, tx, index); err != nil {
		return fault(err)
	}

	layer := storage.NewMemCachedStore(d.Store)
	ic := glowsphere.NewContext(layer, r.Sender, index)
	resp, err := bc.contract.Invoke(ic, tx.Method, tx.Args)
	if err != nil {
		return fault(err)
	}
	r.Response = resp
	if !resp.OK {
		return r, receiptErr
	}
	if _, err := layer.Persist(); err != nil {
		return fault(fmt.Errorf("failed to persist call changes: %w", err))
	}
	r.Events = ic.Events
	return r, receiptOK
}

// verifyTxAt checks the transaction for inclusion into the block with the
// given index.
func (bc *Blockchain) verifyTxAt(d *dao.Simple, tx *transaction.Transaction, index uint32) error {
	if tx.ValidUntilBlock < index {
		return fmt.Errorf("%w: ValidUntilBlock = %d, current height = %d", ErrTxExpired, tx.ValidUntilBlock, index-1)
	}
	if tx.ValidUntilBlock-index >= bc.config.MaxValidUntilBlockIncrement {
		return fmt.Errorf("%w: ValidUntilBlock = %d, current height = %d", ErrTxValidUntilTooFar, tx.ValidUntilBlock, index-1)
	}
	if d.HasTransaction(tx.Hash()) {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, tx.Hash())
	}
	return tx.Verify()
}

// VerifyTx verifies whether the transaction can be included into the next
// block.
func (bc *Blockchain) VerifyTx(tx *transaction.Transaction) error {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	return bc.verifyTxAt(bc.dao, tx, bc.BlockHeight()+1)
}

// PoolTx verifies and tries to add the given transaction into the memory pool.
func (bc *Blockchain) PoolTx(tx *transaction.Transaction) error {
	if bc.memPool.ContainsKey(tx.Hash()) {
		return mempool.ErrDup
	}
	if bc.contract.GetMethod(tx.Method) == nil {
		return fmt.Errorf("%w: %s", glowsphere.ErrMethodNotFound, tx.Method)
	}
	if err := bc.VerifyTx(tx); err != nil {
		return err
	}
	return bc.memPool.Add(tx, bc)
}

// CallReadOnly evaluates the given method on top of the latest state on
// behalf of the caller. Nothing is persisted: public methods are dry-run and
// their response is returned as is. An error is returned when the call
// can't be executed at all.
func (bc *Blockchain) CallReadOnly(caller util.Uint160, method string, args ...smartcontract.Parameter) (*state.Receipt, error) {
	bc.lock.RLock()
	defer bc.lock.RUnlock()

	if args == nil {
		args = []smartcontract.Parameter{}
	}
	height := bc.BlockHeight()
	layer := storage.NewMemCachedStore(bc.dao.Store)
	ic := glowsphere.NewContext(layer, caller, height)
	resp, err := bc.contract.Invoke(ic, method, args)
	if err != nil {
		return nil, err
	}
	return &state.Receipt{
		BlockIndex: height,
		Method:     method,
		Sender:     caller,
		Response:   resp,
		Events:     ic.Events,
	}, nil
}

// notificationDispatcher manages subscription to events and broadcasts new events.
func (bc *Blockchain) notificationDispatcher() {
	var (
		// These are just sets of subscribers, though modelled as maps
		// for ease of management (not a lot of subscriptions is really
		// expected, but maps are convenient for adding/deleting elements).
		blockFeed   = make(map[chan<- *block.Block]bool)
		receiptFeed = make(map[chan<- *state.Receipt]bool)
	)
	defer close(bc.runToExitCh)
	for {
		select {
		case <-bc.stopCh:
			return
		case sub := <-bc.subCh:
			switch ch := sub.(type) {
			case chan<- *block.Block:
				blockFeed[ch] = true
			case chan<- *state.Receipt:
				receiptFeed[ch] = true
			default:
				panic(fmt.Sprintf("bad subscription: %T", sub))
			}
		case unsub := <-bc.unsubCh:
			switch ch := unsub.(type) {
			case chan<- *block.Block:
				delete(blockFeed, ch)
			case chan<- *state.Receipt:
				delete(receiptFeed, ch)
			default:
				panic(fmt.Sprintf("bad unsubscription: %T", unsub))
			}
		case event := <-bc.events:
			for ch := range blockFeed {
				ch <- event.block
			}
			for _, r := range event.receipts {
				for ch := range receiptFeed {
					ch <- r
				}
			}
		}
	}
}

// SubscribeForBlocks adds the given channel to a new block event broadcasting, so when
// there is a new block added to the chain you'll receive it via this channel.
// Make sure it's read from regularly as not reading these events might affect
// other Blockchain functions. Make sure you're not changing the received blocks,
// as it may affect the functionality of Blockchain and other subscribers.
// Subscriptions only work after Run.
func (bc *Blockchain) SubscribeForBlocks(ch chan<- *block.Block) {
	if bc.isRunning.Load() {
		bc.subCh <- ch
	}
}

// SubscribeForExecutions adds the given channel to new transaction execution
// event broadcasting, so when an in-block transaction execution happens you'll
// receive its receipt via this channel.
func (bc *Blockchain) SubscribeForExecutions(ch chan<- *state.Receipt) {
	if bc.isRunning.Load() {
		bc.subCh <- ch
	}
}

// UnsubscribeFromBlocks unsubscribes the given channel from new block notifications,
// you can close it afterwards. Passing non-subscribed channel is a no-op, but
// the method can block if the channel is being read from.
func (bc *Blockchain) UnsubscribeFromBlocks(ch chan<- *block.Block) {
	if bc.isRunning.Load() {
		bc.unsubCh <- ch
	}
}

// UnsubscribeFromExecutions unsubscribes the given channel from execution
// notifications, you can close it afterwards.
func (bc *Blockchain) UnsubscribeFromExecutions(ch chan<- *state.Receipt) {
	if bc.isRunning.Load() {
		bc.unsubCh <- ch
	}
}
