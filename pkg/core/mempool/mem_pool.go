package mempool

import (
	"errors"
	"sync"

	"github.com/glowsphere/glowsphere/pkg/core/mempoolevent"
	"github.com/glowsphere/glowsphere/pkg/core/transaction"
	"github.com/glowsphere/glowsphere/pkg/util"
	"go.uber.org/atomic"
)

var (
	// ErrDup is returned when the transaction being added is already present
	// in the memory pool.
	ErrDup = errors.New("already in the memory pool")
	// ErrOOM is returned when the transaction just doesn't fit in the memory
	// pool because of its capacity constraints.
	ErrOOM = errors.New("out of memory")
)

// item represents a transaction in the the Memory pool.
type item struct {
	txn        *transaction.Transaction
	blockStamp uint32
}

// Ledger is the part of the chain the pool needs.
type Ledger interface {
	BlockHeight() uint32
}

// Pool stores the unconfirmed transactions in the order of their arrival.
type Pool struct {
	lock         sync.RWMutex
	verifiedMap  map[util.Uint256]*transaction.Transaction
	verifiedTxes []item

	capacity        int
	updateMetricsCb func(int)

	// subscriptions for mempool events
	subscriptionsEnabled bool
	subscriptionsOn      atomic.Bool
	stopCh               chan struct{}
	events               chan mempoolevent.Event
	subCh                chan chan<- mempoolevent.Event
	unsubCh              chan chan<- mempoolevent.Event
}

// New returns a new Pool struct. updateMetricsCb is called with the new pool
// size on every change, it can be nil.
func New(capacity int, enableSubscriptions bool, updateMetricsCb func(int)) *Pool {
	mp := &Pool{
		verifiedMap:          make(map[util.Uint256]*transaction.Transaction, capacity),
		verifiedTxes:         make([]item, 0, capacity),
		capacity:             capacity,
		subscriptionsEnabled: enableSubscriptions,
		stopCh:               make(chan struct{}),
		events:               make(chan mempoolevent.Event),
		subCh:                make(chan chan<- mempoolevent.Event),
		unsubCh:              make(chan chan<- mempoolevent.Event),
		updateMetricsCb:      updateMetricsCb,
	}
	mp.subscriptionsOn.Store(false)
	return mp
}

// Count returns the total number of uncofirmed transactions.
func (mp *Pool) Count() int {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	return len(mp.verifiedTxes)
}

// ContainsKey checks if the transactions hash is in the Pool.
func (mp *Pool) ContainsKey(hash util.Uint256) bool {
	mp.lock.RLock()
	defer mp.lock.RUnlock()

	_, ok := mp.verifiedMap[hash]
	return ok
}

// Add tries to add the given transaction to the Pool.
func (mp *Pool) Add(t *transaction.Transaction, chain Ledger) error {
	var pItem = item{
		txn:        t,
		blockStamp: chain.BlockHeight(),
	}
	mp.lock.Lock()
	if _, ok := mp.verifiedMap[t.Hash()]; ok {
		mp.lock.Unlock()
		return ErrDup
	}
	if len(mp.verifiedTxes) >= mp.capacity {
		mp.lock.Unlock()
		return ErrOOM
	}
	mp.verifiedTxes = append(mp.verifiedTxes, pItem)
	mp.verifiedMap[t.Hash()] = t
	mp.updateMetrics()
	mp.lock.Unlock()

	if mp.subscriptionsOn.Load() {
		mp.events <- mempoolevent.Event{
			Type: mempoolevent.TransactionAdded,
			Tx:   pItem.txn,
		}
	}
	return nil
}

// Remove removes an item from the mempool if it exists there (and does
// nothing if it doesn't).
func (mp *Pool) Remove(hash util.Uint256) {
	mp.lock.Lock()
	tx, ok := mp.verifiedMap[hash]
	if ok {
		delete(mp.verifiedMap, hash)
		for num := range mp.verifiedTxes {
			if hash.Equals(mp.verifiedTxes[num].txn.Hash()) {
				mp.verifiedTxes = append(mp.verifiedTxes[:num], mp.verifiedTxes[num+1:]...)
				break
			}
		}
		mp.updateMetrics()
	}
	mp.lock.Unlock()

	if ok && mp.subscriptionsOn.Load() {
		mp.events <- mempoolevent.Event{
			Type: mempoolevent.TransactionRemoved,
			Tx:   tx,
		}
	}
}

// RemoveStale filters verified transactions through the given function keeping
// only the transactions for which it returns true. It's used to drop the
// transactions included into a block or expired.
func (mp *Pool) RemoveStale(isOK func(*transaction.Transaction) bool) {
	var stale []*transaction.Transaction

	mp.lock.Lock()
	newVerifiedTxes := mp.verifiedTxes[:0]
	for _, itm := range mp.verifiedTxes {
		if isOK(itm.txn) {
			newVerifiedTxes = append(newVerifiedTxes, itm)
			continue
		}
		delete(mp.verifiedMap, itm.txn.Hash())
		stale = append(stale, itm.txn)
	}
	mp.verifiedTxes = newVerifiedTxes
	mp.updateMetrics()
	mp.lock.Unlock()

	if mp.subscriptionsOn.Load() {
		for _, tx := range stale {
			mp.events <- mempoolevent.Event{
				Type: mempoolevent.TransactionRemoved,
				Tx:   tx,
			}
		}
	}
}

func (mp *Pool) updateMetrics() {
	if mp.updateMetricsCb != nil {
		mp.updateMetricsCb(len(mp.verifiedTxes))
	}
}

// TryGetValue returns a transaction if it exists in the memory pool.
func (mp *Pool) TryGetValue(hash util.Uint256) (*transaction.Transaction, bool) {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	tx, ok := mp.verifiedMap[hash]
	return tx, ok
}

// GetVerifiedTransactions returns a slice of transactions in the order they
// were added.
func (mp *Pool) GetVerifiedTransactions() []*transaction.Transaction {
	mp.lock.RLock()
	defer mp.lock.RUnlock()

	var t = make([]*transaction.Transaction, len(mp.verifiedTxes))
	for i := range mp.verifiedTxes {
		t[i] = mp.verifiedTxes[i].txn
	}
	return t
}

// GetBlockStamp returns the chain height at which the transaction was added.
func (mp *Pool) GetBlockStamp(hash util.Uint256) (uint32, bool) {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	for i := range mp.verifiedTxes {
		if mp.verifiedTxes[i].txn.Hash().Equals(hash) {
			return mp.verifiedTxes[i].blockStamp, true
		}
	}
	return 0, false
}
