package mempool

import (
	"github.com/glowsphere/glowsphere/pkg/core/mempoolevent"
)

// RunSubscriptions starts delivering pool events to subscribers. The pool
// must be created with subscriptions enabled. StopSubscriptions releases
// the dispatcher.
func (mp *Pool) RunSubscriptions() {
	mp.mustHaveSubscriptions()
	if mp.subscriptionsOn.CompareAndSwap(false, true) {
		go mp.dispatch()
	}
}

// StopSubscriptions stops event delivery. Subscriber channels are left open.
func (mp *Pool) StopSubscriptions() {
	mp.mustHaveSubscriptions()
	if mp.subscriptionsOn.CompareAndSwap(true, false) {
		close(mp.stopCh)
	}
}

// SubscribeForTransactions registers ch for pool events. Every transaction
// added to or removed from the pool is sent to ch, so the reader must keep
// up with it.
func (mp *Pool) SubscribeForTransactions(ch chan<- mempoolevent.Event) {
	if mp.subscriptionsOn.Load() {
		mp.subCh <- ch
	}
}

// UnsubscribeFromTransactions drops ch from the subscribers, it can be
// closed afterwards. Unknown channels are ignored.
func (mp *Pool) UnsubscribeFromTransactions(ch chan<- mempoolevent.Event) {
	if mp.subscriptionsOn.Load() {
		mp.unsubCh <- ch
	}
}

func (mp *Pool) mustHaveSubscriptions() {
	if !mp.subscriptionsEnabled {
		panic("mempool: subscriptions are disabled")
	}
}

func (mp *Pool) dispatch() {
	subs := make(map[chan<- mempoolevent.Event]struct{})
	for {
		select {
		case <-mp.stopCh:
			return
		case ch := <-mp.subCh:
			subs[ch] = struct{}{}
		case ch := <-mp.unsubCh:
			delete(subs, ch)
		case ev := <-mp.events:
			for ch := range subs {
				ch <- ev
			}
		}
	}
}
