/*
Package producer implements the block producer that periodically packs
pooled transactions into new blocks.
*/
package producer

import (
	"context"
	"time"

	"github.com/glowsphere/glowsphere/pkg/config"
	"github.com/glowsphere/glowsphere/pkg/core/block"
	"github.com/glowsphere/glowsphere/pkg/core/mempool"
	"github.com/glowsphere/glowsphere/pkg/core/transaction"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Ledger is the chain interface required by the Producer.
type Ledger interface {
	GetMemPool() *mempool.Pool
	MineBlock(txs ...*transaction.Transaction) (*block.Block, error)
}

// Producer mines a block every TimePerBlock from the transactions of the
// memory pool.
type Producer struct {
	chain Ledger
	cfg   config.ProtocolConfiguration
	log   *zap.Logger

	started  atomic.Bool
	quit     chan struct{}
	finished chan struct{}
}

// New returns a new Producer for the given chain.
func New(chain Ledger, cfg config.ProtocolConfiguration, log *zap.Logger) *Producer {
	return &Producer{
		chain:    chain,
		cfg:      cfg,
		log:      log.With(zap.String("service", "producer")),
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Name returns the service name.
func (p *Producer) Name() string {
	return "producer"
}

// Start runs the producer in a separate goroutine until Shutdown is called.
func (p *Producer) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-p.quit
		cancel()
	}()
	go func() {
		p.Run(ctx)
		close(p.finished)
	}()
}

// Shutdown stops the producer started with Start and waits for it to exit.
func (p *Producer) Shutdown() {
	if !p.started.CompareAndSwap(true, false) {
		return
	}
	close(p.quit)
	<-p.finished
}

// Run produces blocks until the context is cancelled.
func (p *Producer) Run(ctx context.Context) {
	p.log.Info("starting block producer", zap.Duration("time per block", p.cfg.TimePerBlock))
	ticker := time.NewTicker(p.cfg.TimePerBlock)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.log.Info("block producer stopped")
			return
		case <-ticker.C:
			if _, err := p.Produce(); err != nil {
				p.log.Warn("failed to produce block", zap.Error(err))
			}
		}
	}
}

// Produce mines a single block from the pooled transactions. It returns nil
// block when there is nothing to mine and empty blocks are skipped.
func (p *Producer) Produce() (*block.Block, error) {
	txs := p.chain.GetMemPool().GetVerifiedTransactions()
	if len(txs) > int(p.cfg.MaxTransactionsPerBlock) {
		txs = txs[:p.cfg.MaxTransactionsPerBlock]
	}
	if len(txs) == 0 && p.cfg.SkipEmptyBlocks {
		return nil, nil
	}
	b, err := p.chain.MineBlock(txs...)
	if err != nil {
		return nil, err
	}
	p.log.Debug("block produced",
		zap.Uint32("index", b.Index),
		zap.Stringer("hash", b.Hash()),
		zap.Int("txs", len(b.Transactions)))
	return b, nil
}
