package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/glowsphere/glowsphere/pkg/core/block"
)

const (
	defaultTimePerBlock                = time.Second
	defaultMemPoolSize                 = 5000
	defaultMaxTransactionsPerBlock     = 512
	defaultMaxValidUntilBlockIncrement = 5760
)

// ProtocolConfiguration represents the protocol config.
type ProtocolConfiguration struct {
	// TimePerBlock is the interval between blocks produced by the node.
	TimePerBlock time.Duration `yaml:"TimePerBlock"`
	// MemPoolSize is the maximum number of pending transactions.
	MemPoolSize int `yaml:"MemPoolSize"`
	// MaxTransactionsPerBlock is the maximum amount of transactions per block.
	MaxTransactionsPerBlock uint16 `yaml:"MaxTransactionsPerBlock"`
	// MaxValidUntilBlockIncrement is the upper increment size of blockchain height in blocks
	// exceeding that a transaction should fail validation.
	MaxValidUntilBlockIncrement uint32 `yaml:"MaxValidUntilBlockIncrement"`
	// SkipEmptyBlocks makes the producer wait for transactions instead of
	// producing empty blocks.
	SkipEmptyBlocks bool `yaml:"SkipEmptyBlocks"`
}

// Validate checks ProtocolConfiguration for internal consistency and returns
// an error if anything inappropriate found. Other methods can rely on protocol
// validity after this.
func (p *ProtocolConfiguration) Validate() error {
	if p.TimePerBlock <= 0 {
		return errors.New("TimePerBlock must be positive")
	}
	if p.MemPoolSize <= 0 {
		return errors.New("MemPoolSize must be positive")
	}
	if p.MaxTransactionsPerBlock == 0 || p.MaxTransactionsPerBlock > block.MaxTransactionsPerBlock {
		return fmt.Errorf("MaxTransactionsPerBlock must be in [1, %d]", block.MaxTransactionsPerBlock)
	}
	if p.MaxValidUntilBlockIncrement == 0 {
		return errors.New("MaxValidUntilBlockIncrement can't be zero")
	}
	return nil
}
