package rpcclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/sphererpc"
	"github.com/glowsphere/glowsphere/pkg/util"
)

const (
	// DefaultPollRetryCount is the number of failed block count requests
	// tolerated by WaitReceipt.
	DefaultPollRetryCount = 3
)

var (
	// ErrTxNotAccepted is returned when transaction wasn't accepted to the chain
	// even after ValidUntilBlock block persistence.
	ErrTxNotAccepted = errors.New("transaction was not accepted to chain")
	// ErrContextDone is returned when the context has been done in the middle
	// of transaction awaiting process.
	ErrContextDone = errors.New("waiter context done")
)

// WaitReceipt polls the node every pollInterval until the receipt of the
// transaction with the given hash appears. It gives up with ErrTxNotAccepted
// once the chain passes vub.
func (c *Client) WaitReceipt(ctx context.Context, h util.Uint256, vub uint32, pollInterval time.Duration) (*state.Receipt, error) {
	var (
		currentHeight uint32
		failedAttempt int
	)
	timer := time.NewTicker(pollInterval)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			blockCount, err := c.GetBlockCount()
			if err != nil {
				failedAttempt++
				if failedAttempt > DefaultPollRetryCount {
					return nil, fmt.Errorf("failed to retrieve block count: %w", err)
				}
				continue
			}
			failedAttempt = 0
			if blockCount-1 > currentHeight {
				currentHeight = blockCount - 1
			}
			r, err := c.GetReceipt(h)
			if err == nil {
				return r, nil
			}
			if !errors.Is(err, sphererpc.ErrUnknownReceipt) {
				return nil, err
			}
			if currentHeight >= vub {
				return nil, ErrTxNotAccepted
			}
		case <-c.ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrContextDone, c.ctx.Err())
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrContextDone, ctx.Err())
		}
	}
}
