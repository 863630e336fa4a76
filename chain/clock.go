// Package chain supplies the logical clock the governance engine runs on:
// a block height that never goes backwards.
package chain

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Clock reports the current block height.
type Clock interface {
	Height(ctx context.Context) (uint64, error)
}

type heightReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// NodeClock reads the block height from an EVM node. A node that falls behind
// a height already reported does not move the clock back.
type NodeClock struct {
	client heightReader
	closer func()

	mu   sync.Mutex
	last uint64

	Log *zap.SugaredLogger
}

// DialNodeClock connects to the node at url.
func DialNodeClock(ctx context.Context, url string, loggers ...*zap.SugaredLogger) (*NodeClock, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed dialing chain node %s", url)
	}
	c := newNodeClock(client, loggers...)
	c.closer = client.Close
	return c, nil
}

func newNodeClock(client heightReader, loggers ...*zap.SugaredLogger) *NodeClock {
	log := zap.NewNop().Sugar()
	if len(loggers) > 0 {
		log = loggers[0]
	}
	return &NodeClock{client: client, Log: log}
}

func (c *NodeClock) Height(ctx context.Context) (uint64, error) {
	h, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "Failed reading the block number")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if h < c.last {
		c.Log.Warnf("Node reported height %d behind %d, keeping %d", h, c.last, c.last)
		return c.last, nil
	}
	c.last = h
	return h, nil
}

func (c *NodeClock) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// IntervalClock derives a height from elapsed time: one block per Interval
// since Genesis. It serves deployments without a chain node.
type IntervalClock struct {
	Genesis  time.Time
	Interval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func NewIntervalClock(genesis time.Time, interval time.Duration) (*IntervalClock, error) {
	if interval <= 0 {
		return nil, errors.Errorf("block interval must be positive, got %s", interval)
	}
	return &IntervalClock{Genesis: genesis, Interval: interval, Now: time.Now}, nil
}

func (c *IntervalClock) Height(context.Context) (uint64, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	elapsed := now().Sub(c.Genesis)
	if elapsed < 0 {
		return 0, nil
	}
	return uint64(elapsed / c.Interval), nil
}

// ManualClock is moved explicitly. Set never moves it backwards.
type ManualClock struct {
	mu     sync.Mutex
	height uint64
}

func NewManualClock(height uint64) *ManualClock {
	return &ManualClock{height: height}
}

func (c *ManualClock) Height(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height, nil
}

// Advance moves the clock forward by n blocks and returns the new height.
func (c *ManualClock) Advance(n uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height += n
	return c.height
}

func (c *ManualClock) Set(height uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if height > c.height {
		c.height = height
	}
}
