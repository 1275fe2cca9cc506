package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakechat/models"
)

type countingTicker struct {
	calls atomic.Int32
	err   error
}

func (c *countingTicker) TickAll(ctx context.Context) (*models.SettlementRun, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &models.SettlementRun{WagersChecked: 1}, nil
}

func TestSettlementWorker_RunsImmediatelyAndOnInterval(t *testing.T) {
	ticker := &countingTicker{}
	stop := NewSettlementWorker(ticker, 10*time.Millisecond).Start(context.Background())
	defer stop()

	require.Eventually(t, func() bool { return ticker.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestSettlementWorker_StopHaltsPasses(t *testing.T) {
	ticker := &countingTicker{}
	stop := NewSettlementWorker(ticker, time.Hour).Start(context.Background())

	require.Eventually(t, func() bool { return ticker.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	stop()

	assert.Equal(t, int32(1), ticker.calls.Load())
}

func TestSettlementWorker_ContextCancelStops(t *testing.T) {
	ticker := &countingTicker{err: errors.New("database unavailable")}
	ctx, cancel := context.WithCancel(context.Background())
	stop := NewSettlementWorker(ticker, 5*time.Millisecond).Start(ctx)

	require.Eventually(t, func() bool { return ticker.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	stop()

	after := ticker.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticker.calls.Load())
}
