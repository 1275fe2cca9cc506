package worker

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"stakechat/models"
)

// Ticker applies due timer transitions to every open wager
type Ticker interface {
	TickAll(ctx context.Context) (*models.SettlementRun, error)
}

// SettlementWorker drives wager timers forward on a fixed interval so that
// wagers nobody touches still settle
type SettlementWorker struct {
	ticker   Ticker
	interval time.Duration
}

// NewSettlementWorker creates a worker ticking every interval
func NewSettlementWorker(ticker Ticker, interval time.Duration) *SettlementWorker {
	return &SettlementWorker{ticker: ticker, interval: interval}
}

// Start runs one pass immediately and then one per interval until ctx is
// cancelled or the returned stop func is called. Stop waits for the pass in
// flight to finish.
func (w *SettlementWorker) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(w.interval)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ticker.Stop()
		log.WithField("interval", w.interval.String()).Info("Settlement worker started")

		w.runPass(ctx)
		for {
			select {
			case <-ctx.Done():
				log.Info("Settlement worker shutting down...")
				return
			case <-ticker.C:
				w.runPass(ctx)
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}

func (w *SettlementWorker) runPass(ctx context.Context) {
	start := time.Now()
	run, err := w.ticker.TickAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.WithFields(log.Fields{
			"error":    err,
			"duration": time.Since(start).String(),
		}).Error("Settlement pass finished with errors")
		return
	}
	log.WithFields(log.Fields{
		"checked":  run.WagersChecked,
		"settled":  run.WagersSettled,
		"duration": time.Since(start).String(),
	}).Debug("Settlement pass completed")
}
