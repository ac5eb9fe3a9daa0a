package yield

import (
	"context"
	"log"
	"time"
)

// Sweeper is the subset of the database the maintenance worker needs.
type Sweeper interface {
	ClearExpiredPinResets(now time.Time) (int64, error)
}

// Worker runs periodic maintenance: today that is expiring stale PIN reset
// codes. It stops when its context is cancelled.
type Worker struct {
	store    Sweeper
	interval time.Duration
}

func NewWorker(store Sweeper, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Worker{store: store, interval: interval}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleared, err := w.store.ClearExpiredPinResets(time.Now())
			if err != nil {
				log.Printf("maintenance sweep failed: %v", err)
				continue
			}
			if cleared > 0 {
				log.Printf("expired %d pin reset codes", cleared)
			}
		}
	}
}
