package scheduler

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"presse/internal/model"
)

type Ingester interface {
	IngestAll(ctx context.Context) model.CycleSummary
}

// Scheduler fires one ingestion cycle at startup and then on a fixed
// interval. When a cycle is still running as the next tick fires, the tick
// is skipped rather than queued or run concurrently.
type Scheduler struct {
	ingester Ingester
	interval time.Duration
	running  atomic.Bool
}

func New(ingester Ingester, interval time.Duration) *Scheduler {
	return &Scheduler{
		ingester: ingester,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled. A cycle failure is only ever a logged
// summary; the loop always waits for the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	go s.cycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			go s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		log.Printf("WARN: previous ingestion cycle still running, skipping tick")
		return
	}

	defer s.running.Store(false)

	summary := s.ingester.IngestAll(ctx)

	if !summary.Success {
		log.Printf("ERROR: ingestion cycle failed: %s", summary.Message)
		return
	}

	log.Printf("ingestion cycle done: %s", summary.Message)
}
