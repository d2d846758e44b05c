package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"presse/internal/model"
)

type countingIngester struct {
	calls atomic.Int32
	block chan struct{} // when set, cycles park here until closed
}

func (c *countingIngester) IngestAll(context.Context) model.CycleSummary {
	c.calls.Add(1)

	if c.block != nil {
		<-c.block
	}

	return model.CycleSummary{Success: true, Message: "ok"}
}

func TestRunFiresImmediately(t *testing.T) {
	ingester := &countingIngester{}
	sched := New(ingester, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- sched.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for ingester.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("startup cycle never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}

func TestRunSkipsOverlappingTicks(t *testing.T) {
	ingester := &countingIngester{block: make(chan struct{})}
	sched := New(ingester, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- sched.Run(ctx) }()

	// The startup cycle parks on the block channel; several ticks fire
	// meanwhile and every one of them must be skipped.
	time.Sleep(150 * time.Millisecond)

	if got := ingester.calls.Load(); got != 1 {
		t.Errorf("got %d cycles while one was in flight, want 1", got)
	}

	close(ingester.block)
	cancel()
	<-done
}

func TestRunTicksAgainAfterCycleEnds(t *testing.T) {
	ingester := &countingIngester{}
	sched := New(ingester, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- sched.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for ingester.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d cycles ran, want at least 3", ingester.calls.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
