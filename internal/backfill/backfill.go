// Package backfill runs the per-event download → transcode → upload
// pipeline across a bounded worker pool. Events are independent units:
// one failure is counted and skipped, never aborting the batch, and no
// ordering is guaranteed between completions.
package backfill

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultWorkers is a conservative pool size, chosen to respect upstream
// rate limits rather than for throughput.
const DefaultWorkers = 3

// Processor handles one event end to end.
type Processor interface {
	Process(ctx context.Context, eventID string) error
}

// Counters tracks batch progress under a concurrency-safe increment
// discipline. Shared by all workers.
type Counters struct {
	processed atomic.Int64
	skipped   atomic.Int64
	errors    atomic.Int64
}

func (c *Counters) Processed() int64 { return c.processed.Load() }
func (c *Counters) Skipped() int64   { return c.skipped.Load() }
func (c *Counters) Errors() int64    { return c.errors.Load() }

// Summary is the final accounting of a run.
type Summary struct {
	RunID     string
	Processed int64
	Skipped   int64
	Errors    int64
	Elapsed   time.Duration
}

// Runner executes a Processor over a set of events with bounded
// parallelism.
type Runner struct {
	RunID   string
	Workers int
}

// Run processes every event ID and returns the summary. Cancelling ctx
// stops dispatching new events; units already in flight run to
// completion, and anything they uploaded is retained.
func (r *Runner) Run(ctx context.Context, eventIDs []string, p Processor) Summary {
	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	start := time.Now()
	var counters Counters
	var completed atomic.Int64
	total := len(eventIDs)

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for _, eventID := range eventIDs {
		if ctx.Err() != nil {
			counters.skipped.Add(1)
			continue
		}

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sem <- struct{}{}        // Acquire semaphore
			defer func() { <-sem }() // Release semaphore

			err := p.Process(ctx, id)
			n := completed.Add(1)
			if err != nil {
				counters.errors.Add(1)
				log.Error().Err(err).
					Str("event", id).
					Int64("completed", n).
					Int("total", total).
					Msg("Event failed")
				return
			}
			counters.processed.Add(1)
			log.Info().
				Str("event", id).
				Int64("completed", n).
				Int("total", total).
				Msg("Event processed")
		}(eventID)
	}
	wg.Wait()

	return Summary{
		RunID:     r.RunID,
		Processed: counters.Processed(),
		Skipped:   counters.Skipped(),
		Errors:    counters.Errors(),
		Elapsed:   time.Since(start),
	}
}

// LogSummary emits the final structured summary event.
func (s Summary) LogSummary() {
	evt := log.Info().
		Str("runId", s.RunID).
		Int64("processed", s.Processed).
		Int64("skipped", s.Skipped).
		Int64("errors", s.Errors).
		Dur("elapsed", s.Elapsed)

	if s.Processed > 0 {
		perAsset := s.Elapsed / time.Duration(s.Processed)
		evt = evt.Dur("perAsset", perAsset)
	}
	evt.Msg("Run complete")
}
