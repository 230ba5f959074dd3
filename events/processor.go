package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"lrs/locate"
)

// Processor drives an operation over all rows of a table. Rows only depend
// on the immutable route index and their own fields, so they are processed
// by Workers goroutines over disjoint row ranges, each writing into its own
// slots of the result slice.
type Processor struct {
	Workers int
}

// Run reads all rows and processes each one in isolation. The result always
// contains one event per row in input order, whatever mix of success and
// failure the rows produce. An unreadable table is a structural failure and
// aborts before any row is processed. Cancellation is checked between rows;
// already produced events are returned together with the context's error.
func (p *Processor) Run(ctx context.Context, table Table, op Operation) ([]LocatedEvent, error) {
	rows, err := table.Rows()
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read input rows for operation %q", op.Name())
	}

	sigolo.Debugf("Start operation %q on %d rows", op.Name(), len(rows))
	runStartTime := time.Now()

	results := make([]LocatedEvent, len(rows))
	if len(rows) == 0 {
		return results, nil
	}

	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(rows) {
		workers = len(rows)
	}

	var canceled atomic.Bool
	var wg sync.WaitGroup
	wg.Add(workers)

	rowsPerWorker := (len(rows) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		from := w * rowsPerWorker
		to := from + rowsPerWorker
		if to > len(rows) {
			to = len(rows)
		}

		go func(from int, to int) {
			defer wg.Done()
			for i := from; i < to; i++ {
				select {
				case <-ctx.Done():
					canceled.Store(true)
					return
				default:
				}
				results[i] = op.Process(rows[i])
			}
		}(from, to)
	}

	wg.Wait()

	runDuration := time.Since(runStartTime)
	sigolo.Debugf("Finished operation %q on %d rows in %s", op.Name(), len(rows), runDuration)

	if canceled.Load() {
		return results, ctx.Err()
	}
	return results, nil
}

// RunPairs snaps the points pairwise onto the route index and synthesizes
// one line event per pair. Pairs failing to snap (or snapping to different
// routes) carry their error; the remaining pairs are still processed. An odd
// point count is reported once via the returned error, next to the events of
// all complete pairs.
func (p *Processor) RunPairs(ctx context.Context, points []orb.Point, snapper *locate.Snapper, locator *locate.Locator) ([]LocatedEvent, error) {
	sigolo.Debugf("Start snapping %d points as %d pairs", len(points), len(points)/2)
	runStartTime := time.Now()

	pairs, shapeErr := snapper.SnapPairs(points)

	results := make([]LocatedEvent, len(pairs))
	for i, pair := range pairs {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}
		results[i] = pairEvent(i+1, pair, locator)
	}

	runDuration := time.Since(runStartTime)
	sigolo.Debugf("Finished snapping %d pairs in %s", len(pairs), runDuration)

	return results, shapeErr
}

func pairEvent(oid int, pair locate.PairResult, locator *locate.Locator) LocatedEvent {
	if pair.Err != nil {
		return LocatedEvent{EventOID: oid, Error: pair.Err.Error()}
	}

	line, err := locator.LocateLine(pair.Event.RouteID, pair.Event.BeginMeasure, pair.Event.EndMeasure, exactMaskFor(pair.Event.RouteID))
	if err != nil {
		return LocatedEvent{EventOID: oid, Error: err.Error()}
	}

	begin := pair.Event.BeginMeasure
	end := pair.Event.EndMeasure
	return LocatedEvent{
		EventOID:     oid,
		Geometry:     line,
		BeginMeasure: &begin,
		EndMeasure:   &end,
	}
}
