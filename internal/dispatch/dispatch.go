// Package dispatch runs per-cell work in parallel over vertical strips of a
// grid.
//
// The column range [0, cols) is split into at most Workers contiguous chunks of
// width ceil(cols/usable). Each chunk runs on a long-lived worker goroutine and
// the caller blocks until every chunk has finished. With a single usable
// worker the work runs inline on the caller's goroutine.
package dispatch

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/san-kum/pbdsim/internal/body"
	"github.com/san-kum/pbdsim/internal/grid"
)

// Span is a half-open column range [Lo, Hi).
type Span struct {
	Lo, Hi int
}

type job struct {
	fn      func(lo, hi int)
	span    Span
	barrier *sync.WaitGroup
}

// Dispatcher owns a fixed set of worker goroutines.
type Dispatcher struct {
	workers int
	jobs    chan job
	quit    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool

	batches atomic.Int64
	chunks  atomic.Int64
}

// New starts a dispatcher with the given number of workers. Zero or negative
// means runtime.GOMAXPROCS(0).
func New(workers int) *Dispatcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	d := &Dispatcher{
		workers: workers,
		jobs:    make(chan job, workers*2),
		quit:    make(chan struct{}),
	}
	if workers > 1 {
		d.start()
	}
	return d
}

func (d *Dispatcher) start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case j := <-d.jobs:
			j.fn(j.span.Lo, j.span.Hi)
			j.barrier.Done()
		case <-d.quit:
			return
		}
	}
}

// Workers reports the configured worker count.
func (d *Dispatcher) Workers() int { return d.workers }

// Stats returns the number of Run calls and chunks executed so far.
func (d *Dispatcher) Stats() (batches, chunks int64) {
	return d.batches.Load(), d.chunks.Load()
}

// Chunks partitions [0, cols) the way Run does.
func Chunks(cols, workers int) []Span {
	if cols <= 0 {
		return nil
	}
	usable := min(max(workers, 1), cols)
	width := (cols + usable - 1) / usable
	spans := make([]Span, 0, usable)
	for lo := 0; lo < cols; lo += width {
		spans = append(spans, Span{Lo: lo, Hi: min(lo+width, cols)})
	}
	return spans
}

// Run invokes fn once per column chunk and returns after all calls complete.
// Run must not be called from inside fn, nor concurrently with Close.
func (d *Dispatcher) Run(cols int, fn func(lo, hi int)) {
	if cols <= 0 {
		return
	}
	d.batches.Add(1)

	spans := Chunks(cols, d.workers)
	if len(spans) <= 1 || d.closed.Load() {
		d.chunks.Add(1)
		fn(0, cols)
		return
	}

	var barrier sync.WaitGroup
	barrier.Add(len(spans))
	for _, s := range spans {
		d.jobs <- job{fn: fn, span: s, barrier: &barrier}
	}
	barrier.Wait()
	d.chunks.Add(int64(len(spans)))
}

// ForEachBody calls fn for every body in the grid, bucket by bucket. Bodies in
// different column chunks are visited concurrently.
func (d *Dispatcher) ForEachBody(g *grid.Grid, fn func(*body.Body)) {
	cols, rows := g.Cols(), g.Rows()
	d.Run(cols, func(lo, hi int) {
		for row := 0; row < rows; row++ {
			for col := lo; col < hi; col++ {
				for _, slot := range g.Cell(row*cols + col) {
					fn(g.Body(slot))
				}
			}
		}
	})
}

// ForEachCell calls fn with the coordinates of every cell.
func (d *Dispatcher) ForEachCell(g *grid.Grid, fn func(col, row int)) {
	rows := g.Rows()
	d.Run(g.Cols(), func(lo, hi int) {
		for row := 0; row < rows; row++ {
			for col := lo; col < hi; col++ {
				fn(col, row)
			}
		}
	})
}

// Close stops the workers. Later Run calls execute inline.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.quit)
		d.wg.Wait()
	})
}
