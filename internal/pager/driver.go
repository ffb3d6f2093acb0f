package pager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Snapshot is an immutable copy of view state, safe to read from any
// goroutine.
type Snapshot struct {
	Session string
	Model   ViewModel
	Cursor  Cursor
	Err     error
	Stats   Stats
	Closed  bool
}

// Driver hosts a View on its own event loop.
//
// Scroll, Load and Retry enqueue events; fetches run on worker goroutines
// against the Source and enqueue their completion. Run processes events
// one at a time, so the View itself is only ever touched by the loop
// goroutine.
type Driver struct {
	src    Source
	view   *View
	queue  *eventQueue
	logger *slog.Logger

	// fetchCtx is set by Run before the first event is processed and only
	// read from the loop goroutine.
	fetchCtx context.Context
	wg       sync.WaitGroup

	mu       sync.Mutex
	snapshot Snapshot
	changes  chan struct{}
}

// NewDriver creates a driver whose view fetches from src.
func NewDriver(src Source, columns []Column, opts ...Option) (*Driver, error) {
	if src == nil {
		return nil, fmt.Errorf("source is required")
	}

	d := &Driver{
		src:     src,
		queue:   newEventQueue(),
		changes: make(chan struct{}, 1),
	}

	opts = append(opts, WithOnChange(d.publish))
	view, err := New(columns, RequesterFunc(d.dispatch), opts...)
	if err != nil {
		return nil, err
	}
	d.view = view
	d.logger = view.logger
	d.publish(view)

	return d, nil
}

// Load enqueues a load of the next page. Returns false after Stop.
func (d *Driver) Load() bool {
	return d.queue.Enqueue(event{kind: eventLoad})
}

// Retry enqueues a retry of the last failed fetch. Returns false after Stop.
func (d *Driver) Retry() bool {
	return d.queue.Enqueue(event{kind: eventRetry})
}

// Scroll enqueues a scroll position update. Returns false after Stop.
func (d *Driver) Scroll(m ScrollMetrics) bool {
	return d.queue.Enqueue(event{kind: eventScroll, metrics: m})
}

// Snapshot returns the state after the most recently processed event.
func (d *Driver) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot
}

// Changes signals after state changes. Signals coalesce; read Snapshot
// after receiving.
func (d *Driver) Changes() <-chan struct{} {
	return d.changes
}

// Stop closes the queue. Run drains queued events and returns nil.
func (d *Driver) Stop() {
	d.queue.Close()
}

// Run processes events until ctx is cancelled or Stop is called.
// On return the view is closed and all fetch goroutines have finished;
// completions that arrive late are discarded.
func (d *Driver) Run(ctx context.Context) error {
	fetchCtx, cancel := context.WithCancel(ctx)
	d.fetchCtx = fetchCtx

	defer func() {
		cancel()
		d.queue.Close()
		d.view.Close()
		d.wg.Wait()
		d.publish(d.view)
	}()

	d.logger.Debug("driver starting")
	for {
		if ev, ok := d.queue.TryDequeue(); ok {
			// Completions caused by cancellation must not reach the view.
			if err := ctx.Err(); err != nil {
				return err
			}
			d.process(ev)
			continue
		}

		select {
		case <-ctx.Done():
			d.logger.Debug("driver stopping: context cancelled")
			return ctx.Err()
		case <-d.queue.Wait():
			if d.queue.Drained() {
				d.logger.Debug("driver stopping: queue closed")
				return nil
			}
		}
	}
}

func (d *Driver) process(ev event) {
	switch ev.kind {
	case eventLoad:
		d.view.Load()
	case eventRetry:
		d.view.Retry()
	case eventScroll:
		d.view.OnScroll(ev.metrics)
	case eventArrived:
		d.view.OnPageArrived(ev.seq, ev.page)
	case eventFailed:
		d.view.OnFetchFailed(ev.seq, ev.err)
	}
}

// dispatch runs on the loop goroutine via View.requestNextPage.
func (d *Driver) dispatch(req Request) {
	ctx := d.fetchCtx
	if ctx == nil {
		ctx = context.Background()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		page, err := d.src.FetchPage(ctx, req.Cursor, req.PageSize)
		ev := event{kind: eventArrived, seq: req.Seq, page: page}
		if err != nil {
			ev = event{kind: eventFailed, seq: req.Seq, err: err}
		}
		if !d.queue.Enqueue(ev) {
			if err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Debug("discarding fetch failure after stop", "seq", req.Seq, "error", err)
			} else {
				d.logger.Debug("discarding page after stop", "seq", req.Seq)
			}
		}
	}()
}

func (d *Driver) publish(v *View) {
	snap := Snapshot{
		Session: v.ID(),
		Model:   v.ViewModel(),
		Cursor:  v.Cursor(),
		Err:     v.Err(),
		Stats:   v.Stats(),
		Closed:  v.Closed(),
	}

	d.mu.Lock()
	d.snapshot = snap
	d.mu.Unlock()

	select {
	case d.changes <- struct{}{}:
	default:
	}
}
