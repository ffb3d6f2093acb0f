package pager

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/pageview/internal/record"
)

// Stats counts view activity for diagnostics.
type Stats struct {
	Requests   int `json:"requests"`
	Pages      int `json:"pages"`
	Failures   int `json:"failures"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
	Stale      int `json:"stale"`
}

// Option configures a View.
type Option func(*View)

// WithPageSize sets the number of records per request (default 100).
func WithPageSize(n int) Option {
	return func(v *View) {
		v.pageSize = n
	}
}

// WithThreshold sets the scroll distance that triggers the next page
// (default 300).
func WithThreshold(threshold float64) Option {
	return func(v *View) {
		v.threshold = threshold
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(v *View) {
		v.logger = l
	}
}

// WithSessionGenerator overrides the UUIDv7 session id generator.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(v *View) {
		v.sessions = g
	}
}

// WithClock overrides the request sequence clock.
func WithClock(c *Clock) Option {
	return func(v *View) {
		v.clock = c
	}
}

// WithOnChange registers a callback run after every state change, on the
// caller's thread.
func WithOnChange(fn func(*View)) Option {
	return func(v *View) {
		v.onChange = fn
	}
}

// View accumulates pages of records and projects them for rendering.
// See the package documentation for the threading contract.
type View struct {
	id        string
	columns   []Column
	requester Requester
	pageSize  int
	threshold float64
	logger    *slog.Logger
	sessions  SessionGenerator
	clock     *Clock
	onChange  func(*View)

	cursor   Cursor
	inflight int64 // seq of the in-flight request, 0 when idle
	records  []record.Record
	index    map[string]struct{}
	model    ViewModel
	err      error
	stats    Stats
	closed   bool
}

// New creates a view over the given columns. Columns are fixed for the
// lifetime of the view.
func New(columns []Column, requester Requester, opts ...Option) (*View, error) {
	if requester == nil {
		return nil, fmt.Errorf("requester is required")
	}
	if err := validateColumns(columns); err != nil {
		return nil, err
	}

	v := &View{
		columns:   slices.Clone(columns),
		requester: requester,
		pageSize:  DefaultPageSize,
		threshold: DefaultThreshold,
		cursor:    NewCursor(),
		index:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}

	if v.pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", v.pageSize)
	}
	if v.threshold < 0 {
		return nil, fmt.Errorf("threshold must be non-negative, got %v", v.threshold)
	}
	if v.sessions == nil {
		v.sessions = UUIDv7Generator{}
	}
	if v.clock == nil {
		v.clock = NewClock()
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}

	v.id = v.sessions.Generate()
	v.logger = v.logger.With("view", v.id)
	v.model = Project(nil, v.columns)

	return v, nil
}

// ID returns the view's session id.
func (v *View) ID() string { return v.id }

// PageSize returns the records-per-request constant.
func (v *View) PageSize() int { return v.pageSize }

// Threshold returns the scroll trigger distance.
func (v *View) Threshold() float64 { return v.threshold }

// Cursor returns the current fetch progress.
func (v *View) Cursor() Cursor { return v.cursor }

// ViewModel returns the current projection.
func (v *View) ViewModel() ViewModel { return v.model }

// Len returns the number of records in the collection.
func (v *View) Len() int { return len(v.records) }

// Records returns a copy of the collection in first-seen order.
func (v *View) Records() []record.Record { return slices.Clone(v.records) }

// Err returns the last pagination error surfaced to the render layer,
// or nil.
func (v *View) Err() error { return v.err }

// Stats returns the diagnostic counters.
func (v *View) Stats() Stats { return v.stats }

// Closed reports whether Close was called.
func (v *View) Closed() bool { return v.closed }

// Load requests the first (or next) page if the guard allows it.
// Returns true if a request was issued.
func (v *View) Load() bool {
	return v.requestNextPage()
}

// Retry re-attempts the request that last failed, from the same cursor.
// Returns false if the last fetch did not fail or a request is in flight.
func (v *View) Retry() bool {
	if !IsFetchError(v.err) {
		return false
	}
	return v.requestNextPage()
}

// OnScroll evaluates the scroll trigger. When fewer than Threshold units
// remain below the viewport, the next page is requested. Returns true if
// a request was issued.
// Metrics with a NaN or infinite value are ignored.
func (v *View) OnScroll(m ScrollMetrics) bool {
	if !m.Finite() {
		v.logger.Debug("ignoring non-finite scroll metrics", "offset", m.Offset, "viewport", m.Viewport, "content", m.Content)
		return false
	}
	if m.Remaining() >= v.threshold {
		return false
	}
	return v.requestNextPage()
}

// requestNextPage is the single entry to the Idle→Fetching transition.
func (v *View) requestNextPage() bool {
	if v.closed || !v.cursor.CanFetch() {
		return false
	}

	seq := v.clock.Next()
	v.cursor = v.cursor.begin()
	v.inflight = seq
	v.stats.Requests++
	if IsFetchError(v.err) {
		v.err = nil
	}

	req := Request{
		Seq:      seq,
		Session:  v.id,
		Cursor:   v.cursor.Token,
		PageSize: v.pageSize,
	}
	v.logger.Debug("requesting page", "seq", seq, "cursor", string(req.Cursor), "page_size", v.pageSize)
	v.notify()

	// The requester may complete synchronously; state is already Fetching.
	v.requester.RequestPage(req)
	return true
}

// OnPageArrived delivers the page for request seq. Completions for a
// closed view or a request other than the in-flight one are dropped.
// Returns true if the page was applied.
func (v *View) OnPageArrived(seq int64, p Page) bool {
	if !v.accepts(seq, "page") {
		return false
	}
	v.apply(seq, p, true)
	return true
}

// OnFetchFailed reports that request seq failed. The cursor returns to
// Idle with token and HasMore unchanged; the error is kept for the render
// layer. Returns true if the failure was applied.
func (v *View) OnFetchFailed(seq int64, cause error) bool {
	if !v.accepts(seq, "failure") {
		return false
	}

	v.cursor = v.cursor.fail()
	v.inflight = 0
	v.stats.Failures++
	v.err = newFetchError(v.id, seq, v.cursor.Token, cause)
	v.logger.Warn("page fetch failed", "seq", seq, "cursor", string(v.cursor.Token), "error", cause)
	v.notify()
	return true
}

func (v *View) accepts(seq int64, kind string) bool {
	if v.closed {
		v.logger.Debug("dropping completion for closed view", "kind", kind, "seq", seq)
		return false
	}
	if seq != v.inflight {
		v.stats.Stale++
		v.logger.Debug("dropping stale completion", "kind", kind, "seq", seq, "inflight", v.inflight)
		return false
	}
	return true
}

// AppendPage appends the page's records, skipping ids already present
// (first seen wins), advances the cursor and recomputes the projection.
// Applying the same page twice leaves the collection as applying it once.
//
// While a request is in flight the records are merged but the cursor is
// left to that request's completion. An exhausted cursor stays exhausted.
func (v *View) AppendPage(p Page) {
	if v.closed {
		return
	}
	v.apply(v.inflight, p, v.cursor.CanFetch())
}

// apply merges p's records and, when advance is set, moves the cursor to
// p's continuation.
func (v *View) apply(seq int64, p Page, advance bool) {
	added := 0
	for _, r := range p.Records {
		if r.ID == "" {
			v.stats.Rejected++
			v.logger.Warn("dropping record without id")
			continue
		}
		if _, dup := v.index[r.ID]; dup {
			v.stats.Duplicates++
			v.logger.Debug("dropping duplicate record", "id", r.ID)
			continue
		}
		v.index[r.ID] = struct{}{}
		v.records = append(v.records, r)
		added++
	}
	v.stats.Pages++

	if advance {
		prev := v.cursor.Token
		next, ok := v.cursor.arrive(p.NextCursor, p.HasMore)
		v.cursor = next
		v.inflight = 0

		if ok {
			v.err = nil
		} else {
			v.err = newMissingCursorError(v.id, seq, prev)
			v.logger.Warn("page has more records but no cursor; pagination stopped", "seq", seq)
		}
	} else {
		v.logger.Debug("page merged without moving cursor",
			"fetching", v.cursor.Fetching,
			"has_more", v.cursor.HasMore,
		)
	}

	v.model = Project(v.records, v.columns)
	v.logger.Debug("page appended",
		"seq", seq,
		"received", len(p.Records),
		"added", added,
		"total", len(v.records),
		"has_more", v.cursor.HasMore,
	)
	v.notify()
}

// Close disposes the view. Later completions are ignored and no further
// requests are issued.
func (v *View) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.inflight = 0
	v.logger.Debug("view closed")
}

func (v *View) notify() {
	if v.onChange != nil {
		v.onChange(v)
	}
}
