package pager

import (
	"context"
	"math"

	"github.com/roach88/pageview/internal/record"
)

// DefaultPageSize is the number of records asked for per request.
const DefaultPageSize = 100

// DefaultThreshold is the distance from the end of the content, in the
// host's scroll units, below which the next page is requested.
const DefaultThreshold = 300

// Page is one batch of records plus pagination metadata.
type Page struct {
	Records    []record.Record `json:"records" yaml:"records"`
	NextCursor Token           `json:"next_cursor,omitempty" yaml:"next_cursor,omitempty"`
	HasMore    bool            `json:"has_more" yaml:"has_more"`
}

// Request asks for the page starting at Cursor.
type Request struct {
	Seq      int64
	Session  string
	Cursor   Token
	PageSize int
}

// Requester issues page requests on behalf of a View.
//
// RequestPage must not block. The result is reported back through
// View.OnPageArrived or View.OnFetchFailed with the request's Seq.
type Requester interface {
	RequestPage(req Request)
}

// RequesterFunc adapts a function to the Requester interface.
type RequesterFunc func(req Request)

// RequestPage calls f(req).
func (f RequesterFunc) RequestPage(req Request) {
	f(req)
}

// Source fetches a page synchronously. Implementations own their timeout
// and retry policy and should honour ctx cancellation.
type Source interface {
	FetchPage(ctx context.Context, cursor Token, pageSize int) (Page, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, cursor Token, pageSize int) (Page, error)

// FetchPage calls f.
func (f SourceFunc) FetchPage(ctx context.Context, cursor Token, pageSize int) (Page, error) {
	return f(ctx, cursor, pageSize)
}

// ScrollMetrics reports the viewport position along the scroll axis.
// All three values share one unit (pixels, rows, lines).
type ScrollMetrics struct {
	Offset   float64 `json:"scroll_offset" yaml:"scroll_offset"`
	Viewport float64 `json:"viewport_size" yaml:"viewport_size"`
	Content  float64 `json:"content_size" yaml:"content_size"`
}

// Remaining is the distance between the bottom of the viewport and the end
// of the content.
func (m ScrollMetrics) Remaining() float64 {
	return m.Content - m.Offset - m.Viewport
}

// Finite reports whether every value is a finite number.
func (m ScrollMetrics) Finite() bool {
	for _, f := range []float64{m.Offset, m.Viewport, m.Content} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
