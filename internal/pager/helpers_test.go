package pager

import (
	"fmt"

	"github.com/roach88/pageview/internal/record"
)

// recordingRequester captures requests without completing them.
type recordingRequester struct {
	requests []Request
}

func (r *recordingRequester) RequestPage(req Request) {
	r.requests = append(r.requests, req)
}

func (r *recordingRequester) last() Request {
	return r.requests[len(r.requests)-1]
}

func makeRecords(prefix string, from, n int) []record.Record {
	out := make([]record.Record, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%03d", prefix, from+i)
		out[i] = record.New(id, map[string]any{
			"name":  "item " + id,
			"index": from + i,
		})
	}
	return out
}

func ids(records []record.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func newTestView(req Requester, opts ...Option) *View {
	opts = append([]Option{WithSessionGenerator(NewFixedGenerator("view-test"))}, opts...)
	v, err := New(Columns("name", "index"), req, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// bottom returns metrics with the viewport at the very end of the content.
func bottom() ScrollMetrics {
	return ScrollMetrics{Offset: 900, Viewport: 100, Content: 1000}
}

// top returns metrics far from the end of the content.
func top() ScrollMetrics {
	return ScrollMetrics{Offset: 0, Viewport: 100, Content: 10000}
}
