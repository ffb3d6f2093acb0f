package harness

import "github.com/roach88/pageview/internal/pager"

// Trace event types.
const (
	EventRequest = "request"
	EventPage    = "page"
	EventFailure = "failure"
	EventAppend  = "append"
)

// TraceEvent is one request issued by the view or one completion handed
// to it.
type TraceEvent struct {
	Type       string `json:"type"`
	Seq        int64  `json:"seq,omitempty"`
	Cursor     string `json:"cursor,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
	Records    int    `json:"records,omitempty"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more,omitempty"`
	Error      string `json:"error,omitempty"`
	Applied    bool   `json:"applied,omitempty"`
}

// toCanonicalMap keeps the fields that are meaningful for the event type,
// including false and zero values.
func (e TraceEvent) toCanonicalMap() map[string]any {
	m := map[string]any{"type": e.Type}
	switch e.Type {
	case EventRequest:
		m["seq"] = e.Seq
		m["cursor"] = e.Cursor
		m["page_size"] = e.PageSize
	case EventPage:
		m["seq"] = e.Seq
		m["records"] = e.Records
		m["next_cursor"] = e.NextCursor
		m["has_more"] = e.HasMore
		m["applied"] = e.Applied
	case EventFailure:
		m["seq"] = e.Seq
		m["error"] = e.Error
		m["applied"] = e.Applied
	case EventAppend:
		m["records"] = e.Records
		m["next_cursor"] = e.NextCursor
		m["has_more"] = e.HasMore
	}
	return m
}

// FinalState is the view state after the last step.
type FinalState struct {
	IDs    []string     `json:"ids"`
	Cursor pager.Cursor `json:"cursor"`
	Empty  bool         `json:"empty"`
	Error  string       `json:"error"`
	Stats  pager.Stats  `json:"stats"`
	Closed bool         `json:"closed"`
}

func (f FinalState) toCanonicalMap() map[string]any {
	return map[string]any{
		"type": "final",
		"len":  len(f.IDs),
		"cursor": map[string]any{
			"token":    string(f.Cursor.Token),
			"has_more": f.Cursor.HasMore,
			"fetching": f.Cursor.Fetching,
		},
		"empty":  f.Empty,
		"error":  f.Error,
		"closed": f.Closed,
		"stats": map[string]any{
			"requests":   f.Stats.Requests,
			"pages":      f.Stats.Pages,
			"failures":   f.Stats.Failures,
			"duplicates": f.Stats.Duplicates,
			"rejected":   f.Stats.Rejected,
			"stale":      f.Stats.Stale,
		},
	}
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace lists requests and completions in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the view state after the last step.
	Final FinalState `json:"final"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Count returns the number of trace events of the given type.
func (r *Result) Count(eventType string) int {
	n := 0
	for _, e := range r.Trace {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
