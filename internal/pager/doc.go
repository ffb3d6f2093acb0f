// Package pager implements an incrementally loaded, cursor-paginated view
// over a remote record set.
//
// A View holds the records fetched so far, a Cursor describing fetch
// progress, and a ViewModel projected from the records for rendering.
// The host feeds it scroll positions through OnScroll; when the viewport
// comes within Threshold of the end of the content, the view asks its
// Requester for the next page.
//
// # Single-Flight
//
// At most one request is in flight per view. The cursor moves between
// Idle and Fetching; requestNextPage is a no-op unless the cursor is Idle
// and HasMore is true. A page with HasMore=false is terminal.
//
// # Threading
//
// View is not safe for concurrent use. Every entry point (OnScroll,
// AppendPage, OnPageArrived, OnFetchFailed) must be called from the same
// logical thread, typically the host UI event loop. Requester.RequestPage
// must return immediately; the completion is delivered later through
// OnPageArrived or OnFetchFailed carrying the request's sequence number.
// Completions for a closed view or a superseded request are dropped.
//
// Driver provides such an event loop for hosts that do not have one: it
// serialises scroll events and fetch completions on a single goroutine and
// runs fetches against a blocking Source on worker goroutines.
//
// # Cursors
//
// Tokens are opaque. The view passes Page.NextCursor back unchanged in the
// next Request and never parses or constructs one. A page reporting
// HasMore=true without a next token stops pagination (fail closed) and
// surfaces ErrCodeMissingCursor through View.Err.
package pager
