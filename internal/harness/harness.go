package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/pageview/internal/pager"
	"github.com/roach88/pageview/internal/testutil"
)

// harness executes one scenario.
type harness struct {
	scenario *Scenario
	src      *testutil.ScriptedSource
	view     *pager.View
	result   *Result

	requests map[int64]pager.Request
	pending  []pager.Request
}

// Run executes a scenario and returns the result.
//
// Each run uses a fresh view with a fixed session id and a clock starting
// at zero, so traces are reproducible. An error is returned only when the
// scenario cannot be executed; assertion failures are reported in the
// result.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with view logging sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	pages := make([]testutil.ScriptedPage, len(scenario.Pages))
	for i, p := range scenario.Pages {
		pages[i] = p.scripted()
	}

	h := &harness{
		scenario: scenario,
		src:      testutil.NewScriptedSource(pages...),
		result:   NewResult(),
		requests: make(map[int64]pager.Request),
	}

	opts := []pager.Option{
		pager.WithSessionGenerator(testutil.NewFixedSessionGenerator(scenario.Session)),
		pager.WithClock(pager.NewClock()),
		pager.WithLogger(logger),
	}
	if scenario.PageSize > 0 {
		opts = append(opts, pager.WithPageSize(scenario.PageSize))
	}
	if scenario.Threshold != nil {
		opts = append(opts, pager.WithThreshold(*scenario.Threshold))
	}

	view, err := pager.New(pager.Columns(scenario.Columns...), pager.RequesterFunc(h.request), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create view: %w", err)
	}
	h.view = view

	for i, step := range scenario.Steps {
		n := max(step.Repeat, 1)
		for range n {
			if err := h.execute(step); err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
	}

	h.result.Final = snapshot(view)
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *harness) execute(step Step) error {
	switch {
	case step.Load:
		h.view.Load()
	case step.Retry:
		h.view.Retry()
	case step.Close:
		h.view.Close()
	case step.Scroll != nil:
		h.view.OnScroll(h.metrics(*step.Scroll))
	case step.Append != nil:
		page := step.Append.page()
		h.view.AppendPage(page)
		h.result.Trace = append(h.result.Trace, TraceEvent{
			Type:       EventAppend,
			Records:    len(page.Records),
			NextCursor: string(page.NextCursor),
			HasMore:    page.HasMore,
		})
	case step.Deliver != nil:
		return h.deliverStep(*step.Deliver)
	}
	return nil
}

func (h *harness) metrics(s ScrollStep) pager.ScrollMetrics {
	if !s.Bottom {
		return pager.ScrollMetrics{Offset: s.Offset, Viewport: s.Viewport, Content: s.Content}
	}
	rowHeight := h.scenario.RowHeight
	if rowHeight <= 0 {
		rowHeight = DefaultRowHeight
	}
	content := float64(h.view.Len()) * rowHeight
	return pager.ScrollMetrics{
		Offset:   max(content-s.Viewport, 0),
		Viewport: s.Viewport,
		Content:  content,
	}
}

// request is the view's Requester.
func (h *harness) request(req pager.Request) {
	h.requests[req.Seq] = req
	h.result.Trace = append(h.result.Trace, TraceEvent{
		Type:     EventRequest,
		Seq:      req.Seq,
		Cursor:   string(req.Cursor),
		PageSize: req.PageSize,
	})
	if h.scenario.Synchronous {
		h.deliver(req)
		return
	}
	h.pending = append(h.pending, req)
}

var errNothingPending = errors.New("deliver: no pending request")

func (h *harness) deliverStep(d DeliverStep) error {
	if d.Seq == 0 {
		if len(h.pending) == 0 {
			return errNothingPending
		}
		req := h.pending[0]
		h.pending = h.pending[1:]
		h.deliver(req)
		return nil
	}

	req, ok := h.requests[d.Seq]
	if !ok {
		return fmt.Errorf("deliver: no request with seq %d", d.Seq)
	}
	for i, p := range h.pending {
		if p.Seq == d.Seq {
			h.pending = append(h.pending[:i], h.pending[i+1:]...)
			break
		}
	}
	h.deliver(req)
	return nil
}

// deliver answers req from the scripted source.
func (h *harness) deliver(req pager.Request) {
	page, err := h.src.FetchPage(context.Background(), req.Cursor, req.PageSize)
	if err != nil {
		applied := h.view.OnFetchFailed(req.Seq, err)
		h.result.Trace = append(h.result.Trace, TraceEvent{
			Type:    EventFailure,
			Seq:     req.Seq,
			Error:   err.Error(),
			Applied: applied,
		})
		return
	}

	// Record the page before handing it over so the trace keeps
	// completion order even if the view issues a request in response.
	idx := len(h.result.Trace)
	h.result.Trace = append(h.result.Trace, TraceEvent{
		Type:       EventPage,
		Seq:        req.Seq,
		Records:    len(page.Records),
		NextCursor: string(page.NextCursor),
		HasMore:    page.HasMore,
	})
	h.result.Trace[idx].Applied = h.view.OnPageArrived(req.Seq, page)
}

func snapshot(v *pager.View) FinalState {
	records := v.Records()
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}

	code := ""
	var pe *pager.Error
	if err := v.Err(); errors.As(err, &pe) {
		code = string(pe.Code)
	}

	return FinalState{
		IDs:    ids,
		Cursor: v.Cursor(),
		Empty:  v.ViewModel().Empty(),
		Error:  code,
		Stats:  v.Stats(),
		Closed: v.Closed(),
	}
}
