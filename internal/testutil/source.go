package testutil

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/pageview/internal/pager"
	"github.com/roach88/pageview/internal/record"
)

// ErrNoPage is returned for a cursor with no scripted page.
var ErrNoPage = errors.New("no page scripted for cursor")

// ScriptedPage is the answer to a fetch from Cursor.
// The first FailTimes fetches fail with Fail (FailTimes defaults to 1
// when Fail is set); later fetches return the page.
type ScriptedPage struct {
	Cursor     pager.Token
	Records    []record.Record
	NextCursor pager.Token
	HasMore    bool
	Fail       string
	FailTimes  int
}

// ScriptedSource is a pager.Source that serves pages keyed by request
// cursor and records every call.
//
// Thread-safety: safe for concurrent use.
type ScriptedSource struct {
	mu       sync.Mutex
	pages    map[pager.Token]*ScriptedPage
	failures map[pager.Token]int
	calls    []pager.Token
}

// NewScriptedSource creates a source serving pages.
// A later page for the same cursor replaces an earlier one.
func NewScriptedSource(pages ...ScriptedPage) *ScriptedSource {
	s := &ScriptedSource{
		pages:    make(map[pager.Token]*ScriptedPage, len(pages)),
		failures: make(map[pager.Token]int),
	}
	for _, p := range pages {
		p := p
		s.pages[p.Cursor] = &p
		if p.Fail != "" {
			n := p.FailTimes
			if n <= 0 {
				n = 1
			}
			s.failures[p.Cursor] = n
		}
	}
	return s
}

// FetchPage implements pager.Source.
func (s *ScriptedSource) FetchPage(ctx context.Context, cursor pager.Token, pageSize int) (pager.Page, error) {
	if err := ctx.Err(); err != nil {
		return pager.Page{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, cursor)
	p, ok := s.pages[cursor]
	if !ok {
		return pager.Page{}, fmt.Errorf("%w %q", ErrNoPage, string(cursor))
	}
	if s.failures[cursor] > 0 {
		s.failures[cursor]--
		return pager.Page{}, errors.New(p.Fail)
	}
	return pager.Page{
		Records:    slices.Clone(p.Records),
		NextCursor: p.NextCursor,
		HasMore:    p.HasMore,
	}, nil
}

// Calls returns the cursors fetched, in call order.
func (s *ScriptedSource) Calls() []pager.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// FetchCount returns the number of FetchPage calls.
func (s *ScriptedSource) FetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Records builds records with the given ids and a "name" field equal to
// the id.
func Records(ids ...string) []record.Record {
	out := make([]record.Record, len(ids))
	for i, id := range ids {
		out[i] = record.New(id, map[string]any{"name": id})
	}
	return out
}

// SequentialRecords builds n records with ids prefix+index, starting at
// from, zero-padded to three digits.
func SequentialRecords(prefix string, from, n int) []record.Record {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%03d", prefix, from+i)
	}
	return Records(ids...)
}
