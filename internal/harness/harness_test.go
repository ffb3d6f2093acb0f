package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int       { return &n }
func boolp(b bool) *bool    { return &b }
func strp(s string) *string { return &s }

func TestRun_GoldenScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		s, err := LoadScenario(path)
		require.NoError(t, err)

		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
		})
	}
}

// firstPage mirrors the opening of scroll_to_end: one page of 100 with
// more to come.
func firstPage() *Scenario {
	return &Scenario{
		Name:        "first_page",
		Description: "first page only",
		PageSize:    100,
		Columns:     []string{"name"},
		Pages: []PageSpec{
			{Generate: &Generate{Prefix: "r", Count: 100}, NextCursor: "c1", HasMore: true},
		},
		Steps: []Step{{Load: true}, {Deliver: &DeliverStep{}}},
	}
}

func TestRun_FirstPageState(t *testing.T) {
	s := firstPage()
	s.Assertions = []Assertion{
		{Type: AssertCollectionLen, Count: intp(100)},
		{Type: AssertCursor, Token: strp("c1"), HasMore: boolp(true), Fetching: boolp(false)},
		{Type: AssertEmpty, Value: boolp(false)},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
	assert.Equal(t, "r000", result.Final.IDs[0])
	assert.Equal(t, "r099", result.Final.IDs[99])
}

func TestRun_InFlightState(t *testing.T) {
	s := firstPage()
	s.Steps = []Step{{Load: true}}
	s.Assertions = []Assertion{
		{Type: AssertCursor, Token: strp(""), HasMore: boolp(true), Fetching: boolp(true)},
		{Type: AssertEmpty, Value: boolp(true)},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
}

func TestRun_FailingAssertionsReported(t *testing.T) {
	s := firstPage()
	s.Assertions = []Assertion{
		{Type: AssertFetchCount, Count: intp(5)},
		{Type: AssertIDs, IDs: []string{"x"}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Assertion failed: fetch_count")
	assert.Contains(t, result.Errors[0], "Expected: 5 fetches")
	assert.Contains(t, result.Errors[0], "Actual: 1 fetches")
	assert.Contains(t, result.Errors[0], `request seq=1 cursor=""`)
}

func TestRun_DeliverWithoutPending(t *testing.T) {
	s := firstPage()
	s.Steps = []Step{{Deliver: &DeliverStep{}}}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]: deliver: no pending request")
}

func TestRun_DeliverUnknownSeq(t *testing.T) {
	s := firstPage()
	s.Steps = []Step{{Deliver: &DeliverStep{Seq: 9}}}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no request with seq 9")
}

func TestRun_UnscriptedCursorIsFetchFailure(t *testing.T) {
	s := firstPage()
	s.Steps = append(s.Steps,
		Step{Scroll: &ScrollStep{Bottom: true, Viewport: 600}},
		Step{Deliver: &DeliverStep{}},
	)
	s.Assertions = []Assertion{
		{Type: AssertError, Code: strp("FETCH_FAILED")},
		{Type: AssertCursor, Token: strp("c1"), HasMore: boolp(true), Fetching: boolp(false)},
		{Type: AssertTraceCount, Event: EventFailure, Count: intp(1)},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
	assert.Contains(t, result.Trace[len(result.Trace)-1].Error, "no page scripted")
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/stale_and_duplicates.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := MarshalTrace(first)
	require.NoError(t, err)
	b, err := MarshalTrace(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
