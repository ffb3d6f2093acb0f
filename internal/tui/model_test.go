package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pageview/internal/pager"
	"github.com/roach88/pageview/internal/record"
)

// pagedSource serves total records in order, failing the first
// failFirst calls.
type pagedSource struct {
	total     int
	failFirst int
	calls     int
}

func (s *pagedSource) FetchPage(_ context.Context, cursor pager.Token, pageSize int) (pager.Page, error) {
	s.calls++
	if s.calls <= s.failFirst {
		return pager.Page{}, errors.New("connection refused")
	}
	start := 0
	if !cursor.Absent() {
		fmt.Sscanf(string(cursor), "%d", &start)
	}
	end := min(start+pageSize, s.total)
	page := pager.Page{}
	for i := start; i < end; i++ {
		page.Records = append(page.Records, record.New(fmt.Sprintf("r%03d", i), map[string]any{"name": fmt.Sprintf("row %d", i)}))
	}
	if end < s.total {
		page.NextCursor = pager.Token(fmt.Sprint(end))
		page.HasMore = true
	}
	return page, nil
}

func newTestModel(t *testing.T, src pager.Source) *Model {
	t.Helper()
	m, err := New(context.Background(), src, pager.Columns("name"), Config{Title: "test"},
		pager.WithSessionGenerator(pager.NewFixedGenerator("tui-test")))
	require.NoError(t, err)
	m.width, m.height = 80, 10
	return m
}

// pump runs cmd and feeds the resulting messages back until idle.
func pump(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, c := m.Update(msg)
			queue = append(queue, c)
		}
	}
}

func press(t *testing.T, m *Model, k tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(k)
	pump(t, m, cmd)
}

var endKey = tea.KeyMsg{Type: tea.KeyEnd}

func TestModel_LoadsOnScroll(t *testing.T) {
	src := &pagedSource{total: 250}
	m := newTestModel(t, src)

	pump(t, m, m.Init())
	assert.Equal(t, 100, m.view.Len())
	assert.Equal(t, 1, src.calls)

	// Moving inside the first screen does not cross the threshold.
	press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, src.calls)

	press(t, m, endKey)
	assert.Equal(t, 200, m.view.Len())

	press(t, m, endKey)
	assert.Equal(t, 250, m.view.Len())
	assert.True(t, m.view.Cursor().Exhausted())

	press(t, m, endKey)
	assert.Equal(t, 3, src.calls)
	assert.Contains(t, m.View(), "250 rows | end of data")
}

func TestModel_FillsTallScreen(t *testing.T) {
	src := &pagedSource{total: 50}
	m, err := New(context.Background(), src, pager.Columns("name"), Config{}, pager.WithPageSize(5))
	require.NoError(t, err)

	pump(t, m, m.Init())

	// 20 body rows plus the three-row threshold.
	assert.GreaterOrEqual(t, m.view.Len(), 23)
	assert.Less(t, m.view.Len(), 50)
}

func TestModel_EmptyState(t *testing.T) {
	m := newTestModel(t, &pagedSource{total: 0})
	pump(t, m, m.Init())

	out := m.View()
	assert.Contains(t, out, "(no data)")
	assert.Contains(t, out, "0 rows | end of data")
}

func TestModel_RetryAfterFailure(t *testing.T) {
	src := &pagedSource{total: 10, failFirst: 1}
	m := newTestModel(t, src)

	pump(t, m, m.Init())
	require.True(t, pager.IsFetchError(m.view.Err()))
	assert.Contains(t, m.View(), "fetch failed: connection refused (r to retry)")
	assert.Equal(t, 0, m.view.Len())

	press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.NoError(t, m.view.Err())
	assert.Equal(t, 10, m.view.Len())
	assert.Equal(t, 2, src.calls)
}

func TestModel_RetryShowsLoading(t *testing.T) {
	src := &pagedSource{total: 10, failFirst: 1}
	m := newTestModel(t, src)

	pump(t, m, m.Init())
	require.True(t, m.view.Retry())
	cmd := m.flush()

	out := m.View()
	assert.Contains(t, out, "0 rows | loading...")
	assert.NotContains(t, out, "r to retry")

	pump(t, m, cmd)
	assert.Equal(t, 10, m.view.Len())
}

func TestModel_StaleResultIgnoredAfterQuit(t *testing.T) {
	src := &pagedSource{total: 10}
	m := newTestModel(t, src)

	cmd := m.Init()
	require.NotNil(t, cmd)

	_, quit := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, quit)
	assert.Equal(t, tea.QuitMsg{}, quit())
	assert.True(t, m.view.Closed())

	// The in-flight fetch completes after quit and is dropped.
	pump(t, m, cmd)
	assert.Equal(t, 0, m.view.Len())
}

func TestModel_OffsetClamped(t *testing.T) {
	m := newTestModel(t, &pagedSource{total: 3})
	pump(t, m, m.Init())

	press(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 0, m.offset)
	press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.offset)
}

func TestModel_ResizeTriggersFetch(t *testing.T) {
	src := &pagedSource{total: 500}
	m := newTestModel(t, src)
	pump(t, m, m.Init())
	require.Equal(t, 100, m.view.Len())

	_, cmd := m.Update(tea.WindowSizeMsg{Width: 80, Height: 104})
	pump(t, m, cmd)
	assert.Equal(t, 200, m.view.Len())
}

func TestNew_RequiresSource(t *testing.T) {
	_, err := New(context.Background(), nil, pager.Columns("name"), Config{})
	assert.Error(t, err)
}
