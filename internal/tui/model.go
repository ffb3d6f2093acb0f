// Package tui hosts an incremental view in a terminal table.
//
// The bubbletea loop is the view's single owner: key presses become
// scroll metrics, pending page requests become commands, and their
// results come back as messages.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/pageview/internal/pager"
	"github.com/roach88/pageview/internal/render"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// chrome is the number of lines around the table body:
// title, header, separator and status.
const chrome = 4

// DefaultRowHeight is the scroll distance of one table row.
const DefaultRowHeight = 100

// Config controls presentation.
type Config struct {
	Title          string
	RowHeight      float64
	MaxColumnWidth int
}

type pageArrivedMsg struct {
	seq  int64
	page pager.Page
}

type fetchFailedMsg struct {
	seq int64
	err error
}

// Model is the bubbletea model.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	src    pager.Source
	view   *pager.View
	cfg    Config

	pending []pager.Request

	offset int // index of the first visible row
	width  int
	height int
}

// New creates a model whose view fetches from src.
func New(ctx context.Context, src pager.Source, columns []pager.Column, cfg Config, opts ...pager.Option) (*Model, error) {
	if src == nil {
		return nil, fmt.Errorf("source is required")
	}
	if cfg.RowHeight <= 0 {
		cfg.RowHeight = DefaultRowHeight
	}
	if cfg.Title == "" {
		cfg.Title = "pageview"
	}

	ctx, cancel := context.WithCancel(ctx)
	m := &Model{ctx: ctx, cancel: cancel, src: src, cfg: cfg, height: 24}

	view, err := pager.New(columns, pager.RequesterFunc(func(req pager.Request) {
		m.pending = append(m.pending, req)
	}), opts...)
	if err != nil {
		cancel()
		return nil, err
	}
	m.view = view
	return m, nil
}

// Init starts the first fetch.
func (m *Model) Init() tea.Cmd {
	m.view.Load()
	return m.flush()
}

// Update handles keys, resizes and fetch results.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clamp()
		m.scrolled()
	case tea.KeyMsg:
		if m.handleKey(msg) {
			m.view.Close()
			m.cancel()
			return m, tea.Quit
		}
	case pageArrivedMsg:
		if m.view.OnPageArrived(msg.seq, msg.page) {
			// Re-evaluate in case the new page still doesn't fill the screen.
			m.scrolled()
		}
	case fetchFailedMsg:
		m.view.OnFetchFailed(msg.seq, msg.err)
	}
	return m, m.flush()
}

// handleKey applies a key press. Returns true to quit.
func (m *Model) handleKey(msg tea.KeyMsg) bool {
	body := m.bodyRows()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return true
	case "up", "k":
		m.offset--
	case "down", "j":
		m.offset++
	case "pgup", "b":
		m.offset -= body
	case "pgdown", " ", "f":
		m.offset += body
	case "home", "g":
		m.offset = 0
	case "end", "G":
		m.offset = m.view.Len()
	case "r":
		m.view.Retry()
		return false
	default:
		return false
	}
	m.clamp()
	m.scrolled()
	return false
}

// scrolled reports the current position to the view.
func (m *Model) scrolled() {
	m.view.OnScroll(m.metrics())
}

func (m *Model) metrics() pager.ScrollMetrics {
	h := m.cfg.RowHeight
	return pager.ScrollMetrics{
		Offset:   float64(m.offset) * h,
		Viewport: float64(m.bodyRows()) * h,
		Content:  float64(m.view.Len()) * h,
	}
}

func (m *Model) bodyRows() int {
	return max(1, m.height-chrome)
}

func (m *Model) clamp() {
	m.offset = min(m.offset, m.view.Len()-m.bodyRows())
	m.offset = max(m.offset, 0)
}

// flush turns requests issued during this update into commands.
func (m *Model) flush() tea.Cmd {
	if len(m.pending) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, len(m.pending))
	for i, req := range m.pending {
		cmds[i] = m.fetch(req)
	}
	m.pending = m.pending[:0]
	return tea.Batch(cmds...)
}

func (m *Model) fetch(req pager.Request) tea.Cmd {
	ctx, src := m.ctx, m.src
	return func() tea.Msg {
		page, err := src.FetchPage(ctx, req.Cursor, req.PageSize)
		if err != nil {
			return fetchFailedMsg{seq: req.Seq, err: err}
		}
		return pageArrivedMsg{seq: req.Seq, page: page}
	}
}

// View renders the visible window of the table.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.cfg.Title))
	b.WriteString("\n")

	tbl := render.Layout(m.view.ViewModel(), m.cfg.MaxColumnWidth)
	b.WriteString(headerStyle.Render(tbl.Header()))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(tbl.Separator()))
	b.WriteString("\n")

	body := m.bodyRows()
	if len(tbl.Rows) == 0 {
		b.WriteString(dimStyle.Render(render.NoData))
		b.WriteString("\n")
		body--
	}
	end := min(m.offset+body, len(tbl.Rows))
	for i := m.offset; i < end; i++ {
		b.WriteString(tbl.Row(i))
		b.WriteString("\n")
	}
	for i := end - m.offset; i < body; i++ {
		b.WriteString("\n")
	}

	status := render.Status(m.view.Len(), m.view.Cursor(), m.view.Err())
	if err := m.view.Err(); err != nil {
		if pager.IsFetchError(err) {
			status += " (r to retry)"
		}
		b.WriteString(errorStyle.Render(status))
	} else {
		b.WriteString(statusStyle.Render(status))
	}
	return b.String()
}

// Run shows the table until the user quits or ctx ends.
func Run(ctx context.Context, src pager.Source, columns []pager.Column, cfg Config, opts ...pager.Option) error {
	m, err := New(ctx, src, columns, cfg, opts...)
	if err != nil {
		return err
	}
	defer m.cancel()

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
