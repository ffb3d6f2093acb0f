package pager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitFor polls the driver snapshot until cond holds or the test times out.
func waitFor(t *testing.T, d *Driver, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		snap := d.Snapshot()
		if cond(snap) {
			return snap
		}
		select {
		case <-d.Changes():
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatalf("condition not met; last snapshot: %+v", snap.Cursor)
		}
	}
}

func startDriver(t *testing.T, d *Driver) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func TestNewDriver_RequiresSource(t *testing.T) {
	_, err := NewDriver(nil, Columns("name"))
	require.Error(t, err)
}

func TestDriver_LoadAndScrollToExhaustion(t *testing.T) {
	pages := map[Token]Page{
		"":   {Records: makeRecords("r", 0, 3), NextCursor: "c1", HasMore: true},
		"c1": {Records: makeRecords("r", 3, 2), HasMore: false},
	}
	var calls atomic.Int32
	src := SourceFunc(func(ctx context.Context, cursor Token, size int) (Page, error) {
		calls.Add(1)
		assert.Equal(t, 50, size)
		return pages[cursor], nil
	})

	d, err := NewDriver(src, Columns("name"), WithPageSize(50), WithSessionGenerator(NewFixedGenerator("drv")))
	require.NoError(t, err)
	_, done := startDriver(t, d)

	require.True(t, d.Load())
	snap := waitFor(t, d, func(s Snapshot) bool { return len(s.Model.Rows) == 3 && !s.Cursor.Fetching })
	assert.Equal(t, Token("c1"), snap.Cursor.Token)
	assert.Equal(t, "drv", snap.Session)

	require.True(t, d.Scroll(bottom()))
	snap = waitFor(t, d, func(s Snapshot) bool { return s.Cursor.Exhausted() })
	assert.Len(t, snap.Model.Rows, 5)

	// further scrolling never reaches the source
	for i := 0; i < 5; i++ {
		d.Scroll(bottom())
	}
	d.Stop()
	require.NoError(t, <-done)
	assert.Equal(t, int32(2), calls.Load())
	assert.True(t, d.Snapshot().Closed)
	assert.False(t, d.Scroll(bottom()), "scroll after stop is rejected")
}

func TestDriver_SingleFlightUnderRapidScroll(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	src := SourceFunc(func(ctx context.Context, cursor Token, size int) (Page, error) {
		calls.Add(1)
		<-release
		return Page{Records: makeRecords("r", 0, 1), NextCursor: "c1", HasMore: true}, nil
	})

	d, err := NewDriver(src, Columns("name"))
	require.NoError(t, err)
	_, done := startDriver(t, d)

	for i := 0; i < 50; i++ {
		d.Scroll(bottom())
	}
	waitFor(t, d, func(s Snapshot) bool { return s.Cursor.Fetching })
	close(release)
	waitFor(t, d, func(s Snapshot) bool { return len(s.Model.Rows) == 1 && !s.Cursor.Fetching })

	d.Stop()
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDriver_FailureThenRetry(t *testing.T) {
	var mu sync.Mutex
	fail := true
	src := SourceFunc(func(ctx context.Context, cursor Token, size int) (Page, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			fail = false
			return Page{}, errors.New("backend unavailable")
		}
		return Page{Records: makeRecords("r", 0, 2), HasMore: false}, nil
	})

	d, err := NewDriver(src, Columns("name"))
	require.NoError(t, err)
	_, done := startDriver(t, d)

	d.Load()
	snap := waitFor(t, d, func(s Snapshot) bool { return s.Err != nil })
	assert.True(t, IsFetchError(snap.Err))
	assert.Equal(t, NewCursor(), snap.Cursor)

	d.Retry()
	snap = waitFor(t, d, func(s Snapshot) bool { return len(s.Model.Rows) == 2 })
	assert.NoError(t, snap.Err)

	d.Stop()
	require.NoError(t, <-done)
}

func TestDriver_CancelDiscardsInFlightFetch(t *testing.T) {
	started := make(chan struct{})
	src := SourceFunc(func(ctx context.Context, cursor Token, size int) (Page, error) {
		close(started)
		<-ctx.Done()
		return Page{}, ctx.Err()
	})

	d, err := NewDriver(src, Columns("name"))
	require.NoError(t, err)
	cancel, done := startDriver(t, d)

	d.Load()
	<-started
	cancel()

	err = <-done
	assert.ErrorIs(t, err, context.Canceled)

	snap := d.Snapshot()
	assert.True(t, snap.Closed)
	assert.NoError(t, snap.Err, "cancelled fetch must not surface after the view is closed")
	assert.Equal(t, 0, snap.Stats.Failures)
}
