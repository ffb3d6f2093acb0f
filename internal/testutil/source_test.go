package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pageview/internal/pager"
)

func TestScriptedSource_ServesByCursor(t *testing.T) {
	src := NewScriptedSource(
		ScriptedPage{Records: Records("a", "b"), NextCursor: "c1", HasMore: true},
		ScriptedPage{Cursor: "c1", Records: Records("c")},
	)
	ctx := context.Background()

	first, err := src.FetchPage(ctx, "", 2)
	require.NoError(t, err)
	assert.Equal(t, Records("a", "b"), first.Records)
	assert.Equal(t, pager.Token("c1"), first.NextCursor)
	assert.True(t, first.HasMore)

	second, err := src.FetchPage(ctx, "c1", 2)
	require.NoError(t, err)
	assert.Equal(t, Records("c"), second.Records)
	assert.False(t, second.HasMore)

	assert.Equal(t, []pager.Token{"", "c1"}, src.Calls())
	assert.Equal(t, 2, src.FetchCount())
}

func TestScriptedSource_FailsThenServes(t *testing.T) {
	src := NewScriptedSource(ScriptedPage{Records: Records("a"), Fail: "timeout", FailTimes: 2})
	ctx := context.Background()

	for range 2 {
		_, err := src.FetchPage(ctx, "", 10)
		assert.EqualError(t, err, "timeout")
	}
	page, err := src.FetchPage(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
}

func TestScriptedSource_UnknownCursor(t *testing.T) {
	src := NewScriptedSource()
	_, err := src.FetchPage(context.Background(), "zzz", 10)
	assert.ErrorIs(t, err, ErrNoPage)
}

func TestScriptedSource_CancelledContext(t *testing.T) {
	src := NewScriptedSource(ScriptedPage{Records: Records("a")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.FetchPage(ctx, "", 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.FetchCount())
}

func TestSequentialRecords(t *testing.T) {
	recs := SequentialRecords("r", 98, 3)
	require.Len(t, recs, 3)
	assert.Equal(t, "r098", recs[0].ID)
	assert.Equal(t, "r100", recs[2].ID)
	assert.Equal(t, "r100", recs[2].Fields["name"])
}
