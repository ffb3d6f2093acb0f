package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pageview/internal/store"
)

func newTestService(t *testing.T, n int) *Service {
	t.Helper()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"), store.WithNow(func() time.Time { return base }))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	batch := make([]store.NewDataset, n)
	for i := range batch {
		batch[i] = store.NewDataset{Name: fmt.Sprintf("ds-%02d", i+1), Metadata: map[string]any{"n": i + 1}}
	}
	if n > 0 {
		require.NoError(t, st.InsertDatasets(context.Background(), batch))
	}
	return New(st, nil)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) ListResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestList_Paginates(t *testing.T) {
	h := newTestService(t, 5).Handler()

	resp := decodeList(t, get(t, h, "/v1/datasets?limit=2"))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "ds-05", resp.Data[0].Name)
	assert.Equal(t, store.GlobalID(5), resp.Data[0].ID)
	assert.Equal(t, "2024-03-01T09:00:00Z", resp.Data[0].CreatedAt)
	require.NotNil(t, resp.NextCursor)
	assert.Equal(t, store.GlobalID(3), *resp.NextCursor)

	var seen []string
	cursor := ""
	for {
		target := "/v1/datasets?limit=2"
		if cursor != "" {
			target += "&cursor=" + cursor
		}
		resp := decodeList(t, get(t, h, target))
		for _, d := range resp.Data {
			seen = append(seen, d.Name)
		}
		if resp.NextCursor == nil {
			break
		}
		cursor = *resp.NextCursor
	}
	assert.Equal(t, []string{"ds-05", "ds-04", "ds-03", "ds-02", "ds-01"}, seen)
}

func TestList_EmptyHasNullCursor(t *testing.T) {
	h := newTestService(t, 0).Handler()

	rec := get(t, h, "/v1/datasets")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"next_cursor": null, "data": []}`, rec.Body.String())
}

func TestList_DefaultLimit(t *testing.T) {
	h := newTestService(t, 15).Handler()
	resp := decodeList(t, get(t, h, "/v1/datasets"))
	assert.Len(t, resp.Data, store.DefaultListLimit)
}

func TestList_InvalidCursor(t *testing.T) {
	h := newTestService(t, 1).Handler()
	rec := get(t, h, "/v1/datasets?cursor=bogus")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid cursor format: bogus")
}

func TestList_InvalidLimit(t *testing.T) {
	h := newTestService(t, 1).Handler()
	for _, limit := range []string{"abc", "0", "-1", "1001"} {
		rec := get(t, h, "/v1/datasets?limit="+limit)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}

func TestGet(t *testing.T) {
	h := newTestService(t, 2).Handler()

	rec := get(t, h, "/v1/datasets/"+store.GlobalID(2))
	require.Equal(t, http.StatusOK, rec.Code)
	var d DatasetJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "ds-02", d.Name)
	assert.Equal(t, float64(2), d.Metadata["n"])

	assert.Equal(t, http.StatusNotFound, get(t, h, "/v1/datasets/"+store.GlobalID(99)).Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/v1/datasets/garbage").Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	svc := newTestService(t, 0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx, "127.0.0.1:0") }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
