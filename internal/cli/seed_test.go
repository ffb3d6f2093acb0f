package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pageview/internal/store"
)

func TestSeedCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "pageview.db")

	out, _, err := executeRoot(t, "seed", "--db", db, "--count", "3")
	require.NoError(t, err)
	assert.Equal(t, "Inserted 3 datasets into "+db+" (3 total)\n", out)

	out, _, err = executeRoot(t, "seed", "--db", db, "-n", "2", "--prefix", "extra")
	require.NoError(t, err)
	assert.Contains(t, out, "(5 total)")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	page, err := st.ListDatasets(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, page.Datasets, 5)
	assert.Equal(t, "extra-0005", page.Datasets[0].Name)
	assert.Equal(t, "dataset-0001", page.Datasets[4].Name)
}

func TestSeedCommandJSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "pageview.db")

	out, _, err := executeRoot(t, "--format", "json", "seed", "--db", db, "--count", "4")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   SeedResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, SeedResult{Database: db, Inserted: 4, Total: 4}, resp.Data)
}

func TestSeedCommandErrors(t *testing.T) {
	t.Run("missing db flag", func(t *testing.T) {
		_, _, err := executeRoot(t, "seed")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"db" not set`)
	})

	t.Run("non-positive count", func(t *testing.T) {
		db := filepath.Join(t.TempDir(), "pageview.db")
		_, _, err := executeRoot(t, "seed", "--db", db, "--count", "0")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}
