package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "history.db")

	store, err := Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.RecentRuns(context.Background(), 5)
	assert.NoError(t, err)
}

func TestRecordAndReadRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := Run{
		Roots:      []string{"/proj/a", "/proj/b"},
		Command:    "wc -l {}",
		TotalFiles: 2,
		Failed:     1,
		Duration:   1234 * time.Millisecond,
	}
	results := []Result{
		{Path: "/proj/a/x.py", OK: true, Output: "42", Duration: 10 * time.Millisecond},
		{Path: "/proj/b/y.py", OK: false, Error: "exit status 1", Duration: 5 * time.Millisecond},
	}

	id, err := store.RecordRun(ctx, run, results)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, []string{"/proj/a", "/proj/b"}, runs[0].Roots)
	assert.Equal(t, "wc -l {}", runs[0].Command)
	assert.Equal(t, 2, runs[0].TotalFiles)
	assert.Equal(t, 1, runs[0].Failed)
	assert.Equal(t, 1234*time.Millisecond, runs[0].Duration)

	stored, err := store.RunResults(ctx, id)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "/proj/a/x.py", stored[0].Path)
	assert.True(t, stored[0].OK)
	assert.Equal(t, "42", stored[0].Output)
	assert.False(t, stored[1].OK)
	assert.Equal(t, "exit status 1", stored[1].Error)
}

func TestRecordRunKeepsProvidedID(t *testing.T) {
	store := openTestStore(t)

	id, err := store.RecordRun(context.Background(), Run{ID: "fixed-id"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)
}

func TestRecentRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := store.RecordRun(ctx, Run{
			ID:        NewRunID(),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Roots:     []string{"/p"},
		}, nil)
		require.NoError(t, err)
	}

	runs, err := store.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
}

func TestPruneKeepsNewestRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := store.RecordRun(ctx, Run{
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}, []Result{{Path: "/p/x.py", OK: true}})
		require.NoError(t, err)
	}

	require.NoError(t, store.Prune(ctx, 2))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	// Cascade removed the pruned runs' results
	for _, run := range runs {
		results, err := store.RunResults(ctx, run.ID)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	}
}
