package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndLatest(t *testing.T) {
	j := openJournal(t)

	require.NoError(t, j.Record("1", Entry{Kind: "status", Op: OpWrite, When: 10}))
	require.NoError(t, j.Record("1", Entry{Kind: "updates", Op: OpWrite, When: 11}))
	require.NoError(t, j.Record("1", Entry{Kind: "status", Op: OpClear, When: 12}))
	require.NoError(t, j.Record("2", Entry{Kind: "name", Op: OpWrite, When: 13}))

	latest, err := j.Latest("1")
	require.NoError(t, err)
	assert.Equal(t, map[string]Entry{
		"status":  {Kind: "status", Op: OpClear, When: 12},
		"updates": {Kind: "updates", Op: OpWrite, When: 11},
	}, latest)

	n, err := j.Count("2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUnknownUser(t *testing.T) {
	j := openJournal(t)

	latest, err := j.Latest("nobody")
	require.NoError(t, err)
	assert.Empty(t, latest)

	n, err := j.Count("nobody")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, j.Trim("nobody", 3))
}

func TestTrimKeepsNewestPerKind(t *testing.T) {
	j := openJournal(t)

	require.NoError(t, j.Record("1", Entry{Kind: "name", Op: OpWrite, When: 1}))
	for i := int64(2); i <= 6; i++ {
		require.NoError(t, j.Record("1", Entry{Kind: "updates", Op: OpWrite, When: i}))
	}
	require.NoError(t, j.Trim("1", 2))

	entries, err := j.Entries("1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Kind: "name", Op: OpWrite, When: 1}, entries[0])
	assert.Equal(t, Entry{Kind: "updates", Op: OpWrite, When: 6}, entries[1])
}

func TestTrimNoLimit(t *testing.T) {
	j := openJournal(t)
	for i := int64(0); i < 3; i++ {
		require.NoError(t, j.Record("1", Entry{Kind: "updates", Op: OpWrite, When: i}))
	}
	require.NoError(t, j.Trim("1", 0))
	n, err := j.Count("1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record("1", Entry{Kind: "location", Op: OpWrite, When: 5}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	latest, err := j.Latest("1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), latest["location"].When)
}
