package legacyimport

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `{
  "note-1700000000002": {"title": "Second", "content": "b", "location": {"latitude": 1.5, "longitude": 2.5}, "timestamp": "2023-11-14T22:13:20.002Z"},
  "note-1700000000001": "{\"title\":\"First\",\"content\":\"a\",\"location\":{\"latitude\":43.65107,\"longitude\":-79.34702},\"timestamp\":\"2023-11-14T22:13:20.001Z\"}",
  "theme": "dark",
  "note-1700000000003": {"title": "  ", "content": "c", "location": {"latitude": 0, "longitude": 0}},
  "note-1700000000004": "not json"
}`

func TestParse_OrdersByKey(t *testing.T) {
	result, err := Parse([]byte(sampleExport))
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, "note-1700000000001", result.Records[0].Key)
	assert.Equal(t, "First", result.Records[0].Title)
	assert.Equal(t, 43.65107, result.Records[0].Latitude)
	assert.Equal(t, -79.34702, result.Records[0].Longitude)
	assert.Equal(t, "2023-11-14T22:13:20.001Z", result.Records[0].Timestamp)
	assert.Equal(t, "note-1700000000002", result.Records[1].Key)

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, "note-1700000000003", result.Skipped[0].Key)
	assert.Equal(t, "missing title or content", result.Skipped[0].Reason)
	assert.Equal(t, "note-1700000000004", result.Skipped[1].Key)
	assert.Equal(t, "malformed value", result.Skipped[1].Reason)
}

func TestParse_ReorderedKeys(t *testing.T) {
	result, err := Parse([]byte(`{
		"note-1-1700000000000": {"title": "B", "content": "b", "location": {"latitude": 0, "longitude": 0}},
		"note-0-1700000000000": {"title": "A", "content": "a", "location": {"latitude": 0, "longitude": 0}}
	}`))
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "A", result.Records[0].Title)
	assert.Equal(t, "B", result.Records[1].Title)
}

func TestParse_MissingLocation(t *testing.T) {
	result, err := Parse([]byte(`{"note-1": {"title": "A", "content": "a"}}`))
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "missing location", result.Skipped[0].Reason)
}

func TestParse_InvalidExport(t *testing.T) {
	_, err := Parse([]byte(`[1, 2, 3]`))
	assert.True(t, errors.Is(err, ErrInvalidExport))
}

func TestLoad_SavesSnapshot(t *testing.T) {
	tempDir := t.TempDir()
	exportPath := filepath.Join(tempDir, "export.json")
	require.NoError(t, os.WriteFile(exportPath, []byte(sampleExport), 0o644))

	snapshotDir := filepath.Join(tempDir, "import_snapshots")
	result, err := Load(exportPath, snapshotDir)
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)

	entries, err := os.ReadDir(snapshotDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(snapshotDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, sampleExport, string(data))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), "")
	assert.Error(t, err)
}
