package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"geonotes/backend"
)

func sampleNotes() []backend.Note {
	return []backend.Note{
		{
			ID:        "note-1700000000000",
			Title:     "Meeting",
			Content:   "Discuss budget",
			Location:  backend.Coordinates{Latitude: 43.65107, Longitude: -79.34702},
			Timestamp: "2023-11-14T22:13:20.000Z",
		},
		{
			ID:        "note-1700000000500",
			Title:     "Groceries",
			Content:   "Milk",
			Location:  backend.Coordinates{Latitude: 1.5, Longitude: 2.25},
			Timestamp: "2023-11-14T22:13:20.500Z",
		},
	}
}

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestWriteExport_JSON(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, writeExport(&buf, "json", sampleNotes(), now))

	var snapshot backend.BackupSnapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snapshot))
	assert.Equal(t, "2024-01-02T03:04:05.000Z", snapshot.ExportedAt)
	require.Len(t, snapshot.Notes, 2)
	assert.Equal(t, "note-1700000000000", snapshot.Notes[0].ID)
	assert.Equal(t, 43.65107, snapshot.Notes[0].Location.Latitude)
}

func TestWriteExport_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeExport(&buf, "yaml", sampleNotes(), time.Now()))

	var doc yamlExport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Notes, 2)
	assert.Equal(t, "Groceries", doc.Notes[1].Title)
	assert.Equal(t, -79.34702, doc.Notes[0].Longitude)
	assert.Contains(t, buf.String(), "exportedAt:")
}

func TestWriteExport_UnknownFormat(t *testing.T) {
	err := writeExport(&bytes.Buffer{}, "xml", sampleNotes(), time.Now())
	assert.Error(t, err)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yes", true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := confirm(strings.NewReader(tt.input), &out, "Delete?")
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "[y/N]")
	}
}

func TestPrintNoteList(t *testing.T) {
	var buf bytes.Buffer
	printNoteList(&buf, sampleNotes(), time.UTC)

	output := buf.String()
	assert.Contains(t, output, "📌 Meeting")
	assert.Contains(t, output, "Lat: 43.65107, Lng: -79.34702")
	assert.Contains(t, output, "Nov 14, 2023, 10:13:20 PM")
	assert.Less(t, strings.Index(output, "Meeting"), strings.Index(output, "Groceries"))
}

func TestPrintNoteList_Empty(t *testing.T) {
	var buf bytes.Buffer
	printNoteList(&buf, nil, time.UTC)
	assert.Equal(t, "No notes saved yet.\n", buf.String())
}

func TestPrintNote(t *testing.T) {
	notes := sampleNotes()
	var buf bytes.Buffer
	printNote(&buf, &notes[0], time.UTC)

	assert.Contains(t, buf.String(), "Discuss budget")
	assert.Contains(t, buf.String(), "note-1700000000000")
}

func setupCLIStore(t *testing.T) backend.NoteStore {
	t.Helper()
	store, err := backend.OpenNoteStore(backend.StoreBackendFile, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	for _, note := range sampleNotes() {
		n := note
		require.NoError(t, store.Put(context.Background(), &n))
	}
	return store
}

func TestDeleteNote_MissingIDIsNoOp(t *testing.T) {
	store := setupCLIStore(t)
	var out bytes.Buffer

	err := deleteNote(context.Background(), store, "note-missing", true, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Note not found, nothing to delete: note-missing")

	notes, err := store.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestDeleteNote_ConfirmAndCancel(t *testing.T) {
	store := setupCLIStore(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, deleteNote(ctx, store, "note-1700000000000", false, strings.NewReader("n\n"), &out))
	assert.Contains(t, out.String(), "Cancelled.")
	_, err := store.Get(ctx, "note-1700000000000")
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, deleteNote(ctx, store, "note-1700000000000", false, strings.NewReader("y\n"), &out))
	assert.Contains(t, out.String(), "Note deleted: note-1700000000000")
	_, err = store.Get(ctx, "note-1700000000000")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}
