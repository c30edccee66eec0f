package backend

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore は指定されたバックエンドのストアを一時ディレクトリに開く
func openTestStore(t *testing.T, backend string) (NoteStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := OpenNoteStore(backend, dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func TestNoteStore_PutGetRoundTrip(t *testing.T) {
	for _, backend := range storeBackends {
		t.Run(backend, func(t *testing.T) {
			store, _ := openTestStore(t, backend)
			ctx := context.Background()

			note := sampleNote("note-1700000000000", "Meeting")
			require.NoError(t, store.Put(ctx, &note))

			got, err := store.Get(ctx, note.ID)
			require.NoError(t, err)
			assert.Equal(t, note, *got)
		})
	}
}

func TestNoteStore_GetMissing(t *testing.T) {
	for _, backend := range storeBackends {
		t.Run(backend, func(t *testing.T) {
			store, _ := openTestStore(t, backend)

			_, err := store.Get(context.Background(), "note-404")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestNoteStore_EmptyCollection(t *testing.T) {
	for _, backend := range storeBackends {
		t.Run(backend, func(t *testing.T) {
			store, _ := openTestStore(t, backend)

			notes, err := store.GetAll(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, notes)
			assert.Empty(t, notes)
		})
	}
}

func TestNoteStore_PutAppendsAndOverwritesInPlace(t *testing.T) {
	for _, backend := range storeBackends {
		t.Run(backend, func(t *testing.T) {
			store, _ := openTestStore(t, backend)
			ctx := context.Background()

			for _, id := range []string{"note-3", "note-1", "note-2"} {
				note := sampleNote(id, id)
				require.NoError(t, store.Put(ctx, &note))
			}

			// 既存の id の上書きは並び順を変えない
			updated := sampleNote("note-3", "renamed")
			require.NoError(t, store.Put(ctx, &updated))

			notes, err := store.GetAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"note-3", "note-1", "note-2"}, noteIDs(notes))
			assert.Equal(t, "renamed", notes[0].Title)
		})
	}
}

func TestNoteStore_DeleteIsIdempotent(t *testing.T) {
	for _, backend := range storeBackends {
		t.Run(backend, func(t *testing.T) {
			store, _ := openTestStore(t, backend)
			ctx := context.Background()

			note := sampleNote("note-1", "a")
			require.NoError(t, store.Put(ctx, &note))

			require.NoError(t, store.Delete(ctx, "note-1"))
			require.NoError(t, store.Delete(ctx, "note-1"))
			require.NoError(t, store.Delete(ctx, "note-unknown"))

			_, err := store.Get(ctx, "note-1")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestNoteStore_ReplaceAll(t *testing.T) {
	for _, backend := range storeBackends {
		t.Run(backend, func(t *testing.T) {
			store, _ := openTestStore(t, backend)
			ctx := context.Background()

			for _, id := range []string{"note-1", "note-2", "note-3"} {
				note := sampleNote(id, id)
				require.NoError(t, store.Put(ctx, &note))
			}

			replacement := []Note{sampleNote("note-3", "c"), sampleNote("note-1", "a")}
			require.NoError(t, store.ReplaceAll(ctx, replacement))

			notes, err := store.GetAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, replacement, notes)

			_, err = store.Get(ctx, "note-2")
			assert.ErrorIs(t, err, ErrNotFound)

			// 以降の追加は末尾に入る
			added := sampleNote("note-0", "z")
			require.NoError(t, store.Put(ctx, &added))
			notes, err = store.GetAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"note-3", "note-1", "note-0"}, noteIDs(notes))
		})
	}
}

func TestNoteStore_PersistsAcrossReopen(t *testing.T) {
	for _, backend := range storeBackends {
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()
			ctx := context.Background()

			store, err := OpenNoteStore(backend, dir)
			require.NoError(t, err)
			for _, id := range []string{"note-2", "note-1"} {
				note := sampleNote(id, id)
				require.NoError(t, store.Put(ctx, &note))
			}
			require.NoError(t, store.Close())

			reopened, err := OpenNoteStore(backend, dir)
			require.NoError(t, err)
			defer reopened.Close()

			notes, err := reopened.GetAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"note-2", "note-1"}, noteIDs(notes))
		})
	}
}

func TestOpenNoteStore_UnknownBackend(t *testing.T) {
	_, err := OpenNoteStore("redis", t.TempDir())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

/*
------------------------------------------------------------
ファイル保存方式固有の動作
------------------------------------------------------------
*/

func readOrderFile(t *testing.T, dataDir string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dataDir, noteOrderFileName))
	require.NoError(t, err)
	var order noteOrder
	require.NoError(t, json.Unmarshal(data, &order))
	return order.IDs
}

func writeNoteFile(t *testing.T, dataDir string, note Note) {
	t.Helper()
	data, err := json.Marshal(note)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, notesDirName, note.ID+".json"), data, 0644))
}

func TestFileNoteStore_OrphanFilesAreAppendedOnOpen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, notesDirName), 0755))

	writeNoteFile(t, dir, sampleNote("note-b", "b"))
	writeNoteFile(t, dir, sampleNote("note-a", "a"))
	order, err := json.Marshal(noteOrder{Version: "1.0", IDs: []string{"note-b", "note-gone"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, noteOrderFileName), order, 0644))

	store, err := OpenNoteStore(StoreBackendFile, dir)
	require.NoError(t, err)
	defer store.Close()

	notes, err := store.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"note-b", "note-a"}, noteIDs(notes))
	assert.Equal(t, []string{"note-b", "note-a"}, readOrderFile(t, dir))
}

func TestFileNoteStore_RefreshPicksUpExternalChanges(t *testing.T) {
	store, dir := openTestStore(t, StoreBackendFile)
	ctx := context.Background()

	first := sampleNote("note-1", "first")
	require.NoError(t, store.Put(ctx, &first))

	// 別プロセスが書き込んだファイル
	writeNoteFile(t, dir, sampleNote("note-2", "external"))
	require.NoError(t, os.Remove(filepath.Join(dir, notesDirName, "note-1.json")))

	require.NoError(t, store.(*fileNoteStore).Refresh())

	notes, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"note-2"}, noteIDs(notes))
}

func TestFileNoteStore_RefreshDoesNotRewriteUnchangedOrder(t *testing.T) {
	store, dir := openTestStore(t, StoreBackendFile)
	note := sampleNote("note-1", "first")
	require.NoError(t, store.Put(context.Background(), &note))

	orderPath := filepath.Join(dir, noteOrderFileName)
	before, err := os.Stat(orderPath)
	require.NoError(t, err)

	require.NoError(t, store.(*fileNoteStore).Refresh())

	after, err := os.Stat(orderPath)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestFileNoteStore_RejectsPathLikeIDs(t *testing.T) {
	store, _ := openTestStore(t, StoreBackendFile)
	ctx := context.Background()

	note := sampleNote("../escape", "bad")
	err := store.Put(ctx, &note)
	var storageErr *StorageError
	assert.ErrorAs(t, err, &storageErr)

	_, err = store.Get(ctx, "../escape")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.json")

	require.NoError(t, writeFileAtomic(target, []byte(`{"a":1}`), 0644))
	require.NoError(t, writeFileAtomic(target, []byte(`{"a":2}`), 0644))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
