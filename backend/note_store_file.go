package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	noteOrderFileName = "noteOrder.json"
	tempFilePrefix    = ".geonotes-tmp-"
)

// ノートの並び順を保持するファイルの内容
type noteOrder struct {
	Version string   `json:"version"`
	IDs     []string `json:"ids"`
}

// fileNoteStore はノート1件を1つのJSONファイルとして保存する NoteStore の実装です
// 並び順は notesDir の親ディレクトリにある noteOrder.json で管理する
type fileNoteStore struct {
	notesDir string
	mu       sync.Mutex
	order    []string
}

func openFileNoteStore(notesDir string) (*fileNoteStore, error) {
	if err := os.MkdirAll(notesDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	s := &fileNoteStore{notesDir: notesDir}
	if err := s.loadOrder(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := s.syncOrder(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return s, nil
}

func (s *fileNoteStore) orderPath() string {
	return filepath.Join(filepath.Dir(s.notesDir), noteOrderFileName)
}

func (s *fileNoteStore) notePath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid note id %q", id)
	}
	return filepath.Join(s.notesDir, id+".json"), nil
}

// loadOrder は並び順ファイルを読み込む。無ければ空から始める
func (s *fileNoteStore) loadOrder() error {
	data, err := os.ReadFile(s.orderPath())
	if errors.Is(err, os.ErrNotExist) {
		s.order = []string{}
		return nil
	}
	if err != nil {
		return err
	}

	var order noteOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return err
	}
	s.order = order.IDs
	return nil
}

func (s *fileNoteStore) saveOrder() error {
	data, err := json.MarshalIndent(noteOrder{Version: "1.0", IDs: s.order}, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.orderPath(), data, 0644)
}

// syncOrder は物理ファイルと並び順の同期を行う
// 並び順に無いファイルは id 順で末尾に追加し、ファイルの無い id は取り除く
// 変化が無ければ書き込まない
func (s *fileNoteStore) syncOrder() error {
	files, err := doublestar.Glob(os.DirFS(s.notesDir), "*.json")
	if err != nil {
		return err
	}

	physical := make(map[string]bool, len(files))
	for _, name := range files {
		physical[strings.TrimSuffix(name, ".json")] = true
	}

	known := make(map[string]bool, len(s.order))
	valid := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if physical[id] && !known[id] {
			valid = append(valid, id)
			known[id] = true
		}
	}

	var orphans []string
	for id := range physical {
		if !known[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)

	synced := append(valid, orphans...)
	if slices.Equal(synced, s.order) {
		return nil
	}
	s.order = synced
	return s.saveOrder()
}

func (s *fileNoteStore) readNote(id string) (*Note, error) {
	path, err := s.notePath(id)
	if err != nil {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var note Note
	if err := json.Unmarshal(data, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *fileNoteStore) writeNote(note *Note) error {
	path, err := s.notePath(note.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(note, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data, 0644)
}

func (s *fileNoteStore) Get(ctx context.Context, id string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.readNote(id)
	if err != nil {
		return nil, wrapStorage("get", err)
	}
	return note, nil
}

func (s *fileNoteStore) GetAll(ctx context.Context) ([]Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := make([]Note, 0, len(s.order))
	for _, id := range s.order {
		note, err := s.readNote(id)
		if errors.Is(err, ErrNotFound) {
			// 外部から削除されたファイルは読み飛ばす
			continue
		}
		if err != nil {
			return nil, wrapStorage("getAll", err)
		}
		notes = append(notes, *note)
	}
	return notes, nil
}

func (s *fileNoteStore) Put(ctx context.Context, note *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeNote(note); err != nil {
		return wrapStorage("put", err)
	}

	for _, id := range s.order {
		if id == note.ID {
			return nil
		}
	}
	s.order = append(s.order, note.ID)
	return wrapStorage("put", s.saveOrder())
}

func (s *fileNoteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.notePath(id)
	if err != nil {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return wrapStorage("delete", err)
	}

	updated := make([]string, 0, len(s.order))
	for _, existing := range s.order {
		if existing != id {
			updated = append(updated, existing)
		}
	}
	if len(updated) == len(s.order) {
		return nil
	}
	s.order = updated
	return wrapStorage("delete", s.saveOrder())
}

// ReplaceAll は指定されたノートを書き直し、含まれないファイルを削除してから並び順を保存する
// 並び順ファイルの置き換えが最後に行われるため、途中で失敗しても既存の順序は壊れない
func (s *fileNoteStore) ReplaceAll(ctx context.Context, notes []Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keep := make(map[string]bool, len(notes))
	order := make([]string, 0, len(notes))
	for i := range notes {
		if err := s.writeNote(&notes[i]); err != nil {
			return wrapStorage("replaceAll", err)
		}
		if !keep[notes[i].ID] {
			order = append(order, notes[i].ID)
		}
		keep[notes[i].ID] = true
	}

	previous := s.order
	s.order = order
	if err := s.saveOrder(); err != nil {
		s.order = previous
		return wrapStorage("replaceAll", err)
	}

	for _, id := range previous {
		if keep[id] {
			continue
		}
		if path, err := s.notePath(id); err == nil {
			os.Remove(path)
		}
	}
	return nil
}

// Refresh は外部で変更された並び順とファイルを読み直す
func (s *fileNoteStore) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadOrder(); err != nil {
		return wrapStorage("refresh", err)
	}
	return wrapStorage("refresh", s.syncOrder())
}

func (s *fileNoteStore) Close() error {
	return nil
}

// writeFileAtomic は一時ファイルに書き込んでからリネームすることで原子的に保存する
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(filename), tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	return os.Rename(tmpFile.Name(), filename)
}
