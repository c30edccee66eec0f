package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JavaScript の Date.toISOString と同じ形式
const isoTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// NoteInput は保存フォームの内容を表す
// EditID が空でなければ既存ノートの更新として扱う
type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	EditID  string `json:"editId"`
}

// NoteRepository はUI操作をストアへの操作に変換する
// 書き込みはすべて mutationQueue を経由し、同時に1件しか実行されない
type NoteRepository struct {
	store   NoteStore
	locator Locator
	queue   *mutationQueue
	now     func() time.Time
}

// NewNoteRepository は新しいNoteRepositoryを作成します
func NewNoteRepository(store NoteStore, locator Locator, queue *mutationQueue) *NoteRepository {
	return &NoteRepository{
		store:   store,
		locator: locator,
		queue:   queue,
		now:     time.Now,
	}
}

// Save はノートを新規作成または更新する
// 入力が空の場合は位置情報を取得せずに ValidationError を返す
// 更新時は位置情報を取り直さず、id と location を保持する
func (r *NoteRepository) Save(ctx context.Context, input NoteInput) (*Note, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" {
		return nil, &ValidationError{Field: "title"}
	}
	if content == "" {
		return nil, &ValidationError{Field: "content"}
	}

	if input.EditID != "" {
		return r.update(ctx, input.EditID, title, content)
	}

	coords, err := r.locator.Capture(ctx)
	if err != nil {
		return nil, err
	}

	var saved *Note
	err = r.queue.Submit(ctx, MutationSave, "", func() error {
		opCtx := context.WithoutCancel(ctx)
		now := r.now()
		id, err := r.mintID(opCtx, now)
		if err != nil {
			return err
		}
		note := &Note{
			ID:        id,
			Title:     title,
			Content:   content,
			Location:  coords,
			Timestamp: now.UTC().Format(isoTimestampLayout),
		}
		if err := r.store.Put(opCtx, note); err != nil {
			return wrapStorage("put", err)
		}
		saved = note
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *NoteRepository) update(ctx context.Context, id string, title string, content string) (*Note, error) {
	var saved *Note
	err := r.queue.Submit(ctx, MutationSave, id, func() error {
		opCtx := context.WithoutCancel(ctx)
		existing, err := r.store.Get(opCtx, id)
		if err != nil {
			return wrapStorage("get", err)
		}
		updated := *existing
		updated.Title = title
		updated.Content = content
		updated.Timestamp = r.now().UTC().Format(isoTimestampLayout)
		if err := r.store.Put(opCtx, &updated); err != nil {
			return wrapStorage("put", err)
		}
		saved = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// mintID は "note-<epoch millis>" 形式の未使用の id を返す
// 同じミリ秒に作成されたノートがあればミリ秒を進めて衝突を避ける
func (r *NoteRepository) mintID(ctx context.Context, now time.Time) (string, error) {
	millis := now.UnixMilli()
	for {
		id := fmt.Sprintf("note-%d", millis)
		_, err := r.store.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", wrapStorage("get", err)
		}
		millis++
	}
}

// Get は指定されたIDのノートを読み込む
func (r *NoteRepository) Get(ctx context.Context, id string) (*Note, error) {
	note, err := r.store.Get(ctx, id)
	return note, wrapStorage("get", err)
}

// List は全てのノートをストアの並び順で返す
func (r *NoteRepository) List(ctx context.Context) ([]Note, error) {
	notes, err := r.store.GetAll(ctx)
	return notes, wrapStorage("getAll", err)
}

// Delete は指定されたIDのノートを削除する。存在しない場合は何もしない
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	return r.queue.Submit(ctx, MutationDelete, id, func() error {
		return wrapStorage("delete", r.store.Delete(context.WithoutCancel(ctx), id))
	})
}

// Reorder はドラッグしたノートを取り除き、ドロップ先のノートがあった位置に挿入し直す
// コレクション全体を新しい順序で書き直すが、どのノートの id も変更しない
func (r *NoteRepository) Reorder(ctx context.Context, draggedID string, targetID string) error {
	if draggedID == "" || targetID == "" || draggedID == targetID {
		return nil
	}

	return r.queue.Submit(ctx, MutationReorder, draggedID, func() error {
		opCtx := context.WithoutCancel(ctx)
		notes, err := r.store.GetAll(opCtx)
		if err != nil {
			return wrapStorage("getAll", err)
		}

		draggedIndex, targetIndex := -1, -1
		for i, note := range notes {
			switch note.ID {
			case draggedID:
				draggedIndex = i
			case targetID:
				targetIndex = i
			}
		}
		if draggedIndex == -1 || targetIndex == -1 {
			return ErrNotFound
		}

		return wrapStorage("replaceAll", r.store.ReplaceAll(opCtx, moveNote(notes, draggedIndex, targetIndex)))
	})
}

// moveNote は from の要素を取り除いてから to の位置に挿入した新しいスライスを返す
func moveNote(notes []Note, from int, to int) []Note {
	moved := notes[from]
	reordered := make([]Note, 0, len(notes))
	reordered = append(reordered, notes[:from]...)
	reordered = append(reordered, notes[from+1:]...)
	if to > len(reordered) {
		to = len(reordered)
	}
	reordered = append(reordered[:to], append([]Note{moved}, reordered[to:]...)...)
	return reordered
}

// Import は既存のノートをそのままの id で取り込む
func (r *NoteRepository) Import(ctx context.Context, notes []Note) (int, error) {
	imported := 0
	err := r.queue.Submit(ctx, MutationImport, "", func() error {
		opCtx := context.WithoutCancel(ctx)
		for i := range notes {
			if err := r.store.Put(opCtx, &notes[i]); err != nil {
				return wrapStorage("put", err)
			}
			imported++
		}
		return nil
	})
	return imported, err
}
