package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const deleteConfirmMessage = "Are you sure you want to delete this note?"

// Session は画面の状態 (編集中のノート) を保持し、UI操作をリポジトリに橋渡しする
type Session struct {
	repo      *NoteRepository
	emitter   EventEmitter
	toast     *toastService
	clipboard Clipboard
	confirmer Confirmer
	logger    AppLogger
	location  *time.Location

	mu            sync.Mutex
	editTarget    string // 編集中のノートID。空なら新規作成
	notifications bool   // 保存時に通知を出すか
}

// NewSession は新しいSessionを作成します
func NewSession(repo *NoteRepository, emitter EventEmitter, toast *toastService, clipboard Clipboard, confirmer Confirmer, logger AppLogger) *Session {
	return &Session{
		repo:      repo,
		emitter:   emitter,
		toast:     toast,
		clipboard: clipboard,
		confirmer: confirmer,
		logger:    logger,
		location:  time.Local,
	}
}

// EditTarget は編集中のノートIDを返す
func (s *Session) EditTarget() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editTarget
}

// SetNotifications は保存時の通知の有無を設定する
func (s *Session) SetNotifications(enabled bool) {
	s.mu.Lock()
	s.notifications = enabled
	s.mu.Unlock()
}

// Save はフォームの内容を保存する
// 失敗した場合は編集状態を残し、利用者がそのまま再試行できるようにする
func (s *Session) Save(ctx context.Context, title string, content string) (*Note, error) {
	editID := s.EditTarget()

	note, err := s.repo.Save(ctx, NoteInput{Title: title, Content: content, EditID: editID})
	if err != nil {
		if editID != "" && errors.Is(err, ErrNotFound) {
			// 編集対象が消えていた場合は存在しない id を指したままにしない
			s.clearEditTarget(editID)
		}
		s.toast.Show(userMessage(err))
		return nil, s.logger.Error(err, "Failed to save note")
	}

	s.clearEditTarget(editID)
	if editID != "" {
		// 編集は専用のオーバーレイで行うので、新規作成フォームの下書きには触れない
		s.emitter.Emit(EventEditClose)
	} else {
		s.emitter.Emit(EventFormReset)
	}
	s.notifySaved(note)
	s.toast.Show(fmt.Sprintf("✅ Note saved at:\nLatitude: %.5f\nLongitude: %.5f",
		note.Location.Latitude, note.Location.Longitude))
	s.logger.Info("Note saved: %s", note.ID)

	return note, s.Reload(ctx)
}

// BeginEdit は指定されたノートを編集状態にし、編集フォームに渡す内容を返す
func (s *Session) BeginEdit(ctx context.Context, id string) (*Note, error) {
	note, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.clearEditTarget(id)
		}
		return nil, s.logger.Error(err, "Failed to load note %s for editing", id)
	}

	s.mu.Lock()
	s.editTarget = note.ID
	s.mu.Unlock()

	s.emitter.Emit(EventEditOpen, note)
	s.toast.Show("✏️ Edit mode enabled")
	return note, nil
}

// CancelEdit は編集を取り消す。ストアには何も書き込まない
func (s *Session) CancelEdit() {
	s.mu.Lock()
	s.editTarget = ""
	s.mu.Unlock()
	s.emitter.Emit(EventEditClose)
}

// Delete は確認ダイアログで承諾された場合にノートを削除する
func (s *Session) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.confirmer.Confirm("Delete Note", deleteConfirmMessage)
	if err != nil {
		return false, s.logger.Error(err, "Failed to show confirmation dialog")
	}
	if !ok {
		return false, nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.toast.Show(userMessage(err))
		return false, s.logger.Error(err, "Failed to delete note %s", id)
	}

	if s.clearEditTarget(id) {
		s.emitter.Emit(EventEditClose)
	}
	s.toast.Show("🗑️ Note deleted")
	return true, s.Reload(ctx)
}

// Reorder はドラッグ＆ドロップの結果を反映する
func (s *Session) Reorder(ctx context.Context, draggedID string, targetID string) error {
	err := s.repo.Reorder(ctx, draggedID, targetID)
	if errors.Is(err, ErrNotFound) {
		s.logger.Console("Reorder skipped, note not found: %s -> %s", draggedID, targetID)
		return s.Reload(ctx)
	}
	if err != nil {
		s.toast.Show(userMessage(err))
		return s.logger.Error(err, "Failed to reorder notes")
	}
	return s.Reload(ctx)
}

// Copy はノートのタイトルと本文をクリップボードにコピーする
func (s *Session) Copy(ctx context.Context, id string) error {
	note, err := s.repo.Get(ctx, id)
	if err != nil {
		s.toast.Show("❌ Failed to copy note.")
		return s.logger.Error(err, "Failed to load note %s for copy", id)
	}

	if err := s.clipboard.SetText(clipboardText(note)); err != nil {
		s.toast.Show("❌ Failed to copy note.")
		return s.logger.Error(err, "Failed to write clipboard")
	}
	s.toast.Show("📝 Note copied to clipboard!")
	return nil
}

// Reload は全件を読み直して一覧を描画し直す
func (s *Session) Reload(ctx context.Context) error {
	notes, err := s.repo.List(ctx)
	if err != nil {
		s.toast.Show(userMessage(err))
		return s.logger.Error(err, "Failed to load notes")
	}

	view, err := RenderNoteList(notes, s.location)
	if err != nil {
		return s.logger.Error(err, "Failed to render notes")
	}
	s.emitter.Emit(EventNotesRender, view)
	return nil
}

// clearEditTarget は編集中のIDが id と一致する場合に解除する
func (s *Session) clearEditTarget(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" || s.editTarget != id {
		return false
	}
	s.editTarget = ""
	return true
}

func (s *Session) notifySaved(note *Note) {
	s.mu.Lock()
	enabled := s.notifications
	s.mu.Unlock()
	if !enabled {
		return
	}
	s.emitter.Emit(EventNotificationShow, map[string]string{
		"title": "📌 Note Saved",
		"body":  note.Title,
	})
}

func clipboardText(note *Note) string {
	return fmt.Sprintf("📌 %s\n\n%s", note.Title, note.Content)
}

// userMessage はエラーをトーストに表示する文言に変換する
func userMessage(err error) string {
	var (
		validation  *ValidationError
		geo         *GeolocationError
		unsupported *UnsupportedFeatureError
		storage     *StorageError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &geo):
		return geo.Error()
	case errors.As(err, &unsupported):
		if unsupported.Feature == "geolocation" {
			return "Geolocation is not supported by your browser."
		}
		return "⚠️ " + unsupported.Error()
	case errors.Is(err, ErrStorageUnavailable):
		return "❌ Storage is unavailable. Notes cannot be saved."
	case errors.Is(err, ErrNotFound):
		return "⚠️ That note no longer exists."
	case errors.As(err, &storage):
		return "❌ Failed to save changes. Please try again."
	default:
		return "⚠️ " + err.Error()
	}
}
