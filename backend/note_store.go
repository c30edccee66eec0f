package backend

import (
	"context"
	"fmt"
	"path/filepath"
)

// ストアのバックエンド種別
const (
	StoreBackendSQLite = "sqlite"
	StoreBackendFile   = "file"

	sqliteFileName = "geonotes.db"
	notesDirName   = "notes"
)

// NoteStore は "notes" コレクションへの操作を提供するインターフェースです
// 入力検証は行わない。呼び出し側が空でないタイトルと本文を保証すること
type NoteStore interface {
	Get(ctx context.Context, id string) (*Note, error)  // 見つからない場合は ErrNotFound
	GetAll(ctx context.Context) ([]Note, error)         // ストアの並び順で返す
	Put(ctx context.Context, note *Note) error          // id で上書き保存。新規は末尾に追加
	Delete(ctx context.Context, id string) error        // 存在しない場合は何もしない
	ReplaceAll(ctx context.Context, notes []Note) error // 全件を指定順で書き直す
	Close() error
}

// OpenNoteStore は指定されたバックエンドでストアを開きます
// 何度呼んでもよく、コレクションが無ければ作成する
func OpenNoteStore(backend string, dataDir string) (NoteStore, error) {
	switch backend {
	case "", StoreBackendSQLite:
		return openSQLiteNoteStore(filepath.Join(dataDir, sqliteFileName))
	case StoreBackendFile:
		return openFileNoteStore(filepath.Join(dataDir, notesDirName))
	default:
		return nil, fmt.Errorf("unknown store backend %q: %w", backend, ErrStorageUnavailable)
	}
}
