package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/api/drive/v3"
)

const (
	backupFolderName = "GeoNotes"
	backupFileName   = "geonotes-backup.json"
	backupVersion    = "1.0"
	folderMimeType   = "application/vnd.google-apps.folder"
)

// DriveOperations はGoogle Driveの低レベル操作を提供するインターフェース
type DriveOperations interface {
	CreateFile(name string, content []byte, parentID string, mimeType string) (string, error)
	UpdateFile(fileID string, content []byte) error
	CreateFolder(name string, parentID string) (string, error)
	ListFiles(query string) ([]*drive.File, error)
}

// DriveOperationsの実装
type driveOperationsImpl struct {
	service *drive.Service
}

// DriveOperationsインスタンスを作成
func NewDriveOperations(service *drive.Service) DriveOperations {
	return &driveOperationsImpl{service: service}
}

// 新しいファイルを作成
func (d *driveOperationsImpl) CreateFile(name string, content []byte, parentID string, mimeType string) (string, error) {
	f := &drive.File{
		Name:     name,
		Parents:  []string{parentID},
		MimeType: mimeType,
	}
	file, err := d.service.Files.Create(f).Media(bytes.NewReader(content)).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	return file.Id, nil
}

// ファイルを更新
func (d *driveOperationsImpl) UpdateFile(fileID string, content []byte) error {
	_, err := d.service.Files.Update(fileID, &drive.File{}).Media(bytes.NewReader(content)).Do()
	if err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}
	return nil
}

// フォルダを作成
func (d *driveOperationsImpl) CreateFolder(name string, parentID string) (string, error) {
	f := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}
	if parentID != "" {
		f.Parents = []string{parentID}
	}
	folder, err := d.service.Files.Create(f).Fields("id").Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}
	return folder.Id, nil
}

// ファイルを検索
func (d *driveOperationsImpl) ListFiles(query string) ([]*drive.File, error) {
	files, err := d.service.Files.List().Q(query).Fields("files(id, name, modifiedTime)").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files.Files, nil
}

// BackupSnapshot は Drive に保存するノート一覧のスナップショット
type BackupSnapshot struct {
	Version    string `json:"version"`
	ExportedAt string `json:"exportedAt"`
	Notes      []Note `json:"notes"`
}

// EncodeSnapshot はノート一覧をバックアップ・エクスポート用の JSON に変換する
func EncodeSnapshot(notes []Note, exportedAt time.Time) ([]byte, error) {
	if notes == nil {
		notes = []Note{}
	}
	return json.MarshalIndent(BackupSnapshot{
		Version:    backupVersion,
		ExportedAt: exportedAt.UTC().Format(isoTimestampLayout),
		Notes:      notes,
	}, "", "  ")
}

// BackupResult はバックアップの結果
type BackupResult struct {
	FileID    string `json:"fileId"`
	NoteCount int    `json:"noteCount"`
	Created   bool   `json:"created"`
}

// driveBackupService はノート一覧を Drive へ一方向にアップロードする
// 取り込みや競合解決は行わない
type driveBackupService struct {
	operations func() (DriveOperations, error)
	emitter    EventEmitter
	now        func() time.Time
}

func newDriveBackupService(operations func() (DriveOperations, error), emitter EventEmitter) *driveBackupService {
	return &driveBackupService{operations: operations, emitter: emitter, now: time.Now}
}

// Backup は現在のノート一覧を backupFileName として保存する。既にあれば上書きする
func (s *driveBackupService) Backup(ctx context.Context, notes []Note) (*BackupResult, error) {
	ops, err := s.operations()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.notifyStatus(driveStatusBusy)

	folderID, err := s.ensureFolder(ops)
	if err != nil {
		s.notifyStatus(driveStatusConnected)
		return nil, err
	}

	data, err := EncodeSnapshot(notes, s.now())
	if err != nil {
		s.notifyStatus(driveStatusConnected)
		return nil, err
	}

	result := &BackupResult{NoteCount: len(notes)}
	files, err := ops.ListFiles(fmt.Sprintf("name='%s' and '%s' in parents and trashed=false", backupFileName, folderID))
	if err != nil {
		s.notifyStatus(driveStatusConnected)
		return nil, err
	}
	if len(files) > 0 {
		if err := ops.UpdateFile(files[0].Id, data); err != nil {
			s.notifyStatus(driveStatusConnected)
			return nil, err
		}
		result.FileID = files[0].Id
	} else {
		id, err := ops.CreateFile(backupFileName, data, folderID, "application/json")
		if err != nil {
			s.notifyStatus(driveStatusConnected)
			return nil, err
		}
		result.FileID = id
		result.Created = true
	}

	s.notifyStatus(driveStatusConnected)
	return result, nil
}

// ensureFolder はバックアップ用フォルダを探し、無ければ作成する
func (s *driveBackupService) ensureFolder(ops DriveOperations) (string, error) {
	folders, err := ops.ListFiles(fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", backupFolderName, folderMimeType))
	if err != nil {
		return "", err
	}
	if len(folders) > 0 {
		return folders[0].Id, nil
	}
	return ops.CreateFolder(backupFolderName, "")
}

func (s *driveBackupService) notifyStatus(status string) {
	if s.emitter != nil {
		s.emitter.Emit(EventDriveStatus, status)
	}
}
