package backend

import (
	"fmt"
	"strings"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// FileDialogs はファイル選択・保存ダイアログを提供するインターフェースです
// 空文字列はキャンセルを表す
type FileDialogs interface {
	SelectImportFile() (string, error)
	SelectExportFile(fileName string, extension string) (string, error)
}

// wailsFileDialogs はFileDialogsの実装です
type wailsFileDialogs struct {
	ctx *Context
}

// SelectImportFile は取り込むエクスポートファイルを選択させます
func (d *wailsFileDialogs) SelectImportFile() (string, error) {
	return wailsRuntime.OpenFileDialog(d.ctx.ctx, wailsRuntime.OpenDialogOptions{
		Title: "Please select a GeoNotes export.",
		Filters: []wailsRuntime.FileFilter{
			{
				DisplayName: "JSON Files (*.json)",
				Pattern:     "*.json",
			},
		},
	})
}

// SelectExportFile は保存ダイアログを表示し、選択された保存先のパスを返します
func (d *wailsFileDialogs) SelectExportFile(fileName string, extension string) (string, error) {
	defaultFileName, pattern := buildSaveDialogDefaults(fileName, extension)

	return wailsRuntime.SaveFileDialog(d.ctx.ctx, wailsRuntime.SaveDialogOptions{
		Title:           "Please select export file path.",
		DefaultFilename: defaultFileName,
		Filters: []wailsRuntime.FileFilter{
			{
				DisplayName: "Export Files",
				Pattern:     pattern,
			},
		},
	})
}

// buildSaveDialogDefaults は保存ダイアログ用の既定ファイル名とフィルタを組み立てる
func buildSaveDialogDefaults(fileName string, extension string) (string, string) {
	trimmedName := strings.TrimSpace(fileName)
	trimmedExt := strings.TrimPrefix(strings.TrimSpace(extension), ".")

	if trimmedName == "" {
		trimmedName = "geonotes"
	}
	if trimmedExt == "" {
		return trimmedName, "*.*"
	}

	if strings.HasSuffix(strings.ToLower(trimmedName), "."+strings.ToLower(trimmedExt)) {
		return trimmedName, "*." + trimmedExt
	}
	return fmt.Sprintf("%s.%s", trimmedName, trimmedExt), "*." + trimmedExt
}
