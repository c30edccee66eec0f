package backend

import (
	"strings"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// フロントエンドへ送るイベント名
const (
	EventNotesRender      = "notes:render"
	EventToastShow        = "toast:show"
	EventToastHide        = "toast:hide"
	EventGeoRequest       = "geo:request"
	EventVoiceStart       = "voice:start"
	EventVoiceState       = "voice:state"
	EventFormContent      = "form:content"
	EventFormReset        = "form:reset"
	EventBatteryUpdate    = "battery:update"
	EventNotificationShow = "notification:show"
	EventEditOpen         = "edit:open"
	EventEditClose        = "edit:close"
	EventStorageStatus    = "storage:status"
	EventBackendReady     = "backend:ready"
	EventDriveStatus      = "drive:status"
)

// EventEmitter はフロントエンドへのイベント送信を抽象化する
type EventEmitter interface {
	Emit(event string, data ...interface{})
}

// wailsEmitter は Wails のランタイム経由でイベントを送信する
type wailsEmitter struct {
	ctx *Context
}

func (e *wailsEmitter) Emit(event string, data ...interface{}) {
	if e.ctx == nil || e.ctx.ctx == nil {
		return
	}
	wailsRuntime.EventsEmit(e.ctx.ctx, event, data...)
}

// Clipboard はクリップボードへの書き込みを提供する
type Clipboard interface {
	SetText(text string) error
}

type wailsClipboard struct {
	ctx *Context
}

func (c *wailsClipboard) SetText(text string) error {
	return wailsRuntime.ClipboardSetText(c.ctx.ctx, text)
}

// Confirmer は「はい/いいえ」の確認ダイアログを表示する
type Confirmer interface {
	Confirm(title string, message string) (bool, error)
}

type wailsConfirmer struct {
	ctx *Context
}

func (c *wailsConfirmer) Confirm(title string, message string) (bool, error) {
	result, err := wailsRuntime.MessageDialog(c.ctx.ctx, wailsRuntime.MessageDialogOptions{
		Type:          wailsRuntime.QuestionDialog,
		Title:         title,
		Message:       message,
		Buttons:       []string{"Yes", "No"},
		DefaultButton: "No",
		CancelButton:  "No",
	})
	if err != nil {
		return false, err
	}
	return strings.EqualFold(result, "yes") || strings.EqualFold(result, "ok"), nil
}
