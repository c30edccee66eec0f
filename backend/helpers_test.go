package backend

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

/*
------------------------------------------------------------
テスト用の共通部品
------------------------------------------------------------
*/

// emittedEvent はフロントエンドへ送られたイベント1件
type emittedEvent struct {
	Name string
	Data []interface{}
}

// recordingEmitter は送信されたイベントを記録する
type recordingEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
	hooks  map[string]func(data ...interface{})
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{hooks: make(map[string]func(data ...interface{}))}
}

func (e *recordingEmitter) Emit(event string, data ...interface{}) {
	e.mu.Lock()
	e.events = append(e.events, emittedEvent{Name: event, Data: data})
	hook := e.hooks[event]
	e.mu.Unlock()

	if hook != nil {
		hook(data...)
	}
}

// On はイベント送信時に呼ばれる処理を登録する
func (e *recordingEmitter) On(event string, hook func(data ...interface{})) {
	e.mu.Lock()
	e.hooks[event] = hook
	e.mu.Unlock()
}

func (e *recordingEmitter) Events(name string) []emittedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var result []emittedEvent
	for _, ev := range e.events {
		if ev.Name == name {
			result = append(result, ev)
		}
	}
	return result
}

func (e *recordingEmitter) Count(name string) int {
	return len(e.Events(name))
}

func (e *recordingEmitter) Last(name string) (emittedEvent, bool) {
	events := e.Events(name)
	if len(events) == 0 {
		return emittedEvent{}, false
	}
	return events[len(events)-1], true
}

// ToastMessages は表示されたトーストの文言を順に返す
func (e *recordingEmitter) ToastMessages() []string {
	var messages []string
	for _, ev := range e.Events(EventToastShow) {
		messages = append(messages, ev.Data[0].(Toast).Message)
	}
	return messages
}

func (e *recordingEmitter) Reset() {
	e.mu.Lock()
	e.events = nil
	e.mu.Unlock()
}

// fakeClipboard はクリップボードへの書き込みを記録する
type fakeClipboard struct {
	mu   sync.Mutex
	text string
	err  error
}

func (c *fakeClipboard) SetText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

// fakeConfirmer は決められた答えを返す確認ダイアログ
type fakeConfirmer struct {
	answer bool
	err    error
	calls  int
}

func (c *fakeConfirmer) Confirm(title string, message string) (bool, error) {
	c.calls++
	return c.answer, c.err
}

// fakeDialogs は決められたパスを返すファイルダイアログ
type fakeDialogs struct {
	importPath string
	exportPath string
	err        error
}

func (d *fakeDialogs) SelectImportFile() (string, error) {
	return d.importPath, d.err
}

func (d *fakeDialogs) SelectExportFile(fileName string, extension string) (string, error) {
	return d.exportPath, d.err
}

// stubLocator は固定の結果を返し、呼び出し回数を数える
type stubLocator struct {
	mu     sync.Mutex
	coords Coordinates
	err    error
	calls  int
}

func (l *stubLocator) Capture(ctx context.Context) (Coordinates, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.coords, l.err
}

func (l *stubLocator) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func newTestLogger() AppLogger {
	return NewAppLogger(nil, true, false, "")
}

// testClock は呼ばれるたびに指定した間隔だけ進む時計
type testClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// setupRepository は一時ディレクトリのストアを使うリポジトリを作成する
func setupRepository(t *testing.T, backend string, locator Locator) (*NoteRepository, NoteStore) {
	t.Helper()
	store, err := OpenNoteStore(backend, t.TempDir())
	require.NoError(t, err)
	queue := newMutationQueue(newTestLogger())
	t.Cleanup(func() {
		queue.Shutdown()
		store.Close()
	})
	return NewNoteRepository(store, locator, queue), store
}

// sampleNote はテスト用のノートを作成する
func sampleNote(id string, title string) Note {
	return Note{
		ID:        id,
		Title:     title,
		Content:   "content of " + title,
		Location:  Coordinates{Latitude: 43.65107, Longitude: -79.34702},
		Timestamp: "2024-01-02T03:04:05.000Z",
	}
}

// noteIDs はノートの id を順に返す
func noteIDs(notes []Note) []string {
	ids := make([]string, 0, len(notes))
	for _, note := range notes {
		ids = append(ids, note.ID)
	}
	return ids
}

var storeBackends = []string{StoreBackendSQLite, StoreBackendFile}
