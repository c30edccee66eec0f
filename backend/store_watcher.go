package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultWatchDebounce = 200 * time.Millisecond

// storeWatcher は保存先ディレクトリを監視し、外部 (CLI など) からの変更を検知する
// 連続したイベントは debounce でまとめてから onChange を1回だけ呼び出す
type storeWatcher struct {
	watcher  *fsnotify.Watcher
	match    func(name string) bool
	onChange func()
	logger   AppLogger
	debounce time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	done   chan struct{}
}

// newStoreWatcher は dirs を監視対象に加えた storeWatcher を作成する
// match が false を返すファイルのイベントは無視する
func newStoreWatcher(dirs []string, match func(name string) bool, onChange func(), logger AppLogger) (*storeWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return &storeWatcher{
		watcher:  watcher,
		match:    match,
		onChange: onChange,
		logger:   logger,
		debounce: defaultWatchDebounce,
		done:     make(chan struct{}),
	}, nil
}

// watchTargets は保存方式ごとの監視ディレクトリと対象ファイルの判定を返す
func watchTargets(backend string, dataDir string) ([]string, func(name string) bool) {
	if backend == StoreBackendFile {
		notesDir := filepath.Join(dataDir, notesDirName)
		return []string{notesDir, dataDir}, func(name string) bool {
			base := filepath.Base(name)
			if strings.HasPrefix(base, tempFilePrefix) {
				return false
			}
			if base == noteOrderFileName {
				return true
			}
			return filepath.Dir(name) == notesDir && strings.HasSuffix(base, ".json")
		}
	}
	return []string{dataDir}, func(name string) bool {
		base := filepath.Base(name)
		return base == sqliteFileName || base == sqliteFileName+"-wal"
	}
}

// Start は監視を開始する
func (w *storeWatcher) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
	go w.run(runCtx)
}

func (w *storeWatcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error(err, "Store watcher error")
		}
	}
}

func (w *storeWatcher) relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	return w.match == nil || w.match(event.Name)
}

// schedule は debounce 後に onChange を呼ぶ。既に予約済みならタイマーを延長する
func (w *storeWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

// Stop は監視を終了し、予約済みの通知を取り消す
func (w *storeWatcher) Stop() error {
	w.mu.Lock()
	cancel := w.cancel
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	if cancel != nil {
		cancel()
		<-w.done
	}
	return err
}
