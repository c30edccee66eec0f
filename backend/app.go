package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"geonotes/backend/legacyimport"
	"geonotes/backend/splash"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// ストアの状態
const (
	StorageReady       = "ready"
	StorageUnavailable = "unavailable"
)

const importSnapshotDir = "import_snapshots"

// NewContext は新しいContextインスタンスを作成します
func NewContext(ctx context.Context) *Context {
	return &Context{
		ctx:             ctx,
		skipBeforeClose: false,
	}
}

// SkipBeforeClose はBeforeClose処理のスキップフラグを設定します
func (c *Context) SkipBeforeClose(skip bool) {
	c.skipBeforeClose = skip
}

// ShouldSkipBeforeClose はBeforeClose処理をスキップすべきかどうかを返します
func (c *Context) ShouldSkipBeforeClose() bool {
	return c.skipBeforeClose
}

// platformHooks は Wails のランタイムに依存する部品をまとめたもの
type platformHooks struct {
	emitter   EventEmitter
	logger    AppLogger
	clipboard Clipboard
	confirmer Confirmer
	dialogs   FileDialogs
	openURL   func(url string)
}

// NewApp は新しいAppインスタンスを作成します
func NewApp() *App {
	return &App{
		ctx: NewContext(context.Background()),
	}
}

// ------------------------------------------------------------
// アプリケーション関連の操作
// ------------------------------------------------------------

// アプリケーション起動時に呼び出される初期化関数
func (a *App) Startup(ctx context.Context) {
	a.ctx.ctx = ctx

	config, err := LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config, using defaults: %v\n", err)
		config = &Config{DataDir: defaultDataDir(), Store: defaultStore}
	}

	emitter := &wailsEmitter{ctx: a.ctx}
	a.initialize(config, platformHooks{
		emitter:   emitter,
		logger:    NewAppLogger(emitter, false, config.Debug, config.DataDir),
		clipboard: &wailsClipboard{ctx: a.ctx},
		confirmer: &wailsConfirmer{ctx: a.ctx},
		dialogs:   &wailsFileDialogs{ctx: a.ctx},
		openURL: func(url string) {
			wailsRuntime.BrowserOpenURL(a.ctx.ctx, url)
		},
	})
}

// initialize は設定を読み込み、各サービスを組み立てる
// ストアを開けない場合もアプリケーションは起動し、ノート操作は ErrStorageUnavailable を返す
func (a *App) initialize(config *Config, hooks platformHooks) {
	a.config = config
	a.appDataDir = config.DataDir
	a.emitter = hooks.emitter
	a.logger = hooks.logger
	a.dialogs = hooks.dialogs

	if err := os.MkdirAll(a.appDataDir, 0755); err != nil {
		a.logger.Error(err, "Failed to create data directory")
	}
	a.logger.Console("appDataDir: %s (store: %s)", a.appDataDir, config.Store)

	// SettingsServiceの初期化
	a.settingsService = NewSettingsService(a.appDataDir)
	settings, err := a.settingsService.LoadSettings()
	if err != nil {
		a.logger.Error(err, "Failed to load settings, using defaults")
		settings = DefaultSettings()
	}
	a.settings = settings

	a.toastService = newToastService(a.emitter, time.Duration(settings.ToastDurationMs)*time.Millisecond)
	a.voiceService = newVoiceService(a.emitter, a.toastService, a.logger, ResolveSpeechLocale(settings.SpeechLocale))
	a.battery = newBatteryMonitor(a.emitter, a.toastService, settings.LowBatteryThreshold)
	a.bridge = newRequestBridge[PositionResult](a.emitter)

	// NoteStoreの初期化
	store, err := OpenNoteStore(config.Store, a.appDataDir)
	if err != nil {
		a.storeErr = err
		a.logger.ErrorWithNotify(err, "Failed to open note storage")
	} else {
		a.store = store
		a.queue = newMutationQueue(a.logger)
		a.repository = NewNoteRepository(store, LocatorFunc(a.captureLocation), a.queue)
		a.session = NewSession(a.repository, a.emitter, a.toastService, hooks.clipboard, hooks.confirmer, a.logger)
		a.startWatcher()
	}

	// Google Drive バックアップの初期化
	a.driveAuth = NewDriveAuthService(a.appDataDir, config.DriveCredentialsPath, a.logger, a.emitter, hooks.openURL)
	a.backupService = newDriveBackupService(a.driveAuth.Operations, a.emitter)
}

func (a *App) startWatcher() {
	dirs, match := watchTargets(a.config.Store, a.appDataDir)
	watcher, err := newStoreWatcher(dirs, match, a.onStoreChanged, a.logger)
	if err != nil {
		a.logger.Error(err, "Failed to watch note storage")
		return
	}
	a.watcher = watcher
	a.watcher.Start(a.ctx.ctx)
}

// onStoreChanged は外部からの変更を検知した際に一覧を描画し直す
func (a *App) onStoreChanged() {
	if refresher, ok := a.store.(interface{ Refresh() error }); ok {
		if err := refresher.Refresh(); err != nil {
			a.logger.Error(err, "Failed to refresh note storage")
			return
		}
	}
	a.logger.Console("Note storage changed externally, reloading")
	a.session.Reload(a.ctx.ctx)
}

// DomReady はフロントエンドの読み込み完了時に呼び出される
func (a *App) DomReady(ctx context.Context) {
	// 前回終了時のウィンドウ位置を復元 (サイズと最大化は起動オプションで復元済み)
	if settings := a.currentSettings(); settings.WindowX != 0 || settings.WindowY != 0 {
		wailsRuntime.WindowSetPosition(ctx, settings.WindowX, settings.WindowY)
	}

	a.emitter.Emit(EventStorageStatus, a.StorageStatus())

	if a.driveAuth.Enabled() {
		go func() {
			if err := a.driveAuth.Initialize(ctx); err != nil {
				a.logger.Error(err, "Error initializing drive service")
			}
		}()
	}

	// フロントエンドに初期化完了を通知
	a.emitter.Emit(EventBackendReady)
}

// アプリケーション終了前に呼び出される処理
func (a *App) BeforeClose(ctx context.Context) (prevent bool) {
	if a.ctx.ShouldSkipBeforeClose() {
		return false
	}

	a.reportPendingWrites()

	// ウィンドウの状態を保存
	if err := a.settingsService.SaveWindowState(a.ctx); err != nil {
		a.logger.Error(err, "Failed to save window state")
	}
	return false
}

// reportPendingWrites は終了時に残っている書き込みを記録する
// 残りは Shutdown でキューを閉じる際に最後まで実行される
func (a *App) reportPendingWrites() int64 {
	if a.queue == nil {
		return 0
	}
	pending := a.queue.PendingOperations()
	if pending > 0 {
		a.logger.Info("Finishing %d pending note write(s) before closing...", pending)
	}
	return pending
}

// Shutdown は監視・タイマー・キュー・ストアを順に解放する
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.battery.Detach()
	a.toastService.Stop()
	if a.queue != nil {
		a.queue.Shutdown()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error(err, "Failed to close note storage")
		}
	}
	a.logger.Close()
}

// アプリケーションを終了する
func (a *App) DestroyApp() {
	a.ctx.SkipBeforeClose(true)
	wailsRuntime.Quit(a.ctx.ctx)
}

// ReportCapabilities はフロントエンドが検出したプラットフォーム機能を受け取り、各ウィジェットを初期化する
func (a *App) ReportCapabilities(capabilities Capabilities) error {
	a.mu.Lock()
	a.capabilities = capabilities
	notify := capabilities.Notifications && a.settings.EnableNotifications
	a.mu.Unlock()

	a.logger.Console("Capabilities: %+v", capabilities)
	a.voiceService.Initialize(capabilities.Speech)
	a.battery.Attach(capabilities.Battery)
	if a.session == nil {
		a.emitter.Emit(EventStorageStatus, StorageUnavailable)
		return a.storageUnavailable()
	}
	a.session.SetNotifications(notify)
	return a.session.Reload(a.ctx.ctx)
}

// StorageStatus はストアの状態を返す
func (a *App) StorageStatus() string {
	if a.store == nil {
		return StorageUnavailable
	}
	return StorageReady
}

func (a *App) storageUnavailable() error {
	err := ErrStorageUnavailable
	if a.storeErr != nil {
		err = a.storeErr
	}
	a.toastService.Show(userMessage(ErrStorageUnavailable))
	return err
}

// ------------------------------------------------------------
// ノート関連の操作
// ------------------------------------------------------------

// RenderNotes は一覧を描画し直す
func (a *App) RenderNotes() error {
	if a.session == nil {
		return a.storageUnavailable()
	}
	return a.session.Reload(a.ctx.ctx)
}

// 全てのノートのリストを返す
func (a *App) ListNotes() ([]Note, error) {
	if a.repository == nil {
		return nil, a.storageUnavailable()
	}
	return a.repository.List(a.ctx.ctx)
}

// SaveNote はフォームの内容を保存する。編集中であれば既存のノートを更新する
func (a *App) SaveNote(title string, content string) (*Note, error) {
	if a.session == nil {
		return nil, a.storageUnavailable()
	}
	return a.session.Save(a.ctx.ctx, title, content)
}

// BeginEdit は指定されたノートを編集状態にする
func (a *App) BeginEdit(id string) (*Note, error) {
	if a.session == nil {
		return nil, a.storageUnavailable()
	}
	return a.session.BeginEdit(a.ctx.ctx, id)
}

// CancelEdit は編集を取り消す
func (a *App) CancelEdit() {
	if a.session != nil {
		a.session.CancelEdit()
	}
}

// 指定されたIDのノートを削除する
func (a *App) DeleteNote(id string) (bool, error) {
	if a.session == nil {
		return false, a.storageUnavailable()
	}
	return a.session.Delete(a.ctx.ctx, id)
}

// ReorderNotes はドラッグしたノートをドロップ先の位置に移動する
func (a *App) ReorderNotes(draggedID string, targetID string) error {
	if a.session == nil {
		return a.storageUnavailable()
	}
	return a.session.Reorder(a.ctx.ctx, draggedID, targetID)
}

// CopyNote はノートをクリップボードにコピーする
func (a *App) CopyNote(id string) error {
	if a.session == nil {
		return a.storageUnavailable()
	}
	return a.session.Copy(a.ctx.ctx, id)
}

// ------------------------------------------------------------
// 位置情報
// ------------------------------------------------------------

// ResolveBridgeRequest はフロントエンドから位置情報の取得結果を受け取る
func (a *App) ResolveBridgeRequest(requestID string, result PositionResult) error {
	return a.bridge.Resolve(requestID, result)
}

// captureLocation は現在の設定に従って位置情報を取得する
func (a *App) captureLocation(ctx context.Context) (Coordinates, error) {
	settings := a.currentSettings()
	inner := newBridgeLocator(a.bridge, time.Duration(settings.GeoTimeoutSeconds)*time.Second, a.geolocationSupported)
	return newLocator(settings.GeoFailurePolicy, inner, settings.FallbackCoordinates(), a.onGeoFallback).Capture(ctx)
}

func (a *App) geolocationSupported() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capabilities.Geolocation
}

func (a *App) onGeoFallback(err error) {
	a.logger.Info("Location unavailable (%v), saving with the fallback location", err)
	a.toastService.Show("⚠️ Location unavailable. Using the fallback location.")
}

// ------------------------------------------------------------
// 音声入力・バッテリー
// ------------------------------------------------------------

// StartVoice は音声認識を開始する
func (a *App) StartVoice() error {
	if err := a.voiceService.Start(); err != nil {
		a.toastService.Show(userMessage(err))
		return err
	}
	return nil
}

// VoiceResult は認識結果を受け取る
func (a *App) VoiceResult(transcript string) {
	a.voiceService.HandleResult(transcript)
}

// VoiceError は認識エラーを受け取る
func (a *App) VoiceError(code string) error {
	return a.voiceService.HandleError(code)
}

// VoiceEnded は認識セッションの終了を受け取る
func (a *App) VoiceEnded() {
	a.voiceService.HandleEnd()
}

// BatteryChanged はバッテリーの残量または充電状態の変化を受け取る
func (a *App) BatteryChanged(level float64, charging bool) {
	a.battery.Update(BatteryStatus{Level: level, Charging: charging})
}

// DetachView は画面の破棄時に購読を解除する
func (a *App) DetachView() {
	a.battery.Detach()
	a.toastService.Stop()
}

// ------------------------------------------------------------
// スプラッシュ
// ------------------------------------------------------------

// SplashTargets はタイムラインが参照するセレクタを返す。フロントエンドはこれらの要素数を数える
func (a *App) SplashTargets(name string) ([]string, error) {
	timeline, ok := splash.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown splash timeline %q", name)
	}
	return timeline.Targets(), nil
}

// SplashSchedule は要素数からタイムラインの絶対時刻を求める
// 必須の要素が無い場合はスプラッシュを省略済みとして扱う
func (a *App) SplashSchedule(name string, counts map[string]int) (*splash.Schedule, error) {
	timeline, ok := splash.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown splash timeline %q", name)
	}
	schedule, err := timeline.Resolve(counts)
	if errors.Is(err, splash.ErrMissingTarget) {
		a.logger.Console("⚠️ Required elements missing. Skipping preloader animation. (%v)", err)
		a.CompleteSplash()
		return nil, err
	}
	if err != nil {
		return nil, a.logger.Error(err, "Failed to resolve splash timeline")
	}
	return schedule, nil
}

// CompleteSplash はスプラッシュの終了を記録する
func (a *App) CompleteSplash() {
	a.mu.Lock()
	a.splashCompleted = true
	a.mu.Unlock()
}

// SplashCompleted はスプラッシュが終了済みかどうかを返す
func (a *App) SplashCompleted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.splashCompleted
}

// ------------------------------------------------------------
// 取り込み・エクスポート
// ------------------------------------------------------------

// ImportLegacy は localStorage 時代のエクスポートを取り込み、取り込んだ件数を返す
func (a *App) ImportLegacy(path string) (int, error) {
	if a.repository == nil {
		return 0, a.storageUnavailable()
	}

	result, err := legacyimport.Load(path, filepath.Join(a.appDataDir, importSnapshotDir))
	if err != nil {
		a.toastService.Show("❌ Failed to read the export file.")
		return 0, a.logger.Error(err, "Failed to load legacy export")
	}
	for _, skipped := range result.Skipped {
		a.logger.Console("Skipped legacy entry %s: %s", skipped.Key, skipped.Reason)
	}

	imported, err := a.repository.Import(a.ctx.ctx, NotesFromLegacy(result.Records))
	if err != nil {
		a.toastService.Show(userMessage(err))
		return imported, a.logger.Error(err, "Failed to import legacy notes")
	}
	a.logger.Info("Imported %d legacy notes", imported)
	a.toastService.Show(fmt.Sprintf("📥 Imported %d notes", imported))
	return imported, a.session.Reload(a.ctx.ctx)
}

// SelectAndImportLegacy はファイル選択ダイアログで選んだエクスポートを取り込む
func (a *App) SelectAndImportLegacy() (int, error) {
	path, err := a.dialogs.SelectImportFile()
	if err != nil {
		return 0, a.logger.Error(err, "Failed to open file dialog")
	}
	if path == "" {
		return 0, nil
	}
	return a.ImportLegacy(path)
}

// ExportNotes は保存ダイアログで選んだパスに全件を JSON で書き出し、そのパスを返す
func (a *App) ExportNotes() (string, error) {
	if a.repository == nil {
		return "", a.storageUnavailable()
	}
	path, err := a.dialogs.SelectExportFile("geonotes", "json")
	if err != nil {
		return "", a.logger.Error(err, "Failed to open save dialog")
	}
	if path == "" {
		return "", nil
	}

	notes, err := a.repository.List(a.ctx.ctx)
	if err != nil {
		return "", a.logger.Error(err, "Failed to load notes")
	}
	data, err := EncodeSnapshot(notes, time.Now())
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(path, data, 0644); err != nil {
		a.toastService.Show("❌ Failed to export notes.")
		return "", a.logger.Error(err, "Failed to export notes")
	}
	a.toastService.Show(fmt.Sprintf("📤 Exported %d notes", len(notes)))
	return path, nil
}

// NotesFromLegacy は取り込んだレコードを、キーを id としたノートに変換する
func NotesFromLegacy(records []legacyimport.Record) []Note {
	notes := make([]Note, 0, len(records))
	for _, record := range records {
		notes = append(notes, Note{
			ID:        record.Key,
			Title:     record.Title,
			Content:   record.Content,
			Location:  Coordinates{Latitude: record.Latitude, Longitude: record.Longitude},
			Timestamp: record.Timestamp,
		})
	}
	return notes
}

// ------------------------------------------------------------
// Google Drive関連の操作
// ------------------------------------------------------------

// DriveEnabled は認証情報が設定されているかを返す
func (a *App) DriveEnabled() bool {
	return a.driveAuth.Enabled()
}

// Google Driveの認証フローを開始
func (a *App) AuthorizeDrive() error {
	return a.driveAuth.Authorize(a.ctx.ctx)
}

// Google Driveからログアウト
func (a *App) LogoutDrive() error {
	return a.driveAuth.Logout()
}

// BackupToDrive は現在のノート一覧を Google Drive にアップロードする
func (a *App) BackupToDrive() (*BackupResult, error) {
	if a.repository == nil {
		return nil, a.storageUnavailable()
	}
	notes, err := a.repository.List(a.ctx.ctx)
	if err != nil {
		return nil, a.logger.Error(err, "Failed to load notes")
	}
	result, err := a.backupService.Backup(a.ctx.ctx, notes)
	if err != nil {
		a.toastService.Show("❌ Backup to Google Drive failed.")
		return nil, a.logger.ErrorWithNotify(err, "Failed to back up notes")
	}
	a.toastService.Show(fmt.Sprintf("☁️ Backed up %d notes to Google Drive", result.NoteCount))
	return result, nil
}

// ------------------------------------------------------------
// 設定関連の操作
// ------------------------------------------------------------

// 設定を読み込む
func (a *App) LoadSettings() (*Settings, error) {
	return a.settingsService.LoadSettings()
}

// SaveSettings は設定を保存し、稼働中のサービスに反映する
func (a *App) SaveSettings(settings *Settings) error {
	if err := a.settingsService.SaveSettings(settings); err != nil {
		return a.logger.Error(err, "Failed to save settings")
	}

	a.mu.Lock()
	applied := *settings
	a.settings = &applied
	notify := a.capabilities.Notifications && applied.EnableNotifications
	a.mu.Unlock()

	a.toastService.SetDuration(time.Duration(applied.ToastDurationMs) * time.Millisecond)
	a.voiceService.SetLocale(ResolveSpeechLocale(applied.SpeechLocale))
	a.battery.SetThreshold(applied.LowBatteryThreshold)
	if a.session != nil {
		a.session.SetNotifications(notify)
	}
	return nil
}

func (a *App) currentSettings() Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return *a.settings
}

// BringToFront はウィンドウを前面に表示する
func (a *App) BringToFront() {
	wailsRuntime.WindowUnminimise(a.ctx.ctx)
	wailsRuntime.Show(a.ctx.ctx)
}
