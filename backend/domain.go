package backend

import (
	"context"
	"fmt"
	"sync"
)

// アプリケーションのメインの構造体
type App struct {
	ctx             *Context                       // アプリケーションのコンテキスト
	config          *Config                        // 起動時の設定
	appDataDir      string                         // アプリケーションデータディレクトリのパス
	store           NoteStore                      // ノートの永続化層
	storeErr        error                          // ストアを開けなかった場合のエラー
	queue           *mutationQueue                 // 書き込み操作の直列化
	repository      *NoteRepository                // ノート操作
	session         *Session                       // 編集状態を保持するビューモデル
	settingsService *settingsService               // 設定操作サービス
	toastService    *toastService                  // トースト通知
	voiceService    *voiceService                  // 音声入力
	battery         *batteryMonitor                // バッテリー表示
	bridge          *requestBridge[PositionResult] // 位置情報のリクエスト待ち合わせ
	watcher         *storeWatcher                  // 保存先の変更監視
	driveAuth       *driveAuthService              // Google Drive 認証
	backupService   *driveBackupService            // Google Drive へのバックアップ
	dialogs         FileDialogs                    // ファイルダイアログ
	emitter         EventEmitter                   // フロントエンドへのイベント送信
	logger          AppLogger                      // アプリケーションのロガー

	mu              sync.Mutex
	settings        *Settings    // 現在のユーザー設定
	capabilities    Capabilities // フロントエンドが報告した機能
	splashCompleted bool         // スプラッシュ表示が完了したか
}

// アプリケーションのコンテキストを管理
type Context struct {
	ctx             context.Context
	skipBeforeClose bool // アプリケーション終了前の処理をスキップするかどうか
}

// 緯度経度
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String は小数点以下5桁で座標を整形する
func (c Coordinates) String() string {
	return fmt.Sprintf("Lat: %.5f, Lng: %.5f", c.Latitude, c.Longitude)
}

// ノートの基本情報
type Note struct {
	ID        string      `json:"id"`        // ノートの一意識別子 (note-<epoch millis>)
	Title     string      `json:"title"`     // ノートのタイトル
	Content   string      `json:"content"`   // ノートの本文内容
	Location  Coordinates `json:"location"`  // 保存時に取得した位置
	Timestamp string      `json:"timestamp"` // 作成または最終更新日時 (RFC3339)
}

// フロントエンドが起動時に報告するプラットフォーム機能
type Capabilities struct {
	Geolocation   bool `json:"geolocation"`
	Speech        bool `json:"speech"`
	Battery       bool `json:"battery"`
	Notifications bool `json:"notifications"`
	Clipboard     bool `json:"clipboard"`
}

// バッテリーの状態
type BatteryStatus struct {
	Level    float64 `json:"level"` // 0.0 - 1.0
	Charging bool    `json:"charging"`
}

// 位置情報取得に失敗した際の方針
type GeoFailurePolicy string

const (
	GeoPolicyBlock    GeoFailurePolicy = "block"
	GeoPolicyFallback GeoFailurePolicy = "fallback"
)

// アプリケーションの設定を管理
type Settings struct {
	GeoFailurePolicy    GeoFailurePolicy `json:"geoFailurePolicy"`
	FallbackLatitude    float64          `json:"fallbackLatitude"`
	FallbackLongitude   float64          `json:"fallbackLongitude"`
	GeoTimeoutSeconds   int              `json:"geoTimeoutSeconds"`
	SpeechLocale        string           `json:"speechLocale"`
	ToastDurationMs     int              `json:"toastDurationMs"`
	LowBatteryThreshold float64          `json:"lowBatteryThreshold"`
	EnableNotifications bool             `json:"enableNotifications"`
	WindowWidth         int              `json:"windowWidth"`
	WindowHeight        int              `json:"windowHeight"`
	WindowX             int              `json:"windowX"`
	WindowY             int              `json:"windowY"`
	IsMaximized         bool             `json:"isMaximized"`
}

// FallbackCoordinates は設定されたフォールバック座標を返す
func (s *Settings) FallbackCoordinates() Coordinates {
	return Coordinates{Latitude: s.FallbackLatitude, Longitude: s.FallbackLongitude}
}
