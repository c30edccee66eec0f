package backend

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// トロントの座標。位置情報を取得できない場合の代替値の既定
const (
	defaultFallbackLatitude  = 43.65107
	defaultFallbackLongitude = -79.34702
)

const (
	minWindowWidth  = 480
	minWindowHeight = 560
)

// ErrNilSettings はフロントエンドから null が渡された場合に返す
var ErrNilSettings = errors.New("settings must not be null")

// SettingsService は設定関連の操作を提供するインターフェースです
type SettingsService interface {
	LoadSettings() (*Settings, error)
	SaveSettings(settings *Settings) error
	SaveWindowState(ctx *Context) error
}

// settingsService はSettingsServiceの実装です
type settingsService struct {
	appDataDir string
}

// NewSettingsService は新しいsettingsServiceインスタンスを作成します
func NewSettingsService(appDataDir string) *settingsService {
	return &settingsService{
		appDataDir: appDataDir,
	}
}

// DefaultSettings は既定の設定を返します
func DefaultSettings() *Settings {
	return &Settings{
		GeoFailurePolicy:    GeoPolicyBlock,
		FallbackLatitude:    defaultFallbackLatitude,
		FallbackLongitude:   defaultFallbackLongitude,
		GeoTimeoutSeconds:   int(defaultGeoTimeout.Seconds()),
		SpeechLocale:        LocaleSystem,
		ToastDurationMs:     int(defaultToastDuration.Milliseconds()),
		LowBatteryThreshold: defaultLowBatteryThreshold,
		EnableNotifications: true,
		WindowWidth:         960,
		WindowHeight:        720,
	}
}

// LoadSettings はsettings.jsonから設定を読み込みます
// ファイルが存在しない場合はデフォルト設定を返します
func (s *settingsService) LoadSettings() (*Settings, error) {
	settingsPath := filepath.Join(s.appDataDir, "settings.json")

	data, err := os.ReadFile(settingsPath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return nil, err
	}

	// 未定義の項目は既定値のまま残す
	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}
	normalizeSettings(settings)
	return settings, nil
}

// SaveSettings は設定をsettings.jsonに保存します
func (s *settingsService) SaveSettings(settings *Settings) error {
	if settings == nil {
		return ErrNilSettings
	}
	normalizeSettings(settings)
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.appDataDir, 0755); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.appDataDir, "settings.json"), data, 0644)
}

// SaveWindowState はウィンドウの状態を保存します
func (s *settingsService) SaveWindowState(ctx *Context) error {
	settings, err := s.LoadSettings()
	if err != nil {
		return err
	}

	width, height := wailsRuntime.WindowGetSize(ctx.ctx)
	settings.WindowWidth = width
	settings.WindowHeight = height

	x, y := wailsRuntime.WindowGetPosition(ctx.ctx)
	settings.WindowX = x
	settings.WindowY = y

	settings.IsMaximized = wailsRuntime.WindowIsMaximised(ctx.ctx)

	return s.SaveSettings(settings)
}

// normalizeSettings は範囲外や未知の値を既定値に戻す
func normalizeSettings(settings *Settings) {
	defaults := DefaultSettings()

	switch GeoFailurePolicy(strings.ToLower(string(settings.GeoFailurePolicy))) {
	case GeoPolicyFallback:
		settings.GeoFailurePolicy = GeoPolicyFallback
	default:
		settings.GeoFailurePolicy = GeoPolicyBlock
	}
	if settings.FallbackLatitude < -90 || settings.FallbackLatitude > 90 ||
		settings.FallbackLongitude < -180 || settings.FallbackLongitude > 180 {
		settings.FallbackLatitude = defaults.FallbackLatitude
		settings.FallbackLongitude = defaults.FallbackLongitude
	}
	if settings.GeoTimeoutSeconds <= 0 {
		settings.GeoTimeoutSeconds = defaults.GeoTimeoutSeconds
	}
	if strings.TrimSpace(settings.SpeechLocale) == "" {
		settings.SpeechLocale = LocaleSystem
	}
	if settings.ToastDurationMs <= 0 {
		settings.ToastDurationMs = defaults.ToastDurationMs
	}
	if settings.LowBatteryThreshold <= 0 || settings.LowBatteryThreshold >= 1 {
		settings.LowBatteryThreshold = defaults.LowBatteryThreshold
	}
	// 最小化中に保存されたサイズは使わない
	if settings.WindowWidth < minWindowWidth || settings.WindowHeight < minWindowHeight {
		settings.WindowWidth = defaults.WindowWidth
		settings.WindowHeight = defaults.WindowHeight
	}
}
