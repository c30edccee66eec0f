package main

import (
	"context"
	"embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	"geonotes/backend"
)

//go:embed all:frontend/dist
var assets embed.FS

// 起動時に引数で渡されたエクスポートファイルを取り込むまでの待ち時間
const launchImportDelay = 500 * time.Millisecond

func main() {
	app := backend.NewApp()
	config, window := loadLaunchState()
	launchFile := exportFileArg(os.Args[1:])

	err := wails.Run(&options.App{
		Title:            "GeoNotes",
		Width:            window.WindowWidth,
		Height:           window.WindowHeight,
		MinWidth:         480,
		MinHeight:        560,
		WindowStartState: startState(window),
		AssetServer:      &assetserver.Options{Assets: assets},
		BackgroundColour: &options.RGBA{R: 245, G: 247, B: 250, A: 1},
		OnStartup:        app.Startup,
		OnDomReady: func(ctx context.Context) {
			app.DomReady(ctx)
			if launchFile != "" {
				time.AfterFunc(launchImportDelay, func() { app.ImportLegacy(launchFile) })
			}
		},
		OnBeforeClose: app.BeforeClose,
		OnShutdown:    app.Shutdown,
		LogLevel:      runtimeLogLevel(config),
		Bind:          []interface{}{app},
		Mac: &mac.Options{
			TitleBar: mac.TitleBarHiddenInset(),
			OnFileOpen: func(filePath string) {
				if isExportFile(filePath) {
					app.ImportLegacy(filePath)
				}
			},
		},
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId: "geonotes-instance-lock",
			OnSecondInstanceLaunch: func(data options.SecondInstanceData) {
				app.BringToFront()
				if file := exportFileArg(data.Args); file != "" {
					app.ImportLegacy(file)
				}
			},
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadLaunchState は起動設定と前回保存したウィンドウサイズを読み込む。読めなければ既定値
func loadLaunchState() (*backend.Config, *backend.Settings) {
	config, err := backend.LoadConfig()
	if err != nil {
		return nil, backend.DefaultSettings()
	}
	settings, err := backend.NewSettingsService(config.DataDir).LoadSettings()
	if err != nil {
		return config, backend.DefaultSettings()
	}
	return config, settings
}

func runtimeLogLevel(config *backend.Config) logger.LogLevel {
	if config != nil && config.Debug {
		return logger.DEBUG
	}
	return logger.WARNING
}

func startState(settings *backend.Settings) options.WindowStartState {
	if settings.IsMaximized {
		return options.Maximised
	}
	return options.Normal
}

func exportFileArg(args []string) string {
	for _, arg := range args {
		if isExportFile(arg) {
			return arg
		}
	}
	return ""
}

func isExportFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".json")
}
