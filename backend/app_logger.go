package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	logDirName    = "logs"
	logFilePrefix = "geonotes_"
	maxLogFiles   = 10
	eventLogLine  = "logMessage"
	eventAppError = "app:error"
	logLevelDebug = "DEBUG"
	logLevelInfo  = "INFO"
	logLevelError = "ERROR"
	logTimeLayout = "2006-01-02 15:04:05.000"
	logFileLayout = "2006-01-02_15-04-05"
)

// AppLogger はログ出力とフロントエンド通知を担当するインターフェース
type AppLogger interface {
	Console(format string, args ...interface{})                          // デバッグ時のみ。コンソールとログファイルに出力
	Info(format string, args ...interface{})                             // ステータス行にも表示
	Error(err error, format string, args ...interface{}) error           // エラーを記録してそのまま返す
	ErrorWithNotify(err error, format string, args ...interface{}) error // さらに app:error を送る
	IsTestMode() bool
	Close() error
}

// appLoggerImpl はAppLoggerの実装
// テストモードでは何も出力せず、エラーを返すだけ
type appLoggerImpl struct {
	emitter    EventEmitter
	isTestMode bool
	isDebug    bool

	mu      sync.Mutex
	logFile *os.File
}

// NewAppLogger は appDataDir/logs に起動ごとのログファイルを作成する
// 古いログは maxLogFiles 件を残して削除する
// isDebug が false の場合 Console の出力は捨てる
func NewAppLogger(emitter EventEmitter, isTestMode bool, isDebug bool, appDataDir string) AppLogger {
	logger := &appLoggerImpl{emitter: emitter, isTestMode: isTestMode, isDebug: isDebug}
	if isTestMode {
		return logger
	}

	logDir := filepath.Join(appDataDir, logDirName)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		fmt.Printf("Error creating log directory: %v\n", err)
		return logger
	}
	pruneLogs(logDir, maxLogFiles-1)

	logPath := filepath.Join(logDir, logFilePrefix+time.Now().Format(logFileLayout)+".log")
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		return logger
	}
	logger.logFile = logFile
	return logger
}

// pruneLogs は新しい順に keep 件だけ残して古いログファイルを消す
func pruneLogs(logDir string, keep int) {
	matches, err := filepath.Glob(filepath.Join(logDir, logFilePrefix+"*.log"))
	if err != nil || len(matches) <= keep {
		return
	}
	// ファイル名の日時部分は辞書順がそのまま時系列順になる
	sort.Strings(matches)
	for _, path := range matches[:len(matches)-keep] {
		os.Remove(path)
	}
}

// write はコンソールとログファイルに1行出力する
func (l *appLoggerImpl) write(level string, message string) {
	fmt.Println(message)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile == nil {
		return
	}
	line := fmt.Sprintf("%s [%s] %s\n", time.Now().Format(logTimeLayout), level, strings.TrimRight(message, "\n"))
	if _, err := l.logFile.WriteString(line); err != nil {
		fmt.Printf("Error writing to log file: %v\n", err)
	}
}

func (l *appLoggerImpl) Console(format string, args ...interface{}) {
	if l.isTestMode || !l.isDebug {
		return
	}
	l.write(logLevelDebug, fmt.Sprintf(format, args...))
}

func (l *appLoggerImpl) Info(format string, args ...interface{}) {
	if l.isTestMode {
		return
	}
	message := fmt.Sprintf(format, args...)
	l.write(logLevelInfo, message)
	l.emit(eventLogLine, message)
}

func (l *appLoggerImpl) Error(err error, format string, args ...interface{}) error {
	if err == nil || l.isTestMode {
		return err
	}
	message := fmt.Sprintf("%s: %v", fmt.Sprintf(format, args...), err)
	l.write(logLevelError, message)
	l.emit(eventLogLine, message)
	return err
}

func (l *appLoggerImpl) ErrorWithNotify(err error, format string, args ...interface{}) error {
	if err == nil || l.isTestMode {
		return err
	}
	l.Error(err, format, args...)
	l.emit(eventAppError, err.Error())
	return err
}

func (l *appLoggerImpl) emit(event string, data interface{}) {
	if l.emitter != nil {
		l.emitter.Emit(event, data)
	}
}

func (l *appLoggerImpl) IsTestMode() bool {
	return l.isTestMode
}

// Close はログファイルを閉じる。以降の出力はコンソールのみになる
func (l *appLoggerImpl) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile == nil {
		return nil
	}
	err := l.logFile.Close()
	l.logFile = nil
	return err
}
