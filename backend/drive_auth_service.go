package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	driveAuthAddr        = "localhost:34116"
	driveAuthCallback    = "/oauth2callback"
	driveAuthTimeout     = 3 * time.Minute
	driveTokenFileName   = "token.json"
	driveStatusOffline   = "offline"
	driveStatusConnected = "connected"
	driveStatusBusy      = "syncing"
)

// 認証完了ページ
const authResultHTML = `<html>
	<head>
		<title>%s</title>
		<style>
			body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; margin: 0; background-color: #f5f5f5; }
			.container { display: flex; justify-content: center; align-items: center; height: 100vh; }
			.message-box { text-align: center; width: 400px; padding: 2rem; background-color: #2e7d32; color: #fff; border-radius: 8px; }
			.message-box.error { background-color: grey; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="message-box %s">
				<h3>%s</h3>
				<p>%s</p>
			</div>
		</div>
	</body>
</html>`

// driveAuthService は Google Drive の認証・接続・切断を担当します
type driveAuthService struct {
	appDataDir  string
	credentials []byte
	logger      AppLogger
	emitter     EventEmitter
	openURL     func(url string)

	mu      sync.RWMutex
	config  *oauth2.Config
	token   *oauth2.Token
	service *drive.Service
}

// NewDriveAuthService は認証を担当するサービスを生成します
// credentialsPath が空の場合はバックアップ機能を無効にする
func NewDriveAuthService(appDataDir string, credentialsPath string, logger AppLogger, emitter EventEmitter, openURL func(string)) *driveAuthService {
	s := &driveAuthService{
		appDataDir: appDataDir,
		logger:     logger,
		emitter:    emitter,
		openURL:    openURL,
	}
	if credentialsPath == "" {
		return s
	}
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		logger.Error(err, "Failed to read Drive credentials")
		return s
	}
	s.credentials = data
	return s
}

// Enabled は認証情報が設定されているかを返す
func (s *driveAuthService) Enabled() bool {
	return len(s.credentials) > 0
}

// Initialize は OAuth2 の設定を読み込み、保存済みのトークンがあれば接続する
func (s *driveAuthService) Initialize(ctx context.Context) error {
	if !s.Enabled() {
		return &UnsupportedFeatureError{Feature: "drive backup"}
	}

	config, err := google.ConfigFromJSON(s.credentials, drive.DriveFileScope)
	if err != nil {
		return fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "http://" + driveAuthAddr + driveAuthCallback

	s.mu.Lock()
	s.config = config
	s.mu.Unlock()

	token, err := s.loadToken()
	if errors.Is(err, os.ErrNotExist) {
		s.notifyStatus(driveStatusOffline)
		return nil
	}
	if err != nil {
		s.notifyStatus(driveStatusOffline)
		return s.logger.Error(err, "Failed to load Drive token")
	}
	return s.connect(ctx, token)
}

// Authorize はブラウザで認証を行い、コールバックで受け取ったコードでトークンを取得する
func (s *driveAuthService) Authorize(ctx context.Context) error {
	s.mu.RLock()
	config := s.config
	s.mu.RUnlock()
	if config == nil {
		if err := s.Initialize(ctx); err != nil {
			return err
		}
		s.mu.RLock()
		config = s.config
		s.mu.RUnlock()
	}

	s.notifyStatus(driveStatusBusy)
	state := uuid.NewString()
	codeChan, shutdown, err := s.startAuthServer(state)
	if err != nil {
		s.notifyStatus(driveStatusOffline)
		return s.logger.Error(err, "Failed to start auth server")
	}
	defer shutdown()

	s.openURL(config.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case code := <-codeChan:
		token, err := config.Exchange(ctx, code)
		if err != nil {
			s.notifyStatus(driveStatusOffline)
			return s.logger.ErrorWithNotify(err, "Failed to complete authentication")
		}
		if err := s.saveToken(token); err != nil {
			return s.logger.Error(err, "Failed to save Drive token")
		}
		return s.connect(ctx, token)
	case <-time.After(driveAuthTimeout):
		s.notifyStatus(driveStatusOffline)
		return fmt.Errorf("authentication timed out, please try again")
	case <-ctx.Done():
		s.notifyStatus(driveStatusOffline)
		return ctx.Err()
	}
}

// startAuthServer は認証コードを受け取る一時的なサーバーを起動する
func (s *driveAuthService) startAuthServer(state string) (<-chan string, func(), error) {
	listener, err := net.Listen("tcp", driveAuthAddr)
	if err != nil {
		return nil, nil, err
	}

	codeChan := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(driveAuthCallback, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		code := r.URL.Query().Get("code")
		if code == "" || r.URL.Query().Get("state") != state {
			fmt.Fprintf(w, authResultHTML, "Authentication Error", "error",
				"Authentication Error", "Please return to GeoNotes and try again.")
			return
		}
		select {
		case codeChan <- code:
		default:
		}
		fmt.Fprintf(w, authResultHTML, "Authentication Complete", "",
			"Authentication Complete!", "You can close this window and return to GeoNotes.")
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(err, "Auth server error")
		}
	}()

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}
	return codeChan, shutdown, nil
}

// connect はトークンから Drive サービスを初期化する
func (s *driveAuthService) connect(ctx context.Context, token *oauth2.Token) error {
	s.mu.Lock()
	config := s.config
	s.mu.Unlock()

	// トークンソースを作成（自動更新用）
	client := oauth2.NewClient(ctx, config.TokenSource(context.Background(), token))
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		s.notifyStatus(driveStatusOffline)
		return s.logger.Error(err, "Unable to retrieve Drive client")
	}

	s.mu.Lock()
	s.service = srv
	s.token = token
	s.mu.Unlock()

	s.logger.Info("Drive service initialized")
	s.notifyStatus(driveStatusConnected)
	return nil
}

// Logout は保存済みトークンを削除して切断する
func (s *driveAuthService) Logout() error {
	s.mu.Lock()
	s.service = nil
	s.token = nil
	s.mu.Unlock()

	tokenFile := filepath.Join(s.appDataDir, driveTokenFileName)
	if err := os.Remove(tokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return s.logger.Error(err, "Failed to remove Drive token")
	}
	s.notifyStatus(driveStatusOffline)
	return nil
}

// Connected は Drive に接続済みかどうかを返す
func (s *driveAuthService) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.service != nil
}

// Operations は接続済みの Drive への低レベル操作を返す
func (s *driveAuthService) Operations() (DriveOperations, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.service == nil {
		return nil, fmt.Errorf("not connected to Google Drive")
	}
	return NewDriveOperations(s.service), nil
}

// saveToken はトークンをファイルに保存
func (s *driveAuthService) saveToken(token *oauth2.Token) error {
	tokenFile := filepath.Join(s.appDataDir, driveTokenFileName)
	f, err := os.OpenFile(tokenFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// loadToken は保存済みトークンを読み込む
func (s *driveAuthService) loadToken() (*oauth2.Token, error) {
	f, err := os.Open(filepath.Join(s.appDataDir, driveTokenFileName))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *driveAuthService) notifyStatus(status string) {
	if s.emitter != nil {
		s.emitter.Emit(EventDriveStatus, status)
	}
}
