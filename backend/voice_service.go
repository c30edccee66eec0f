package backend

import (
	"sync"
)

// 音声入力ボタンの状態
type VoiceState struct {
	Supported bool   `json:"supported"`
	Listening bool   `json:"listening"`
	Label     string `json:"label"`
}

// voiceService は webview の音声認識セッションを管理する
// 1回の操作で1セッションのみ (continuous=false)、認識言語は起動時に固定
type voiceService struct {
	emitter EventEmitter
	toast   *toastService
	logger  AppLogger
	locale  string

	mu        sync.Mutex
	supported bool
	listening bool
}

func newVoiceService(emitter EventEmitter, toast *toastService, logger AppLogger, locale string) *voiceService {
	return &voiceService{
		emitter: emitter,
		toast:   toast,
		logger:  logger,
		locale:  locale,
	}
}

// Initialize は起動時に音声認識の対応状況を反映する
// 非対応であればボタンを無効化し、クリック時ではなくこの時点で通知する
func (s *voiceService) Initialize(supported bool) {
	s.mu.Lock()
	s.supported = supported
	s.listening = false
	state := s.stateLocked()
	s.mu.Unlock()

	s.emitter.Emit(EventVoiceState, state)
	if !supported {
		s.toast.Show("⚠️ Speech Recognition not supported on this browser.")
	}
}

// Start は音声認識セッションを開始する
func (s *voiceService) Start() error {
	s.mu.Lock()
	if !s.supported {
		s.mu.Unlock()
		return &UnsupportedFeatureError{Feature: "speech recognition"}
	}
	if s.listening {
		s.mu.Unlock()
		return nil
	}
	s.listening = true
	state := s.stateLocked()
	locale := s.locale
	s.mu.Unlock()

	s.emitter.Emit(EventVoiceStart, map[string]interface{}{
		"lang":           locale,
		"continuous":     false,
		"interimResults": false,
	})
	s.emitter.Emit(EventVoiceState, state)
	s.toast.Show("🎙️ Listening... Speak your note.")
	return nil
}

// HandleResult は最終的な認識結果で本文欄を上書きする
func (s *voiceService) HandleResult(transcript string) {
	s.mu.Lock()
	s.listening = false
	state := s.stateLocked()
	s.mu.Unlock()

	s.emitter.Emit(EventFormContent, transcript)
	s.emitter.Emit(EventVoiceState, state)
	s.toast.Show("✅ Voice captured!")
}

// HandleError はプラットフォームのエラーコードを通知する。保存済みのノートには影響しない
func (s *voiceService) HandleError(code string) error {
	s.mu.Lock()
	s.listening = false
	state := s.stateLocked()
	s.mu.Unlock()

	err := &SpeechError{Code: code}
	s.logger.Error(err, "Speech recognition error")
	s.emitter.Emit(EventVoiceState, state)
	s.toast.Show(err.Error())
	return err
}

// HandleEnd はセッション終了を記録する
func (s *voiceService) HandleEnd() {
	s.mu.Lock()
	wasListening := s.listening
	s.listening = false
	state := s.stateLocked()
	s.mu.Unlock()

	s.logger.Console("Speech recognition ended.")
	if wasListening {
		s.emitter.Emit(EventVoiceState, state)
	}
}

// SetLocale は次回以降のセッションの認識言語を変更する
func (s *voiceService) SetLocale(locale string) {
	s.mu.Lock()
	s.locale = locale
	s.mu.Unlock()
}

func (s *voiceService) stateLocked() VoiceState {
	label := "🎤 Speak Note"
	switch {
	case !s.supported:
		label = "🎤 Not Supported"
	case s.listening:
		label = "🎙️ Listening..."
	}
	return VoiceState{Supported: s.supported, Listening: s.listening, Label: label}
}
