package backend

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultToastDuration = 2500 * time.Millisecond

// Toast はフロントエンドに表示する一時メッセージ
type Toast struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	DurationMs int64  `json:"durationMs"`
}

// toastService はトーストの表示と自動消去を管理する
// 新しいトーストは表示中のものを置き換え、キューには積まない
type toastService struct {
	emitter  EventEmitter
	duration time.Duration

	mu      sync.Mutex
	current *Toast
	timer   *time.Timer
}

func newToastService(emitter EventEmitter, duration time.Duration) *toastService {
	if duration <= 0 {
		duration = defaultToastDuration
	}
	return &toastService{emitter: emitter, duration: duration}
}

// Show はトーストを表示し、一定時間後に消去する
func (s *toastService) Show(message string) Toast {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}

	toast := Toast{
		ID:         uuid.NewString(),
		Message:    message,
		DurationMs: s.duration.Milliseconds(),
	}
	s.current = &toast
	s.emitter.Emit(EventToastShow, toast)

	id := toast.ID
	s.timer = time.AfterFunc(s.duration, func() {
		s.dismiss(id)
	})
	return toast
}

// dismiss は指定されたトーストがまだ表示中であれば消去する
func (s *toastService) dismiss(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID != id {
		return
	}
	s.current = nil
	s.timer = nil
	s.emitter.Emit(EventToastHide, id)
}

// SetDuration は表示時間を変更する
func (s *toastService) SetDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.duration = d
	s.mu.Unlock()
}

// Stop は保留中の消去タイマーを止める
func (s *toastService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
