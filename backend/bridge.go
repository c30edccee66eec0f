package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// requestBridge はフロントエンドのプラットフォームAPI呼び出しを Go 側から待機できるようにする
// イベントで requestId 付きの要求を送り、フロントエンドが Resolve で結果を返す
type requestBridge[T any] struct {
	emitter EventEmitter
	mu      sync.Mutex
	pending map[string]chan T
}

func newRequestBridge[T any](emitter EventEmitter) *requestBridge[T] {
	return &requestBridge[T]{
		emitter: emitter,
		pending: make(map[string]chan T),
	}
}

// Request はイベントを送信し、対応する Resolve か ctx の終了まで待機する
func (b *requestBridge[T]) Request(ctx context.Context, event string, payload map[string]interface{}) (T, error) {
	var zero T
	id := uuid.NewString()
	ch := make(chan T, 1)

	b.mu.Lock()
	b.pending[id] = ch
	b.mu.Unlock()
	defer b.forget(id)

	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["requestId"] = id
	b.emitter.Emit(event, payload)

	select {
	case result := <-ch:
		return result, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Resolve は待機中の要求に結果を渡す
func (b *requestBridge[T]) Resolve(id string, result T) error {
	b.mu.Lock()
	ch, ok := b.pending[id]
	delete(b.pending, id)
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("unknown or expired request: %s", id)
	}
	ch <- result
	return nil
}

func (b *requestBridge[T]) forget(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}
