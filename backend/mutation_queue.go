package backend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrQueueClosed はシャットダウン後に投入された操作に返される
var ErrQueueClosed = errors.New("mutation queue is closed")

// MutationType は書き込み操作の種類を表す
type MutationType string

const (
	MutationSave    MutationType = "SAVE"
	MutationDelete  MutationType = "DELETE"
	MutationReorder MutationType = "REORDER"
	MutationImport  MutationType = "IMPORT"
)

// queuedMutation はキューに格納される操作を表す
type queuedMutation struct {
	Type    MutationType
	NoteID  string
	Execute func() error
	Result  chan error
}

// mutationQueue はノートコレクションへの書き込みを1件ずつ順番に実行する
// 保存中のノートに対して並べ替えや削除が同時に走らないことを保証する
type mutationQueue struct {
	queue  chan *queuedMutation
	done   chan struct{}
	logger AppLogger

	closeMu sync.RWMutex // 投入中の操作とシャットダウンを排他する
	closed  bool
	pending atomic.Int64
	wg      sync.WaitGroup
}

// newMutationQueue は新しいキューを作成しワーカーを起動する
func newMutationQueue(logger AppLogger) *mutationQueue {
	q := &mutationQueue{
		queue:  make(chan *queuedMutation, 64),
		done:   make(chan struct{}),
		logger: logger,
	}
	q.wg.Add(1)
	go q.processQueue()
	return q
}

// Submit は操作をキューに追加し、実行結果を待つ
// ctx が先に終了した場合でも投入済みの操作は最後まで実行される
func (q *mutationQueue) Submit(ctx context.Context, opType MutationType, noteID string, fn func() error) error {
	op := &queuedMutation{
		Type:    opType,
		NoteID:  noteID,
		Execute: fn,
		Result:  make(chan error, 1),
	}

	q.closeMu.RLock()
	if q.closed {
		q.closeMu.RUnlock()
		return ErrQueueClosed
	}
	q.pending.Add(1)
	select {
	case q.queue <- op:
	case <-ctx.Done():
		q.finish()
		q.closeMu.RUnlock()
		return ctx.Err()
	}
	q.closeMu.RUnlock()

	select {
	case err := <-op.Result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// processQueue はキューから操作を取り出して順番に実行する
func (q *mutationQueue) processQueue() {
	defer q.wg.Done()
	for {
		select {
		case op := <-q.queue:
			q.run(op)
		case <-q.done:
			// 残っている操作を処理してから終了する
			for {
				select {
				case op := <-q.queue:
					q.run(op)
				default:
					return
				}
			}
		}
	}
}

func (q *mutationQueue) run(op *queuedMutation) {
	defer q.finish()
	if q.logger != nil {
		q.logger.Console("Processing mutation: %s for note %s", op.Type, op.NoteID)
	}
	err := op.Execute()
	if err != nil && q.logger != nil {
		q.logger.Error(err, "Mutation %s for note %s failed", op.Type, op.NoteID)
	}
	op.Result <- err
}

func (q *mutationQueue) finish() {
	q.pending.Add(-1)
}

// PendingOperations は投入済みで未完了の操作数を返す
func (q *mutationQueue) PendingOperations() int64 {
	return q.pending.Load()
}

// Shutdown は新規の投入を止め、残りの操作を処理してからワーカーを終了させる
func (q *mutationQueue) Shutdown() {
	q.closeMu.Lock()
	if q.closed {
		q.closeMu.Unlock()
		return
	}
	q.closed = true
	q.closeMu.Unlock()

	close(q.done)
	q.wg.Wait()
}
