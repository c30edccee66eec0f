package backend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToastService_ShowAndAutoDismiss(t *testing.T) {
	emitter := newRecordingEmitter()
	s := newToastService(emitter, 20*time.Millisecond)

	toast := s.Show("hello")
	assert.Equal(t, "hello", toast.Message)
	assert.Equal(t, int64(20), toast.DurationMs)

	shown, ok := emitter.Last(EventToastShow)
	require.True(t, ok)
	assert.Equal(t, toast, shown.Data[0])

	assert.Eventually(t, func() bool {
		return emitter.Count(EventToastHide) == 1
	}, time.Second, 5*time.Millisecond)

	ev, _ := emitter.Last(EventToastHide)
	assert.Equal(t, toast.ID, ev.Data[0])

	// 消えた後は再度消されない
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, emitter.Count(EventToastHide))
}

func TestToastService_NewToastReplacesCurrent(t *testing.T) {
	emitter := newRecordingEmitter()
	s := newToastService(emitter, 50*time.Millisecond)
	defer s.Stop()

	first := s.Show("first")
	time.Sleep(30 * time.Millisecond)
	second := s.Show("second")
	assert.Equal(t, 2, emitter.Count(EventToastShow))

	// 最初のトーストのタイマーは2つ目を消さない
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, emitter.Count(EventToastHide))

	assert.Eventually(t, func() bool {
		return emitter.Count(EventToastHide) == 1
	}, time.Second, 5*time.Millisecond)
	ev, _ := emitter.Last(EventToastHide)
	assert.Equal(t, second.ID, ev.Data[0])
	assert.NotEqual(t, first.ID, second.ID)
}

func TestToastService_DefaultsAndSetDuration(t *testing.T) {
	s := newToastService(newRecordingEmitter(), 0)
	defer s.Stop()
	assert.Equal(t, defaultToastDuration, s.duration)

	s.SetDuration(-time.Second)
	assert.Equal(t, defaultToastDuration, s.duration)

	s.SetDuration(time.Second)
	assert.Equal(t, int64(1000), s.Show("x").DurationMs)
}

func TestToastService_StopCancelsDismiss(t *testing.T) {
	emitter := newRecordingEmitter()
	s := newToastService(emitter, 10*time.Millisecond)

	s.Show("pending")
	s.Stop()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, emitter.Count(EventToastHide))
}
