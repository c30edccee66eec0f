package backend

import (
	"fmt"
	"math"
	"sync"
)

const defaultLowBatteryThreshold = 0.20

// バッテリー表示欄の内容
type BatteryDisplay struct {
	Level    string `json:"level"`
	Charging string `json:"charging"`
}

// batteryMonitor は webview から届くバッテリー変化を表示欄に反映する
// 残量低下の警告はしきい値を下回った時に1回だけ出し、回復するか充電が始まるまで再警告しない
type batteryMonitor struct {
	emitter   EventEmitter
	toast     *toastService
	threshold float64

	mu       sync.Mutex
	attached bool
	warned   bool
}

func newBatteryMonitor(emitter EventEmitter, toast *toastService, threshold float64) *batteryMonitor {
	if threshold <= 0 || threshold >= 1 {
		threshold = defaultLowBatteryThreshold
	}
	return &batteryMonitor{emitter: emitter, toast: toast, threshold: threshold}
}

// Attach は購読を開始する。非対応の環境では表示欄に対応していない旨を出す
func (m *batteryMonitor) Attach(supported bool) {
	m.mu.Lock()
	m.attached = supported
	m.warned = false
	m.mu.Unlock()

	if !supported {
		m.emitter.Emit(EventBatteryUpdate, BatteryDisplay{Level: "N/A", Charging: "Not supported"})
	}
}

// Detach は購読を解除する。以降の更新は無視される
func (m *batteryMonitor) Detach() {
	m.mu.Lock()
	m.attached = false
	m.mu.Unlock()
}

// Update はレベルまたは充電状態の変化ごとに呼ばれる
func (m *batteryMonitor) Update(status BatteryStatus) {
	m.mu.Lock()
	if !m.attached {
		m.mu.Unlock()
		return
	}
	low := status.Level <= m.threshold && !status.Charging
	warn := low && !m.warned
	if low {
		m.warned = true
	} else {
		m.warned = false
	}
	m.mu.Unlock()

	m.emitter.Emit(EventBatteryUpdate, formatBattery(status))
	if warn {
		m.toast.Show(fmt.Sprintf("🔋 Battery low (%s). Please plug in your charger.", formatBatteryLevel(status.Level)))
	}
}

// SetThreshold は警告を出す残量を変更する
func (m *batteryMonitor) SetThreshold(threshold float64) {
	if threshold <= 0 || threshold >= 1 {
		threshold = defaultLowBatteryThreshold
	}
	m.mu.Lock()
	m.threshold = threshold
	m.mu.Unlock()
}

func formatBattery(status BatteryStatus) BatteryDisplay {
	charging := "Not charging"
	if status.Charging {
		charging = "Charging"
	}
	return BatteryDisplay{Level: formatBatteryLevel(status.Level), Charging: charging}
}

func formatBatteryLevel(level float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(level*100)))
}
