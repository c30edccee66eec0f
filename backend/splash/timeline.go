package splash

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissingTarget   = errors.New("splash: required target missing")
	ErrInvalidPosition = errors.New("splash: invalid position")
)

type Method string

const (
	MethodTo     Method = "to"
	MethodFrom   Method = "from"
	MethodFromTo Method = "fromTo"
	MethodSet    Method = "set"
)

// Props はアニメーションさせるプロパティ (opacity, y など)
type Props map[string]float64

// Step はタイムラインの1区間
// Position は GSAP と同じ書式: "" (末尾に追加), "<", "<+x", "<-x", ">", "+=x", "-=x", 数値 (絶対位置)
type Step struct {
	Target   string  `json:"target"`
	Method   Method  `json:"method"`
	From     Props   `json:"from,omitempty"`
	To       Props   `json:"to,omitempty"`
	Duration float64 `json:"duration"`
	Stagger  float64 `json:"stagger,omitempty"`
	Ease     string  `json:"ease,omitempty"`
	Position string  `json:"position,omitempty"`
}

type Timeline struct {
	Name        string   `json:"name"`
	DefaultEase string   `json:"defaultEase"`
	Required    []string `json:"required"`
	Steps       []Step   `json:"steps"`
}

// ScheduledStep は Resolve 後の絶対時刻 (秒) を持つ Step
type ScheduledStep struct {
	Step
	Count int     `json:"count"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type Schedule struct {
	Name     string          `json:"name"`
	Steps    []ScheduledStep `json:"steps"`
	Duration float64         `json:"duration"`
}

// Resolve は要素数 counts (セレクタ -> 件数) から各 Step の開始・終了時刻を求める
// Required のセレクタが1件も無い場合は ErrMissingTarget を返す
func (t Timeline) Resolve(counts map[string]int) (*Schedule, error) {
	for _, selector := range t.Required {
		if counts[selector] <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingTarget, selector)
		}
	}

	schedule := &Schedule{Name: t.Name, Steps: make([]ScheduledStep, 0, len(t.Steps))}
	var end, prevStart, prevEnd float64
	for i, step := range t.Steps {
		start, err := position(step.Position, end, prevStart, prevEnd)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Target, err)
		}

		if step.Ease == "" {
			step.Ease = t.DefaultEase
		}
		count := counts[step.Target]
		scheduled := ScheduledStep{
			Step:  step,
			Count: count,
			Start: round(start),
			End:   round(start + span(step, count)),
		}
		schedule.Steps = append(schedule.Steps, scheduled)

		prevStart, prevEnd = scheduled.Start, scheduled.End
		end = math.Max(end, scheduled.End)
	}
	schedule.Duration = round(end)
	return schedule, nil
}

// span は stagger を含めた区間の長さ
func span(step Step, count int) float64 {
	if step.Method == MethodSet {
		return 0
	}
	if count > 1 {
		return step.Duration + step.Stagger*float64(count-1)
	}
	return step.Duration
}

func position(pos string, end, prevStart, prevEnd float64) (float64, error) {
	pos = strings.TrimSpace(pos)
	switch {
	case pos == "":
		return end, nil
	case pos == "<":
		return prevStart, nil
	case pos == ">":
		return prevEnd, nil
	case strings.HasPrefix(pos, "<"):
		offset, err := strconv.ParseFloat(pos[1:], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, pos)
		}
		return math.Max(0, prevStart+offset), nil
	case strings.HasPrefix(pos, ">"):
		offset, err := strconv.ParseFloat(pos[1:], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, pos)
		}
		return math.Max(0, prevEnd+offset), nil
	case strings.HasPrefix(pos, "+="), strings.HasPrefix(pos, "-="):
		offset, err := strconv.ParseFloat(pos[2:], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, pos)
		}
		if pos[0] == '-' {
			offset = -offset
		}
		return math.Max(0, end+offset), nil
	default:
		at, err := strconv.ParseFloat(pos, 64)
		if err != nil || at < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, pos)
		}
		return at, nil
	}
}

// 浮動小数点の誤差でミリ秒未満の端数が出ないようにする
func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
