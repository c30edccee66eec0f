package backend

import (
	"context"
	"errors"
	"time"
)

const defaultGeoTimeout = 10 * time.Second

// Locator は現在位置を1回だけ取得する (継続的な監視は行わない)
type Locator interface {
	Capture(ctx context.Context) (Coordinates, error)
}

// LocatorFunc は関数を Locator として扱うためのアダプタ
type LocatorFunc func(ctx context.Context) (Coordinates, error)

func (f LocatorFunc) Capture(ctx context.Context) (Coordinates, error) {
	return f(ctx)
}

// PositionResult はフロントエンドから返される位置情報の結果
type PositionResult struct {
	OK        bool    `json:"ok"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	ErrorCode int     `json:"errorCode"` // GeolocationPositionError.code
}

// bridgeLocator は webview の navigator.geolocation に位置取得を依頼する
type bridgeLocator struct {
	bridge    *requestBridge[PositionResult]
	timeout   time.Duration
	supported func() bool
}

func newBridgeLocator(bridge *requestBridge[PositionResult], timeout time.Duration, supported func() bool) *bridgeLocator {
	if timeout <= 0 {
		timeout = defaultGeoTimeout
	}
	return &bridgeLocator{bridge: bridge, timeout: timeout, supported: supported}
}

func (l *bridgeLocator) Capture(ctx context.Context) (Coordinates, error) {
	if l.supported != nil && !l.supported() {
		return Coordinates{}, &UnsupportedFeatureError{Feature: "geolocation"}
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	result, err := l.bridge.Request(ctx, EventGeoRequest, map[string]interface{}{
		"timeoutMs": l.timeout.Milliseconds(),
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return Coordinates{}, &GeolocationError{Code: GeoTimeout}
	}
	if err != nil {
		return Coordinates{}, err
	}
	if !result.OK {
		return Coordinates{}, &GeolocationError{Code: normalizeGeoCode(result.ErrorCode)}
	}
	return Coordinates{Latitude: result.Latitude, Longitude: result.Longitude}, nil
}

func normalizeGeoCode(code int) GeolocationErrorCode {
	switch c := GeolocationErrorCode(code); c {
	case GeoPermissionDenied, GeoPositionUnavailable, GeoTimeout:
		return c
	default:
		return GeoUnknown
	}
}

// fallbackLocator は取得に失敗した場合に固定の座標で代替する
type fallbackLocator struct {
	inner      Locator
	fallback   Coordinates
	onFallback func(err error)
}

func (l *fallbackLocator) Capture(ctx context.Context) (Coordinates, error) {
	coords, err := l.inner.Capture(ctx)
	if err == nil {
		return coords, nil
	}
	// 呼び出し元のキャンセルは代替しない
	if errors.Is(err, context.Canceled) {
		return Coordinates{}, err
	}
	if l.onFallback != nil {
		l.onFallback(err)
	}
	return l.fallback, nil
}

// newLocator は設定された方針に従って Locator を組み立てる
// block では失敗をそのまま返し、fallback では代替座標で保存を続行する
func newLocator(policy GeoFailurePolicy, inner Locator, fallback Coordinates, onFallback func(err error)) Locator {
	if policy == GeoPolicyFallback {
		return &fallbackLocator{inner: inner, fallback: fallback, onFallback: onFallback}
	}
	return inner
}
