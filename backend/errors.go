package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound は対象のノートが存在しないことを表す
	ErrNotFound = errors.New("note not found")
	// ErrStorageUnavailable はストアを開けなかったことを表す
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// 入力検証エラー (タイトルまたは本文が空)
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "Please enter both a title and a note."
}

// 位置情報のエラーコード (ブラウザの GeolocationPositionError と同じ値)
type GeolocationErrorCode int

const (
	GeoUnknown             GeolocationErrorCode = 0
	GeoPermissionDenied    GeolocationErrorCode = 1
	GeoPositionUnavailable GeolocationErrorCode = 2
	GeoTimeout             GeolocationErrorCode = 3
)

// 位置情報取得エラー
type GeolocationError struct {
	Code GeolocationErrorCode
}

func (e *GeolocationError) Error() string {
	switch e.Code {
	case GeoPermissionDenied:
		return "❌ Location access denied by the user."
	case GeoPositionUnavailable:
		return "❌ Location information is unavailable."
	case GeoTimeout:
		return "⏳ Request to get user location timed out."
	default:
		return "⚠️ An unknown error occurred while fetching location."
	}
}

// ストア操作のエラー
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// 音声認識エラー
type SpeechError struct {
	Code string
}

func (e *SpeechError) Error() string {
	return fmt.Sprintf("❌ Voice error: %s", e.Code)
}

// プラットフォームが機能を提供していない
type UnsupportedFeatureError struct {
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("%s is not supported on this device", e.Feature)
}

// wrapStorage はストアのエラーを StorageError に包む。ErrNotFound と nil はそのまま返す
func wrapStorage(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
