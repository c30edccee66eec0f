package backend

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapStorage(t *testing.T) {
	assert.Nil(t, wrapStorage("put", nil))
	assert.Equal(t, ErrNotFound, wrapStorage("get", ErrNotFound))

	unavailable := fmt.Errorf("open: %w", ErrStorageUnavailable)
	assert.Equal(t, unavailable, wrapStorage("put", unavailable))

	inner := errors.New("disk full")
	wrapped := wrapStorage("put", inner)
	var storageErr *StorageError
	assert.ErrorAs(t, wrapped, &storageErr)
	assert.Equal(t, "put", storageErr.Op)
	assert.ErrorIs(t, wrapped, inner)
	assert.Equal(t, "storage put failed: disk full", wrapped.Error())

	// 二重には包まない
	assert.Same(t, wrapped, wrapStorage("replaceAll", wrapped))
}

func TestGeolocationErrorMessages(t *testing.T) {
	assert.Equal(t, "❌ Location access denied by the user.", (&GeolocationError{Code: GeoPermissionDenied}).Error())
	assert.Equal(t, "⏳ Request to get user location timed out.", (&GeolocationError{Code: GeoTimeout}).Error())
	assert.Equal(t, "❌ Voice error: network", (&SpeechError{Code: "network"}).Error())
}
