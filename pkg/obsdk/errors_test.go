package obsdk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbbec/obsdk-go/internal/native"
)

func TestExceptionCategories(t *testing.T) {
	testCases := []struct {
		kind ExceptionKind
		want error
	}{
		{native.ExceptionInvalidValue, ErrInvalidArgument},
		{native.ExceptionWrongAPICallSequence, ErrInvalidArgument},
		{native.ExceptionUnsupportedOperation, ErrUnsupported},
		{native.ExceptionNotImplemented, ErrUnsupported},
		{native.ExceptionCameraDisconnected, ErrDeviceNotFound},
		{native.ExceptionIO, ErrIO},
		{native.ExceptionMemory, ErrMemory},
		{native.ExceptionTimeout, ErrTimeout},
		{native.ExceptionAccessDenied, ErrPermissionDenied},
		{native.ExceptionUnknown, ErrUnknown},
	}
	all := []error{ErrInvalidArgument, ErrUnsupported, ErrDeviceNotFound, ErrIO, ErrMemory, ErrTimeout, ErrPermissionDenied, ErrUnknown}
	for _, tc := range testCases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			err := error(&NativeError{Kind: tc.kind, Function: "ob_test", Message: "m"})
			assert.ErrorIs(t, err, tc.want)
			for _, other := range all {
				if other != tc.want {
					assert.NotErrorIs(t, err, other)
				}
			}
		})
	}
}

func TestNativeErrorMessage(t *testing.T) {
	err := &NativeError{Kind: native.ExceptionIO, Function: "ob_create_playback", Args: "path=x.bag", Message: "no such file"}
	assert.Contains(t, err.Error(), "ob_create_playback(path=x.bag)")
	assert.Contains(t, err.Error(), "no such file")

	err.Args = ""
	assert.Contains(t, err.Error(), "ob_create_playback: no such file")
}

func TestTranslatorFreesNativeError(t *testing.T) {
	env := newTestEnv(t, nil)
	env.sdk.FailNext("ob_create_context", native.ExceptionIO, "usb stack unavailable")

	ctx, err := env.lib.NewContext()
	require.Error(t, err)
	assert.Nil(t, ctx, "no wrapper on failure")
	assert.ErrorIs(t, err, ErrIO)

	var ne *NativeError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "ob_create_context", ne.Function)
	assert.Equal(t, "usb stack unavailable", ne.Message)
	assert.Equal(t, native.ExceptionIO, ne.Kind)

	assert.Equal(t, float64(1), counterValue(t, env.lib, "obsdk_native_errors_total", map[string]string{"function": "ob_create_context"}))
	env.assertNoLeaks(t)
}

func TestFailedDerivationLeavesParentUsable(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	defer dev.Close()

	env.sdk.FailNext("ob_device_get_sensor_list", native.ExceptionMemory, "oom")
	list, err := dev.SensorList()
	assert.ErrorIs(t, err, ErrMemory)
	assert.Nil(t, list)

	list, err = dev.SensorList()
	require.NoError(t, err)
	n, err := list.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, list.Close())
	require.NoError(t, dev.Close())
	env.assertNoLeaks(t)
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "handle_released", categoryLabel(ErrHandleReleased))
	assert.Equal(t, "closed", categoryLabel(ErrClosed))
	assert.Equal(t, "payload_size", categoryLabel(ErrPayloadSize))
	assert.Equal(t, "binding", categoryLabel(errors.New("other")))
	assert.Equal(t, native.ExceptionIO.String(), categoryLabel(&NativeError{Kind: native.ExceptionIO}))
}
