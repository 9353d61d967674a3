package obsdk

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbbec/obsdk-go/internal/fakesdk"
	"github.com/orbbec/obsdk-go/internal/native"
)

func TestEmptyDeviceList(t *testing.T) {
	env := newTestEnv(t, fakesdk.EmptyScenario())
	ctx, err := env.lib.NewContext()
	require.NoError(t, err)
	list, err := ctx.QueryDeviceList()
	require.NoError(t, err)

	n, err := list.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
	entries, err := list.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = list.Device(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, list.Close())
	require.NoError(t, list.Close())
	require.NoError(t, ctx.Close())

	_, err = env.lib.NewPipeline()
	assert.ErrorIs(t, err, ErrDeviceNotFound)
	env.assertNoLeaks(t)
}

func TestNilDeviceListIsEmpty(t *testing.T) {
	var list *DeviceList
	n, err := list.Count()
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, list.Close())
}

func TestDeviceListEntries(t *testing.T) {
	sc := fakesdk.DefaultScenario()
	sc.Devices = append(sc.Devices, fakesdk.DefaultDevice("Orbbec Femto Bolt", "FB0000000002"))
	env := newTestEnv(t, sc)

	ctx, err := env.lib.NewContext()
	require.NoError(t, err)
	defer ctx.Close()
	list, err := ctx.QueryDeviceList()
	require.NoError(t, err)
	defer list.Close()

	entries, err := list.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Orbbec Gemini 335", entries[0].Name)
	assert.Equal(t, defaultSerial, entries[0].SerialNumber)
	assert.Equal(t, int32(0x2bc5), entries[0].VID)
	assert.Equal(t, 1, entries[1].Index)
	assert.NotEqual(t, entries[0].UID, entries[1].UID)

	dev, err := list.DeviceBySerialNumber("FB0000000002")
	require.NoError(t, err)
	info, err := dev.Info()
	require.NoError(t, err)
	name, err := info.Name()
	require.NoError(t, err)
	assert.Equal(t, "Orbbec Femto Bolt", name)
	require.NoError(t, info.Close())
	require.NoError(t, dev.Close())

	_, err = list.DeviceBySerialNumber("missing")
	assert.Error(t, err)
}

func TestDeviceInfoSnapshot(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	info, err := dev.Info()
	require.NoError(t, err)

	snap, err := info.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Orbbec Gemini 335", snap.Name)
	assert.Equal(t, defaultSerial, snap.SerialNumber)
	assert.Equal(t, "USB3.2", snap.ConnectionType)
	assert.Equal(t, int32(0x0800), snap.PID)
	assert.NotEmpty(t, snap.UID)
	assert.NotEmpty(t, snap.FirmwareVersion)

	require.NoError(t, info.Close())
	require.NoError(t, dev.Close())
	env.assertNoLeaks(t)
}

func TestUnsupportedPropertyKeepsDeviceUsable(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	defer dev.Close()

	_, err := dev.IntProperty(PropertyID(4242))
	assert.ErrorIs(t, err, ErrUnsupported)
	ok, err := dev.IsPropertySupported(PropertyID(4242), PermissionRead)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := dev.IntProperty(PropColorExposureInt)
	require.NoError(t, err)
	assert.Equal(t, int32(156), v)
	assert.True(t, dev.Handle().IsValid())
	assert.Zero(t, env.sdk.LiveErrors())
}

func TestScalarProperties(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	defer dev.Close()

	require.NoError(t, dev.SetIntProperty(PropColorGainInt, 64))
	gain, err := dev.IntProperty(PropColorGainInt)
	require.NoError(t, err)
	assert.Equal(t, int32(64), gain)

	r, err := dev.IntPropertyRange(PropColorGainInt)
	require.NoError(t, err)
	assert.Equal(t, int32(0), r.Min)
	assert.Equal(t, int32(128), r.Max)
	assert.Equal(t, int32(64), r.Cur)

	assert.ErrorIs(t, dev.SetIntProperty(PropColorGainInt, 500), ErrInvalidArgument)
	assert.ErrorIs(t, dev.SetIntProperty(PropDepthPrecisionInt, 2), ErrPermissionDenied)

	require.NoError(t, dev.SetFloatProperty(PropIRGainFloat, 2.5))
	irGain, err := dev.FloatProperty(PropIRGainFloat)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, irGain, 1e-6)

	require.NoError(t, dev.SetBoolProperty(PropLaserBool, false))
	laser, err := dev.BoolProperty(PropLaserBool)
	require.NoError(t, err)
	assert.False(t, laser)

	items, err := dev.SupportedProperties()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(items), 10)
	var names []string
	for _, it := range items {
		names = append(names, it.Name)
	}
	assert.Contains(t, names, "OB_PROP_LASER_BOOL")
}

func TestStructuredRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	defer dev.Close()

	cfg, err := dev.MultiDeviceSyncConfig()
	require.NoError(t, err)
	assert.Equal(t, SyncFreeRun, cfg.Mode)

	want := MultiDeviceSyncConfig{
		Mode:                 SyncSecondary,
		DepthDelayUs:         100,
		ColorDelayUs:         -20,
		Trigger2ImageDelayUs: 5,
		TriggerOutEnable:     true,
		TriggerOutDelayUs:    7,
		FramesPerTrigger:     2,
	}
	require.NoError(t, dev.SetMultiDeviceSyncConfig(want))
	got, err := dev.MultiDeviceSyncConfig()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	ts := TimestampResetConfig{Enable: true, DelayUs: 300, SignalOutputEnable: true}
	require.NoError(t, dev.SetTimestampResetConfig(ts))
	gotTS, err := dev.TimestampResetConfig()
	require.NoError(t, err)
	assert.Equal(t, ts, gotTS)

	temp, err := dev.Temperature()
	require.NoError(t, err)
	assert.InDelta(t, 45.5, temp.CPU, 1e-6)
	assert.InDelta(t, 44, temp.ChipBot, 1e-6)

	base, err := dev.BaselineCalibration()
	require.NoError(t, err)
	assert.Equal(t, BaselineCalibration{Baseline: 50, ZPD: 25}, base)

	err = SetStructured(dev, BaselineCalibrationCodec, base)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestStructuredPayloadSizeMismatch(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	defer dev.Close()

	require.NoError(t, env.sdk.SetStructuredPayload(defaultSerial, native.StructDeviceTemperature, make([]byte, 40)))
	_, err := dev.Temperature()
	assert.ErrorIs(t, err, ErrPayloadSize)

	bad := Codec[int]{
		ID:     native.StructTimestampReset,
		Size:   TimestampResetConfigSize,
		Encode: func(int) []byte { return []byte{1, 2, 3} },
	}
	assert.ErrorIs(t, SetStructured(dev, bad, 1), ErrPayloadSize)
	assert.Zero(t, env.sdk.Calls("ob_device_set_structured_data"), "short payloads never reach the device")

	_, err = dev.BaselineCalibration()
	assert.NoError(t, err, "device still usable")
}

func TestPresets(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	defer dev.Close()

	cur, err := dev.CurrentPresetName()
	require.NoError(t, err)
	assert.Equal(t, "Default", cur)

	require.NoError(t, dev.LoadPreset("High Accuracy"))
	assert.ErrorIs(t, dev.LoadPreset("Nonexistent"), ErrInvalidArgument)
	assert.ErrorIs(t, dev.LoadPresetFromJSONData("Custom", []byte("{")), ErrInvalidArgument)
	require.NoError(t, dev.LoadPresetFromJSONData("Custom", []byte(`{"laser": 1}`)))

	list, err := dev.PresetList()
	require.NoError(t, err)
	defer list.Close()
	names, err := list.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"Default", "High Accuracy", "High Density", "Hand", "Custom"}, names)
	has, err := list.Has("Custom")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestDeviceStateCallback(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)

	type event struct {
		state DeviceState
		msg   string
	}
	events := make(chan event, 2)
	require.NoError(t, dev.SetStateChangedCallback(func(s DeviceState, msg string) {
		events <- event{s, msg}
	}))
	require.NoError(t, env.sdk.SetDeviceState(defaultSerial, 4, "over temperature"))
	assert.Equal(t, event{4, "over temperature"}, <-events)

	s, err := dev.State()
	require.NoError(t, err)
	assert.Equal(t, DeviceState(4), s)

	require.NoError(t, dev.Close())
	require.NoError(t, env.sdk.SetDeviceState(defaultSerial, 0, "ok"))
	assert.Empty(t, events)
	env.assertNoLeaks(t)
}

func TestUpgradeProgress(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	defer dev.Close()

	var (
		mu      sync.Mutex
		percent []uint8
		final   UpgradeState
	)
	cb := func(st UpgradeState, _ string, p uint8) {
		mu.Lock()
		defer mu.Unlock()
		percent = append(percent, p)
		final = st
	}

	image := filepath.Join(t.TempDir(), "fw.bin")
	require.NoError(t, os.WriteFile(image, []byte("firmware"), 0o600))
	require.NoError(t, dev.Upgrade(image, false, cb))
	mu.Lock()
	assert.Equal(t, []uint8{0, 30, 60, 90, 100}, percent)
	assert.Equal(t, native.UpgradeDone, final)
	percent = nil
	mu.Unlock()

	require.NoError(t, dev.UpgradeFromData([]byte("firmware"), true, cb))
	env.sdk.Drain()
	mu.Lock()
	assert.Len(t, percent, 5)
	mu.Unlock()

	assert.ErrorIs(t, dev.Upgrade(filepath.Join(t.TempDir(), "missing.bin"), false, cb), ErrIO)
	assert.ErrorIs(t, dev.UpgradeFromData(nil, false, cb), ErrInvalidArgument)
}

func TestSetRawData(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	defer dev.Close()

	var states []DataTranState
	payload := []byte(`{"calib": true}`)
	require.NoError(t, dev.SetRawData(RawCameraCalibJSON, payload, false, func(s DataTranState, _ uint8) {
		states = append(states, s)
	}))
	assert.Equal(t, native.DataTranDone, states[len(states)-1])
	assert.Equal(t, payload, env.sdk.RawData(defaultSerial, RawCameraCalibJSON))
}

func TestHotPlugDisconnect(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, err := env.lib.NewContext()
	require.NoError(t, err)

	added := make(chan string, 1)
	require.NoError(t, ctx.SetDeviceChangedCallback(func(r, a *DeviceList) {
		defer r.Close()
		defer a.Close()
		if a == nil {
			return
		}
		serial, err := a.SerialNumber(0)
		assert.NoError(t, err)
		added <- serial
	}))

	dev := env.openDevice(t)
	require.NoError(t, env.sdk.Detach(defaultSerial))
	_, err = dev.State()
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	require.NoError(t, env.sdk.Attach(fakesdk.DefaultDevice("Orbbec Gemini 335", defaultSerial)))
	select {
	case serial := <-added:
		assert.Equal(t, defaultSerial, serial)
	case <-time.After(time.Second):
		t.Fatal("no device-added event")
	}
	_, err = dev.State()
	assert.NoError(t, err, "handle works again after reconnect")

	require.NoError(t, dev.Close())
	require.NoError(t, ctx.Close())
	env.assertNoLeaks(t)
}

func TestMultiDeviceSync(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, err := env.lib.NewContext()
	require.NoError(t, err)
	defer ctx.Close()

	require.NoError(t, ctx.EnableMultiDeviceSync(time.Minute))
	assert.Equal(t, time.Minute, env.sdk.SyncPeriod())
	assert.ErrorIs(t, ctx.EnableMultiDeviceSync(-time.Second), ErrInvalidArgument)
}
