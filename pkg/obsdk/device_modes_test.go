package obsdk

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbbec/obsdk-go/internal/fakesdk"
)

func TestDepthWorkModes(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)

	cur, err := dev.CurrentDepthWorkMode()
	require.NoError(t, err)
	assert.Equal(t, "Default", cur.Name)
	assert.NotZero(t, cur.Checksum)

	list, err := dev.DepthWorkModeList()
	require.NoError(t, err)
	modes, err := list.Modes()
	require.NoError(t, err)
	require.Len(t, modes, 4)
	assert.Equal(t, cur, modes[0])

	require.NoError(t, dev.SwitchDepthWorkMode(modes[2]))
	name, err := dev.CurrentDepthWorkModeName()
	require.NoError(t, err)
	assert.Equal(t, "Unbinned Dense Default", name)

	require.NoError(t, dev.SwitchDepthWorkModeByName("Obstacle Avoidance"))
	name, err = dev.CurrentDepthWorkModeName()
	require.NoError(t, err)
	assert.Equal(t, "Obstacle Avoidance", name)

	assert.ErrorIs(t, dev.SwitchDepthWorkModeByName(""), ErrInvalidArgument)
	assert.ErrorIs(t, dev.SwitchDepthWorkModeByName("Long Range"), ErrInvalidArgument)
	assert.ErrorIs(t, dev.SwitchDepthWorkMode(DepthWorkMode{Name: "Default"}), ErrInvalidArgument, "matched by checksum")

	require.NoError(t, list.Close())
	_, err = list.Mode(0)
	assert.ErrorIs(t, err, ErrHandleReleased)
	require.NoError(t, dev.Close())
	env.assertNoLeaks(t)
}

func TestCalibrationCameraParamList(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)

	params, err := dev.CalibrationCameraParamList()
	require.NoError(t, err)
	n, err := params.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one entry per depth resolution")

	qvga, err := params.ForDepthResolution(320, 240)
	require.NoError(t, err)
	assert.InDelta(t, 288, qvga.DepthIntrinsic.Fx, 1e-6)
	assert.Equal(t, int16(640), qvga.RGBIntrinsic.Width)
	_, err = params.ForDepthResolution(1024, 1024)
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = params.Param(n)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, params.Close())
	require.NoError(t, dev.Close())
	env.assertNoLeaks(t)
}

func TestSoftwareTrigger(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	defer dev.Close()

	modes, err := dev.SupportedMultiDeviceSyncModes()
	require.NoError(t, err)
	assert.NotZero(t, modes&SyncSoftwareTriggering)
	assert.NotZero(t, modes&SyncHardwareTriggering)

	assert.ErrorIs(t, dev.TriggerCapture(), ErrInvalidArgument, "free run ignores software triggers")
	require.NoError(t, dev.SetMultiDeviceSyncConfig(MultiDeviceSyncConfig{Mode: SyncSoftwareTriggering, FramesPerTrigger: 1}))
	require.NoError(t, dev.TriggerCapture())
	require.NoError(t, dev.TriggerCapture())
	assert.Equal(t, 2, env.sdk.Triggers(defaultSerial))

	require.NoError(t, dev.TimerSyncWithHost())
	assert.Equal(t, 1, env.sdk.Calls("ob_device_timer_sync_with_host"))
}

func TestGlobalTimestamp(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	defer dev.Close()

	ok, err := dev.GlobalTimestampSupported()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, dev.EnableGlobalTimestamp(true))
	assert.True(t, env.sdk.GlobalTimestamp(defaultSerial))
	require.NoError(t, dev.EnableGlobalTimestamp(false))
	assert.False(t, env.sdk.GlobalTimestamp(defaultSerial))

	spec := fakesdk.DefaultDevice("Orbbec Astra 2", "AS0000000001")
	spec.GlobalTimestamp = false
	old := newTestEnv(t, &fakesdk.Scenario{Devices: []fakesdk.DeviceSpec{spec}})
	legacy := old.openDevice(t)
	defer legacy.Close()
	ok, err = legacy.GlobalTimestampSupported()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, legacy.EnableGlobalTimestamp(true), ErrUnsupported)
}

func TestExtensionInfo(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	defer dev.Close()

	ok, err := dev.ExtensionInfoExists("DepthEngine")
	require.NoError(t, err)
	assert.True(t, ok)
	v, err := dev.ExtensionInfo("DepthEngine")
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", v)

	ok, err = dev.ExtensionInfoExists("Missing")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = dev.ExtensionInfo("Missing")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPresetExportRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)

	require.NoError(t, dev.SetIntProperty(PropColorExposureInt, 500))
	data, err := dev.ExportSettingsAsPresetJSONData("Tuned")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Tuned", doc["preset"])

	require.NoError(t, dev.SetIntProperty(PropColorExposureInt, 20))
	require.NoError(t, dev.LoadPresetFromJSONData("Tuned", data))
	exposure, err := dev.IntProperty(PropColorExposureInt)
	require.NoError(t, err)
	assert.Equal(t, int32(500), exposure)
	name, err := dev.CurrentPresetName()
	require.NoError(t, err)
	assert.Equal(t, "Tuned", name)

	path := filepath.Join(t.TempDir(), "Lab.json")
	require.NoError(t, dev.ExportSettingsAsPresetJSONFile(path))
	_, err = os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, dev.LoadPresetFromJSONFile(path))
	name, err = dev.CurrentPresetName()
	require.NoError(t, err)
	assert.Equal(t, "Lab", name)

	assert.ErrorIs(t, dev.LoadPresetFromJSONFile(filepath.Join(t.TempDir(), "missing.json")), ErrIO)
	assert.ErrorIs(t, dev.LoadPresetFromJSONFile(""), ErrInvalidArgument)
	assert.ErrorIs(t, dev.ExportSettingsAsPresetJSONFile(""), ErrInvalidArgument)

	require.NoError(t, dev.Close())
	env.assertNoLeaks(t)
}
