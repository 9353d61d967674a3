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
)

func TestContextWithConfig(t *testing.T) {
	env := newTestEnv(t, fakesdk.DefaultScenario())

	_, err := env.lib.NewContextWithConfig(filepath.Join(t.TempDir(), "missing.xml"))
	assert.ErrorIs(t, err, ErrIO)

	path := filepath.Join(t.TempDir(), "OrbbecSDKConfig.xml")
	require.NoError(t, os.WriteFile(path, []byte("<config/>"), 0o600))
	ctx, err := env.lib.NewContextWithConfig(path)
	require.NoError(t, err)
	list, err := ctx.QueryDeviceList()
	require.NoError(t, err)
	n, err := list.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, list.Close())
	require.NoError(t, ctx.Close())
	env.assertNoLeaks(t)
}

func TestNetDevice(t *testing.T) {
	d := fakesdk.DefaultDevice("Orbbec Femto Mega", "FM0000000003")
	d.Address = "192.168.1.10"
	d.Port = 8090
	env := newTestEnv(t, &fakesdk.Scenario{Devices: []fakesdk.DeviceSpec{d}})

	ctx, err := env.lib.NewContext()
	require.NoError(t, err)
	defer ctx.Close()

	_, err = ctx.CreateNetDevice("", 8090)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ctx.CreateNetDevice("10.0.0.1", 8090)
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	dev, err := ctx.CreateNetDevice("192.168.1.10", 8090)
	require.NoError(t, err)
	assert.Equal(t, "FM0000000003", mustSerial(t, dev))
	require.NoError(t, dev.Close())
}

func TestDeviceMaintenance(t *testing.T) {
	env := newTestEnv(t, fakesdk.DefaultScenario())
	ctx, err := env.lib.NewContext()
	require.NoError(t, err)
	defer ctx.Close()

	var (
		mu     sync.Mutex
		events []string
	)
	require.NoError(t, ctx.SetDeviceChangedCallback(func(removed, added *DeviceList) {
		defer removed.Close()
		defer added.Close()
		r, _ := removed.Count()
		a, _ := added.Count()
		mu.Lock()
		defer mu.Unlock()
		if r > 0 {
			events = append(events, "removed")
		}
		if a > 0 {
			events = append(events, "added")
		}
	}))

	dev := env.openDevice(t)
	require.NoError(t, dev.TimestampReset())
	require.NoError(t, dev.EnableHeartbeat(true))
	require.NoError(t, dev.EnableHeartbeat(false))
	require.NoError(t, dev.Reboot())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"removed", "added"}, events)
	mu.Unlock()

	require.NoError(t, dev.Close())
	require.NoError(t, ctx.Close())
	env.assertNoLeaks(t)
}

func TestSwitchProfile(t *testing.T) {
	env := newTestEnv(t, fakesdk.DefaultScenario())
	dev := env.openDevice(t)
	defer dev.Close()
	sensor, err := dev.Sensor(SensorDepth)
	require.NoError(t, err)
	defer sensor.Close()
	profiles, err := sensor.StreamProfileList()
	require.NoError(t, err)
	defer profiles.Close()
	vga, err := profiles.VideoProfile(640, 480, FormatY16, 30)
	require.NoError(t, err)
	defer vga.Close()
	qvga, err := profiles.VideoProfile(320, 240, FormatY16, 30)
	require.NoError(t, err)
	defer qvga.Close()

	assert.ErrorIs(t, sensor.SwitchProfile(qvga), ErrInvalidArgument, "not streaming yet")
	assert.ErrorIs(t, sensor.SwitchProfile(nil), ErrInvalidArgument)

	require.NoError(t, sensor.Start(vga, func(f *Frame) { f.Close() }))
	require.NoError(t, sensor.SwitchProfile(qvga))
	require.NoError(t, sensor.Stop())
}

func mustSerial(t *testing.T, dev *Device) string {
	t.Helper()
	info, err := dev.Info()
	require.NoError(t, err)
	defer info.Close()
	serial, err := info.SerialNumber()
	require.NoError(t, err)
	return serial
}
