package obsdk

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbbec/obsdk-go/internal/fakesdk"
	"github.com/orbbec/obsdk-go/internal/native"
	"github.com/orbbec/obsdk-go/pkg/obsdk/metrics"
)

func TestRegistryTokensAreNotReused(t *testing.T) {
	r := newRegistry()
	a := r.put("a")
	r.del(a)
	b := r.put("b")
	assert.NotEqual(t, a, b)
	_, ok := r.get(a)
	assert.False(t, ok)
	v, ok := r.get(b)
	require.True(t, ok)
	assert.Equal(t, "b", v)
	assert.Equal(t, 1, r.len())
}

func TestSlotSwapRegistersOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	b := newBridge[func(int)](env.lib, "test")

	var registrations int
	register := func(native.Token) error { registrations++; return nil }

	var got []string
	require.NoError(t, b.set(func(int) { got = append(got, "first") }, true, register))
	require.NoError(t, b.set(func(int) { got = append(got, "second") }, true, register))
	assert.Equal(t, 1, registrations)

	dispatch(env.lib, "test", b.token, func(fn func(int)) { fn(1) }, noDiscard)
	assert.Equal(t, []string{"second"}, got)

	var unregistered bool
	require.NoError(t, b.shutdown(func(native.Token) error { unregistered = true; return nil }))
	assert.True(t, unregistered)
	assert.ErrorIs(t, b.set(func(int) {}, true, register), ErrClosed)
	assert.Zero(t, env.lib.reg.len())
}

func TestTokensAreDisjointAcrossLibraries(t *testing.T) {
	envA := newTestEnv(t, nil)
	envB := newTestEnv(t, nil)

	ctxA, err := envA.lib.NewContext()
	require.NoError(t, err)
	ctxB, err := envB.lib.NewContext()
	require.NoError(t, err)
	assert.NotEqual(t, ctxA.changed.token, ctxB.changed.token)

	seen := make(map[native.Token]string)
	for i := range 16 {
		for name, lib := range map[string]*Library{"a": envA.lib, "b": envB.lib} {
			b := newBridge[func(int)](lib, "test")
			owner, dup := seen[b.token]
			assert.False(t, dup, "token %d handed to library %s and %s (round %d)", b.token, owner, name, i)
			seen[b.token] = name
			require.NoError(t, b.shutdown(nil))
		}
	}

	require.NoError(t, ctxA.Close())
	require.NoError(t, ctxB.Close())
	envA.assertNoLeaks(t)
	envB.assertNoLeaks(t)
}

func TestFailedRegistrationKeepsConcurrentCallback(t *testing.T) {
	env := newTestEnv(t, nil)
	b := newBridge[func(int)](env.lib, "test")

	entered := make(chan struct{})
	release := make(chan struct{})
	failing := func(native.Token) error {
		close(entered)
		<-release
		return errors.New("sdk refused")
	}
	var registrations atomic.Int32
	succeeding := func(native.Token) error {
		registrations.Add(1)
		return nil
	}

	var got atomic.Value
	firstErr := make(chan error, 1)
	go func() {
		firstErr <- b.set(func(int) { got.Store("first") }, true, failing)
	}()
	<-entered

	secondErr := make(chan error, 1)
	go func() {
		secondErr <- b.set(func(int) { got.Store("second") }, true, succeeding)
	}()
	select {
	case <-secondErr:
		t.Fatal("set returned while another registration was still in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	assert.Error(t, <-firstErr)
	require.NoError(t, <-secondErr)
	assert.Equal(t, int32(1), registrations.Load(), "second caller registers after the failure")

	dispatch(env.lib, "test", b.token, func(fn func(int)) { fn(1) }, noDiscard)
	assert.Equal(t, "second", got.Load())

	var unregistered bool
	require.NoError(t, b.shutdown(func(native.Token) error { unregistered = true; return nil }))
	assert.True(t, unregistered)
}

func TestCloseReleasesCallbackTokens(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	sensor, err := dev.Sensor(SensorDepth)
	require.NoError(t, err)
	profiles, err := sensor.StreamProfileList()
	require.NoError(t, err)
	profile, err := profiles.DefaultProfile()
	require.NoError(t, err)

	require.NoError(t, sensor.Start(profile, func(f *Frame) { f.Close() }))
	assert.Equal(t, 1, env.sdk.LiveTokens())
	require.NoError(t, sensor.Stop())
	require.NoError(t, sensor.Close())
	assert.Zero(t, env.sdk.LiveTokens(), "sensor token released")

	pl, err := env.lib.NewPipelineWithDevice(dev)
	require.NoError(t, err)
	require.NoError(t, pl.StartWithCallback(nil, func(fs *Frameset) { fs.Close() }))
	assert.Equal(t, 1, env.sdk.LiveTokens())
	require.NoError(t, pl.Close())
	assert.Zero(t, env.sdk.LiveTokens(), "pipeline token released")

	require.NoError(t, profile.Close())
	require.NoError(t, profiles.Close())
	require.NoError(t, dev.Close())
	env.assertNoLeaks(t)
}

func TestDeviceChangedCallbackSwap(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, err := env.lib.NewContext()
	require.NoError(t, err)

	first := make(chan struct{}, 1)
	second := make(chan int, 1)
	require.NoError(t, ctx.SetDeviceChangedCallback(func(removed, added *DeviceList) {
		removed.Close()
		added.Close()
		first <- struct{}{}
	}))
	require.NoError(t, ctx.SetDeviceChangedCallback(func(removed, added *DeviceList) {
		defer removed.Close()
		defer added.Close()
		n, err := removed.Count()
		assert.NoError(t, err)
		assert.Nil(t, added)
		second <- n
	}))
	assert.Equal(t, 1, env.sdk.Calls("ob_set_device_changed_callback"))

	require.NoError(t, env.sdk.Detach(defaultSerial))
	assert.Equal(t, 1, <-second)
	assert.Empty(t, first)

	require.NoError(t, ctx.Close())
	assert.Equal(t, 2, env.sdk.Calls("ob_set_device_changed_callback"), "close unregisters")
	env.assertNoLeaks(t)
}

func TestNilCallbackDiscardsLists(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, err := env.lib.NewContext()
	require.NoError(t, err)
	require.NoError(t, ctx.SetDeviceChangedCallback(nil))

	require.NoError(t, env.sdk.Detach(defaultSerial))
	require.NoError(t, env.sdk.Attach(fakesdk.DefaultDevice("Orbbec Gemini 335", defaultSerial)))

	assert.Zero(t, env.sdk.LiveByKind()[fakesdk.KindDeviceList], "discarded lists are released")
	assert.Equal(t, float64(2), counterValue(t, env.lib, "obsdk_callbacks_discarded_total",
		map[string]string{"callback": "device_changed", "reason": metrics.DiscardNoListener}))
	require.NoError(t, ctx.Close())
	env.assertNoLeaks(t)
}

func TestUnknownTokenReleasesFrame(t *testing.T) {
	env := newTestEnv(t, nil)
	pl, err := env.lib.NewPipeline()
	require.NoError(t, err)
	defer pl.Close()
	require.NoError(t, pl.Start())

	fs, err := pl.WaitForFrameset(t.Context(), time.Second)
	require.NoError(t, err)
	ptr, err := fs.Handle().Ptr()
	require.NoError(t, err)
	raw := env.sdk.FramesetGetFrame(ptr, FrameDepth, nil)
	require.NotZero(t, raw)
	require.NoError(t, fs.Close())
	require.NoError(t, pl.Stop())
	require.Equal(t, 1, env.sdk.LiveByKind()[fakesdk.KindFrame])

	env.lib.onFrame(raw, native.Token(1<<40))
	assert.Zero(t, env.sdk.LiveByKind()[fakesdk.KindFrame])
	assert.Equal(t, float64(1), counterValue(t, env.lib, "obsdk_callbacks_discarded_total",
		map[string]string{"callback": "frame", "reason": metrics.DiscardUnknownToken}))

	require.NoError(t, pl.Close())
	env.assertNoLeaks(t)
}

func TestCallbackPanicBecomesFault(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, err := env.lib.NewContext()
	require.NoError(t, err)
	defer ctx.Close()

	require.NoError(t, ctx.SetDeviceChangedCallback(func(removed, added *DeviceList) {
		removed.Close()
		added.Close()
		panic("listener bug")
	}))
	require.NoError(t, env.sdk.Detach(defaultSerial))

	faults := env.Faults()
	require.Len(t, faults, 1)
	assert.Equal(t, "callback", faults[0].Op)
	assert.Equal(t, "device_changed", faults[0].Kind)
	assert.Contains(t, faults[0].Error(), "listener bug")

	require.NoError(t, ctx.Close())
	env.assertNoLeaks(t)
}

func TestNoCallbackAfterClose(t *testing.T) {
	env := newTestEnv(t, nil, fakesdk.WithFrameInterval(time.Millisecond))
	dev := env.openDevice(t)
	sensor, err := dev.Sensor(SensorDepth)
	require.NoError(t, err)
	profiles, err := sensor.StreamProfileList()
	require.NoError(t, err)
	profile, err := profiles.DefaultProfile()
	require.NoError(t, err)

	var (
		closed    atomic.Bool
		late      atomic.Int32
		delivered atomic.Int32
	)
	require.NoError(t, sensor.Start(profile, func(f *Frame) {
		defer f.Close()
		if closed.Load() {
			late.Add(1)
		}
		delivered.Add(1)
	}))
	require.Eventually(t, func() bool { return delivered.Load() >= 5 }, time.Second, time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, sensor.Close())
		closed.Store(true)
	}()
	wg.Wait()
	time.Sleep(10 * time.Millisecond)

	assert.Zero(t, late.Load(), "callback ran after Close returned")
	assert.ErrorIs(t, sensor.Start(profile, func(*Frame) {}), ErrClosed)

	require.NoError(t, profile.Close())
	require.NoError(t, profiles.Close())
	require.NoError(t, dev.Close())
	env.assertNoLeaks(t)
}
