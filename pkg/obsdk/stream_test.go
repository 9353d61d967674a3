package obsdk

import (
	"context"
	"path/filepath"
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

func TestSensorListTypes(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	list, err := dev.SensorList()
	require.NoError(t, err)

	types, err := list.Types()
	require.NoError(t, err)
	assert.Equal(t, []SensorType{SensorDepth, SensorColor, SensorIR, SensorAccel, SensorGyro}, types)

	sensor, err := list.SensorByType(SensorColor)
	require.NoError(t, err)
	got, err := sensor.Type()
	require.NoError(t, err)
	assert.Equal(t, SensorColor, got)

	require.NoError(t, list.Close())
	require.NoError(t, sensor.Close())
	require.NoError(t, dev.Close())
	env.assertNoLeaks(t)
}

func TestStreamProfileLookup(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	defer dev.Close()
	sensor, err := dev.Sensor(SensorDepth)
	require.NoError(t, err)
	defer sensor.Close()
	profiles, err := sensor.StreamProfileList()
	require.NoError(t, err)

	n, err := profiles.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sp, err := profiles.VideoProfile(320, 240, FormatY16, 30)
	require.NoError(t, err)
	mode, err := sp.VideoMode()
	require.NoError(t, err)
	assert.Equal(t, 320, mode.Width)
	assert.Equal(t, 240, mode.Height)
	assert.Equal(t, FormatY16, mode.Format)
	assert.Equal(t, 30, mode.FPS)

	_, err = profiles.VideoProfile(1920, 1080, FormatAny, 0)
	assert.Error(t, err)

	require.NoError(t, profiles.Close())
	w, err := sp.Width()
	require.NoError(t, err, "a profile keeps its list alive")
	assert.Equal(t, 320, w)
	require.NoError(t, sp.Close())
	require.NoError(t, sensor.Close())
	require.NoError(t, dev.Close())
	env.assertNoLeaks(t)
}

func TestSensorStreamCloseMidStream(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	sensor, err := dev.Sensor(SensorDepth)
	require.NoError(t, err)
	profiles, err := sensor.StreamProfileList()
	require.NoError(t, err)
	profile, err := profiles.DefaultProfile()
	require.NoError(t, err)

	var (
		frames atomic.Int32
		width  atomic.Int32
	)
	require.NoError(t, sensor.Start(profile, func(f *Frame) {
		defer f.Close()
		w, err := f.Width()
		if err == nil {
			width.Store(int32(w))
		}
		frames.Add(1)
	}))
	assert.ErrorIs(t, sensor.Start(profile, func(*Frame) {}), ErrInvalidArgument)
	require.Eventually(t, func() bool { return frames.Load() >= 3 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(640), width.Load())

	require.NoError(t, sensor.Close())
	require.NoError(t, profile.Close())
	require.NoError(t, profiles.Close())
	require.NoError(t, dev.Close())
	env.assertNoLeaks(t)
}

func TestSensorNilCallbackDropsFrames(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	sensor, err := dev.Sensor(SensorIR)
	require.NoError(t, err)
	profiles, err := sensor.StreamProfileList()
	require.NoError(t, err)
	profile, err := profiles.DefaultProfile()
	require.NoError(t, err)

	require.NoError(t, sensor.Start(profile, nil))
	require.Eventually(t, func() bool {
		return counterValue(t, env.lib, "obsdk_callbacks_discarded_total",
			map[string]string{"callback": "frame", "reason": metrics.DiscardNoListener}) >= 2
	}, time.Second, time.Millisecond)
	require.NoError(t, sensor.Stop())
	assert.Zero(t, env.sdk.LiveByKind()[fakesdk.KindFrame], "dropped frames are released")

	require.NoError(t, sensor.Close())
	require.NoError(t, profile.Close())
	require.NoError(t, profiles.Close())
	require.NoError(t, dev.Close())
	env.assertNoLeaks(t)
}

func TestPipelineWaitForFrameset(t *testing.T) {
	env := newTestEnv(t, nil)
	pl, err := env.lib.NewPipeline()
	require.NoError(t, err)
	require.NoError(t, pl.Start())
	assert.ErrorIs(t, pl.Start(), ErrInvalidArgument)

	fs, err := pl.WaitForFrameset(t.Context(), time.Second)
	require.NoError(t, err)
	n, err := fs.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	depth, err := fs.DepthFrame()
	require.NoError(t, err)
	require.NotNil(t, depth)
	w, err := depth.Width()
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	size, err := depth.DataSize()
	require.NoError(t, err)
	assert.Equal(t, 640*480*2, size)

	gyro, err := fs.GyroFrame()
	require.NoError(t, err)
	assert.Nil(t, gyro, "absent member")

	require.NoError(t, fs.Close())
	data, err := depth.Data()
	require.NoError(t, err, "member frame outlives its frameset")
	assert.Len(t, data, size)
	require.NoError(t, depth.Close())

	require.NoError(t, pl.Close())
	env.assertNoLeaks(t)
}

func TestPipelineWaitTimeout(t *testing.T) {
	env := newTestEnv(t, nil, fakesdk.WithFrameInterval(time.Hour))
	pl, err := env.lib.NewPipeline()
	require.NoError(t, err)
	defer pl.Close()
	require.NoError(t, pl.Start())

	start := time.Now()
	_, err = pl.WaitForFrameset(t.Context(), 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = pl.WaitForFrameset(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipelineStartWithConfig(t *testing.T) {
	env := newTestEnv(t, nil)
	pl, err := env.lib.NewPipeline()
	require.NoError(t, err)
	profiles, err := pl.StreamProfileList(SensorDepth)
	require.NoError(t, err)
	sp, err := profiles.VideoProfile(320, 240, FormatY16, 30)
	require.NoError(t, err)

	cfg, err := env.lib.NewStreamConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.EnableStream(sp))
	require.NoError(t, cfg.SetAlignMode(AlignDisable))
	require.NoError(t, pl.StartWithConfig(cfg))

	fs, err := pl.WaitForFrameset(t.Context(), time.Second)
	require.NoError(t, err)
	n, err := fs.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	depth, err := fs.DepthFrame()
	require.NoError(t, err)
	w, err := depth.Width()
	require.NoError(t, err)
	assert.Equal(t, 320, w)

	require.NoError(t, depth.Close())
	require.NoError(t, fs.Close())
	require.NoError(t, pl.Stop())
	require.NoError(t, cfg.Close())
	require.NoError(t, sp.Close())
	require.NoError(t, profiles.Close())
	require.NoError(t, pl.Close())
	env.assertNoLeaks(t)
}

func TestPipelineStartWithCallback(t *testing.T) {
	env := newTestEnv(t, nil)
	pl, err := env.lib.NewPipeline()
	require.NoError(t, err)

	var got atomic.Int32
	require.NoError(t, pl.StartWithCallback(nil, func(fs *Frameset) {
		defer fs.Close()
		if n, err := fs.Count(); err == nil && n == 2 {
			got.Add(1)
		}
	}))
	require.Eventually(t, func() bool { return got.Load() >= 3 }, time.Second, time.Millisecond)

	require.NoError(t, pl.Close())
	n := got.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, n, got.Load(), "no delivery after Close")
	env.assertNoLeaks(t)
}

func TestPipelineWithDevice(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	pl, err := env.lib.NewPipelineWithDevice(dev)
	require.NoError(t, err)
	require.NoError(t, dev.Close())

	got, err := pl.Device()
	require.NoError(t, err)
	info, err := got.Info()
	require.NoError(t, err)
	serial, err := info.SerialNumber()
	require.NoError(t, err)
	assert.Equal(t, defaultSerial, serial)

	require.NoError(t, pl.EnableFrameSync())
	require.NoError(t, pl.DisableFrameSync())

	require.NoError(t, info.Close())
	require.NoError(t, got.Close())
	require.NoError(t, pl.Close())
	env.assertNoLeaks(t)
}

func TestFrameRetainOutlivesClose(t *testing.T) {
	env := newTestEnv(t, nil)
	pl, err := env.lib.NewPipeline()
	require.NoError(t, err)
	require.NoError(t, pl.Start())
	fs, err := pl.WaitForFrameset(t.Context(), time.Second)
	require.NoError(t, err)
	color, err := fs.ColorFrame()
	require.NoError(t, err)
	require.NoError(t, fs.Close())
	require.NoError(t, pl.Close())

	kept, err := color.Retain()
	require.NoError(t, err)
	require.NoError(t, color.Close())
	_, err = color.Width()
	assert.ErrorIs(t, err, ErrHandleReleased)

	format, err := kept.Format()
	require.NoError(t, err)
	assert.Equal(t, FormatRGB, format)
	buf := make([]byte, 16)
	n, err := kept.CopyData(buf)
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	require.NoError(t, kept.Close())
	env.assertNoLeaks(t)
}

func TestDisconnectStopsStreams(t *testing.T) {
	env := newTestEnv(t, nil)
	pl, err := env.lib.NewPipeline()
	require.NoError(t, err)
	require.NoError(t, pl.Start())
	fs, err := pl.WaitForFrameset(t.Context(), time.Second)
	require.NoError(t, err)
	require.NoError(t, fs.Close())

	require.NoError(t, env.sdk.Detach(defaultSerial))
	_, err = pl.WaitForFrameset(t.Context(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
	require.NoError(t, pl.Close(), "a detached pipeline still closes cleanly")
	env.assertNoLeaks(t)
}

func TestRecommendedFilters(t *testing.T) {
	env := newTestEnv(t, nil)
	dev := env.openDevice(t)
	depth, err := dev.Sensor(SensorDepth)
	require.NoError(t, err)
	color, err := dev.Sensor(SensorColor)
	require.NoError(t, err)

	filters, err := depth.RecommendedFilters()
	require.NoError(t, err)
	var names []string
	for _, f := range filters {
		name, err := f.Name()
		require.NoError(t, err)
		names = append(names, name)
	}
	assert.Equal(t, []string{"DecimationFilter", "SpatialAdvancedFilter", "TemporalFilter", "HoleFillingFilter", "ThresholdFilter"}, names)

	none, err := color.RecommendedFilters()
	require.NoError(t, err)
	assert.Empty(t, none)

	for _, f := range filters {
		require.NoError(t, f.Close())
	}
	require.NoError(t, depth.Close())
	require.NoError(t, color.Close())
	require.NoError(t, dev.Close())
	env.assertNoLeaks(t)
}

func depthFrame(t *testing.T, env *testEnv) *Frame {
	t.Helper()
	pl, err := env.lib.NewPipeline()
	require.NoError(t, err)
	defer pl.Close()
	require.NoError(t, pl.Start())
	fs, err := pl.WaitForFrameset(t.Context(), time.Second)
	require.NoError(t, err)
	defer fs.Close()
	f, err := fs.DepthFrame()
	require.NoError(t, err)
	require.NotNil(t, f)
	return f
}

func TestFilterProcessDecimation(t *testing.T) {
	env := newTestEnv(t, nil)
	in := depthFrame(t, env)

	f, err := env.lib.NewFilter("DecimationFilter")
	require.NoError(t, err)
	schema, err := f.ConfigSchema()
	require.NoError(t, err)
	require.Len(t, schema, 1)
	assert.Equal(t, "decimate", schema[0].Name)

	out, err := f.Process(in)
	require.NoError(t, err)
	w, err := out.Width()
	require.NoError(t, err)
	assert.Equal(t, 320, w)
	require.NoError(t, out.Close())

	require.NoError(t, f.SetConfigValue("decimate", 4))
	v, err := f.ConfigValue("decimate")
	require.NoError(t, err)
	assert.InDelta(t, 4, v, 1e-9)
	assert.ErrorIs(t, f.SetConfigValue("decimate", 100), ErrInvalidArgument)

	out, err = f.Process(in)
	require.NoError(t, err)
	h, err := out.Height()
	require.NoError(t, err)
	assert.Equal(t, 120, h)
	require.NoError(t, out.Close())

	require.NoError(t, f.Enable(false))
	enabled, err := f.IsEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)
	out, err = f.Process(in)
	require.NoError(t, err)
	w, err = out.Width()
	require.NoError(t, err)
	assert.Equal(t, 640, w, "disabled filter passes frames through")
	require.NoError(t, out.Close())

	require.NoError(t, f.Reset())
	v, err = f.ConfigValue("decimate")
	require.NoError(t, err)
	assert.InDelta(t, 2, v, 1e-9)

	inW, err := in.Width()
	require.NoError(t, err)
	assert.Equal(t, 640, inW, "input untouched")

	_, err = env.lib.NewFilter("NoSuchFilter")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, in.Close())
	require.NoError(t, f.Close())
	env.assertNoLeaks(t)
}

func TestFilterPushMode(t *testing.T) {
	env := newTestEnv(t, nil)
	in := depthFrame(t, env)
	f, err := env.lib.NewFilter("DecimationFilter")
	require.NoError(t, err)

	out := make(chan int, 1)
	require.NoError(t, f.SetCallback(func(fr *Frame) {
		defer fr.Close()
		w, err := fr.Width()
		assert.NoError(t, err)
		out <- w
	}))
	require.NoError(t, f.PushFrame(in))
	assert.Equal(t, 320, <-out)

	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.PushFrame(in), ErrHandleReleased)
	require.NoError(t, in.Close())
	env.assertNoLeaks(t)
}

func TestRecordAndPlayback(t *testing.T) {
	env := newTestEnv(t, nil)
	path := filepath.Join(t.TempDir(), "capture.obfake")

	dev := env.openDevice(t)
	rec, err := env.lib.NewRecorderWithDevice(dev)
	require.NoError(t, err)
	require.NoError(t, rec.Start(path, false))
	assert.ErrorIs(t, rec.Start(path, false), ErrInvalidArgument)

	pl, err := env.lib.NewPipelineWithDevice(dev)
	require.NoError(t, err)
	require.NoError(t, pl.Start())
	recPtr, err := rec.h.Ptr()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return env.sdk.RecordedFrames(recPtr) >= 6 }, time.Second, time.Millisecond)
	require.NoError(t, pl.Close())
	require.NoError(t, rec.Stop())
	recorded := env.sdk.RecordedFrames(recPtr)
	require.NoError(t, rec.Close())
	require.NoError(t, dev.Close())

	pb, err := env.lib.NewPlayback(path)
	require.NoError(t, err)
	info, err := pb.DeviceInfo()
	require.NoError(t, err)
	serial, err := info.SerialNumber()
	require.NoError(t, err)
	assert.Equal(t, defaultSerial, serial)
	require.NoError(t, info.Close())
	param, err := pb.CameraParam()
	require.NoError(t, err)
	assert.Equal(t, int16(640), param.DepthIntrinsic.Width)

	var (
		mu     sync.Mutex
		states []MediaState
		depth  int
	)
	ended := make(chan struct{})
	require.NoError(t, pb.SetStateCallback(func(st MediaState) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
		if st == MediaEnd {
			close(ended)
		}
	}))
	require.NoError(t, pb.Start(native.MediaDepth, func(f *Frame) {
		defer f.Close()
		typ, err := f.Type()
		assert.NoError(t, err)
		assert.Equal(t, FrameDepth, typ)
		mu.Lock()
		depth++
		mu.Unlock()
	}))
	select {
	case <-ended:
	case <-time.After(5 * time.Second):
		t.Fatal("playback did not end")
	}
	require.NoError(t, pb.Close())

	mu.Lock()
	assert.Equal(t, []MediaState{MediaBegin, MediaEnd}, states)
	assert.Equal(t, recorded/2, depth)
	mu.Unlock()
	env.assertNoLeaks(t)
}

func TestRecorderWriteFrame(t *testing.T) {
	env := newTestEnv(t, nil)
	in := depthFrame(t, env)
	rec, err := env.lib.NewRecorder()
	require.NoError(t, err)

	assert.ErrorIs(t, rec.WriteFrame(in), ErrInvalidArgument, "not started")
	require.NoError(t, rec.Start(filepath.Join(t.TempDir(), "manual.obfake"), true))
	require.NoError(t, rec.WriteFrame(in))
	require.NoError(t, rec.WriteFrame(in))
	p, err := rec.h.Ptr()
	require.NoError(t, err)
	assert.Equal(t, 2, env.sdk.RecordedFrames(p))

	require.NoError(t, rec.Close())
	require.NoError(t, in.Close())
	env.assertNoLeaks(t)
}

func TestPlaybackMissingFile(t *testing.T) {
	env := newTestEnv(t, nil)
	pb, err := env.lib.NewPlayback(filepath.Join(t.TempDir(), "missing.obfake"))
	assert.ErrorIs(t, err, ErrIO)
	assert.Nil(t, pb)
	env.assertNoLeaks(t)
}
