package fakesdk

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/orbbec/obsdk-go/internal/native"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestSDK(t *testing.T, opts ...Option) *SDK {
	t.Helper()
	opts = append([]Option{WithFrameInterval(2 * time.Millisecond)}, opts...)
	s := New(nil, opts...)
	t.Cleanup(s.Drain)
	return s
}

// must runs op with a fresh error slot and fails the test on a native error.
func must[T any](t *testing.T, s *SDK, op func(e *native.ErrorRef) T) T {
	t.Helper()
	var e native.ErrorRef
	v := op(&e)
	if e != 0 {
		msg := s.ErrorMessage(e)
		s.DeleteError(e)
		require.FailNow(t, "native error", msg)
	}
	return v
}

func must0(t *testing.T, s *SDK, op func(e *native.ErrorRef)) {
	t.Helper()
	must(t, s, func(e *native.ErrorRef) struct{} { op(e); return struct{}{} })
}

func firstDevice(t *testing.T, s *SDK) native.Handle {
	t.Helper()
	ctx := must(t, s, s.CreateContext)
	list := must(t, s, func(e *native.ErrorRef) native.Handle { return s.QueryDeviceList(ctx, e) })
	dev := must(t, s, func(e *native.ErrorRef) native.Handle { return s.DeviceListGetDevice(list, 0, e) })
	must0(t, s, func(e *native.ErrorRef) { s.DeleteDeviceList(list, e) })
	must0(t, s, func(e *native.ErrorRef) { s.DeleteContext(ctx, e) })
	return dev
}

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(`
devices:
  - name: Femto Bolt
    serial: FB01
    sensors:
      - type: depth
        profiles:
          - {width: 640, height: 576, format: y16, fps: 15}
  - address: 192.168.1.10
    port: 8090
`))
	require.NoError(t, err)
	require.Len(t, sc.Devices, 2)

	d := sc.Devices[0]
	assert.Equal(t, "FB01", d.Serial)
	assert.NotEmpty(t, d.UID)
	assert.Equal(t, "USB3.2", d.Connection)
	assert.NotEmpty(t, d.Presets)
	assert.NotEmpty(t, d.Properties)

	net := sc.Devices[1]
	assert.Equal(t, "SIM000000002", net.Serial)
	assert.Equal(t, "Ethernet", net.Connection)
}

func TestParseScenarioRejectsBadInput(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"unknown sensor", "devices: [{sensors: [{type: sonar}]}]"},
		{"unknown format", "devices: [{sensors: [{type: depth, profiles: [{format: h265}]}]}]"},
		{"unknown property type", "devices: [{properties: [{id: 1, type: string}]}]"},
		{"not yaml", "devices: ["},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestDeleteTwiceFails(t *testing.T) {
	s := newTestSDK(t)
	ctx := must(t, s, s.CreateContext)
	must0(t, s, func(e *native.ErrorRef) { s.DeleteContext(ctx, e) })

	var e native.ErrorRef
	s.DeleteContext(ctx, &e)
	require.NotZero(t, e)
	assert.Equal(t, native.ExceptionInvalidValue, s.ErrorType(e))
	assert.Equal(t, "ob_delete_context", s.ErrorFunction(e))
	s.DeleteError(e)
	assert.Zero(t, s.LiveErrors())
	assert.Zero(t, s.Live())
}

func TestFailNextAppliesOnce(t *testing.T) {
	s := newTestSDK(t)
	s.FailNext("ob_create_context", native.ExceptionMemory, "out of memory")

	var e native.ErrorRef
	h := s.CreateContext(&e)
	assert.Zero(t, h)
	require.NotZero(t, e)
	assert.Equal(t, native.ExceptionMemory, s.ErrorType(e))
	assert.Equal(t, "out of memory", s.ErrorMessage(e))
	s.DeleteError(e)

	h = must(t, s, s.CreateContext)
	assert.NotZero(t, h)
	assert.Equal(t, 2, s.Calls("ob_create_context"))
	must0(t, s, func(e *native.ErrorRef) { s.DeleteContext(h, e) })
}

func TestPropertySemantics(t *testing.T) {
	s := newTestSDK(t)
	dev := firstDevice(t, s)
	defer s.DeleteDevice(dev, nil)

	must0(t, s, func(e *native.ErrorRef) { s.DeviceSetIntProperty(dev, native.PropColorExposureInt, 500, e) })
	got := must(t, s, func(e *native.ErrorRef) int32 { return s.DeviceGetIntProperty(dev, native.PropColorExposureInt, e) })
	assert.Equal(t, int32(500), got)

	testCases := []struct {
		name string
		op   func(e *native.ErrorRef)
		want native.ExceptionType
	}{
		{"out of range", func(e *native.ErrorRef) { s.DeviceSetIntProperty(dev, native.PropColorExposureInt, 1e6, e) }, native.ExceptionInvalidValue},
		{"wrong type", func(e *native.ErrorRef) { s.DeviceSetFloatProperty(dev, native.PropColorExposureInt, 1, e) }, native.ExceptionInvalidValue},
		{"read only", func(e *native.ErrorRef) { s.DeviceSetIntProperty(dev, native.PropDepthPrecisionInt, 2, e) }, native.ExceptionAccessDenied},
		{"unsupported", func(e *native.ErrorRef) { s.DeviceSetIntProperty(dev, native.PropertyID(9999), 1, e) }, native.ExceptionUnsupportedOperation},
		{"struct size", func(e *native.ErrorRef) { s.DeviceSetStructuredData(dev, native.StructMultiDeviceSync, []byte{1}, e) }, native.ExceptionInvalidValue},
		{"struct read only", func(e *native.ErrorRef) {
			s.DeviceSetStructuredData(dev, native.StructBaselineCalibration, make([]byte, 8), e)
		}, native.ExceptionAccessDenied},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var e native.ErrorRef
			tc.op(&e)
			require.NotZero(t, e)
			assert.Equal(t, tc.want, s.ErrorType(e))
			s.DeleteError(e)
		})
	}
}

func TestSensorStreamStopsCleanly(t *testing.T) {
	s := newTestSDK(t)
	dev := firstDevice(t, s)
	sensor := must(t, s, func(e *native.ErrorRef) native.Handle { return s.DeviceGetSensor(dev, native.SensorDepth, e) })
	list := must(t, s, func(e *native.ErrorRef) native.Handle { return s.SensorGetStreamProfileList(sensor, e) })
	profile := must(t, s, func(e *native.ErrorRef) native.Handle { return s.StreamProfileListGetProfile(list, 0, e) })

	var frames atomic.Int64
	cb := func(f native.Handle, token native.Token) {
		assert.Equal(t, native.Token(7), token)
		frames.Add(1)
		s.DeleteFrame(f, nil)
	}
	must0(t, s, func(e *native.ErrorRef) { s.SensorStart(sensor, profile, cb, 7, e) })

	var e native.ErrorRef
	s.SensorStart(sensor, profile, cb, 7, &e)
	require.NotZero(t, e, "second start must fail")
	assert.Equal(t, native.ExceptionWrongAPICallSequence, s.ErrorType(e))
	s.DeleteError(e)

	require.Eventually(t, func() bool { return frames.Load() >= 3 }, time.Second, time.Millisecond)
	must0(t, s, func(e *native.ErrorRef) { s.SensorStop(sensor, e) })
	n := frames.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, n, frames.Load(), "no frames after stop")

	must0(t, s, func(e *native.ErrorRef) { s.DeleteStreamProfile(profile, e) })
	must0(t, s, func(e *native.ErrorRef) { s.DeleteStreamProfileList(list, e) })
	must0(t, s, func(e *native.ErrorRef) { s.DeleteSensor(sensor, e) })
	must0(t, s, func(e *native.ErrorRef) { s.DeleteDevice(dev, e) })
	assert.Zero(t, s.Live(), s.LiveSummary())
}

func TestPipelineQueueIsBounded(t *testing.T) {
	s := newTestSDK(t, WithQueueDepth(2))
	p := must(t, s, s.CreatePipeline)
	must0(t, s, func(e *native.ErrorRef) { s.PipelineStart(p, e) })

	time.Sleep(30 * time.Millisecond)
	fs := must(t, s, func(e *native.ErrorRef) native.Handle { return s.PipelineWaitForFrameset(p, 100, e) })
	require.NotZero(t, fs)
	assert.Equal(t, uint32(2), must(t, s, func(e *native.ErrorRef) uint32 { return s.FramesetFrameCount(fs, e) }))

	depth := must(t, s, func(e *native.ErrorRef) native.Handle { return s.FramesetGetFrame(fs, native.FrameDepth, e) })
	require.NotZero(t, depth)
	assert.Equal(t, uint32(640), must(t, s, func(e *native.ErrorRef) uint32 { return s.VideoFrameWidth(depth, e) }))
	assert.Zero(t, must(t, s, func(e *native.ErrorRef) native.Handle { return s.FramesetGetFrame(fs, native.FrameGyro, e) }))

	must0(t, s, func(e *native.ErrorRef) { s.PipelineStop(p, e) })
	assert.LessOrEqual(t, s.LiveByKind()[KindFrame], 2)
	must0(t, s, func(e *native.ErrorRef) { s.DeleteFrame(depth, e) })
	must0(t, s, func(e *native.ErrorRef) { s.DeleteFrame(fs, e) })
	must0(t, s, func(e *native.ErrorRef) { s.DeletePipeline(p, e) })
	assert.Zero(t, s.Live(), s.LiveSummary())
}

func TestPipelineWaitTimesOut(t *testing.T) {
	s := newTestSDK(t, WithFrameInterval(time.Hour))
	p := must(t, s, s.CreatePipeline)
	defer s.DeletePipeline(p, nil)

	var e native.ErrorRef
	s.PipelineWaitForFrameset(p, 1, &e)
	require.NotZero(t, e, "wait before start")
	s.DeleteError(e)

	must0(t, s, func(e *native.ErrorRef) { s.PipelineStart(p, e) })
	fs := must(t, s, func(e *native.ErrorRef) native.Handle { return s.PipelineWaitForFrameset(p, 5, e) })
	assert.Zero(t, fs)
}

func TestFilterDecimation(t *testing.T) {
	s := newTestSDK(t)
	s.mu.Lock()
	in := s.add(KindFrame, &frameData{typ: native.FrameDepth, format: native.FormatY16, width: 640, height: 480, data: make([]byte, 640*480*2)})
	s.mu.Unlock()

	f := must(t, s, func(e *native.ErrorRef) native.Handle { return s.CreateFilter("DecimationFilter", e) })
	must0(t, s, func(e *native.ErrorRef) { s.FilterSetConfigValue(f, "decimate", 4, e) })
	out := must(t, s, func(e *native.ErrorRef) native.Handle { return s.FilterProcess(f, in, e) })
	assert.Equal(t, uint32(160), must(t, s, func(e *native.ErrorRef) uint32 { return s.VideoFrameWidth(out, e) }))
	assert.Equal(t, uint32(160*120*2), must(t, s, func(e *native.ErrorRef) uint32 { return s.FrameDataSize(out, e) }))

	var e native.ErrorRef
	s.FilterSetConfigValue(f, "decimate", 100, &e)
	require.NotZero(t, e)
	s.DeleteError(e)
	s.CreateFilter("NoSuchFilter", &e)
	require.NotZero(t, e)
	s.DeleteError(e)

	must0(t, s, func(e *native.ErrorRef) { s.FilterReset(f, e) })
	assert.Equal(t, 2.0, must(t, s, func(e *native.ErrorRef) float64 { return s.FilterGetConfigValue(f, "decimate", e) }))

	for _, h := range []native.Handle{in, out} {
		must0(t, s, func(e *native.ErrorRef) { s.DeleteFrame(h, e) })
	}
	must0(t, s, func(e *native.ErrorRef) { s.DeleteFilter(f, e) })
	assert.Zero(t, s.Live(), s.LiveSummary())
}

func TestRecordThenPlayback(t *testing.T) {
	s := newTestSDK(t)
	path := filepath.Join(t.TempDir(), "capture.obfake")
	dev := firstDevice(t, s)

	rec := must(t, s, func(e *native.ErrorRef) native.Handle { return s.CreateRecorderWithDevice(dev, e) })
	must0(t, s, func(e *native.ErrorRef) { s.RecorderStart(rec, path, false, e) })

	p := must(t, s, func(e *native.ErrorRef) native.Handle { return s.CreatePipelineWithDevice(dev, e) })
	must0(t, s, func(e *native.ErrorRef) { s.PipelineStart(p, e) })
	require.Eventually(t, func() bool { return s.RecordedFrames(rec) >= 6 }, time.Second, time.Millisecond)
	must0(t, s, func(e *native.ErrorRef) { s.PipelineStop(p, e) })
	must0(t, s, func(e *native.ErrorRef) { s.RecorderStop(rec, e) })
	recorded := s.RecordedFrames(rec)
	must0(t, s, func(e *native.ErrorRef) { s.DeleteRecorder(rec, e) })
	must0(t, s, func(e *native.ErrorRef) { s.DeletePipeline(p, e) })
	must0(t, s, func(e *native.ErrorRef) { s.DeleteDevice(dev, e) })

	pb := must(t, s, func(e *native.ErrorRef) native.Handle { return s.CreatePlayback(path, e) })
	param := must(t, s, func(e *native.ErrorRef) native.CameraParam { return s.PlaybackGetCameraParam(pb, e) })
	assert.Equal(t, int16(640), param.DepthIntrinsic.Width)
	info := must(t, s, func(e *native.ErrorRef) native.Handle { return s.PlaybackGetDeviceInfo(pb, e) })
	assert.Equal(t, "CP0000000001", must(t, s, func(e *native.ErrorRef) string { return s.DeviceInfoSerialNumber(info, e) }))
	must0(t, s, func(e *native.ErrorRef) { s.DeleteDeviceInfo(info, e) })

	var (
		mu     sync.Mutex
		states []native.MediaState
		depth  int
	)
	ended := make(chan struct{})
	must0(t, s, func(e *native.ErrorRef) {
		s.PlaybackSetStateCallback(pb, func(st native.MediaState, _ native.Token) {
			mu.Lock()
			states = append(states, st)
			mu.Unlock()
			if st == native.MediaEnd {
				close(ended)
			}
		}, 1, e)
	})
	must0(t, s, func(e *native.ErrorRef) {
		s.PlaybackStart(pb, func(f native.Handle, _ native.Token) {
			assert.Equal(t, native.FrameDepth, s.FrameType(f, nil))
			mu.Lock()
			depth++
			mu.Unlock()
			s.DeleteFrame(f, nil)
		}, 2, native.MediaDepth, e)
	})

	select {
	case <-ended:
	case <-time.After(5 * time.Second):
		t.Fatal("playback did not end")
	}
	must0(t, s, func(e *native.ErrorRef) { s.DeletePlayback(pb, e) })
	s.Drain()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []native.MediaState{native.MediaBegin, native.MediaEnd}, states)
	assert.Equal(t, recorded/2, depth, "half of the recorded frames are depth")
	assert.Zero(t, s.Live(), s.LiveSummary())
}

func TestDetachNotifiesAndStops(t *testing.T) {
	s := newTestSDK(t)
	ctx := must(t, s, s.CreateContext)

	type change struct{ removed, added uint32 }
	changes := make(chan change, 4)
	must0(t, s, func(e *native.ErrorRef) {
		s.SetDeviceChangedCallback(ctx, func(r, a native.Handle, _ native.Token) {
			var c change
			if r != 0 {
				c.removed = s.DeviceListCount(r, nil)
				s.DeleteDeviceList(r, nil)
			}
			if a != 0 {
				c.added = s.DeviceListCount(a, nil)
				s.DeleteDeviceList(a, nil)
			}
			changes <- c
		}, 3, e)
	})

	dev := firstDevice(t, s)
	require.NoError(t, s.Detach("CP0000000001"))
	assert.Equal(t, change{removed: 1}, <-changes)

	var e native.ErrorRef
	s.DeviceGetState(dev, &e)
	require.NotZero(t, e)
	assert.Equal(t, native.ExceptionCameraDisconnected, s.ErrorType(e))
	s.DeleteError(e)

	require.NoError(t, s.Attach(DefaultDevice("Orbbec Gemini 335", "CP0000000001")))
	assert.Equal(t, change{added: 1}, <-changes)
	must(t, s, func(e *native.ErrorRef) uint64 { return s.DeviceGetState(dev, e) })

	assert.Error(t, s.Detach("missing"))
	must0(t, s, func(e *native.ErrorRef) { s.DeleteDevice(dev, e) })
	must0(t, s, func(e *native.ErrorRef) { s.DeleteContext(ctx, e) })
	assert.Zero(t, s.Live(), s.LiveSummary())
}

func TestUpgradeReportsProgress(t *testing.T) {
	s := newTestSDK(t)
	dev := firstDevice(t, s)
	defer s.DeleteDevice(dev, nil)

	var (
		mu      sync.Mutex
		percent []uint8
	)
	done := make(chan struct{})
	cb := func(st native.UpgradeState, _ string, p uint8, _ native.Token) {
		mu.Lock()
		percent = append(percent, p)
		mu.Unlock()
		if st == native.UpgradeDone {
			close(done)
		}
	}
	must0(t, s, func(e *native.ErrorRef) { s.DeviceUpgradeFromData(dev, []byte("firmware"), cb, true, 9, e) })
	<-done
	s.Drain()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint8{0, 30, 60, 90, 100}, percent)
}

func TestCallbackTokensTrackRegistrations(t *testing.T) {
	s := newTestSDK(t)
	ctx := must(t, s, s.CreateContext)
	cb := func(r, a native.Handle, _ native.Token) {}

	must0(t, s, func(e *native.ErrorRef) { s.SetDeviceChangedCallback(ctx, cb, 11, e) })
	assert.Equal(t, 1, s.LiveTokens())
	must0(t, s, func(e *native.ErrorRef) { s.SetDeviceChangedCallback(ctx, nil, 11, e) })
	assert.Zero(t, s.LiveTokens(), "unregistering drops the token")

	dev := firstDevice(t, s)
	up := func(native.UpgradeState, string, uint8, native.Token) {}
	must0(t, s, func(e *native.ErrorRef) { s.DeviceUpgradeFromData(dev, []byte{1, 2, 3}, up, false, 12, e) })
	assert.Equal(t, 1, s.LiveTokens(), "one-shot registrations stay bound until released")
	s.ReleaseToken(12)
	s.ReleaseToken(12)
	assert.Zero(t, s.LiveTokens())

	must0(t, s, func(e *native.ErrorRef) { s.DeleteDevice(dev, e) })
	must0(t, s, func(e *native.ErrorRef) { s.DeleteContext(ctx, e) })
}

func TestDepthWorkModeList(t *testing.T) {
	s := newTestSDK(t)
	dev := firstDevice(t, s)

	list := must(t, s, func(e *native.ErrorRef) native.Handle { return s.DeviceGetDepthWorkModeList(dev, e) })
	n := must(t, s, func(e *native.ErrorRef) uint32 { return s.DepthWorkModeListCount(list, e) })
	require.Equal(t, uint32(4), n)
	last := must(t, s, func(e *native.ErrorRef) native.DepthWorkMode { return s.DepthWorkModeListGetItem(list, n-1, e) })
	must0(t, s, func(e *native.ErrorRef) { s.DeviceSwitchDepthWorkMode(dev, last, e) })
	cur := must(t, s, func(e *native.ErrorRef) native.DepthWorkMode { return s.DeviceGetCurrentDepthWorkMode(dev, e) })
	assert.Equal(t, last, cur)

	var e native.ErrorRef
	s.DepthWorkModeListGetItem(list, n, &e)
	require.NotZero(t, e)
	assert.Equal(t, native.ExceptionInvalidValue, s.ErrorType(e))
	s.DeleteError(e)

	must0(t, s, func(e *native.ErrorRef) { s.DeleteDepthWorkModeList(list, e) })
	must0(t, s, func(e *native.ErrorRef) { s.DeleteDevice(dev, e) })
	assert.Zero(t, s.Live(), s.LiveSummary())
}
