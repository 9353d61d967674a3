package obsdk

import (
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/orbbec/obsdk-go/internal/fakesdk"
	"github.com/orbbec/obsdk-go/pkg/obsdk/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const defaultSerial = "CP0000000001"

type testEnv struct {
	lib *Library
	sdk *fakesdk.SDK

	mu     sync.Mutex
	faults []Fault
}

func newTestEnv(t *testing.T, sc *fakesdk.Scenario, opts ...fakesdk.Option) *testEnv {
	t.Helper()
	opts = append([]fakesdk.Option{fakesdk.WithFrameInterval(2 * time.Millisecond)}, opts...)
	env := &testEnv{sdk: fakesdk.New(sc, opts...)}
	lib, err := OpenWithNative(env.sdk, Config{
		Logger: logging.Discard(),
		OnFault: func(f Fault) {
			env.mu.Lock()
			env.faults = append(env.faults, f)
			env.mu.Unlock()
		},
	})
	require.NoError(t, err)
	env.lib = lib
	t.Cleanup(func() {
		_ = lib.Close()
		env.sdk.Drain()
	})
	return env
}

func (env *testEnv) Faults() []Fault {
	env.mu.Lock()
	defer env.mu.Unlock()
	return append([]Fault(nil), env.faults...)
}

// assertNoLeaks checks that every native object and error was freed.
func (env *testEnv) assertNoLeaks(t *testing.T) {
	t.Helper()
	env.sdk.Drain()
	assert.Zero(t, env.sdk.Live(), "live native objects: %s", env.sdk.LiveSummary())
	assert.Zero(t, env.sdk.LiveErrors(), "live native errors")
	assert.Zero(t, env.sdk.LiveTokens(), "bound callback tokens")
}

func (env *testEnv) openDevice(t *testing.T) *Device {
	t.Helper()
	ctx, err := env.lib.NewContext()
	require.NoError(t, err)
	defer ctx.Close()
	list, err := ctx.QueryDeviceList()
	require.NoError(t, err)
	defer list.Close()
	dev, err := list.Device(0)
	require.NoError(t, err)
	return dev
}

// counterValue sums the samples of a counter family whose labels include
// every pair in labels.
func counterValue(t *testing.T, lib *Library, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := lib.Metrics().Registry().Gather()
	require.NoError(t, err)
	var sum float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matchLabels(m, labels) {
				sum += m.GetCounter().GetValue()
			}
		}
	}
	return sum
}

func matchLabels(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestOpenWithNilAPI(t *testing.T) {
	lib, err := OpenWithNative(nil, Config{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Nil(t, lib)
}

func TestOpenWithoutSDKBuild(t *testing.T) {
	lib, err := Open(Config{})
	if err != nil {
		assert.ErrorIs(t, err, ErrNotBuilt)
		assert.Nil(t, lib)
		return
	}
	require.NoError(t, lib.Close())
}

func TestLibraryCloseIsOneShot(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.lib.Close())
	assert.ErrorIs(t, env.lib.Close(), ErrClosed)

	_, err := env.lib.NewContext()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = env.lib.NewPipeline()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSDKLogConfigIsApplied(t *testing.T) {
	sdk := fakesdk.New(nil)
	dir := t.TempDir()
	lib, err := OpenWithNative(sdk, Config{
		Logger: logging.Discard(),
		SDKLog: &SDKLogConfig{Severity: LogWarn, Directory: dir, Console: true},
	})
	require.NoError(t, err)
	defer lib.Close()

	got := sdk.Logger()
	assert.Equal(t, LogWarn, got.Severity)
	assert.Equal(t, dir, got.Directory)
	assert.True(t, got.Console)
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t, nil, fakesdk.WithVersion(SDKVersion{Major: 2, Minor: 5, Patch: 1}))
	assert.Equal(t, "2.5.1", env.lib.Version().String())
	assert.NotEmpty(t, WrapperVersion())
}
