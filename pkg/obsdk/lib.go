package obsdk

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/orbbec/obsdk-go/internal/native"
	"github.com/orbbec/obsdk-go/pkg/obsdk/logging"
	"github.com/orbbec/obsdk-go/pkg/obsdk/metrics"
)

// Handle kinds, used in errors, faults and metric labels.
const (
	kindContext      = "context"
	kindDeviceList   = "device_list"
	kindDevice       = "device"
	kindDeviceInfo   = "device_info"
	kindPresetList   = "preset_list"
	kindDepthModes   = "depth_work_mode_list"
	kindParamList    = "camera_param_list"
	kindSensorList   = "sensor_list"
	kindSensor       = "sensor"
	kindProfileList  = "stream_profile_list"
	kindProfile      = "stream_profile"
	kindPipeline     = "pipeline"
	kindStreamConfig = "config"
	kindFrame        = "frame"
	kindFrameset     = "frameset"
	kindFilter       = "filter"
	kindFilterList   = "filter_list"
	kindSchemaList   = "filter_config_schema_list"
	kindPlayback     = "playback"
	kindRecorder     = "recorder"
)

// Library is the root of the binding. It carries the native API, the
// callback registry, and the logging, metrics and fault sinks shared by
// every object created from it.
type Library struct {
	api     native.API
	log     logging.Logger
	metrics *metrics.BindingMetrics
	onFault FaultHandler
	reg     *registry
	closed  atomic.Bool
}

// Open loads the native SDK. Builds without the SDK fail with ErrNotBuilt.
func Open(cfg Config) (*Library, error) {
	api, err := native.Load()
	if err != nil {
		return nil, err
	}
	return OpenWithNative(api, cfg)
}

// OpenWithNative builds a Library on top of an explicit native API, such as
// the in-memory fake used by tests and the CLI simulator.
func OpenWithNative(api native.API, cfg Config) (*Library, error) {
	if api == nil {
		return nil, fmt.Errorf("%w: nil native api", ErrInvalidArgument)
	}

	m := cfg.Metrics
	if m == nil {
		var err error
		if m, err = metrics.NewBindingMetrics(prometheus.NewRegistry()); err != nil {
			return nil, err
		}
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New(nil)
	}

	l := &Library{
		api:     api,
		log:     log.With("component", "obsdk"),
		metrics: m,
		onFault: cfg.OnFault,
		reg:     newRegistry(),
	}

	if sl := cfg.SDKLog; sl != nil {
		if err := l.SetLoggerSeverity(sl.Severity); err != nil {
			return nil, err
		}
		if sl.Directory != "" {
			if err := l.SetLoggerToFile(sl.Severity, sl.Directory); err != nil {
				return nil, err
			}
		}
		if sl.Console {
			if err := l.SetLoggerToConsole(sl.Severity); err != nil {
				return nil, err
			}
		}
	}

	l.log.Debug(context.Background(), "library opened", "sdk_version", api.Version().String())
	return l, nil
}

// Close marks the library closed. Objects created earlier stay usable and
// must be closed individually. A second Close returns ErrClosed.
func (l *Library) Close() error {
	if l == nil {
		return nil
	}
	if !l.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if n := l.reg.len(); n > 0 {
		l.log.Warn(context.Background(), "library closed with live callback registrations", "count", n)
	}
	return nil
}

// Metrics returns the binding metrics.
func (l *Library) Metrics() *metrics.BindingMetrics {
	return l.metrics
}

// Logger returns the binding logger.
func (l *Library) Logger() logging.Logger {
	return l.log
}

// SetLoggerSeverity sets the SDK's global log severity.
func (l *Library) SetLoggerSeverity(s LogSeverity) error {
	return call0(l, func(e *native.ErrorRef) { l.api.SetLoggerSeverity(s, e) })
}

// SetLoggerToFile enables SDK file logging into directory.
func (l *Library) SetLoggerToFile(s LogSeverity, directory string) error {
	return call0(l, func(e *native.ErrorRef) { l.api.SetLoggerToFile(s, directory, e) })
}

// SetLoggerToConsole enables SDK console logging.
func (l *Library) SetLoggerToConsole(s LogSeverity) error {
	return call0(l, func(e *native.ErrorRef) { l.api.SetLoggerToConsole(s, e) })
}

func (l *Library) ensureOpen() error {
	if l.closed.Load() {
		return ErrClosed
	}
	return nil
}

// deleter adapts a native Delete* entry point to a Deleter.
func (l *Library) deleter(del func(native.Handle, *native.ErrorRef)) Deleter {
	return func(p RawHandle) error {
		return call0(l, func(e *native.ErrorRef) { del(p, e) })
	}
}

// acquire wraps a pointer the caller already owns.
func (l *Library) acquire(kind string, p RawHandle, del func(native.Handle, *native.ErrorRef)) (*NativeHandle, error) {
	return acquire(kind, p, l.deleter(del), l)
}

// create runs a native constructor and wraps its result. Nothing is exposed
// when the call fails.
func (l *Library) create(kind string, del func(native.Handle, *native.ErrorRef), op func(e *native.ErrorRef) native.Handle) (*NativeHandle, error) {
	p, err := call(l, op)
	if err != nil {
		return nil, err
	}
	return l.acquire(kind, p, del)
}
