package fakesdk

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/orbbec/obsdk-go/internal/native"
)

var _ native.API = (*SDK)(nil)

const (
	firstHandle = 0x1000
	handleStep  = 0x10
	traceLimit  = 4096
)

// Object kinds, as reported by LiveByKind.
const (
	KindContext     = "context"
	KindDeviceList  = "device_list"
	KindDevice      = "device"
	KindDeviceInfo  = "device_info"
	KindPresetList  = "preset_list"
	KindDepthModes  = "depth_work_mode_list"
	KindParamList   = "camera_param_list"
	KindSensorList  = "sensor_list"
	KindSensor      = "sensor"
	KindProfileList = "stream_profile_list"
	KindProfile     = "stream_profile"
	KindPipeline    = "pipeline"
	KindConfig      = "config"
	KindFrame       = "frame"
	KindFilter      = "filter"
	KindFilterList  = "filter_list"
	KindSchemaList  = "filter_config_schema_list"
	KindPlayback    = "playback"
	KindRecorder    = "recorder"
)

type object struct {
	kind string
	refs int
	val  any
}

type sdkError struct {
	kind     native.ExceptionType
	function string
	args     string
	message  string
}

type injection struct {
	kind native.ExceptionType
	msg  string
}

// Option configures an SDK.
type Option func(*SDK)

// WithFrameInterval sets the delay between synthetic frames.
func WithFrameInterval(d time.Duration) Option {
	return func(s *SDK) { s.interval = d }
}

// WithQueueDepth bounds the pipeline frameset queue.
func WithQueueDepth(n int) Option {
	return func(s *SDK) { s.queueDepth = max(n, 1) }
}

// WithVersion sets the version reported by Version.
func WithVersion(v native.Version) Option {
	return func(s *SDK) { s.version = v }
}

// LoggerSettings records the SDK logger configuration.
type LoggerSettings struct {
	Severity        native.LogSeverity
	FileSeverity    native.LogSeverity
	Directory       string
	ConsoleSeverity native.LogSeverity
	Console         bool
}

// SDK is the fake native layer. It is safe for concurrent use.
type SDK struct {
	mu     sync.Mutex
	next   native.Handle
	objs   map[native.Handle]*object
	errs   map[native.ErrorRef]*sdkError
	calls  map[string]int
	trace  []string
	inject map[string]injection
	tokens map[native.Token]struct{}

	units      []*unit
	contexts   map[native.Handle]*contextData
	logger     LoggerSettings
	syncPeriod time.Duration

	interval   time.Duration
	queueDepth int
	version    native.Version

	bg sync.WaitGroup
}

// New builds a fake SDK populated with the devices in sc. A nil scenario
// uses DefaultScenario.
func New(sc *Scenario, opts ...Option) *SDK {
	if sc == nil {
		sc = DefaultScenario()
	}
	s := &SDK{
		next:       firstHandle,
		objs:       make(map[native.Handle]*object),
		errs:       make(map[native.ErrorRef]*sdkError),
		calls:      make(map[string]int),
		inject:     make(map[string]injection),
		tokens:     make(map[native.Token]struct{}),
		contexts:   make(map[native.Handle]*contextData),
		interval:   33 * time.Millisecond,
		queueDepth: 4,
		version:    native.Version{Major: 2, Minor: 4, Patch: 3},
	}
	for _, o := range opts {
		o(s)
	}
	for _, d := range sc.Devices {
		s.units = append(s.units, newUnit(d))
	}
	return s
}

// Version reports the simulated SDK version.
func (s *SDK) Version() native.Version {
	return s.version
}

// Drain waits for background work such as asynchronous upgrades to finish.
func (s *SDK) Drain() {
	s.bg.Wait()
}

// FailNext makes the next call to the native function fn fail with kind.
func (s *SDK) FailNext(fn string, kind native.ExceptionType, msg string) {
	s.mu.Lock()
	s.inject[fn] = injection{kind: kind, msg: msg}
	s.mu.Unlock()
}

// Calls returns how often fn was called.
func (s *SDK) Calls(fn string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[fn]
}

// Trace returns the most recent native calls in order.
func (s *SDK) Trace() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.trace...)
}

// Live returns the number of objects that have not been deleted.
func (s *SDK) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objs)
}

// LiveByKind counts live objects per kind.
func (s *SDK) LiveByKind() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int)
	for _, o := range s.objs {
		out[o.kind]++
	}
	return out
}

// LiveErrors returns the number of error objects not yet deleted.
func (s *SDK) LiveErrors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs)
}

// LiveTokens returns the number of callback tokens still bound in the
// trampoline table.
func (s *SDK) LiveTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// LiveSummary formats LiveByKind for test failure messages.
func (s *SDK) LiveSummary() string {
	m := s.LiveByKind()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for _, k := range keys {
		out += fmt.Sprintf("%s=%d ", k, m[k])
	}
	return out
}

// Logger returns the logger settings applied through the SDK.
func (s *SDK) Logger() LoggerSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger
}

// enter records a call to fn and applies a pending injection. The caller
// holds s.mu. It returns false when the call must fail.
func (s *SDK) enter(fn string, e *native.ErrorRef) bool {
	s.calls[fn]++
	s.trace = append(s.trace, fn)
	if len(s.trace) > traceLimit {
		s.trace = s.trace[len(s.trace)-traceLimit:]
	}
	if inj, ok := s.inject[fn]; ok {
		delete(s.inject, fn)
		s.fail(e, inj.kind, fn, "%s", inj.msg)
		return false
	}
	return true
}

// fail populates the error slot. The caller holds s.mu.
func (s *SDK) fail(e *native.ErrorRef, kind native.ExceptionType, fn, format string, args ...any) {
	if e == nil {
		return
	}
	ref := native.ErrorRef(s.alloc())
	s.errs[ref] = &sdkError{kind: kind, function: fn, message: fmt.Sprintf(format, args...)}
	*e = ref
}

// bind mirrors the trampoline table of the real binding: registering a
// callback stores its token and registering nil drops it. The caller holds
// s.mu.
func (s *SDK) bind(token native.Token, set bool) {
	if set {
		s.tokens[token] = struct{}{}
	} else {
		delete(s.tokens, token)
	}
}

func (s *SDK) ReleaseToken(token native.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["release_token"]++
	s.bind(token, false)
}

func (s *SDK) alloc() native.Handle {
	h := s.next
	s.next += handleStep
	return h
}

// add registers a new object. The caller holds s.mu.
func (s *SDK) add(kind string, val any) native.Handle {
	h := s.alloc()
	s.objs[h] = &object{kind: kind, refs: 1, val: val}
	return h
}

// remove deletes an object of the given kind. Deleting twice is an error.
func (s *SDK) remove(h native.Handle, kind, fn string, e *native.ErrorRef) (any, bool) {
	o, ok := s.objs[h]
	if !ok || o.kind != kind {
		s.fail(e, native.ExceptionInvalidValue, fn, "%s handle %#x is not live", kind, uintptr(h))
		return nil, false
	}
	delete(s.objs, h)
	return o.val, true
}

// lookup resolves h to a live object of the given kind.
func lookup[T any](s *SDK, h native.Handle, kind, fn string, e *native.ErrorRef) (T, bool) {
	var zero T
	o, ok := s.objs[h]
	if !ok || o.kind != kind {
		s.fail(e, native.ExceptionInvalidValue, fn, "%s handle %#x is not live", kind, uintptr(h))
		return zero, false
	}
	v, ok := o.val.(T)
	if !ok {
		s.fail(e, native.ExceptionInvalidValue, fn, "%s handle %#x has the wrong type", kind, uintptr(h))
		return zero, false
	}
	return v, true
}

func (s *SDK) ErrorType(ref native.ErrorRef) native.ExceptionType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if er, ok := s.errs[ref]; ok {
		return er.kind
	}
	return native.ExceptionUnknown
}

func (s *SDK) ErrorFunction(ref native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if er, ok := s.errs[ref]; ok {
		return er.function
	}
	return ""
}

func (s *SDK) ErrorArgs(ref native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if er, ok := s.errs[ref]; ok {
		return er.args
	}
	return ""
}

func (s *SDK) ErrorMessage(ref native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if er, ok := s.errs[ref]; ok {
		return er.message
	}
	return ""
}

func (s *SDK) DeleteError(ref native.ErrorRef) {
	s.mu.Lock()
	delete(s.errs, ref)
	s.mu.Unlock()
}

func (s *SDK) SetLoggerSeverity(sev native.LogSeverity, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("ob_set_logger_severity", e) {
		return
	}
	s.logger.Severity = sev
}

func (s *SDK) SetLoggerToFile(sev native.LogSeverity, dir string, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("ob_set_logger_to_file", e) {
		return
	}
	s.logger.FileSeverity, s.logger.Directory = sev, dir
}

func (s *SDK) SetLoggerToConsole(sev native.LogSeverity, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("ob_set_logger_to_console", e) {
		return
	}
	s.logger.ConsoleSeverity, s.logger.Console = sev, true
}
