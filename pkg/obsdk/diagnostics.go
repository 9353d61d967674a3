package obsdk

import (
	"context"
	"fmt"

	"github.com/orbbec/obsdk-go/internal/native"
	"github.com/orbbec/obsdk-go/pkg/obsdk/logging"
)

// Fault is a failure that could not be returned to a caller: a deleter error
// during finalization or teardown, or a panic inside a user callback.
type Fault struct {
	// Op is the path that failed, e.g. "finalize", "release" or "callback".
	Op string
	// Kind is the handle kind or callback name involved.
	Kind string
	Err  error
}

func (f Fault) Error() string {
	return fmt.Sprintf("obsdk: %s %s: %v", f.Op, f.Kind, f.Err)
}

func (f Fault) Unwrap() error { return f.Err }

// FaultHandler receives faults. It may be called from SDK threads and
// finalizers and must not block.
type FaultHandler func(Fault)

var fallbackLogger = logging.New(nil)

func defaultFaultSink(f Fault) {
	fallbackLogger.Error(context.Background(), "obsdk fault", "op", f.Op, "kind", f.Kind, "error", f.Err)
}

func (l *Library) handleAcquired(kind string) {
	l.metrics.RecordHandleAcquired(kind)
}

func (l *Library) handleReleased(kind string, err error) {
	l.metrics.RecordHandleReleased(kind, err)
	if err != nil {
		l.log.Warn(context.Background(), "native deleter failed", "kind", kind, "error", err)
	}
}

func (l *Library) fault(f Fault) {
	l.metrics.RecordFault(f.Op, categoryLabel(f.Err))
	if l.onFault == nil {
		l.log.Error(context.Background(), "obsdk fault", "op", f.Op, "kind", f.Kind, "error", f.Err)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.log.Error(context.Background(), "fault handler panicked", "panic", r, "op", f.Op)
		}
	}()
	l.onFault(f)
}

// recoverCallback must be deferred directly by trampolines.
func (l *Library) recoverCallback(name string) {
	if r := recover(); r != nil {
		l.fault(Fault{Op: "callback", Kind: name, Err: fmt.Errorf("panic: %v", r)})
	}
}

// releaseRaw deletes a native pointer nobody will wrap. Failures become faults.
func (l *Library) releaseRaw(kind string, p RawHandle, del func(RawHandle, *native.ErrorRef)) {
	if p == 0 {
		return
	}
	if err := call0(l, func(e *native.ErrorRef) { del(p, e) }); err != nil {
		l.fault(Fault{Op: "discard", Kind: kind, Err: err})
	}
}
