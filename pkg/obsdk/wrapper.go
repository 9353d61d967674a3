package obsdk

import (
	"runtime"
	"sync/atomic"

	"github.com/orbbec/obsdk-go/internal/native"
)

// lifecycle is embedded by every wrapper. It makes Close one-shot and lets
// the finalizer and Close race without running teardown twice.
type lifecycle struct {
	lib  *Library
	kind string
	done atomic.Bool
}

// closeOnce runs teardown on the first call and clears obj's finalizer. Later
// calls return nil.
func (lc *lifecycle) closeOnce(obj any, teardown func() error) error {
	if !lc.done.CompareAndSwap(false, true) {
		return nil
	}
	runtime.SetFinalizer(obj, nil)
	return teardown()
}

// finalizeOnce is the finalizer body. Teardown errors become faults.
func (lc *lifecycle) finalizeOnce(teardown func() error) {
	if !lc.done.CompareAndSwap(false, true) {
		return
	}
	if err := teardown(); err != nil {
		lc.lib.fault(Fault{Op: "finalize", Kind: lc.kind, Err: err})
	}
}

// Closed reports whether Close has been called.
func (lc *lifecycle) Closed() bool {
	return lc.done.Load()
}

// query runs a native getter against h while holding a reference.
func query[T any](l *Library, h *NativeHandle, op func(p RawHandle, e *native.ErrorRef) T) (T, error) {
	return with(h, func(p RawHandle) (T, error) {
		return call(l, func(e *native.ErrorRef) T { return op(p, e) })
	})
}

// exec runs a native operation with no result against h.
func exec(l *Library, h *NativeHandle, op func(p RawHandle, e *native.ErrorRef)) error {
	return h.use(func(p RawHandle) error {
		return call0(l, func(e *native.ErrorRef) { op(p, e) })
	})
}

// derive runs a native call on h that returns a newly owned pointer and wraps
// it.
func derive(l *Library, h *NativeHandle, kind string, del func(native.Handle, *native.ErrorRef), op func(p RawHandle, e *native.ErrorRef) native.Handle) (*NativeHandle, error) {
	p, err := query(l, h, op)
	if err != nil {
		return nil, err
	}
	return l.acquire(kind, p, del)
}

// borrowFrom runs a native call on parent and wraps the result as a handle
// that keeps parent alive.
func borrowFrom(l *Library, parent *NativeHandle, kind string, del func(native.Handle, *native.ErrorRef), op func(p RawHandle, e *native.ErrorRef) native.Handle) (*NativeHandle, error) {
	p, err := query(l, parent, op)
	if err != nil {
		return nil, err
	}
	return parent.Borrow(kind, p, l.deleter(del))
}

// optionalPtr resolves an optional wrapper argument to its pointer. A nil
// handle maps to the null pointer and a no-op release.
func optionalPtr(h *NativeHandle) (RawHandle, func(), error) {
	if h == nil {
		return 0, func() {}, nil
	}
	if err := h.Retain(); err != nil {
		return 0, nil, err
	}
	p, err := h.Ptr()
	if err != nil {
		h.releaseBestEffort("release")
		return 0, nil, err
	}
	return p, func() { h.releaseBestEffort("release") }, nil
}
