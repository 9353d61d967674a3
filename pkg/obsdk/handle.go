package obsdk

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/orbbec/obsdk-go/internal/native"
)

// Ownership tells whether a handle's pointer was created for it or derived
// from a parent handle.
type Ownership uint8

const (
	// Owned handles are the sole owner of their native pointer.
	Owned Ownership = iota
	// Borrowed handles keep their parent alive until they are released.
	Borrowed
)

func (o Ownership) String() string {
	if o == Borrowed {
		return "borrowed"
	}
	return "owned"
}

// Deleter releases a native pointer. It is called at most once per handle.
type Deleter func(p RawHandle) error

// handleObserver receives lifecycle events. Library implements it.
type handleObserver interface {
	handleAcquired(kind string)
	handleReleased(kind string, err error)
	fault(f Fault)
}

// NativeHandle owns one native pointer and runs its deleter exactly once, when
// the reference count drops from one to zero. After that the pointer is
// cleared and every further use fails with ErrHandleReleased.
//
// Retain and Release are safe for concurrent use.
type NativeHandle struct {
	kind    string
	own     Ownership
	ptr     atomic.Uintptr
	refs    atomic.Int64
	closed  atomic.Bool
	deleter Deleter
	parent  *NativeHandle
	obs     handleObserver
}

// AcquireHandle takes ownership of ptr. The returned handle has a reference
// count of one. A null ptr or a nil deleter is rejected.
func AcquireHandle(kind string, ptr RawHandle, deleter Deleter) (*NativeHandle, error) {
	return acquire(kind, ptr, deleter, nil)
}

func acquire(kind string, ptr RawHandle, deleter Deleter, obs handleObserver) (*NativeHandle, error) {
	if ptr == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNullHandle, kind)
	}
	if deleter == nil {
		return nil, fmt.Errorf("%w: %s handle needs a deleter", ErrInvalidArgument, kind)
	}
	h := &NativeHandle{kind: kind, own: Owned, deleter: deleter, obs: obs}
	h.ptr.Store(uintptr(ptr))
	h.refs.Store(1)
	if obs != nil {
		obs.handleAcquired(kind)
	}
	return h, nil
}

// Borrow derives a handle for ptr that keeps h alive until the derived handle
// is released. release may be nil when ptr points into memory owned by h. If
// h is already released, release is applied to ptr before returning the error
// so the pointer does not leak.
func (h *NativeHandle) Borrow(kind string, ptr RawHandle, release Deleter) (*NativeHandle, error) {
	if ptr == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNullHandle, kind)
	}
	if err := h.Retain(); err != nil {
		if release != nil {
			err = errors.Join(err, release(ptr))
		}
		return nil, err
	}
	c := &NativeHandle{kind: kind, own: Borrowed, deleter: release, parent: h, obs: h.obs}
	c.ptr.Store(uintptr(ptr))
	c.refs.Store(1)
	if c.obs != nil {
		c.obs.handleAcquired(kind)
	}
	return c, nil
}

// Kind names the native type behind the handle.
func (h *NativeHandle) Kind() string { return h.kind }

// Ownership reports whether the handle owns or borrows its pointer.
func (h *NativeHandle) Ownership() Ownership { return h.own }

// RefCount returns the current reference count.
func (h *NativeHandle) RefCount() int64 { return h.refs.Load() }

// IsValid reports whether the deleter has not run yet.
func (h *NativeHandle) IsValid() bool { return h != nil && h.refs.Load() > 0 }

// Ptr returns the native pointer. The pointer is only safe to use while the
// caller holds a reference.
func (h *NativeHandle) Ptr() (RawHandle, error) {
	if h == nil || h.refs.Load() <= 0 {
		return 0, h.released("use")
	}
	return native.Handle(h.ptr.Load()), nil
}

// Retain adds a reference. It fails once the count has reached zero.
func (h *NativeHandle) Retain() error {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return h.released("retain")
		}
		if h.refs.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// Release drops a reference and runs the deleter when it was the last one.
// Releasing past zero fails and never reruns the deleter. A deleter error is
// returned, but the handle stays released.
func (h *NativeHandle) Release() error {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return h.released("release")
		}
		if h.refs.CompareAndSwap(n, n-1) {
			if n == 1 {
				return h.destroy()
			}
			return nil
		}
	}
}

// Close releases the reference taken at construction. Later calls fail with
// ErrHandleReleased without touching the count.
//
// When an operation is still running against the handle, Close returns nil
// and the deleter runs once that operation drops its reference. A deleter
// error on that path cannot reach the closer; it is reported to the fault
// sink with Op "release".
func (h *NativeHandle) Close() error {
	if h == nil {
		return nil
	}
	if !h.closed.CompareAndSwap(false, true) {
		return h.released("close")
	}
	return h.Release()
}

func (h *NativeHandle) destroy() error {
	p := native.Handle(h.ptr.Swap(0))
	var err error
	if h.deleter != nil {
		err = h.deleter(p)
	}
	if h.obs != nil {
		h.obs.handleReleased(h.kind, err)
	}
	if h.parent != nil {
		err = errors.Join(err, h.parent.Release())
	}
	return err
}

func (h *NativeHandle) released(op string) error {
	kind := "nil"
	if h != nil {
		kind = h.kind
	}
	return fmt.Errorf("%w: %s %s", ErrHandleReleased, op, kind)
}

// closeBestEffort is Close for finalizer and teardown paths: failures go to
// the fault sink instead of the caller.
func (h *NativeHandle) closeBestEffort(op string) {
	if h == nil || !h.closed.CompareAndSwap(false, true) {
		return
	}
	if err := h.Release(); err != nil {
		h.report(op, err)
	}
}

// releaseBestEffort is Release for paths that cannot return an error.
func (h *NativeHandle) releaseBestEffort(op string) {
	if err := h.Release(); err != nil {
		h.report(op, err)
	}
}

func (h *NativeHandle) report(op string, err error) {
	f := Fault{Op: op, Kind: h.kind, Err: err}
	if h.obs != nil {
		h.obs.fault(f)
		return
	}
	defaultFaultSink(f)
}

// use runs fn with the pointer while holding a reference, so a concurrent
// Close cannot free the pointer mid-call. If the reference use drops is the
// last one, the deleter runs here and its error becomes a "release" fault.
func (h *NativeHandle) use(fn func(p RawHandle) error) error {
	if err := h.Retain(); err != nil {
		return err
	}
	defer h.releaseBestEffort("release")
	return fn(native.Handle(h.ptr.Load()))
}

func with[T any](h *NativeHandle, fn func(p RawHandle) (T, error)) (T, error) {
	if err := h.Retain(); err != nil {
		var zero T
		return zero, err
	}
	defer h.releaseBestEffort("release")
	return fn(native.Handle(h.ptr.Load()))
}
