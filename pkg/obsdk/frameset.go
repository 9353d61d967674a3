package obsdk

import (
	"runtime"

	"github.com/orbbec/obsdk-go/internal/native"
)

// FramesetCallback receives framesets from a pipeline. The callback owns the
// frameset and must Close it.
type FramesetCallback func(fs *Frameset)

// Frameset bundles the frames captured in one acquisition cycle.
type Frameset struct {
	frameCore
}

func (l *Library) wrapFrameset(p RawHandle) (*Frameset, error) {
	h, err := l.acquire(kindFrameset, p, l.api.DeleteFrame)
	if err != nil {
		return nil, err
	}
	fs := &Frameset{frameCore{lifecycle: lifecycle{lib: l, kind: kindFrameset}, h: h}}
	runtime.SetFinalizer(fs, (*Frameset).finalize)
	return fs, nil
}

// Count returns the number of frames in the set.
func (fs *Frameset) Count() (int, error) {
	n, err := query(fs.lib, fs.h, fs.lib.api.FramesetFrameCount)
	return int(n), err
}

// Frame returns the member frame of type t, or nil when the set carries
// none. The returned frame keeps the frameset alive until it is closed.
func (fs *Frameset) Frame(t FrameType) (*Frame, error) {
	p, err := query(fs.lib, fs.h, func(p RawHandle, e *native.ErrorRef) native.Handle {
		return fs.lib.api.FramesetGetFrame(p, t, e)
	})
	if err != nil || p == 0 {
		return nil, err
	}
	h, err := fs.h.Borrow(kindFrame, p, fs.lib.deleter(fs.lib.api.DeleteFrame))
	if err != nil {
		return nil, err
	}
	return newFrame(fs.lib, h), nil
}

func (fs *Frameset) DepthFrame() (*Frame, error) { return fs.Frame(FrameDepth) }
func (fs *Frameset) ColorFrame() (*Frame, error) { return fs.Frame(FrameColor) }
func (fs *Frameset) IRFrame() (*Frame, error)    { return fs.Frame(FrameIR) }
func (fs *Frameset) AccelFrame() (*Frame, error) { return fs.Frame(FrameAccel) }
func (fs *Frameset) GyroFrame() (*Frame, error)  { return fs.Frame(FrameGyro) }

// Handle exposes the underlying handle.
func (fs *Frameset) Handle() *NativeHandle { return fs.h }

// Close releases the frameset. Member frames obtained earlier stay valid.
func (fs *Frameset) Close() error {
	if fs == nil {
		return nil
	}
	return fs.closeOnce(fs, fs.h.Close)
}

func (fs *Frameset) finalize() {
	fs.finalizeOnce(fs.h.Close)
}
