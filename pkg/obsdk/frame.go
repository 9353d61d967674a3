package obsdk

import (
	"runtime"
	"time"

	"github.com/orbbec/obsdk-go/internal/native"
)

// FrameCallback receives frames from a sensor, filter or playback. The
// callback owns the frame and must Close it, or hand it to something that
// will.
type FrameCallback func(f *Frame)

// frameCore holds the accessors shared by Frame and Frameset.
type frameCore struct {
	lifecycle
	h *NativeHandle
}

// Index returns the frame sequence number.
func (f *frameCore) Index() (uint64, error) {
	return query(f.lib, f.h, f.lib.api.FrameIndex)
}

func (f *frameCore) Format() (Format, error) {
	return query(f.lib, f.h, f.lib.api.FrameFormat)
}

func (f *frameCore) Type() (FrameType, error) {
	return query(f.lib, f.h, f.lib.api.FrameType)
}

// Timestamp returns the device timestamp.
func (f *frameCore) Timestamp() (time.Duration, error) {
	us, err := query(f.lib, f.h, f.lib.api.FrameTimestampUs)
	return time.Duration(us) * time.Microsecond, err
}

// SystemTimestamp returns the host timestamp taken when the frame arrived.
func (f *frameCore) SystemTimestamp() (time.Duration, error) {
	us, err := query(f.lib, f.h, f.lib.api.FrameSystemTimestampUs)
	return time.Duration(us) * time.Microsecond, err
}

// DataSize returns the payload size in bytes.
func (f *frameCore) DataSize() (int, error) {
	n, err := query(f.lib, f.h, f.lib.api.FrameDataSize)
	return int(n), err
}

// Data returns a copy of the payload. The copy stays valid after Close.
func (f *frameCore) Data() ([]byte, error) {
	return with(f.h, func(p RawHandle) ([]byte, error) {
		n, err := call(f.lib, func(e *native.ErrorRef) uint32 { return f.lib.api.FrameDataSize(p, e) })
		if err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		got, err := call(f.lib, func(e *native.ErrorRef) uint32 { return f.lib.api.FrameData(p, buf, e) })
		if err != nil {
			return nil, err
		}
		return buf[:got], nil
	})
}

// CopyData copies the payload into dst and returns the number of bytes
// copied. A short dst truncates the copy.
func (f *frameCore) CopyData(dst []byte) (int, error) {
	n, err := query(f.lib, f.h, func(p RawHandle, e *native.ErrorRef) uint32 {
		return f.lib.api.FrameData(p, dst, e)
	})
	return int(n), err
}

// Width is only meaningful for video frames.
func (f *frameCore) Width() (int, error) {
	n, err := query(f.lib, f.h, f.lib.api.VideoFrameWidth)
	return int(n), err
}

// Height is only meaningful for video frames.
func (f *frameCore) Height() (int, error) {
	n, err := query(f.lib, f.h, f.lib.api.VideoFrameHeight)
	return int(n), err
}

// Frame is one captured frame.
type Frame struct {
	frameCore
}

func (l *Library) wrapFrame(p RawHandle) (*Frame, error) {
	h, err := l.acquire(kindFrame, p, l.api.DeleteFrame)
	if err != nil {
		return nil, err
	}
	return newFrame(l, h), nil
}

func newFrame(l *Library, h *NativeHandle) *Frame {
	f := &Frame{frameCore{lifecycle: lifecycle{lib: l, kind: kindFrame}, h: h}}
	runtime.SetFinalizer(f, (*Frame).finalize)
	return f
}

// Retain returns a second owner of the same native frame. Each owner must be
// closed.
func (f *Frame) Retain() (*Frame, error) {
	return with(f.h, func(p RawHandle) (*Frame, error) {
		if err := call0(f.lib, func(e *native.ErrorRef) { f.lib.api.FrameAddRef(p, e) }); err != nil {
			return nil, err
		}
		return f.lib.wrapFrame(p)
	})
}

// Handle exposes the underlying handle.
func (f *Frame) Handle() *NativeHandle { return f.h }

// Close releases the frame.
func (f *Frame) Close() error {
	if f == nil {
		return nil
	}
	return f.closeOnce(f, f.h.Close)
}

func (f *Frame) finalize() {
	f.finalizeOnce(f.h.Close)
}
