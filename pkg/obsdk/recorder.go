package obsdk

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/orbbec/obsdk-go/internal/native"
)

// Recorder writes frames to a recording file, either fed by WriteFrame or
// tapped from a device's streams.
type Recorder struct {
	lifecycle
	h *NativeHandle

	mu        sync.Mutex
	recording bool
}

// NewRecorder creates a recorder fed through WriteFrame.
func (l *Library) NewRecorder() (*Recorder, error) {
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	h, err := l.create(kindRecorder, l.api.DeleteRecorder, l.api.CreateRecorder)
	if err != nil {
		return nil, err
	}
	return l.wrapRecorder(h), nil
}

// NewRecorderWithDevice creates a recorder that captures dev's streams. The
// recorder keeps the device handle alive until it is closed.
func (l *Library) NewRecorderWithDevice(dev *Device) (*Recorder, error) {
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, fmt.Errorf("%w: nil device", ErrInvalidArgument)
	}
	h, err := borrowFrom(l, dev.h, kindRecorder, l.api.DeleteRecorder, l.api.CreateRecorderWithDevice)
	if err != nil {
		return nil, err
	}
	return l.wrapRecorder(h), nil
}

func (l *Library) wrapRecorder(h *NativeHandle) *Recorder {
	r := &Recorder{lifecycle: lifecycle{lib: l, kind: kindRecorder}, h: h}
	runtime.SetFinalizer(r, (*Recorder).finalize)
	return r
}

// Start opens path for writing. With async set, frames are written on a
// background thread.
func (r *Recorder) Start(path string, async bool) error {
	if path == "" {
		return fmt.Errorf("%w: empty recording path", ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return fmt.Errorf("%w: recorder already started", ErrInvalidArgument)
	}
	err := exec(r.lib, r.h, func(p RawHandle, e *native.ErrorRef) {
		r.lib.api.RecorderStart(p, path, async, e)
	})
	if err != nil {
		return err
	}
	r.recording = true
	r.lib.log.Info(context.Background(), "recording started", "path", path, "async", async)
	return nil
}

// Stop flushes and closes the recording file.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

func (r *Recorder) stopLocked() error {
	if !r.recording {
		return nil
	}
	if err := exec(r.lib, r.h, r.lib.api.RecorderStop); err != nil {
		return err
	}
	r.recording = false
	return nil
}

// WriteFrame appends frame to the recording. The caller keeps ownership of
// frame.
func (r *Recorder) WriteFrame(frame *Frame) error {
	if frame == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalidArgument)
	}
	return frame.h.use(func(fp RawHandle) error {
		return exec(r.lib, r.h, func(p RawHandle, e *native.ErrorRef) {
			r.lib.api.RecorderWriteFrame(p, fp, e)
		})
	})
}

// Close stops recording if needed and releases the recorder.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.closeOnce(r, r.teardown)
}

func (r *Recorder) teardown() error {
	r.mu.Lock()
	err := r.stopLocked()
	r.mu.Unlock()
	return errors.Join(err, r.h.Close())
}

func (r *Recorder) finalize() {
	r.finalizeOnce(r.teardown)
}
