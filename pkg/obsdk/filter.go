package obsdk

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/orbbec/obsdk-go/internal/native"
)

// Filter is a post-processing stage. Process runs it synchronously;
// SetCallback plus PushFrame runs it in push mode.
type Filter struct {
	lifecycle
	h      *NativeHandle
	frames *bridge[FrameCallback]
}

// NewFilter creates a filter by its SDK name, e.g. "DecimationFilter".
func (l *Library) NewFilter(name string) (*Filter, error) {
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty filter name", ErrInvalidArgument)
	}
	h, err := l.create(kindFilter, l.api.DeleteFilter, func(e *native.ErrorRef) native.Handle {
		return l.api.CreateFilter(name, e)
	})
	if err != nil {
		return nil, err
	}
	return l.wrapFilter(h), nil
}

func (l *Library) wrapFilter(h *NativeHandle) *Filter {
	f := &Filter{
		lifecycle: lifecycle{lib: l, kind: kindFilter},
		h:         h,
		frames:    newBridge[FrameCallback](l, "filter_frame"),
	}
	runtime.SetFinalizer(f, (*Filter).finalize)
	return f
}

func (f *Filter) Name() (string, error) {
	return query(f.lib, f.h, f.lib.api.FilterName)
}

// Process runs the filter on frame and returns a new frame owned by the
// caller. The input frame is left untouched.
func (f *Filter) Process(frame *Frame) (*Frame, error) {
	if frame == nil {
		return nil, fmt.Errorf("%w: nil frame", ErrInvalidArgument)
	}
	return with(frame.h, func(fp RawHandle) (*Frame, error) {
		h, err := derive(f.lib, f.h, kindFrame, f.lib.api.DeleteFrame, func(p RawHandle, e *native.ErrorRef) native.Handle {
			return f.lib.api.FilterProcess(p, fp, e)
		})
		if err != nil {
			return nil, err
		}
		return newFrame(f.lib, h), nil
	})
}

func (f *Filter) Enable(enable bool) error {
	return exec(f.lib, f.h, func(p RawHandle, e *native.ErrorRef) {
		f.lib.api.FilterEnable(p, enable, e)
	})
}

func (f *Filter) IsEnabled() (bool, error) {
	return query(f.lib, f.h, f.lib.api.FilterIsEnabled)
}

// Reset clears the filter's internal state.
func (f *Filter) Reset() error {
	return exec(f.lib, f.h, f.lib.api.FilterReset)
}

// SetCallback installs the push-mode output callback, replacing any earlier
// one.
func (f *Filter) SetCallback(cb FrameCallback) error {
	return f.frames.set(cb, cb != nil, func(token native.Token) error {
		return exec(f.lib, f.h, func(p RawHandle, e *native.ErrorRef) {
			f.lib.api.FilterSetCallback(p, f.lib.onFrame, token, e)
		})
	})
}

// PushFrame feeds frame to the filter in push mode. The caller keeps
// ownership of frame.
func (f *Filter) PushFrame(frame *Frame) error {
	if frame == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalidArgument)
	}
	return frame.h.use(func(fp RawHandle) error {
		return exec(f.lib, f.h, func(p RawHandle, e *native.ErrorRef) {
			f.lib.api.FilterPushFrame(p, fp, e)
		})
	})
}

// ConfigSchema describes the filter's tunable values.
func (f *Filter) ConfigSchema() ([]FilterConfigSchemaItem, error) {
	lh, err := derive(f.lib, f.h, kindSchemaList, f.lib.api.DeleteFilterConfigSchemaList, f.lib.api.FilterGetConfigSchemaList)
	if err != nil {
		return nil, err
	}
	defer lh.closeBestEffort("release")

	n, err := query(f.lib, lh, f.lib.api.FilterConfigSchemaListCount)
	if err != nil {
		return nil, err
	}
	out := make([]FilterConfigSchemaItem, 0, n)
	for i := range n {
		it, err := query(f.lib, lh, func(p RawHandle, e *native.ErrorRef) FilterConfigSchemaItem {
			return f.lib.api.FilterConfigSchemaListGetItem(p, i, e)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

func (f *Filter) SetConfigValue(name string, v float64) error {
	return exec(f.lib, f.h, func(p RawHandle, e *native.ErrorRef) {
		f.lib.api.FilterSetConfigValue(p, name, v, e)
	})
}

func (f *Filter) ConfigValue(name string) (float64, error) {
	return query(f.lib, f.h, func(p RawHandle, e *native.ErrorRef) float64 {
		return f.lib.api.FilterGetConfigValue(p, name, e)
	})
}

// Close unregisters the push-mode callback, waits for in-flight deliveries
// and releases the filter. Calling Close from inside the filter's own
// callback deadlocks.
func (f *Filter) Close() error {
	if f == nil {
		return nil
	}
	return f.closeOnce(f, f.teardown)
}

func (f *Filter) teardown() error {
	err := f.frames.shutdown(func(token native.Token) error {
		return exec(f.lib, f.h, func(p RawHandle, e *native.ErrorRef) {
			f.lib.api.FilterSetCallback(p, nil, token, e)
		})
	})
	return errors.Join(err, f.h.Close())
}

func (f *Filter) finalize() {
	f.finalizeOnce(f.teardown)
}
