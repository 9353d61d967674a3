package obsdk

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/orbbec/obsdk-go/internal/native"
	"github.com/orbbec/obsdk-go/pkg/obsdk/metrics"
)

// waitSlice bounds a single native wait so cancellation is noticed promptly.
const waitSlice = 100 * time.Millisecond

// Pipeline manages stream configuration and synchronized frameset delivery
// for one device.
type Pipeline struct {
	lifecycle
	h      *NativeHandle
	frames *bridge[FramesetCallback]

	mu      sync.Mutex
	running bool
}

// NewPipeline creates a pipeline on the first available device.
func (l *Library) NewPipeline() (*Pipeline, error) {
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	h, err := l.create(kindPipeline, l.api.DeletePipeline, l.api.CreatePipeline)
	if err != nil {
		return nil, err
	}
	return l.wrapPipeline(h), nil
}

// NewPipelineWithDevice creates a pipeline bound to dev. The pipeline keeps
// the device handle alive until it is closed.
func (l *Library) NewPipelineWithDevice(dev *Device) (*Pipeline, error) {
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, fmt.Errorf("%w: nil device", ErrInvalidArgument)
	}
	h, err := borrowFrom(l, dev.h, kindPipeline, l.api.DeletePipeline, l.api.CreatePipelineWithDevice)
	if err != nil {
		return nil, err
	}
	return l.wrapPipeline(h), nil
}

func (l *Library) wrapPipeline(h *NativeHandle) *Pipeline {
	p := &Pipeline{
		lifecycle: lifecycle{lib: l, kind: kindPipeline},
		h:         h,
		frames:    newBridge[FramesetCallback](l, "frameset"),
	}
	runtime.SetFinalizer(p, (*Pipeline).finalize)
	return p
}

// Start streams the device's default configuration.
func (pl *Pipeline) Start() error {
	return pl.start(func() error {
		return exec(pl.lib, pl.h, pl.lib.api.PipelineStart)
	})
}

// StartWithConfig streams the streams enabled in cfg.
func (pl *Pipeline) StartWithConfig(cfg *StreamConfig) error {
	return pl.start(func() error {
		return pl.withConfig(cfg, func(p, cp RawHandle, e *native.ErrorRef) {
			pl.lib.api.PipelineStartWithConfig(p, cp, e)
		})
	})
}

// StartWithCallback streams cfg and pushes framesets to cb instead of the
// wait queue. A nil cfg uses the default configuration.
func (pl *Pipeline) StartWithCallback(cfg *StreamConfig, cb FramesetCallback) error {
	return pl.start(func() error {
		if err := pl.frames.set(cb, cb != nil, nil); err != nil {
			return err
		}
		return pl.withConfig(cfg, func(p, cp RawHandle, e *native.ErrorRef) {
			pl.lib.api.PipelineStartWithCallback(p, cp, pl.lib.onFrameset, pl.frames.token, e)
		})
	})
}

func (pl *Pipeline) start(fn func() error) error {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.running {
		return fmt.Errorf("%w: pipeline already started", ErrInvalidArgument)
	}
	if err := fn(); err != nil {
		return err
	}
	pl.running = true
	pl.lib.log.Debug(context.Background(), "pipeline started")
	return nil
}

func (pl *Pipeline) withConfig(cfg *StreamConfig, op func(p, cp RawHandle, e *native.ErrorRef)) error {
	var ch *NativeHandle
	if cfg != nil {
		ch = cfg.h
	}
	cp, done, err := optionalPtr(ch)
	if err != nil {
		return err
	}
	defer done()
	return exec(pl.lib, pl.h, func(p RawHandle, e *native.ErrorRef) { op(p, cp, e) })
}

// Stop ends streaming. Queued framesets are dropped.
func (pl *Pipeline) Stop() error {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.stopLocked()
}

func (pl *Pipeline) stopLocked() error {
	if !pl.running {
		return nil
	}
	if err := exec(pl.lib, pl.h, pl.lib.api.PipelineStop); err != nil {
		return err
	}
	pl.running = false
	return nil
}

// WaitForFrameset blocks until a frameset arrives, timeout elapses or ctx is
// done. It returns ErrTimeout when nothing arrived in time.
func (pl *Pipeline) WaitForFrameset(ctx context.Context, timeout time.Duration) (*Frameset, error) {
	start := time.Now()
	deadline := start.Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			pl.lib.metrics.RecordFrameWait(metrics.WaitError, time.Since(start))
			return nil, err
		}
		slice := min(time.Until(deadline), waitSlice)
		if slice < time.Millisecond {
			slice = time.Millisecond
		}
		p, err := query(pl.lib, pl.h, func(h RawHandle, e *native.ErrorRef) native.Handle {
			return pl.lib.api.PipelineWaitForFrameset(h, uint32(slice.Milliseconds()), e)
		})
		if err != nil {
			pl.lib.metrics.RecordFrameWait(metrics.WaitError, time.Since(start))
			return nil, err
		}
		if p != 0 {
			pl.lib.metrics.RecordFrameWait(metrics.WaitFrameset, time.Since(start))
			return pl.lib.wrapFrameset(p)
		}
		if !time.Now().Before(deadline) {
			pl.lib.metrics.RecordFrameWait(metrics.WaitTimeout, time.Since(start))
			return nil, fmt.Errorf("%w: no frameset within %s", ErrTimeout, timeout)
		}
	}
}

// Device returns the device the pipeline streams from.
func (pl *Pipeline) Device() (*Device, error) {
	h, err := derive(pl.lib, pl.h, kindDevice, pl.lib.api.DeleteDevice, pl.lib.api.PipelineGetDevice)
	if err != nil {
		return nil, err
	}
	return pl.lib.wrapDevice(h), nil
}

// StreamProfileList lists the profiles of the given sensor.
func (pl *Pipeline) StreamProfileList(t SensorType) (*StreamProfileList, error) {
	h, err := derive(pl.lib, pl.h, kindProfileList, pl.lib.api.DeleteStreamProfileList, func(p RawHandle, e *native.ErrorRef) native.Handle {
		return pl.lib.api.PipelineGetStreamProfileList(p, t, e)
	})
	if err != nil {
		return nil, err
	}
	return pl.lib.wrapStreamProfileList(h), nil
}

func (pl *Pipeline) EnableFrameSync() error {
	return exec(pl.lib, pl.h, pl.lib.api.PipelineEnableFrameSync)
}

func (pl *Pipeline) DisableFrameSync() error {
	return exec(pl.lib, pl.h, pl.lib.api.PipelineDisableFrameSync)
}

// Close stops the pipeline, waits for in-flight frameset callbacks and
// releases it. Calling Close from inside the pipeline's own frameset callback
// deadlocks.
func (pl *Pipeline) Close() error {
	if pl == nil {
		return nil
	}
	return pl.closeOnce(pl, pl.teardown)
}

func (pl *Pipeline) teardown() error {
	pl.mu.Lock()
	err := pl.stopLocked()
	pl.mu.Unlock()
	err = errors.Join(err, pl.frames.shutdown(nil))
	return errors.Join(err, pl.h.Close())
}

func (pl *Pipeline) finalize() {
	pl.finalizeOnce(pl.teardown)
}
