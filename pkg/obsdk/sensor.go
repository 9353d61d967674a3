package obsdk

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/orbbec/obsdk-go/internal/native"
)

// Sensor streams frames from one sensor of a device.
type Sensor struct {
	lifecycle
	h      *NativeHandle
	frames *bridge[FrameCallback]

	mu        sync.Mutex
	streaming bool
}

func (l *Library) wrapSensor(h *NativeHandle) *Sensor {
	s := &Sensor{
		lifecycle: lifecycle{lib: l, kind: kindSensor},
		h:         h,
		frames:    newBridge[FrameCallback](l, "frame"),
	}
	runtime.SetFinalizer(s, (*Sensor).finalize)
	return s
}

func (s *Sensor) Type() (SensorType, error) {
	return query(s.lib, s.h, s.lib.api.SensorGetType)
}

// StreamProfileList lists the profiles the sensor can stream.
func (s *Sensor) StreamProfileList() (*StreamProfileList, error) {
	h, err := derive(s.lib, s.h, kindProfileList, s.lib.api.DeleteStreamProfileList, s.lib.api.SensorGetStreamProfileList)
	if err != nil {
		return nil, err
	}
	return s.lib.wrapStreamProfileList(h), nil
}

// Start streams profile, delivering frames to cb on SDK threads. cb may be
// swapped by calling Start again only after Stop.
func (s *Sensor) Start(profile *StreamProfile, cb FrameCallback) error {
	if profile == nil {
		return fmt.Errorf("%w: nil stream profile", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaming {
		return fmt.Errorf("%w: sensor already streaming", ErrInvalidArgument)
	}
	if err := s.frames.set(cb, cb != nil, nil); err != nil {
		return err
	}
	err := profile.h.use(func(pp RawHandle) error {
		return exec(s.lib, s.h, func(p RawHandle, e *native.ErrorRef) {
			s.lib.api.SensorStart(p, pp, s.lib.onFrame, s.frames.token, e)
		})
	})
	if err != nil {
		return err
	}
	s.streaming = true
	s.lib.log.Debug(context.Background(), "sensor started")
	return nil
}

// Stop ends streaming. Frames already queued by the SDK may still arrive
// until Stop returns.
func (s *Sensor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Sensor) stopLocked() error {
	if !s.streaming {
		return nil
	}
	if err := exec(s.lib, s.h, s.lib.api.SensorStop); err != nil {
		return err
	}
	s.streaming = false
	return nil
}

// SwitchProfile changes the streamed profile without restarting the
// callback.
func (s *Sensor) SwitchProfile(profile *StreamProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: nil stream profile", ErrInvalidArgument)
	}
	return profile.h.use(func(pp RawHandle) error {
		return exec(s.lib, s.h, func(p RawHandle, e *native.ErrorRef) {
			s.lib.api.SensorSwitchProfile(p, pp, e)
		})
	})
}

// RecommendedFilters returns the post-processing filters the SDK suggests
// for this sensor. The caller owns every filter.
func (s *Sensor) RecommendedFilters() ([]*Filter, error) {
	lh, err := derive(s.lib, s.h, kindFilterList, s.lib.api.DeleteFilterList, s.lib.api.SensorCreateRecommendedFilterList)
	if err != nil {
		return nil, err
	}
	defer lh.closeBestEffort("release")

	n, err := query(s.lib, lh, s.lib.api.FilterListCount)
	if err != nil {
		return nil, err
	}
	out := make([]*Filter, 0, n)
	for i := range n {
		fh, err := derive(s.lib, lh, kindFilter, s.lib.api.DeleteFilter, func(p RawHandle, e *native.ErrorRef) native.Handle {
			return s.lib.api.FilterListGetFilter(p, i, e)
		})
		if err != nil {
			for _, f := range out {
				_ = f.Close()
			}
			return nil, err
		}
		out = append(out, s.lib.wrapFilter(fh))
	}
	return out, nil
}

// Close stops streaming if needed, waits for in-flight frame callbacks and
// releases the sensor. Calling Close from inside the sensor's own frame
// callback deadlocks.
func (s *Sensor) Close() error {
	if s == nil {
		return nil
	}
	return s.closeOnce(s, s.teardown)
}

func (s *Sensor) teardown() error {
	s.mu.Lock()
	err := s.stopLocked()
	s.mu.Unlock()
	err = errors.Join(err, s.frames.shutdown(nil))
	return errors.Join(err, s.h.Close())
}

func (s *Sensor) finalize() {
	s.finalizeOnce(s.teardown)
}
