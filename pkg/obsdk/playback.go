package obsdk

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/orbbec/obsdk-go/internal/native"
)

// MediaStateCallback receives playback state changes.
type MediaStateCallback func(state MediaState)

// Playback replays a recording file.
type Playback struct {
	lifecycle
	h      *NativeHandle
	frames *bridge[FrameCallback]
	state  *bridge[MediaStateCallback]

	mu      sync.Mutex
	playing bool
}

// NewPlayback opens the recording at path.
func (l *Library) NewPlayback(path string) (*Playback, error) {
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty playback path", ErrInvalidArgument)
	}
	h, err := l.create(kindPlayback, l.api.DeletePlayback, func(e *native.ErrorRef) native.Handle {
		return l.api.CreatePlayback(path, e)
	})
	if err != nil {
		return nil, err
	}
	pb := &Playback{
		lifecycle: lifecycle{lib: l, kind: kindPlayback},
		h:         h,
		frames:    newBridge[FrameCallback](l, "playback_frame"),
		state:     newBridge[MediaStateCallback](l, "media_state"),
	}
	runtime.SetFinalizer(pb, (*Playback).finalize)
	return pb, nil
}

// Start replays the media types in media, delivering frames to cb.
func (pb *Playback) Start(media MediaType, cb FrameCallback) error {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if pb.playing {
		return fmt.Errorf("%w: playback already started", ErrInvalidArgument)
	}
	if err := pb.frames.set(cb, cb != nil, nil); err != nil {
		return err
	}
	err := exec(pb.lib, pb.h, func(p RawHandle, e *native.ErrorRef) {
		pb.lib.api.PlaybackStart(p, pb.lib.onFrame, pb.frames.token, media, e)
	})
	if err != nil {
		return err
	}
	pb.playing = true
	return nil
}

func (pb *Playback) Stop() error {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.stopLocked()
}

func (pb *Playback) stopLocked() error {
	if !pb.playing {
		return nil
	}
	if err := exec(pb.lib, pb.h, pb.lib.api.PlaybackStop); err != nil {
		return err
	}
	pb.playing = false
	return nil
}

// SetStateCallback installs cb, replacing any earlier callback.
func (pb *Playback) SetStateCallback(cb MediaStateCallback) error {
	return pb.state.set(cb, cb != nil, func(token native.Token) error {
		return exec(pb.lib, pb.h, func(p RawHandle, e *native.ErrorRef) {
			pb.lib.api.PlaybackSetStateCallback(p, pb.lib.onMediaState, token, e)
		})
	})
}

// DeviceInfo describes the device the recording was made with.
func (pb *Playback) DeviceInfo() (*DeviceInfo, error) {
	h, err := derive(pb.lib, pb.h, kindDeviceInfo, pb.lib.api.DeleteDeviceInfo, pb.lib.api.PlaybackGetDeviceInfo)
	if err != nil {
		return nil, err
	}
	return pb.lib.wrapDeviceInfo(h), nil
}

// CameraParam returns the recorded intrinsics and extrinsics.
func (pb *Playback) CameraParam() (CameraParam, error) {
	return query(pb.lib, pb.h, pb.lib.api.PlaybackGetCameraParam)
}

// Close stops replay, unregisters both callbacks and releases the playback.
// Calling Close from inside one of the playback's own callbacks deadlocks.
func (pb *Playback) Close() error {
	if pb == nil {
		return nil
	}
	return pb.closeOnce(pb, pb.teardown)
}

func (pb *Playback) teardown() error {
	pb.mu.Lock()
	err := pb.stopLocked()
	pb.mu.Unlock()
	err = errors.Join(err, pb.frames.shutdown(nil))
	err = errors.Join(err, pb.state.shutdown(func(token native.Token) error {
		return exec(pb.lib, pb.h, func(p RawHandle, e *native.ErrorRef) {
			pb.lib.api.PlaybackSetStateCallback(p, nil, token, e)
		})
	}))
	return errors.Join(err, pb.h.Close())
}

func (pb *Playback) finalize() {
	pb.finalizeOnce(pb.teardown)
}
