package obsdk

import (
	"fmt"
	"runtime"

	"github.com/orbbec/obsdk-go/internal/native"
)

// StreamConfig selects the streams a pipeline starts.
type StreamConfig struct {
	lifecycle
	h *NativeHandle
}

// NewStreamConfig creates an empty stream configuration.
func (l *Library) NewStreamConfig() (*StreamConfig, error) {
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	h, err := l.create(kindStreamConfig, l.api.DeleteConfig, l.api.CreateConfig)
	if err != nil {
		return nil, err
	}
	c := &StreamConfig{lifecycle: lifecycle{lib: l, kind: kindStreamConfig}, h: h}
	runtime.SetFinalizer(c, (*StreamConfig).finalize)
	return c, nil
}

// EnableStream adds profile to the configuration.
func (c *StreamConfig) EnableStream(profile *StreamProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: nil stream profile", ErrInvalidArgument)
	}
	return profile.h.use(func(pp RawHandle) error {
		return exec(c.lib, c.h, func(p RawHandle, e *native.ErrorRef) {
			c.lib.api.ConfigEnableStream(p, pp, e)
		})
	})
}

func (c *StreamConfig) DisableStream(t StreamType) error {
	return exec(c.lib, c.h, func(p RawHandle, e *native.ErrorRef) {
		c.lib.api.ConfigDisableStream(p, t, e)
	})
}

func (c *StreamConfig) DisableAllStreams() error {
	return exec(c.lib, c.h, c.lib.api.ConfigDisableAllStream)
}

func (c *StreamConfig) SetAlignMode(mode AlignMode) error {
	return exec(c.lib, c.h, func(p RawHandle, e *native.ErrorRef) {
		c.lib.api.ConfigSetAlignMode(p, mode, e)
	})
}

func (c *StreamConfig) Close() error {
	if c == nil {
		return nil
	}
	return c.closeOnce(c, c.h.Close)
}

func (c *StreamConfig) finalize() {
	c.finalizeOnce(c.h.Close)
}
