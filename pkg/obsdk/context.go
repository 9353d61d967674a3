package obsdk

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/orbbec/obsdk-go/internal/native"
)

// DeviceChangedCallback receives hot-plug events. Either list may be nil. The
// callback owns both lists and must Close them.
type DeviceChangedCallback func(removed, added *DeviceList)

// Context is the SDK entry point for device discovery.
type Context struct {
	lifecycle
	h       *NativeHandle
	changed *bridge[DeviceChangedCallback]
}

// NewContext creates a context with the SDK's default configuration.
func (l *Library) NewContext() (*Context, error) {
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	h, err := l.create(kindContext, l.api.DeleteContext, l.api.CreateContext)
	if err != nil {
		return nil, err
	}
	return l.wrapContext(h), nil
}

// NewContextWithConfig creates a context from an SDK configuration file.
func (l *Library) NewContextWithConfig(path string) (*Context, error) {
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	h, err := l.create(kindContext, l.api.DeleteContext, func(e *native.ErrorRef) native.Handle {
		return l.api.CreateContextWithConfig(path, e)
	})
	if err != nil {
		return nil, err
	}
	return l.wrapContext(h), nil
}

func (l *Library) wrapContext(h *NativeHandle) *Context {
	c := &Context{
		lifecycle: lifecycle{lib: l, kind: kindContext},
		h:         h,
		changed:   newBridge[DeviceChangedCallback](l, "device_changed"),
	}
	runtime.SetFinalizer(c, (*Context).finalize)
	return c
}

// QueryDeviceList enumerates the connected devices.
func (c *Context) QueryDeviceList() (*DeviceList, error) {
	h, err := derive(c.lib, c.h, kindDeviceList, c.lib.api.DeleteDeviceList, c.lib.api.QueryDeviceList)
	if err != nil {
		return nil, err
	}
	return c.lib.wrapDeviceList(h), nil
}

// CreateNetDevice opens a network device by address.
func (c *Context) CreateNetDevice(address string, port uint16) (*Device, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: empty device address", ErrInvalidArgument)
	}
	h, err := derive(c.lib, c.h, kindDevice, c.lib.api.DeleteDevice, func(p RawHandle, e *native.ErrorRef) native.Handle {
		return c.lib.api.CreateNetDevice(p, address, port, e)
	})
	if err != nil {
		return nil, err
	}
	return c.lib.wrapDevice(h), nil
}

// SetDeviceChangedCallback installs cb, replacing any earlier callback. A nil
// cb keeps the registration but releases incoming lists unseen.
func (c *Context) SetDeviceChangedCallback(cb DeviceChangedCallback) error {
	return c.changed.set(cb, cb != nil, func(token native.Token) error {
		return exec(c.lib, c.h, func(p RawHandle, e *native.ErrorRef) {
			c.lib.api.SetDeviceChangedCallback(p, c.lib.onDeviceChanged, token, e)
		})
	})
}

// EnableMultiDeviceSync periodically resynchronises device clocks. A zero
// interval syncs once.
func (c *Context) EnableMultiDeviceSync(interval time.Duration) error {
	if interval < 0 {
		return fmt.Errorf("%w: negative sync interval", ErrInvalidArgument)
	}
	return exec(c.lib, c.h, func(p RawHandle, e *native.ErrorRef) {
		c.lib.api.EnableMultiDeviceSync(p, uint64(interval.Milliseconds()), e)
	})
}

// Close unregisters the device-changed callback, waits for an in-flight
// delivery, and releases the context. Calling Close from inside the context's
// own device-changed callback deadlocks.
func (c *Context) Close() error {
	if c == nil {
		return nil
	}
	return c.closeOnce(c, c.teardown)
}

func (c *Context) teardown() error {
	err := c.changed.shutdown(func(token native.Token) error {
		return exec(c.lib, c.h, func(p RawHandle, e *native.ErrorRef) {
			c.lib.api.SetDeviceChangedCallback(p, nil, token, e)
		})
	})
	return errors.Join(err, c.h.Close())
}

func (c *Context) finalize() {
	c.finalizeOnce(c.teardown)
}
