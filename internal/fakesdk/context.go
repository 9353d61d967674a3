package fakesdk

import (
	"fmt"
	"os"
	"time"

	"github.com/orbbec/obsdk-go/internal/native"
)

type contextData struct {
	fn    native.DeviceChangedFunc
	token native.Token
}

type deviceListData struct {
	units []*unit
}

func (s *SDK) CreateContext(e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("ob_create_context", e) {
		return 0
	}
	h := s.add(KindContext, &contextData{})
	s.contexts[h] = s.objs[h].val.(*contextData)
	return h
}

func (s *SDK) CreateContextWithConfig(path string, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_create_context_with_config"
	if !s.enter(fn, e) {
		return 0
	}
	if _, err := os.Stat(path); err != nil {
		s.fail(e, native.ExceptionIO, fn, "config file: %v", err)
		return 0
	}
	c := &contextData{}
	h := s.add(KindContext, c)
	s.contexts[h] = c
	return h
}

func (s *SDK) DeleteContext(ctx native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_context"
	if !s.enter(fn, e) {
		return
	}
	if _, ok := s.remove(ctx, KindContext, fn, e); ok {
		delete(s.contexts, ctx)
	}
}

func (s *SDK) QueryDeviceList(ctx native.Handle, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_query_device_list"
	if !s.enter(fn, e) {
		return 0
	}
	if _, ok := lookup[*contextData](s, ctx, KindContext, fn, e); !ok {
		return 0
	}
	return s.add(KindDeviceList, &deviceListData{units: s.attachedLocked()})
}

func (s *SDK) attachedLocked() []*unit {
	var out []*unit
	for _, u := range s.units {
		if u.attached {
			out = append(out, u)
		}
	}
	return out
}

func (s *SDK) CreateNetDevice(ctx native.Handle, address string, port uint16, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_create_net_device"
	if !s.enter(fn, e) {
		return 0
	}
	if _, ok := lookup[*contextData](s, ctx, KindContext, fn, e); !ok {
		return 0
	}
	for _, u := range s.units {
		if u.attached && u.spec.Address == address && (port == 0 || u.spec.Port == port) {
			return s.add(KindDevice, &deviceData{u: u})
		}
	}
	s.fail(e, native.ExceptionCameraDisconnected, fn, "no device at %s:%d", address, port)
	return 0
}

func (s *SDK) SetDeviceChangedCallback(ctx native.Handle, cb native.DeviceChangedFunc, token native.Token, e *native.ErrorRef) {
	s.mu.Lock()
	s.bind(token, cb != nil)
	defer s.mu.Unlock()
	const fn = "ob_set_device_changed_callback"
	if !s.enter(fn, e) {
		return
	}
	c, ok := lookup[*contextData](s, ctx, KindContext, fn, e)
	if !ok {
		return
	}
	c.fn, c.token = cb, token
}

func (s *SDK) EnableMultiDeviceSync(ctx native.Handle, repeatIntervalMs uint64, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_enable_device_clock_sync"
	if !s.enter(fn, e) {
		return
	}
	if _, ok := lookup[*contextData](s, ctx, KindContext, fn, e); !ok {
		return
	}
	s.syncPeriod = time.Duration(repeatIntervalMs) * time.Millisecond
	now := time.Now()
	for _, u := range s.attachedLocked() {
		u.clock = now
	}
}

// SyncPeriod returns the interval set through EnableMultiDeviceSync.
func (s *SDK) SyncPeriod() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncPeriod
}

func (s *SDK) DeviceListCount(list native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_list_get_count"
	if !s.enter(fn, e) {
		return 0
	}
	dl, ok := lookup[*deviceListData](s, list, KindDeviceList, fn, e)
	if !ok {
		return 0
	}
	return uint32(len(dl.units))
}

// entry resolves list entry index. The caller holds s.mu.
func (s *SDK) entry(list native.Handle, index uint32, fn string, e *native.ErrorRef) (*unit, bool) {
	if !s.enter(fn, e) {
		return nil, false
	}
	dl, ok := lookup[*deviceListData](s, list, KindDeviceList, fn, e)
	if !ok {
		return nil, false
	}
	if int(index) >= len(dl.units) {
		s.fail(e, native.ExceptionInvalidValue, fn, "index %d out of range [0,%d)", index, len(dl.units))
		return nil, false
	}
	return dl.units[index], true
}

func (s *SDK) DeviceListName(list native.Handle, index uint32, e *native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.entry(list, index, "ob_device_list_get_device_name", e); ok {
		return u.spec.Name
	}
	return ""
}

func (s *SDK) DeviceListPID(list native.Handle, index uint32, e *native.ErrorRef) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.entry(list, index, "ob_device_list_get_device_pid", e); ok {
		return u.spec.PID
	}
	return 0
}

func (s *SDK) DeviceListVID(list native.Handle, index uint32, e *native.ErrorRef) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.entry(list, index, "ob_device_list_get_device_vid", e); ok {
		return u.spec.VID
	}
	return 0
}

func (s *SDK) DeviceListUID(list native.Handle, index uint32, e *native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.entry(list, index, "ob_device_list_get_device_uid", e); ok {
		return u.spec.UID
	}
	return ""
}

func (s *SDK) DeviceListSerialNumber(list native.Handle, index uint32, e *native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.entry(list, index, "ob_device_list_get_device_serial_number", e); ok {
		return u.spec.Serial
	}
	return ""
}

func (s *SDK) DeviceListConnectionType(list native.Handle, index uint32, e *native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.entry(list, index, "ob_device_list_get_device_connection_type", e); ok {
		return u.spec.Connection
	}
	return ""
}

func (s *SDK) DeviceListGetDevice(list native.Handle, index uint32, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_list_get_device"
	u, ok := s.entry(list, index, fn, e)
	if !ok {
		return 0
	}
	if !u.attached {
		s.fail(e, native.ExceptionCameraDisconnected, fn, "device %s is disconnected", u.spec.Serial)
		return 0
	}
	return s.add(KindDevice, &deviceData{u: u})
}

func (s *SDK) DeviceListGetDeviceBySerial(list native.Handle, serial string, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_list_get_device_by_serial_number"
	if !s.enter(fn, e) {
		return 0
	}
	dl, ok := lookup[*deviceListData](s, list, KindDeviceList, fn, e)
	if !ok {
		return 0
	}
	for _, u := range dl.units {
		if u.spec.Serial == serial {
			if !u.attached {
				s.fail(e, native.ExceptionCameraDisconnected, fn, "device %s is disconnected", serial)
				return 0
			}
			return s.add(KindDevice, &deviceData{u: u})
		}
	}
	s.fail(e, native.ExceptionInvalidValue, fn, "no device with serial %q", serial)
	return 0
}

func (s *SDK) DeleteDeviceList(list native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_device_list"
	if !s.enter(fn, e) {
		return
	}
	s.remove(list, KindDeviceList, fn, e)
}

// Attach plugs in a device and notifies every context with a device-changed
// callback. Re-attaching a known serial reconnects that device.
func (s *SDK) Attach(d DeviceSpec) error {
	s.mu.Lock()
	if err := d.normalize(len(s.units)); err != nil {
		s.mu.Unlock()
		return err
	}
	var u *unit
	for _, x := range s.units {
		if x.spec.Serial == d.Serial {
			u = x
		}
	}
	if u == nil {
		u = newUnit(d)
		s.units = append(s.units, u)
	}
	u.attached = true
	s.mu.Unlock()
	s.fireChanged(nil, []*unit{u})
	return nil
}

// Detach unplugs the device with the given serial. Its streams stop and
// later calls on its handles fail with a camera-disconnected error.
func (s *SDK) Detach(serial string) error {
	s.mu.Lock()
	var u *unit
	for _, x := range s.units {
		if x.spec.Serial == serial && x.attached {
			u = x
		}
	}
	if u == nil {
		s.mu.Unlock()
		return fmt.Errorf("fakesdk: no attached device %q", serial)
	}
	u.attached = false
	stops := u.takeStreams()
	s.mu.Unlock()

	for _, st := range stops {
		st.halt()
	}
	s.fireChanged([]*unit{u}, nil)
	return nil
}

// fireChanged hands each registered context its own removed and added
// lists. Empty sides are passed as the null handle.
func (s *SDK) fireChanged(removed, added []*unit) {
	type delivery struct {
		fn    native.DeviceChangedFunc
		token native.Token
		r, a  native.Handle
	}
	s.mu.Lock()
	var ds []delivery
	for _, c := range s.contexts {
		if c.fn == nil {
			continue
		}
		d := delivery{fn: c.fn, token: c.token}
		if len(removed) > 0 {
			d.r = s.add(KindDeviceList, &deviceListData{units: append([]*unit(nil), removed...)})
		}
		if len(added) > 0 {
			d.a = s.add(KindDeviceList, &deviceListData{units: append([]*unit(nil), added...)})
		}
		ds = append(ds, d)
	}
	s.mu.Unlock()

	for _, d := range ds {
		d.fn(d.r, d.a, d.token)
	}
}
