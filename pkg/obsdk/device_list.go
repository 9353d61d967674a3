package obsdk

import (
	"runtime"

	"github.com/orbbec/obsdk-go/internal/native"
)

// DeviceList is a snapshot of enumerated devices.
type DeviceList struct {
	lifecycle
	h *NativeHandle
}

// DeviceEntry describes one list entry without opening the device.
type DeviceEntry struct {
	Index          int
	Name           string
	PID            int32
	VID            int32
	UID            string
	SerialNumber   string
	ConnectionType string
}

func (l *Library) wrapDeviceList(h *NativeHandle) *DeviceList {
	dl := &DeviceList{lifecycle: lifecycle{lib: l, kind: kindDeviceList}, h: h}
	runtime.SetFinalizer(dl, (*DeviceList).finalize)
	return dl
}

// optionalDeviceList wraps p, mapping the null pointer to a nil list.
func (l *Library) optionalDeviceList(p RawHandle) (*DeviceList, error) {
	if p == 0 {
		return nil, nil
	}
	h, err := l.acquire(kindDeviceList, p, l.api.DeleteDeviceList)
	if err != nil {
		return nil, err
	}
	return l.wrapDeviceList(h), nil
}

// Count returns the number of devices in the list. A nil list is empty.
func (dl *DeviceList) Count() (int, error) {
	if dl == nil {
		return 0, nil
	}
	n, err := query(dl.lib, dl.h, dl.lib.api.DeviceListCount)
	return int(n), err
}

func (dl *DeviceList) Name(i int) (string, error) {
	return dl.str(i, dl.lib.api.DeviceListName)
}

func (dl *DeviceList) UID(i int) (string, error) {
	return dl.str(i, dl.lib.api.DeviceListUID)
}

func (dl *DeviceList) SerialNumber(i int) (string, error) {
	return dl.str(i, dl.lib.api.DeviceListSerialNumber)
}

func (dl *DeviceList) ConnectionType(i int) (string, error) {
	return dl.str(i, dl.lib.api.DeviceListConnectionType)
}

func (dl *DeviceList) PID(i int) (int32, error) {
	return query(dl.lib, dl.h, func(p RawHandle, e *native.ErrorRef) int32 {
		return dl.lib.api.DeviceListPID(p, uint32(i), e)
	})
}

func (dl *DeviceList) VID(i int) (int32, error) {
	return query(dl.lib, dl.h, func(p RawHandle, e *native.ErrorRef) int32 {
		return dl.lib.api.DeviceListVID(p, uint32(i), e)
	})
}

func (dl *DeviceList) str(i int, op func(RawHandle, uint32, *native.ErrorRef) string) (string, error) {
	return query(dl.lib, dl.h, func(p RawHandle, e *native.ErrorRef) string {
		return op(p, uint32(i), e)
	})
}

// Describe collects every attribute of entry i.
func (dl *DeviceList) Describe(i int) (DeviceEntry, error) {
	d := DeviceEntry{Index: i}
	var err error
	if d.Name, err = dl.Name(i); err != nil {
		return d, err
	}
	if d.PID, err = dl.PID(i); err != nil {
		return d, err
	}
	if d.VID, err = dl.VID(i); err != nil {
		return d, err
	}
	if d.UID, err = dl.UID(i); err != nil {
		return d, err
	}
	if d.SerialNumber, err = dl.SerialNumber(i); err != nil {
		return d, err
	}
	d.ConnectionType, err = dl.ConnectionType(i)
	return d, err
}

// Entries describes every device in the list.
func (dl *DeviceList) Entries() ([]DeviceEntry, error) {
	n, err := dl.Count()
	if err != nil {
		return nil, err
	}
	out := make([]DeviceEntry, 0, n)
	for i := range n {
		d, err := dl.Describe(i)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Device opens the device at index i.
func (dl *DeviceList) Device(i int) (*Device, error) {
	h, err := derive(dl.lib, dl.h, kindDevice, dl.lib.api.DeleteDevice, func(p RawHandle, e *native.ErrorRef) native.Handle {
		return dl.lib.api.DeviceListGetDevice(p, uint32(i), e)
	})
	if err != nil {
		return nil, err
	}
	return dl.lib.wrapDevice(h), nil
}

// DeviceBySerialNumber opens the device with the given serial number.
func (dl *DeviceList) DeviceBySerialNumber(serial string) (*Device, error) {
	h, err := derive(dl.lib, dl.h, kindDevice, dl.lib.api.DeleteDevice, func(p RawHandle, e *native.ErrorRef) native.Handle {
		return dl.lib.api.DeviceListGetDeviceBySerial(p, serial, e)
	})
	if err != nil {
		return nil, err
	}
	return dl.lib.wrapDevice(h), nil
}

// Close releases the list. Devices opened from it stay valid. Closing a nil
// list is a no-op.
func (dl *DeviceList) Close() error {
	if dl == nil {
		return nil
	}
	return dl.closeOnce(dl, dl.h.Close)
}

func (dl *DeviceList) finalize() {
	dl.finalizeOnce(dl.h.Close)
}
