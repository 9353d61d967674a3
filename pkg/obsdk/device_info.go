package obsdk

import "runtime"

// DeviceInfo describes a device.
type DeviceInfo struct {
	lifecycle
	h *NativeHandle
}

// DeviceSnapshot is a plain copy of a DeviceInfo.
type DeviceSnapshot struct {
	Name            string `json:"name" yaml:"name"`
	PID             int32  `json:"pid" yaml:"pid"`
	VID             int32  `json:"vid" yaml:"vid"`
	UID             string `json:"uid" yaml:"uid"`
	SerialNumber    string `json:"serial_number" yaml:"serial_number"`
	FirmwareVersion string `json:"firmware_version" yaml:"firmware_version"`
	HardwareVersion string `json:"hardware_version" yaml:"hardware_version"`
	ConnectionType  string `json:"connection_type" yaml:"connection_type"`
}

func (l *Library) wrapDeviceInfo(h *NativeHandle) *DeviceInfo {
	di := &DeviceInfo{lifecycle: lifecycle{lib: l, kind: kindDeviceInfo}, h: h}
	runtime.SetFinalizer(di, (*DeviceInfo).finalize)
	return di
}

func (di *DeviceInfo) Name() (string, error) {
	return query(di.lib, di.h, di.lib.api.DeviceInfoName)
}

func (di *DeviceInfo) PID() (int32, error) {
	return query(di.lib, di.h, di.lib.api.DeviceInfoPID)
}

func (di *DeviceInfo) VID() (int32, error) {
	return query(di.lib, di.h, di.lib.api.DeviceInfoVID)
}

func (di *DeviceInfo) UID() (string, error) {
	return query(di.lib, di.h, di.lib.api.DeviceInfoUID)
}

func (di *DeviceInfo) SerialNumber() (string, error) {
	return query(di.lib, di.h, di.lib.api.DeviceInfoSerialNumber)
}

func (di *DeviceInfo) FirmwareVersion() (string, error) {
	return query(di.lib, di.h, di.lib.api.DeviceInfoFirmwareVersion)
}

func (di *DeviceInfo) HardwareVersion() (string, error) {
	return query(di.lib, di.h, di.lib.api.DeviceInfoHardwareVersion)
}

func (di *DeviceInfo) ConnectionType() (string, error) {
	return query(di.lib, di.h, di.lib.api.DeviceInfoConnectionType)
}

// Snapshot reads every field.
func (di *DeviceInfo) Snapshot() (DeviceSnapshot, error) {
	var (
		s   DeviceSnapshot
		err error
	)
	strs := []struct {
		dst *string
		get func() (string, error)
	}{
		{&s.Name, di.Name},
		{&s.UID, di.UID},
		{&s.SerialNumber, di.SerialNumber},
		{&s.FirmwareVersion, di.FirmwareVersion},
		{&s.HardwareVersion, di.HardwareVersion},
		{&s.ConnectionType, di.ConnectionType},
	}
	for _, f := range strs {
		if *f.dst, err = f.get(); err != nil {
			return s, err
		}
	}
	if s.PID, err = di.PID(); err != nil {
		return s, err
	}
	s.VID, err = di.VID()
	return s, err
}

func (di *DeviceInfo) Close() error {
	if di == nil {
		return nil
	}
	return di.closeOnce(di, di.h.Close)
}

func (di *DeviceInfo) finalize() {
	di.finalizeOnce(di.h.Close)
}
