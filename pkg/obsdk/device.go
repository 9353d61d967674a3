package obsdk

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/orbbec/obsdk-go/internal/native"
	"github.com/orbbec/obsdk-go/pkg/obsdk/logging"
)

// DeviceState is the SDK's device state bit set.
type DeviceState uint64

// DeviceStateCallback receives device state changes.
type DeviceStateCallback func(state DeviceState, message string)

// UpgradeCallback receives firmware upgrade progress.
type UpgradeCallback func(state UpgradeState, message string, percent uint8)

// DataTransferCallback receives raw data transfer progress.
type DataTransferCallback func(state DataTranState, percent uint8)

// Device is an opened camera.
type Device struct {
	lifecycle
	h       *NativeHandle
	state   *bridge[DeviceStateCallback]
	upgrade *bridge[UpgradeCallback]
	rawData *bridge[DataTransferCallback]
}

func (l *Library) wrapDevice(h *NativeHandle) *Device {
	d := &Device{
		lifecycle: lifecycle{lib: l, kind: kindDevice},
		h:         h,
		state:     newBridge[DeviceStateCallback](l, "device_state"),
		upgrade:   newBridge[UpgradeCallback](l, "upgrade"),
		rawData:   newBridge[DataTransferCallback](l, "data_transfer"),
	}
	runtime.SetFinalizer(d, (*Device).finalize)
	return d
}

// Handle exposes the underlying handle.
func (d *Device) Handle() *NativeHandle { return d.h }

// Info returns the device description.
func (d *Device) Info() (*DeviceInfo, error) {
	h, err := derive(d.lib, d.h, kindDeviceInfo, d.lib.api.DeleteDeviceInfo, d.lib.api.DeviceGetInfo)
	if err != nil {
		return nil, err
	}
	return d.lib.wrapDeviceInfo(h), nil
}

// SensorList lists the device's sensors.
func (d *Device) SensorList() (*SensorList, error) {
	h, err := derive(d.lib, d.h, kindSensorList, d.lib.api.DeleteSensorList, d.lib.api.DeviceGetSensorList)
	if err != nil {
		return nil, err
	}
	return d.lib.wrapSensorList(h), nil
}

// Sensor opens the sensor of type t.
func (d *Device) Sensor(t SensorType) (*Sensor, error) {
	h, err := derive(d.lib, d.h, kindSensor, d.lib.api.DeleteSensor, func(p RawHandle, e *native.ErrorRef) native.Handle {
		return d.lib.api.DeviceGetSensor(p, t, e)
	})
	if err != nil {
		return nil, err
	}
	return d.lib.wrapSensor(h), nil
}

// State returns the current device state.
func (d *Device) State() (DeviceState, error) {
	s, err := query(d.lib, d.h, d.lib.api.DeviceGetState)
	return DeviceState(s), err
}

// SetStateChangedCallback installs cb, replacing any earlier callback.
func (d *Device) SetStateChangedCallback(cb DeviceStateCallback) error {
	return d.state.set(cb, cb != nil, func(token native.Token) error {
		return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
			d.lib.api.DeviceSetStateChangedCallback(p, d.lib.onDeviceState, token, e)
		})
	})
}

// Upgrade flashes the firmware image at path. With async set, Upgrade
// returns once the transfer starts and cb keeps receiving progress until the
// upgrade ends or the device is closed.
func (d *Device) Upgrade(path string, async bool, cb UpgradeCallback) error {
	if path == "" {
		return fmt.Errorf("%w: empty firmware path", ErrInvalidArgument)
	}
	if err := d.upgrade.set(cb, cb != nil, nil); err != nil {
		return err
	}
	d.lib.log.Info(context.Background(), "firmware upgrade", "path", path, "async", async)
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceUpgrade(p, path, d.lib.onUpgrade, async, d.upgrade.token, e)
	})
}

// UpgradeFromData flashes an in-memory firmware image.
func (d *Device) UpgradeFromData(image []byte, async bool, cb UpgradeCallback) error {
	if len(image) == 0 {
		return fmt.Errorf("%w: empty firmware image", ErrInvalidArgument)
	}
	if err := d.upgrade.set(cb, cb != nil, nil); err != nil {
		return err
	}
	d.lib.log.Info(context.Background(), "firmware upgrade", logging.Payload("image", image), "async", async)
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceUpgradeFromData(p, image, d.lib.onUpgrade, async, d.upgrade.token, e)
	})
}

// SetRawData sends an opaque payload for property id, reporting progress to
// cb.
func (d *Device) SetRawData(id PropertyID, data []byte, async bool, cb DataTransferCallback) error {
	if err := d.rawData.set(cb, cb != nil, nil); err != nil {
		return err
	}
	d.lib.log.Debug(context.Background(), "raw data transfer", "property", int32(id), logging.Payload("data", data))
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceSetRawData(p, id, data, d.lib.onDataTransfer, async, d.rawData.token, e)
	})
}

// Reboot restarts the device. The handle is unusable afterwards and should
// be closed; the device reappears through the device-changed callback.
func (d *Device) Reboot() error {
	return exec(d.lib, d.h, d.lib.api.DeviceReboot)
}

// TimestampReset resets the device clock.
func (d *Device) TimestampReset() error {
	return exec(d.lib, d.h, d.lib.api.DeviceTimestampReset)
}

func (d *Device) EnableHeartbeat(enable bool) error {
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceEnableHeartbeat(p, enable, e)
	})
}

// CurrentPresetName returns the active preset.
func (d *Device) CurrentPresetName() (string, error) {
	return query(d.lib, d.h, d.lib.api.DeviceGetCurrentPresetName)
}

func (d *Device) LoadPreset(name string) error {
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceLoadPreset(p, name, e)
	})
}

// LoadPresetFromJSONData loads a preset from JSON and registers it as name.
func (d *Device) LoadPresetFromJSONData(name string, data []byte) error {
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceLoadPresetFromJSONData(p, name, data, e)
	})
}

// PresetList lists the presets the device offers.
func (d *Device) PresetList() (*PresetList, error) {
	h, err := derive(d.lib, d.h, kindPresetList, d.lib.api.DeletePresetList, d.lib.api.DeviceGetAvailablePresetList)
	if err != nil {
		return nil, err
	}
	return d.lib.wrapPresetList(h), nil
}

// LoadPresetFromJSONFile loads a preset file. The SDK names the preset after
// the file.
func (d *Device) LoadPresetFromJSONFile(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty preset path", ErrInvalidArgument)
	}
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceLoadPresetFromJSONFile(p, path, e)
	})
}

// ExportSettingsAsPresetJSONFile writes the current settings to path as a
// preset file.
func (d *Device) ExportSettingsAsPresetJSONFile(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty preset path", ErrInvalidArgument)
	}
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceExportSettingsAsPresetJSONFile(p, path, e)
	})
}

// ExportSettingsAsPresetJSONData returns the current settings as preset JSON
// under name. The result can be fed back to LoadPresetFromJSONData.
func (d *Device) ExportSettingsAsPresetJSONData(name string) ([]byte, error) {
	return query(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) []byte {
		return d.lib.api.DeviceExportSettingsAsPresetJSONData(p, name, e)
	})
}

// CurrentDepthWorkMode returns the active depth work mode.
func (d *Device) CurrentDepthWorkMode() (DepthWorkMode, error) {
	return query(d.lib, d.h, d.lib.api.DeviceGetCurrentDepthWorkMode)
}

func (d *Device) CurrentDepthWorkModeName() (string, error) {
	return query(d.lib, d.h, d.lib.api.DeviceGetCurrentDepthWorkModeName)
}

// SwitchDepthWorkMode selects mode, which must come from DepthWorkModeList.
// The SDK matches modes by checksum.
func (d *Device) SwitchDepthWorkMode(mode DepthWorkMode) error {
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceSwitchDepthWorkMode(p, mode, e)
	})
}

// SwitchDepthWorkModeByName selects the mode whose Name equals name.
func (d *Device) SwitchDepthWorkModeByName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty depth work mode name", ErrInvalidArgument)
	}
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceSwitchDepthWorkModeByName(p, name, e)
	})
}

func (d *Device) DepthWorkModeList() (*DepthWorkModeList, error) {
	h, err := derive(d.lib, d.h, kindDepthModes, d.lib.api.DeleteDepthWorkModeList, d.lib.api.DeviceGetDepthWorkModeList)
	if err != nil {
		return nil, err
	}
	return d.lib.wrapDepthWorkModeList(h), nil
}

// CalibrationCameraParamList returns the calibration parameters stored on
// the device. Most callers want the pipeline's camera parameters instead.
func (d *Device) CalibrationCameraParamList() (*CameraParamList, error) {
	h, err := derive(d.lib, d.h, kindParamList, d.lib.api.DeleteCameraParamList, d.lib.api.DeviceGetCalibrationCameraParamList)
	if err != nil {
		return nil, err
	}
	return d.lib.wrapCameraParamList(h), nil
}

// SupportedMultiDeviceSyncModes returns the sync modes the device accepts as
// a bit set.
func (d *Device) SupportedMultiDeviceSyncModes() (MultiDeviceSyncMode, error) {
	v, err := query(d.lib, d.h, d.lib.api.DeviceGetSupportedMultiDeviceSyncModeBitmap)
	return MultiDeviceSyncMode(v), err
}

// TriggerCapture fires one software trigger. The device must be configured
// for SyncSoftwareTriggering.
func (d *Device) TriggerCapture() error {
	return exec(d.lib, d.h, d.lib.api.DeviceTriggerCapture)
}

// TimerSyncWithHost aligns the device clock with the host clock.
func (d *Device) TimerSyncWithHost() error {
	return exec(d.lib, d.h, d.lib.api.DeviceTimerSyncWithHost)
}

func (d *Device) GlobalTimestampSupported() (bool, error) {
	return query(d.lib, d.h, d.lib.api.DeviceIsGlobalTimestampSupported)
}

// EnableGlobalTimestamp switches frames to the global timestamp. Devices
// without support fail with ErrUnsupported.
func (d *Device) EnableGlobalTimestamp(enable bool) error {
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceEnableGlobalTimestamp(p, enable, e)
	})
}

// ExtensionInfoExists reports whether the device carries extension info
// under key.
func (d *Device) ExtensionInfoExists(key string) (bool, error) {
	return query(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) bool {
		return d.lib.api.DeviceIsExtensionInfoExist(p, key, e)
	})
}

func (d *Device) ExtensionInfo(key string) (string, error) {
	return query(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) string {
		return d.lib.api.DeviceGetExtensionInfo(p, key, e)
	})
}

// Close unregisters the state callback, waits for in-flight callbacks and
// releases the device. Calling Close from inside one of the device's own
// callbacks deadlocks.
func (d *Device) Close() error {
	if d == nil {
		return nil
	}
	return d.closeOnce(d, d.teardown)
}

func (d *Device) teardown() error {
	err := d.state.shutdown(func(token native.Token) error {
		return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
			d.lib.api.DeviceSetStateChangedCallback(p, nil, token, e)
		})
	})
	err = errors.Join(err, d.upgrade.shutdown(nil), d.rawData.shutdown(nil))
	return errors.Join(err, d.h.Close())
}

func (d *Device) finalize() {
	d.finalizeOnce(d.teardown)
}
