package obsdk

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/orbbec/obsdk-go/internal/native"
)

func (d *Device) SetIntProperty(id PropertyID, v int32) error {
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceSetIntProperty(p, id, v, e)
	})
}

func (d *Device) IntProperty(id PropertyID) (int32, error) {
	return query(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) int32 {
		return d.lib.api.DeviceGetIntProperty(p, id, e)
	})
}

func (d *Device) SetFloatProperty(id PropertyID, v float32) error {
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceSetFloatProperty(p, id, v, e)
	})
}

func (d *Device) FloatProperty(id PropertyID) (float32, error) {
	return query(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) float32 {
		return d.lib.api.DeviceGetFloatProperty(p, id, e)
	})
}

func (d *Device) SetBoolProperty(id PropertyID, v bool) error {
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceSetBoolProperty(p, id, v, e)
	})
}

func (d *Device) BoolProperty(id PropertyID) (bool, error) {
	return query(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) bool {
		return d.lib.api.DeviceGetBoolProperty(p, id, e)
	})
}

// IsPropertySupported reports whether id can be accessed with perm.
func (d *Device) IsPropertySupported(id PropertyID, perm PermissionType) (bool, error) {
	return query(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) bool {
		return d.lib.api.DeviceIsPropertySupported(p, id, perm, e)
	})
}

func (d *Device) IntPropertyRange(id PropertyID) (IntRange, error) {
	return query(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) IntRange {
		return d.lib.api.DeviceGetIntPropertyRange(p, id, e)
	})
}

func (d *Device) FloatPropertyRange(id PropertyID) (FloatRange, error) {
	return query(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) FloatRange {
		return d.lib.api.DeviceGetFloatPropertyRange(p, id, e)
	})
}

func (d *Device) BoolPropertyRange(id PropertyID) (BoolRange, error) {
	return query(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) BoolRange {
		return d.lib.api.DeviceGetBoolPropertyRange(p, id, e)
	})
}

func (d *Device) SupportedPropertyCount() (int, error) {
	n, err := query(d.lib, d.h, d.lib.api.DeviceGetSupportedPropertyCount)
	return int(n), err
}

func (d *Device) SupportedProperty(i int) (PropertyItem, error) {
	return query(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) PropertyItem {
		return d.lib.api.DeviceGetSupportedProperty(p, uint32(i), e)
	})
}

// SupportedProperties enumerates every property the device exposes.
func (d *Device) SupportedProperties() ([]PropertyItem, error) {
	n, err := d.SupportedPropertyCount()
	if err != nil {
		return nil, err
	}
	out := make([]PropertyItem, 0, n)
	for i := range n {
		it, err := d.SupportedProperty(i)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

// SetStructuredData writes a raw structured property.
func (d *Device) SetStructuredData(id PropertyID, data []byte) error {
	return exec(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) {
		d.lib.api.DeviceSetStructuredData(p, id, data, e)
	})
}

// maxStructuredSize bounds the scratch buffer for structured reads.
const maxStructuredSize = 1024

// StructuredData reads a raw structured property.
func (d *Device) StructuredData(id PropertyID) ([]byte, error) {
	buf := make([]byte, maxStructuredSize)
	n, err := query(d.lib, d.h, func(p RawHandle, e *native.ErrorRef) uint32 {
		return d.lib.api.DeviceGetStructuredData(p, id, buf, e)
	})
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Codec maps a structured property to a Go value. Size is the exact payload
// length the device uses.
type Codec[T any] struct {
	ID     PropertyID
	Size   int
	Encode func(v T) []byte
	Decode func(b []byte) (T, error)
}

// SetStructured encodes v with c and writes it to the device.
func SetStructured[T any](d *Device, c Codec[T], v T) error {
	b := c.Encode(v)
	if len(b) != c.Size {
		return fmt.Errorf("%w: property %d encoded %d bytes, want %d", ErrPayloadSize, c.ID, len(b), c.Size)
	}
	return d.SetStructuredData(c.ID, b)
}

// GetStructured reads property c.ID and decodes it. Payloads whose length
// differs from c.Size are rejected.
func GetStructured[T any](d *Device, c Codec[T]) (T, error) {
	var zero T
	b, err := d.StructuredData(c.ID)
	if err != nil {
		return zero, err
	}
	if len(b) != c.Size {
		return zero, fmt.Errorf("%w: property %d returned %d bytes, want %d", ErrPayloadSize, c.ID, len(b), c.Size)
	}
	return c.Decode(b)
}

// fixedCodec builds a codec for a wire struct whose Go layout matches the
// device layout byte for byte.
func fixedCodec[T, W any](id PropertyID, size int, toWire func(T) W, fromWire func(W) T) Codec[T] {
	return Codec[T]{
		ID:   id,
		Size: size,
		Encode: func(v T) []byte {
			b, err := binary.Append(make([]byte, 0, size), binary.LittleEndian, toWire(v))
			if err != nil {
				return nil
			}
			return b
		},
		Decode: func(b []byte) (T, error) {
			var w W
			if _, err := binary.Decode(b, binary.LittleEndian, &w); err != nil {
				var zero T
				return zero, fmt.Errorf("%w: %v", ErrPayloadSize, err)
			}
			return fromWire(w), nil
		},
	}
}

// MultiDeviceSyncMode selects how a device takes part in multi-device sync.
type MultiDeviceSyncMode uint32

const (
	SyncFreeRun            MultiDeviceSyncMode = 1 << 0
	SyncStandalone         MultiDeviceSyncMode = 1 << 1
	SyncPrimary            MultiDeviceSyncMode = 1 << 2
	SyncSecondary          MultiDeviceSyncMode = 1 << 3
	SyncSecondarySynced    MultiDeviceSyncMode = 1 << 4
	SyncSoftwareTriggering MultiDeviceSyncMode = 1 << 5
	SyncHardwareTriggering MultiDeviceSyncMode = 1 << 6
)

// MultiDeviceSyncConfig is the device's sync configuration. Delays are in
// microseconds.
type MultiDeviceSyncConfig struct {
	Mode                 MultiDeviceSyncMode
	DepthDelayUs         int32
	ColorDelayUs         int32
	Trigger2ImageDelayUs int32
	TriggerOutEnable     bool
	TriggerOutDelayUs    int32
	FramesPerTrigger     int32
}

const MultiDeviceSyncConfigSize = 28

type multiDeviceSyncWire struct {
	Mode                 uint32
	DepthDelayUs         int32
	ColorDelayUs         int32
	Trigger2ImageDelayUs int32
	TriggerOutEnable     bool
	_                    [3]byte
	TriggerOutDelayUs    int32
	FramesPerTrigger     int32
}

var (
	_ [unsafe.Sizeof(multiDeviceSyncWire{}) - MultiDeviceSyncConfigSize]struct{}
	_ [MultiDeviceSyncConfigSize - unsafe.Sizeof(multiDeviceSyncWire{})]struct{}
)

var MultiDeviceSyncCodec = fixedCodec(native.StructMultiDeviceSync, MultiDeviceSyncConfigSize,
	func(c MultiDeviceSyncConfig) multiDeviceSyncWire {
		return multiDeviceSyncWire{
			Mode:                 uint32(c.Mode),
			DepthDelayUs:         c.DepthDelayUs,
			ColorDelayUs:         c.ColorDelayUs,
			Trigger2ImageDelayUs: c.Trigger2ImageDelayUs,
			TriggerOutEnable:     c.TriggerOutEnable,
			TriggerOutDelayUs:    c.TriggerOutDelayUs,
			FramesPerTrigger:     c.FramesPerTrigger,
		}
	},
	func(w multiDeviceSyncWire) MultiDeviceSyncConfig {
		return MultiDeviceSyncConfig{
			Mode:                 MultiDeviceSyncMode(w.Mode),
			DepthDelayUs:         w.DepthDelayUs,
			ColorDelayUs:         w.ColorDelayUs,
			Trigger2ImageDelayUs: w.Trigger2ImageDelayUs,
			TriggerOutEnable:     w.TriggerOutEnable,
			TriggerOutDelayUs:    w.TriggerOutDelayUs,
			FramesPerTrigger:     w.FramesPerTrigger,
		}
	})

// DeviceTemperature reports sensor temperatures in degrees Celsius.
type DeviceTemperature struct {
	CPU       float32
	IR        float32
	LDM       float32
	MainBoard float32
	TEC       float32
	IMU       float32
	RGB       float32
	IRLeft    float32
	IRRight   float32
	ChipTop   float32
	ChipBot   float32
}

const DeviceTemperatureSize = 44

var (
	_ [unsafe.Sizeof(DeviceTemperature{}) - DeviceTemperatureSize]struct{}
	_ [DeviceTemperatureSize - unsafe.Sizeof(DeviceTemperature{})]struct{}
)

var DeviceTemperatureCodec = fixedCodec(native.StructDeviceTemperature, DeviceTemperatureSize,
	func(t DeviceTemperature) DeviceTemperature { return t },
	func(t DeviceTemperature) DeviceTemperature { return t })

// BaselineCalibration holds the stereo baseline and zero-plane distance in
// millimetres.
type BaselineCalibration struct {
	Baseline float32
	ZPD      float32
}

const BaselineCalibrationSize = 8

var (
	_ [unsafe.Sizeof(BaselineCalibration{}) - BaselineCalibrationSize]struct{}
	_ [BaselineCalibrationSize - unsafe.Sizeof(BaselineCalibration{})]struct{}
)

var BaselineCalibrationCodec = fixedCodec(native.StructBaselineCalibration, BaselineCalibrationSize,
	func(b BaselineCalibration) BaselineCalibration { return b },
	func(b BaselineCalibration) BaselineCalibration { return b })

// TimestampResetConfig configures hardware timestamp reset.
type TimestampResetConfig struct {
	Enable             bool
	DelayUs            int32
	SignalOutputEnable bool
}

const TimestampResetConfigSize = 12

type timestampResetWire struct {
	Enable             bool
	_                  [3]byte
	DelayUs            int32
	SignalOutputEnable bool
	_                  [3]byte
}

var (
	_ [unsafe.Sizeof(timestampResetWire{}) - TimestampResetConfigSize]struct{}
	_ [TimestampResetConfigSize - unsafe.Sizeof(timestampResetWire{})]struct{}
)

var TimestampResetCodec = fixedCodec(native.StructTimestampReset, TimestampResetConfigSize,
	func(c TimestampResetConfig) timestampResetWire {
		return timestampResetWire{Enable: c.Enable, DelayUs: c.DelayUs, SignalOutputEnable: c.SignalOutputEnable}
	},
	func(w timestampResetWire) TimestampResetConfig {
		return TimestampResetConfig{Enable: w.Enable, DelayUs: w.DelayUs, SignalOutputEnable: w.SignalOutputEnable}
	})

func (d *Device) MultiDeviceSyncConfig() (MultiDeviceSyncConfig, error) {
	return GetStructured(d, MultiDeviceSyncCodec)
}

func (d *Device) SetMultiDeviceSyncConfig(c MultiDeviceSyncConfig) error {
	return SetStructured(d, MultiDeviceSyncCodec, c)
}

func (d *Device) TimestampResetConfig() (TimestampResetConfig, error) {
	return GetStructured(d, TimestampResetCodec)
}

func (d *Device) SetTimestampResetConfig(c TimestampResetConfig) error {
	return SetStructured(d, TimestampResetCodec, c)
}

// Temperature reads the device's temperature sensors.
func (d *Device) Temperature() (DeviceTemperature, error) {
	return GetStructured(d, DeviceTemperatureCodec)
}

func (d *Device) BaselineCalibration() (BaselineCalibration, error) {
	return GetStructured(d, BaselineCalibrationCodec)
}
