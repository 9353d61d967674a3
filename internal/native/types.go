package native

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotBuilt reports that the native bindings were not linked into the
// current binary.
var ErrNotBuilt = errors.New("obsdk/internal/native: native bindings not built")

// Handle is an opaque pointer to an SDK-owned object. Zero is the null handle.
type Handle uintptr

// ErrorRef is an opaque pointer to an SDK error object. Zero means no error.
type ErrorRef uintptr

// Token is the user-data value handed back to trampolines.
type Token uintptr

// ExceptionType enumerates ob_exception_type.
type ExceptionType int32

const (
	ExceptionUnknown ExceptionType = iota
	ExceptionStd
	ExceptionCameraDisconnected
	ExceptionPlatform
	ExceptionInvalidValue
	ExceptionWrongAPICallSequence
	ExceptionNotImplemented
	ExceptionIO
	ExceptionMemory
	ExceptionUnsupportedOperation
	ExceptionTimeout
	ExceptionAccessDenied
)

func (t ExceptionType) String() string {
	switch t {
	case ExceptionStd:
		return "std_exception"
	case ExceptionCameraDisconnected:
		return "camera_disconnected"
	case ExceptionPlatform:
		return "platform"
	case ExceptionInvalidValue:
		return "invalid_value"
	case ExceptionWrongAPICallSequence:
		return "wrong_api_call_sequence"
	case ExceptionNotImplemented:
		return "not_implemented"
	case ExceptionIO:
		return "io"
	case ExceptionMemory:
		return "memory"
	case ExceptionUnsupportedOperation:
		return "unsupported_operation"
	case ExceptionTimeout:
		return "timeout"
	case ExceptionAccessDenied:
		return "access_denied"
	default:
		return "unknown"
	}
}

// SensorType enumerates ob_sensor_type.
type SensorType int32

const (
	SensorUnknown SensorType = iota
	SensorIR
	SensorColor
	SensorDepth
	SensorAccel
	SensorGyro
	SensorIRLeft
	SensorIRRight
)

func (s SensorType) String() string {
	switch s {
	case SensorIR:
		return "ir"
	case SensorColor:
		return "color"
	case SensorDepth:
		return "depth"
	case SensorAccel:
		return "accel"
	case SensorGyro:
		return "gyro"
	case SensorIRLeft:
		return "ir_left"
	case SensorIRRight:
		return "ir_right"
	default:
		return "unknown"
	}
}

// StreamType enumerates ob_stream_type.
type StreamType int32

const (
	StreamVideo StreamType = iota
	StreamIR
	StreamColor
	StreamDepth
	StreamAccel
	StreamGyro
	StreamIRLeft
	StreamIRRight
)

// FrameType enumerates ob_frame_type.
type FrameType int32

const (
	FrameVideo FrameType = iota
	FrameIR
	FrameColor
	FrameDepth
	FrameAccel
	FrameSet
	FramePoints
	FrameGyro
	FrameIRLeft
	FrameIRRight
)

func (f FrameType) String() string {
	switch f {
	case FrameVideo:
		return "video"
	case FrameIR:
		return "ir"
	case FrameColor:
		return "color"
	case FrameDepth:
		return "depth"
	case FrameAccel:
		return "accel"
	case FrameSet:
		return "frameset"
	case FramePoints:
		return "points"
	case FrameGyro:
		return "gyro"
	case FrameIRLeft:
		return "ir_left"
	case FrameIRRight:
		return "ir_right"
	default:
		return "unknown"
	}
}

// Format enumerates the subset of ob_format used by the binding.
type Format int32

const (
	FormatYUYV    Format = 0
	FormatMJPG    Format = 5
	FormatY16     Format = 8
	FormatY8      Format = 9
	FormatAccel   Format = 16
	FormatGyro    Format = 17
	FormatRGB     Format = 22
	FormatBGR     Format = 23
	FormatBGRA    Format = 25
	FormatAny     Format = 0xff
	FormatUnknown Format = -1
)

// PermissionType enumerates ob_permission_type.
type PermissionType int32

const (
	PermissionDeny      PermissionType = 0
	PermissionRead      PermissionType = 1
	PermissionWrite     PermissionType = 2
	PermissionReadWrite PermissionType = 3
)

// PropertyType enumerates ob_property_type.
type PropertyType int32

const (
	PropertyBool PropertyType = iota
	PropertyInt
	PropertyFloat
	PropertyStruct
)

// PropertyID enumerates ob_property_id values used by the binding.
type PropertyID int32

const (
	PropLDPBool                PropertyID = 2
	PropLaserBool              PropertyID = 3
	PropDepthMirrorBool        PropertyID = 14
	PropDepthAlignHardwareBool PropertyID = 42
	PropHeartbeatBool          PropertyID = 89
	PropDepthPrecisionInt      PropertyID = 75
	PropColorAutoExposureBool  PropertyID = 2000
	PropColorExposureInt       PropertyID = 2001
	PropColorGainInt           PropertyID = 2002
	PropDepthExposureInt       PropertyID = 2016
	PropIRGainFloat            PropertyID = 2025
	StructBaselineCalibration  PropertyID = 1002
	StructDeviceTemperature    PropertyID = 1003
	StructMultiDeviceSync      PropertyID = 1038
	StructTimestampReset       PropertyID = 1041
	RawCameraCalibJSON         PropertyID = 4029
)

// UpgradeState enumerates ob_upgrade_state.
type UpgradeState int8

const (
	UpgradeErrTimeout   UpgradeState = -8
	UpgradeErrDDR       UpgradeState = -7
	UpgradeErrOther     UpgradeState = -6
	UpgradeErrImageSize UpgradeState = -5
	UpgradeErrFlashType UpgradeState = -4
	UpgradeErrErase     UpgradeState = -3
	UpgradeErrProgram   UpgradeState = -2
	UpgradeErrVerify    UpgradeState = -1
	UpgradeVerifyImage  UpgradeState = 0
	UpgradeStart        UpgradeState = 1
	UpgradeInProgress   UpgradeState = 2
	UpgradeDone         UpgradeState = 3
	UpgradeFileTransfer UpgradeState = 4
	UpgradeVerified     UpgradeState = 5
)

// DataTranState enumerates ob_data_tran_state.
type DataTranState int8

const (
	DataTranErrOther       DataTranState = -5
	DataTranErrVerify      DataTranState = -4
	DataTranErrTranFailed  DataTranState = -3
	DataTranErrUnsupported DataTranState = -2
	DataTranErrBusy        DataTranState = -1
	DataTranTransferring   DataTranState = 0
	DataTranVerifying      DataTranState = 1
	DataTranDone           DataTranState = 2
	DataTranStopped        DataTranState = 3
)

// MediaState enumerates ob_media_state.
type MediaState int32

const (
	MediaBegin MediaState = iota
	MediaPause
	MediaResume
	MediaEnd
)

// MediaType is the ob_media_type bit set accepted by playback.
type MediaType int32

const (
	MediaColor       MediaType = 1
	MediaDepth       MediaType = 2
	MediaIR          MediaType = 4
	MediaGyro        MediaType = 8
	MediaAccel       MediaType = 16
	MediaCameraParam MediaType = 32
	MediaDeviceInfo  MediaType = 64
	MediaStreamInfo  MediaType = 128
	MediaAll         MediaType = MediaColor | MediaDepth | MediaIR | MediaGyro | MediaAccel | MediaCameraParam | MediaDeviceInfo | MediaStreamInfo
)

// AlignMode enumerates ob_align_mode.
type AlignMode int32

const (
	AlignDisable AlignMode = iota
	AlignHardware
	AlignSoftware
)

// LogSeverity enumerates ob_log_severity.
type LogSeverity int32

const (
	LogDebug LogSeverity = iota
	LogInfo
	LogWarn
	LogError
	LogFatal
	LogOff
)

// FilterConfigValueType enumerates ob_filter_config_value_type.
type FilterConfigValueType int32

const (
	FilterConfigInvalid FilterConfigValueType = -1
	FilterConfigInt     FilterConfigValueType = 0
	FilterConfigFloat   FilterConfigValueType = 1
	FilterConfigBool    FilterConfigValueType = 2
)

// IntRange mirrors ob_int_property_range.
type IntRange struct {
	Cur, Max, Min, Step, Def int32
}

// FloatRange mirrors ob_float_property_range.
type FloatRange struct {
	Cur, Max, Min, Step, Def float32
}

// BoolRange mirrors ob_bool_property_range.
type BoolRange struct {
	Cur, Max, Min, Step, Def bool
}

// PropertyItem mirrors ob_property_item.
type PropertyItem struct {
	ID         PropertyID
	Name       string
	Type       PropertyType
	Permission PermissionType
}

// Intrinsic mirrors ob_camera_intrinsic.
type Intrinsic struct {
	Fx, Fy, Cx, Cy float32
	Width, Height  int16
}

// Distortion mirrors ob_camera_distortion.
type Distortion struct {
	K1, K2, K3, K4, K5, K6 float32
	P1, P2                 float32
}

// Extrinsic mirrors ob_d2c_transform.
type Extrinsic struct {
	Rot   [9]float32
	Trans [3]float32
}

// CameraParam mirrors ob_camera_param.
type CameraParam struct {
	DepthIntrinsic  Intrinsic
	RGBIntrinsic    Intrinsic
	DepthDistortion Distortion
	RGBDistortion   Distortion
	Transform       Extrinsic
	IsMirrored      bool
}

// DepthWorkMode mirrors ob_depth_work_mode. The SDK identifies a mode by
// its checksum; Name is for display and for switching by name.
type DepthWorkMode struct {
	Checksum [16]byte
	Name     string
}

// FilterConfigSchemaItem mirrors ob_filter_config_schema_item.
type FilterConfigSchemaItem struct {
	Name string
	Type FilterConfigValueType
	Min  float64
	Max  float64
	Step float64
	Def  float64
	Desc string
}

// Version is the SDK version triple.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (f Format) String() string {
	for name, v := range formatNames {
		if v == f {
			return name
		}
	}
	return "unknown"
}

var formatNames = map[string]Format{
	"yuyv":  FormatYUYV,
	"mjpg":  FormatMJPG,
	"y16":   FormatY16,
	"y8":    FormatY8,
	"accel": FormatAccel,
	"gyro":  FormatGyro,
	"rgb":   FormatRGB,
	"bgr":   FormatBGR,
	"bgra":  FormatBGRA,
	"any":   FormatAny,
}

// ParseFormat maps a case-insensitive format name such as "y16" to its value.
func ParseFormat(s string) (Format, error) {
	if f, ok := formatNames[strings.ToLower(s)]; ok {
		return f, nil
	}
	return FormatUnknown, fmt.Errorf("unknown format %q", s)
}

// ParseSensorType maps a sensor name such as "depth" or "ir_left" to its value.
func ParseSensorType(s string) (SensorType, error) {
	want := strings.ToLower(s)
	for t := SensorIR; t <= SensorIRRight; t++ {
		if t.String() == want {
			return t, nil
		}
	}
	return SensorUnknown, fmt.Errorf("unknown sensor type %q", s)
}

// StreamOf returns the stream a sensor produces.
func StreamOf(s SensorType) StreamType {
	switch s {
	case SensorIR:
		return StreamIR
	case SensorColor:
		return StreamColor
	case SensorDepth:
		return StreamDepth
	case SensorAccel:
		return StreamAccel
	case SensorGyro:
		return StreamGyro
	case SensorIRLeft:
		return StreamIRLeft
	case SensorIRRight:
		return StreamIRRight
	default:
		return StreamVideo
	}
}

// FrameOf returns the frame type carried by a stream.
func FrameOf(s StreamType) FrameType {
	switch s {
	case StreamIR:
		return FrameIR
	case StreamColor:
		return FrameColor
	case StreamDepth:
		return FrameDepth
	case StreamAccel:
		return FrameAccel
	case StreamGyro:
		return FrameGyro
	case StreamIRLeft:
		return FrameIRLeft
	case StreamIRRight:
		return FrameIRRight
	default:
		return FrameVideo
	}
}

// MediaOf returns the playback media bit for a frame type, or zero.
func MediaOf(f FrameType) MediaType {
	switch f {
	case FrameColor:
		return MediaColor
	case FrameDepth:
		return MediaDepth
	case FrameIR, FrameIRLeft, FrameIRRight:
		return MediaIR
	case FrameGyro:
		return MediaGyro
	case FrameAccel:
		return MediaAccel
	default:
		return 0
	}
}

func (s StreamType) String() string {
	return FrameOf(s).String()
}
