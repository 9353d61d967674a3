package obsdk

import "github.com/orbbec/obsdk-go/internal/native"

// Type aliases for the SDK enums and plain structs, so callers never import
// internal/native.

type (
	RawHandle              = native.Handle
	ExceptionKind          = native.ExceptionType
	SensorType             = native.SensorType
	StreamType             = native.StreamType
	FrameType              = native.FrameType
	Format                 = native.Format
	PermissionType         = native.PermissionType
	PropertyType           = native.PropertyType
	PropertyID             = native.PropertyID
	UpgradeState           = native.UpgradeState
	DataTranState          = native.DataTranState
	MediaState             = native.MediaState
	MediaType              = native.MediaType
	AlignMode              = native.AlignMode
	LogSeverity            = native.LogSeverity
	IntRange               = native.IntRange
	FloatRange             = native.FloatRange
	BoolRange              = native.BoolRange
	PropertyItem           = native.PropertyItem
	CameraParam            = native.CameraParam
	DepthWorkMode          = native.DepthWorkMode
	FilterConfigSchemaItem = native.FilterConfigSchemaItem
	SDKVersion             = native.Version
)

const (
	SensorIR      = native.SensorIR
	SensorColor   = native.SensorColor
	SensorDepth   = native.SensorDepth
	SensorAccel   = native.SensorAccel
	SensorGyro    = native.SensorGyro
	SensorIRLeft  = native.SensorIRLeft
	SensorIRRight = native.SensorIRRight

	StreamIR    = native.StreamIR
	StreamColor = native.StreamColor
	StreamDepth = native.StreamDepth
	StreamAccel = native.StreamAccel
	StreamGyro  = native.StreamGyro

	FrameIR    = native.FrameIR
	FrameColor = native.FrameColor
	FrameDepth = native.FrameDepth
	FrameAccel = native.FrameAccel
	FrameGyro  = native.FrameGyro
	FrameSet   = native.FrameSet

	FormatAny  = native.FormatAny
	FormatY16  = native.FormatY16
	FormatY8   = native.FormatY8
	FormatRGB  = native.FormatRGB
	FormatBGR  = native.FormatBGR
	FormatYUYV = native.FormatYUYV
	FormatMJPG = native.FormatMJPG

	PermissionRead      = native.PermissionRead
	PermissionWrite     = native.PermissionWrite
	PermissionReadWrite = native.PermissionReadWrite

	PropertyBool   = native.PropertyBool
	PropertyInt    = native.PropertyInt
	PropertyFloat  = native.PropertyFloat
	PropertyStruct = native.PropertyStruct

	AlignDisable  = native.AlignDisable
	AlignHardware = native.AlignHardware
	AlignSoftware = native.AlignSoftware

	MediaColor = native.MediaColor
	MediaDepth = native.MediaDepth
	MediaIR    = native.MediaIR
	MediaGyro  = native.MediaGyro
	MediaAccel = native.MediaAccel
	MediaAll   = native.MediaAll

	UpgradeDone  = native.UpgradeDone
	DataTranDone = native.DataTranDone

	MediaBegin  = native.MediaBegin
	MediaPause  = native.MediaPause
	MediaResume = native.MediaResume
	MediaEnd    = native.MediaEnd

	LogDebug = native.LogDebug
	LogInfo  = native.LogInfo
	LogWarn  = native.LogWarn
	LogError = native.LogError
	LogOff   = native.LogOff
)

// Property identifiers with a typed accessor in this package.
const (
	PropLDPBool                = native.PropLDPBool
	PropLaserBool              = native.PropLaserBool
	PropDepthMirrorBool        = native.PropDepthMirrorBool
	PropDepthAlignHardwareBool = native.PropDepthAlignHardwareBool
	PropHeartbeatBool          = native.PropHeartbeatBool
	PropDepthPrecisionInt      = native.PropDepthPrecisionInt
	PropColorAutoExposureBool  = native.PropColorAutoExposureBool
	PropColorExposureInt       = native.PropColorExposureInt
	PropColorGainInt           = native.PropColorGainInt
	PropDepthExposureInt       = native.PropDepthExposureInt
	PropIRGainFloat            = native.PropIRGainFloat
	RawCameraCalibJSON         = native.RawCameraCalibJSON
)

// ParseSensorType maps a sensor name such as "depth" to its value.
func ParseSensorType(s string) (SensorType, error) { return native.ParseSensorType(s) }

// ParseFormat maps a format name such as "y16" to its value.
func ParseFormat(s string) (Format, error) { return native.ParseFormat(s) }
