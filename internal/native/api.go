package native

// Trampoline signatures. The SDK calls these on its own threads. Handles
// passed to a trampoline are owned by the receiver.
type (
	DeviceChangedFunc func(removed, added Handle, token Token)
	FrameFunc         func(frame Handle, token Token)
	DeviceStateFunc   func(state uint64, message string, token Token)
	UpgradeFunc       func(state UpgradeState, message string, percent uint8, token Token)
	DataTransferFunc  func(state DataTranState, percent uint8, token Token)
	MediaStateFunc    func(state MediaState, token Token)
)

// ErrorAPI reads and frees ob_error objects.
type ErrorAPI interface {
	ErrorType(e ErrorRef) ExceptionType
	ErrorFunction(e ErrorRef) string
	ErrorArgs(e ErrorRef) string
	ErrorMessage(e ErrorRef) string
	DeleteError(e ErrorRef)
}

// ContextAPI covers ob_context and the global logger controls.
type ContextAPI interface {
	CreateContext(e *ErrorRef) Handle
	CreateContextWithConfig(configPath string, e *ErrorRef) Handle
	DeleteContext(ctx Handle, e *ErrorRef)
	QueryDeviceList(ctx Handle, e *ErrorRef) Handle
	CreateNetDevice(ctx Handle, address string, port uint16, e *ErrorRef) Handle
	SetDeviceChangedCallback(ctx Handle, fn DeviceChangedFunc, token Token, e *ErrorRef)
	EnableMultiDeviceSync(ctx Handle, repeatIntervalMs uint64, e *ErrorRef)
	SetLoggerSeverity(severity LogSeverity, e *ErrorRef)
	SetLoggerToFile(severity LogSeverity, directory string, e *ErrorRef)
	SetLoggerToConsole(severity LogSeverity, e *ErrorRef)
}

// DeviceListAPI covers ob_device_list.
type DeviceListAPI interface {
	DeviceListCount(list Handle, e *ErrorRef) uint32
	DeviceListName(list Handle, index uint32, e *ErrorRef) string
	DeviceListPID(list Handle, index uint32, e *ErrorRef) int32
	DeviceListVID(list Handle, index uint32, e *ErrorRef) int32
	DeviceListUID(list Handle, index uint32, e *ErrorRef) string
	DeviceListSerialNumber(list Handle, index uint32, e *ErrorRef) string
	DeviceListConnectionType(list Handle, index uint32, e *ErrorRef) string
	DeviceListGetDevice(list Handle, index uint32, e *ErrorRef) Handle
	DeviceListGetDeviceBySerial(list Handle, serial string, e *ErrorRef) Handle
	DeleteDeviceList(list Handle, e *ErrorRef)
}

// DeviceAPI covers ob_device.
type DeviceAPI interface {
	DeleteDevice(dev Handle, e *ErrorRef)
	DeviceGetInfo(dev Handle, e *ErrorRef) Handle
	DeviceGetSensorList(dev Handle, e *ErrorRef) Handle
	DeviceGetSensor(dev Handle, sensor SensorType, e *ErrorRef) Handle

	DeviceSetIntProperty(dev Handle, id PropertyID, value int32, e *ErrorRef)
	DeviceGetIntProperty(dev Handle, id PropertyID, e *ErrorRef) int32
	DeviceSetFloatProperty(dev Handle, id PropertyID, value float32, e *ErrorRef)
	DeviceGetFloatProperty(dev Handle, id PropertyID, e *ErrorRef) float32
	DeviceSetBoolProperty(dev Handle, id PropertyID, value bool, e *ErrorRef)
	DeviceGetBoolProperty(dev Handle, id PropertyID, e *ErrorRef) bool
	// DeviceSetStructuredData copies data into the device. The buffer is only
	// read for the duration of the call.
	DeviceSetStructuredData(dev Handle, id PropertyID, data []byte, e *ErrorRef)
	// DeviceGetStructuredData fills buf and returns the number of bytes the
	// device wrote.
	DeviceGetStructuredData(dev Handle, id PropertyID, buf []byte, e *ErrorRef) uint32
	DeviceIsPropertySupported(dev Handle, id PropertyID, perm PermissionType, e *ErrorRef) bool
	DeviceGetIntPropertyRange(dev Handle, id PropertyID, e *ErrorRef) IntRange
	DeviceGetFloatPropertyRange(dev Handle, id PropertyID, e *ErrorRef) FloatRange
	DeviceGetBoolPropertyRange(dev Handle, id PropertyID, e *ErrorRef) BoolRange
	DeviceGetSupportedPropertyCount(dev Handle, e *ErrorRef) uint32
	DeviceGetSupportedProperty(dev Handle, index uint32, e *ErrorRef) PropertyItem

	DeviceUpgrade(dev Handle, path string, fn UpgradeFunc, async bool, token Token, e *ErrorRef)
	DeviceUpgradeFromData(dev Handle, data []byte, fn UpgradeFunc, async bool, token Token, e *ErrorRef)
	DeviceSetRawData(dev Handle, id PropertyID, data []byte, fn DataTransferFunc, async bool, token Token, e *ErrorRef)

	DeviceGetState(dev Handle, e *ErrorRef) uint64
	DeviceSetStateChangedCallback(dev Handle, fn DeviceStateFunc, token Token, e *ErrorRef)
	DeviceReboot(dev Handle, e *ErrorRef)
	DeviceTimestampReset(dev Handle, e *ErrorRef)
	DeviceEnableHeartbeat(dev Handle, enable bool, e *ErrorRef)

	DeviceGetCurrentPresetName(dev Handle, e *ErrorRef) string
	DeviceLoadPreset(dev Handle, name string, e *ErrorRef)
	DeviceLoadPresetFromJSONData(dev Handle, name string, data []byte, e *ErrorRef)
	DeviceGetAvailablePresetList(dev Handle, e *ErrorRef) Handle
	DeviceLoadPresetFromJSONFile(dev Handle, path string, e *ErrorRef)
	DeviceExportSettingsAsPresetJSONFile(dev Handle, path string, e *ErrorRef)
	// DeviceExportSettingsAsPresetJSONData returns a copy of the exported
	// JSON. The SDK keeps ownership of its own buffer.
	DeviceExportSettingsAsPresetJSONData(dev Handle, name string, e *ErrorRef) []byte

	DeviceGetCurrentDepthWorkMode(dev Handle, e *ErrorRef) DepthWorkMode
	DeviceGetCurrentDepthWorkModeName(dev Handle, e *ErrorRef) string
	DeviceSwitchDepthWorkMode(dev Handle, mode DepthWorkMode, e *ErrorRef)
	DeviceSwitchDepthWorkModeByName(dev Handle, name string, e *ErrorRef)
	DeviceGetDepthWorkModeList(dev Handle, e *ErrorRef) Handle
	DeviceGetCalibrationCameraParamList(dev Handle, e *ErrorRef) Handle

	DeviceGetSupportedMultiDeviceSyncModeBitmap(dev Handle, e *ErrorRef) uint16
	DeviceTriggerCapture(dev Handle, e *ErrorRef)
	DeviceTimerSyncWithHost(dev Handle, e *ErrorRef)
	DeviceIsGlobalTimestampSupported(dev Handle, e *ErrorRef) bool
	DeviceEnableGlobalTimestamp(dev Handle, enable bool, e *ErrorRef)
	DeviceIsExtensionInfoExist(dev Handle, key string, e *ErrorRef) bool
	DeviceGetExtensionInfo(dev Handle, key string, e *ErrorRef) string
}

// DepthWorkModeListAPI covers ob_depth_work_mode_list.
type DepthWorkModeListAPI interface {
	DepthWorkModeListCount(list Handle, e *ErrorRef) uint32
	DepthWorkModeListGetItem(list Handle, index uint32, e *ErrorRef) DepthWorkMode
	DeleteDepthWorkModeList(list Handle, e *ErrorRef)
}

// CameraParamListAPI covers ob_camera_param_list.
type CameraParamListAPI interface {
	CameraParamListCount(list Handle, e *ErrorRef) uint32
	CameraParamListGetParam(list Handle, index uint32, e *ErrorRef) CameraParam
	DeleteCameraParamList(list Handle, e *ErrorRef)
}

// DeviceInfoAPI covers ob_device_info.
type DeviceInfoAPI interface {
	DeviceInfoName(info Handle, e *ErrorRef) string
	DeviceInfoPID(info Handle, e *ErrorRef) int32
	DeviceInfoVID(info Handle, e *ErrorRef) int32
	DeviceInfoUID(info Handle, e *ErrorRef) string
	DeviceInfoSerialNumber(info Handle, e *ErrorRef) string
	DeviceInfoFirmwareVersion(info Handle, e *ErrorRef) string
	DeviceInfoHardwareVersion(info Handle, e *ErrorRef) string
	DeviceInfoConnectionType(info Handle, e *ErrorRef) string
	DeleteDeviceInfo(info Handle, e *ErrorRef)
}

// PresetListAPI covers ob_device_preset_list.
type PresetListAPI interface {
	PresetListCount(list Handle, e *ErrorRef) uint32
	PresetListName(list Handle, index uint32, e *ErrorRef) string
	PresetListHas(list Handle, name string, e *ErrorRef) bool
	DeletePresetList(list Handle, e *ErrorRef)
}

// SensorAPI covers ob_sensor, ob_sensor_list and ob_filter_list.
type SensorAPI interface {
	SensorListCount(list Handle, e *ErrorRef) uint32
	SensorListType(list Handle, index uint32, e *ErrorRef) SensorType
	SensorListGetSensor(list Handle, index uint32, e *ErrorRef) Handle
	SensorListGetSensorByType(list Handle, sensor SensorType, e *ErrorRef) Handle
	DeleteSensorList(list Handle, e *ErrorRef)

	SensorGetType(sensor Handle, e *ErrorRef) SensorType
	SensorGetStreamProfileList(sensor Handle, e *ErrorRef) Handle
	SensorStart(sensor, profile Handle, fn FrameFunc, token Token, e *ErrorRef)
	SensorStop(sensor Handle, e *ErrorRef)
	SensorSwitchProfile(sensor, profile Handle, e *ErrorRef)
	SensorCreateRecommendedFilterList(sensor Handle, e *ErrorRef) Handle
	DeleteSensor(sensor Handle, e *ErrorRef)

	FilterListCount(list Handle, e *ErrorRef) uint32
	FilterListGetFilter(list Handle, index uint32, e *ErrorRef) Handle
	DeleteFilterList(list Handle, e *ErrorRef)
}

// StreamProfileAPI covers ob_stream_profile and ob_stream_profile_list.
type StreamProfileAPI interface {
	StreamProfileListCount(list Handle, e *ErrorRef) uint32
	StreamProfileListGetProfile(list Handle, index uint32, e *ErrorRef) Handle
	StreamProfileListGetVideoProfile(list Handle, width, height int32, format Format, fps int32, e *ErrorRef) Handle
	DeleteStreamProfileList(list Handle, e *ErrorRef)

	StreamProfileType(profile Handle, e *ErrorRef) StreamType
	StreamProfileFormat(profile Handle, e *ErrorRef) Format
	VideoStreamProfileWidth(profile Handle, e *ErrorRef) uint32
	VideoStreamProfileHeight(profile Handle, e *ErrorRef) uint32
	VideoStreamProfileFPS(profile Handle, e *ErrorRef) uint32
	DeleteStreamProfile(profile Handle, e *ErrorRef)
}

// PipelineAPI covers ob_pipeline and ob_config.
type PipelineAPI interface {
	CreatePipeline(e *ErrorRef) Handle
	CreatePipelineWithDevice(dev Handle, e *ErrorRef) Handle
	DeletePipeline(p Handle, e *ErrorRef)
	PipelineStart(p Handle, e *ErrorRef)
	PipelineStartWithConfig(p, cfg Handle, e *ErrorRef)
	PipelineStartWithCallback(p, cfg Handle, fn FrameFunc, token Token, e *ErrorRef)
	PipelineStop(p Handle, e *ErrorRef)
	// PipelineWaitForFrameset blocks for at most timeoutMs and returns the
	// null handle when nothing arrived in time.
	PipelineWaitForFrameset(p Handle, timeoutMs uint32, e *ErrorRef) Handle
	PipelineGetDevice(p Handle, e *ErrorRef) Handle
	PipelineGetStreamProfileList(p Handle, sensor SensorType, e *ErrorRef) Handle
	PipelineEnableFrameSync(p Handle, e *ErrorRef)
	PipelineDisableFrameSync(p Handle, e *ErrorRef)

	CreateConfig(e *ErrorRef) Handle
	DeleteConfig(cfg Handle, e *ErrorRef)
	ConfigEnableStream(cfg, profile Handle, e *ErrorRef)
	ConfigDisableStream(cfg Handle, stream StreamType, e *ErrorRef)
	ConfigDisableAllStream(cfg Handle, e *ErrorRef)
	ConfigSetAlignMode(cfg Handle, mode AlignMode, e *ErrorRef)
}

// FrameAPI covers ob_frame, including framesets.
type FrameAPI interface {
	FrameIndex(f Handle, e *ErrorRef) uint64
	FrameFormat(f Handle, e *ErrorRef) Format
	FrameType(f Handle, e *ErrorRef) FrameType
	FrameTimestampUs(f Handle, e *ErrorRef) uint64
	FrameSystemTimestampUs(f Handle, e *ErrorRef) uint64
	FrameDataSize(f Handle, e *ErrorRef) uint32
	// FrameData copies the frame payload into buf and returns the number of
	// bytes copied.
	FrameData(f Handle, buf []byte, e *ErrorRef) uint32
	VideoFrameWidth(f Handle, e *ErrorRef) uint32
	VideoFrameHeight(f Handle, e *ErrorRef) uint32
	FrameAddRef(f Handle, e *ErrorRef)
	DeleteFrame(f Handle, e *ErrorRef)

	FramesetFrameCount(fs Handle, e *ErrorRef) uint32
	// FramesetGetFrame returns a new reference to the member frame of the
	// given type, or the null handle when the set carries none.
	FramesetGetFrame(fs Handle, t FrameType, e *ErrorRef) Handle
}

// FilterAPI covers ob_filter.
type FilterAPI interface {
	CreateFilter(name string, e *ErrorRef) Handle
	FilterName(f Handle, e *ErrorRef) string
	FilterProcess(f, frame Handle, e *ErrorRef) Handle
	FilterEnable(f Handle, enable bool, e *ErrorRef)
	FilterIsEnabled(f Handle, e *ErrorRef) bool
	FilterReset(f Handle, e *ErrorRef)
	FilterSetCallback(f Handle, fn FrameFunc, token Token, e *ErrorRef)
	FilterPushFrame(f, frame Handle, e *ErrorRef)
	FilterGetConfigSchemaList(f Handle, e *ErrorRef) Handle
	FilterSetConfigValue(f Handle, name string, value float64, e *ErrorRef)
	FilterGetConfigValue(f Handle, name string, e *ErrorRef) float64
	DeleteFilter(f Handle, e *ErrorRef)

	FilterConfigSchemaListCount(list Handle, e *ErrorRef) uint32
	FilterConfigSchemaListGetItem(list Handle, index uint32, e *ErrorRef) FilterConfigSchemaItem
	DeleteFilterConfigSchemaList(list Handle, e *ErrorRef)
}

// PlaybackAPI covers ob_playback.
type PlaybackAPI interface {
	CreatePlayback(path string, e *ErrorRef) Handle
	DeletePlayback(p Handle, e *ErrorRef)
	PlaybackStart(p Handle, fn FrameFunc, token Token, media MediaType, e *ErrorRef)
	PlaybackStop(p Handle, e *ErrorRef)
	PlaybackSetStateCallback(p Handle, fn MediaStateFunc, token Token, e *ErrorRef)
	PlaybackGetDeviceInfo(p Handle, e *ErrorRef) Handle
	PlaybackGetCameraParam(p Handle, e *ErrorRef) CameraParam
}

// RecorderAPI covers ob_recorder.
type RecorderAPI interface {
	CreateRecorder(e *ErrorRef) Handle
	CreateRecorderWithDevice(dev Handle, e *ErrorRef) Handle
	DeleteRecorder(r Handle, e *ErrorRef)
	RecorderStart(r Handle, path string, async bool, e *ErrorRef)
	RecorderStop(r Handle, e *ErrorRef)
	RecorderWriteFrame(r, frame Handle, e *ErrorRef)
}

// CallbackAPI manages the trampoline table shared by every callback
// registration in the process.
type CallbackAPI interface {
	// ReleaseToken forgets the callback stored under token. Later SDK calls
	// carrying token are dropped by the trampolines.
	ReleaseToken(token Token)
}

// API is the complete flat SDK surface.
type API interface {
	ErrorAPI
	CallbackAPI
	ContextAPI
	DeviceListAPI
	DeviceAPI
	DeviceInfoAPI
	PresetListAPI
	DepthWorkModeListAPI
	CameraParamListAPI
	SensorAPI
	StreamProfileAPI
	PipelineAPI
	FrameAPI
	FilterAPI
	PlaybackAPI
	RecorderAPI

	Version() Version
}
