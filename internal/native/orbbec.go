//go:build cgo && orbbecsdk

package native

/*
#cgo LDFLAGS: -lOrbbecSDK
#include <stdlib.h>
#include <stdint.h>
#include <stdbool.h>
#include <libobsensor/ObSensor.h>

extern void obsdkGoDeviceChanged(ob_device_list*, ob_device_list*, void*);
extern void obsdkGoFrame(ob_frame*, void*);
extern void obsdkGoDeviceState(uint64_t, char*, void*);
extern void obsdkGoUpgrade(int8_t, char*, uint8_t, void*);
extern void obsdkGoDataTransfer(int8_t, uint8_t, void*);
extern void obsdkGoMediaState(int32_t, void*);

static void deviceChangedTrampoline(ob_device_list *removed, ob_device_list *added, void *ud) {
	obsdkGoDeviceChanged(removed, added, ud);
}
static void frameTrampoline(ob_frame *frame, void *ud) {
	obsdkGoFrame(frame, ud);
}
static void deviceStateTrampoline(OBDeviceState state, const char *msg, void *ud) {
	obsdkGoDeviceState((uint64_t)state, (char *)msg, ud);
}
static void upgradeTrampoline(ob_fw_update_state state, const char *msg, uint8_t percent, void *ud) {
	obsdkGoUpgrade((int8_t)state, (char *)msg, percent, ud);
}
static void dataTransferTrampoline(ob_data_tran_state state, uint8_t percent, void *ud) {
	obsdkGoDataTransfer((int8_t)state, percent, ud);
}
static void mediaStateTrampoline(ob_media_state state, void *ud) {
	obsdkGoMediaState((int32_t)state, ud);
}

static void obsdk_set_device_changed(ob_context *ctx, int on, uintptr_t token, ob_error **e) {
	ob_set_device_changed_callback(ctx, on ? deviceChangedTrampoline : NULL, (void *)token, e);
}
static void obsdk_set_device_state(ob_device *dev, int on, uintptr_t token, ob_error **e) {
	ob_device_set_state_changed_callback(dev, on ? deviceStateTrampoline : NULL, (void *)token, e);
}
static void obsdk_update_firmware(ob_device *dev, const char *path, int on, bool async, uintptr_t token, ob_error **e) {
	ob_device_update_firmware(dev, path, on ? upgradeTrampoline : NULL, async, (void *)token, e);
}
static void obsdk_update_firmware_from_data(ob_device *dev, uint8_t *data, uint32_t n, int on, bool async, uintptr_t token, ob_error **e) {
	ob_device_update_firmware_from_data(dev, data, n, on ? upgradeTrampoline : NULL, async, (void *)token, e);
}
static void obsdk_set_raw_data(ob_device *dev, ob_property_id id, void *data, uint32_t n, int on, bool async, uintptr_t token, ob_error **e) {
	ob_device_set_raw_data(dev, id, data, n, on ? dataTransferTrampoline : NULL, async, (void *)token, e);
}
static void obsdk_sensor_start(ob_sensor *s, ob_stream_profile *p, uintptr_t token, ob_error **e) {
	ob_sensor_start(s, p, frameTrampoline, (void *)token, e);
}
static void obsdk_pipeline_start_with_callback(ob_pipeline *p, ob_config *cfg, uintptr_t token, ob_error **e) {
	ob_pipeline_start_with_callback(p, cfg, frameTrampoline, (void *)token, e);
}
static void obsdk_filter_set_callback(ob_filter *f, int on, uintptr_t token, ob_error **e) {
	ob_filter_set_callback(f, on ? frameTrampoline : NULL, (void *)token, e);
}
static void obsdk_playback_start(ob_playback *pb, uintptr_t token, ob_media_type media, ob_error **e) {
	ob_playback_start(pb, frameTrampoline, (void *)token, media, e);
}
static void obsdk_playback_set_state(ob_playback *pb, int on, uintptr_t token, ob_error **e) {
	ob_set_playback_state_callback(pb, on ? mediaStateTrampoline : NULL, (void *)token, e);
}
*/
import "C"

import (
	"sync"
	"unsafe"
)

// Load returns the SDK-backed API.
func Load() (API, error) {
	return sdk{}, nil
}

type sdk struct{}

// Trampoline targets, keyed by the token handed to the SDK as user data.
var (
	cbMu sync.RWMutex
	cbs  = map[Token]any{}
)

func setCallback(token Token, fn any, set bool) {
	cbMu.Lock()
	if !set {
		delete(cbs, token)
	} else {
		cbs[token] = fn
	}
	cbMu.Unlock()
}

func (sdk) ReleaseToken(token Token) {
	setCallback(token, nil, false)
}

func lookup[F any](ud unsafe.Pointer) (F, Token, bool) {
	token := Token(uintptr(ud))
	cbMu.RLock()
	v, ok := cbs[token]
	cbMu.RUnlock()
	fn, ok2 := v.(F)
	return fn, token, ok && ok2
}

func on(ok bool) C.int {
	if ok {
		return 1
	}
	return 0
}

//export obsdkGoDeviceChanged
func obsdkGoDeviceChanged(removed, added *C.ob_device_list, ud unsafe.Pointer) {
	fn, token, ok := lookup[DeviceChangedFunc](ud)
	if !ok {
		C.ob_delete_device_list(removed, nil)
		C.ob_delete_device_list(added, nil)
		return
	}
	fn(handleOf(removed), handleOf(added), token)
}

//export obsdkGoFrame
func obsdkGoFrame(frame *C.ob_frame, ud unsafe.Pointer) {
	fn, token, ok := lookup[FrameFunc](ud)
	if !ok {
		C.ob_delete_frame(frame, nil)
		return
	}
	fn(handleOf(frame), token)
}

//export obsdkGoDeviceState
func obsdkGoDeviceState(state C.uint64_t, msg *C.char, ud unsafe.Pointer) {
	if fn, token, ok := lookup[DeviceStateFunc](ud); ok {
		fn(uint64(state), C.GoString(msg), token)
	}
}

//export obsdkGoUpgrade
func obsdkGoUpgrade(state C.int8_t, msg *C.char, percent C.uint8_t, ud unsafe.Pointer) {
	if fn, token, ok := lookup[UpgradeFunc](ud); ok {
		fn(UpgradeState(state), C.GoString(msg), uint8(percent), token)
	}
}

//export obsdkGoDataTransfer
func obsdkGoDataTransfer(state C.int8_t, percent C.uint8_t, ud unsafe.Pointer) {
	if fn, token, ok := lookup[DataTransferFunc](ud); ok {
		fn(DataTranState(state), uint8(percent), token)
	}
}

//export obsdkGoMediaState
func obsdkGoMediaState(state C.int32_t, ud unsafe.Pointer) {
	if fn, token, ok := lookup[MediaStateFunc](ud); ok {
		fn(MediaState(state), token)
	}
}

func handleOf[T any](p *T) Handle {
	return Handle(uintptr(unsafe.Pointer(p)))
}

func ptr[T any](h Handle) *T {
	//nolint:govet // SDK-owned memory, never the Go heap
	return (*T)(unsafe.Pointer(uintptr(h)))
}

func setErr(e *ErrorRef, ce *C.ob_error) {
	if e != nil {
		*e = ErrorRef(uintptr(unsafe.Pointer(ce)))
	}
}

func cstr(s string) (*C.char, func()) {
	cs := C.CString(s)
	return cs, func() { C.free(unsafe.Pointer(cs)) }
}

func cbytes(b []byte) (unsafe.Pointer, func()) {
	if len(b) == 0 {
		return nil, func() {}
	}
	p := C.CBytes(b)
	return p, func() { C.free(p) }
}

// ---- errors

func (sdk) ErrorType(e ErrorRef) ExceptionType {
	return ExceptionType(C.ob_error_get_exception_type(ptr[C.ob_error](Handle(e))))
}

func (sdk) ErrorFunction(e ErrorRef) string {
	return C.GoString(C.ob_error_get_function(ptr[C.ob_error](Handle(e))))
}

func (sdk) ErrorArgs(e ErrorRef) string {
	return C.GoString(C.ob_error_get_args(ptr[C.ob_error](Handle(e))))
}

func (sdk) ErrorMessage(e ErrorRef) string {
	return C.GoString(C.ob_error_get_message(ptr[C.ob_error](Handle(e))))
}

func (sdk) DeleteError(e ErrorRef) {
	C.ob_delete_error(ptr[C.ob_error](Handle(e)))
}

// ---- context

func (sdk) CreateContext(e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_create_context(&ce))
	setErr(e, ce)
	return h
}

func (sdk) CreateContextWithConfig(configPath string, e *ErrorRef) Handle {
	cs, free := cstr(configPath)
	defer free()
	var ce *C.ob_error
	h := handleOf(C.ob_create_context_with_config(cs, &ce))
	setErr(e, ce)
	return h
}

func (sdk) DeleteContext(ctx Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_context(ptr[C.ob_context](ctx), &ce)
	setErr(e, ce)
}

func (sdk) QueryDeviceList(ctx Handle, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_query_device_list(ptr[C.ob_context](ctx), &ce))
	setErr(e, ce)
	return h
}

func (sdk) CreateNetDevice(ctx Handle, address string, port uint16, e *ErrorRef) Handle {
	cs, free := cstr(address)
	defer free()
	var ce *C.ob_error
	h := handleOf(C.ob_create_net_device(ptr[C.ob_context](ctx), cs, C.uint16_t(port), &ce))
	setErr(e, ce)
	return h
}

func (sdk) SetDeviceChangedCallback(ctx Handle, fn DeviceChangedFunc, token Token, e *ErrorRef) {
	setCallback(token, fn, fn != nil)
	var ce *C.ob_error
	C.obsdk_set_device_changed(ptr[C.ob_context](ctx), on(fn != nil), C.uintptr_t(token), &ce)
	setErr(e, ce)
}

func (sdk) EnableMultiDeviceSync(ctx Handle, repeatIntervalMs uint64, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_enable_multi_device_sync(ptr[C.ob_context](ctx), C.uint64_t(repeatIntervalMs), &ce)
	setErr(e, ce)
}

func (sdk) SetLoggerSeverity(severity LogSeverity, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_set_logger_serverity(C.ob_log_severity(severity), &ce)
	setErr(e, ce)
}

func (sdk) SetLoggerToFile(severity LogSeverity, directory string, e *ErrorRef) {
	cs, free := cstr(directory)
	defer free()
	var ce *C.ob_error
	C.ob_set_logger_to_file(C.ob_log_severity(severity), cs, &ce)
	setErr(e, ce)
}

func (sdk) SetLoggerToConsole(severity LogSeverity, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_set_logger_to_console(C.ob_log_severity(severity), &ce)
	setErr(e, ce)
}

// ---- device list

func (sdk) DeviceListCount(list Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	n := C.ob_device_list_get_count(ptr[C.ob_device_list](list), &ce)
	setErr(e, ce)
	return uint32(n)
}

func (sdk) DeviceListName(list Handle, index uint32, e *ErrorRef) string {
	var ce *C.ob_error
	s := C.ob_device_list_get_device_name(ptr[C.ob_device_list](list), C.uint32_t(index), &ce)
	setErr(e, ce)
	return C.GoString(s)
}

func (sdk) DeviceListPID(list Handle, index uint32, e *ErrorRef) int32 {
	var ce *C.ob_error
	v := C.ob_device_list_get_device_pid(ptr[C.ob_device_list](list), C.uint32_t(index), &ce)
	setErr(e, ce)
	return int32(v)
}

func (sdk) DeviceListVID(list Handle, index uint32, e *ErrorRef) int32 {
	var ce *C.ob_error
	v := C.ob_device_list_get_device_vid(ptr[C.ob_device_list](list), C.uint32_t(index), &ce)
	setErr(e, ce)
	return int32(v)
}

func (sdk) DeviceListUID(list Handle, index uint32, e *ErrorRef) string {
	var ce *C.ob_error
	s := C.ob_device_list_get_device_uid(ptr[C.ob_device_list](list), C.uint32_t(index), &ce)
	setErr(e, ce)
	return C.GoString(s)
}

func (sdk) DeviceListSerialNumber(list Handle, index uint32, e *ErrorRef) string {
	var ce *C.ob_error
	s := C.ob_device_list_get_device_serial_number(ptr[C.ob_device_list](list), C.uint32_t(index), &ce)
	setErr(e, ce)
	return C.GoString(s)
}

func (sdk) DeviceListConnectionType(list Handle, index uint32, e *ErrorRef) string {
	var ce *C.ob_error
	s := C.ob_device_list_get_device_connection_type(ptr[C.ob_device_list](list), C.uint32_t(index), &ce)
	setErr(e, ce)
	return C.GoString(s)
}

func (sdk) DeviceListGetDevice(list Handle, index uint32, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_device_list_get_device(ptr[C.ob_device_list](list), C.uint32_t(index), &ce))
	setErr(e, ce)
	return h
}

func (sdk) DeviceListGetDeviceBySerial(list Handle, serial string, e *ErrorRef) Handle {
	cs, free := cstr(serial)
	defer free()
	var ce *C.ob_error
	h := handleOf(C.ob_device_list_get_device_by_serial_number(ptr[C.ob_device_list](list), cs, &ce))
	setErr(e, ce)
	return h
}

func (sdk) DeleteDeviceList(list Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_device_list(ptr[C.ob_device_list](list), &ce)
	setErr(e, ce)
}

// ---- device

func (sdk) DeleteDevice(dev Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_device(ptr[C.ob_device](dev), &ce)
	setErr(e, ce)
}

func (sdk) DeviceGetInfo(dev Handle, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_device_get_device_info(ptr[C.ob_device](dev), &ce))
	setErr(e, ce)
	return h
}

func (sdk) DeviceGetSensorList(dev Handle, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_device_get_sensor_list(ptr[C.ob_device](dev), &ce))
	setErr(e, ce)
	return h
}

func (sdk) DeviceGetSensor(dev Handle, sensor SensorType, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_device_get_sensor(ptr[C.ob_device](dev), C.ob_sensor_type(sensor), &ce))
	setErr(e, ce)
	return h
}

func (sdk) DeviceSetIntProperty(dev Handle, id PropertyID, value int32, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_device_set_int_property(ptr[C.ob_device](dev), C.ob_property_id(id), C.int32_t(value), &ce)
	setErr(e, ce)
}

func (sdk) DeviceGetIntProperty(dev Handle, id PropertyID, e *ErrorRef) int32 {
	var ce *C.ob_error
	v := C.ob_device_get_int_property(ptr[C.ob_device](dev), C.ob_property_id(id), &ce)
	setErr(e, ce)
	return int32(v)
}

func (sdk) DeviceSetFloatProperty(dev Handle, id PropertyID, value float32, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_device_set_float_property(ptr[C.ob_device](dev), C.ob_property_id(id), C.float(value), &ce)
	setErr(e, ce)
}

func (sdk) DeviceGetFloatProperty(dev Handle, id PropertyID, e *ErrorRef) float32 {
	var ce *C.ob_error
	v := C.ob_device_get_float_property(ptr[C.ob_device](dev), C.ob_property_id(id), &ce)
	setErr(e, ce)
	return float32(v)
}

func (sdk) DeviceSetBoolProperty(dev Handle, id PropertyID, value bool, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_device_set_bool_property(ptr[C.ob_device](dev), C.ob_property_id(id), C.bool(value), &ce)
	setErr(e, ce)
}

func (sdk) DeviceGetBoolProperty(dev Handle, id PropertyID, e *ErrorRef) bool {
	var ce *C.ob_error
	v := C.ob_device_get_bool_property(ptr[C.ob_device](dev), C.ob_property_id(id), &ce)
	setErr(e, ce)
	return bool(v)
}

func (sdk) DeviceSetStructuredData(dev Handle, id PropertyID, data []byte, e *ErrorRef) {
	p, free := cbytes(data)
	defer free()
	var ce *C.ob_error
	C.ob_device_set_structured_data(ptr[C.ob_device](dev), C.ob_property_id(id), p, C.uint32_t(len(data)), &ce)
	setErr(e, ce)
}

func (sdk) DeviceGetStructuredData(dev Handle, id PropertyID, buf []byte, e *ErrorRef) uint32 {
	if len(buf) == 0 {
		return 0
	}
	p := C.malloc(C.size_t(len(buf)))
	defer C.free(p)
	size := C.uint32_t(len(buf))
	var ce *C.ob_error
	C.ob_device_get_structured_data(ptr[C.ob_device](dev), C.ob_property_id(id), p, &size, &ce)
	setErr(e, ce)
	if ce != nil {
		return 0
	}
	n := min(int(size), len(buf))
	copy(buf, unsafe.Slice((*byte)(p), n))
	return uint32(size)
}

func (sdk) DeviceIsPropertySupported(dev Handle, id PropertyID, perm PermissionType, e *ErrorRef) bool {
	var ce *C.ob_error
	v := C.ob_device_is_property_supported(ptr[C.ob_device](dev), C.ob_property_id(id), C.ob_permission_type(perm), &ce)
	setErr(e, ce)
	return bool(v)
}

func (sdk) DeviceGetIntPropertyRange(dev Handle, id PropertyID, e *ErrorRef) IntRange {
	var ce *C.ob_error
	r := C.ob_device_get_int_property_range(ptr[C.ob_device](dev), C.ob_property_id(id), &ce)
	setErr(e, ce)
	return IntRange{Cur: int32(r.cur), Max: int32(r.max), Min: int32(r.min), Step: int32(r.step), Def: int32(r.def)}
}

func (sdk) DeviceGetFloatPropertyRange(dev Handle, id PropertyID, e *ErrorRef) FloatRange {
	var ce *C.ob_error
	r := C.ob_device_get_float_property_range(ptr[C.ob_device](dev), C.ob_property_id(id), &ce)
	setErr(e, ce)
	return FloatRange{Cur: float32(r.cur), Max: float32(r.max), Min: float32(r.min), Step: float32(r.step), Def: float32(r.def)}
}

func (sdk) DeviceGetBoolPropertyRange(dev Handle, id PropertyID, e *ErrorRef) BoolRange {
	var ce *C.ob_error
	r := C.ob_device_get_bool_property_range(ptr[C.ob_device](dev), C.ob_property_id(id), &ce)
	setErr(e, ce)
	return BoolRange{Cur: bool(r.cur), Max: bool(r.max), Min: bool(r.min), Step: bool(r.step), Def: bool(r.def)}
}

func (sdk) DeviceGetSupportedPropertyCount(dev Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	n := C.ob_device_get_supported_property_count(ptr[C.ob_device](dev), &ce)
	setErr(e, ce)
	return uint32(n)
}

func (sdk) DeviceGetSupportedProperty(dev Handle, index uint32, e *ErrorRef) PropertyItem {
	var ce *C.ob_error
	it := C.ob_device_get_supported_property_item(ptr[C.ob_device](dev), C.uint32_t(index), &ce)
	setErr(e, ce)
	return PropertyItem{
		ID:         PropertyID(it.id),
		Name:       C.GoString(it.name),
		Type:       PropertyType(it._type),
		Permission: PermissionType(it.permission),
	}
}

func (sdk) DeviceUpgrade(dev Handle, path string, fn UpgradeFunc, async bool, token Token, e *ErrorRef) {
	setCallback(token, fn, fn != nil)
	cs, free := cstr(path)
	defer free()
	var ce *C.ob_error
	C.obsdk_update_firmware(ptr[C.ob_device](dev), cs, on(fn != nil), C.bool(async), C.uintptr_t(token), &ce)
	setErr(e, ce)
}

func (sdk) DeviceUpgradeFromData(dev Handle, data []byte, fn UpgradeFunc, async bool, token Token, e *ErrorRef) {
	setCallback(token, fn, fn != nil)
	p, free := cbytes(data)
	defer free()
	var ce *C.ob_error
	C.obsdk_update_firmware_from_data(ptr[C.ob_device](dev), (*C.uint8_t)(p), C.uint32_t(len(data)), on(fn != nil), C.bool(async), C.uintptr_t(token), &ce)
	setErr(e, ce)
}

func (sdk) DeviceSetRawData(dev Handle, id PropertyID, data []byte, fn DataTransferFunc, async bool, token Token, e *ErrorRef) {
	setCallback(token, fn, fn != nil)
	p, free := cbytes(data)
	defer free()
	var ce *C.ob_error
	C.obsdk_set_raw_data(ptr[C.ob_device](dev), C.ob_property_id(id), p, C.uint32_t(len(data)), on(fn != nil), C.bool(async), C.uintptr_t(token), &ce)
	setErr(e, ce)
}

func (sdk) DeviceGetState(dev Handle, e *ErrorRef) uint64 {
	var ce *C.ob_error
	v := C.ob_device_get_device_state(ptr[C.ob_device](dev), &ce)
	setErr(e, ce)
	return uint64(v)
}

func (sdk) DeviceSetStateChangedCallback(dev Handle, fn DeviceStateFunc, token Token, e *ErrorRef) {
	setCallback(token, fn, fn != nil)
	var ce *C.ob_error
	C.obsdk_set_device_state(ptr[C.ob_device](dev), on(fn != nil), C.uintptr_t(token), &ce)
	setErr(e, ce)
}

func (sdk) DeviceReboot(dev Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_device_reboot(ptr[C.ob_device](dev), &ce)
	setErr(e, ce)
}

func (sdk) DeviceTimestampReset(dev Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_device_timestamp_reset(ptr[C.ob_device](dev), &ce)
	setErr(e, ce)
}

func (sdk) DeviceEnableHeartbeat(dev Handle, enable bool, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_device_enable_heartbeat(ptr[C.ob_device](dev), C.bool(enable), &ce)
	setErr(e, ce)
}

func (sdk) DeviceGetCurrentPresetName(dev Handle, e *ErrorRef) string {
	var ce *C.ob_error
	s := C.ob_device_get_current_preset_name(ptr[C.ob_device](dev), &ce)
	setErr(e, ce)
	return C.GoString(s)
}

func (sdk) DeviceLoadPreset(dev Handle, name string, e *ErrorRef) {
	cs, free := cstr(name)
	defer free()
	var ce *C.ob_error
	C.ob_device_load_preset(ptr[C.ob_device](dev), cs, &ce)
	setErr(e, ce)
}

func (sdk) DeviceLoadPresetFromJSONData(dev Handle, name string, data []byte, e *ErrorRef) {
	cs, free := cstr(name)
	defer free()
	p, freeData := cbytes(data)
	defer freeData()
	var ce *C.ob_error
	C.ob_device_load_preset_from_json_data(ptr[C.ob_device](dev), cs, (*C.uint8_t)(p), C.uint32_t(len(data)), &ce)
	setErr(e, ce)
}

func (sdk) DeviceGetAvailablePresetList(dev Handle, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_device_get_available_preset_list(ptr[C.ob_device](dev), &ce))
	setErr(e, ce)
	return h
}

func (sdk) DeviceLoadPresetFromJSONFile(dev Handle, path string, e *ErrorRef) {
	cs, free := cstr(path)
	defer free()
	var ce *C.ob_error
	C.ob_device_load_preset_from_json_file(ptr[C.ob_device](dev), cs, &ce)
	setErr(e, ce)
}

func (sdk) DeviceExportSettingsAsPresetJSONFile(dev Handle, path string, e *ErrorRef) {
	cs, free := cstr(path)
	defer free()
	var ce *C.ob_error
	C.ob_device_export_current_settings_as_preset_json_file(ptr[C.ob_device](dev), cs, &ce)
	setErr(e, ce)
}

func (sdk) DeviceExportSettingsAsPresetJSONData(dev Handle, name string, e *ErrorRef) []byte {
	cs, free := cstr(name)
	defer free()
	var (
		ce   *C.ob_error
		data *C.uint8_t
		n    C.uint32_t
	)
	C.ob_device_export_current_settings_as_preset_json_data(ptr[C.ob_device](dev), cs, &data, &n, &ce)
	setErr(e, ce)
	if ce != nil || data == nil {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(data), C.int(n))
}

// ---- depth work modes and calibration

func depthWorkModeFromC(m C.ob_depth_work_mode) DepthWorkMode {
	var out DepthWorkMode
	for i := range out.Checksum {
		out.Checksum[i] = byte(m.checksum[i])
	}
	out.Name = C.GoString(&m.name[0])
	return out
}

func depthWorkModeToC(m DepthWorkMode) C.ob_depth_work_mode {
	var out C.ob_depth_work_mode
	for i := range m.Checksum {
		out.checksum[i] = C.uint8_t(m.Checksum[i])
	}
	for i := 0; i < len(m.Name) && i < len(out.name)-1; i++ {
		out.name[i] = C.char(m.Name[i])
	}
	return out
}

func (sdk) DeviceGetCurrentDepthWorkMode(dev Handle, e *ErrorRef) DepthWorkMode {
	var ce *C.ob_error
	m := C.ob_device_get_current_depth_work_mode(ptr[C.ob_device](dev), &ce)
	setErr(e, ce)
	return depthWorkModeFromC(m)
}

func (sdk) DeviceGetCurrentDepthWorkModeName(dev Handle, e *ErrorRef) string {
	var ce *C.ob_error
	s := C.ob_device_get_current_depth_work_mode_name(ptr[C.ob_device](dev), &ce)
	setErr(e, ce)
	return C.GoString(s)
}

func (sdk) DeviceSwitchDepthWorkMode(dev Handle, mode DepthWorkMode, e *ErrorRef) {
	cm := depthWorkModeToC(mode)
	var ce *C.ob_error
	C.ob_device_switch_depth_work_mode(ptr[C.ob_device](dev), &cm, &ce)
	setErr(e, ce)
}

func (sdk) DeviceSwitchDepthWorkModeByName(dev Handle, name string, e *ErrorRef) {
	cs, free := cstr(name)
	defer free()
	var ce *C.ob_error
	C.ob_device_switch_depth_work_mode_by_name(ptr[C.ob_device](dev), cs, &ce)
	setErr(e, ce)
}

func (sdk) DeviceGetDepthWorkModeList(dev Handle, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_device_get_depth_work_mode_list(ptr[C.ob_device](dev), &ce))
	setErr(e, ce)
	return h
}

func (sdk) DepthWorkModeListCount(list Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	n := C.ob_depth_work_mode_list_get_count(ptr[C.ob_depth_work_mode_list](list), &ce)
	setErr(e, ce)
	return uint32(n)
}

func (sdk) DepthWorkModeListGetItem(list Handle, index uint32, e *ErrorRef) DepthWorkMode {
	var ce *C.ob_error
	m := C.ob_depth_work_mode_list_get_item(ptr[C.ob_depth_work_mode_list](list), C.uint32_t(index), &ce)
	setErr(e, ce)
	return depthWorkModeFromC(m)
}

func (sdk) DeleteDepthWorkModeList(list Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_depth_work_mode_list(ptr[C.ob_depth_work_mode_list](list), &ce)
	setErr(e, ce)
}

func (sdk) DeviceGetCalibrationCameraParamList(dev Handle, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_device_get_calibration_camera_param_list(ptr[C.ob_device](dev), &ce))
	setErr(e, ce)
	return h
}

func (sdk) CameraParamListCount(list Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	n := C.ob_camera_param_list_get_count(ptr[C.ob_camera_param_list](list), &ce)
	setErr(e, ce)
	return uint32(n)
}

func (sdk) CameraParamListGetParam(list Handle, index uint32, e *ErrorRef) CameraParam {
	var ce *C.ob_error
	cp := C.ob_camera_param_list_get_param(ptr[C.ob_camera_param_list](list), C.uint32_t(index), &ce)
	setErr(e, ce)
	return cameraParamFromC(cp)
}

func (sdk) DeleteCameraParamList(list Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_camera_param_list(ptr[C.ob_camera_param_list](list), &ce)
	setErr(e, ce)
}

// ---- sync, timestamps and extension info

func (sdk) DeviceGetSupportedMultiDeviceSyncModeBitmap(dev Handle, e *ErrorRef) uint16 {
	var ce *C.ob_error
	v := C.ob_device_get_supported_multi_device_sync_mode_bitmap(ptr[C.ob_device](dev), &ce)
	setErr(e, ce)
	return uint16(v)
}

func (sdk) DeviceTriggerCapture(dev Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_device_trigger_capture(ptr[C.ob_device](dev), &ce)
	setErr(e, ce)
}

func (sdk) DeviceTimerSyncWithHost(dev Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_device_timer_sync_with_host(ptr[C.ob_device](dev), &ce)
	setErr(e, ce)
}

func (sdk) DeviceIsGlobalTimestampSupported(dev Handle, e *ErrorRef) bool {
	var ce *C.ob_error
	v := C.ob_device_is_global_timestamp_supported(ptr[C.ob_device](dev), &ce)
	setErr(e, ce)
	return bool(v)
}

func (sdk) DeviceEnableGlobalTimestamp(dev Handle, enable bool, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_device_enable_global_timestamp(ptr[C.ob_device](dev), C.bool(enable), &ce)
	setErr(e, ce)
}

func (sdk) DeviceIsExtensionInfoExist(dev Handle, key string, e *ErrorRef) bool {
	cs, free := cstr(key)
	defer free()
	var ce *C.ob_error
	v := C.ob_device_is_extension_info_exist(ptr[C.ob_device](dev), cs, &ce)
	setErr(e, ce)
	return bool(v)
}

func (sdk) DeviceGetExtensionInfo(dev Handle, key string, e *ErrorRef) string {
	cs, free := cstr(key)
	defer free()
	var ce *C.ob_error
	s := C.ob_device_get_extension_info(ptr[C.ob_device](dev), cs, &ce)
	setErr(e, ce)
	return C.GoString(s)
}

// ---- device info

func infoString(info Handle, e *ErrorRef, get func(*C.ob_device_info, **C.ob_error) *C.char) string {
	var ce *C.ob_error
	s := get(ptr[C.ob_device_info](info), &ce)
	setErr(e, ce)
	return C.GoString(s)
}

func (sdk) DeviceInfoName(info Handle, e *ErrorRef) string {
	return infoString(info, e, func(i *C.ob_device_info, ce **C.ob_error) *C.char { return C.ob_device_info_get_name(i, ce) })
}

func (sdk) DeviceInfoPID(info Handle, e *ErrorRef) int32 {
	var ce *C.ob_error
	v := C.ob_device_info_get_pid(ptr[C.ob_device_info](info), &ce)
	setErr(e, ce)
	return int32(v)
}

func (sdk) DeviceInfoVID(info Handle, e *ErrorRef) int32 {
	var ce *C.ob_error
	v := C.ob_device_info_get_vid(ptr[C.ob_device_info](info), &ce)
	setErr(e, ce)
	return int32(v)
}

func (sdk) DeviceInfoUID(info Handle, e *ErrorRef) string {
	return infoString(info, e, func(i *C.ob_device_info, ce **C.ob_error) *C.char { return C.ob_device_info_get_uid(i, ce) })
}

func (sdk) DeviceInfoSerialNumber(info Handle, e *ErrorRef) string {
	return infoString(info, e, func(i *C.ob_device_info, ce **C.ob_error) *C.char { return C.ob_device_info_get_serial_number(i, ce) })
}

func (sdk) DeviceInfoFirmwareVersion(info Handle, e *ErrorRef) string {
	return infoString(info, e, func(i *C.ob_device_info, ce **C.ob_error) *C.char {
		return C.ob_device_info_get_firmware_version(i, ce)
	})
}

func (sdk) DeviceInfoHardwareVersion(info Handle, e *ErrorRef) string {
	return infoString(info, e, func(i *C.ob_device_info, ce **C.ob_error) *C.char {
		return C.ob_device_info_get_hardware_version(i, ce)
	})
}

func (sdk) DeviceInfoConnectionType(info Handle, e *ErrorRef) string {
	return infoString(info, e, func(i *C.ob_device_info, ce **C.ob_error) *C.char {
		return C.ob_device_info_get_connection_type(i, ce)
	})
}

func (sdk) DeleteDeviceInfo(info Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_device_info(ptr[C.ob_device_info](info), &ce)
	setErr(e, ce)
}

// ---- presets

func (sdk) PresetListCount(list Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	n := C.ob_device_preset_list_get_count(ptr[C.ob_device_preset_list](list), &ce)
	setErr(e, ce)
	return uint32(n)
}

func (sdk) PresetListName(list Handle, index uint32, e *ErrorRef) string {
	var ce *C.ob_error
	s := C.ob_device_preset_list_get_name(ptr[C.ob_device_preset_list](list), C.uint32_t(index), &ce)
	setErr(e, ce)
	return C.GoString(s)
}

func (sdk) PresetListHas(list Handle, name string, e *ErrorRef) bool {
	cs, free := cstr(name)
	defer free()
	var ce *C.ob_error
	v := C.ob_device_preset_list_has_preset(ptr[C.ob_device_preset_list](list), cs, &ce)
	setErr(e, ce)
	return bool(v)
}

func (sdk) DeletePresetList(list Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_preset_list(ptr[C.ob_device_preset_list](list), &ce)
	setErr(e, ce)
}

// ---- sensors

func (sdk) SensorListCount(list Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	n := C.ob_sensor_list_get_count(ptr[C.ob_sensor_list](list), &ce)
	setErr(e, ce)
	return uint32(n)
}

func (sdk) SensorListType(list Handle, index uint32, e *ErrorRef) SensorType {
	var ce *C.ob_error
	t := C.ob_sensor_list_get_sensor_type(ptr[C.ob_sensor_list](list), C.uint32_t(index), &ce)
	setErr(e, ce)
	return SensorType(t)
}

func (sdk) SensorListGetSensor(list Handle, index uint32, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_sensor_list_get_sensor(ptr[C.ob_sensor_list](list), C.uint32_t(index), &ce))
	setErr(e, ce)
	return h
}

func (sdk) SensorListGetSensorByType(list Handle, sensor SensorType, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_sensor_list_get_sensor_by_type(ptr[C.ob_sensor_list](list), C.ob_sensor_type(sensor), &ce))
	setErr(e, ce)
	return h
}

func (sdk) DeleteSensorList(list Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_sensor_list(ptr[C.ob_sensor_list](list), &ce)
	setErr(e, ce)
}

func (sdk) SensorGetType(sensor Handle, e *ErrorRef) SensorType {
	var ce *C.ob_error
	t := C.ob_sensor_get_type(ptr[C.ob_sensor](sensor), &ce)
	setErr(e, ce)
	return SensorType(t)
}

func (sdk) SensorGetStreamProfileList(sensor Handle, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_sensor_get_stream_profile_list(ptr[C.ob_sensor](sensor), &ce))
	setErr(e, ce)
	return h
}

func (sdk) SensorStart(sensor, profile Handle, fn FrameFunc, token Token, e *ErrorRef) {
	setCallback(token, fn, fn != nil)
	var ce *C.ob_error
	C.obsdk_sensor_start(ptr[C.ob_sensor](sensor), ptr[C.ob_stream_profile](profile), C.uintptr_t(token), &ce)
	setErr(e, ce)
}

func (sdk) SensorStop(sensor Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_sensor_stop(ptr[C.ob_sensor](sensor), &ce)
	setErr(e, ce)
}

func (sdk) SensorSwitchProfile(sensor, profile Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_sensor_switch_profile(ptr[C.ob_sensor](sensor), ptr[C.ob_stream_profile](profile), &ce)
	setErr(e, ce)
}

func (sdk) SensorCreateRecommendedFilterList(sensor Handle, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_sensor_create_recommended_filter_list(ptr[C.ob_sensor](sensor), &ce))
	setErr(e, ce)
	return h
}

func (sdk) DeleteSensor(sensor Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_sensor(ptr[C.ob_sensor](sensor), &ce)
	setErr(e, ce)
}

func (sdk) FilterListCount(list Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	n := C.ob_filter_list_get_count(ptr[C.ob_filter_list](list), &ce)
	setErr(e, ce)
	return uint32(n)
}

func (sdk) FilterListGetFilter(list Handle, index uint32, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_filter_list_get_filter(ptr[C.ob_filter_list](list), C.uint32_t(index), &ce))
	setErr(e, ce)
	return h
}

func (sdk) DeleteFilterList(list Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_filter_list(ptr[C.ob_filter_list](list), &ce)
	setErr(e, ce)
}

// ---- stream profiles

func (sdk) StreamProfileListCount(list Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	n := C.ob_stream_profile_list_get_count(ptr[C.ob_stream_profile_list](list), &ce)
	setErr(e, ce)
	return uint32(n)
}

func (sdk) StreamProfileListGetProfile(list Handle, index uint32, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_stream_profile_list_get_profile(ptr[C.ob_stream_profile_list](list), C.int(index), &ce))
	setErr(e, ce)
	return h
}

func (sdk) StreamProfileListGetVideoProfile(list Handle, width, height int32, format Format, fps int32, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_stream_profile_list_get_video_stream_profile(ptr[C.ob_stream_profile_list](list),
		C.int(width), C.int(height), C.ob_format(format), C.int(fps), &ce))
	setErr(e, ce)
	return h
}

func (sdk) DeleteStreamProfileList(list Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_stream_profile_list(ptr[C.ob_stream_profile_list](list), &ce)
	setErr(e, ce)
}

func (sdk) StreamProfileType(profile Handle, e *ErrorRef) StreamType {
	var ce *C.ob_error
	t := C.ob_stream_profile_get_type(ptr[C.ob_stream_profile](profile), &ce)
	setErr(e, ce)
	return StreamType(t)
}

func (sdk) StreamProfileFormat(profile Handle, e *ErrorRef) Format {
	var ce *C.ob_error
	f := C.ob_stream_profile_get_format(ptr[C.ob_stream_profile](profile), &ce)
	setErr(e, ce)
	return Format(f)
}

func (sdk) VideoStreamProfileWidth(profile Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	v := C.ob_video_stream_profile_get_width(ptr[C.ob_stream_profile](profile), &ce)
	setErr(e, ce)
	return uint32(v)
}

func (sdk) VideoStreamProfileHeight(profile Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	v := C.ob_video_stream_profile_get_height(ptr[C.ob_stream_profile](profile), &ce)
	setErr(e, ce)
	return uint32(v)
}

func (sdk) VideoStreamProfileFPS(profile Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	v := C.ob_video_stream_profile_get_fps(ptr[C.ob_stream_profile](profile), &ce)
	setErr(e, ce)
	return uint32(v)
}

func (sdk) DeleteStreamProfile(profile Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_stream_profile(ptr[C.ob_stream_profile](profile), &ce)
	setErr(e, ce)
}

// ---- pipeline and config

func (sdk) CreatePipeline(e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_create_pipeline(&ce))
	setErr(e, ce)
	return h
}

func (sdk) CreatePipelineWithDevice(dev Handle, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_create_pipeline_with_device(ptr[C.ob_device](dev), &ce))
	setErr(e, ce)
	return h
}

func (sdk) DeletePipeline(p Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_pipeline(ptr[C.ob_pipeline](p), &ce)
	setErr(e, ce)
}

func (sdk) PipelineStart(p Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_pipeline_start(ptr[C.ob_pipeline](p), &ce)
	setErr(e, ce)
}

func (sdk) PipelineStartWithConfig(p, cfg Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_pipeline_start_with_config(ptr[C.ob_pipeline](p), ptr[C.ob_config](cfg), &ce)
	setErr(e, ce)
}

func (sdk) PipelineStartWithCallback(p, cfg Handle, fn FrameFunc, token Token, e *ErrorRef) {
	setCallback(token, fn, fn != nil)
	var ce *C.ob_error
	C.obsdk_pipeline_start_with_callback(ptr[C.ob_pipeline](p), ptr[C.ob_config](cfg), C.uintptr_t(token), &ce)
	setErr(e, ce)
}

func (sdk) PipelineStop(p Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_pipeline_stop(ptr[C.ob_pipeline](p), &ce)
	setErr(e, ce)
}

func (sdk) PipelineWaitForFrameset(p Handle, timeoutMs uint32, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_pipeline_wait_for_frameset(ptr[C.ob_pipeline](p), C.uint32_t(timeoutMs), &ce))
	setErr(e, ce)
	return h
}

func (sdk) PipelineGetDevice(p Handle, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_pipeline_get_device(ptr[C.ob_pipeline](p), &ce))
	setErr(e, ce)
	return h
}

func (sdk) PipelineGetStreamProfileList(p Handle, sensor SensorType, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_pipeline_get_stream_profile_list(ptr[C.ob_pipeline](p), C.ob_sensor_type(sensor), &ce))
	setErr(e, ce)
	return h
}

func (sdk) PipelineEnableFrameSync(p Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_pipeline_enable_frame_sync(ptr[C.ob_pipeline](p), &ce)
	setErr(e, ce)
}

func (sdk) PipelineDisableFrameSync(p Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_pipeline_disable_frame_sync(ptr[C.ob_pipeline](p), &ce)
	setErr(e, ce)
}

func (sdk) CreateConfig(e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_create_config(&ce))
	setErr(e, ce)
	return h
}

func (sdk) DeleteConfig(cfg Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_config(ptr[C.ob_config](cfg), &ce)
	setErr(e, ce)
}

func (sdk) ConfigEnableStream(cfg, profile Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_config_enable_stream_with_stream_profile(ptr[C.ob_config](cfg), ptr[C.ob_stream_profile](profile), &ce)
	setErr(e, ce)
}

func (sdk) ConfigDisableStream(cfg Handle, stream StreamType, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_config_disable_stream(ptr[C.ob_config](cfg), C.ob_stream_type(stream), &ce)
	setErr(e, ce)
}

func (sdk) ConfigDisableAllStream(cfg Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_config_disable_all_stream(ptr[C.ob_config](cfg), &ce)
	setErr(e, ce)
}

func (sdk) ConfigSetAlignMode(cfg Handle, mode AlignMode, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_config_set_align_mode(ptr[C.ob_config](cfg), C.ob_align_mode(mode), &ce)
	setErr(e, ce)
}

// ---- frames

func (sdk) FrameIndex(f Handle, e *ErrorRef) uint64 {
	var ce *C.ob_error
	v := C.ob_frame_get_index(ptr[C.ob_frame](f), &ce)
	setErr(e, ce)
	return uint64(v)
}

func (sdk) FrameFormat(f Handle, e *ErrorRef) Format {
	var ce *C.ob_error
	v := C.ob_frame_get_format(ptr[C.ob_frame](f), &ce)
	setErr(e, ce)
	return Format(v)
}

func (sdk) FrameType(f Handle, e *ErrorRef) FrameType {
	var ce *C.ob_error
	v := C.ob_frame_get_type(ptr[C.ob_frame](f), &ce)
	setErr(e, ce)
	return FrameType(v)
}

func (sdk) FrameTimestampUs(f Handle, e *ErrorRef) uint64 {
	var ce *C.ob_error
	v := C.ob_frame_get_timestamp_us(ptr[C.ob_frame](f), &ce)
	setErr(e, ce)
	return uint64(v)
}

func (sdk) FrameSystemTimestampUs(f Handle, e *ErrorRef) uint64 {
	var ce *C.ob_error
	v := C.ob_frame_get_system_timestamp_us(ptr[C.ob_frame](f), &ce)
	setErr(e, ce)
	return uint64(v)
}

func (sdk) FrameDataSize(f Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	v := C.ob_frame_get_data_size(ptr[C.ob_frame](f), &ce)
	setErr(e, ce)
	return uint32(v)
}

func (sdk) FrameData(f Handle, buf []byte, e *ErrorRef) uint32 {
	var ce *C.ob_error
	fr := ptr[C.ob_frame](f)
	size := C.ob_frame_get_data_size(fr, &ce)
	if ce != nil {
		setErr(e, ce)
		return 0
	}
	p := C.ob_frame_get_data(fr, &ce)
	setErr(e, ce)
	if ce != nil || p == nil {
		return 0
	}
	n := min(int(size), len(buf))
	copy(buf, unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
	return uint32(n)
}

func (sdk) VideoFrameWidth(f Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	v := C.ob_video_frame_get_width(ptr[C.ob_frame](f), &ce)
	setErr(e, ce)
	return uint32(v)
}

func (sdk) VideoFrameHeight(f Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	v := C.ob_video_frame_get_height(ptr[C.ob_frame](f), &ce)
	setErr(e, ce)
	return uint32(v)
}

func (sdk) FrameAddRef(f Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_frame_add_ref(ptr[C.ob_frame](f), &ce)
	setErr(e, ce)
}

func (sdk) DeleteFrame(f Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_frame(ptr[C.ob_frame](f), &ce)
	setErr(e, ce)
}

func (sdk) FramesetFrameCount(fs Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	v := C.ob_frameset_get_count(ptr[C.ob_frame](fs), &ce)
	setErr(e, ce)
	return uint32(v)
}

func (sdk) FramesetGetFrame(fs Handle, t FrameType, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_frameset_get_frame(ptr[C.ob_frame](fs), C.ob_frame_type(t), &ce))
	setErr(e, ce)
	return h
}

// ---- filters

func (sdk) CreateFilter(name string, e *ErrorRef) Handle {
	cs, free := cstr(name)
	defer free()
	var ce *C.ob_error
	h := handleOf(C.ob_create_filter(cs, &ce))
	setErr(e, ce)
	return h
}

func (sdk) FilterName(f Handle, e *ErrorRef) string {
	var ce *C.ob_error
	s := C.ob_filter_get_name(ptr[C.ob_filter](f), &ce)
	setErr(e, ce)
	return C.GoString(s)
}

func (sdk) FilterProcess(f, frame Handle, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_filter_process(ptr[C.ob_filter](f), ptr[C.ob_frame](frame), &ce))
	setErr(e, ce)
	return h
}

func (sdk) FilterEnable(f Handle, enable bool, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_filter_enable(ptr[C.ob_filter](f), C.bool(enable), &ce)
	setErr(e, ce)
}

func (sdk) FilterIsEnabled(f Handle, e *ErrorRef) bool {
	var ce *C.ob_error
	v := C.ob_filter_is_enabled(ptr[C.ob_filter](f), &ce)
	setErr(e, ce)
	return bool(v)
}

func (sdk) FilterReset(f Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_filter_reset(ptr[C.ob_filter](f), &ce)
	setErr(e, ce)
}

func (sdk) FilterSetCallback(f Handle, fn FrameFunc, token Token, e *ErrorRef) {
	setCallback(token, fn, fn != nil)
	var ce *C.ob_error
	C.obsdk_filter_set_callback(ptr[C.ob_filter](f), on(fn != nil), C.uintptr_t(token), &ce)
	setErr(e, ce)
}

func (sdk) FilterPushFrame(f, frame Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_filter_push_frame(ptr[C.ob_filter](f), ptr[C.ob_frame](frame), &ce)
	setErr(e, ce)
}

func (sdk) FilterGetConfigSchemaList(f Handle, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_filter_get_config_schema_list(ptr[C.ob_filter](f), &ce))
	setErr(e, ce)
	return h
}

func (sdk) FilterSetConfigValue(f Handle, name string, value float64, e *ErrorRef) {
	cs, free := cstr(name)
	defer free()
	var ce *C.ob_error
	C.ob_filter_set_config_value(ptr[C.ob_filter](f), cs, C.double(value), &ce)
	setErr(e, ce)
}

func (sdk) FilterGetConfigValue(f Handle, name string, e *ErrorRef) float64 {
	cs, free := cstr(name)
	defer free()
	var ce *C.ob_error
	v := C.ob_filter_get_config_value(ptr[C.ob_filter](f), cs, &ce)
	setErr(e, ce)
	return float64(v)
}

func (sdk) DeleteFilter(f Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_filter(ptr[C.ob_filter](f), &ce)
	setErr(e, ce)
}

func (sdk) FilterConfigSchemaListCount(list Handle, e *ErrorRef) uint32 {
	var ce *C.ob_error
	n := C.ob_filter_config_schema_list_get_count(ptr[C.ob_filter_config_schema_list](list), &ce)
	setErr(e, ce)
	return uint32(n)
}

func (sdk) FilterConfigSchemaListGetItem(list Handle, index uint32, e *ErrorRef) FilterConfigSchemaItem {
	var ce *C.ob_error
	it := C.ob_filter_config_schema_list_get_item(ptr[C.ob_filter_config_schema_list](list), C.uint32_t(index), &ce)
	setErr(e, ce)
	return FilterConfigSchemaItem{
		Name: C.GoString(it.name),
		Type: FilterConfigValueType(it._type),
		Min:  float64(it.min),
		Max:  float64(it.max),
		Step: float64(it.step),
		Def:  float64(it.def),
		Desc: C.GoString(it.desc),
	}
}

func (sdk) DeleteFilterConfigSchemaList(list Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_filter_config_schema_list(ptr[C.ob_filter_config_schema_list](list), &ce)
	setErr(e, ce)
}

// ---- playback and recorder

func (sdk) CreatePlayback(path string, e *ErrorRef) Handle {
	cs, free := cstr(path)
	defer free()
	var ce *C.ob_error
	h := handleOf(C.ob_create_playback(cs, &ce))
	setErr(e, ce)
	return h
}

func (sdk) DeletePlayback(p Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_playback(ptr[C.ob_playback](p), &ce)
	setErr(e, ce)
}

func (sdk) PlaybackStart(p Handle, fn FrameFunc, token Token, media MediaType, e *ErrorRef) {
	setCallback(token, fn, fn != nil)
	var ce *C.ob_error
	C.obsdk_playback_start(ptr[C.ob_playback](p), C.uintptr_t(token), C.ob_media_type(media), &ce)
	setErr(e, ce)
}

func (sdk) PlaybackStop(p Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_playback_stop(ptr[C.ob_playback](p), &ce)
	setErr(e, ce)
}

func (sdk) PlaybackSetStateCallback(p Handle, fn MediaStateFunc, token Token, e *ErrorRef) {
	setCallback(token, fn, fn != nil)
	var ce *C.ob_error
	C.obsdk_playback_set_state(ptr[C.ob_playback](p), on(fn != nil), C.uintptr_t(token), &ce)
	setErr(e, ce)
}

func (sdk) PlaybackGetDeviceInfo(p Handle, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_playback_get_device_info(ptr[C.ob_playback](p), &ce))
	setErr(e, ce)
	return h
}

func (sdk) PlaybackGetCameraParam(p Handle, e *ErrorRef) CameraParam {
	var ce *C.ob_error
	cp := C.ob_playback_get_camera_param(ptr[C.ob_playback](p), &ce)
	setErr(e, ce)
	return cameraParamFromC(cp)
}

func intrinsicFromC(in C.ob_camera_intrinsic) Intrinsic {
	return Intrinsic{
		Fx: float32(in.fx), Fy: float32(in.fy), Cx: float32(in.cx), Cy: float32(in.cy),
		Width: int16(in.width), Height: int16(in.height),
	}
}

func distortionFromC(d C.ob_camera_distortion) Distortion {
	return Distortion{
		K1: float32(d.k1), K2: float32(d.k2), K3: float32(d.k3),
		K4: float32(d.k4), K5: float32(d.k5), K6: float32(d.k6),
		P1: float32(d.p1), P2: float32(d.p2),
	}
}

func cameraParamFromC(cp C.ob_camera_param) CameraParam {
	out := CameraParam{
		DepthIntrinsic:  intrinsicFromC(cp.depthIntrinsic),
		RGBIntrinsic:    intrinsicFromC(cp.rgbIntrinsic),
		DepthDistortion: distortionFromC(cp.depthDistortion),
		RGBDistortion:   distortionFromC(cp.rgbDistortion),
		IsMirrored:      bool(cp.isMirrored),
	}
	for i := range out.Transform.Rot {
		out.Transform.Rot[i] = float32(cp.transform.rot[i])
	}
	for i := range out.Transform.Trans {
		out.Transform.Trans[i] = float32(cp.transform.trans[i])
	}
	return out
}

func (sdk) CreateRecorder(e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_create_recorder(&ce))
	setErr(e, ce)
	return h
}

func (sdk) CreateRecorderWithDevice(dev Handle, e *ErrorRef) Handle {
	var ce *C.ob_error
	h := handleOf(C.ob_create_recorder_with_device(ptr[C.ob_device](dev), &ce))
	setErr(e, ce)
	return h
}

func (sdk) DeleteRecorder(r Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_delete_recorder(ptr[C.ob_recorder](r), &ce)
	setErr(e, ce)
}

func (sdk) RecorderStart(r Handle, path string, async bool, e *ErrorRef) {
	cs, free := cstr(path)
	defer free()
	var ce *C.ob_error
	C.ob_recorder_start(ptr[C.ob_recorder](r), cs, C.bool(async), &ce)
	setErr(e, ce)
}

func (sdk) RecorderStop(r Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_recorder_stop(ptr[C.ob_recorder](r), &ce)
	setErr(e, ce)
}

func (sdk) RecorderWriteFrame(r, frame Handle, e *ErrorRef) {
	var ce *C.ob_error
	C.ob_recorder_write_frame(ptr[C.ob_recorder](r), ptr[C.ob_frame](frame), &ce)
	setErr(e, ce)
}

func (sdk) Version() Version {
	return Version{
		Major: int(C.ob_get_major_version()),
		Minor: int(C.ob_get_minor_version()),
		Patch: int(C.ob_get_patch_version()),
	}
}
