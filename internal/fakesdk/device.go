package fakesdk

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/orbbec/obsdk-go/internal/native"
)

type property struct {
	item                     native.PropertyItem
	min, max, step, def, cur float64
}

type structProp struct {
	item native.PropertyItem
	data []byte
}

// unit is one piece of simulated hardware. Several device handles may refer
// to the same unit.
type unit struct {
	spec     DeviceSpec
	attached bool
	state    uint64
	props    map[native.PropertyID]*property
	structs  map[native.PropertyID]*structProp
	raw      map[native.PropertyID][]byte
	preset   string
	presets  []string
	modes    []native.DepthWorkMode
	mode     int
	globalTS bool
	triggers int
	streams  map[native.SensorType]*stream
	taps     map[*recorderData]struct{}
	frameIdx map[native.FrameType]uint64
	clock    time.Time
}

type deviceData struct {
	u       *unit
	stateFn native.DeviceStateFunc
	token   native.Token
}

type presetListData struct {
	names []string
}

func newUnit(d DeviceSpec) *unit {
	u := &unit{
		spec:     d,
		attached: true,
		props:    make(map[native.PropertyID]*property),
		structs:  defaultStructs(),
		raw:      make(map[native.PropertyID][]byte),
		presets:  slices.Clone(d.Presets),
		streams:  make(map[native.SensorType]*stream),
		taps:     make(map[*recorderData]struct{}),
		frameIdx: make(map[native.FrameType]uint64),
		clock:    time.Now(),
	}
	if len(u.presets) > 0 {
		u.preset = u.presets[0]
	}
	for _, name := range d.DepthWorkModes {
		u.modes = append(u.modes, native.DepthWorkMode{Checksum: md5.Sum([]byte(name)), Name: name})
	}
	for _, p := range d.Properties {
		t, _ := propertyType(p.Type)
		u.props[native.PropertyID(p.ID)] = &property{
			item: native.PropertyItem{ID: native.PropertyID(p.ID), Name: p.Name, Type: t, Permission: permission(p.Permission)},
			min:  p.Min, max: p.Max, step: p.Step, def: p.Default, cur: p.Default,
		}
	}
	return u
}

func defaultStructs() map[native.PropertyID]*structProp {
	f32 := func(vs ...float32) []byte {
		b := make([]byte, 0, 4*len(vs))
		for _, v := range vs {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
		}
		return b
	}
	sync := make([]byte, 28)
	binary.LittleEndian.PutUint32(sync, 1)
	item := func(id native.PropertyID, name string, perm native.PermissionType) native.PropertyItem {
		return native.PropertyItem{ID: id, Name: name, Type: native.PropertyStruct, Permission: perm}
	}
	return map[native.PropertyID]*structProp{
		native.StructMultiDeviceSync: {
			item: item(native.StructMultiDeviceSync, "OB_STRUCT_MULTI_DEVICE_SYNC_CONFIG", native.PermissionReadWrite),
			data: sync,
		},
		native.StructTimestampReset: {
			item: item(native.StructTimestampReset, "OB_STRUCT_DEVICE_TIMESTAMP_RESET_CONFIG", native.PermissionReadWrite),
			data: make([]byte, 12),
		},
		native.StructDeviceTemperature: {
			item: item(native.StructDeviceTemperature, "OB_STRUCT_DEVICE_TEMPERATURE", native.PermissionRead),
			data: f32(45.5, 38.25, 36, 41, 30, 35.5, 39, 38, 38.5, 47, 44),
		},
		native.StructBaselineCalibration: {
			item: item(native.StructBaselineCalibration, "OB_STRUCT_BASELINE_CALIBRATION_PARAM", native.PermissionRead),
			data: f32(50, 25),
		},
	}
}

// takeStreams detaches every running stream. The caller holds s.mu and must
// halt the returned streams after unlocking.
func (u *unit) takeStreams() []*stream {
	out := make([]*stream, 0, len(u.streams))
	for t, st := range u.streams {
		out = append(out, st)
		delete(u.streams, t)
	}
	return out
}

func (u *unit) nextIndex(t native.FrameType) uint64 {
	u.frameIdx[t]++
	return u.frameIdx[t]
}

// device resolves a device handle and checks the unit is attached. The
// caller holds s.mu.
func (s *SDK) device(dev native.Handle, fn string, e *native.ErrorRef) (*deviceData, bool) {
	if !s.enter(fn, e) {
		return nil, false
	}
	d, ok := lookup[*deviceData](s, dev, KindDevice, fn, e)
	if !ok {
		return nil, false
	}
	if !d.u.attached {
		s.fail(e, native.ExceptionCameraDisconnected, fn, "device %s is disconnected", d.u.spec.Serial)
		return nil, false
	}
	return d, true
}

func (s *SDK) DeleteDevice(dev native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_device"
	if !s.enter(fn, e) {
		return
	}
	s.remove(dev, KindDevice, fn, e)
}

func (s *SDK) DeviceGetInfo(dev native.Handle, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_device_get_device_info", e)
	if !ok {
		return 0
	}
	spec := d.u.spec
	return s.add(KindDeviceInfo, &spec)
}

func (s *SDK) DeviceGetSensorList(dev native.Handle, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_device_get_sensor_list", e)
	if !ok {
		return 0
	}
	sl := &sensorListData{u: d.u}
	for _, ss := range d.u.spec.Sensors {
		t, _ := native.ParseSensorType(ss.Type)
		sl.types = append(sl.types, t)
	}
	return s.add(KindSensorList, sl)
}

func (s *SDK) DeviceGetSensor(dev native.Handle, t native.SensorType, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_get_sensor"
	d, ok := s.device(dev, fn, e)
	if !ok {
		return 0
	}
	return s.newSensor(d.u, t, fn, e)
}

// prop resolves a scalar property and checks its type and permission. The
// caller holds s.mu.
func (s *SDK) prop(dev native.Handle, id native.PropertyID, want native.PropertyType, perm native.PermissionType, fn string, e *native.ErrorRef) (*property, bool) {
	d, ok := s.device(dev, fn, e)
	if !ok {
		return nil, false
	}
	p, ok := d.u.props[id]
	if !ok {
		s.fail(e, native.ExceptionUnsupportedOperation, fn, "property %d is not supported", id)
		return nil, false
	}
	if p.item.Type != want {
		s.fail(e, native.ExceptionInvalidValue, fn, "property %d has type %d, not %d", id, p.item.Type, want)
		return nil, false
	}
	if p.item.Permission&perm == 0 {
		s.fail(e, native.ExceptionAccessDenied, fn, "property %d does not allow this access", id)
		return nil, false
	}
	return p, true
}

func (s *SDK) setProp(dev native.Handle, id native.PropertyID, t native.PropertyType, v float64, fn string, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prop(dev, id, t, native.PermissionWrite, fn, e)
	if !ok {
		return
	}
	if v < p.min || v > p.max {
		s.fail(e, native.ExceptionInvalidValue, fn, "value %v out of range [%v,%v]", v, p.min, p.max)
		return
	}
	p.cur = v
}

func (s *SDK) getProp(dev native.Handle, id native.PropertyID, t native.PropertyType, fn string, e *native.ErrorRef) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prop(dev, id, t, native.PermissionRead, fn, e)
	if !ok {
		return 0
	}
	return p.cur
}

func (s *SDK) DeviceSetIntProperty(dev native.Handle, id native.PropertyID, v int32, e *native.ErrorRef) {
	s.setProp(dev, id, native.PropertyInt, float64(v), "ob_device_set_int_property", e)
}

func (s *SDK) DeviceGetIntProperty(dev native.Handle, id native.PropertyID, e *native.ErrorRef) int32 {
	return int32(s.getProp(dev, id, native.PropertyInt, "ob_device_get_int_property", e))
}

func (s *SDK) DeviceSetFloatProperty(dev native.Handle, id native.PropertyID, v float32, e *native.ErrorRef) {
	s.setProp(dev, id, native.PropertyFloat, float64(v), "ob_device_set_float_property", e)
}

func (s *SDK) DeviceGetFloatProperty(dev native.Handle, id native.PropertyID, e *native.ErrorRef) float32 {
	return float32(s.getProp(dev, id, native.PropertyFloat, "ob_device_get_float_property", e))
}

func (s *SDK) DeviceSetBoolProperty(dev native.Handle, id native.PropertyID, v bool, e *native.ErrorRef) {
	f := 0.0
	if v {
		f = 1
	}
	s.setProp(dev, id, native.PropertyBool, f, "ob_device_set_bool_property", e)
}

func (s *SDK) DeviceGetBoolProperty(dev native.Handle, id native.PropertyID, e *native.ErrorRef) bool {
	return s.getProp(dev, id, native.PropertyBool, "ob_device_get_bool_property", e) != 0
}

func (s *SDK) DeviceSetStructuredData(dev native.Handle, id native.PropertyID, data []byte, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_set_structured_data"
	d, ok := s.device(dev, fn, e)
	if !ok {
		return
	}
	sp, ok := d.u.structs[id]
	switch {
	case !ok:
		s.fail(e, native.ExceptionUnsupportedOperation, fn, "structured property %d is not supported", id)
	case sp.item.Permission&native.PermissionWrite == 0:
		s.fail(e, native.ExceptionAccessDenied, fn, "structured property %d is read-only", id)
	case len(data) != len(sp.data):
		s.fail(e, native.ExceptionInvalidValue, fn, "structured property %d takes %d bytes, got %d", id, len(sp.data), len(data))
	default:
		sp.data = slices.Clone(data)
	}
}

func (s *SDK) DeviceGetStructuredData(dev native.Handle, id native.PropertyID, buf []byte, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_get_structured_data"
	d, ok := s.device(dev, fn, e)
	if !ok {
		return 0
	}
	sp, ok := d.u.structs[id]
	if !ok {
		s.fail(e, native.ExceptionUnsupportedOperation, fn, "structured property %d is not supported", id)
		return 0
	}
	return uint32(copy(buf, sp.data))
}

// SetStructuredPayload replaces a structured property's stored bytes,
// regardless of their length.
func (s *SDK) SetStructuredPayload(serial string, id native.PropertyID, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.unitBySerial(serial)
	if u == nil {
		return fmt.Errorf("fakesdk: no device %q", serial)
	}
	sp, ok := u.structs[id]
	if !ok {
		return fmt.Errorf("fakesdk: no structured property %d", id)
	}
	sp.data = slices.Clone(data)
	return nil
}

func (s *SDK) unitBySerial(serial string) *unit {
	for _, u := range s.units {
		if u.spec.Serial == serial {
			return u
		}
	}
	return nil
}

func (s *SDK) DeviceIsPropertySupported(dev native.Handle, id native.PropertyID, perm native.PermissionType, e *native.ErrorRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_device_is_property_supported", e)
	if !ok {
		return false
	}
	if p, ok := d.u.props[id]; ok {
		return p.item.Permission&perm == perm
	}
	if sp, ok := d.u.structs[id]; ok {
		return sp.item.Permission&perm == perm
	}
	return false
}

func (s *SDK) DeviceGetIntPropertyRange(dev native.Handle, id native.PropertyID, e *native.ErrorRef) native.IntRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prop(dev, id, native.PropertyInt, native.PermissionRead, "ob_device_get_int_property_range", e)
	if !ok {
		return native.IntRange{}
	}
	return native.IntRange{Cur: int32(p.cur), Max: int32(p.max), Min: int32(p.min), Step: int32(p.step), Def: int32(p.def)}
}

func (s *SDK) DeviceGetFloatPropertyRange(dev native.Handle, id native.PropertyID, e *native.ErrorRef) native.FloatRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prop(dev, id, native.PropertyFloat, native.PermissionRead, "ob_device_get_float_property_range", e)
	if !ok {
		return native.FloatRange{}
	}
	return native.FloatRange{Cur: float32(p.cur), Max: float32(p.max), Min: float32(p.min), Step: float32(p.step), Def: float32(p.def)}
}

func (s *SDK) DeviceGetBoolPropertyRange(dev native.Handle, id native.PropertyID, e *native.ErrorRef) native.BoolRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prop(dev, id, native.PropertyBool, native.PermissionRead, "ob_device_get_bool_property_range", e)
	if !ok {
		return native.BoolRange{}
	}
	return native.BoolRange{Cur: p.cur != 0, Max: p.max != 0, Min: p.min != 0, Step: p.step != 0, Def: p.def != 0}
}

// supported lists scalar then structured properties in id order.
func (u *unit) supported() []native.PropertyItem {
	out := make([]native.PropertyItem, 0, len(u.props)+len(u.structs))
	for _, p := range u.props {
		out = append(out, p.item)
	}
	for _, sp := range u.structs {
		out = append(out, sp.item)
	}
	slices.SortFunc(out, func(a, b native.PropertyItem) int { return int(a.ID) - int(b.ID) })
	return out
}

func (s *SDK) DeviceGetSupportedPropertyCount(dev native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_device_get_supported_property_count", e)
	if !ok {
		return 0
	}
	return uint32(len(d.u.props) + len(d.u.structs))
}

func (s *SDK) DeviceGetSupportedProperty(dev native.Handle, index uint32, e *native.ErrorRef) native.PropertyItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_get_supported_property_item"
	d, ok := s.device(dev, fn, e)
	if !ok {
		return native.PropertyItem{}
	}
	items := d.u.supported()
	if int(index) >= len(items) {
		s.fail(e, native.ExceptionInvalidValue, fn, "index %d out of range [0,%d)", index, len(items))
		return native.PropertyItem{}
	}
	return items[index]
}

type upgradeStep struct {
	state   native.UpgradeState
	msg     string
	percent uint8
}

var upgradeSteps = []upgradeStep{
	{native.UpgradeStart, "upgrade started", 0},
	{native.UpgradeFileTransfer, "transferring image", 30},
	{native.UpgradeInProgress, "writing flash", 60},
	{native.UpgradeVerifyImage, "verifying image", 90},
	{native.UpgradeDone, "upgrade done", 100},
}

func (s *SDK) DeviceUpgrade(dev native.Handle, path string, cb native.UpgradeFunc, async bool, token native.Token, e *native.ErrorRef) {
	const fn = "ob_device_update_firmware"
	s.mu.Lock()
	s.bind(token, cb != nil)
	d, ok := s.device(dev, fn, e)
	if !ok {
		s.mu.Unlock()
		return
	}
	if _, err := os.Stat(path); err != nil {
		s.fail(e, native.ExceptionIO, fn, "firmware image: %v", err)
		s.mu.Unlock()
		return
	}
	u := d.u
	s.mu.Unlock()
	s.upgrade(u, filepath.Base(path), cb, async, token)
}

func (s *SDK) DeviceUpgradeFromData(dev native.Handle, data []byte, cb native.UpgradeFunc, async bool, token native.Token, e *native.ErrorRef) {
	const fn = "ob_device_update_firmware_from_data"
	s.mu.Lock()
	s.bind(token, cb != nil)
	d, ok := s.device(dev, fn, e)
	if !ok {
		s.mu.Unlock()
		return
	}
	if len(data) == 0 {
		s.fail(e, native.ExceptionInvalidValue, fn, "empty firmware image")
		s.mu.Unlock()
		return
	}
	u := d.u
	s.mu.Unlock()
	s.upgrade(u, fmt.Sprintf("%d bytes", len(data)), cb, async, token)
}

func (s *SDK) upgrade(u *unit, image string, cb native.UpgradeFunc, async bool, token native.Token) {
	run := func() {
		for _, st := range upgradeSteps {
			if cb != nil {
				cb(st.state, st.msg+": "+image, st.percent, token)
			}
		}
		s.mu.Lock()
		u.spec.Firmware += "+sim"
		s.mu.Unlock()
	}
	if !async {
		run()
		return
	}
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		run()
	}()
}

func (s *SDK) DeviceSetRawData(dev native.Handle, id native.PropertyID, data []byte, cb native.DataTransferFunc, async bool, token native.Token, e *native.ErrorRef) {
	const fn = "ob_device_write_customer_data"
	s.mu.Lock()
	s.bind(token, cb != nil)
	d, ok := s.device(dev, fn, e)
	if !ok {
		s.mu.Unlock()
		return
	}
	d.u.raw[id] = slices.Clone(data)
	s.mu.Unlock()

	run := func() {
		if cb == nil {
			return
		}
		cb(native.DataTranTransferring, 0, token)
		cb(native.DataTranTransferring, 50, token)
		cb(native.DataTranVerifying, 90, token)
		cb(native.DataTranDone, 100, token)
	}
	if !async {
		run()
		return
	}
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		run()
	}()
}

// RawData returns the payload last sent with SetRawData.
func (s *SDK) RawData(serial string, id native.PropertyID) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.unitBySerial(serial); u != nil {
		return slices.Clone(u.raw[id])
	}
	return nil
}

func (s *SDK) DeviceGetState(dev native.Handle, e *native.ErrorRef) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_device_get_device_state", e)
	if !ok {
		return 0
	}
	return d.u.state
}

func (s *SDK) DeviceSetStateChangedCallback(dev native.Handle, cb native.DeviceStateFunc, token native.Token, e *native.ErrorRef) {
	s.mu.Lock()
	s.bind(token, cb != nil)
	defer s.mu.Unlock()
	const fn = "ob_device_set_state_changed_callback"
	if !s.enter(fn, e) {
		return
	}
	d, ok := lookup[*deviceData](s, dev, KindDevice, fn, e)
	if !ok {
		return
	}
	d.stateFn, d.token = cb, token
}

// SetDeviceState changes a device's state and notifies every device handle
// with a state callback.
func (s *SDK) SetDeviceState(serial string, state uint64, msg string) error {
	type delivery struct {
		fn    native.DeviceStateFunc
		token native.Token
	}
	s.mu.Lock()
	u := s.unitBySerial(serial)
	if u == nil {
		s.mu.Unlock()
		return fmt.Errorf("fakesdk: no device %q", serial)
	}
	u.state = state
	var ds []delivery
	for _, o := range s.objs {
		if d, ok := o.val.(*deviceData); ok && d.u == u && d.stateFn != nil {
			ds = append(ds, delivery{d.stateFn, d.token})
		}
	}
	s.mu.Unlock()
	for _, d := range ds {
		d.fn(state, msg, d.token)
	}
	return nil
}

func (s *SDK) DeviceReboot(dev native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	d, ok := s.device(dev, "ob_device_reboot", e)
	if !ok {
		s.mu.Unlock()
		return
	}
	spec := d.u.spec
	s.mu.Unlock()
	if err := s.Detach(spec.Serial); err != nil {
		return
	}
	_ = s.Attach(spec)
}

func (s *SDK) DeviceTimestampReset(dev native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.device(dev, "ob_device_timestamp_reset", e); ok {
		d.u.clock = time.Now()
	}
}

func (s *SDK) DeviceEnableHeartbeat(dev native.Handle, enable bool, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_device_enable_heartbeat", e)
	if !ok {
		return
	}
	if p, ok := d.u.props[native.PropHeartbeatBool]; ok {
		p.cur = 0
		if enable {
			p.cur = 1
		}
	}
}

func (s *SDK) DeviceGetCurrentPresetName(dev native.Handle, e *native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_device_get_current_preset_name", e)
	if !ok {
		return ""
	}
	return d.u.preset
}

func (s *SDK) DeviceLoadPreset(dev native.Handle, name string, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_load_preset"
	d, ok := s.device(dev, fn, e)
	if !ok {
		return
	}
	if !slices.Contains(d.u.presets, name) {
		s.fail(e, native.ExceptionInvalidValue, fn, "unknown preset %q", name)
		return
	}
	d.u.preset = name
}

func (s *SDK) DeviceLoadPresetFromJSONData(dev native.Handle, name string, data []byte, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_load_preset_from_json_data"
	d, ok := s.device(dev, fn, e)
	if !ok {
		return
	}
	s.applyPreset(d.u, name, data, fn, e)
}

func (s *SDK) DeviceLoadPresetFromJSONFile(dev native.Handle, path string, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_load_preset_from_json_file"
	d, ok := s.device(dev, fn, e)
	if !ok {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.fail(e, native.ExceptionIO, fn, "%v", err)
		return
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s.applyPreset(d.u, name, data, fn, e)
}

// presetDoc is the JSON layout of an exported preset.
type presetDoc struct {
	Preset        string             `json:"preset"`
	DepthWorkMode string             `json:"depth_work_mode,omitempty"`
	Properties    map[string]float64 `json:"properties"`
	Serial        string             `json:"serial"`
}

// applyPreset registers data as preset name and applies the property values
// it carries. The caller holds s.mu.
func (s *SDK) applyPreset(u *unit, name string, data []byte, fn string, e *native.ErrorRef) {
	var doc presetDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		s.fail(e, native.ExceptionInvalidValue, fn, "preset %q is not valid JSON: %v", name, err)
		return
	}
	for _, p := range u.props {
		if v, ok := doc.Properties[p.item.Name]; ok && p.item.Permission&native.PermissionWrite != 0 {
			p.cur = min(max(v, p.min), p.max)
		}
	}
	if !slices.Contains(u.presets, name) {
		u.presets = append(u.presets, name)
	}
	u.preset = name
}

func (u *unit) exportPreset(name string) ([]byte, error) {
	doc := presetDoc{Preset: name, Properties: make(map[string]float64), Serial: u.spec.Serial}
	if len(u.modes) > 0 {
		doc.DepthWorkMode = u.modes[u.mode].Name
	}
	for _, p := range u.props {
		if p.item.Permission&native.PermissionRead != 0 {
			doc.Properties[p.item.Name] = p.cur
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (s *SDK) DeviceExportSettingsAsPresetJSONFile(dev native.Handle, path string, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_export_current_settings_as_preset_json_file"
	d, ok := s.device(dev, fn, e)
	if !ok {
		return
	}
	data, err := d.u.exportPreset(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		s.fail(e, native.ExceptionIO, fn, "%v", err)
	}
}

func (s *SDK) DeviceExportSettingsAsPresetJSONData(dev native.Handle, name string, e *native.ErrorRef) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_export_current_settings_as_preset_json_data"
	d, ok := s.device(dev, fn, e)
	if !ok {
		return nil
	}
	data, err := d.u.exportPreset(name)
	if err != nil {
		s.fail(e, native.ExceptionMemory, fn, "%v", err)
		return nil
	}
	return data
}

func (s *SDK) DeviceGetAvailablePresetList(dev native.Handle, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_device_get_available_preset_list", e)
	if !ok {
		return 0
	}
	return s.add(KindPresetList, &presetListData{names: slices.Clone(d.u.presets)})
}

func (s *SDK) PresetListCount(list native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_preset_list_get_count"
	if !s.enter(fn, e) {
		return 0
	}
	pl, ok := lookup[*presetListData](s, list, KindPresetList, fn, e)
	if !ok {
		return 0
	}
	return uint32(len(pl.names))
}

func (s *SDK) PresetListName(list native.Handle, index uint32, e *native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_preset_list_get_name"
	if !s.enter(fn, e) {
		return ""
	}
	pl, ok := lookup[*presetListData](s, list, KindPresetList, fn, e)
	if !ok {
		return ""
	}
	if int(index) >= len(pl.names) {
		s.fail(e, native.ExceptionInvalidValue, fn, "index %d out of range [0,%d)", index, len(pl.names))
		return ""
	}
	return pl.names[index]
}

func (s *SDK) PresetListHas(list native.Handle, name string, e *native.ErrorRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_preset_list_has_preset"
	if !s.enter(fn, e) {
		return false
	}
	pl, ok := lookup[*presetListData](s, list, KindPresetList, fn, e)
	return ok && slices.Contains(pl.names, name)
}

func (s *SDK) DeletePresetList(list native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_preset_list"
	if !s.enter(fn, e) {
		return
	}
	s.remove(list, KindPresetList, fn, e)
}

type depthModeListData struct {
	modes []native.DepthWorkMode
}

type paramListData struct {
	params []native.CameraParam
}

func (s *SDK) DeviceGetCurrentDepthWorkMode(dev native.Handle, e *native.ErrorRef) native.DepthWorkMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_get_current_depth_work_mode"
	d, ok := s.device(dev, fn, e)
	if !ok {
		return native.DepthWorkMode{}
	}
	if len(d.u.modes) == 0 {
		s.fail(e, native.ExceptionUnsupportedOperation, fn, "device %s has no depth work modes", d.u.spec.Serial)
		return native.DepthWorkMode{}
	}
	return d.u.modes[d.u.mode]
}

func (s *SDK) DeviceGetCurrentDepthWorkModeName(dev native.Handle, e *native.ErrorRef) string {
	return s.DeviceGetCurrentDepthWorkMode(dev, e).Name
}

// switchMode selects the first mode match accepts. The caller holds s.mu.
func (s *SDK) switchMode(dev native.Handle, fn string, e *native.ErrorRef, match func(native.DepthWorkMode) bool) {
	d, ok := s.device(dev, fn, e)
	if !ok {
		return
	}
	i := slices.IndexFunc(d.u.modes, match)
	if i < 0 {
		s.fail(e, native.ExceptionInvalidValue, fn, "device %s has no such depth work mode", d.u.spec.Serial)
		return
	}
	d.u.mode = i
}

func (s *SDK) DeviceSwitchDepthWorkMode(dev native.Handle, mode native.DepthWorkMode, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switchMode(dev, "ob_device_switch_depth_work_mode", e, func(m native.DepthWorkMode) bool {
		return m.Checksum == mode.Checksum
	})
}

func (s *SDK) DeviceSwitchDepthWorkModeByName(dev native.Handle, name string, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switchMode(dev, "ob_device_switch_depth_work_mode_by_name", e, func(m native.DepthWorkMode) bool {
		return m.Name == name
	})
}

func (s *SDK) DeviceGetDepthWorkModeList(dev native.Handle, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_device_get_depth_work_mode_list", e)
	if !ok {
		return 0
	}
	return s.add(KindDepthModes, &depthModeListData{modes: slices.Clone(d.u.modes)})
}

func (s *SDK) DepthWorkModeListCount(list native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_depth_work_mode_list_get_count"
	if !s.enter(fn, e) {
		return 0
	}
	l, ok := lookup[*depthModeListData](s, list, KindDepthModes, fn, e)
	if !ok {
		return 0
	}
	return uint32(len(l.modes))
}

func (s *SDK) DepthWorkModeListGetItem(list native.Handle, index uint32, e *native.ErrorRef) native.DepthWorkMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_depth_work_mode_list_get_item"
	if !s.enter(fn, e) {
		return native.DepthWorkMode{}
	}
	l, ok := lookup[*depthModeListData](s, list, KindDepthModes, fn, e)
	if !ok {
		return native.DepthWorkMode{}
	}
	if int(index) >= len(l.modes) {
		s.fail(e, native.ExceptionInvalidValue, fn, "index %d out of range [0,%d)", index, len(l.modes))
		return native.DepthWorkMode{}
	}
	return l.modes[index]
}

func (s *SDK) DeleteDepthWorkModeList(list native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_depth_work_mode_list"
	if !s.enter(fn, e) {
		return
	}
	s.remove(list, KindDepthModes, fn, e)
}

// calibrationParams returns one parameter set per depth resolution.
func calibrationParams(d DeviceSpec) []native.CameraParam {
	base := cameraParam(d)
	var out []native.CameraParam
	for _, ss := range d.Sensors {
		if ss.Type != "depth" {
			continue
		}
		for _, p := range ss.Profiles {
			w, h := float32(p.Width), float32(p.Height)
			cp := base
			cp.DepthIntrinsic = native.Intrinsic{Fx: w * 0.9, Fy: w * 0.9, Cx: w / 2, Cy: h / 2, Width: int16(p.Width), Height: int16(p.Height)}
			out = append(out, cp)
		}
	}
	return out
}

func (s *SDK) DeviceGetCalibrationCameraParamList(dev native.Handle, e *native.ErrorRef) native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_device_get_calibration_camera_param_list", e)
	if !ok {
		return 0
	}
	return s.add(KindParamList, &paramListData{params: calibrationParams(d.u.spec)})
}

func (s *SDK) CameraParamListCount(list native.Handle, e *native.ErrorRef) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_camera_param_list_get_count"
	if !s.enter(fn, e) {
		return 0
	}
	l, ok := lookup[*paramListData](s, list, KindParamList, fn, e)
	if !ok {
		return 0
	}
	return uint32(len(l.params))
}

func (s *SDK) CameraParamListGetParam(list native.Handle, index uint32, e *native.ErrorRef) native.CameraParam {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_camera_param_list_get_param"
	if !s.enter(fn, e) {
		return native.CameraParam{}
	}
	l, ok := lookup[*paramListData](s, list, KindParamList, fn, e)
	if !ok {
		return native.CameraParam{}
	}
	if int(index) >= len(l.params) {
		s.fail(e, native.ExceptionInvalidValue, fn, "index %d out of range [0,%d)", index, len(l.params))
		return native.CameraParam{}
	}
	return l.params[index]
}

func (s *SDK) DeleteCameraParamList(list native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_camera_param_list"
	if !s.enter(fn, e) {
		return
	}
	s.remove(list, KindParamList, fn, e)
}

func (s *SDK) DeviceGetSupportedMultiDeviceSyncModeBitmap(dev native.Handle, e *native.ErrorRef) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_device_get_supported_multi_device_sync_mode_bitmap", e)
	if !ok {
		return 0
	}
	return d.u.spec.SyncModes
}

// syncSoftwareTriggering is OB_MULTI_DEVICE_SYNC_MODE_SOFTWARE_TRIGGERING.
const syncSoftwareTriggering = 1 << 5

// DeviceTriggerCapture succeeds only while the device's sync config selects
// software triggering.
func (s *SDK) DeviceTriggerCapture(dev native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_trigger_capture"
	d, ok := s.device(dev, fn, e)
	if !ok {
		return
	}
	cfg := d.u.structs[native.StructMultiDeviceSync]
	if cfg == nil || binary.LittleEndian.Uint32(cfg.data) != syncSoftwareTriggering {
		s.fail(e, native.ExceptionWrongAPICallSequence, fn, "device %s is not in software triggering mode", d.u.spec.Serial)
		return
	}
	d.u.triggers++
}

// Triggers returns how many software triggers the device accepted.
func (s *SDK) Triggers(serial string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.unitBySerial(serial); u != nil {
		return u.triggers
	}
	return 0
}

func (s *SDK) DeviceTimerSyncWithHost(dev native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.device(dev, "ob_device_timer_sync_with_host", e); ok {
		d.u.clock = time.Now()
	}
}

func (s *SDK) DeviceIsGlobalTimestampSupported(dev native.Handle, e *native.ErrorRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_device_is_global_timestamp_supported", e)
	return ok && d.u.spec.GlobalTimestamp
}

func (s *SDK) DeviceEnableGlobalTimestamp(dev native.Handle, enable bool, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_enable_global_timestamp"
	d, ok := s.device(dev, fn, e)
	if !ok {
		return
	}
	if !d.u.spec.GlobalTimestamp {
		s.fail(e, native.ExceptionUnsupportedOperation, fn, "device %s has no global timestamp", d.u.spec.Serial)
		return
	}
	d.u.globalTS = enable
}

// GlobalTimestamp reports whether global timestamps are enabled.
func (s *SDK) GlobalTimestamp(serial string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.unitBySerial(serial)
	return u != nil && u.globalTS
}

func (s *SDK) DeviceIsExtensionInfoExist(dev native.Handle, key string, e *native.ErrorRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.device(dev, "ob_device_is_extension_info_exist", e)
	if !ok {
		return false
	}
	_, ok = d.u.spec.Extensions[key]
	return ok
}

func (s *SDK) DeviceGetExtensionInfo(dev native.Handle, key string, e *native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_device_get_extension_info"
	d, ok := s.device(dev, fn, e)
	if !ok {
		return ""
	}
	v, ok := d.u.spec.Extensions[key]
	if !ok {
		s.fail(e, native.ExceptionInvalidValue, fn, "no extension info %q", key)
		return ""
	}
	return v
}

func (s *SDK) info(h native.Handle, fn string, e *native.ErrorRef) (*DeviceSpec, bool) {
	if !s.enter(fn, e) {
		return nil, false
	}
	return lookup[*DeviceSpec](s, h, KindDeviceInfo, fn, e)
}

func (s *SDK) DeviceInfoName(h native.Handle, e *native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.info(h, "ob_device_info_get_name", e); ok {
		return d.Name
	}
	return ""
}

func (s *SDK) DeviceInfoPID(h native.Handle, e *native.ErrorRef) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.info(h, "ob_device_info_get_pid", e); ok {
		return d.PID
	}
	return 0
}

func (s *SDK) DeviceInfoVID(h native.Handle, e *native.ErrorRef) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.info(h, "ob_device_info_get_vid", e); ok {
		return d.VID
	}
	return 0
}

func (s *SDK) DeviceInfoUID(h native.Handle, e *native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.info(h, "ob_device_info_get_uid", e); ok {
		return d.UID
	}
	return ""
}

func (s *SDK) DeviceInfoSerialNumber(h native.Handle, e *native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.info(h, "ob_device_info_get_serial_number", e); ok {
		return d.Serial
	}
	return ""
}

func (s *SDK) DeviceInfoFirmwareVersion(h native.Handle, e *native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.info(h, "ob_device_info_get_firmware_version", e); ok {
		return d.Firmware
	}
	return ""
}

func (s *SDK) DeviceInfoHardwareVersion(h native.Handle, e *native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.info(h, "ob_device_info_get_hardware_version", e); ok {
		return d.Hardware
	}
	return ""
}

func (s *SDK) DeviceInfoConnectionType(h native.Handle, e *native.ErrorRef) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.info(h, "ob_device_info_get_connection_type", e); ok {
		return d.Connection
	}
	return ""
}

func (s *SDK) DeleteDeviceInfo(h native.Handle, e *native.ErrorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const fn = "ob_delete_device_info"
	if !s.enter(fn, e) {
		return
	}
	s.remove(h, KindDeviceInfo, fn, e)
}
