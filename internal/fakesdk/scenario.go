package fakesdk

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/orbbec/obsdk-go/internal/native"
)

// Scenario describes the simulated hardware.
type Scenario struct {
	Devices []DeviceSpec `yaml:"devices"`
}

// DeviceSpec describes one simulated device.
type DeviceSpec struct {
	Name       string         `yaml:"name"`
	Serial     string         `yaml:"serial"`
	UID        string         `yaml:"uid"`
	PID        int32          `yaml:"pid"`
	VID        int32          `yaml:"vid"`
	Connection string         `yaml:"connection"`
	Firmware   string         `yaml:"firmware"`
	Hardware   string         `yaml:"hardware"`
	Address    string         `yaml:"address,omitempty"`
	Port       uint16         `yaml:"port,omitempty"`
	Sensors    []SensorSpec   `yaml:"sensors"`
	Presets    []string       `yaml:"presets,omitempty"`
	Properties []PropertySpec `yaml:"properties,omitempty"`

	DepthWorkModes  []string          `yaml:"depth_work_modes,omitempty"`
	SyncModes       uint16            `yaml:"sync_modes,omitempty"`
	GlobalTimestamp bool              `yaml:"global_timestamp,omitempty"`
	Extensions      map[string]string `yaml:"extensions,omitempty"`
}

// SensorSpec describes one sensor and the profiles it offers.
type SensorSpec struct {
	Type     string        `yaml:"type"`
	Profiles []ProfileSpec `yaml:"profiles"`
}

// ProfileSpec is one stream mode.
type ProfileSpec struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Format string `yaml:"format"`
	FPS    int    `yaml:"fps"`
}

// PropertySpec declares a scalar property. Type is bool, int or float;
// Permission is r, w or rw.
type PropertySpec struct {
	ID         int32   `yaml:"id"`
	Name       string  `yaml:"name"`
	Type       string  `yaml:"type"`
	Permission string  `yaml:"permission"`
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
	Step       float64 `yaml:"step"`
	Default    float64 `yaml:"default"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fakesdk: read scenario: %w", err)
	}
	return ParseScenario(b)
}

// ParseScenario decodes YAML and fills in defaults.
func ParseScenario(b []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return nil, fmt.Errorf("fakesdk: parse scenario: %w", err)
	}
	for i := range sc.Devices {
		if err := sc.Devices[i].normalize(i); err != nil {
			return nil, err
		}
	}
	return &sc, nil
}

// DefaultScenario is one USB camera with depth, color, IR and IMU sensors.
func DefaultScenario() *Scenario {
	d := DefaultDevice("Orbbec Gemini 335", "CP0000000001")
	return &Scenario{Devices: []DeviceSpec{d}}
}

// EmptyScenario has no devices.
func EmptyScenario() *Scenario {
	return &Scenario{}
}

// DefaultDevice returns a fully populated device spec.
func DefaultDevice(name, serial string) DeviceSpec {
	d := DeviceSpec{
		Name:       name,
		Serial:     serial,
		PID:        0x0800,
		VID:        0x2bc5,
		Connection: "USB3.2",
		Firmware:   "1.2.20",
		Hardware:   "0.2",
		Sensors: []SensorSpec{
			{Type: "depth", Profiles: []ProfileSpec{
				{Width: 640, Height: 480, Format: "y16", FPS: 30},
				{Width: 320, Height: 240, Format: "y16", FPS: 30},
			}},
			{Type: "color", Profiles: []ProfileSpec{
				{Width: 640, Height: 480, Format: "rgb", FPS: 30},
				{Width: 1280, Height: 720, Format: "mjpg", FPS: 30},
			}},
			{Type: "ir", Profiles: []ProfileSpec{
				{Width: 640, Height: 480, Format: "y8", FPS: 30},
			}},
			{Type: "accel", Profiles: []ProfileSpec{{Format: "accel", FPS: 200}}},
			{Type: "gyro", Profiles: []ProfileSpec{{Format: "gyro", FPS: 200}}},
		},
		GlobalTimestamp: true,
		Extensions: map[string]string{
			"DepthEngine": "2.1.0",
			"LaserModel":  "VCSEL-940",
		},
	}
	_ = d.normalize(0)
	return d
}

func (d *DeviceSpec) normalize(i int) error {
	if d.Name == "" {
		d.Name = "Orbbec Simulated Camera"
	}
	if d.Serial == "" {
		d.Serial = fmt.Sprintf("SIM%09d", i+1)
	}
	if d.UID == "" {
		d.UID = uuid.NewString()
	}
	if d.Connection == "" {
		d.Connection = "USB3.2"
		if d.Address != "" {
			d.Connection = "Ethernet"
		}
	}
	if d.Firmware == "" {
		d.Firmware = "1.0.0"
	}
	if len(d.Presets) == 0 {
		d.Presets = []string{"Default", "High Accuracy", "High Density", "Hand"}
	}
	if len(d.Properties) == 0 {
		d.Properties = defaultProperties()
	}
	if len(d.DepthWorkModes) == 0 {
		d.DepthWorkModes = []string{"Default", "Binned Sparse Default", "Unbinned Dense Default", "Obstacle Avoidance"}
	}
	if d.SyncModes == 0 {
		d.SyncModes = 0x7f
	}
	for _, s := range d.Sensors {
		if _, err := native.ParseSensorType(s.Type); err != nil {
			return fmt.Errorf("fakesdk: device %s: %w", d.Serial, err)
		}
		for _, p := range s.Profiles {
			if _, err := native.ParseFormat(p.Format); err != nil {
				return fmt.Errorf("fakesdk: device %s: %w", d.Serial, err)
			}
		}
	}
	for _, p := range d.Properties {
		if _, err := propertyType(p.Type); err != nil {
			return fmt.Errorf("fakesdk: device %s property %d: %w", d.Serial, p.ID, err)
		}
	}
	return nil
}

func defaultProperties() []PropertySpec {
	return []PropertySpec{
		{ID: int32(native.PropLaserBool), Name: "OB_PROP_LASER_BOOL", Type: "bool", Permission: "rw", Max: 1, Step: 1, Default: 1},
		{ID: int32(native.PropLDPBool), Name: "OB_PROP_LDP_BOOL", Type: "bool", Permission: "rw", Max: 1, Step: 1, Default: 1},
		{ID: int32(native.PropDepthMirrorBool), Name: "OB_PROP_DEPTH_MIRROR_BOOL", Type: "bool", Permission: "rw", Max: 1, Step: 1},
		{ID: int32(native.PropHeartbeatBool), Name: "OB_PROP_HEARTBEAT_BOOL", Type: "bool", Permission: "rw", Max: 1, Step: 1},
		{ID: int32(native.PropColorAutoExposureBool), Name: "OB_PROP_COLOR_AUTO_EXPOSURE_BOOL", Type: "bool", Permission: "rw", Max: 1, Step: 1, Default: 1},
		{ID: int32(native.PropColorExposureInt), Name: "OB_PROP_COLOR_EXPOSURE_INT", Type: "int", Permission: "rw", Min: 1, Max: 10000, Step: 1, Default: 156},
		{ID: int32(native.PropColorGainInt), Name: "OB_PROP_COLOR_GAIN_INT", Type: "int", Permission: "rw", Min: 0, Max: 128, Step: 1, Default: 16},
		{ID: int32(native.PropDepthExposureInt), Name: "OB_PROP_DEPTH_EXPOSURE_INT", Type: "int", Permission: "rw", Min: 20, Max: 3000, Step: 1, Default: 1000},
		{ID: int32(native.PropDepthPrecisionInt), Name: "OB_PROP_DEPTH_PRECISION_LEVEL_INT", Type: "int", Permission: "r", Min: 0, Max: 4, Step: 1, Default: 1},
		{ID: int32(native.PropIRGainFloat), Name: "OB_PROP_IR_GAIN_FLOAT", Type: "float", Permission: "rw", Min: 1, Max: 16, Step: 0.5, Default: 1},
	}
}

func propertyType(s string) (native.PropertyType, error) {
	switch strings.ToLower(s) {
	case "bool":
		return native.PropertyBool, nil
	case "int":
		return native.PropertyInt, nil
	case "float":
		return native.PropertyFloat, nil
	}
	return 0, fmt.Errorf("unknown property type %q", s)
}

func permission(s string) native.PermissionType {
	switch strings.ToLower(s) {
	case "r":
		return native.PermissionRead
	case "w":
		return native.PermissionWrite
	case "", "rw":
		return native.PermissionReadWrite
	}
	return native.PermissionDeny
}
