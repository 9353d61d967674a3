package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("Y16")
	require.NoError(t, err)
	assert.Equal(t, FormatY16, f)
	assert.Equal(t, "y16", f.String())

	_, err = ParseFormat("h265")
	assert.Error(t, err)
	assert.Equal(t, "unknown", FormatUnknown.String())
}

func TestParseSensorType(t *testing.T) {
	for _, name := range []string{"ir", "color", "depth", "accel", "gyro", "ir_left", "ir_right"} {
		st, err := ParseSensorType(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, st.String())
	}
	_, err := ParseSensorType("lidar")
	assert.Error(t, err)
}

func TestStreamAndFrameMapping(t *testing.T) {
	assert.Equal(t, StreamDepth, StreamOf(SensorDepth))
	assert.Equal(t, FrameDepth, FrameOf(StreamDepth))
	assert.Equal(t, "color", StreamColor.String())
	assert.Equal(t, MediaIR, MediaOf(FrameIRLeft))
	assert.Equal(t, MediaType(0), MediaOf(FrameSet))
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "2.4.3", Version{Major: 2, Minor: 4, Patch: 3}.String())
}

func TestStubLoad(t *testing.T) {
	api, err := Load()
	if err != nil {
		assert.ErrorIs(t, err, ErrNotBuilt)
		assert.Nil(t, api)
		return
	}
	assert.NotNil(t, api)
}
