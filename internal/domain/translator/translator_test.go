package translator

import (
	"testing"

	"floodlight-bridge/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLightStrategy_ToHue(t *testing.T) {
	s := &LightStrategy{}

	hueState := s.ToHue(model.LightState{On: true, Brightness: 80, LightInterval: 60})
	assert.True(t, hueState.On)
	assert.True(t, hueState.Reachable)
	assert.Equal(t, uint8(203), hueState.Bri)

	hueState = s.ToHue(model.LightState{Brightness: 100})
	assert.False(t, hueState.On)
	assert.Equal(t, uint8(254), hueState.Bri)

	// Hue has no zero brightness
	hueState = s.ToHue(model.LightState{Brightness: 0})
	assert.Equal(t, uint8(1), hueState.Bri)
}

func TestLightStrategy_ToFloodlight(t *testing.T) {
	s := &LightStrategy{}

	cmd := s.ToFloodlight(map[string]interface{}{"on": true, "bri": float64(254)})
	require.NotNil(t, cmd.On)
	require.NotNil(t, cmd.Brightness)
	assert.True(t, *cmd.On)
	assert.Equal(t, 100, *cmd.Brightness)

	cmd = s.ToFloodlight(map[string]interface{}{"bri": float64(1)})
	assert.Nil(t, cmd.On)
	require.NotNil(t, cmd.Brightness)
	assert.Equal(t, 1, *cmd.Brightness)

	cmd = s.ToFloodlight(map[string]interface{}{"on": false, "bri": "bogus"})
	require.NotNil(t, cmd.On)
	assert.False(t, *cmd.On)
	assert.Nil(t, cmd.Brightness)
}

func TestBrightnessRoundTrip(t *testing.T) {
	for level := 1; level <= 100; level++ {
		assert.Equal(t, level, toFloodlightBri(float64(toHueBri(level))), "level %d", level)
	}
}

func TestLightStrategy_Metadata(t *testing.T) {
	meta := (&LightStrategy{}).GetMetadata()
	assert.Equal(t, "Dimmable light", meta.Type)
	assert.NotEmpty(t, meta.ModelID)
}

func TestFactory_GetTranslator(t *testing.T) {
	f := NewFactory()

	assert.IsType(t, &LightStrategy{}, f.GetTranslator(model.DeviceTypeLight))
	assert.IsType(t, &LightStrategy{}, f.GetTranslator(model.DeviceType("cover")))
}
