package translator

import (
	"math"

	"floodlight-bridge/internal/domain/model"
	"github.com/amimof/huego"
)

const (
	hueMaxBri        = 254
	floodlightMaxBri = 100
)

type LightStrategy struct{}

func (s *LightStrategy) ToHue(state model.LightState) *huego.State {
	return &huego.State{
		On:        state.On,
		Bri:       toHueBri(state.Brightness),
		Reachable: true,
	}
}

func (s *LightStrategy) ToFloodlight(hueUpdate map[string]interface{}) Command {
	var cmd Command
	if on, ok := hueUpdate["on"].(bool); ok {
		cmd.On = &on
	}
	if bri, ok := hueUpdate["bri"].(float64); ok {
		level := toFloodlightBri(bri)
		cmd.Brightness = &level
	}
	return cmd
}

func (s *LightStrategy) GetMetadata() model.HueMetadata {
	return model.HueMetadata{
		Type:             "Dimmable light",
		ModelID:          "LWB010",
		ManufacturerName: "Philips",
	}
}

// toHueBri maps 0..100 onto Hue's 1..254.
func toHueBri(level int) uint8 {
	if level <= 0 {
		return 1
	}
	if level >= floodlightMaxBri {
		return hueMaxBri
	}
	bri := int(math.Round(float64(level) * hueMaxBri / floodlightMaxBri))
	if bri < 1 {
		bri = 1
	}
	return uint8(bri)
}

// toFloodlightBri maps Hue's bri onto 0..100; any positive bri stays above 0.
func toFloodlightBri(bri float64) int {
	if bri <= 0 {
		return 0
	}
	if bri >= hueMaxBri {
		return floodlightMaxBri
	}
	level := int(math.Round(bri * floodlightMaxBri / hueMaxBri))
	if level < 1 {
		level = 1
	}
	return level
}
