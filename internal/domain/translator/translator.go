package translator

import (
	"floodlight-bridge/internal/domain/model"
	"github.com/amimof/huego"
)

// Translator converts between Hue light state and floodlight state.
type Translator interface {
	ToHue(state model.LightState) *huego.State
	ToFloodlight(hueUpdate map[string]interface{}) Command
	GetMetadata() model.HueMetadata
}

// Command is a floodlight change decoded from a Hue state update. Nil fields
// were not present in the update.
type Command struct {
	On         *bool
	Brightness *int
}
