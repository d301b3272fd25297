package translator

import (
	"floodlight-bridge/internal/domain/model"
)

// Factory picks the Translator for a device type. Unknown types are
// presented as dimmable lights.
type Factory struct {
	strategies map[model.DeviceType]Translator
	fallback   Translator
}

func NewFactory() *Factory {
	light := &LightStrategy{}
	return &Factory{
		strategies: map[model.DeviceType]Translator{
			model.DeviceTypeLight: light,
		},
		fallback: light,
	}
}

func (f *Factory) GetTranslator(deviceType model.DeviceType) Translator {
	if t, ok := f.strategies[deviceType]; ok {
		return t
	}
	return f.fallback
}
