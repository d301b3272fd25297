package service

import (
	"context"
	"fmt"

	"floodlight-bridge/internal/domain/model"
	"floodlight-bridge/internal/domain/translator"
	"floodlight-bridge/internal/ports"
)

// BridgeService exposes the provider's floodlights through the Hue bridge API.
type BridgeService struct {
	provider    *Provider
	manager     ports.DeviceManager
	translators *translator.Factory
}

func NewBridgeService(provider *Provider, manager ports.DeviceManager) *BridgeService {
	return &BridgeService{
		provider:    provider,
		manager:     manager,
		translators: translator.NewFactory(),
	}
}

func (s *BridgeService) GetDevices(ctx context.Context) ([]*model.Device, error) {
	ids, err := s.manager.NativeIDs(ctx)
	if err != nil {
		return nil, err
	}
	devices := make([]*model.Device, 0, len(ids))
	for _, id := range ids {
		d, err := s.provider.GetDevice(ctx, id)
		if err != nil {
			return nil, err
		}
		devices = append(devices, s.toDevice(d))
	}
	return devices, nil
}

// GetDevice looks a floodlight up by its Hue light ID.
func (s *BridgeService) GetDevice(ctx context.Context, hueID string) (*model.Device, error) {
	d, err := s.provider.DeviceByHueID(ctx, hueID)
	if err != nil {
		return nil, err
	}
	return s.toDevice(d), nil
}

// UpdateDeviceState applies a Hue state update to the light with hueID.
func (s *BridgeService) UpdateDeviceState(ctx context.Context, hueID string, hueStateUpdate map[string]interface{}) error {
	d, err := s.provider.DeviceByHueID(ctx, hueID)
	if err != nil {
		return err
	}
	cmd := s.translators.GetTranslator(model.DeviceTypeLight).ToFloodlight(hueStateUpdate)
	return control(ctx, d, cmd.On, cmd.Brightness)
}

// Control switches or dims the floodlight with nativeID using native
// brightness (0-100).
func (s *BridgeService) Control(ctx context.Context, nativeID string, on *bool, brightness *int) error {
	d, err := s.provider.GetDevice(ctx, nativeID)
	if err != nil {
		return err
	}
	return control(ctx, d, on, brightness)
}

// control applies a command. A brightness change carries the on state with
// it unless the command explicitly turns the light off.
func control(ctx context.Context, d *Floodlight, on *bool, brightness *int) error {
	switch {
	case brightness != nil && (on == nil || *on):
		return d.SetBrightness(ctx, *brightness)
	case on != nil && *on:
		return d.TurnOn(ctx)
	case on != nil:
		return d.TurnOff(ctx)
	default:
		return fmt.Errorf("%w: %s", model.ErrEmptyCommand, d.NativeID())
	}
}

func (s *BridgeService) CreateDevice(ctx context.Context, name string) (string, error) {
	id, err := s.provider.CreateDevice(ctx, name)
	if err != nil {
		return "", err
	}
	if _, err := s.provider.GetDevice(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *BridgeService) CreateDeviceSettings() []model.Setting {
	return s.provider.CreateDeviceSettings()
}

func (s *BridgeService) GetSettings(ctx context.Context, nativeID string) ([]model.Setting, error) {
	d, err := s.provider.GetDevice(ctx, nativeID)
	if err != nil {
		return nil, err
	}
	return d.Settings(ctx), nil
}

func (s *BridgeService) PutSetting(ctx context.Context, nativeID, key, value string) error {
	d, err := s.provider.GetDevice(ctx, nativeID)
	if err != nil {
		return err
	}
	return d.PutSetting(ctx, key, value)
}

func (s *BridgeService) toDevice(d *Floodlight) *model.Device {
	return &model.Device{
		ID:       s.provider.HueID(d.NativeID()),
		NativeID: d.NativeID(),
		Name:     d.Name(),
		Type:     model.DeviceTypeLight,
		State:    s.translators.GetTranslator(model.DeviceTypeLight).ToHue(d.State()),
	}
}
