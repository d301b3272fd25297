package ports

import (
	"context"
	"floodlight-bridge/internal/domain/model"
)

// BridgePort is the inbound API. Hue calls address lights by their numeric
// Hue ID; management calls use the native ID.
type BridgePort interface {
	GetDevices(ctx context.Context) ([]*model.Device, error)
	GetDevice(ctx context.Context, hueID string) (*model.Device, error)
	UpdateDeviceState(ctx context.Context, hueID string, state map[string]interface{}) error

	// Device and settings management
	CreateDevice(ctx context.Context, name string) (string, error)
	CreateDeviceSettings() []model.Setting
	GetSettings(ctx context.Context, nativeID string) ([]model.Setting, error)
	PutSetting(ctx context.Context, nativeID, key, value string) error
}
