package ports

import (
	"context"
	"errors"
	"floodlight-bridge/internal/domain/model"
)

var ErrSettingNotFound = errors.New("setting not found")

// Storage is the key/value settings store of a single device.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
}

// SettingsRepository stores settings for every device, keyed by native ID.
type SettingsRepository interface {
	GetItem(ctx context.Context, nativeID, key string) (string, error)
	SetItem(ctx context.Context, nativeID, key, value string) error
}

// DeviceManager is the host's discovery registry.
type DeviceManager interface {
	OnDeviceDiscovered(ctx context.Context, device model.DiscoveredDevice) error
	NativeIDs(ctx context.Context) ([]string, error)
	Device(ctx context.Context, nativeID string) (*model.DiscoveredDevice, error)
}
