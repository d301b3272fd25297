package ports

import (
	"context"
	"floodlight-bridge/internal/domain/model"
)

// Notifier receives device events. Implementations must not block for long.
type Notifier interface {
	OnDeviceEvent(ctx context.Context, event model.DeviceEvent)
}
