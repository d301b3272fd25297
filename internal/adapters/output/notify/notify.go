// Package notify contains Notifier implementations that do not need a broker.
package notify

import (
	"context"

	"floodlight-bridge/internal/domain/model"
	"floodlight-bridge/internal/infrastructure/logging"
	"floodlight-bridge/internal/ports"
)

// LogNotifier writes every device event to the log.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "events")}
}

func (n *LogNotifier) OnDeviceEvent(ctx context.Context, event model.DeviceEvent) {
	n.logger.InfoContext(ctx, "device event",
		"native_id", event.NativeID,
		"interface", string(event.Interface),
		"key", event.Key,
		"value", event.Value,
	)
}

// Multi fans events out to several notifiers in order. Nil entries are skipped.
type Multi []ports.Notifier

func (m Multi) OnDeviceEvent(ctx context.Context, event model.DeviceEvent) {
	for _, n := range m {
		if n != nil {
			n.OnDeviceEvent(ctx, event)
		}
	}
}
