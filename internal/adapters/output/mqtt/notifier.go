// Package mqtt publishes floodlight state changes to MQTT.
package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"floodlight-bridge/internal/domain/model"
	"floodlight-bridge/internal/infrastructure/logging"
	infmqtt "floodlight-bridge/internal/infrastructure/mqtt"
)

// Publisher is the subset of the MQTT client the notifier needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// StateMessage is the retained payload on <prefix>/state/<nativeID>.
type StateMessage struct {
	On         bool      `json:"on"`
	Brightness int       `json:"brightness"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Notifier folds device events into a per-device state and republishes it.
type Notifier struct {
	pub    Publisher
	topics infmqtt.Topics
	qos    byte
	logger *logging.Logger

	mu     sync.Mutex
	states map[string]StateMessage
}

func NewNotifier(pub Publisher, topics infmqtt.Topics, qos byte, logger *logging.Logger) *Notifier {
	return &Notifier{
		pub:    pub,
		topics: topics,
		qos:    qos,
		logger: logger.With("component", "mqtt-notifier"),
		states: make(map[string]StateMessage),
	}
}

func (n *Notifier) OnDeviceEvent(ctx context.Context, event model.DeviceEvent) {
	n.mu.Lock()
	state := n.states[event.NativeID]
	switch event.Interface {
	case model.InterfaceOnOff:
		if on, ok := event.Value.(bool); ok {
			state.On = on
		}
	case model.InterfaceBrightness:
		if bri, ok := event.Value.(int); ok {
			state.Brightness = bri
		}
	default:
		n.mu.Unlock()
		return
	}
	state.UpdatedAt = event.Time
	n.states[event.NativeID] = state
	n.mu.Unlock()

	payload, err := json.Marshal(state)
	if err != nil {
		n.logger.Error("encoding state", "native_id", event.NativeID, "error", err)
		return
	}
	if err := n.pub.Publish(n.topics.State(event.NativeID), payload, n.qos, true); err != nil {
		n.logger.Warn("publishing state", "native_id", event.NativeID, "error", err)
	}
}
