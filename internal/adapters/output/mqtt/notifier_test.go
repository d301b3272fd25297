package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floodlight-bridge/internal/domain/model"
	"floodlight-bridge/internal/infrastructure/logging"
	infmqtt "floodlight-bridge/internal/infrastructure/mqtt"
)

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic, payload, qos, retained})
	return p.err
}

func event(iface model.Interface, key string, value interface{}) model.DeviceEvent {
	return model.DeviceEvent{
		NativeID:  "foscamfl:0a1b",
		Interface: iface,
		Key:       key,
		Value:     value,
		Time:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNotifier_PublishesMergedState(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub, infmqtt.Topics{Prefix: "floodlight"}, 1, logging.Discard())
	ctx := context.Background()

	n.OnDeviceEvent(ctx, event(model.InterfaceBrightness, "brightness", 40))
	n.OnDeviceEvent(ctx, event(model.InterfaceOnOff, "on", true))

	require.Len(t, pub.msgs, 2)
	last := pub.msgs[1]
	assert.Equal(t, "floodlight/state/foscamfl:0a1b", last.topic)
	assert.Equal(t, byte(1), last.qos)
	assert.True(t, last.retained)

	var state StateMessage
	require.NoError(t, json.Unmarshal(last.payload, &state))
	assert.True(t, state.On)
	assert.Equal(t, 40, state.Brightness)
}

func TestNotifier_IgnoresSettingsEvents(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub, infmqtt.Topics{Prefix: "floodlight"}, 0, logging.Discard())

	n.OnDeviceEvent(context.Background(), event(model.InterfaceSettings, "floodlight-ip", nil))

	assert.Empty(t, pub.msgs)
}

func TestNotifier_PublishErrorIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	n := NewNotifier(pub, infmqtt.Topics{Prefix: "floodlight"}, 0, logging.Discard())

	assert.NotPanics(t, func() {
		n.OnDeviceEvent(context.Background(), event(model.InterfaceOnOff, "on", false))
	})
	assert.Len(t, pub.msgs, 1)
}
