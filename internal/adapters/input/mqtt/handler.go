// Package mqtt turns MQTT command messages into floodlight operations.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"floodlight-bridge/internal/infrastructure/logging"
	infmqtt "floodlight-bridge/internal/infrastructure/mqtt"
)

var ErrUnknownTopic = errors.New("not a command topic")

// Controller applies a command to one floodlight. Brightness is 0-100.
type Controller interface {
	Control(ctx context.Context, nativeID string, on *bool, brightness *int) error
}

// Subscriber is the subset of the MQTT client the handler needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler infmqtt.MessageHandler) error
}

// Command is the payload accepted on <prefix>/command/<nativeID>.
type Command struct {
	On         *bool `json:"on,omitempty"`
	Brightness *int  `json:"brightness,omitempty"`
}

type CommandHandler struct {
	controller Controller
	topics     infmqtt.Topics
	timeout    time.Duration
	logger     *logging.Logger

	wg sync.WaitGroup
}

// NewCommandHandler creates a handler. timeout bounds each device command.
func NewCommandHandler(controller Controller, topics infmqtt.Topics, timeout time.Duration, logger *logging.Logger) *CommandHandler {
	return &CommandHandler{
		controller: controller,
		topics:     topics,
		timeout:    timeout,
		logger:     logger.With("component", "mqtt-commands"),
	}
}

// Start subscribes to the command topic of every device.
func (h *CommandHandler) Start(sub Subscriber, qos byte) error {
	if err := sub.Subscribe(h.topics.AllCommands(), qos, h.Handle); err != nil {
		return fmt.Errorf("subscribing to commands: %w", err)
	}
	h.logger.Info("listening for commands", "topic", h.topics.AllCommands())
	return nil
}

// Handle decodes one command message and applies it in the background, so
// the MQTT client's dispatch is never held up by a slow device.
func (h *CommandHandler) Handle(topic string, payload []byte) error {
	nativeID, ok := h.topics.CommandTarget(topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("decoding command for %s: %w", nativeID, err)
	}

	h.logger.Debug("applying command", "native_id", nativeID, "payload", string(payload))
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		if err := h.controller.Control(ctx, nativeID, cmd.On, cmd.Brightness); err != nil {
			h.logger.Warn("applying command failed", "native_id", nativeID, "error", err)
		}
	}()
	return nil
}

// Wait blocks until every command started by Handle has finished.
func (h *CommandHandler) Wait() {
	h.wg.Wait()
}
