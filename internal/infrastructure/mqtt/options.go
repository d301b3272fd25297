package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"floodlight-bridge/internal/infrastructure/config"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultDisconnectQuiesce = 1000 // milliseconds
	defaultKeepAlive         = 60 * time.Second
	reconnectInterval        = 2 * time.Second
	maxReconnectInterval     = 30 * time.Second
	maxQoS                   = 2
)

func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	// Handlers issue device requests and publish from within the callback.
	opts.SetOrderMatters(false)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(reconnectInterval)
	opts.SetMaxReconnectInterval(maxReconnectInterval)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	// The broker publishes the will if we drop without a clean disconnect.
	opts.SetWill(Topics{Prefix: cfg.TopicPrefix}.Status(), statusPayload(cfg.ClientID, "offline"), 1, true)

	return opts
}

func statusPayload(clientID, status string) string {
	return fmt.Sprintf(`{"status":"%s","client_id":"%s","timestamp":"%s"}`,
		status, clientID, time.Now().UTC().Format(time.RFC3339))
}
