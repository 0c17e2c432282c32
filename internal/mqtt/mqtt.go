// Package mqtt provides an abstraction for MQTT client functionality.
package mqtt

import (
	"context"
	"time"

	"github.com/sanduskycurrent/scanner-stream/internal/conf"
)

// Client defines the interface for MQTT client operations.
type Client interface {
	// Connect attempts to connect to the MQTT broker.
	Connect(ctx context.Context) error

	// Publish sends a message to the specified topic on the MQTT broker.
	Publish(ctx context.Context, topic, payload string) error

	// IsConnected returns true if the client is currently connected.
	IsConnected() bool

	// Disconnect closes the connection to the MQTT broker.
	Disconnect()
}

// Config holds the configuration for the MQTT client.
type Config struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	ReconnectCooldown time.Duration
	ReconnectDelay    time.Duration
}

// DefaultConfig builds a client Config from settings.
func DefaultConfig(settings *conf.Settings) Config {
	return Config{
		Broker:            settings.Realtime.MQTT.Broker,
		ClientID:          settings.Main.Name,
		Username:          settings.Realtime.MQTT.Username,
		Password:          settings.Realtime.MQTT.Password,
		ReconnectCooldown: 5 * time.Second,
		ReconnectDelay:    time.Second,
	}
}
