package main

import (
	"fmt"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/config"
	"github.com/Nixie-Tech-LLC/athan/internal/notify"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
)

// Notifiers builds the per-user notification facility.
type Notifiers struct {
	client mqtt.Client
}

// InitNotifiers connects to the MQTT broker when one is configured. Without
// a broker, reminders are only logged and users report unsupported.
func InitNotifiers(cfg *config.Config) (*Notifiers, error) {
	if cfg.MQTTBrokerURL == "" {
		log.Warn().Msg("MQTT_BROKER_URL not set, reminders will only be logged")
		return &Notifiers{}, nil
	}
	host, _ := os.Hostname()
	client, err := notify.CreateMQTTClient(cfg.MQTTBrokerURL, fmt.Sprintf("athan-server-%s", host))
	if err != nil {
		return nil, err
	}
	log.Info().Str("broker", cfg.MQTTBrokerURL).Msg("using MQTT notifications")
	return &Notifiers{client: client}, nil
}

// For returns the user's notifier, or nil when there is no delivery channel.
func (n *Notifiers) For(userID string) prayer.Notifier {
	if n.client == nil {
		return nil
	}
	return notify.NewMQTTNotifier(n.client, userID)
}

func (n *Notifiers) Close() {
	if n.client != nil {
		n.client.Disconnect(250)
		log.Info().Msg("MQTT client disconnected")
	}
}
