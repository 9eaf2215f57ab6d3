package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

const publishTimeout = 5 * time.Second

// Publisher is the part of mqtt.Client used for delivery.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Error().Err(err).Msg("MQTT connection lost")
}

// CreateMQTTClient connects to brokerURL with auto-reconnect enabled.
func CreateMQTTClient(brokerURL, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}

func NotificationTopic(userID string) string {
	return fmt.Sprintf("athan/%s/notifications", userID)
}

func PermissionTopic(userID string) string {
	return fmt.Sprintf("athan/%s/permission", userID)
}

// Message is the payload devices receive on the notifications topic.
type Message struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

type permissionRequest struct {
	ID      uuid.UUID `json:"id"`
	Request string    `json:"request"`
}

// MQTTNotifier delivers one user's reminders to their subscribed devices.
type MQTTNotifier struct {
	pub    Publisher
	userID string
	now    func() time.Time
}

func NewMQTTNotifier(pub Publisher, userID string) *MQTTNotifier {
	return &MQTTNotifier{pub: pub, userID: userID, now: time.Now}
}

func (n *MQTTNotifier) Show(title, body string) {
	msg := Message{ID: uuid.New(), Title: title, Body: body, SentAt: n.now().UTC()}
	if err := n.publish(NotificationTopic(n.userID), msg); err != nil {
		log.Error().Err(err).Str("user_id", n.userID).Msg("failed to deliver notification")
		return
	}
	log.Info().Str("user_id", n.userID).Str("id", msg.ID.String()).Msg("notification published")
}

// RequestPermission asks the user's devices to prompt. The answer arrives
// later through the API, so the current state stays default.
func (n *MQTTNotifier) RequestPermission(ctx context.Context) (model.Permission, error) {
	req := permissionRequest{ID: uuid.New(), Request: "notifications"}
	if err := n.publish(PermissionTopic(n.userID), req); err != nil {
		return "", err
	}
	return model.PermissionDefault, nil
}

func (n *MQTTNotifier) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	token := n.pub.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}
