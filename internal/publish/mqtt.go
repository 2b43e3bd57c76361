package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/godilite/energy-dashboard/internal/repository/models"
	"go.uber.org/zap"
)

const (
	defaultTopicPrefix = "home/energy"
	connectTimeout     = 5 * time.Second
	commandQoS         = byte(1)
)

// mqttClient is the subset of mqtt.Client the device publisher uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// ConnectMQTT connects to broker and waits for the connection to be
// established.
func ConnectMQTT(broker, clientID string, logger *zap.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", zap.Error(err))
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}
	return client, nil
}

type deviceCommand struct {
	DeviceID int64     `json:"device_id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	On       *bool     `json:"on,omitempty"`
	Setpoint *float64  `json:"setpoint,omitempty"`
	IssuedAt time.Time `json:"issued_at"`
}

// DevicePublisher sends device state changes as retained MQTT messages under
// <prefix>/devices/<id>/<field>.
type DevicePublisher struct {
	client mqttClient
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

func NewDevicePublisher(client mqttClient, prefix string, logger *zap.Logger) *DevicePublisher {
	if client == nil {
		panic("nil mqtt client provided to NewDevicePublisher")
	}
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DevicePublisher{
		client: client,
		prefix: prefix,
		now:    time.Now,
		logger: logger.Named("mqtt"),
	}
}

func (p *DevicePublisher) topic(id int64, field string) string {
	return fmt.Sprintf("%s/devices/%d/%s", p.prefix, id, field)
}

func (p *DevicePublisher) PublishStatus(ctx context.Context, d models.Device) error {
	on := d.Status
	return p.publish(ctx, p.topic(d.ID, "status"), deviceCommand{
		DeviceID: d.ID,
		Name:     d.Name,
		Type:     d.Type,
		On:       &on,
		IssuedAt: p.now().UTC(),
	})
}

func (p *DevicePublisher) PublishSetpoint(ctx context.Context, d models.Device) error {
	if d.Setpoint == nil {
		return fmt.Errorf("device %d has no setpoint", d.ID)
	}
	return p.publish(ctx, p.topic(d.ID, "setpoint"), deviceCommand{
		DeviceID: d.ID,
		Name:     d.Name,
		Type:     d.Type,
		Setpoint: d.Setpoint,
		IssuedAt: p.now().UTC(),
	})
}

func (p *DevicePublisher) publish(ctx context.Context, topic string, cmd deviceCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	token := p.client.Publish(topic, commandQoS, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	p.logger.Debug("device command published", zap.String("topic", topic))
	return nil
}
