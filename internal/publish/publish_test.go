package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/godilite/energy-dashboard/internal/repository/models"
	"github.com/godilite/energy-dashboard/internal/scheduler"
	"github.com/godilite/energy-dashboard/internal/series"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaRenderer(t *testing.T) {
	snap := scheduler.Snapshot{
		TickID:      "tick-1",
		Period:      "bill:6",
		Summary:     series.Summary{Period: "bill:6", Total: 123.45, Length: 31},
		GeneratedAt: time.Date(2025, 7, 4, 10, 0, 0, 0, time.UTC),
	}

	t.Run("publishes keyed JSON", func(t *testing.T) {
		w := &fakeWriter{}
		r := NewKafkaRenderer(w, zaptest.NewLogger(t))

		require.NoError(t, r.Render(context.Background(), snap))
		require.Len(t, w.msgs, 1)

		msg := w.msgs[0]
		assert.Equal(t, "bill:6", string(msg.Key))
		assert.Equal(t, "tick_id", msg.Headers[0].Key)
		assert.Equal(t, "tick-1", string(msg.Headers[0].Value))

		var got scheduler.Snapshot
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, snap, got)
	})

	t.Run("write failure", func(t *testing.T) {
		w := &fakeWriter{err: errors.New("leader not available")}
		r := NewKafkaRenderer(w, nil)

		err := r.Render(context.Background(), snap)
		assert.ErrorContains(t, err, "leader not available")
		assert.Equal(t, "kafka", r.Name())
	})

	t.Run("close", func(t *testing.T) {
		w := &fakeWriter{}
		require.NoError(t, NewKafkaRenderer(w, nil).Close())
		assert.True(t, w.closed)
	})
}

func TestNewKafkaWriter(t *testing.T) {
	_, err := NewKafkaWriter(nil, "energy.summaries")
	assert.Error(t, err)

	_, err = NewKafkaWriter([]string{"localhost:9092"}, "")
	assert.Error(t, err)

	w, err := NewKafkaWriter([]string{"localhost:9092"}, "energy.summaries")
	require.NoError(t, err)
	assert.Equal(t, "energy.summaries", w.Topic)
}

type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error, complete bool) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeMQTT struct {
	token mqtt.Token
	sent  []published
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.sent = append(f.sent, published{topic, qos, retained, payload.([]byte)})
	return f.token
}

func TestDevicePublisher(t *testing.T) {
	ctx := context.Background()
	setpoint := 23.5
	thermostat := models.Device{ID: 4, Name: "Smart Thermostat", Type: "thermostat", Status: true, Setpoint: &setpoint}

	t.Run("status", func(t *testing.T) {
		client := &fakeMQTT{token: newToken(nil, true)}
		p := NewDevicePublisher(client, "", zaptest.NewLogger(t))

		require.NoError(t, p.PublishStatus(ctx, thermostat))
		require.Len(t, client.sent, 1)

		msg := client.sent[0]
		assert.Equal(t, "home/energy/devices/4/status", msg.topic)
		assert.Equal(t, byte(1), msg.qos)
		assert.True(t, msg.retained)

		var cmd deviceCommand
		require.NoError(t, json.Unmarshal(msg.payload, &cmd))
		require.NotNil(t, cmd.On)
		assert.True(t, *cmd.On)
		assert.Nil(t, cmd.Setpoint)
	})

	t.Run("setpoint", func(t *testing.T) {
		client := &fakeMQTT{token: newToken(nil, true)}
		p := NewDevicePublisher(client, "house", nil)

		require.NoError(t, p.PublishSetpoint(ctx, thermostat))
		assert.Equal(t, "house/devices/4/setpoint", client.sent[0].topic)

		err := p.PublishSetpoint(ctx, models.Device{ID: 5, Type: "lock"})
		assert.Error(t, err)
	})

	t.Run("broker error", func(t *testing.T) {
		client := &fakeMQTT{token: newToken(errors.New("not connected"), true)}
		p := NewDevicePublisher(client, "", nil)

		err := p.PublishStatus(ctx, thermostat)
		assert.ErrorContains(t, err, "not connected")
	})

	t.Run("context cancelled while waiting", func(t *testing.T) {
		client := &fakeMQTT{token: newToken(nil, false)}
		p := NewDevicePublisher(client, "", nil)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := p.PublishStatus(cctx, thermostat)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
