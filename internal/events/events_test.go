package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err      error
	complete bool
}

func (t *fakeToken) Wait() bool { return t.complete }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.complete }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakeClient struct {
	topic        string
	qos          byte
	payload      []byte
	token        *fakeToken
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.topic = topic
	c.qos = qos
	c.payload = payload.([]byte)
	return c.token
}

func (c *fakeClient) Disconnect(quiesce uint) { c.disconnected = true }

func TestTopic(t *testing.T) {
	assert.Equal(t, "sc/abc/booking.created", Topic("sc", Event{Type: BookingCreated, ServiceCenterID: "abc"}))
	assert.Equal(t, "sc/abc/booking.created", Topic("sc/", Event{Type: BookingCreated, ServiceCenterID: "abc"}))
	assert.Equal(t, "sc/global/inventory.low_stock", Topic("sc", Event{Type: InventoryLowStock}))
}

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeClient{token: &fakeToken{complete: true}}
	p := &MQTTPublisher{client: client, prefix: "servicecenter", timeout: time.Second}

	err := p.Publish(context.Background(), Event{Type: InvoicePaid, EntityID: "inv1", ServiceCenterID: "sc1"})
	require.NoError(t, err)
	assert.Equal(t, "servicecenter/sc1/invoice.paid", client.topic)
	assert.Equal(t, byte(1), client.qos)

	var decoded Event
	require.NoError(t, json.Unmarshal(client.payload, &decoded))
	assert.Equal(t, "inv1", decoded.EntityID)
	assert.False(t, decoded.OccurredAt.IsZero())

	p.Close()
	assert.True(t, client.disconnected)
}

func TestMQTTPublisher_Failures(t *testing.T) {
	client := &fakeClient{token: &fakeToken{complete: false}}
	p := &MQTTPublisher{client: client, prefix: "sc", timeout: time.Millisecond}
	assert.Error(t, p.Publish(context.Background(), Event{Type: BookingCreated}))

	client.token = &fakeToken{complete: true, err: errors.New("broker down")}
	err := p.Publish(context.Background(), Event{Type: BookingCreated})
	assert.ErrorContains(t, err, "broker down")
}

func TestRecorder(t *testing.T) {
	var r Recorder
	var pub Publisher = &r
	require.NoError(t, pub.Publish(context.Background(), Event{Type: BookingCreated}))
	require.NoError(t, pub.Publish(context.Background(), Event{Type: BookingConfirmed}))
	assert.Equal(t, []string{BookingCreated, BookingConfirmed}, r.Types())

	assert.NoError(t, NopPublisher{}.Publish(context.Background(), Event{}))
}
