package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

// Event types published after a committed state change.
const (
	BookingCreated       = "booking.created"
	BookingConfirmed     = "booking.confirmed"
	BookingCancelled     = "booking.cancelled"
	JobCardCreated       = "jobcard.created"
	JobCardStarted       = "jobcard.started"
	JobCardCompleted     = "jobcard.completed"
	InvoiceGenerated     = "invoice.generated"
	InvoicePaid          = "invoice.paid"
	InvoicePaymentFailed = "invoice.payment_failed"
	InventoryLowStock    = "inventory.low_stock"
	StockRequestCreated  = "stock_request.created"
	StockRequestUpdated  = "stock_request.updated"
	ReviewCreated        = "review.created"
)

// Event is a domain notification.
type Event struct {
	Type            string      `json:"type"`
	EntityID        string      `json:"entity_id"`
	ServiceCenterID string      `json:"service_center_id,omitempty"`
	Payload         interface{} `json:"payload,omitempty"`
	OccurredAt      time.Time   `json:"occurred_at"`
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// Topic returns the MQTT topic for an event: <prefix>/<service center>/<type>.
func Topic(prefix string, event Event) string {
	sc := event.ServiceCenterID
	if sc == "" {
		sc = "global"
	}
	return strings.Join([]string{strings.TrimSuffix(prefix, "/"), sc, event.Type}, "/")
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }
func (NopPublisher) Close() {}

// mqttClient is the part of mqtt.Client the publisher needs.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes events as JSON with QoS 1.
type MQTTPublisher struct {
	client  mqttClient
	prefix  string
	timeout time.Duration
}

// NewMQTTPublisher connects to broker and returns a publisher.
func NewMQTTPublisher(broker, clientID, prefix string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "failed to connect to MQTT broker %s", broker)
	}
	return &MQTTPublisher{client: client, prefix: prefix, timeout: 5 * time.Second}, nil
}

// Publish sends event and waits for the broker acknowledgement.
func (p *MQTTPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to encode event")
	}
	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	token := p.client.Publish(Topic(p.prefix, event), 1, false, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("timed out publishing %s", event.Type)
	}
	return errors.Wrapf(token.Error(), "failed to publish %s", event.Type)
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() {}

// Events returns a copy of what has been published.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the published event types in order.
func (r *Recorder) Types() []string {
	var types []string
	for _, e := range r.Events() {
		types = append(types, e.Type)
	}
	return types
}
