// Package events publishes service request lifecycle events to MQTT so that
// dispatch and notification services can follow requests without polling.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/ukydev/roadside-assist/internal/models"
)

// Event types.
const (
	RequestCreated       = "request.created"
	RequestStatusChanged = "request.status_changed"
	PaymentRecorded      = "payment.recorded"
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Event is the payload published for every lifecycle change.
type Event struct {
	Type        string               `json:"type"`
	RequestID   string               `json:"requestId,omitempty"`
	PaymentID   string               `json:"paymentId,omitempty"`
	BookingID   string               `json:"bookingId,omitempty"`
	UserID      string               `json:"userId"`
	ServiceType models.ServiceType   `json:"serviceType,omitempty"`
	From        models.RequestStatus `json:"from,omitempty"`
	To          string               `json:"to,omitempty"`
	Amount      float64              `json:"amount,omitempty"`
	Version     int64                `json:"version,omitempty"`
	OccurredAt  time.Time            `json:"occurredAt"`
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close()                               {}

// publishClient is the part of mqtt.Client the publisher uses.
type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes events as JSON with QoS 1.
type MQTTPublisher struct {
	client  publishClient
	prefix  string
	timeout time.Duration
}

// NewMQTTPublisher connects to brokerURL and returns a publisher writing
// under topicPrefix.
func NewMQTTPublisher(brokerURL, clientID, topicPrefix string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	return newMQTTPublisher(client, topicPrefix), nil
}

func newMQTTPublisher(client publishClient, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix, timeout: 5 * time.Second}
}

// Topic returns the topic an event is published on.
func (p *MQTTPublisher) Topic(event Event) string {
	return fmt.Sprintf("%s/events/%s", p.prefix, event.Type)
}

// Publish sends the event and waits for the broker acknowledgement, bounded
// by the publisher timeout and ctx.
func (p *MQTTPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	token := p.client.Publish(p.Topic(event), 1, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return ErrPublishTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects from the broker, giving in-flight messages 250ms.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
