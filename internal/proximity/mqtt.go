package proximity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/baywoodland/woodland/internal/geo"
)

const (
	// LocationTopic matches the location feed of every visitor.
	LocationTopic = "woodland/visitors/+/location"

	locationTopicFormat = "woodland/visitors/%s/location"
	alertTopicFormat    = "woodland/visitors/%s/alerts"
	tokenTimeout        = 5 * time.Second
)

// ErrTokenTimeout is returned when the broker does not acknowledge in time.
var ErrTokenTimeout = errors.New("mqtt: timed out waiting for broker")

// Subscriber is the part of mqtt.Client used by MQTTSource.
type Subscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
}

// Publisher is the part of mqtt.Client used by MQTTAnnouncer.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// LocationPayload is the JSON body published on a visitor's location topic.
// VisitorID may be omitted, in which case it is taken from the topic.
type LocationPayload struct {
	VisitorID string    `json:"visitor_id,omitempty"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// MQTTSource turns location messages into readings.
type MQTTSource struct {
	client Subscriber
	topic  string
	logger *slog.Logger

	ch     chan Reading
	done   chan struct{}
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	once   sync.Once
}

// NewMQTTSource subscribes to topic and starts producing readings.
func NewMQTTSource(client Subscriber, topic string, logger *slog.Logger) (*MQTTSource, error) {
	if topic == "" {
		topic = LocationTopic
	}
	s := &MQTTSource{
		client: client,
		topic:  topic,
		logger: logger,
		ch:     make(chan Reading, 64),
		done:   make(chan struct{}),
	}
	if err := wait(client.Subscribe(topic, 1, s.handle)); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return s, nil
}

func (s *MQTTSource) Readings() <-chan Reading { return s.ch }

// Resubscribe subscribes again after the client reconnected with a clean
// session. It does nothing once the source is closed.
func (s *MQTTSource) Resubscribe() error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil
	}
	if err := wait(s.client.Subscribe(s.topic, 1, s.handle)); err != nil {
		return fmt.Errorf("resubscribe %s: %w", s.topic, err)
	}
	return nil
}

// Close unsubscribes, waits for in-flight messages and closes the channel.
func (s *MQTTSource) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.done)

		err = wait(s.client.Unsubscribe(s.topic))
		s.wg.Wait()
		close(s.ch)
	})
	return err
}

func (s *MQTTSource) handle(_ mqtt.Client, msg mqtt.Message) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	r, err := decodeLocation(msg.Topic(), msg.Payload())
	if err != nil {
		s.logger.Warn("dropping location message", "topic", msg.Topic(), "error", err)
		return
	}
	select {
	case s.ch <- r:
	case <-s.done:
	}
}

func decodeLocation(topic string, payload []byte) (Reading, error) {
	var p LocationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Reading{}, fmt.Errorf("decode payload: %w", err)
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return Reading{}, fmt.Errorf("coordinates out of range: %v,%v", p.Lat, p.Lng)
	}
	id := p.VisitorID
	if id == "" {
		id = visitorFromTopic(topic)
	}
	if id == "" {
		return Reading{}, errors.New("missing visitor id")
	}
	return Reading{VisitorID: id, Position: geo.Point{Lat: p.Lat, Lng: p.Lng}, At: p.Timestamp}, nil
}

// visitorFromTopic extracts <id> from woodland/visitors/<id>/location.
func visitorFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 4 && parts[0] == "woodland" && parts[1] == "visitors" {
		return parts[2]
	}
	return ""
}

// LocationTopicFor returns the topic a visitor's positions are published on.
func LocationTopicFor(visitorID string) string {
	return fmt.Sprintf(locationTopicFormat, visitorID)
}

// AlertTopic returns the topic a visitor's alerts are published on.
func AlertTopic(visitorID string) string {
	return fmt.Sprintf(alertTopicFormat, visitorID)
}

type alertPayload struct {
	VisitorID      string    `json:"visitor_id"`
	Landmark       string    `json:"landmark"`
	Description    string    `json:"description"`
	Image          string    `json:"image,omitempty"`
	DistanceMeters float64   `json:"distance_meters"`
	Message        string    `json:"message"`
	At             time.Time `json:"at"`
}

// MQTTAnnouncer publishes events to the visitor's alert topic.
type MQTTAnnouncer struct {
	client Publisher
}

func NewMQTTAnnouncer(client Publisher) *MQTTAnnouncer {
	return &MQTTAnnouncer{client: client}
}

func (a *MQTTAnnouncer) Announce(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(alertPayload{
		VisitorID:      ev.VisitorID,
		Landmark:       ev.Landmark.Name,
		Description:    ev.Landmark.Description,
		Image:          ev.Landmark.Image,
		DistanceMeters: ev.DistanceMeters,
		Message:        ev.Message,
		At:             ev.At,
	})
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	if err := wait(a.client.Publish(AlertTopic(ev.VisitorID), 1, false, data)); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

func wait(token mqtt.Token) error {
	if !token.WaitTimeout(tokenTimeout) {
		return ErrTokenTimeout
	}
	return token.Error()
}
