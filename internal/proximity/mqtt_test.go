package proximity

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/baywoodland/woodland/internal/geo"
	"github.com/baywoodland/woodland/internal/landmark"
	"github.com/baywoodland/woodland/internal/logging"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type fakeBroker struct {
	mu           sync.Mutex
	handler      mqtt.MessageHandler
	unsubscribed []string
	published    map[string][]byte
	publishErr   error
}

func (b *fakeBroker) Subscribe(_ string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	b.mu.Lock()
	b.handler = cb
	b.mu.Unlock()
	return doneToken{}
}

func (b *fakeBroker) Unsubscribe(topics ...string) mqtt.Token {
	b.mu.Lock()
	b.unsubscribed = append(b.unsubscribed, topics...)
	b.mu.Unlock()
	return doneToken{}
}

func (b *fakeBroker) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.published == nil {
		b.published = map[string][]byte{}
	}
	b.published[topic] = payload.([]byte)
	return doneToken{err: b.publishErr}
}

func (b *fakeBroker) deliver(topic, payload string) {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	h(nil, fakeMessage{topic: topic, payload: []byte(payload)})
}

func TestMQTTSourceDecodesReadings(t *testing.T) {
	broker := &fakeBroker{}
	src, err := NewMQTTSource(broker, "", logging.Discard())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	broker.deliver("woodland/visitors/v7/location", `{"lat":44.62,"lng":-63.91,"timestamp":"2024-06-01T10:00:00Z"}`)
	broker.deliver("woodland/visitors/v7/location", `not json`)
	broker.deliver("woodland/visitors/v7/location", `{"visitor_id":"v8","lat":44.5,"lng":-63.8}`)

	first := <-src.Readings()
	if first.VisitorID != "v7" || first.Position != (geo.Point{Lat: 44.62, Lng: -63.91}) || first.At.IsZero() {
		t.Fatalf("unexpected reading %+v", first)
	}
	second := <-src.Readings()
	if second.VisitorID != "v8" {
		t.Fatalf("payload visitor id should win, got %+v", second)
	}

	if err := src.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(broker.unsubscribed) != 1 || broker.unsubscribed[0] != LocationTopic {
		t.Fatalf("expected unsubscribe from %s, got %v", LocationTopic, broker.unsubscribed)
	}
	if _, ok := <-src.Readings(); ok {
		t.Fatalf("expected closed channel")
	}

	// late messages after close are ignored
	broker.deliver("woodland/visitors/v7/location", `{"lat":1,"lng":1}`)
}

func TestDecodeLocationRejectsBadInput(t *testing.T) {
	cases := map[string]struct {
		topic, payload string
	}{
		"out of range":   {"woodland/visitors/v1/location", `{"lat":91,"lng":0}`},
		"no visitor id":  {"other/topic", `{"lat":1,"lng":1}`},
		"malformed json": {"woodland/visitors/v1/location", `{`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := decodeLocation(tc.topic, []byte(tc.payload)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestMQTTAnnouncerPublishesAlert(t *testing.T) {
	broker := &fakeBroker{}
	a := NewMQTTAnnouncer(broker)
	dock := landmark.Defaults()[5]

	err := a.Announce(context.Background(), Event{VisitorID: "v1", Landmark: dock, Message: NotificationMessage})
	if err != nil {
		t.Fatalf("announce: %v", err)
	}

	raw, ok := broker.published["woodland/visitors/v1/alerts"]
	if !ok {
		t.Fatalf("nothing published: %v", broker.published)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["landmark"] != "Dock" || body["message"] != NotificationMessage {
		t.Fatalf("unexpected alert %v", body)
	}
}

func TestMQTTAnnouncerPublishError(t *testing.T) {
	broker := &fakeBroker{publishErr: errors.New("broker gone")}
	err := NewMQTTAnnouncer(broker).Announce(context.Background(), Event{VisitorID: "v1"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestPipelineFromMQTTToAnnouncer(t *testing.T) {
	in := &fakeBroker{}
	out := &fakeBroker{}
	src, err := NewMQTTSource(in, LocationTopic, logging.Discard())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	mon := newTestMonitor(nil)

	done := make(chan struct{})
	go func() {
		Dispatch(context.Background(), mon.Run(context.Background(), src.Readings()), NewMQTTAnnouncer(out), logging.Discard())
		close(done)
	}()

	in.deliver("woodland/visitors/v9/location", `{"lat":44.620829,"lng":-63.914325}`)
	if err := src.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("pipeline did not drain")
	}

	out.mu.Lock()
	defer out.mu.Unlock()
	if _, ok := out.published["woodland/visitors/v9/alerts"]; !ok {
		t.Fatalf("expected alert for v9, got %v", out.published)
	}
}

type countingBroker struct {
	fakeBroker
	subscriptions int
}

func (b *countingBroker) Subscribe(topic string, qos byte, cb mqtt.MessageHandler) mqtt.Token {
	b.mu.Lock()
	b.subscriptions++
	b.mu.Unlock()
	return b.fakeBroker.Subscribe(topic, qos, cb)
}

func TestMQTTSourceResubscribesAfterReconnect(t *testing.T) {
	broker := &countingBroker{}
	src, err := NewMQTTSource(broker, "", logging.Discard())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	// a clean-session reconnect leaves the broker without our subscription
	broker.mu.Lock()
	broker.handler = nil
	broker.mu.Unlock()

	if err := src.Resubscribe(); err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if broker.subscriptions != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", broker.subscriptions)
	}

	broker.deliver("woodland/visitors/v9/location", `{"lat":44.6,"lng":-63.9}`)
	if r := <-src.Readings(); r.VisitorID != "v9" {
		t.Fatalf("unexpected reading %+v", r)
	}

	if err := src.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := src.Resubscribe(); err != nil || broker.subscriptions != 2 {
		t.Fatalf("closed source must not resubscribe, got %v after %d", err, broker.subscriptions)
	}
}
