//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// Integration tests against a live broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func connectTest(t *testing.T, clientID string) *Client {
	t.Helper()
	cfg := testConfig()
	cfg.Broker.ClientID = clientID
	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestIntegration_Connect(t *testing.T) {
	client := connectTest(t, "smartoffice-int-connect")

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) = %v, want context.Canceled", err)
	}
}

func TestIntegration_ConnectRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999

	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestIntegration_SubscriptionTracking(t *testing.T) {
	client := connectTest(t, "smartoffice-int-sub-track")
	noop := func(string, []byte) error { return nil }

	topics := []string{
		Topics{}.SensorOccupancy(1),
		Topics{}.SensorOccupancy(2),
		Topics{}.AllRoomStates(),
	}
	for _, topic := range topics {
		if err := client.Subscribe(topic, 1, noop); err != nil {
			t.Fatalf("Subscribe(%s) error = %v", topic, err)
		}
	}
	if got := client.SubscriptionCount(); got != len(topics) {
		t.Errorf("SubscriptionCount() = %d, want %d", got, len(topics))
	}

	if err := client.Unsubscribe(topics[0]); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if client.HasSubscription(topics[0]) {
		t.Error("HasSubscription() = true after Unsubscribe")
	}
}

func TestIntegration_SensorRoundtrip(t *testing.T) {
	pub := connectTest(t, "smartoffice-int-pub")
	sub := connectTest(t, "smartoffice-int-sub")

	type reading struct {
		room  int
		count int
	}
	received := make(chan reading, 1)
	var once sync.Once

	err := sub.Subscribe(Topics{}.AllSensorOccupancy(), 1, func(topic string, payload []byte) error {
		id, err := RoomIDFromTopic(topic)
		if err != nil {
			return err
		}
		var body struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return err
		}
		once.Do(func() { received <- reading{room: id, count: body.Count} })
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := pub.PublishJSON(Topics{}.SensorOccupancy(4), map[string]int{"count": 3}, false); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}

	select {
	case got := <-received:
		if got.room != 4 || got.count != 3 {
			t.Errorf("received = %+v, want room 4 count 3", got)
		}
	case <-time.After(5 * time.Second):
		t.Error("Timeout waiting for message")
	}
}

func TestIntegration_RetainedState(t *testing.T) {
	pub := connectTest(t, "smartoffice-int-retain-pub")
	topic := Topics{}.RoomState(99)

	if err := pub.PublishRetained(topic, []byte(`{"room_id":99,"occupied":true}`)); err != nil {
		t.Fatalf("PublishRetained() error = %v", err)
	}
	t.Cleanup(func() { _ = pub.Publish(topic, nil, 1, true) })

	sub := connectTest(t, "smartoffice-int-retain-sub")
	received := make(chan []byte, 1)
	err := sub.Subscribe(topic, 1, func(_ string, payload []byte) error {
		select {
		case received <- payload:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	select {
	case payload := <-received:
		if len(payload) == 0 {
			t.Error("retained payload empty")
		}
	case <-time.After(5 * time.Second):
		t.Error("Timeout waiting for retained message")
	}
}

func TestIntegration_CallbacksRegistered(t *testing.T) {
	client := connectTest(t, "smartoffice-int-callbacks")

	client.SetOnConnect(func() {})
	client.SetOnDisconnect(func(error) {})

	client.callbackMu.RLock()
	defer client.callbackMu.RUnlock()
	if client.onConnect == nil || client.onDisconnect == nil {
		t.Error("callbacks not stored")
	}
}
