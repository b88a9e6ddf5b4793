// Package sensor feeds occupancy readings from MQTT sensors into the
// facility.
//
// Sensors publish {"count": n} on office/sensor/occupancy/{room}. Each
// reading becomes a SetOccupancy call on the registry, exactly as if it had
// been typed at the console.
package sensor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/smart-office/internal/facility"
	"github.com/nerrad567/smart-office/internal/infrastructure/mqtt"
)

// ErrInvalidReading is returned for a payload that is not a valid reading.
var ErrInvalidReading = errors.New("sensor: invalid reading")

// Subscriber registers MQTT handlers. Satisfied by *mqtt.Client.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// OccupancySetter applies occupancy readings. Satisfied by *facility.Registry.
type OccupancySetter interface {
	SetOccupancy(id, count int) (facility.OccupancyUpdate, error)
}

var _ OccupancySetter = (*facility.Registry)(nil)

// Logger defines the logging interface used by the feed.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Reading is the JSON body of a sensor message.
type Reading struct {
	Count *int `json:"count"`
}

// Feed routes sensor messages to an OccupancySetter.
type Feed struct {
	mqtt   Subscriber
	target OccupancySetter
	qos    byte
	logger Logger
	topic  string
}

// NewFeed creates a feed. Call Start to begin receiving readings.
func NewFeed(sub Subscriber, target OccupancySetter, qos byte, logger Logger) *Feed {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Feed{
		mqtt:   sub,
		target: target,
		qos:    qos,
		logger: logger,
		topic:  mqtt.Topics{}.AllSensorOccupancy(),
	}
}

// Start subscribes to every room's occupancy sensor topic.
func (f *Feed) Start() error {
	if err := f.mqtt.Subscribe(f.topic, f.qos, f.HandleMessage); err != nil {
		return fmt.Errorf("subscribing to sensor feed: %w", err)
	}
	return nil
}

// Stop removes the subscription.
func (f *Feed) Stop() error {
	return f.mqtt.Unsubscribe(f.topic)
}

// HandleMessage applies one sensor message. Rejections from the facility
// are logged and returned; they never stop the feed.
func (f *Feed) HandleMessage(topic string, payload []byte) error {
	roomID, err := mqtt.RoomIDFromTopic(topic)
	if err != nil {
		f.logger.Warn("ignoring sensor message", "topic", topic, "error", err)
		return err
	}

	count, err := parseReading(payload)
	if err != nil {
		f.logger.Warn("ignoring sensor message", "topic", topic, "error", err)
		return err
	}

	update, err := f.target.SetOccupancy(roomID, count)
	if err != nil {
		f.logger.Warn("sensor reading rejected", "room_id", roomID, "count", count, "error", err)
		return fmt.Errorf("room %d: %w", roomID, err)
	}

	f.logger.Debug("sensor reading applied",
		"room_id", roomID,
		"count", count,
		"status", update.Status.String(),
	)
	return nil
}

func parseReading(payload []byte) (int, error) {
	var r Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidReading, err)
	}
	if r.Count == nil {
		return 0, fmt.Errorf("%w: missing count", ErrInvalidReading)
	}
	return *r.Count, nil
}
