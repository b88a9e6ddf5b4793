package controls

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/smart-office/internal/clock"
	"github.com/nerrad567/smart-office/internal/infrastructure/mqtt"
	"github.com/nerrad567/smart-office/internal/notify"
)

// System identifies an environmental control system.
type System string

// Supported systems.
const (
	AirConditioning System = "ac"
	Lighting        System = "lighting"
)

// String returns a human-readable name.
func (s System) String() string {
	switch s {
	case AirConditioning:
		return "Air conditioning"
	case Lighting:
		return "Lighting"
	default:
		return string(s)
	}
}

// Command values sent to actuators.
const (
	CommandOn  = "on"
	CommandOff = "off"
)

// sourceOccupancy marks commands triggered by occupancy changes.
const sourceOccupancy = "occupancy"

// Publisher sends MQTT messages. Satisfied by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger defines the logging interface used by the controls.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// CommandPayload is the JSON body of an actuation command.
type CommandPayload struct {
	ID        string `json:"id"`
	RoomID    int    `json:"room_id"`
	System    System `json:"system"`
	Command   string `json:"command"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

// Option configures a Switch or StateReporter.
type Option func(*options)

type options struct {
	publisher Publisher
	qos       byte
	logger    Logger
	clock     clock.Clock
}

// WithPublisher actuates switches over MQTT with the given QoS.
func WithPublisher(p Publisher, qos byte) Option {
	return func(o *options) {
		o.publisher = p
		o.qos = qos
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock used for payload timestamps.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: noopLogger{}, clock: clock.Real()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Switch turns one system on in occupied rooms and off in the rest.
type Switch struct {
	system System
	opts   options

	mu sync.Mutex
	on map[int]bool
}

var (
	_ notify.Subscriber = (*Switch)(nil)
	_ notify.Interest   = (*Switch)(nil)
)

// NewSwitch creates a control for system. Every room starts off.
func NewSwitch(system System, opts ...Option) *Switch {
	return &Switch{
		system: system,
		opts:   buildOptions(opts),
		on:     make(map[int]bool),
	}
}

// NewAirConditioning creates the air-conditioning control.
func NewAirConditioning(opts ...Option) *Switch {
	return NewSwitch(AirConditioning, opts...)
}

// NewLighting creates the lighting control.
func NewLighting(opts ...Option) *Switch {
	return NewSwitch(Lighting, opts...)
}

// System returns the controlled system.
func (s *Switch) System() System { return s.system }

// IsOn reports whether the system is on in a room.
func (s *Switch) IsOn(roomID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on[roomID]
}

// Interested skips events that would not change the switch.
func (s *Switch) Interested(evt notify.Event) bool {
	return s.IsOn(evt.RoomID) != evt.Occupied
}

// OnOccupancyChanged switches the system to match the room's occupied
// flag. Identical consecutive events are no-ops. The new state is only
// recorded once the actuator command was published, so a failed command
// is sent again on the next event for the room.
func (s *Switch) OnOccupancyChanged(roomID int, occupied bool, occupantCount int) error {
	if s.IsOn(roomID) == occupied {
		return nil
	}

	command := CommandOff
	if occupied {
		command = CommandOn
	}

	if s.opts.publisher != nil {
		if err := s.actuate(roomID, command); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.on[roomID] = occupied
	s.mu.Unlock()

	s.opts.logger.Info(fmt.Sprintf("%s turned %s", s.system, command),
		"room_id", roomID,
		"occupants", occupantCount,
	)
	return nil
}

func (s *Switch) actuate(roomID int, command string) error {
	payload, err := json.Marshal(CommandPayload{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		System:    s.system,
		Command:   command,
		Source:    sourceOccupancy,
		Timestamp: s.opts.clock.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshalling %s command: %w", s.system, err)
	}

	topic := mqtt.Topics{}.RoomCommand(string(s.system), roomID)
	if err := s.opts.publisher.Publish(topic, payload, s.opts.qos, false); err != nil {
		return fmt.Errorf("publishing %s %s for room %d: %w", s.system, command, roomID, err)
	}
	return nil
}
