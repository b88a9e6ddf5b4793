package controls

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/smart-office/internal/infrastructure/mqtt"
	"github.com/nerrad567/smart-office/internal/notify"
)

// RoomState is the retained JSON body published on office/state/room/{id}.
type RoomState struct {
	RoomID        int    `json:"room_id"`
	Occupied      bool   `json:"occupied"`
	OccupantCount int    `json:"occupant_count"`
	Timestamp     string `json:"timestamp"`
}

// StateReporter publishes every occupancy update as retained room state.
type StateReporter struct {
	opts options
}

var _ notify.Subscriber = (*StateReporter)(nil)

// NewStateReporter creates a reporter publishing through p.
func NewStateReporter(p Publisher, qos byte, opts ...Option) *StateReporter {
	o := buildOptions(opts)
	o.publisher = p
	o.qos = qos
	return &StateReporter{opts: o}
}

// OnOccupancyChanged implements notify.Subscriber.
func (r *StateReporter) OnOccupancyChanged(roomID int, occupied bool, occupantCount int) error {
	payload, err := json.Marshal(RoomState{
		RoomID:        roomID,
		Occupied:      occupied,
		OccupantCount: occupantCount,
		Timestamp:     r.opts.clock.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshalling room state: %w", err)
	}

	if err := r.opts.publisher.Publish(mqtt.Topics{}.RoomState(roomID), payload, r.opts.qos, true); err != nil {
		return fmt.Errorf("publishing state for room %d: %w", roomID, err)
	}
	r.opts.logger.Debug("room state published", "room_id", roomID, "occupied", occupied)
	return nil
}
