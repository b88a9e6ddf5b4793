package mqtt

import (
	"fmt"
	"strconv"
	"strings"
)

// Topic prefixes for the smart office MQTT hierarchy.
//
// All topics use the flat scheme: office/{category}/{kind}/{address}
const (
	// TopicPrefix is the base for every smart office topic.
	TopicPrefix = "office"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "office/system"
)

// roomAddressPrefix prefixes room ids in command topics.
const roomAddressPrefix = "room-"

// Topics provides builders for smart office MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmd := topics.RoomCommand("ac", 3)
//	// Returns: "office/command/ac/room-3"
type Topics struct{}

// =============================================================================
// Room Topics
// =============================================================================

// RoomCommand returns the topic for actuation commands sent by an
// environmental control system to a room's actuator.
//
// Example: office/command/lighting/room-2
func (Topics) RoomCommand(system string, roomID int) string {
	return fmt.Sprintf("%s/command/%s/%s%d", TopicPrefix, system, roomAddressPrefix, roomID)
}

// RoomState returns the retained occupancy state topic for a room.
//
// Example: office/state/room/2
func (Topics) RoomState(roomID int) string {
	return fmt.Sprintf("%s/state/room/%d", TopicPrefix, roomID)
}

// SensorOccupancy returns the topic an occupancy sensor reports on.
//
// Example: office/sensor/occupancy/2
func (Topics) SensorOccupancy(roomID int) string {
	return fmt.Sprintf("%s/sensor/occupancy/%d", TopicPrefix, roomID)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic.
//
// Example: office/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllSensorOccupancy returns a pattern matching every occupancy sensor.
//
// Pattern: office/sensor/occupancy/+
func (Topics) AllSensorOccupancy() string {
	return fmt.Sprintf("%s/sensor/occupancy/+", TopicPrefix)
}

// AllRoomCommands returns a pattern matching all actuation commands.
//
// Pattern: office/command/+/+
func (Topics) AllRoomCommands() string {
	return fmt.Sprintf("%s/command/+/+", TopicPrefix)
}

// AllRoomStates returns a pattern matching all room state topics.
//
// Pattern: office/state/room/+
func (Topics) AllRoomStates() string {
	return fmt.Sprintf("%s/state/room/+", TopicPrefix)
}

// AllTopics returns a pattern matching all smart office topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: office/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}

// RoomIDFromTopic extracts the room id from the last level of a room
// topic. Both "office/sensor/occupancy/3" and "office/command/ac/room-3"
// yield 3.
func RoomIDFromTopic(topic string) (int, error) {
	idx := strings.LastIndexByte(topic, '/')
	if idx < 0 || idx == len(topic)-1 {
		return 0, fmt.Errorf("%w: no room level in %q", ErrInvalidTopic, topic)
	}
	last := strings.TrimPrefix(topic[idx+1:], roomAddressPrefix)
	id, err := strconv.Atoi(last)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad room id in %q", ErrInvalidTopic, topic)
	}
	return id, nil
}
