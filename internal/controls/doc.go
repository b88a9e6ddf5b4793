// Package controls implements the environmental controls that follow
// room occupancy: air conditioning and lighting.
//
// Each control is a notify.Subscriber. It keeps the on/off state of every
// room and switches only when the occupied flag changes, so repeated
// identical events are harmless. When a Publisher is configured the
// switch is also sent to the room's actuator over MQTT:
//
//	topic:   office/command/{system}/room-{id}
//	payload: {"id":"…","room_id":2,"system":"ac","command":"on","source":"occupancy","timestamp":"…"}
//
// StateReporter publishes the retained occupancy state of each room on
// office/state/room/{id} for dashboards and other consumers.
package controls
