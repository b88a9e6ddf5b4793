// Package mqtt provides MQTT client connectivity for the smart office.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// MQTT is the edge bus between the facility service and the building:
// occupancy sensors report on office/sensor/occupancy/{room}, the
// environmental controls send actuation commands on
// office/command/{system}/room-{room}, and the service publishes retained
// room state on office/state/room/{room}.
//
//	Occupancy sensors → Broker → smartoffice → Broker → AC / lighting actuators
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS=true) outside a trusted network
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllSensorOccupancy(), 1,
//	    func(topic string, payload []byte) error {
//	        id, err := mqtt.RoomIDFromTopic(topic)
//	        ...
//	    })
//
//	err = client.PublishJSON(mqtt.Topics{}.RoomCommand("ac", 2), cmd, false)
package mqtt
