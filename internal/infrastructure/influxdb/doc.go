// Package influxdb records smart office telemetry in InfluxDB v2.
//
// Writes are non-blocking: points are batched by the client library and
// flushed on an interval, and write failures are reported asynchronously
// through SetOnError. Two measurements are written:
//
//	room_occupancy   tags: site, room_id     fields: occupied, occupant_count
//	booking_release  tags: site, room_id     fields: start, duration_minutes, idle_seconds
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteOccupancy("office-001", 2, true, 3, time.Now())
package influxdb
