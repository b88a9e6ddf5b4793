package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementOccupancy      = "room_occupancy"
	MeasurementBookingRelease = "booking_release"
)

// WriteOccupancy records one occupancy update of a room.
func (c *Client) WriteOccupancy(site string, roomID int, occupied bool, occupantCount int, at time.Time) {
	c.writePoint(occupancyPoint(site, roomID, occupied, occupantCount, at))
}

// WriteBookingRelease records a booking freed because the room stayed empty.
func (c *Client) WriteBookingRelease(site string, roomID int, start string, durationMinutes int, idle time.Duration, at time.Time) {
	c.writePoint(releasePoint(site, roomID, start, durationMinutes, idle, at))
}

// WritePoint writes a custom point.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any, at time.Time) {
	c.writePoint(write.NewPoint(measurement, tags, fields, at))
}

func (c *Client) writePoint(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(p)
}

func roomTags(site string, roomID int) map[string]string {
	return map[string]string{
		"site":    site,
		"room_id": strconv.Itoa(roomID),
	}
}

func occupancyPoint(site string, roomID int, occupied bool, occupantCount int, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementOccupancy,
		roomTags(site, roomID),
		map[string]any{
			"occupied":       occupied,
			"occupant_count": occupantCount,
		},
		at,
	)
}

func releasePoint(site string, roomID int, start string, durationMinutes int, idle time.Duration, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementBookingRelease,
		roomTags(site, roomID),
		map[string]any{
			"start":            start,
			"duration_minutes": durationMinutes,
			"idle_seconds":     idle.Seconds(),
		},
		at,
	)
}
