// Package telemetry records occupancy and booking-release history.
//
// Recorder is a notify.Subscriber that writes every occupancy update as a
// point, and its ReleaseHook records bookings freed by auto-release. Points
// go to a PointWriter, normally the InfluxDB client, whose writes are
// non-blocking and batched.
package telemetry

import (
	"time"

	"github.com/nerrad567/smart-office/internal/clock"
	"github.com/nerrad567/smart-office/internal/facility"
	"github.com/nerrad567/smart-office/internal/infrastructure/influxdb"
	"github.com/nerrad567/smart-office/internal/notify"
)

// PointWriter stores time-series points. Satisfied by *influxdb.Client.
type PointWriter interface {
	WriteOccupancy(site string, roomID int, occupied bool, occupantCount int, at time.Time)
	WriteBookingRelease(site string, roomID int, start string, durationMinutes int, idle time.Duration, at time.Time)
}

var _ PointWriter = (*influxdb.Client)(nil)

// Logger defines the logging interface used by the recorder.
type Logger interface {
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}

// Recorder writes facility telemetry for one site.
type Recorder struct {
	site   string
	writer PointWriter
	clock  clock.Clock
	logger Logger
}

var _ notify.Subscriber = (*Recorder)(nil)

// NewRecorder creates a recorder. A nil clock uses the real clock and a nil
// logger discards output.
func NewRecorder(site string, w PointWriter, clk clock.Clock, logger Logger) *Recorder {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{site: site, writer: w, clock: clk, logger: logger}
}

// OnOccupancyChanged implements notify.Subscriber.
func (r *Recorder) OnOccupancyChanged(roomID int, occupied bool, occupantCount int) error {
	r.writer.WriteOccupancy(r.site, roomID, occupied, occupantCount, r.clock.Now())
	return nil
}

// ReleaseHook returns a facility.ReleaseHook recording auto-released bookings.
func (r *Recorder) ReleaseHook() facility.ReleaseHook {
	return func(roomID int, released facility.Booking) {
		r.writer.WriteBookingRelease(
			r.site,
			roomID,
			released.Start.String(),
			released.DurationMinutes,
			facility.AutoReleaseDelay,
			r.clock.Now(),
		)
		r.logger.Info("booking release recorded",
			"room_id", roomID,
			"booking", released.String(),
		)
	}
}
