// Package facility implements the meeting-room lifecycle for a smart office.
//
// A Registry owns every Room. Rooms track two independent axes, booking
// (free or booked) and occupancy (unoccupied or occupied), and a timed
// auto-release that frees a booked room nobody is using:
//
//	            Book                      UpdateOccupancy(>=2)
//	  Free ───────────────▶ Booked ◀───────────────────────┐
//	   ▲                      │ unoccupied                  │
//	   │  Cancel / release    ▼                             │
//	   └──────────── ReleaseTimerArmed ─────────────────────┘
//	                 (AutoReleaseDelay)      disarmed when occupied
//
// Every occupancy update is published to the room's notify.Bus so the
// environmental controls can follow it. The snapshot handed to
// subscribers is taken under the room lock; delivery happens after the
// lock is released, in the order the updates were applied.
//
// # Thread Safety
//
// Registry and Room are safe for concurrent use. Each room serialises
// its own state changes and its release timer behind one mutex; rooms do
// not serialise with each other.
//
// # Usage
//
//	reg := facility.NewRegistry(
//	    facility.WithLogger(log),
//	    facility.WithSubscribers(ac, lights),
//	)
//	ids, err := reg.Configure(3)
//	err = reg.Book(1, facility.Booking{Start: nine, DurationMinutes: 60})
//	update, err := reg.SetOccupancy(1, 2)
package facility
