// Package clock abstracts the time operations used by the facility core.
//
// Production code injects Real(); tests inject Fake() and move time
// forward explicitly with Advance, so the five-minute auto-release
// window can be exercised without sleeping.
//
// # Usage
//
//	clk := clock.Fake(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
//	reg := facility.NewRegistry(facility.WithClock(clk))
//	...
//	clk.Advance(facility.AutoReleaseDelay)
package clock
