package sim

import "fmt"

// DefaultTicksPerSecond is the target frame rate the engine is tuned for.
const DefaultTicksPerSecond = 60

// Clock is the single source of simulation time. One tick corresponds to one
// rendered frame at TicksPerSecond. Elapsed times are derived from tick deltas,
// never from a wall clock.
//
// Thread-safety: NOT thread-safe. Owned by the tick loop.
type Clock struct {
	tick           int64
	ticksPerSecond int
}

// NewClock creates a clock at tick 0. Panics if ticksPerSecond is not positive.
func NewClock(ticksPerSecond int) *Clock {
	if ticksPerSecond <= 0 {
		panic(fmt.Sprintf("NewClock: ticksPerSecond must be > 0, got %d", ticksPerSecond))
	}
	return &Clock{ticksPerSecond: ticksPerSecond}
}

// Now returns the current tick.
func (c *Clock) Now() int64 {
	return c.tick
}

// Advance moves the clock forward by one tick and returns the new tick.
func (c *Clock) Advance() int64 {
	c.tick++
	return c.tick
}

// TicksPerSecond returns the configured tick rate.
func (c *Clock) TicksPerSecond() int {
	return c.ticksPerSecond
}

// TickSeconds returns the duration of a single tick in seconds.
func (c *Clock) TickSeconds() float64 {
	return 1.0 / float64(c.ticksPerSecond)
}

// ElapsedMs returns the milliseconds elapsed since tick `since`.
// Computed as ticks*1000/rate so that whole-second multiples are exact.
func (c *Clock) ElapsedMs(since int64) float64 {
	return float64(c.tick-since) * 1000 / float64(c.ticksPerSecond)
}

// ElapsedSeconds returns the seconds elapsed since tick `since`.
func (c *Clock) ElapsedSeconds(since int64) float64 {
	return float64(c.tick-since) / float64(c.ticksPerSecond)
}

// TicksFor converts a duration in milliseconds to a whole number of ticks, rounding up.
func (c *Clock) TicksFor(ms float64) int64 {
	ticks := ms * float64(c.ticksPerSecond) / 1000
	whole := int64(ticks)
	if float64(whole) < ticks {
		whole++
	}
	return whole
}
