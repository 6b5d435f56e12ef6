package tilemap

import "time"

// DefaultAnimationInterval is the autotile animation cadence.
const DefaultAnimationInterval = 16 * time.Millisecond

// LegacyAnimationInterval is the cadence of RPG Maker XP: one frame every
// 16 display frames at 60 Hz.
const LegacyAnimationInterval = 16 * time.Second / 60

// Animator is the autotile animation clock. It is a wrapping counter that
// the host advances from its repaint scheduling, independent of the frame
// rate. It is not safe for concurrent use.
type Animator struct {
	interval time.Duration
	index    uint32
	last     time.Time
}

// NewAnimator returns an animator ticking every interval. A non-positive
// interval means DefaultAnimationInterval.
func NewAnimator(interval time.Duration) *Animator {
	if interval <= 0 {
		interval = DefaultAnimationInterval
	}
	return &Animator{interval: interval}
}

// Index returns the current animation index.
func (a *Animator) Index() uint32 { return a.index }

// Interval returns the tick cadence.
func (a *Animator) Interval() time.Duration { return a.interval }

// Tick advances the index by one, wrapping at 2^32.
func (a *Animator) Tick() uint32 {
	a.index++
	return a.index
}

// Advance ticks once for every whole interval elapsed since the previous
// tick and returns the index and the delay until the next tick. The first
// call only starts the clock.
func (a *Animator) Advance(now time.Time) (index uint32, next time.Duration) {
	if a.last.IsZero() || now.Before(a.last) {
		a.last = now
		return a.index, a.interval
	}
	elapsed := now.Sub(a.last)
	n := elapsed / a.interval
	a.index += uint32(n) //nolint:gosec // wrapping is intended
	a.last = a.last.Add(n * a.interval)
	return a.index, a.interval - (elapsed - n*a.interval)
}

// Reset restarts the clock at index 0.
func (a *Animator) Reset() {
	a.index = 0
	a.last = time.Time{}
}
