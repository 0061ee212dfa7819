// Package anim smooths numeric values that change between poll cycles.
//
// A Value is seeded with its first observation and from then on glides toward
// each new target over a fixed duration instead of jumping. Time is always
// passed in by the caller, so a Value never reads the wall clock and is driven
// purely by the host's frame ticks.
package anim

import (
	"math"
	"time"
)

// DefaultDuration is the transition length used when none is configured.
const DefaultDuration = 800 * time.Millisecond

// Easing maps linear progress t in [0,1] to eased progress in [0,1].
// Implementations must be monotonic with f(0)=0 and f(1)=1.
type Easing func(t float64) float64

// EaseOutQuad decelerates toward the target: 1-(1-t)^2.
func EaseOutQuad(t float64) float64 {
	u := 1 - t
	return 1 - u*u
}

// EaseOutCubic decelerates harder than EaseOutQuad.
func EaseOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// Linear applies no easing.
func Linear(t float64) float64 {
	return t
}

// State is the interpolator state.
type State int

const (
	Idle State = iota
	Transitioning
)

func (s State) String() string {
	if s == Transitioning {
		return "transitioning"
	}
	return "idle"
}

// Frame is what the rendering layer consumes.
type Frame struct {
	Value       float64
	IsAnimating bool
}

// Option configures a Value.
type Option func(*Value)

// WithEasing overrides the easing curve.
func WithEasing(e Easing) Option {
	return func(v *Value) {
		if e != nil {
			v.easing = e
		}
	}
}

// Value is a single animated metric. It is not safe for concurrent use; each
// card owns its own instance and advances it from the UI loop.
type Value struct {
	duration time.Duration
	easing   Easing

	seeded    bool
	target    float64
	displayed float64
	from      float64
	start     time.Time
	state     State
}

// New creates a Value. A non-positive duration disables animation: every
// change snaps immediately.
func New(duration time.Duration, opts ...Option) *Value {
	v := &Value{
		duration: duration,
		easing:   EaseOutQuad,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Set observes the latest raw value at time now.
//
// While enabled is false the interpolator does not run: the displayed value
// tracks raw and nothing animates. The first enabled observation after that
// behaves like any other change relative to what is currently displayed.
func (v *Value) Set(raw float64, enabled bool, now time.Time) {
	if !enabled || !v.seeded {
		v.snap(raw)
		v.seeded = true
		return
	}

	if raw == v.target && !isDegenerate(raw) {
		// Same target: keep whatever transition is in flight.
		return
	}

	// Bring displayed up to now so an interrupted transition restarts from
	// the position on screen, not from the old resting target.
	v.advance(now)

	if isDegenerate(raw) || isDegenerate(v.displayed) || v.duration <= 0 {
		v.snap(raw)
		return
	}

	v.from = v.displayed
	v.target = raw
	v.start = now
	v.state = Transitioning

	if v.from == v.target {
		v.state = Idle
	}
}

// Tick advances the transition to now and returns the frame to render.
func (v *Value) Tick(now time.Time) Frame {
	v.advance(now)
	return v.Frame()
}

// Frame returns the last computed frame without advancing time.
func (v *Value) Frame() Frame {
	return Frame{Value: v.displayed, IsAnimating: v.state == Transitioning}
}

// Current returns the displayed value.
func (v *Value) Current() float64 { return v.displayed }

// Previous returns the start point of the current transition: the value that
// was on screen when the latest target arrived.
func (v *Value) Previous() float64 { return v.from }

// Target returns the latest observed value.
func (v *Value) Target() float64 { return v.target }

// IsAnimating reports whether a transition is in progress.
func (v *Value) IsAnimating() bool { return v.state == Transitioning }

// State returns the interpolator state.
func (v *Value) State() State { return v.state }

// Seeded reports whether the value has observed anything yet.
func (v *Value) Seeded() bool { return v.seeded }

// Duration returns the configured transition length.
func (v *Value) Duration() time.Duration { return v.duration }

func (v *Value) advance(now time.Time) {
	if v.state != Transitioning {
		return
	}

	elapsed := now.Sub(v.start)
	if elapsed < 0 {
		elapsed = 0
	}

	t := float64(elapsed) / float64(v.duration)
	if t >= 1 {
		v.snap(v.target)
		return
	}

	eased := clamp01(v.easing(t))
	next := v.from + (v.target-v.from)*eased

	if isDegenerate(next) {
		v.snap(v.target)
		return
	}
	v.displayed = clampBetween(next, v.from, v.target)
}

func (v *Value) snap(raw float64) {
	v.target = raw
	v.displayed = raw
	v.from = raw
	v.state = Idle
}

func isDegenerate(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 1
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func clampBetween(f, a, b float64) float64 {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(hi, f))
}
