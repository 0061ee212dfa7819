package anim

import "time"

// Group advances a set of named values together on each host frame, so the
// host can schedule frames only while something is still moving.
type Group struct {
	duration time.Duration
	opts     []Option
	values   map[string]*Value
}

// NewGroup creates an empty group whose values share duration and options.
func NewGroup(duration time.Duration, opts ...Option) *Group {
	return &Group{
		duration: duration,
		opts:     opts,
		values:   make(map[string]*Value),
	}
}

// Get returns the value for key, creating it on first use.
func (g *Group) Get(key string) *Value {
	v, ok := g.values[key]
	if !ok {
		v = New(g.duration, g.opts...)
		g.values[key] = v
	}
	return v
}

// Set observes raw for key. It reports whether the group is animating
// afterwards.
func (g *Group) Set(key string, raw float64, enabled bool, now time.Time) bool {
	g.Get(key).Set(raw, enabled, now)
	return g.Animating()
}

// Tick advances every value to now and reports whether any is still
// animating.
func (g *Group) Tick(now time.Time) bool {
	animating := false
	for _, v := range g.values {
		if v.Tick(now).IsAnimating {
			animating = true
		}
	}
	return animating
}

// Animating reports whether any value is mid-transition.
func (g *Group) Animating() bool {
	for _, v := range g.values {
		if v.IsAnimating() {
			return true
		}
	}
	return false
}

// Frame returns the current frame for key. Unknown keys return a zero frame.
func (g *Group) Frame(key string) Frame {
	if v, ok := g.values[key]; ok {
		return v.Frame()
	}
	return Frame{}
}

// Remove drops key, e.g. when the card that owns it goes away.
func (g *Group) Remove(key string) {
	delete(g.values, key)
}

// Len returns the number of tracked values.
func (g *Group) Len() int {
	return len(g.values)
}
