package ui

import (
	"time"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/app"
)

// Resource is the view state of one polled resource.
//
// Before the first successful poll the page shows a loading placeholder.
// Later polls keep the last good data on screen, and failures keep it too,
// adding the error and a retry hint.
type Resource[T any] struct {
	Data       T
	Loaded     bool
	Refreshing bool
	Cached     bool
	Err        error
	UpdatedAt  time.Time
}

// Begin marks a refresh in flight.
func (r *Resource[T]) Begin() {
	r.Refreshing = true
}

// Apply records a poll result.
func (r *Resource[T]) Apply(v T, err error, at time.Time) {
	r.Refreshing = false
	r.Cached = false
	if err != nil {
		r.Err = err
		return
	}
	r.Data = v
	r.Loaded = true
	r.Err = nil
	r.UpdatedAt = at
}

// Loading reports whether the first successful load is still pending.
func (r Resource[T]) Loading() bool {
	return !r.Loaded && !r.Failed()
}

// Failed reports an error with nothing loaded and no retry in flight.
func (r Resource[T]) Failed() bool {
	return !r.Loaded && r.Err != nil && !r.Refreshing
}

// applyUpdate feeds u into r. A cached update is shown while the real fetch
// is still on its way.
func applyUpdate[T any](r *Resource[T], u app.Update) {
	v, _ := u.Value.(T)
	r.Apply(v, u.Err, u.FetchedAt)
	if u.Cached && u.Err == nil {
		r.Cached = true
		r.Refreshing = true
	}
}
