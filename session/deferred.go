package session

import (
	"cmp"
	"time"

	"golang.org/x/exp/slices"
)

type deferredCall struct {
	due time.Time
	seq uint64
	fn  func()
}

// Deferred holds calls to run later on the UI context. It is not safe for
// concurrent use; the UI context owns it.
type Deferred struct {
	calls []deferredCall
	seq   uint64
}

// After schedules fn to run once now has reached due.
func (d *Deferred) After(due time.Time, fn func()) {
	d.seq++
	d.calls = append(d.calls, deferredCall{due: due, seq: d.seq, fn: fn})
}

// Run executes every call that is due, earliest first, and returns how many
// ran. Calls scheduled by a running call wait for the next Run.
func (d *Deferred) Run(now time.Time) int {
	if len(d.calls) == 0 {
		return 0
	}

	var due, later []deferredCall
	for _, c := range d.calls {
		if now.Before(c.due) {
			later = append(later, c)
		} else {
			due = append(due, c)
		}
	}
	d.calls = later

	slices.SortFunc(due, func(a, b deferredCall) int {
		if c := a.due.Compare(b.due); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	for _, c := range due {
		c.fn()
	}

	return len(due)
}

// Clear drops every pending call and returns how many were dropped.
func (d *Deferred) Clear() int {
	n := len(d.calls)
	d.calls = nil
	return n
}

// Len returns the number of pending calls.
func (d *Deferred) Len() int {
	return len(d.calls)
}
