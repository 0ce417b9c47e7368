package schedule

import (
	"errors"
	"time"
)

// ErrInvalidRange is returned when a caller-supplied window ends before it
// starts. The caller must surface it instead of reporting an empty day.
var ErrInvalidRange = errors.New("window end precedes window start")

// Window optionally bounds an availability query. A nil side is unbounded.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether no bound was supplied.
func (w Window) IsZero() bool {
	return w.Start == nil && w.End == nil
}

// Validate rejects a window whose end precedes its start. One-sided and
// empty windows are always valid.
func (w Window) Validate() error {
	if w.Start != nil && w.End != nil && w.End.Before(*w.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Normalize fills missing end times in place: an event without an end is
// treated as instantaneous at its start.
func Normalize(events []Event) {
	for i := range events {
		if events[i].End.IsZero() {
			events[i].End = events[i].Start
		}
	}
}

// FilterWindow keeps the events overlapping the window, using the open
// interval test start < windowEnd && end > windowStart. An empty window
// returns the input unchanged.
func FilterWindow(events []Event, w Window) []Event {
	if w.IsZero() {
		return events
	}
	var out []Event
	for _, ev := range events {
		if w.End != nil && !ev.Start.Before(*w.End) {
			continue
		}
		if w.Start != nil && !ev.effectiveEnd().After(*w.Start) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Resolution is the busy/free answer over a set of events at one instant.
// Ongoing, when set, is the in-progress event that frees the resource
// soonest; Next is the nearest strictly-future event. Both nil means the
// resource is free with no known bound.
type Resolution struct {
	Ongoing *Event
	Next    *Event
}

// Resolve classifies events against now. Ties keep the first event in
// scan order.
func Resolve(events []Event, now time.Time) Resolution {
	var res Resolution
	for i := range events {
		ev := &events[i]
		end := ev.effectiveEnd()
		switch {
		case !ev.Start.After(now) && now.Before(end):
			if res.Ongoing == nil || end.Before(res.Ongoing.effectiveEnd()) {
				res.Ongoing = ev
			}
		case ev.Start.After(now):
			if res.Next == nil || ev.Start.Before(res.Next.Start) {
				res.Next = ev
			}
		}
	}
	return res
}

// NextEvent returns the event with the earliest start strictly after now,
// first-in-scan-order on ties, or nil when none is in the future.
func NextEvent(events []Event, now time.Time) *Event {
	var next *Event
	for i := range events {
		ev := &events[i]
		if !ev.Start.After(now) {
			continue
		}
		if next == nil || ev.Start.Before(next.Start) {
			next = ev
		}
	}
	return next
}
