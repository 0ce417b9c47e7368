// Package schedule normalizes the two event representations served by the
// edt.infuseting.fr update endpoint (a JSON day-keyed feed and an
// iCalendar body) into one event model, and answers ongoing/next/free
// questions over it.
//
// All timestamps are deliberately timezone-naive: the upstream system
// writes wall-clock times, sometimes with a decorative trailing "Z" that
// does not mean UTC. Every parse lands in the local location so events
// compare cleanly against time.Now().
package schedule

import "time"

// Event is one normalized timetable event. End is the zero time when the
// feed carried no end; Normalize collapses that to End == Start.
type Event struct {
	Start   time.Time
	End     time.Time
	Summary string
	Raw     RawPayload
}

// effectiveEnd is End with the missing-end rule applied.
func (e Event) effectiveEnd() time.Time {
	if e.End.IsZero() {
		return e.Start
	}
	return e.End
}

// RawPayload keeps the original per-event record so callers can run
// best-effort field extraction (location, organizer) without the parsers
// knowing about those semantics. Exactly one side is set: Fields for a
// JSON feed record, Text for a VEVENT block.
type RawPayload struct {
	Fields map[string]any
	Text   string
}

// IsStructured reports whether the payload came from the JSON feed.
func (r RawPayload) IsStructured() bool {
	return r.Fields != nil
}
