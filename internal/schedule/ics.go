package schedule

import (
	"regexp"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

var (
	dtStartRe = regexp.MustCompile(`DTSTART(?:;[^:\r\n]*)?:([0-9TZ+-]+)`)
	dtEndRe   = regexp.MustCompile(`DTEND(?:;[^:\r\n]*)?:([0-9TZ+-]+)`)
	summaryRe = regexp.MustCompile(`SUMMARY:([^\r\n]+)`)
	allDayRe  = regexp.MustCompile(`^\d{8}$`)
)

// ParseCalendarEvents extracts normalized events from an iCalendar body.
// A well-formed VCALENDAR goes through the strict parser; anything else
// (bare VEVENT blocks, truncated bodies) falls back to a tolerant block
// scanner. All-day events carry no usable interval and are dropped; a
// block without a parseable start is skipped.
func ParseCalendarEvents(body string) []Event {
	blocks := splitVEventBlocks(body)
	if cal, err := ical.ParseCalendar(strings.NewReader(body)); err == nil {
		return eventsFromCalendar(cal, blocks)
	}
	return eventsFromBlocks(blocks)
}

// NextCalendarEvent returns the nearest event strictly after now, or nil.
func NextCalendarEvent(body string, now time.Time) *Event {
	return NextEvent(ParseCalendarEvents(body), now)
}

// eventsFromCalendar walks the strictly parsed calendar. rawBlocks are the
// source VEVENT blocks in file order, kept as the Raw payload so callers
// can still regex fields the library does not surface.
func eventsFromCalendar(cal *ical.Calendar, rawBlocks []string) []Event {
	var events []Event
	for i, ve := range cal.Events() {
		raw := ""
		if i < len(rawBlocks) {
			raw = rawBlocks[i]
		}

		startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
		if startProp == nil {
			continue
		}
		startVal := strings.TrimSpace(startProp.Value)
		if allDayRe.MatchString(startVal) || isDateOnly(startProp) {
			continue
		}
		start, ok := parseStampTime(startVal)
		if !ok {
			continue
		}

		ev := Event{Start: start, Raw: RawPayload{Text: raw}}
		if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
			if end, ok := parseStampTime(strings.TrimSpace(endProp.Value)); ok {
				ev.End = end
			}
		}
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			ev.Summary = strings.TrimSpace(p.Value)
		}
		events = append(events, ev)
	}
	return events
}

func isDateOnly(p *ical.IANAProperty) bool {
	if p.ICalParameters == nil {
		return false
	}
	vs, ok := p.ICalParameters["VALUE"]
	return ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE")
}

// eventsFromBlocks is the tolerant path: regex field extraction per block.
func eventsFromBlocks(blocks []string) []Event {
	var events []Event
	for _, block := range blocks {
		m := dtStartRe.FindStringSubmatch(block)
		if m == nil {
			continue
		}
		startVal := strings.TrimSpace(m[1])
		if allDayRe.MatchString(startVal) {
			continue
		}
		start, ok := parseStampTime(startVal)
		if !ok {
			continue
		}

		ev := Event{Start: start, Raw: RawPayload{Text: block}}
		if m := dtEndRe.FindStringSubmatch(block); m != nil {
			if end, ok := parseStampTime(strings.TrimSpace(m[1])); ok {
				ev.End = end
			}
		}
		if m := summaryRe.FindStringSubmatch(block); m != nil {
			ev.Summary = strings.TrimSpace(m[1])
		}
		events = append(events, ev)
	}
	return events
}

// splitVEventBlocks returns the text between each BEGIN:VEVENT/END:VEVENT
// pair, in file order.
func splitVEventBlocks(body string) []string {
	parts := strings.Split(body, "BEGIN:VEVENT")
	if len(parts) < 2 {
		return nil
	}
	blocks := make([]string, 0, len(parts)-1)
	for _, part := range parts[1:] {
		block, _, _ := strings.Cut(part, "END:VEVENT")
		blocks = append(blocks, strings.TrimLeft(block, "\r\n"))
	}
	return blocks
}

// parseStampTime parses a compact iCalendar date-time. A trailing "Z" is
// decorative in this feed (the upstream writes wall-clock times), so it is
// stripped rather than interpreted as UTC.
func parseStampTime(v string) (time.Time, bool) {
	if strings.HasSuffix(v, "Z") {
		if t, err := time.ParseInLocation("20060102T150405", strings.TrimSuffix(v, "Z"), time.Local); err == nil {
			return t, true
		}
		return time.Time{}, false
	}
	for _, layout := range compactLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
