package schedule

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Field key spellings seen in the update feed, tried first-match-wins. The
// endpoint mixes iCalendar-style upper-case keys with lowercase aliases.
var (
	startKeys   = []string{"DTSTART", "start"}
	endKeys     = []string{"DTEND", "end"}
	summaryKeys = []string{"SUMMARY", "summary", "SUMMARY:CONFERENCE"}
)

// compactLayouts are the non-delimited stamp formats of the feed, with and
// without seconds.
var compactLayouts = []string{"20060102T150405", "20060102T1504"}

// isoLayouts back up the compact forms for records that carry ISO-style
// date-times instead.
var isoLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// updateDay is the per-date record of the feed; keys other than content
// (lastUpdate etc.) are ignored.
type updateDay struct {
	Content []map[string]any `json:"content"`
}

// ParseUpdateEvents decodes the update-feed JSON into normalized events.
// onlyDate, when non-empty, restricts the result to the day whose
// date-string key equals it exactly. Malformed top-level JSON yields nil;
// a record whose start cannot be parsed is skipped, never fatal.
func ParseUpdateEvents(body string, onlyDate string) []Event {
	var data map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil
	}

	// Day keys are ISO dates, so lexicographic order is chronological.
	// Sorting keeps scan order deterministic for tie-breaking.
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var events []Event
	for _, key := range keys {
		if onlyDate != "" && key != onlyDate {
			continue
		}
		var day updateDay
		if err := json.Unmarshal(data[key], &day); err != nil {
			continue
		}
		for _, rec := range day.Content {
			startStr := firstField(rec, startKeys)
			if startStr == "" {
				continue
			}
			start, ok := parseFeedTime(startStr)
			if !ok {
				continue
			}
			ev := Event{
				Start:   start,
				Summary: firstField(rec, summaryKeys),
				Raw:     RawPayload{Fields: rec},
			}
			if endStr := firstField(rec, endKeys); endStr != "" {
				if end, ok := parseFeedTime(endStr); ok {
					ev.End = end
				}
			}
			events = append(events, ev)
		}
	}
	return events
}

// NextUpdateEvent parses the full feed and returns the nearest event
// strictly after now, or nil when the body is not the JSON feed or holds
// no future event.
func NextUpdateEvent(body string, now time.Time) *Event {
	return NextEvent(ParseUpdateEvents(body, ""), now)
}

func firstField(rec map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func parseFeedTime(s string) (time.Time, bool) {
	for _, layout := range compactLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
