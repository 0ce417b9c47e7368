package timetable

import (
	"regexp"
	"strings"

	"github.com/Infuseting/MCPEdtUnicaen/internal/schedule"
)

// Candidate key spellings for best-effort field extraction from structured
// raw payloads, tried first-match-wins.
var (
	locationKeys  = []string{"LOCATION", "location", "room", "Salle"}
	organizerKeys = []string{"INTERVENANT", "PROF", "TEACHER", "ENSEIGNANT", "ORGANIZER", "AUTHOR"}
)

var (
	locationLineRe = regexp.MustCompile(`LOCATION:([^\r\n]+)`)
	organizerCNRe  = regexp.MustCompile(`ORGANIZER:[^\r\n]*CN=([^;\r\n]+)`)
	summaryLineRe  = regexp.MustCompile(`SUMMARY:([^\r\n]+)`)
	summarySplitRe = regexp.MustCompile(`[-—]`)
)

// extractLocation pulls a room/location out of the raw event payload,
// trying the known key spellings on structured records and a LOCATION
// line on calendar text. Empty when nothing matches.
func extractLocation(ev schedule.Event) string {
	if ev.Raw.IsStructured() {
		return firstStringField(ev.Raw.Fields, locationKeys)
	}
	if m := locationLineRe.FindStringSubmatch(ev.Raw.Text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractOrganizer guesses who teaches the event. Structured records are
// probed with the known key spellings (upper then lower case), falling
// back to the summary. Calendar text tries the ORGANIZER common-name,
// then the tail of a dash-split summary. This is a heuristic, not a
// guarantee: summaries without the "course - teacher" convention will
// yield the wrong value.
func extractOrganizer(ev schedule.Event) string {
	if ev.Raw.IsStructured() {
		for _, key := range organizerKeys {
			if v := firstStringField(ev.Raw.Fields, []string{key, strings.ToLower(key)}); v != "" {
				return v
			}
		}
		return firstStringField(ev.Raw.Fields, []string{"SUMMARY", "summary"})
	}

	raw := ev.Raw.Text
	if m := organizerCNRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := summaryLineRe.FindStringSubmatch(raw); m != nil {
		s := strings.TrimSpace(m[1])
		if parts := summarySplitRe.Split(s, -1); len(parts) > 1 {
			return strings.TrimSpace(parts[len(parts)-1])
		}
		return s
	}
	return ""
}

func firstStringField(fields map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
