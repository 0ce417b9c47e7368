package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	euDateRe  = regexp.MustCompile(`^(\d{1,2})[\/\-](\d{1,2})[\/\-](\d{4})$`)
	clockRe   = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
)

var boundLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseBound turns a caller-supplied window limit into a naive local
// instant. Accepted forms: ISO date-times, date-only (ISO or DD/MM/YYYY,
// DD-MM-YYYY, meaning start of that day), the words today/tomorrow in
// English or French, and a bare HH:MM[:SS] clock meaning today. Returns
// nil for empty or unrecognized input; now anchors the relative forms.
func ParseBound(s string, now time.Time) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range boundLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return &t
		}
	}

	if isoDateRe.MatchString(s) {
		if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
			return &t
		}
	}

	if m := euDateRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		// time.Date normalizes overflow (32/13/...); reject those.
		if t.Day() == day && int(t.Month()) == month {
			return &t
		}
	}

	switch strings.ToLower(s) {
	case "today", "aujourd'hui", "aujourdhui":
		t := startOfDay(now)
		return &t
	case "tomorrow", "demain":
		t := startOfDay(now).AddDate(0, 0, 1)
		return &t
	}

	if m := clockRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		second := 0
		if m[3] != "" {
			second, _ = strconv.Atoi(m[3])
		}
		if hour > 23 || minute > 59 || second > 59 {
			return nil
		}
		t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, second, 0, now.Location())
		return &t
	}

	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
