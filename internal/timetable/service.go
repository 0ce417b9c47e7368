// Package timetable composes the directory, the upstream client and the
// schedule parsers into the three public operations: next class for a
// name, room availability, and professor location. Every failure becomes
// a structured answer, never a propagated error.
package timetable

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Infuseting/MCPEdtUnicaen/internal/directory"
	"github.com/Infuseting/MCPEdtUnicaen/internal/edt"
	"github.com/Infuseting/MCPEdtUnicaen/internal/schedule"
)

// isoLayout renders naive local instants in answers.
const isoLayout = "2006-01-02T15:04:05"

const rawSnippetLimit = 2000

// User-facing messages are French, like the upstream UI.
const (
	msgNoName          = "aucun nom fourni et MY_EDT non configuré"
	msgNoEntry         = "aucune entrée trouvée pour ce nom"
	msgNoRoom          = "aucune salle trouvée pour ce nom"
	msgNotQueryable    = "impossible de construire l'URL de mise à jour (adeProjectId ou adeResources manquant)"
	msgRoomNotQueryble = "impossible de construire l'URL de mise à jour pour cette salle"
	msgFetchFailed     = "erreur lors de la récupération de l'URL"
	msgBadRange        = "la limite de fin est antérieure à la limite de début"
)

// Aliases a caller may use instead of their own timetable name.
var selfAliases = map[string]struct{}{
	"me":   {},
	"moi":  {},
	"self": {},
}

// Service answers the three timetable questions. It holds only read-only
// state and is safe for concurrent calls.
type Service struct {
	dir         *directory.Index
	client      *edt.Client
	defaultName string

	// now is swapped in tests.
	now func() time.Time
}

// New builds a Service. defaultName is the process-wide identity used when
// a caller asks for "my" timetable without a session identity; it may be
// empty.
func New(dir *directory.Index, client *edt.Client, defaultName string) *Service {
	return &Service{
		dir:         dir,
		client:      client,
		defaultName: strings.TrimSpace(defaultName),
		now:         time.Now,
	}
}

// resolveName applies the self-alias rule: an empty name or one of the
// aliases falls back to the session identity, then the process default.
func (s *Service) resolveName(name, sessionName string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed != "" {
		if _, isAlias := selfAliases[strings.ToLower(trimmed)]; !isAlias {
			return trimmed, nil
		}
	}
	if v := strings.TrimSpace(sessionName); v != "" {
		return v, nil
	}
	if s.defaultName != "" {
		return s.defaultName, nil
	}
	return "", errors.New(msgNoName)
}

// NextClass resolves name (or the caller identity), fetches its schedule
// and returns the nearest future event. sessionName is the per-session
// identity supplied by the transport; it may be empty.
func (s *Service) NextClass(ctx context.Context, name, sessionName string) NextClassAnswer {
	resolved, err := s.resolveName(name, sessionName)
	if err != nil {
		return NextClassAnswer{Error: err.Error()}
	}

	matches := s.dir.Lookup(resolved)
	if len(matches) == 0 {
		return NextClassAnswer{Error: msgNoEntry}
	}
	entry := matches[0]

	now := s.now()
	url, err := s.client.BuildUpdateURL(entry, now)
	if err != nil {
		return NextClassAnswer{Error: msgNotQueryable, Matches: matches}
	}

	content, err := s.client.Fetch(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("name", resolved).Msg("schedule fetch failed")
		return NextClassAnswer{Error: msgFetchFailed + ": " + err.Error(), URL: url}
	}

	if next := schedule.NextUpdateEvent(content, now); next != nil {
		info := &NextEventInfo{
			Start:   next.Start.Format(isoLayout),
			Summary: next.Summary,
		}
		// Re-scan the full feed for the same event to enrich the answer
		// with location and teacher.
		for _, ev := range schedule.ParseUpdateEvents(content, "") {
			if ev.Start.Equal(next.Start) {
				info.Location = extractLocation(ev)
				info.Prof = extractOrganizer(ev)
				break
			}
		}
		return NextClassAnswer{OK: true, Source: url, Next: info}
	}

	if next := schedule.NextCalendarEvent(content, now); next != nil {
		return NextClassAnswer{OK: true, Source: url, Next: &NextEventInfo{
			Start:   next.Start.Format(isoLayout),
			Summary: next.Summary,
		}}
	}

	// Neither shape parsed into a future event; hand back a preview so the
	// caller can see what the upstream said.
	snippet := content
	if len(snippet) > rawSnippetLimit {
		snippet = snippet[:rawSnippetLimit]
	}
	return NextClassAnswer{OK: true, Source: url, RawSnippet: snippet}
}

// RoomAvailability reports whether a room is free right now (or within an
// optional window) and until when. startArg/endArg are raw caller strings,
// parsed leniently; both may be empty.
func (s *Service) RoomAvailability(ctx context.Context, name, startArg, endArg string) RoomAnswer {
	matches := s.dir.Lookup(name)
	if len(matches) == 0 {
		return RoomAnswer{Error: msgNoRoom}
	}
	entry := preferKind(matches, directory.KindRoom, directory.KindSubTimetable)

	now := s.now()
	url, err := s.client.BuildUpdateURL(entry, now)
	if err != nil {
		return RoomAnswer{Error: msgRoomNotQueryble, Matches: matches}
	}

	content, err := s.client.Fetch(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("name", name).Msg("schedule fetch failed")
		return RoomAnswer{Error: msgFetchFailed + ": " + err.Error(), URL: url}
	}

	events := s.todayEvents(content, now)

	window := schedule.Window{
		Start: schedule.ParseBound(startArg, now),
		End:   schedule.ParseBound(endArg, now),
	}
	if err := window.Validate(); err != nil {
		return RoomAnswer{Error: msgBadRange}
	}
	events = schedule.FilterWindow(events, window)
	schedule.Normalize(events)

	ans := RoomAnswer{OK: true, Source: url}
	if window.Start != nil {
		ans.RangeStart = window.Start.Format(isoLayout)
	}
	if window.End != nil {
		ans.RangeEnd = window.End.Format(isoLayout)
	}

	res := schedule.Resolve(events, now)
	switch {
	case res.Ongoing != nil:
		ans.Available = boolPtr(false)
		ans.Until = res.Ongoing.End.Format(isoLayout)
		ans.Summary = res.Ongoing.Summary
	case res.Next != nil:
		ans.Available = boolPtr(true)
		ans.FreeUntil = res.Next.Start.Format(isoLayout)
		ans.NextSummary = res.Next.Summary
	default:
		ans.Available = boolPtr(true)
		ans.Note = noCoursesNote
	}
	return ans
}

// ProfessorLocation reports where a professor is right now, or where they
// will be next.
func (s *Service) ProfessorLocation(ctx context.Context, name string) ProfessorAnswer {
	matches := s.dir.Lookup(name)
	if len(matches) == 0 {
		return ProfessorAnswer{Error: msgNoEntry}
	}
	entry := preferKind(matches, directory.KindProfessor)

	now := s.now()
	url, err := s.client.BuildUpdateURL(entry, now)
	if err != nil {
		return ProfessorAnswer{Error: msgNotQueryable, Matches: matches}
	}

	content, err := s.client.Fetch(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("name", name).Msg("schedule fetch failed")
		return ProfessorAnswer{Error: msgFetchFailed + ": " + err.Error(), URL: url}
	}

	events := s.todayEvents(content, now)
	schedule.Normalize(events)

	ans := ProfessorAnswer{OK: true, Name: name, Source: url}
	res := schedule.Resolve(events, now)
	switch {
	case res.Ongoing != nil:
		ans.Status = StatusInClass
		ans.Until = res.Ongoing.End.Format(isoLayout)
		ans.Summary = res.Ongoing.Summary
		ans.Location = orSummary(extractLocation(*res.Ongoing), res.Ongoing.Summary)
	case res.Next != nil:
		ans.Status = StatusFreeNow
		ans.NextStart = res.Next.Start.Format(isoLayout)
		ans.NextSummary = res.Next.Summary
		ans.NextLocation = orSummary(extractLocation(*res.Next), res.Next.Summary)
	default:
		ans.Status = StatusFreeAllDay
		ans.Note = noCoursesNote
	}
	return ans
}

// todayEvents parses the body as the JSON feed restricted to today,
// falling back to the calendar shape when that yields nothing.
func (s *Service) todayEvents(content string, now time.Time) []schedule.Event {
	events := schedule.ParseUpdateEvents(content, now.Format("2006-01-02"))
	if len(events) == 0 {
		events = schedule.ParseCalendarEvents(content)
	}
	return events
}

// preferKind picks the first match of a preferred kind, or the first match
// overall.
func preferKind(matches []directory.Entry, kinds ...directory.Kind) directory.Entry {
	for _, m := range matches {
		for _, k := range kinds {
			if m.Kind == k {
				return m
			}
		}
	}
	return matches[0]
}

func orSummary(location, summary string) string {
	if location != "" {
		return location
	}
	return summary
}

func boolPtr(b bool) *bool { return &b }
