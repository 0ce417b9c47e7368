package timetable

import "github.com/Infuseting/MCPEdtUnicaen/internal/directory"

// Professor statuses returned by ProfessorLocation.
const (
	StatusInClass    = "in_class"
	StatusFreeNow    = "free_now"
	StatusFreeAllDay = "free_all_day"
)

const noCoursesNote = "aucun cours répertorié pour aujourd'hui"

// NextEventInfo describes the upcoming class in a NextClassAnswer.
// Location and Prof are best-effort extractions and may be empty.
type NextEventInfo struct {
	Start    string `json:"start"`
	Summary  string `json:"summary"`
	Location string `json:"location,omitempty"`
	Prof     string `json:"prof,omitempty"`
}

// NextClassAnswer is the payload of the "prochain cours" operation. When
// neither feed shape yields an event the answer degrades to RawSnippet so
// the caller can inspect what the upstream actually returned.
type NextClassAnswer struct {
	OK         bool              `json:"ok"`
	Error      string            `json:"error,omitempty"`
	Source     string            `json:"source,omitempty"`
	URL        string            `json:"url,omitempty"`
	Next       *NextEventInfo    `json:"next,omitempty"`
	RawSnippet string            `json:"raw_snippet,omitempty"`
	Matches    []directory.Entry `json:"matches,omitempty"`
}

// RoomAnswer is the payload of the room-availability operation.
// RangeStart/RangeEnd echo the caller's window bounds when supplied.
type RoomAnswer struct {
	OK          bool              `json:"ok"`
	Error       string            `json:"error,omitempty"`
	Available   *bool             `json:"available,omitempty"`
	Until       string            `json:"until,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	FreeUntil   string            `json:"free_until,omitempty"`
	NextSummary string            `json:"next_summary,omitempty"`
	Note        string            `json:"note,omitempty"`
	RangeStart  string            `json:"range_start,omitempty"`
	RangeEnd    string            `json:"range_end,omitempty"`
	Source      string            `json:"source,omitempty"`
	URL         string            `json:"url,omitempty"`
	Matches     []directory.Entry `json:"matches,omitempty"`
}

// ProfessorAnswer is the payload of the professor-location operation.
type ProfessorAnswer struct {
	OK           bool              `json:"ok"`
	Error        string            `json:"error,omitempty"`
	Name         string            `json:"name,omitempty"`
	Status       string            `json:"status,omitempty"`
	Until        string            `json:"until,omitempty"`
	Location     string            `json:"location,omitempty"`
	Summary      string            `json:"summary,omitempty"`
	NextStart    string            `json:"next_start,omitempty"`
	NextLocation string            `json:"next_location,omitempty"`
	NextSummary  string            `json:"next_summary,omitempty"`
	Note         string            `json:"note,omitempty"`
	Source       string            `json:"source,omitempty"`
	URL          string            `json:"url,omitempty"`
	Matches      []directory.Entry `json:"matches,omitempty"`
}
