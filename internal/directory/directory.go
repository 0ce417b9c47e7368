// Package directory holds the in-memory timetable directory: professors,
// students, rooms and institutions with their sub-timetables. It is loaded
// once at startup and only read afterwards, so concurrent lookups need no
// locking.
package directory

import "strings"

// Kind tags a directory entry with the collection it came from.
type Kind string

const (
	KindProfessor    Kind = "prof"
	KindStudent      Kind = "student"
	KindRoom         Kind = "salle"
	KindInstitution  Kind = "univ"
	KindSubTimetable Kind = "univ-timetable"
)

// Entry is one resource from the timetable directory. InstitutionRef,
// ResourceRef and ProjectID are opaque identifiers of the upstream ADE
// system; an entry can only be queried upstream when both ResourceRef and
// ProjectID are present.
type Entry struct {
	Kind           Kind    `json:"type"`
	DisplayName    string  `json:"desc"`
	InstitutionRef string  `json:"adeUniv,omitempty"`
	ResourceRef    string  `json:"adeResources,omitempty"`
	ProjectID      *int    `json:"adeProjectId,omitempty"`
	SubTimetables  []Entry `json:"timetable,omitempty"`
}

// Queryable reports whether the entry carries the identifiers needed to
// build an upstream schedule request.
func (e Entry) Queryable() bool {
	return e.ResourceRef != "" && e.ProjectID != nil
}

// Index is the read-only directory over the four collections.
type Index struct {
	professors   []Entry
	students     []Entry
	rooms        []Entry
	institutions []Entry
}

// NewIndex builds an index from already-shaped entries. Production code
// goes through Load; this constructor exists so callers can substitute a
// small fixed directory.
func NewIndex(professors, students, rooms, institutions []Entry) *Index {
	return &Index{
		professors:   professors,
		students:     students,
		rooms:        rooms,
		institutions: institutions,
	}
}

// Lookup returns every entry whose display name contains name,
// case-insensitively, in collection scan order: professors, students,
// rooms, then institutions and their sub-timetables. An empty name matches
// nothing.
func (ix *Index) Lookup(name string) []Entry {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}

	match := func(e Entry) bool {
		return e.DisplayName != "" && strings.Contains(strings.ToLower(e.DisplayName), needle)
	}

	var out []Entry
	for _, e := range ix.professors {
		if match(e) {
			out = append(out, e)
		}
	}
	for _, e := range ix.students {
		if match(e) {
			out = append(out, e)
		}
	}
	for _, e := range ix.rooms {
		if match(e) {
			out = append(out, e)
		}
	}
	for _, u := range ix.institutions {
		if match(u) {
			out = append(out, u)
		}
		for _, t := range u.SubTimetables {
			if match(t) {
				out = append(out, t)
			}
		}
	}
	return out
}

// Counts returns the size of each collection, for startup logging.
func (ix *Index) Counts() (professors, students, rooms, institutions int) {
	return len(ix.professors), len(ix.students), len(ix.rooms), len(ix.institutions)
}
