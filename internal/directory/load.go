package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Sources names the four JSON documents backing the directory. Each source
// may be an http(s) URL or a local file path.
type Sources struct {
	Prof    string
	Student string
	Salle   string
	Univ    string
}

// DefaultSources derives the four document locations from a base URL or
// directory, e.g. https://edt.infuseting.fr/assets/json/.
func DefaultSources(base string) Sources {
	base = strings.TrimSuffix(base, "/")
	return Sources{
		Prof:    base + "/prof.json",
		Student: base + "/student.json",
		Salle:   base + "/salle.json",
		Univ:    base + "/univ.json",
	}
}

// rawEntry is the wire shape shared by prof/student/salle entries and by
// sub-timetable entries inside univ.json. adeResources and adeProjectId
// arrive as either strings or numbers depending on the collection.
type rawEntry struct {
	DescTT       string `json:"descTT"`
	AdeUniv      string `json:"adeUniv"`
	AdeResources any    `json:"adeResources"`
	AdeProjectID any    `json:"adeProjectId"`
}

type rawInstitution struct {
	NameUniv  string     `json:"nameUniv"`
	AdeUniv   string     `json:"adeUniv"`
	Timetable []rawEntry `json:"timetable"`
}

// Load fetches and decodes the four collections. Any failure is returned
// to the caller; the directory is a startup precondition, so the process
// should treat an error here as fatal.
func Load(ctx context.Context, src Sources, timeout time.Duration) (*Index, error) {
	loader := &docLoader{client: &http.Client{Timeout: timeout}}

	var profDoc struct {
		Prof []rawEntry `json:"prof"`
	}
	if err := loader.load(ctx, src.Prof, &profDoc); err != nil {
		return nil, fmt.Errorf("load professors: %w", err)
	}

	var studentDoc struct {
		Student []rawEntry `json:"student"`
	}
	if err := loader.load(ctx, src.Student, &studentDoc); err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}

	var salleDoc struct {
		Salle []rawEntry `json:"salle"`
	}
	if err := loader.load(ctx, src.Salle, &salleDoc); err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}

	var univDoc struct {
		Univ []rawInstitution `json:"univ"`
	}
	if err := loader.load(ctx, src.Univ, &univDoc); err != nil {
		return nil, fmt.Errorf("load institutions: %w", err)
	}

	ix := &Index{
		professors: shapeEntries(profDoc.Prof, KindProfessor),
		students:   shapeEntries(studentDoc.Student, KindStudent),
		rooms:      shapeEntries(salleDoc.Salle, KindRoom),
	}
	for _, u := range univDoc.Univ {
		inst := Entry{
			Kind:           KindInstitution,
			DisplayName:    u.NameUniv,
			InstitutionRef: u.AdeUniv,
		}
		for _, t := range u.Timetable {
			sub := shapeEntry(t, KindSubTimetable)
			if sub.InstitutionRef == "" {
				sub.InstitutionRef = u.AdeUniv
			}
			inst.SubTimetables = append(inst.SubTimetables, sub)
		}
		ix.institutions = append(ix.institutions, inst)
	}

	p, s, r, u := ix.Counts()
	log.Info().
		Int("professors", p).
		Int("students", s).
		Int("rooms", r).
		Int("institutions", u).
		Msg("timetable directory loaded")
	return ix, nil
}

func shapeEntries(raw []rawEntry, kind Kind) []Entry {
	out := make([]Entry, 0, len(raw))
	for _, r := range raw {
		out = append(out, shapeEntry(r, kind))
	}
	return out
}

func shapeEntry(r rawEntry, kind Kind) Entry {
	return Entry{
		Kind:           kind,
		DisplayName:    strings.TrimSpace(r.DescTT),
		InstitutionRef: r.AdeUniv,
		ResourceRef:    asString(r.AdeResources),
		ProjectID:      asInt(r.AdeProjectID),
	}
}

// asString renders a string-or-number JSON value.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// asInt parses a string-or-number JSON value, nil when absent or invalid.
func asInt(v any) *int {
	switch t := v.(type) {
	case float64:
		n := int(t)
		return &n
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return &n
		}
	case json.Number:
		if n, err := t.Int64(); err == nil {
			i := int(n)
			return &i
		}
	}
	return nil
}

type docLoader struct {
	client *http.Client
}

func (l *docLoader) load(ctx context.Context, source string, dst any) error {
	body, err := l.read(ctx, source)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode %s: %w", source, err)
	}
	return nil
}

func (l *docLoader) read(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: unexpected status %s", source, resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(source)
}
