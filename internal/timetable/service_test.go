package timetable

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infuseting/MCPEdtUnicaen/internal/directory"
	"github.com/Infuseting/MCPEdtUnicaen/internal/edt"
)

// The clock every test runs at: saturday 2025-10-25, 10:30 local.
var testNow = time.Date(2025, time.October, 25, 10, 30, 0, 0, time.Local)

const busyMorningFeed = `{
  "2025-10-25": {"content": [
    {"DTSTART": "20251025T100000", "DTEND": "20251025T110000",
     "SUMMARY": "TD Algo", "LOCATION": "S3 049", "INTERVENANT": "Jean DUPONT"},
    {"DTSTART": "20251025T140000", "DTEND": "20251025T160000",
     "SUMMARY": "CM Réseaux", "LOCATION": "Amphi Poincaré", "INTERVENANT": "Marie MARTIN"}
  ]}
}`

const afternoonOnlyFeed = `{
  "2025-10-25": {"content": [
    {"DTSTART": "20251025T140000", "DTEND": "20251025T160000",
     "SUMMARY": "CM Réseaux", "LOCATION": "Amphi Poincaré"}
  ]}
}`

const icsBody = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//FR\r\n" +
	"BEGIN:VEVENT\r\nDTSTART:20251025T100000\r\nDTEND:20251025T110000\r\n" +
	"SUMMARY:TP Compilation - Jean DUPONT\r\nLOCATION:S3 351\r\nEND:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func entry(kind directory.Kind, name, resource string, project int) directory.Entry {
	return directory.Entry{
		Kind:        kind,
		DisplayName: name,
		ResourceRef: resource,
		ProjectID:   &project,
	}
}

// newService wires a Service against an httptest upstream serving body and
// a small directory, and pins the clock to testNow. The returned function
// reports the adeRessources value of the last upstream request.
func newService(t *testing.T, body string, status int) (*Service, func() string) {
	t.Helper()

	var lastResource string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastResource = r.URL.Query().Get("adeRessources")
		if status != http.StatusOK {
			http.Error(w, "upstream error", status)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	dir := directory.NewIndex(
		[]directory.Entry{entry(directory.KindProfessor, "Jean DUPONT", "101", 1)},
		[]directory.Entry{entry(directory.KindStudent, "L3 Informatique", "202", 1)},
		[]directory.Entry{
			entry(directory.KindRoom, "Amphi DUPONT", "303", 1),
			entry(directory.KindRoom, "S3 049", "304", 1),
		},
		[]directory.Entry{{Kind: directory.KindInstitution, DisplayName: "UNICAEN"}},
	)

	svc := New(dir, edt.NewClient(srv.URL, 0), "")
	svc.now = func() time.Time { return testNow }
	return svc, func() string { return lastResource }
}

func TestNextClass(t *testing.T) {
	svc, _ := newService(t, busyMorningFeed, http.StatusOK)

	ans := svc.NextClass(context.Background(), "L3 Informatique", "")
	require.True(t, ans.OK, ans.Error)
	require.NotNil(t, ans.Next)
	assert.Equal(t, "2025-10-25T14:00:00", ans.Next.Start)
	assert.Equal(t, "CM Réseaux", ans.Next.Summary)
	assert.Equal(t, "Amphi Poincaré", ans.Next.Location)
	assert.Equal(t, "Marie MARTIN", ans.Next.Prof)
	assert.Contains(t, ans.Source, "adeRessources=202")
	assert.Empty(t, ans.RawSnippet)
}

func TestNextClassNoName(t *testing.T) {
	svc, _ := newService(t, busyMorningFeed, http.StatusOK)

	for _, name := range []string{"", "me", "Moi", "self"} {
		ans := svc.NextClass(context.Background(), name, "")
		assert.Falsef(t, ans.OK, "name %q", name)
		assert.Equal(t, msgNoName, ans.Error)
	}
}

func TestNextClassIdentityFallbacks(t *testing.T) {
	svc, lastResource := newService(t, busyMorningFeed, http.StatusOK)

	// Session identity wins over the process default.
	svc.defaultName = "L3 Informatique"
	ans := svc.NextClass(context.Background(), "moi", "Jean DUPONT")
	require.True(t, ans.OK, ans.Error)
	assert.Equal(t, "101", lastResource())

	// Without a session identity, the default applies.
	ans = svc.NextClass(context.Background(), "", "")
	require.True(t, ans.OK, ans.Error)
	assert.Equal(t, "202", lastResource())
}

func TestNextClassUnknownName(t *testing.T) {
	svc, _ := newService(t, busyMorningFeed, http.StatusOK)

	ans := svc.NextClass(context.Background(), "inconnu", "")
	assert.False(t, ans.OK)
	assert.Equal(t, msgNoEntry, ans.Error)
}

func TestNextClassNotQueryable(t *testing.T) {
	svc, _ := newService(t, busyMorningFeed, http.StatusOK)

	ans := svc.NextClass(context.Background(), "UNICAEN", "")
	assert.False(t, ans.OK)
	assert.Equal(t, msgNotQueryable, ans.Error)
	require.Len(t, ans.Matches, 1)
	assert.Equal(t, "UNICAEN", ans.Matches[0].DisplayName)
}

func TestNextClassFetchFailure(t *testing.T) {
	svc, _ := newService(t, "", http.StatusBadGateway)

	ans := svc.NextClass(context.Background(), "L3 Informatique", "")
	assert.False(t, ans.OK)
	assert.Contains(t, ans.Error, msgFetchFailed)
	assert.Contains(t, ans.URL, "adeRessources=202")
}

func TestNextClassCalendarFallback(t *testing.T) {
	svc, _ := newService(t, icsBody, http.StatusOK)

	// now before the event so the calendar shape yields a future one.
	svc.now = func() time.Time {
		return time.Date(2025, time.October, 25, 9, 0, 0, 0, time.Local)
	}

	ans := svc.NextClass(context.Background(), "L3 Informatique", "")
	require.True(t, ans.OK, ans.Error)
	require.NotNil(t, ans.Next)
	assert.Equal(t, "2025-10-25T10:00:00", ans.Next.Start)
	assert.Equal(t, "TP Compilation - Jean DUPONT", ans.Next.Summary)
}

func TestNextClassRawSnippetDegrade(t *testing.T) {
	body := "<html>maintenance en cours " + strings.Repeat("x", 3000) + "</html>"
	svc, _ := newService(t, body, http.StatusOK)

	ans := svc.NextClass(context.Background(), "L3 Informatique", "")
	require.True(t, ans.OK, ans.Error)
	assert.Nil(t, ans.Next)
	assert.Len(t, ans.RawSnippet, rawSnippetLimit)
	assert.True(t, strings.HasPrefix(ans.RawSnippet, "<html>"))
}

func TestRoomAvailabilityBusy(t *testing.T) {
	svc, lastResource := newService(t, busyMorningFeed, http.StatusOK)

	ans := svc.RoomAvailability(context.Background(), "S3 049", "", "")
	require.True(t, ans.OK, ans.Error)
	require.NotNil(t, ans.Available)
	assert.False(t, *ans.Available)
	assert.Equal(t, "2025-10-25T11:00:00", ans.Until)
	assert.Equal(t, "TD Algo", ans.Summary)
	assert.Equal(t, "304", lastResource())
}

func TestRoomAvailabilityFreeUntilNext(t *testing.T) {
	svc, _ := newService(t, afternoonOnlyFeed, http.StatusOK)

	ans := svc.RoomAvailability(context.Background(), "S3 049", "", "")
	require.True(t, ans.OK, ans.Error)
	require.NotNil(t, ans.Available)
	assert.True(t, *ans.Available)
	assert.Equal(t, "2025-10-25T14:00:00", ans.FreeUntil)
	assert.Equal(t, "CM Réseaux", ans.NextSummary)
}

func TestRoomAvailabilityFreeAllDay(t *testing.T) {
	svc, _ := newService(t, `{}`, http.StatusOK)

	ans := svc.RoomAvailability(context.Background(), "S3 049", "", "")
	require.True(t, ans.OK, ans.Error)
	require.NotNil(t, ans.Available)
	assert.True(t, *ans.Available)
	assert.Equal(t, noCoursesNote, ans.Note)
}

func TestRoomAvailabilityWindow(t *testing.T) {
	svc, _ := newService(t, busyMorningFeed, http.StatusOK)

	// The afternoon lecture falls outside the window; only the morning
	// slot remains, which is ongoing at 10:30.
	ans := svc.RoomAvailability(context.Background(), "S3 049", "09:30", "13:00")
	require.True(t, ans.OK, ans.Error)
	require.NotNil(t, ans.Available)
	assert.False(t, *ans.Available)
	assert.Equal(t, "TD Algo", ans.Summary)
	assert.Equal(t, "2025-10-25T09:30:00", ans.RangeStart)
	assert.Equal(t, "2025-10-25T13:00:00", ans.RangeEnd)
}

func TestRoomAvailabilityInvalidRange(t *testing.T) {
	svc, _ := newService(t, busyMorningFeed, http.StatusOK)

	ans := svc.RoomAvailability(context.Background(), "S3 049", "14:00", "09:00")
	assert.False(t, ans.OK)
	assert.Equal(t, msgBadRange, ans.Error)
}

func TestRoomAvailabilityUnknownRoom(t *testing.T) {
	svc, _ := newService(t, busyMorningFeed, http.StatusOK)

	ans := svc.RoomAvailability(context.Background(), "salle imaginaire", "", "")
	assert.False(t, ans.OK)
	assert.Equal(t, msgNoRoom, ans.Error)
}

func TestRoomAvailabilityPrefersRoomMatch(t *testing.T) {
	svc, lastResource := newService(t, afternoonOnlyFeed, http.StatusOK)

	// "dupont" matches both the professor and the amphitheater; the room
	// operation must pick the room.
	ans := svc.RoomAvailability(context.Background(), "dupont", "", "")
	require.True(t, ans.OK, ans.Error)
	assert.Equal(t, "303", lastResource())
}

func TestRoomAvailabilityICSBody(t *testing.T) {
	svc, _ := newService(t, icsBody, http.StatusOK)

	ans := svc.RoomAvailability(context.Background(), "S3 049", "", "")
	require.True(t, ans.OK, ans.Error)
	require.NotNil(t, ans.Available)
	assert.False(t, *ans.Available)
	assert.Equal(t, "2025-10-25T11:00:00", ans.Until)
}

func TestProfessorLocationInClass(t *testing.T) {
	svc, lastResource := newService(t, busyMorningFeed, http.StatusOK)

	ans := svc.ProfessorLocation(context.Background(), "Jean DUPONT")
	require.True(t, ans.OK, ans.Error)
	assert.Equal(t, StatusInClass, ans.Status)
	assert.Equal(t, "2025-10-25T11:00:00", ans.Until)
	assert.Equal(t, "TD Algo", ans.Summary)
	assert.Equal(t, "S3 049", ans.Location)
	assert.Equal(t, "101", lastResource())
}

func TestProfessorLocationFreeNow(t *testing.T) {
	svc, _ := newService(t, afternoonOnlyFeed, http.StatusOK)

	ans := svc.ProfessorLocation(context.Background(), "Jean DUPONT")
	require.True(t, ans.OK, ans.Error)
	assert.Equal(t, StatusFreeNow, ans.Status)
	assert.Equal(t, "2025-10-25T14:00:00", ans.NextStart)
	assert.Equal(t, "Amphi Poincaré", ans.NextLocation)
	assert.Equal(t, "CM Réseaux", ans.NextSummary)
}

func TestProfessorLocationFreeAllDay(t *testing.T) {
	svc, _ := newService(t, `{}`, http.StatusOK)

	ans := svc.ProfessorLocation(context.Background(), "Jean DUPONT")
	require.True(t, ans.OK, ans.Error)
	assert.Equal(t, StatusFreeAllDay, ans.Status)
	assert.Equal(t, noCoursesNote, ans.Note)
}

func TestProfessorLocationUnknown(t *testing.T) {
	svc, _ := newService(t, busyMorningFeed, http.StatusOK)

	ans := svc.ProfessorLocation(context.Background(), "Professeur Tournesol")
	assert.False(t, ans.OK)
	assert.Equal(t, msgNoEntry, ans.Error)
}
