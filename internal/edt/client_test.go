package edt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infuseting/MCPEdtUnicaen/internal/directory"
)

func queryableEntry() directory.Entry {
	project := 42
	return directory.Entry{
		Kind:        directory.KindStudent,
		DisplayName: "L3 Informatique",
		ResourceRef: "1234",
		ProjectID:   &project,
	}
}

func TestBuildUpdateURL(t *testing.T) {
	t.Parallel()

	c := NewClient("https://edt.example.test", 0)
	day := time.Date(2025, time.October, 25, 14, 30, 0, 0, time.Local)

	raw, err := c.BuildUpdateURL(queryableEntry(), day)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/update/index.php", u.Path)

	q := u.Query()
	assert.Equal(t, "42", q.Get("adeBase"))
	assert.Equal(t, "1234", q.Get("adeRessources"))
	assert.Equal(t, "0", q.Get("lastUpdate"))
	assert.Equal(t, "2025-10-25", q.Get("date"))
}

func TestBuildUpdateURLZeroDayMeansToday(t *testing.T) {
	t.Parallel()

	c := NewClient("", 0)
	raw, err := c.BuildUpdateURL(queryableEntry(), time.Time{})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format("2006-01-02"), u.Query().Get("date"))
}

func TestBuildUpdateURLNotQueryable(t *testing.T) {
	t.Parallel()

	c := NewClient("", 0)
	entry := directory.Entry{Kind: directory.KindInstitution, DisplayName: "UNICAEN"}

	_, err := c.BuildUpdateURL(entry, time.Time{})
	assert.ErrorIs(t, err, ErrNotQueryable)
}

func TestFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "MCPEdtUnicaen/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	body, err := c.Fetch(context.Background(), srv.URL+"/update/index.php")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, body)
}

func TestFetchDecodesDeclaredCharset(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar; charset=iso-8859-1")
		// "Amphi Poincaré" with a latin-1 encoded e-acute.
		w.Write([]byte("SUMMARY:Amphi Poincar\xe9"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "SUMMARY:Amphi Poincaré", body)
}

func TestFetchNon2xxStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchContextCancel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, 0)
	_, err := c.Fetch(ctx, srv.URL)
	assert.Error(t, err)
}
