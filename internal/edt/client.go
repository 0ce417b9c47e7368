// Package edt talks to the edt.infuseting.fr schedule proxy: it builds the
// canonical update-endpoint URL for a directory entry and fetches its body
// with a charset-aware decode.
package edt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/Infuseting/MCPEdtUnicaen/internal/directory"
)

const (
	// DefaultBaseURL is the upstream schedule proxy.
	DefaultBaseURL = "https://edt.infuseting.fr"

	// DefaultTimeout bounds one fetch; a slower upstream surfaces as a
	// fetch error, never a hang.
	DefaultTimeout = 15 * time.Second

	userAgent = "MCPEdtUnicaen/1.0"
)

// ErrNotQueryable is returned for entries that lack the upstream resource
// or project identifier; no URL can be built for them.
var ErrNotQueryable = errors.New("entry carries no adeProjectId or adeResources")

// Client issues single GET requests against the update endpoint. It is
// safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for baseURL; empty arguments fall back to the
// package defaults.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// BuildUpdateURL returns the canonical schedule request for an entry on a
// given day. The zero day means today. Deterministic, no I/O.
func (c *Client) BuildUpdateURL(entry directory.Entry, day time.Time) (string, error) {
	if !entry.Queryable() {
		return "", ErrNotQueryable
	}
	if day.IsZero() {
		day = time.Now()
	}
	q := url.Values{}
	q.Set("adeBase", strconv.Itoa(*entry.ProjectID))
	q.Set("adeRessources", entry.ResourceRef)
	q.Set("lastUpdate", "0")
	q.Set("date", day.Format("2006-01-02"))
	return c.baseURL + "/update/index.php?" + q.Encode(), nil
}

// Fetch performs one GET and returns the decoded body. Network failures,
// timeouts and non-2xx statuses come back as errors; there are no retries.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := decodeBody(body, resp.Header.Get("Content-Type"))
	log.Debug().Str("url", rawURL).Int("bytes", len(body)).Msg("fetched schedule")
	return text, nil
}

// decodeBody converts the body to UTF-8 using the server-declared charset,
// defaulting to UTF-8. Decoding is best effort: unknown charsets and
// undecodable bytes degrade to a lossy conversion instead of failing the
// call.
func decodeBody(body []byte, contentType string) string {
	charset := "utf-8"
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if cs := params["charset"]; cs != "" {
			charset = cs
		}
	}

	enc, err := htmlindex.Get(charset)
	if err != nil || enc == nil {
		return string(body)
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
