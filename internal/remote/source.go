// Package remote fetches dataset pages from a pageview HTTP endpoint.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/pageview/internal/pager"
	"github.com/roach88/pageview/internal/record"
)

const listPath = "/v1/datasets"

// Source is a pager.Source backed by GET /v1/datasets.
//
// 429 and 5xx responses and transport errors are retried with jittered
// exponential backoff, honoring Retry-After. Other non-2xx responses are
// returned immediately as *APIError.
type Source struct {
	BaseURL        string
	HTTPClient     *http.Client
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Logger         *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option { return func(s *Source) { s.HTTPClient = c } }

// WithRetries sets the retry count.
func WithRetries(n int) Option { return func(s *Source) { s.MaxRetries = n } }

// WithBackoff sets the initial and maximum backoff.
func WithBackoff(initial, max time.Duration) Option {
	return func(s *Source) {
		s.InitialBackoff = initial
		s.MaxBackoff = max
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Source) { s.Logger = l } }

// New creates a source for the endpoint at baseURL.
func New(baseURL string, opts ...Option) (*Source, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	s := &Source{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		MaxRetries: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	return s, nil
}

type listResponse struct {
	NextCursor *string           `json:"next_cursor"`
	Data       []json.RawMessage `json:"data"`
}

// FetchPage implements pager.Source.
func (s *Source) FetchPage(ctx context.Context, cursor pager.Token, pageSize int) (pager.Page, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(pageSize))
	if !cursor.Absent() {
		q.Set("cursor", string(cursor))
	}

	body, err := s.get(ctx, listPath+"?"+q.Encode())
	if err != nil {
		return pager.Page{}, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return pager.Page{}, fmt.Errorf("decode response: %w", err)
	}

	records := make([]record.Record, 0, len(resp.Data))
	for i, raw := range resp.Data {
		r, err := decodeRecord(raw)
		if err != nil {
			return pager.Page{}, fmt.Errorf("decode record %d: %w", i, err)
		}
		records = append(records, r)
	}

	page := pager.Page{Records: records}
	if resp.NextCursor != nil {
		page.NextCursor = pager.Token(*resp.NextCursor)
		page.HasMore = true
	}
	return page, nil
}

func decodeRecord(raw json.RawMessage) (record.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return record.Record{}, err
	}
	id, _ := fields["id"].(string)
	return record.New(id, fields), nil
}

func (s *Source) get(ctx context.Context, path string) ([]byte, error) {
	u := s.BaseURL + path

	var lastErr error
	backoff, maxBack := normalizeBackoff(s.InitialBackoff, s.MaxBackoff)
	retries := normalizeRetries(s.MaxRetries)

	for attempt := 0; attempt <= retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		s.Logger.Debug("fetching page", "url", u, "attempt", attempt)
		res, err := s.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("GET %s: %w", u, err)
		} else {
			body, readErr := io.ReadAll(res.Body)
			res.Body.Close()

			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("read response: %w", readErr)
			case res.StatusCode/100 == 2:
				return body, nil
			case retryable(res.StatusCode):
				lastErr = fmt.Errorf("GET %s: %w", u, newAPIError(res.StatusCode, body))
				if ra := parseRetryAfter(res.Header.Get("Retry-After")); ra > backoff {
					backoff = ra
				}
			default:
				return nil, newAPIError(res.StatusCode, body)
			}
		}

		if attempt < retries {
			s.Logger.Debug("retrying page fetch", "url", u, "attempt", attempt, "backoff", backoff, "error", lastErr)
			if err := jitterSleep(ctx, backoff, maxBack); err != nil {
				return nil, err
			}
			backoff = nextBackoff(backoff, maxBack)
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", retries+1, lastErr)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status/100 == 5
}
