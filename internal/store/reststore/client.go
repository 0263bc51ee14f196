// Package reststore implements store.Store against a
// PostgREST-style external data API (e.g. Supabase). The server
// acts as a secure intermediary: the api key never reaches
// clients, and ownership scoping is expressed through query-string
// filters (`user_id=eq.<owner>`) on every owner-scoped request.
package reststore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/crittertrack/crittertrack-server/internal/store"
)

// Store proxies all persistence to the external REST data API.
type Store struct {
	base string // base URL including the /rest/v1 style prefix
	key  string // api key sent on every request
	hc   *http.Client
}

var _ store.Store = (*Store)(nil)

// New builds a Store for the given base URL and api key.
func New(baseURL, apiKey string) *Store {
	return &Store{
		base: baseURL,
		key:  apiKey,
		hc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// filters is an ordered set of PostgREST query parameters.
type filters [][2]string

func (f filters) encode() string {
	v := url.Values{}
	for _, kv := range f {
		v.Add(kv[0], kv[1])
	}
	return v.Encode()
}

// eq renders a PostgREST equality filter value.
func eq(val string) string { return "eq." + val }

// ilikeContains renders a case-insensitive substring filter value.
func ilikeContains(val string) string { return "ilike.*" + val + "*" }

// do performs one request against the upstream API and returns the
// response body and status. Transport-level failures and upstream
// 5xx responses are both reported as store.ErrUnavailable; the
// upstream body is never propagated to API clients.
func (s *Store) do(ctx context.Context, method, table string, f filters, body any) ([]byte, int, error) {
	u := s.base + "/" + table
	if q := f.encode(); q != "" {
		u += "?" + q
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Content-Type", "application/json")
	// Ask the API to echo affected rows back so writes double as
	// affected-row counts.
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if resp.StatusCode >= 500 {
		return nil, resp.StatusCode, fmt.Errorf("%w: upstream status %d", store.ErrUnavailable, resp.StatusCode)
	}
	return data, resp.StatusCode, nil
}
