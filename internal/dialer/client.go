package dialer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/callsight/backend/internal/config"
)

// ErrThrottled is returned by FetchPage when the upstream API signals a
// rate-limit overrun. The fetcher retries the same page after a cooldown.
var ErrThrottled = errors.New("dialer: upstream rate limit exceeded")

// Client issues raw page requests against the dialer API and normalizes every
// response into a canonical Page before it enters the pipeline. The upstream
// answers either with a bare JSON array or with an envelope keyed by "data" or
// by the resource name, optionally carrying pagination metadata.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

func NewClient(cfg *config.DialerConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiToken:   cfg.APIToken,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// PageRequest describes one upstream page request.
type PageRequest struct {
	Resource    Resource
	Page        int
	PageSize    int
	SortBy      string
	SortDir     string
	Filters     Filters
	IncludeMeta bool
}

// Page is the canonical decoded form of one upstream response. PageCount and
// Total are zero when the server sent no pagination metadata.
type Page struct {
	Records   []json.RawMessage
	PageCount int
	Total     int
}

// HasMeta reports whether the server included pagination metadata.
func (p *Page) HasMeta() bool { return p.PageCount > 0 }

type pageMeta struct {
	Pagination struct {
		Page      int `json:"page"`
		PageCount int `json:"pageCount"`
		Total     int `json:"total"`
	} `json:"pagination"`
}

// FetchPage requests one page and decodes it. A 429 response maps to
// ErrThrottled; any other non-2xx status or transport fault is returned as a
// plain error, which the fetcher treats as end of pagination.
func (c *Client) FetchPage(ctx context.Context, req PageRequest) (*Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("pageSize", strconv.Itoa(req.PageSize))
	if req.SortBy != "" {
		q.Set("sortBy", req.SortBy)
		q.Set("sortDir", req.SortDir)
	}
	if !req.Filters.IsZero() {
		filterJSON, err := json.Marshal(req.Filters)
		if err != nil {
			return nil, fmt.Errorf("encode filters: %w", err)
		}
		q.Set("filter", string(filterJSON))
	}
	if req.IncludeMeta {
		q.Set("includeMeta", "true")
	}

	reqURL := fmt.Sprintf("%s/api/%s?%s", c.baseURL, req.Resource, q.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, ErrThrottled
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("dialer API returned %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return decodePage(req.Resource, body)
}

// decodePage normalizes the three response shapes the upstream is known to
// produce: a bare array, {"data": [...]}, or {"<resource>": [...]}, the latter
// two optionally with meta.pagination.
func decodePage(resource Resource, body []byte) (*Page, error) {
	trimmed := firstNonSpace(body)

	if trimmed == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, fmt.Errorf("decode %s page: %w", resource, err)
		}
		return &Page{Records: records}, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s envelope: %w", resource, err)
	}

	raw, ok := envelope["data"]
	if !ok {
		raw, ok = envelope[string(resource)]
	}
	if !ok {
		return nil, fmt.Errorf("decode %s envelope: no data or %q key", resource, resource)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s records: %w", resource, err)
	}

	page := &Page{Records: records}
	if rawMeta, ok := envelope["meta"]; ok {
		var meta pageMeta
		if err := json.Unmarshal(rawMeta, &meta); err == nil {
			page.PageCount = meta.Pagination.PageCount
			page.Total = meta.Pagination.Total
		}
	}
	return page, nil
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return c
	}
	return 0
}
