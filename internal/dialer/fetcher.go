package dialer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/callsight/backend/internal/config"
	"github.com/callsight/backend/pkg/logger"
	"golang.org/x/time/rate"
)

// pageFetcher is the slice of Client the fetcher needs. Tests substitute a
// scripted fake.
type pageFetcher interface {
	FetchPage(ctx context.Context, req PageRequest) (*Page, error)
}

// ThrottlePolicy controls how the fetcher reacts to upstream 429 responses.
// MaxAttempts 0 means retry until the caller's context expires.
type ThrottlePolicy struct {
	Cooldown    time.Duration
	MaxAttempts int
}

// Fetcher materializes full upstream collections page by page. Requests for
// the same resource are paced by a per-resource limiter so the shared
// per-minute ceiling of the dialer API is never exceeded; pages are never
// fetched concurrently for that reason.
type Fetcher struct {
	client   pageFetcher
	pageSize int
	limiters map[Resource]*rate.Limiter
	policy   ThrottlePolicy

	// sleep is the throttle cooldown wait, replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewFetcher(client *Client, cfg *config.DialerConfig) *Fetcher {
	return newFetcher(client, cfg)
}

func newFetcher(client pageFetcher, cfg *config.DialerConfig) *Fetcher {
	return &Fetcher{
		client:   client,
		pageSize: cfg.PageSize,
		limiters: map[Resource]*rate.Limiter{
			ResourceCalls:     newResourceLimiter(cfg.CallsPerMinute),
			ResourceLeads:     newResourceLimiter(cfg.LeadsPerMinute),
			ResourceAgents:    newResourceLimiter(cfg.AgentsPerMinute),
			ResourceCampaigns: newResourceLimiter(cfg.CampaignsPerMinute),
		},
		policy: ThrottlePolicy{
			Cooldown:    time.Duration(cfg.ThrottleCooldownSeconds) * time.Second,
			MaxAttempts: cfg.ThrottleMaxRetries,
		},
		sleep: sleepCtx,
	}
}

func newResourceLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// sortFor returns the server sort key requested for a resource. The upstream
// sorts most-recent-first for time-keyed collections.
func sortFor(resource Resource) (string, string) {
	switch resource {
	case ResourceCalls:
		return "startTime", "desc"
	case ResourceLeads:
		return "lastModifiedTime", "desc"
	default:
		return "id", "asc"
	}
}

// FetchAll walks every page of a collection and returns the raw records in
// server order. A throttled page is retried in place after the cooldown; any
// other failure ends pagination and whatever was accumulated is returned
// without error, since an undercount is acceptable for advisory reports. The
// only errors surfaced are context expiry and an exhausted throttle budget.
func (f *Fetcher) FetchAll(ctx context.Context, resource Resource, filters Filters) ([]json.RawMessage, error) {
	limiter := f.limiters[resource]
	sortBy, sortDir := sortFor(resource)

	var records []json.RawMessage
	page := 1
	attempts := 0

	for {
		if err := limiter.Wait(ctx); err != nil {
			return records, err
		}

		p, err := f.client.FetchPage(ctx, PageRequest{
			Resource:    resource,
			Page:        page,
			PageSize:    f.pageSize,
			SortBy:      sortBy,
			SortDir:     sortDir,
			Filters:     filters,
			IncludeMeta: true,
		})
		if errors.Is(err, ErrThrottled) {
			attempts++
			if f.policy.MaxAttempts > 0 && attempts >= f.policy.MaxAttempts {
				return records, fmt.Errorf("fetch %s page %d: throttled %d times", resource, page, attempts)
			}
			logger.Warnf("[Fetcher] %s page %d throttled, cooling down %v", resource, page, f.policy.Cooldown)
			if err := f.sleep(ctx, f.policy.Cooldown); err != nil {
				return records, err
			}
			continue
		}
		if err != nil {
			logger.Warnf("[Fetcher] %s pagination aborted at page %d, returning %d records: %v",
				resource, page, len(records), err)
			return records, nil
		}

		attempts = 0
		records = append(records, p.Records...)

		if len(p.Records) == 0 {
			break
		}
		if p.HasMeta() {
			if page >= p.PageCount {
				break
			}
		} else if len(p.Records) < f.pageSize {
			break
		}
		page++
	}

	return records, nil
}

// FetchCalls returns all calls matching the filters. Records that fail to
// decode are dropped with a warning rather than failing the whole fetch.
func (f *Fetcher) FetchCalls(ctx context.Context, filters Filters) ([]Call, error) {
	raw, err := f.FetchAll(ctx, ResourceCalls, filters)
	if err != nil {
		return nil, err
	}
	calls := make([]Call, 0, len(raw))
	for _, r := range raw {
		var c Call
		if err := json.Unmarshal(r, &c); err != nil {
			logger.Warnf("[Fetcher] dropping undecodable call record: %v", err)
			continue
		}
		if c.Disposition == "" {
			c.Disposition = DispositionUnknown
		}
		calls = append(calls, c)
	}
	return calls, nil
}

func (f *Fetcher) FetchAgents(ctx context.Context) ([]Agent, error) {
	raw, err := f.FetchAll(ctx, ResourceAgents, Filters{})
	if err != nil {
		return nil, err
	}
	agents := make([]Agent, 0, len(raw))
	for _, r := range raw {
		var a Agent
		if err := json.Unmarshal(r, &a); err != nil {
			logger.Warnf("[Fetcher] dropping undecodable agent record: %v", err)
			continue
		}
		agents = append(agents, a)
	}
	return agents, nil
}

func (f *Fetcher) FetchCampaigns(ctx context.Context) ([]Campaign, error) {
	raw, err := f.FetchAll(ctx, ResourceCampaigns, Filters{})
	if err != nil {
		return nil, err
	}
	campaigns := make([]Campaign, 0, len(raw))
	for _, r := range raw {
		var cp Campaign
		if err := json.Unmarshal(r, &cp); err != nil {
			logger.Warnf("[Fetcher] dropping undecodable campaign record: %v", err)
			continue
		}
		campaigns = append(campaigns, cp)
	}
	return campaigns, nil
}
