package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/callsight/backend/internal/dialer"
	"github.com/callsight/backend/pkg/logger"
)

const dateLayout = "2006-01-02"

// DialerAPI is the slice of the dialer fetcher the aggregation engine
// consumes. Tests substitute a scripted fake.
type DialerAPI interface {
	FetchCalls(ctx context.Context, filters dialer.Filters) ([]dialer.Call, error)
	FetchAgents(ctx context.Context) ([]dialer.Agent, error)
	FetchCampaigns(ctx context.Context) ([]dialer.Campaign, error)
	ResolveLeads(ctx context.Context, ids map[int]struct{}) (map[int]dialer.Lead, error)
}

// ReportService is the aggregation engine. One computation runs the steps
// fetch, bucket, resolve leads, fold, derive; any step failing aborts the
// whole report. Results are memoized in the report cache so a generate
// followed by an export reuses one computation.
type ReportService struct {
	api   DialerAPI
	cache *ReportCache
}

func NewReportService(api DialerAPI, cache *ReportCache) *ReportService {
	return &ReportService{api: api, cache: cache}
}

// Cache returns the cache instance owned by this service, for the inspection
// endpoints.
func (s *ReportService) Cache() *ReportCache {
	return s.cache
}

// GenerateReport computes one report for the closed date interval
// [startDate, endDate]. Date strings are compared verbatim for cache hits, so
// callers must pass identical representations to reuse a computation.
func (s *ReportService) GenerateReport(ctx context.Context, reportType, startDate, endDate string) (*ReportData, error) {
	rt, ok := ParseReportType(reportType)
	if !ok {
		return nil, newInvalidRequest(fmt.Sprintf("unknown report type: %q", reportType))
	}

	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, newInvalidRequest("invalid start_date, expected YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, newInvalidRequest("invalid end_date, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, newInvalidRequest("end_date is before start_date")
	}

	key := CacheKey(rt, startDate, endDate)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	// The upstream filter capability cannot express the required closed
	// interval, so calls are fetched and filtered client-side.
	calls, err := s.api.FetchCalls(ctx, dialer.Filters{})
	if err != nil {
		return nil, newDependencyFailure(fmt.Sprintf("fetch calls: %v", err))
	}
	// windowEnd is the first instant past the closed interval, so every
	// timestamp inside endDate counts, sub-second ones included.
	windowEnd := end.AddDate(0, 0, 1)
	calls = filterByWindow(calls, start, windowEnd)

	logger.Infof("[Report] %s %s..%s: %d calls in window", rt, startDate, endDate, len(calls))

	var report *ReportData
	switch rt {
	case ReportCallSummary:
		report, err = s.buildCallSummary(ctx, calls, start, end)
	case ReportAgentPerformance:
		report, err = s.buildAgentPerformance(ctx, calls, start, windowEnd)
	case ReportCampaignAnalytics:
		report, err = s.buildCampaignAnalytics(ctx, calls, start, windowEnd)
	}
	if err != nil {
		return nil, newDependencyFailure(err.Error())
	}

	report.ReportType = rt
	report.DateRange = DateRange{Start: startDate, End: endDate}
	report.GeneratedAt = time.Now()

	s.cache.Set(key, report, 0)
	return report, nil
}

// filterByWindow keeps calls with start ≤ t < end, where end is the first
// instant past the window.
func filterByWindow(calls []dialer.Call, start, end time.Time) []dialer.Call {
	filtered := make([]dialer.Call, 0, len(calls))
	for _, c := range calls {
		if c.StartTime.Before(start) || !c.StartTime.Before(end) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

// referencedLeadIDs collects the distinct lead IDs the in-window calls point
// at. Only this subset is ever resolved against the lead collection.
func referencedLeadIDs(calls []dialer.Call) map[int]struct{} {
	ids := make(map[int]struct{})
	for _, c := range calls {
		if c.LeadID > 0 {
			ids[c.LeadID] = struct{}{}
		}
	}
	return ids
}

// convertedInWindow reports whether a lead counts as a conversion for the
// report window: success status and last modified inside [start, end),
// independent of when its linked calls happened.
func convertedInWindow(lead dialer.Lead, start, end time.Time) bool {
	if lead.Status != dialer.LeadStatusSuccess {
		return false
	}
	return !lead.LastModifiedTime.Before(start) && lead.LastModifiedTime.Before(end)
}

// pct returns n/d*100 rounded to two decimals, or 0 when d is zero.
func pct(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(d)*10000) / 100
}
