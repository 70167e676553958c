package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/callsight/backend/internal/dialer"
)

const systemCampaignName = "System"

// campaignAccumulator carries the per-campaign number sets that only the
// final rollup cardinalities are derived from.
type campaignAccumulator struct {
	rollup       *CampaignRollup
	callers      map[string]struct{}
	destinations map[string]struct{}
	leads        map[int]struct{}
}

func newCampaignAccumulator(rollup *CampaignRollup) *campaignAccumulator {
	return &campaignAccumulator{
		rollup:       rollup,
		callers:      make(map[string]struct{}),
		destinations: make(map[string]struct{}),
		leads:        make(map[int]struct{}),
	}
}

func (s *ReportService) buildCampaignAnalytics(ctx context.Context, calls []dialer.Call, windowStart, windowEnd time.Time) (*ReportData, error) {
	campaigns, err := s.api.FetchCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch campaigns: %w", err)
	}

	accs := map[int]*campaignAccumulator{
		0: newCampaignAccumulator(&CampaignRollup{CampaignID: 0, DisplayName: systemCampaignName}),
	}
	summary := CampaignAnalyticsSummary{TotalCampaigns: len(campaigns)}
	for _, cp := range campaigns {
		accs[cp.ID] = newCampaignAccumulator(&CampaignRollup{
			CampaignID:  cp.ID,
			DisplayName: cp.DisplayName,
			Active:      cp.Active,
		})
		if cp.Active {
			summary.ActiveCampaigns++
		}
	}

	for _, call := range calls {
		acc := accs[call.CampaignID]
		if acc == nil {
			acc = newCampaignAccumulator(&CampaignRollup{
				CampaignID:  call.CampaignID,
				DisplayName: fmt.Sprintf("Campaign %d", call.CampaignID),
			})
			accs[call.CampaignID] = acc
		}
		r := acc.rollup

		r.TotalCalls++
		r.DurationSeconds += call.DurationSeconds
		switch call.Direction {
		case dialer.DirectionInbound:
			r.InboundCalls++
		case dialer.DirectionOutbound:
			r.OutboundCalls++
		}
		switch call.Disposition {
		case dialer.DispositionAnswered:
			r.Answered++
		case dialer.DispositionNoAnswer:
			r.Missed++
		case dialer.DispositionBusy:
			r.Busy++
		case dialer.DispositionCongestion:
			r.Congestion++
		}

		if call.SourceNumber != "" {
			acc.callers[call.SourceNumber] = struct{}{}
		}
		if call.DestinationNumber != "" {
			acc.destinations[call.DestinationNumber] = struct{}{}
		}
		if call.LeadID > 0 {
			acc.leads[call.LeadID] = struct{}{}
		}
	}

	leads, err := s.api.ResolveLeads(ctx, referencedLeadIDs(calls))
	if err != nil {
		return nil, fmt.Errorf("resolve leads: %w", err)
	}

	rows := make([]CampaignRollup, 0, len(accs))
	for _, acc := range accs {
		r := acc.rollup
		r.UniqueCallers = len(acc.callers)
		r.UniqueDestinations = len(acc.destinations)
		r.TotalLeads = len(acc.leads)
		for leadID := range acc.leads {
			lead, ok := leads[leadID]
			if !ok {
				continue
			}
			if convertedInWindow(lead, windowStart, windowEnd) {
				r.ConvertedLeads++
			}
		}
		r.AnswerRate = pct(r.Answered, r.TotalCalls)
		r.ConversionRate = pct(r.ConvertedLeads, r.TotalCalls)

		summary.TotalCalls += r.TotalCalls
		summary.AnsweredCalls += r.Answered
		summary.ConvertedLeads += r.ConvertedLeads
		rows = append(rows, *r)
	}
	summary.AnswerRate = pct(summary.AnsweredCalls, summary.TotalCalls)

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalCalls != rows[j].TotalCalls {
			return rows[i].TotalCalls > rows[j].TotalCalls
		}
		return rows[i].CampaignID < rows[j].CampaignID
	})

	return &ReportData{Data: rows, Summary: summary}, nil
}
