package services

import (
	"context"
	"fmt"
	"time"

	"github.com/callsight/backend/internal/dialer"
)

// seedDailyBuckets creates one zero-filled bucket per calendar day in
// [start, end] inclusive, so days without calls still appear in the report.
func seedDailyBuckets(start, end time.Time) []*DailyBucket {
	var buckets []*DailyBucket
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		buckets = append(buckets, &DailyBucket{Date: day.Format(dateLayout)})
	}
	return buckets
}

func (s *ReportService) buildCallSummary(ctx context.Context, calls []dialer.Call, start, end time.Time) (*ReportData, error) {
	buckets := seedDailyBuckets(start, end)
	byDate := make(map[string]*DailyBucket, len(buckets))
	for _, b := range buckets {
		byDate[b.Date] = b
	}

	totals := CallSummaryTotals{LeadStatusBreakdown: make(map[string]int)}

	for _, call := range calls {
		bucket := byDate[call.StartTime.Format(dateLayout)]
		if bucket == nil {
			continue
		}

		bucket.TotalCalls++
		bucket.DurationSeconds += call.DurationSeconds
		bucket.ConversationSeconds += call.ConversationSeconds
		totals.TotalCalls++
		totals.TotalDurationSeconds += call.DurationSeconds
		totals.TotalConversationSecs += call.ConversationSeconds

		var dir *DirectionStats
		switch call.Direction {
		case dialer.DirectionInbound:
			dir = &bucket.Inbound
			totals.InboundCalls++
		case dialer.DirectionOutbound:
			dir = &bucket.Outbound
			totals.OutboundCalls++
		}
		if dir != nil {
			dir.Total++
			dir.DurationSeconds += call.DurationSeconds
		}

		switch call.Disposition {
		case dialer.DispositionAnswered:
			bucket.Answered++
			totals.AnsweredCalls++
			if dir != nil {
				dir.Answered++
			}
		case dialer.DispositionNoAnswer:
			bucket.NoAnswer++
			totals.NoAnswerCalls++
			if dir != nil {
				dir.NoAnswer++
			}
		case dialer.DispositionBusy:
			bucket.Busy++
		case dialer.DispositionCongestion:
			bucket.Congestion++
		}
	}

	for _, b := range buckets {
		b.AnswerRate = pct(b.Answered, b.TotalCalls)
	}

	// The lead status breakdown is conditioned on call activity: only leads
	// referenced by in-range calls are counted, never the whole lead table.
	leadIDs := referencedLeadIDs(calls)
	leads, err := s.api.ResolveLeads(ctx, leadIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve leads: %w", err)
	}
	for _, lead := range leads {
		totals.LeadStatusBreakdown[lead.Status]++
	}
	totals.LeadsReferencedByCalls = len(leadIDs)

	totals.AnswerRate = pct(totals.AnsweredCalls, totals.TotalCalls)
	if totals.TotalCalls > 0 {
		totals.AvgDurationSeconds = float64(totals.TotalDurationSeconds) / float64(totals.TotalCalls)
	}

	return &ReportData{Data: buckets, Summary: totals}, nil
}
