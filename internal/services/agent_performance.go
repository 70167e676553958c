package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/callsight/backend/internal/dialer"
)

const (
	// rankingMinCalls is the eligibility floor for the top-performer ranking.
	rankingMinCalls  = 5
	topPerformersCap = 5

	systemAgentName = "System/Automated"
)

func (s *ReportService) buildAgentPerformance(ctx context.Context, calls []dialer.Call, windowStart, windowEnd time.Time) (*ReportData, error) {
	agents, err := s.api.FetchAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch agents: %w", err)
	}

	// Every known agent gets a row even with zero calls, plus the synthetic
	// id-0 row for system-placed calls.
	rollups := map[int]*AgentRollup{
		0: {AgentID: 0, DisplayName: systemAgentName},
	}
	for _, a := range agents {
		rollups[a.ID] = &AgentRollup{AgentID: a.ID, DisplayName: a.DisplayName}
	}

	// agentLeads tracks which distinct leads each agent called in the window.
	// A lead referenced by calls from several agents counts for each of them.
	agentLeads := make(map[int]map[int]struct{})

	for _, call := range calls {
		r := rollups[call.AgentID]
		if r == nil {
			// Call attributed to an agent missing from the reference data.
			r = &AgentRollup{AgentID: call.AgentID, DisplayName: fmt.Sprintf("Agent %d", call.AgentID)}
			rollups[call.AgentID] = r
		}

		r.TotalCalls++
		r.DurationSeconds += call.DurationSeconds
		r.ConversationSeconds += call.ConversationSeconds
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
			r.NoAnswer++
		case dialer.DispositionBusy:
			r.Busy++
		case dialer.DispositionCongestion:
			r.Congestion++
		}

		if call.LeadID > 0 {
			if agentLeads[call.AgentID] == nil {
				agentLeads[call.AgentID] = make(map[int]struct{})
			}
			agentLeads[call.AgentID][call.LeadID] = struct{}{}
		}
	}

	leads, err := s.api.ResolveLeads(ctx, referencedLeadIDs(calls))
	if err != nil {
		return nil, fmt.Errorf("resolve leads: %w", err)
	}

	summary := AgentPerformanceSummary{TotalAgents: len(agents)}

	for agentID, leadIDs := range agentLeads {
		r := rollups[agentID]
		r.LeadsContacted = len(leadIDs)
		for leadID := range leadIDs {
			lead, ok := leads[leadID]
			if !ok {
				// Unresolvable lead: unknown status, never a conversion.
				continue
			}
			if convertedInWindow(lead, windowStart, windowEnd) {
				r.ConvertedLeads++
			}
		}
	}

	for _, r := range rollups {
		r.AnswerRate = pct(r.Answered, r.TotalCalls)
		// Calls-denominator by intent: this measures conversions per call
		// placed, not the share of leads that converted.
		r.ConversionRate = pct(r.ConvertedLeads, r.TotalCalls)
		summary.TotalCalls += r.TotalCalls
		summary.AnsweredCalls += r.Answered
		summary.ConvertedLeads += r.ConvertedLeads
	}
	summary.AnswerRate = pct(summary.AnsweredCalls, summary.TotalCalls)

	rankAgents(rollups)

	rows := make([]AgentRollup, 0, len(rollups))
	for _, r := range rollups {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalCalls != rows[j].TotalCalls {
			return rows[i].TotalCalls > rows[j].TotalCalls
		}
		return rows[i].AgentID < rows[j].AgentID
	})

	summary.TopPerformers = topPerformers(rows)

	return &ReportData{Data: rows, Summary: summary}, nil
}

// rankAgents assigns ranks to eligible agents: at least rankingMinCalls calls,
// at least one conversion, and a real agent ID. Conversion rate descending,
// ties broken by fewer total calls (fewer calls per conversion wins).
func rankAgents(rollups map[int]*AgentRollup) {
	var eligible []*AgentRollup
	for _, r := range rollups {
		if r.AgentID != 0 && r.TotalCalls >= rankingMinCalls && r.ConvertedLeads > 0 {
			eligible = append(eligible, r)
		}
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].ConversionRate != eligible[j].ConversionRate {
			return eligible[i].ConversionRate > eligible[j].ConversionRate
		}
		if eligible[i].TotalCalls != eligible[j].TotalCalls {
			return eligible[i].TotalCalls < eligible[j].TotalCalls
		}
		return eligible[i].AgentID < eligible[j].AgentID
	})

	for i, r := range eligible {
		rank := i + 1
		r.Rank = &rank
	}
}

func topPerformers(rows []AgentRollup) []AgentRollup {
	var top []AgentRollup
	for _, r := range rows {
		if r.Rank != nil {
			top = append(top, r)
		}
	}
	sort.Slice(top, func(i, j int) bool { return *top[i].Rank < *top[j].Rank })
	if len(top) > topPerformersCap {
		top = top[:topPerformersCap]
	}
	return top
}
