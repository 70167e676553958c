package services

import (
	"context"
	"testing"
	"time"

	"github.com/callsight/backend/internal/dialer"
)

func agentRow(t *testing.T, report *ReportData, agentID int) *AgentRollup {
	t.Helper()
	rows := report.Data.([]AgentRollup)
	for i := range rows {
		if rows[i].AgentID == agentID {
			return &rows[i]
		}
	}
	t.Fatalf("no row for agent %d", agentID)
	return nil
}

func TestAgentPerformance_SharedLeadCountsForEveryCaller(t *testing.T) {
	api := &fakeDialerAPI{
		agents: []dialer.Agent{
			{ID: 7, DisplayName: "Ana"},
			{ID: 9, DisplayName: "Luis"},
		},
		calls: []dialer.Call{
			{ID: 1, AgentID: 7, LeadID: 42, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)},
			{ID: 2, AgentID: 9, LeadID: 42, Disposition: dialer.DispositionAnswered, StartTime: at(1, 11)},
		},
		leads: map[int]dialer.Lead{
			42: {ID: 42, Status: dialer.LeadStatusSuccess, LastModifiedTime: at(1, 12)},
		},
	}
	svc := newTestService(api)

	report, err := svc.GenerateReport(context.Background(), "agent-performance", "2026-03-01", "2026-03-01")
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	for _, id := range []int{7, 9} {
		r := agentRow(t, report, id)
		if r.LeadsContacted != 1 {
			t.Errorf("agent %d LeadsContacted = %d, expected 1", id, r.LeadsContacted)
		}
		if r.ConvertedLeads != 1 {
			t.Errorf("agent %d ConvertedLeads = %d, the shared lead counts for every caller", id, r.ConvertedLeads)
		}
	}
}

func TestAgentPerformance_ConversionNeedsSuccessInsideWindow(t *testing.T) {
	api := &fakeDialerAPI{
		agents: []dialer.Agent{{ID: 7, DisplayName: "Ana"}},
		calls: []dialer.Call{
			{ID: 1, AgentID: 7, LeadID: 10, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)},
			{ID: 2, AgentID: 7, LeadID: 11, Disposition: dialer.DispositionAnswered, StartTime: at(1, 10)},
			{ID: 3, AgentID: 7, LeadID: 12, Disposition: dialer.DispositionAnswered, StartTime: at(1, 11)},
		},
		leads: map[int]dialer.Lead{
			// Success but last modified after the window: not a conversion.
			10: {ID: 10, Status: dialer.LeadStatusSuccess, LastModifiedTime: at(5, 9)},
			// Modified in window but not success.
			11: {ID: 11, Status: dialer.LeadStatusCallback, LastModifiedTime: at(1, 12)},
			// Both conditions hold.
			12: {ID: 12, Status: dialer.LeadStatusSuccess, LastModifiedTime: at(1, 23)},
		},
	}
	svc := newTestService(api)

	report, err := svc.GenerateReport(context.Background(), "agent-performance", "2026-03-01", "2026-03-01")
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	r := agentRow(t, report, 7)
	if r.LeadsContacted != 3 {
		t.Errorf("LeadsContacted = %d, expected 3", r.LeadsContacted)
	}
	if r.ConvertedLeads != 1 {
		t.Errorf("ConvertedLeads = %d, expected only lead 12 to convert", r.ConvertedLeads)
	}
}

func TestAgentPerformance_ConversionInFinalSecondOfWindow(t *testing.T) {
	api := &fakeDialerAPI{
		agents: []dialer.Agent{{ID: 7, DisplayName: "Ana"}},
		calls: []dialer.Call{
			{ID: 1, AgentID: 7, LeadID: 10, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)},
		},
		leads: map[int]dialer.Lead{
			10: {ID: 10, Status: dialer.LeadStatusSuccess,
				LastModifiedTime: time.Date(2026, 3, 1, 23, 59, 59, 500_000_000, time.UTC)},
		},
	}
	svc := newTestService(api)

	report, err := svc.GenerateReport(context.Background(), "agent-performance", "2026-03-01", "2026-03-01")
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	if r := agentRow(t, report, 7); r.ConvertedLeads != 1 {
		t.Errorf("ConvertedLeads = %d, a sub-second timestamp inside the last day must still convert", r.ConvertedLeads)
	}
}

func TestAgentPerformance_RankingEligibility(t *testing.T) {
	calls := []dialer.Call{
		// Agent 5: four calls, all converting. High rate but under the floor.
		{ID: 1, AgentID: 5, LeadID: 50, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)},
		{ID: 2, AgentID: 5, LeadID: 51, Disposition: dialer.DispositionAnswered, StartTime: at(1, 10)},
		{ID: 3, AgentID: 5, LeadID: 52, Disposition: dialer.DispositionAnswered, StartTime: at(1, 11)},
		{ID: 4, AgentID: 5, LeadID: 53, Disposition: dialer.DispositionAnswered, StartTime: at(1, 12)},
		// Agent 0: system calls never rank regardless of volume.
		{ID: 10, AgentID: 0, LeadID: 60, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)},
		{ID: 11, AgentID: 0, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)},
		{ID: 12, AgentID: 0, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)},
		{ID: 13, AgentID: 0, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)},
		{ID: 14, AgentID: 0, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)},
		// Agent 6: five calls, one conversion. Eligible.
		{ID: 20, AgentID: 6, LeadID: 70, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)},
		{ID: 21, AgentID: 6, Disposition: dialer.DispositionNoAnswer, StartTime: at(1, 10)},
		{ID: 22, AgentID: 6, Disposition: dialer.DispositionNoAnswer, StartTime: at(1, 11)},
		{ID: 23, AgentID: 6, Disposition: dialer.DispositionNoAnswer, StartTime: at(1, 12)},
		{ID: 24, AgentID: 6, Disposition: dialer.DispositionNoAnswer, StartTime: at(1, 13)},
	}
	api := &fakeDialerAPI{
		agents: []dialer.Agent{{ID: 5, DisplayName: "Eva"}, {ID: 6, DisplayName: "Tom"}},
		calls:  calls,
		leads: map[int]dialer.Lead{
			50: {ID: 50, Status: dialer.LeadStatusSuccess, LastModifiedTime: at(1, 12)},
			51: {ID: 51, Status: dialer.LeadStatusSuccess, LastModifiedTime: at(1, 12)},
			52: {ID: 52, Status: dialer.LeadStatusSuccess, LastModifiedTime: at(1, 12)},
			53: {ID: 53, Status: dialer.LeadStatusSuccess, LastModifiedTime: at(1, 12)},
			60: {ID: 60, Status: dialer.LeadStatusSuccess, LastModifiedTime: at(1, 12)},
			70: {ID: 70, Status: dialer.LeadStatusSuccess, LastModifiedTime: at(1, 12)},
		},
	}
	svc := newTestService(api)

	report, err := svc.GenerateReport(context.Background(), "agent-performance", "2026-03-01", "2026-03-01")
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	if r := agentRow(t, report, 5); r.Rank != nil {
		t.Errorf("agent 5 has %d calls, under the floor, but got rank %d", r.TotalCalls, *r.Rank)
	}
	if r := agentRow(t, report, 0); r.Rank != nil {
		t.Errorf("system row must never rank, got rank %d", *r.Rank)
	}
	r := agentRow(t, report, 6)
	if r.Rank == nil || *r.Rank != 1 {
		t.Fatalf("agent 6 should hold rank 1, got %v", r.Rank)
	}

	summary := report.Summary.(AgentPerformanceSummary)
	if len(summary.TopPerformers) != 1 || summary.TopPerformers[0].AgentID != 6 {
		t.Errorf("TopPerformers = %+v, expected only agent 6", summary.TopPerformers)
	}
}

func TestAgentPerformance_TieBrokenByFewerCalls(t *testing.T) {
	var calls []dialer.Call
	// Agent 1: 10 calls, 1 conversion. Agent 2: 20 calls, 2 conversions.
	// Identical 10% rate; the agent spending fewer calls per conversion wins.
	for i := 0; i < 10; i++ {
		c := dialer.Call{ID: 100 + i, AgentID: 1, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)}
		if i == 0 {
			c.LeadID = 101
		}
		calls = append(calls, c)
	}
	for i := 0; i < 20; i++ {
		c := dialer.Call{ID: 200 + i, AgentID: 2, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)}
		if i < 2 {
			c.LeadID = 201 + i
		}
		calls = append(calls, c)
	}
	api := &fakeDialerAPI{
		agents: []dialer.Agent{{ID: 1, DisplayName: "Ana"}, {ID: 2, DisplayName: "Bo"}},
		calls:  calls,
		leads: map[int]dialer.Lead{
			101: {ID: 101, Status: dialer.LeadStatusSuccess, LastModifiedTime: at(1, 12)},
			201: {ID: 201, Status: dialer.LeadStatusSuccess, LastModifiedTime: at(1, 12)},
			202: {ID: 202, Status: dialer.LeadStatusSuccess, LastModifiedTime: at(1, 12)},
		},
	}
	svc := newTestService(api)

	report, err := svc.GenerateReport(context.Background(), "agent-performance", "2026-03-01", "2026-03-01")
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	a1 := agentRow(t, report, 1)
	a2 := agentRow(t, report, 2)
	if a1.ConversionRate != a2.ConversionRate {
		t.Fatalf("rates differ: %v vs %v", a1.ConversionRate, a2.ConversionRate)
	}
	if a1.Rank == nil || a2.Rank == nil {
		t.Fatal("both agents are eligible and must rank")
	}
	if *a1.Rank != 1 || *a2.Rank != 2 {
		t.Errorf("ranks = %d, %d; expected the 10-call agent first", *a1.Rank, *a2.Rank)
	}
}

func TestAgentPerformance_ZeroCallAgentsStillListed(t *testing.T) {
	api := &fakeDialerAPI{
		agents: []dialer.Agent{{ID: 3, DisplayName: "Idle"}},
	}
	svc := newTestService(api)

	report, err := svc.GenerateReport(context.Background(), "agent-performance", "2026-03-01", "2026-03-01")
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	r := agentRow(t, report, 3)
	if r.TotalCalls != 0 || r.ConversionRate != 0 || r.AnswerRate != 0 {
		t.Errorf("idle agent should carry zeros, got %+v", r)
	}
	if r.Rank != nil {
		t.Error("idle agent must not rank")
	}
}

func TestAgentPerformance_UnknownAgentGetsPlaceholderRow(t *testing.T) {
	api := &fakeDialerAPI{
		calls: []dialer.Call{
			{ID: 1, AgentID: 77, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)},
		},
	}
	svc := newTestService(api)

	report, err := svc.GenerateReport(context.Background(), "agent-performance", "2026-03-01", "2026-03-01")
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	r := agentRow(t, report, 77)
	if r.DisplayName != "Agent 77" {
		t.Errorf("DisplayName = %q, expected placeholder", r.DisplayName)
	}
	if r.TotalCalls != 1 {
		t.Errorf("TotalCalls = %d, expected 1", r.TotalCalls)
	}
}
