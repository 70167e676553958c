package services

import "time"

// ReportType selects one of the three report shapes.
type ReportType string

const (
	ReportCallSummary       ReportType = "call-summary"
	ReportAgentPerformance  ReportType = "agent-performance"
	ReportCampaignAnalytics ReportType = "campaign-analytics"
)

// ParseReportType validates a report type string from the API surface.
func ParseReportType(s string) (ReportType, bool) {
	switch ReportType(s) {
	case ReportCallSummary, ReportAgentPerformance, ReportCampaignAnalytics:
		return ReportType(s), true
	}
	return "", false
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ReportData is the tagged union handed to the rendering layer. Data and
// Summary shapes depend on ReportType.
type ReportData struct {
	ReportType  ReportType  `json:"reportType"`
	DateRange   DateRange   `json:"dateRange"`
	Data        interface{} `json:"data"`
	Summary     interface{} `json:"summary"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// DirectionStats counts calls of one direction inside a bucket.
type DirectionStats struct {
	Total           int `json:"total"`
	Answered        int `json:"answered"`
	NoAnswer        int `json:"noAnswer"`
	DurationSeconds int `json:"durationSeconds"`
}

// DailyBucket holds one calendar day of call counters. Buckets exist for
// every day of the requested range, zero-filled when no calls landed on them.
// Calls with a disposition outside the four known values count toward
// TotalCalls only.
type DailyBucket struct {
	Date                string         `json:"date"`
	TotalCalls          int            `json:"totalCalls"`
	Answered            int            `json:"answered"`
	NoAnswer            int            `json:"noAnswer"`
	Busy                int            `json:"busy"`
	Congestion          int            `json:"congestion"`
	Inbound             DirectionStats `json:"inbound"`
	Outbound            DirectionStats `json:"outbound"`
	DurationSeconds     int            `json:"durationSeconds"`
	ConversationSeconds int            `json:"conversationSeconds"`
	AnswerRate          float64        `json:"answerRate"`
}

// CallSummaryTotals is the summary block of a call-summary report.
type CallSummaryTotals struct {
	TotalCalls              int            `json:"totalCalls"`
	InboundCalls            int            `json:"inboundCalls"`
	OutboundCalls           int            `json:"outboundCalls"`
	AnsweredCalls           int            `json:"answeredCalls"`
	NoAnswerCalls           int            `json:"noAnswerCalls"`
	AnswerRate              float64        `json:"answerRate"`
	TotalDurationSeconds    int            `json:"totalDurationSeconds"`
	AvgDurationSeconds      float64        `json:"avgDurationSeconds"`
	TotalConversationSecs   int            `json:"totalConversationSeconds"`
	LeadStatusBreakdown     map[string]int `json:"leadStatusBreakdown"`
	LeadsReferencedByCalls  int            `json:"leadsReferencedByCalls"`
}

// AgentRollup is one row of the agent-performance table. AgentID 0 is the
// synthetic System/Automated row for unattributed calls; it never ranks.
// Rank is nil for agents that miss the eligibility floor.
type AgentRollup struct {
	AgentID             int     `json:"agentId"`
	DisplayName         string  `json:"displayName"`
	TotalCalls          int     `json:"totalCalls"`
	InboundCalls        int     `json:"inboundCalls"`
	OutboundCalls       int     `json:"outboundCalls"`
	Answered            int     `json:"answered"`
	NoAnswer            int     `json:"noAnswer"`
	Busy                int     `json:"busy"`
	Congestion          int     `json:"congestion"`
	DurationSeconds     int     `json:"durationSeconds"`
	ConversationSeconds int     `json:"conversationSeconds"`
	AnswerRate          float64 `json:"answerRate"`
	LeadsContacted      int     `json:"leadsContacted"`
	ConvertedLeads      int     `json:"convertedLeads"`
	ConversionRate      float64 `json:"conversionRate"`
	Rank                *int    `json:"rank"`
}

type AgentPerformanceSummary struct {
	TotalAgents    int           `json:"totalAgents"`
	TotalCalls     int           `json:"totalCalls"`
	AnsweredCalls  int           `json:"answeredCalls"`
	AnswerRate     float64       `json:"answerRate"`
	ConvertedLeads int           `json:"convertedLeads"`
	TopPerformers  []AgentRollup `json:"topPerformers"`
}

// CampaignRollup is one row of the campaign-analytics table. CampaignID 0 is
// the synthetic System row. UniqueCallers/UniqueDestinations are set
// cardinalities over the window, not running totals.
type CampaignRollup struct {
	CampaignID         int     `json:"campaignId"`
	DisplayName        string  `json:"displayName"`
	Active             bool    `json:"active"`
	TotalCalls         int     `json:"totalCalls"`
	InboundCalls       int     `json:"inboundCalls"`
	OutboundCalls      int     `json:"outboundCalls"`
	Answered           int     `json:"answered"`
	Missed             int     `json:"missed"`
	Busy               int     `json:"busy"`
	Congestion         int     `json:"congestion"`
	DurationSeconds    int     `json:"durationSeconds"`
	UniqueCallers      int     `json:"uniqueCallers"`
	UniqueDestinations int     `json:"uniqueDestinations"`
	TotalLeads         int     `json:"totalLeads"`
	ConvertedLeads     int     `json:"convertedLeads"`
	ConversionRate     float64 `json:"conversionRate"`
	AnswerRate         float64 `json:"answerRate"`
}

type CampaignAnalyticsSummary struct {
	TotalCampaigns  int     `json:"totalCampaigns"`
	ActiveCampaigns int     `json:"activeCampaigns"`
	TotalCalls      int     `json:"totalCalls"`
	AnsweredCalls   int     `json:"answeredCalls"`
	AnswerRate      float64 `json:"answerRate"`
	ConvertedLeads  int     `json:"convertedLeads"`
}
