package dialer

import "time"

// Resource identifies one upstream collection.
type Resource string

const (
	ResourceCalls     Resource = "calls"
	ResourceLeads     Resource = "leads"
	ResourceAgents    Resource = "agents"
	ResourceCampaigns Resource = "campaigns"
)

// Direction of a call attempt.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Disposition is the outcome of a call attempt. Values outside the four
// known outcomes decode as DispositionUnknown.
type Disposition string

const (
	DispositionAnswered   Disposition = "answered"
	DispositionNoAnswer   Disposition = "noAnswer"
	DispositionBusy       Disposition = "busy"
	DispositionCongestion Disposition = "congestion"
	DispositionUnknown    Disposition = "unknown"
)

// Lead status vocabulary used by the upstream dialer. LeadStatusSuccess is the
// conversion sentinel.
const (
	LeadStatusNew      = "new"
	LeadStatusSuccess  = "success"
	LeadStatusInvalid  = "invalid"
	LeadStatusCallback = "callback"
)

// Call is one call detail record. Agent and campaign ID 0 mean the call was
// placed by the system (IVR, auto-dialer) rather than a named agent/campaign.
type Call struct {
	ID                  int         `json:"id"`
	AgentID             int         `json:"agentId"`
	CampaignID          int         `json:"campaignId"`
	LeadID              int         `json:"leadId,omitempty"`
	Direction           Direction   `json:"direction"`
	Disposition         Disposition `json:"disposition"`
	StartTime           time.Time   `json:"startTime"`
	DurationSeconds     int         `json:"durationSeconds"`
	ConversationSeconds int         `json:"conversationSeconds"`
	SourceNumber        string      `json:"sourceNumber"`
	DestinationNumber   string      `json:"destinationNumber"`
}

// Lead is a contact record tracked through the conversion funnel.
type Lead struct {
	ID               int       `json:"id"`
	CampaignID       int       `json:"campaignId"`
	Status           string    `json:"status"`
	LastModifiedTime time.Time `json:"lastModifiedTime"`
}

type Agent struct {
	ID          int    `json:"id"`
	DisplayName string `json:"displayName"`
}

type Campaign struct {
	ID          int    `json:"id"`
	DisplayName string `json:"displayName"`
	Active      bool   `json:"active"`
}

// Filters is the subset of upstream filter fields the reporting pipeline uses.
// Zero values are omitted from the encoded filter object.
type Filters struct {
	UserID     int    `json:"userId,omitempty"`
	CampaignID int    `json:"campaignId,omitempty"`
	Status     string `json:"status,omitempty"`
}

// IsZero reports whether no filter field is set.
func (f Filters) IsZero() bool {
	return f.UserID == 0 && f.CampaignID == 0 && f.Status == ""
}
