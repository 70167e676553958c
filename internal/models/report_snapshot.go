package models

import "time"

// ReportSnapshot is a persisted copy of one computed report. The full typed
// payload is stored as JSON; the headline numbers are broken out into columns
// so snapshots can be listed and compared without decoding the payload.
type ReportSnapshot struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	JobID      string `gorm:"size:36;index" json:"job_id"`
	ReportType string `gorm:"size:32;not null;index" json:"report_type"` // call-summary, agent-performance, campaign-analytics
	StartDate  string `gorm:"size:10;not null" json:"start_date"`
	EndDate    string `gorm:"size:10;not null" json:"end_date"`

	TotalCalls    int     `json:"total_calls"`
	AnsweredCalls int     `json:"answered_calls"`
	AnswerRate    float64 `json:"answer_rate"`

	Payload string `gorm:"type:text" json:"payload"`

	Trigger     string    `gorm:"size:16;default:manual" json:"trigger"` // manual, scheduled, api
	GeneratedAt time.Time `json:"generated_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ReportSnapshot) TableName() string { return "report_snapshots" }
