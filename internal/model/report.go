package model

import "time"

// ReportStatus tracks a report through moderation.
type ReportStatus string

const (
	StatusPending  ReportStatus = "pending"
	StatusReviewed ReportStatus = "reviewed"
	StatusResolved ReportStatus = "resolved"
)

// Severity levels accepted by the backend. The submission form only offers
// low, medium and high.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// ReportUpdate is one entry of a report's progress log.
type ReportUpdate struct {
	ID        string    `json:"_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// Report is an incident report.
type Report struct {
	ID           string         `json:"_id"`
	Title        string         `json:"title,omitempty"`
	Type         string         `json:"type,omitempty"`
	IncidentType string         `json:"incidentType,omitempty"`
	Severity     string         `json:"severity"`
	Description  string         `json:"description"`
	Location     string         `json:"location,omitempty"`
	Platform     string         `json:"platform,omitempty"`
	Evidence     string         `json:"evidence,omitempty"`
	YourRole     string         `json:"yourRole,omitempty"`
	Date         string         `json:"date,omitempty"`
	IsAnonymous  bool           `json:"isAnonymous"`
	Flagged      bool           `json:"flagged"`
	Status       ReportStatus   `json:"status"`
	CreatedBy    string         `json:"createdBy,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	Reactions    []Reaction     `json:"reactions"`
	Updates      []ReportUpdate `json:"updates"`
}

// Kind returns the incident type, whichever field carries it.
func (r *Report) Kind() string {
	if r.IncidentType != "" {
		return r.IncidentType
	}
	return r.Type
}

// ReportInput is the anonymous incident submission form.
type ReportInput struct {
	Title        string `json:"title,omitempty" validate:"max=200"`
	IncidentType string `json:"incidentType" validate:"required"`
	Platform     string `json:"platform" validate:"required"`
	Description  string `json:"description" validate:"required,min=10,max=5000"`
	Date         string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Severity     string `json:"severity" validate:"required,oneof=low medium high"`
	YourRole     string `json:"yourRole" validate:"required,oneof=target bystander reporter other"`
	Location     string `json:"location,omitempty"`
	Evidence     string `json:"evidence,omitempty"`
	Anonymous    bool   `json:"anonymous"`
	Flagged      bool   `json:"flagged"`
}

// ProgressInput carries a moderator's progress note.
type ProgressInput struct {
	Message string `json:"message" validate:"required,max=2000"`
}
