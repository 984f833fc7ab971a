package models

import "time"

// ProjectStatus is the review state of a project
type ProjectStatus string

const (
	StatusIncomplete       ProjectStatus = "incomplete requirements"
	StatusUnderReview      ProjectStatus = "under review"
	StatusInProgress       ProjectStatus = "in progress"
	StatusNeedsImprovement ProjectStatus = "need improvement in requirements"
	StatusCompleted        ProjectStatus = "completed"
)

// AllStatuses lists every status in workflow order
var AllStatuses = []ProjectStatus{
	StatusIncomplete,
	StatusUnderReview,
	StatusInProgress,
	StatusNeedsImprovement,
	StatusCompleted,
}

// Valid reports whether s is one of the known statuses
func (s ProjectStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns the short badge text shown for a status
func (s ProjectStatus) Label() string {
	switch s {
	case StatusIncomplete:
		return "Incomplete"
	case StatusUnderReview:
		return "Under Review"
	case StatusInProgress:
		return "In Progress"
	case StatusNeedsImprovement:
		return "Needs Improvement"
	case StatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// ParseStatus converts user input into a ProjectStatus
func ParseStatus(value string) (ProjectStatus, bool) {
	status := ProjectStatus(value)
	return status, status.Valid()
}

// Role identifies who authored a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage represents one entry of a conversation
type ChatMessage struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Requirements represents the four gathered requirement categories.
// A nil field means the category has not been gathered yet.
type Requirements struct {
	Functional    *string `json:"functional,omitempty"`
	NonFunctional *string `json:"nonFunctional,omitempty"`
	Domain        *string `json:"domain,omitempty"`
	Inverse       *string `json:"inverse,omitempty"`
}

// Text returns the value of a requirement field, or "" when absent
func Text(field *string) string {
	if field == nil {
		return ""
	}
	return *field
}

// Project represents a client's requirements-gathering project
type Project struct {
	ID                 string        `json:"id"`
	ClientID           string        `json:"clientId"`
	ClientName         string        `json:"clientName"`
	CompanyName        string        `json:"companyName"`
	AdminID            string        `json:"adminId,omitempty"`
	ProjectTitle       string        `json:"projectTitle"`
	ProjectDescription string        `json:"projectDescription"`
	Status             ProjectStatus `json:"status"`
	Requirements       Requirements  `json:"requirements"`
	History            []ChatMessage `json:"history"`
	ReadyToSubmit      bool          `json:"readyToSubmit"`
	SuggestedNames     []string      `json:"suggestedNames,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
	SubmittedAt        *time.Time    `json:"submittedAt,omitempty"`
}

// UserMessages returns the user-authored message texts in order
func (p *Project) UserMessages() []string {
	var texts []string
	for _, msg := range p.History {
		if msg.Role == RoleUser {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

// IsGathering reports whether the conversation still accepts messages
func (p *Project) IsGathering() bool {
	return p.Status == StatusIncomplete
}

// ProjectStats holds per-status project counts for the admin dashboard
type ProjectStats struct {
	Total            int `json:"total"`
	Incomplete       int `json:"incomplete"`
	UnderReview      int `json:"underReview"`
	InProgress       int `json:"inProgress"`
	NeedsImprovement int `json:"needsImprovement"`
	Completed        int `json:"completed"`
}
