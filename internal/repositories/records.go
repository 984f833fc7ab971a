package repositories

import (
	"time"

	"gorm.io/datatypes"

	"requira/internal/models"
)

// ProjectRecord is the persisted form of a project. Requirements and
// history are stored as JSON blobs next to the scalar columns.
type ProjectRecord struct {
	ID                 string                                  `gorm:"primaryKey;type:varchar(36)"`
	ClientID           string                                  `gorm:"type:varchar(36);index;not null"`
	AdminID            string                                  `gorm:"type:varchar(36)"`
	ProjectTitle       string                                  `gorm:"not null"`
	ProjectDescription string                                  `gorm:"type:text"`
	Status             string                                  `gorm:"type:varchar(64);index;not null"`
	Requirements       datatypes.JSONType[models.Requirements] `gorm:"type:json"`
	History            datatypes.JSONSlice[models.ChatMessage] `gorm:"type:json"`
	ReadyToSubmit      bool                                    `gorm:"not null;default:false"`
	SuggestedNames     datatypes.JSONSlice[string]             `gorm:"type:json"`
	CreatedAt          time.Time                               `gorm:"autoCreateTime:false;index"`
	UpdatedAt          time.Time                               `gorm:"autoUpdateTime:false"`
	SubmittedAt        *time.Time
}

// TableName overrides the default table name
func (ProjectRecord) TableName() string { return "projects" }

// ProfileRecord holds the display details of a user
type ProfileRecord struct {
	UserID  string `gorm:"primaryKey;type:varchar(36)"`
	Name    string `gorm:"not null"`
	Company string
	Email   string `gorm:"index"`
}

// TableName overrides the default table name
func (ProfileRecord) TableName() string { return "profiles" }

// UserRecord is an account with its password hash
type UserRecord struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(16);not null"`
	CreatedAt    time.Time
}

// TableName overrides the default table name
func (UserRecord) TableName() string { return "users" }

// SessionRecord is an issued session token
type SessionRecord struct {
	Token     string    `gorm:"primaryKey;type:varchar(64)"`
	UserID    string    `gorm:"type:varchar(36);index;not null"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

// TableName overrides the default table name
func (SessionRecord) TableName() string { return "sessions" }

func projectRecordFrom(p *models.Project) ProjectRecord {
	return ProjectRecord{
		ID:                 p.ID,
		ClientID:           p.ClientID,
		AdminID:            p.AdminID,
		ProjectTitle:       p.ProjectTitle,
		ProjectDescription: p.ProjectDescription,
		Status:             string(p.Status),
		Requirements:       datatypes.NewJSONType(p.Requirements),
		History:            datatypes.JSONSlice[models.ChatMessage](p.History),
		ReadyToSubmit:      p.ReadyToSubmit,
		SuggestedNames:     datatypes.JSONSlice[string](p.SuggestedNames),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
		SubmittedAt:        p.SubmittedAt,
	}
}

// toModel converts a record into a project. Client display fields are
// filled from the owner's profile, or "Unknown" when there is none.
func (r ProjectRecord) toModel(profile *ProfileRecord) *models.Project {
	p := &models.Project{
		ID:                 r.ID,
		ClientID:           r.ClientID,
		ClientName:         UnknownProfileValue,
		CompanyName:        UnknownProfileValue,
		AdminID:            r.AdminID,
		ProjectTitle:       r.ProjectTitle,
		ProjectDescription: r.ProjectDescription,
		Status:             models.ProjectStatus(r.Status),
		Requirements:       r.Requirements.Data(),
		History:            []models.ChatMessage(r.History),
		ReadyToSubmit:      r.ReadyToSubmit,
		SuggestedNames:     []string(r.SuggestedNames),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		SubmittedAt:        r.SubmittedAt,
	}
	if profile != nil {
		if profile.Name != "" {
			p.ClientName = profile.Name
		}
		if profile.Company != "" {
			p.CompanyName = profile.Company
		}
	}
	if p.History == nil {
		p.History = []models.ChatMessage{}
	}
	return p
}

// UnknownProfileValue is shown when a project owner has no profile
const UnknownProfileValue = "Unknown"

func (r UserRecord) toModel(profile *ProfileRecord) *models.User {
	u := &models.User{
		ID:        r.ID,
		Email:     r.Email,
		Role:      models.UserRole(r.Role),
		CreatedAt: r.CreatedAt,
		Profile:   models.Profile{UserID: r.ID, Email: r.Email},
	}
	if profile != nil {
		u.Profile = models.Profile{
			UserID:  profile.UserID,
			Name:    profile.Name,
			Company: profile.Company,
			Email:   profile.Email,
		}
	}
	return u
}
