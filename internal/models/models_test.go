package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectStatus_Label(t *testing.T) {
	tests := []struct {
		status ProjectStatus
		want   string
	}{
		{StatusIncomplete, "Incomplete"},
		{StatusUnderReview, "Under Review"},
		{StatusInProgress, "In Progress"},
		{StatusNeedsImprovement, "Needs Improvement"},
		{StatusCompleted, "Completed"},
		{ProjectStatus("archived"), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Label())
		})
	}
}

func TestParseStatus(t *testing.T) {
	status, ok := ParseStatus("need improvement in requirements")
	assert.True(t, ok)
	assert.Equal(t, StatusNeedsImprovement, status)

	_, ok = ParseStatus("Completed")
	assert.False(t, ok)
	_, ok = ParseStatus("")
	assert.False(t, ok)
}

func TestProject_UserMessagesAndGathering(t *testing.T) {
	p := &Project{
		Status: StatusIncomplete,
		History: []ChatMessage{
			{Role: RoleAssistant, Text: "Hello"},
			{Role: RoleUser, Text: "Browse books"},
			{Role: RoleAssistant, Text: "What else?"},
			{Role: RoleUser, Text: "Checkout"},
		},
	}
	assert.Equal(t, []string{"Browse books", "Checkout"}, p.UserMessages())
	assert.True(t, p.IsGathering())

	p.Status = StatusUnderReview
	assert.False(t, p.IsGathering())
}

func TestText(t *testing.T) {
	value := "Browse books"
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "Browse books", Text(&value))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"rate limited", fmt.Errorf("chat: %w", ErrRateLimited), "Too many requests. Please wait a moment and try again."},
		{"quota", ErrQuotaExhausted, "AI credits have been exhausted. Please add more credits."},
		{"generic", fmt.Errorf("failed: %w", ErrTextService), "Failed to get AI response. Please try again."},
		{"validation", NewValidationError("Please enter a project title."), "Please enter a project title."},
		{"credentials", ErrInvalidCredentials, "Invalid email or password."},
		{"other", errors.New("disk full"), "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestValidationError_Is(t *testing.T) {
	err := fmt.Errorf("sign up: %w", NewValidationError("Please fill in all fields."))
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestUser_IsAdmin(t *testing.T) {
	var nobody *User
	assert.False(t, nobody.IsAdmin())
	assert.True(t, (&User{Role: UserRoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: UserRoleClient}).IsAdmin())
}
