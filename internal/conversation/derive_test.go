package conversation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"requira/internal/models"
)

func historyWithUserMessages(n int) []models.ChatMessage {
	history := []models.ChatMessage{
		{Role: models.RoleAssistant, Text: "greeting"},
		{Role: models.RoleAssistant, Text: "second greeting"},
	}
	for i := 1; i <= n; i++ {
		history = append(history,
			models.ChatMessage{Role: models.RoleUser, Text: fmt.Sprintf("u%d", i)},
			models.ChatMessage{Role: models.RoleAssistant, Text: fmt.Sprintf("a%d", i)})
	}
	return history
}

func TestDerive_Partitions(t *testing.T) {
	tests := []struct {
		name  string
		users int
		want  [4]string
	}{
		{name: "no messages", users: 0, want: [4]string{"", "", "", ""}},
		{name: "one message", users: 1, want: [4]string{"u1", "", "", ""}},
		{name: "three messages", users: 3, want: [4]string{"u1\n\nu2", "u3", "", ""}},
		{name: "six messages", users: 6, want: [4]string{"u1\n\nu2", "u3\n\nu4", "u5\n\nu6", ""}},
		{name: "overflow to inverse", users: 9, want: [4]string{"u1\n\nu2", "u3\n\nu4", "u5\n\nu6", "u7\n\nu8\n\nu9"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(historyWithUserMessages(tt.users), DefaultCapacities)
			assert.NotNil(t, got.Functional)
			assert.NotNil(t, got.NonFunctional)
			assert.NotNil(t, got.Domain)
			assert.NotNil(t, got.Inverse)
			assert.Equal(t, tt.want, [4]string{
				*got.Functional, *got.NonFunctional, *got.Domain, *got.Inverse,
			})
		})
	}
}

func TestDerive_CustomCapacities(t *testing.T) {
	got := Derive(historyWithUserMessages(5), Capacities{Functional: 1, NonFunctional: 1, Domain: 1})
	assert.Equal(t, "u1", *got.Functional)
	assert.Equal(t, "u2", *got.NonFunctional)
	assert.Equal(t, "u3", *got.Domain)
	assert.Equal(t, "u4\n\nu5", *got.Inverse)
}

func TestDerive_IsIdempotentAndIgnoresAssistantText(t *testing.T) {
	history := historyWithUserMessages(7)
	first := Derive(history, DefaultCapacities)
	second := Derive(history, DefaultCapacities)
	assert.Equal(t, first, second)

	edited := append([]models.ChatMessage(nil), history...)
	for i := range edited {
		if edited[i].Role == models.RoleAssistant {
			edited[i].Text = "changed"
		}
	}
	assert.Equal(t, first, Derive(edited, DefaultCapacities))
}

func TestStripSentinel(t *testing.T) {
	text, complete := StripSentinel("All set. REQUIREMENTS_COMPLETE")
	assert.True(t, complete)
	assert.Equal(t, "All set.", text)

	text, complete = StripSentinel("  Tell me more.  ")
	assert.False(t, complete)
	assert.Equal(t, "Tell me more.", text)
}
