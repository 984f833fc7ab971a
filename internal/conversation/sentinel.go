package conversation

import (
	"fmt"
	"strings"
)

// CompletionSentinel is appended by the assistant once it has gathered enough requirements
const CompletionSentinel = "REQUIREMENTS_COMPLETE"

const emptyReplyFallback = "I'm having trouble processing that. Could you please rephrase?"

// StripSentinel removes the completion sentinel from an assistant reply and
// reports whether it was present
func StripSentinel(reply string) (string, bool) {
	if !strings.Contains(reply, CompletionSentinel) {
		return strings.TrimSpace(reply), false
	}
	return strings.TrimSpace(strings.ReplaceAll(reply, CompletionSentinel, "")), true
}

// Greeting is the opening assistant message used when the text service
// cannot produce one
func Greeting(projectTitle, clientName string) string {
	return fmt.Sprintf("Hello %s! I'm Requira, your AI requirements assistant. "+
		"Let's gather the details for your project \"%s\". What is the main goal or purpose of this project?",
		clientName, projectTitle)
}
