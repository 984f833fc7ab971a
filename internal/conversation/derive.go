package conversation

import (
	"strings"

	"requira/internal/models"
)

// Capacities sets how many consecutive user messages feed each category.
// Functional takes the first Functional messages, NonFunctional the next
// NonFunctional, Domain the next Domain, and Inverse everything after.
type Capacities struct {
	Functional    int
	NonFunctional int
	Domain        int
}

// DefaultCapacities assigns two user messages to each of the first three categories
var DefaultCapacities = Capacities{Functional: 2, NonFunctional: 2, Domain: 2}

// Valid reports whether every capacity is positive
func (c Capacities) Valid() bool {
	return c.Functional > 0 && c.NonFunctional > 0 && c.Domain > 0
}

const sliceSeparator = "\n\n"

// Derive partitions the user-authored messages of history into the four
// requirement categories in temporal order. It depends only on the user
// messages, so deriving twice from the same history yields the same result.
// Every category is present; a category with no messages is "".
func Derive(history []models.ChatMessage, caps Capacities) models.Requirements {
	var texts []string
	for _, msg := range history {
		if msg.Role == models.RoleUser {
			texts = append(texts, msg.Text)
		}
	}

	bounds := []int{
		caps.Functional,
		caps.Functional + caps.NonFunctional,
		caps.Functional + caps.NonFunctional + caps.Domain,
	}

	functional := joinSlice(texts, 0, bounds[0])
	nonFunctional := joinSlice(texts, bounds[0], bounds[1])
	domain := joinSlice(texts, bounds[1], bounds[2])
	inverse := joinSlice(texts, bounds[2], len(texts))

	return models.Requirements{
		Functional:    &functional,
		NonFunctional: &nonFunctional,
		Domain:        &domain,
		Inverse:       &inverse,
	}
}

func joinSlice(texts []string, start, end int) string {
	if start >= len(texts) || start >= end {
		return ""
	}
	if end > len(texts) {
		end = len(texts)
	}
	return strings.Join(texts[start:end], sliceSeparator)
}
