package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"requira/internal/models"
)

// SuggestionCount is the number of names every suggestion list holds
const SuggestionCount = 5

var (
	jsonArrayPattern  = regexp.MustCompile(`\[[\s\S]*?\]`)
	listPrefixPattern = regexp.MustCompile(`^[\d.\-*\s]+`)
)

// NamingService suggests project names from the gathered requirements
type NamingService struct {
	completer Completer
	logger    Logger
}

// NewNamingService creates a new naming service
func NewNamingService(completer Completer, logger Logger) *NamingService {
	return &NamingService{completer: completer, logger: loggerOrNop(logger)}
}

// Suggest returns exactly SuggestionCount names for the project
func (s *NamingService) Suggest(ctx context.Context, p *models.Project) ([]string, error) {
	raw, err := s.completer.Complete(ctx, CompletionRequest{
		System:    namesInstructions,
		Messages:  []Message{{Role: "user", Content: namesPrompt(p)}},
		MaxTokens: namesMaxTokens,
	})
	if err != nil {
		s.logger.Printf("naming: request for project %s failed: %v", p.ID, err)
		return nil, fmt.Errorf("failed to suggest names: %w", err)
	}
	return NormalizeSuggestions(raw, p.ProjectTitle), nil
}

// NormalizeSuggestions extracts names from a completion. The first JSON
// array in the text is used when it parses; otherwise each non-blank line
// is a name with its list marker removed. The result is padded with
// "<title> N" placeholders and truncated to SuggestionCount.
func NormalizeSuggestions(raw, title string) []string {
	var names []string
	parsed := false
	if match := jsonArrayPattern.FindString(raw); match != "" {
		if err := json.Unmarshal([]byte(match), &names); err == nil {
			parsed = true
		}
	}

	if !parsed {
		names = nil
		for _, line := range strings.Split(raw, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			name := strings.TrimSpace(listPrefixPattern.ReplaceAllString(line, ""))
			if name != "" {
				names = append(names, name)
			}
			if len(names) == SuggestionCount {
				break
			}
		}
	}

	for len(names) < SuggestionCount {
		names = append(names, fmt.Sprintf("%s %d", title, len(names)+1))
	}
	return names[:SuggestionCount]
}
