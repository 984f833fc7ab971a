package services

import (
	"context"
	"fmt"

	"requira/internal/critique"
	"requira/internal/helpers"
	"requira/internal/models"
)

// emptyCritique replaces an empty completion so the analyzer always has text
const emptyCritique = "Unable to generate critique. Please try again."

// Completer sends a single request to the text-completion service
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CritiqueResult is a parsed critique together with the text it came from
type CritiqueResult struct {
	Report critique.Report `json:"report"`
	Raw    string          `json:"raw"`
}

// CritiqueService asks the text service to review a project's requirements
type CritiqueService struct {
	completer Completer
	logger    Logger
}

// NewCritiqueService creates a new critique service
func NewCritiqueService(completer Completer, logger Logger) *CritiqueService {
	return &CritiqueService{completer: completer, logger: loggerOrNop(logger)}
}

// Critique requests a critique of the project's requirements and parses it.
// A reply that does not follow the section contract still yields a report
// carrying the fallback rendering.
func (s *CritiqueService) Critique(ctx context.Context, p *models.Project) (critique.Report, string, error) {
	raw, err := s.completer.Complete(ctx, CompletionRequest{
		System:    critiqueInstructions,
		Messages:  []Message{{Role: "user", Content: critiquePrompt(p)}},
		MaxTokens: critiqueMaxTokens,
	})
	if err != nil {
		s.logger.Printf("critique: request for project %s failed: %v", p.ID, err)
		return critique.Report{}, "", fmt.Errorf("failed to generate critique: %w", err)
	}
	if raw == "" {
		raw = emptyCritique
	}
	return critique.Parse(raw), raw, nil
}

// DisplayCritique prints a critique report to the console
func DisplayCritique(projectTitle string, report critique.Report) {
	helpers.PrintTitle("Requirements Critique: %s", projectTitle)

	if !report.HasParsedContent() {
		for _, line := range report.Fallback {
			switch line.Kind {
			case critique.LineHeader:
				helpers.PrintSeparator()
				helpers.PrintInfo("%s", line.Text)
			case critique.LineBullet, critique.LineNumbered:
				fmt.Printf("  • %s\n", line.Text)
			default:
				fmt.Println(line.Text)
			}
		}
		return
	}

	if len(report.Ratings) > 0 {
		helpers.PrintInfo("Completeness Assessment")
		for _, r := range report.Ratings {
			fmt.Printf("  %-20s %s\n", r.Category, helpers.SeverityColor(r.Severity).Sprint(r.Rating))
		}
		helpers.PrintSeparator()
	}

	printList("Quality Issues", report.Issues)
	printList("Recommendations", report.Recommendations)
	printList("Risk Areas", report.Risks)

	if report.OverallScore != "" {
		fmt.Printf("Overall Score: %s\n", helpers.SeverityColor(report.ScoreSeverity).Sprint(report.OverallScore))
	}
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	helpers.PrintInfo("%s", title)
	for i, item := range items {
		fmt.Printf("  %d. %s\n", i+1, item)
	}
	helpers.PrintSeparator()
}
