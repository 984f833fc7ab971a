package critique

import "strings"

// Severity is the display bucket of a rating or score
type Severity string

const (
	SeverityPositive Severity = "positive"
	SeverityCaution  Severity = "caution"
	SeverityNegative Severity = "negative"
)

// Classify maps a rating or score onto a severity by case-insensitive
// substring match, checked in order. Note "Incomplete" contains "complete".
func Classify(value string) Severity {
	v := strings.ToLower(value)
	switch {
	case strings.Contains(v, "complete"), strings.Contains(v, "excellent"):
		return SeverityPositive
	case strings.Contains(v, "partial"), strings.Contains(v, "good"), strings.Contains(v, "fair"):
		return SeverityCaution
	default:
		return SeverityNegative
	}
}
