package critique

import (
	"regexp"
	"strings"
)

// LineKind classifies a line of the fallback rendering
type LineKind string

const (
	LineHeader    LineKind = "header"
	LineBullet    LineKind = "bullet"
	LineNumbered  LineKind = "numbered"
	LineParagraph LineKind = "paragraph"
)

// Line is one rendered line of an unstructured critique
type Line struct {
	Kind LineKind `json:"kind"`
	Text string   `json:"text"`
}

var (
	fallbackHeaderPattern   = regexp.MustCompile(`^\*\*\d*\.?\s*[^*]+\*\*`)
	fallbackBulletPattern   = regexp.MustCompile(`^[-*•]\s+`)
	fallbackNumberedPattern = regexp.MustCompile(`^\d+\.\s+`)
	headerNumberPattern     = regexp.MustCompile(`^\d+\.\s*`)
)

// RenderFallback renders raw critique text line by line. Blank lines are
// skipped; every other line appears once, in input order.
func RenderFallback(text string) []Line {
	var lines []Line
	for _, raw := range splitLines(text) {
		switch {
		case fallbackHeaderPattern.MatchString(raw):
			header := headerNumberPattern.ReplaceAllString(strings.ReplaceAll(raw, "**", ""), "")
			lines = append(lines, Line{Kind: LineHeader, Text: strings.TrimSpace(header)})
		case fallbackBulletPattern.MatchString(raw):
			lines = append(lines, Line{Kind: LineBullet, Text: fallbackBulletPattern.ReplaceAllString(raw, "")})
		case fallbackNumberedPattern.MatchString(raw):
			lines = append(lines, Line{Kind: LineNumbered, Text: raw})
		case strings.TrimSpace(raw) != "":
			lines = append(lines, Line{Kind: LineParagraph, Text: strings.ReplaceAll(raw, "**", "")})
		}
	}
	return lines
}
