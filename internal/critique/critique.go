// Package critique turns the free-text requirements critique produced by the
// text service into a typed Report.
//
// The text is expected to follow a five-part contract (completeness
// assessment, quality issues, recommendations, risk areas, overall score)
// but the parser tolerates drift: headings may be bold or markdown, numbered
// or bare, and missing sections are simply left empty. When nothing
// structured can be recovered the report carries a line-oriented rendering
// of the raw text instead.
package critique

import (
	"regexp"
	"strings"
)

// Rating is one "category: rating" pair from the completeness section
type Rating struct {
	Category string   `json:"category"`
	Rating   string   `json:"rating"`
	Severity Severity `json:"severity"`
}

// Report is the structured form of a critique
type Report struct {
	Ratings         []Rating `json:"ratings"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
	Risks           []string `json:"risks"`
	OverallScore    string   `json:"overallScore,omitempty"`
	ScoreSeverity   Severity `json:"scoreSeverity,omitempty"`
	Fallback        []Line   `json:"fallback,omitempty"`
}

// HasParsedContent reports whether any of the four structured lists were
// recovered. The overall score alone does not count.
func (r Report) HasParsedContent() bool {
	return len(r.Ratings) > 0 || len(r.Issues) > 0 || len(r.Recommendations) > 0 || len(r.Risks) > 0
}

type section int

const (
	sectionNone section = iota
	sectionCompleteness
	sectionQuality
	sectionRecommendations
	sectionRisks
	sectionOverall
)

var sectionTitles = []struct {
	title string
	id    section
}{
	{"completeness assessment", sectionCompleteness},
	{"quality issues", sectionQuality},
	{"recommendations", sectionRecommendations},
	{"risk areas", sectionRisks},
	{"overall score", sectionOverall},
}

var (
	boldHeadingPattern     = regexp.MustCompile(`^(\d+\.\s*)?\*\*\s*(\d+\.\s*)?([^*]+?)\s*\*\*(.*)$`)
	markdownHeadingPattern = regexp.MustCompile(`^#{1,6}\s+(?:\d+\.\s*)?(.+?)\s*#*$`)
	ratingPattern          = regexp.MustCompile(`[-*•]\s*\*?\*?([^:*]+)\*?\*?:\s*\*?\*?\s*(\w+)\*?\*?`)
	listSplitPattern       = regexp.MustCompile(`(?:\d+\.\s+|[-*•]\s+)`)
	scorePattern           = regexp.MustCompile(`(?i)(Excellent|Good|Fair|Needs Work)`)
	spacePattern           = regexp.MustCompile(`\s+`)
)

// Parse builds a Report from a critique text blob. It never fails: input
// with no recognisable structure yields a report whose Fallback holds the
// verbatim rendering.
func Parse(text string) Report {
	found := splitSections(text)

	report := Report{
		Ratings:         parseRatings(found[sectionCompleteness]),
		Issues:          parseListItems(found[sectionQuality]),
		Recommendations: parseListItems(found[sectionRecommendations]),
		Risks:           parseListItems(found[sectionRisks]),
	}
	if score := parseScore(found[sectionOverall]); score != "" {
		report.OverallScore = score
		report.ScoreSeverity = Classify(score)
	}
	if !report.HasParsedContent() {
		report.Fallback = RenderFallback(text)
	}
	return report
}

// splitSections returns the body of each known section. A section runs from
// its heading to the next heading line or the end of input; the first
// occurrence of a heading wins.
func splitSections(text string) map[section]string {
	found := make(map[section]string)
	current := sectionNone
	var body []string

	flush := func() {
		if current != sectionNone {
			if _, seen := found[current]; !seen {
				found[current] = strings.TrimSpace(strings.Join(body, "\n"))
			}
		}
		body = nil
	}

	for _, line := range splitLines(text) {
		id, rest, ok := parseHeading(strings.TrimSpace(line))
		if ok {
			flush()
			current = id
			if rest != "" {
				body = append(body, rest)
			}
			continue
		}
		if current != sectionNone {
			body = append(body, line)
		}
	}
	flush()
	return found
}

// parseHeading decides whether a trimmed line is a section boundary.
// Markdown headings always are. A line led by bold text is a boundary when
// the bold text names a known section or is itself numbered ("**6. Notes**"),
// so bold labels inside a section body do not cut it short.
func parseHeading(line string) (section, string, bool) {
	if m := markdownHeadingPattern.FindStringSubmatch(line); m != nil {
		return lookupSection(m[1]), "", true
	}
	m := boldHeadingPattern.FindStringSubmatch(line)
	if m == nil {
		return sectionNone, "", false
	}
	id := lookupSection(m[3])
	if id == sectionNone && m[2] == "" {
		return sectionNone, "", false
	}
	rest := strings.TrimLeft(strings.TrimSpace(m[4]), ":-– ")
	return id, rest, true
}

func lookupSection(title string) section {
	title = strings.ToLower(strings.Trim(strings.TrimSpace(title), "*: "))
	title = headerNumberPattern.ReplaceAllString(title, "")
	title = spacePattern.ReplaceAllString(title, " ")
	for _, s := range sectionTitles {
		if strings.HasPrefix(title, s.title) {
			return s.id
		}
	}
	return sectionNone
}

func parseRatings(body string) []Rating {
	var ratings []Rating
	for _, line := range splitLines(body) {
		m := ratingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rating := strings.TrimSpace(m[2])
		ratings = append(ratings, Rating{
			Category: strings.TrimSpace(m[1]),
			Rating:   rating,
			Severity: Classify(rating),
		})
	}
	return ratings
}

func parseListItems(body string) []string {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	var items []string
	for _, part := range listSplitPattern.Split(body, -1) {
		item := strings.ReplaceAll(part, "\n", " ")
		item = strings.TrimSpace(strings.ReplaceAll(item, "**", ""))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parseScore returns the first score token in canonical casing
func parseScore(body string) string {
	m := scorePattern.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	switch strings.ToLower(m[1]) {
	case "excellent":
		return "Excellent"
	case "good":
		return "Good"
	case "fair":
		return "Fair"
	default:
		return "Needs Work"
	}
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
