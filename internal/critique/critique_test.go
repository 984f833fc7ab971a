package critique

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullCritique = `Here is my analysis of "Inventory Tracker".

**1. Completeness Assessment**
- **Functional:** Complete
- **Non-Functional:** Partial
- Domain: Missing
* Constraints: Partial

**2. Quality Issues**
1. "Fast" is not measurable.
2. No acceptance criteria for login.

**3. Recommendations**
- Define response time targets.
- Add acceptance criteria
for every feature.

**4. Risk Areas**
- Payment provider is undecided.

**5. Overall Score**
Fair - several gaps remain.`

func TestParse_RecoversAllSections(t *testing.T) {
	report := Parse(fullCritique)

	assert.Equal(t, []Rating{
		{Category: "Functional", Rating: "Complete", Severity: SeverityPositive},
		{Category: "Non-Functional", Rating: "Partial", Severity: SeverityCaution},
		{Category: "Domain", Rating: "Missing", Severity: SeverityNegative},
		{Category: "Constraints", Rating: "Partial", Severity: SeverityCaution},
	}, report.Ratings)
	assert.Equal(t, []string{
		`"Fast" is not measurable.`,
		"No acceptance criteria for login.",
	}, report.Issues)
	assert.Equal(t, []string{
		"Define response time targets.",
		"Add acceptance criteria for every feature.",
	}, report.Recommendations)
	assert.Equal(t, []string{"Payment provider is undecided."}, report.Risks)
	assert.Equal(t, "Fair", report.OverallScore)
	assert.Equal(t, SeverityCaution, report.ScoreSeverity)
	assert.True(t, report.HasParsedContent())
	assert.Empty(t, report.Fallback)
}

func TestParse_HeadingVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "bare bold",
			text: "**Recommendations**\n- Split the login story.\n**Overall Score**\nGood",
		},
		{
			name: "inline remainder",
			text: "**Recommendations:** Split the login story.\n**Overall Score:** good overall",
		},
		{
			name: "markdown",
			text: "## 3. Recommendations\n- Split the login story.\n### Overall Score\nGOOD",
		},
		{
			name: "numbered outside bold",
			text: "3. **Recommendations** - Split the login story.\n5. **Overall Score** - Good",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Parse(tt.text)
			assert.Equal(t, []string{"Split the login story."}, report.Recommendations)
			assert.Equal(t, "Good", report.OverallScore)
		})
	}
}

func TestParse_BoldLabelsStayInsideSection(t *testing.T) {
	text := "**Quality Issues**\n**Ambiguity:**\n- Vague wording in search.\n1. **Testability**: no targets\n**Risk Areas**\n- Scope creep"
	report := Parse(text)

	assert.Equal(t, []string{
		"Ambiguity:",
		"Vague wording in search.",
		"Testability: no targets",
	}, report.Issues)
	assert.Equal(t, []string{"Scope creep"}, report.Risks)
}

func TestParse_FirstSectionOccurrenceWins(t *testing.T) {
	report := Parse("**Risk Areas**\n- first\n**Risk Areas**\n- second")
	assert.Equal(t, []string{"first"}, report.Risks)
}

func TestParse_ScoreNeedsWork(t *testing.T) {
	report := Parse("**Risk Areas**\n- none\n**Overall Score**\nThese requirements needs work before review.")
	assert.Equal(t, "Needs Work", report.OverallScore)
	assert.Equal(t, SeverityNegative, report.ScoreSeverity)
}

func TestParse_FallbackWithoutHeadings(t *testing.T) {
	text := "Here are my thoughts.\n\n**General Notes**\n- Too vague\n1. Add metrics\nPlain **bold** text"
	report := Parse(text)

	assert.False(t, report.HasParsedContent())
	require.NotEmpty(t, report.Fallback)
	assert.Equal(t, []Line{
		{Kind: LineParagraph, Text: "Here are my thoughts."},
		{Kind: LineHeader, Text: "General Notes"},
		{Kind: LineBullet, Text: "Too vague"},
		{Kind: LineNumbered, Text: "1. Add metrics"},
		{Kind: LineParagraph, Text: "Plain bold text"},
	}, report.Fallback)
}

func TestParse_ScoreOnlyStillFallsBack(t *testing.T) {
	report := Parse("**Overall Score**\nExcellent")
	assert.Equal(t, "Excellent", report.OverallScore)
	assert.False(t, report.HasParsedContent())
	assert.NotEmpty(t, report.Fallback)
}

func TestParse_EmptyInput(t *testing.T) {
	report := Parse("")
	assert.False(t, report.HasParsedContent())
	assert.Empty(t, report.Fallback)
}

func TestRenderFallback_NumberedHeader(t *testing.T) {
	lines := RenderFallback("**2. Notes on scope**")
	assert.Equal(t, []Line{{Kind: LineHeader, Text: "Notes on scope"}}, lines)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		value string
		want  Severity
	}{
		{"Complete", SeverityPositive},
		{"EXCELLENT", SeverityPositive},
		{"Incomplete", SeverityPositive},
		{"Partial", SeverityCaution},
		{"Good", SeverityCaution},
		{"fair", SeverityCaution},
		{"Missing", SeverityNegative},
		{"Needs Work", SeverityNegative},
		{"", SeverityNegative},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.value))
		})
	}
}
