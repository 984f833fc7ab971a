package srs

import (
	"fmt"
	"strings"

	"requira/internal/models"
)

// Bucket names a non-functional category used by keyword bucketing
type Bucket string

const (
	BucketPerformance Bucket = "Performance"
	BucketSecurity    Bucket = "Security"
	BucketUsability   Bucket = "Usability"
	BucketReliability Bucket = "Reliability"
	BucketOther       Bucket = "Other"
)

// bucketKeywords is checked in order; the first bucket with a matching
// keyword wins
var bucketKeywords = []struct {
	bucket   Bucket
	keywords []string
}{
	{BucketPerformance, []string{"performance", "fast", "speed", "latency", "response time", "load time", "throughput", "scalab", "concurrent", "seconds"}},
	{BucketSecurity, []string{"security", "secure", "authenticat", "authoriz", "password", "encrypt", "permission", "privacy", "gdpr", "login"}},
	{BucketUsability, []string{"usability", "user-friendly", "user friendly", "easy to", "intuitive", "accessib", "mobile", "responsive", "interface"}},
	{BucketReliability, []string{"reliab", "uptime", "availab", "backup", "recover", "fault", "failover", "redundan"}},
}

// Classify assigns a non-functional requirement line to a bucket by
// case-insensitive keyword match
func Classify(line string) Bucket {
	lower := strings.ToLower(line)
	for _, set := range bucketKeywords {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.bucket
			}
		}
	}
	return BucketOther
}

// nonBlankLines splits text on line breaks and drops blank lines
func nonBlankLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// BuildSimple lays out a document directly from the raw requirement text
// gathered in conversation
func BuildSimple(meta Meta, req models.Requirements) Outline {
	b := &builder{}
	company := orDefault(meta.CompanyName, "the client organisation")

	b.section("1. Introduction")
	b.subsection("1.1 Purpose")
	b.paragraph(fmt.Sprintf("This document specifies the software requirements for %s. "+
		"It records the requirements gathered from %s and is intended for the team that will design, build and verify the system.",
		meta.ProjectTitle, orDefault(meta.ClientName, "the client")))
	b.subsection("1.2 Scope")
	if IsPlaceholder(meta.Description) {
		b.paragraph(fmt.Sprintf("The scope of %s is defined by the functional and non-functional requirements listed in this document.", meta.ProjectTitle))
	} else {
		b.paragraph(meta.Description)
	}

	b.section("2. Overall Description")
	b.subsection("2.1 Product Perspective")
	b.paragraph(fmt.Sprintf("%s is a new system commissioned by %s.", meta.ProjectTitle, company))
	b.subsection("2.2 User Characteristics")
	b.paragraph(fmt.Sprintf("The system is used by staff and customers of %s.", company))
	if domain := strings.TrimSpace(models.Text(req.Domain)); domain != "" {
		b.subsection("2.3 Domain Requirements")
		b.paragraph(domain)
	}

	b.section("3. System Features")
	features := nonBlankLines(models.Text(req.Functional))
	for i, line := range features {
		b.subsection(fmt.Sprintf("3.%d Feature %d", i+1, i+1))
		b.paragraph(line)
	}
	if len(features) == 0 {
		b.paragraph(noRequirementsText)
	}

	b.section("4. Non-Functional Requirements")
	var order []Bucket
	grouped := make(map[Bucket][]string)
	for _, line := range nonBlankLines(models.Text(req.NonFunctional)) {
		bucket := Classify(line)
		if _, seen := grouped[bucket]; !seen {
			order = append(order, bucket)
		}
		grouped[bucket] = append(grouped[bucket], line)
	}
	for i, bucket := range order {
		b.subsection(fmt.Sprintf("4.%d %s Requirements", i+1, bucket))
		b.bullets(grouped[bucket])
	}
	if len(order) == 0 {
		b.paragraph(noNonFunctional)
	}

	b.section("5. External Interface Requirements")
	b.subsection("5.1 User Interface")
	b.paragraph(toBeDetermined)

	b.section("6. Constraints")
	if inverse := strings.TrimSpace(models.Text(req.Inverse)); inverse != "" {
		b.paragraph(inverse)
	} else {
		b.paragraph(noConstraintsText)
	}

	return Outline{Meta: meta, Mode: ModeSimple, Blocks: b.blocks}
}
