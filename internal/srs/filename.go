package srs

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode selects how a document is assembled
type Mode string

const (
	// ModeSimple builds the document from raw requirement text
	ModeSimple Mode = "simple"
	// ModeStructured builds the document from a formatted SRSDocument
	ModeStructured Mode = "structured"
)

// ParseMode converts user input into a Mode. An empty value selects
// structured mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeStructured:
		return ModeStructured, nil
	case ModeSimple:
		return ModeSimple, nil
	default:
		return "", fmt.Errorf("unknown export mode %q (expected simple or structured)", value)
	}
}

// Suffix is appended to the sanitised title to form the file name
func (m Mode) Suffix() string {
	if m == ModeSimple {
		return "_requirements.pdf"
	}
	return "_SRS.pdf"
}

var disallowedRun = regexp.MustCompile(`[^A-Za-z0-9]+`)

// SanitizeTitle replaces each run of non-alphanumeric characters with a
// single underscore
func SanitizeTitle(title string) string {
	return disallowedRun.ReplaceAllString(title, "_")
}

// FileName derives the export file name for a project title
func FileName(title string, mode Mode) string {
	base := SanitizeTitle(title)
	if strings.Trim(base, "_") == "" {
		base = "project"
	}
	return base + mode.Suffix()
}
