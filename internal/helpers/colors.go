package helpers

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"requira/internal/critique"
	"requira/internal/models"
)

var (
	// SuccessColor for successful operations
	SuccessColor = color.New(color.FgGreen, color.Bold)

	// ErrorColor for error messages
	ErrorColor = color.New(color.FgRed, color.Bold)

	// WarningColor for warning messages
	WarningColor = color.New(color.FgYellow, color.Bold)

	// InfoColor for informational messages
	InfoColor = color.New(color.FgCyan, color.Bold)

	// TitleColor for titles and headers
	TitleColor = color.New(color.FgMagenta, color.Bold)

	// AssistantColor for assistant chat turns
	AssistantColor = color.New(color.FgBlue)

	// MutedColor for secondary text
	MutedColor = color.New(color.FgHiBlack)
)

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	SuccessColor.Printf("✅ "+format+"\n", args...)
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	ErrorColor.Printf("❌ "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	WarningColor.Printf("⚠️  "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	InfoColor.Printf("ℹ️  "+format+"\n", args...)
}

// PrintTitle prints a title
func PrintTitle(format string, args ...interface{}) {
	TitleColor.Printf("🎯 "+format+"\n", args...)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println(strings.Repeat("─", 80))
}

// PrintAssistant prints one assistant chat message
func PrintAssistant(text string) {
	AssistantColor.Printf("🤖 %s\n", text)
}

// PrintUser echoes one user chat message
func PrintUser(text string) {
	fmt.Printf("🧑 %s\n", text)
}

// StatusColor picks the badge color for a project status
func StatusColor(status models.ProjectStatus) *color.Color {
	switch status {
	case models.StatusIncomplete:
		return WarningColor
	case models.StatusUnderReview:
		return InfoColor
	case models.StatusInProgress:
		return TitleColor
	case models.StatusNeedsImprovement:
		return ErrorColor
	case models.StatusCompleted:
		return SuccessColor
	default:
		return MutedColor
	}
}

// StatusBadge renders the short status label in its badge color
func StatusBadge(status models.ProjectStatus) string {
	return StatusColor(status).Sprintf("[%s]", status.Label())
}

// SeverityColor picks the color for a critique rating or score
func SeverityColor(s critique.Severity) *color.Color {
	switch s {
	case critique.SeverityPositive:
		return SuccessColor
	case critique.SeverityCaution:
		return WarningColor
	default:
		return ErrorColor
	}
}

// IsTerminal checks if output is going to a terminal
func IsTerminal() bool {
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
