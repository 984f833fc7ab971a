package helpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"requira/internal/critique"
	"requira/internal/models"
)

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.pdf")

	require.NoError(t, WriteFileAtomic(path, []byte("first")))
	require.NoError(t, WriteFileAtomic(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestSaveJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	require.NoError(t, SaveJSON(map[string]int{"total": 3}, path))
	assert.True(t, FileExists(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": 3}`, string(data))
}

func TestStatusBadge(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	assert.Equal(t, "[Under Review]", StatusBadge(models.StatusUnderReview))
	assert.Equal(t, "[Unknown]", StatusBadge(models.ProjectStatus("archived")))
}

func TestSeverityColor(t *testing.T) {
	assert.Same(t, SuccessColor, SeverityColor(critique.SeverityPositive))
	assert.Same(t, WarningColor, SeverityColor(critique.SeverityCaution))
	assert.Same(t, ErrorColor, SeverityColor(critique.SeverityNegative))
}
