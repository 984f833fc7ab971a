package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"requira/internal/models"
	"requira/internal/repositories"
	"requira/internal/srs"
)

const sampleSRS = `{
  "introduction": {"purpose": "Sell books online", "scope": "Web shop"},
  "overallDescription": {"productPerspective": "Standalone", "userCharacteristics": "Readers"},
  "systemFeatures": [
    {"title": "Catalogue", "description": "Browse books", "inputs": "Search terms", "outputs": "Book list", "behavior": "N/A"}
  ],
  "nonFunctionalRequirements": {"performance": ["Pages load in under 2 seconds"], "security": [], "usability": [], "reliability": [], "other": []},
  "externalInterfaces": {"userInterface": "Responsive web UI", "hardware": "To be determined", "software": "Payment API", "communication": ""},
  "constraints": ["No mobile app"]
}`

func TestParseSRSDocument(t *testing.T) {
	for _, raw := range []string{sampleSRS, "```json\n" + sampleSRS + "\n```", "```\n" + sampleSRS + "\n```"} {
		doc, err := ParseSRSDocument(raw)
		require.NoError(t, err)
		assert.Equal(t, "Sell books online", doc.Introduction.Purpose)
		require.Len(t, doc.SystemFeatures, 1)
		assert.Equal(t, "Catalogue", doc.SystemFeatures[0].Title)
		assert.Equal(t, []string{"No mobile app"}, doc.Constraints)
	}
}

func TestParseSRSDocument_Malformed(t *testing.T) {
	for _, raw := range []string{"", "Sorry, I cannot do that", "```json\n{broken\n```"} {
		_, err := ParseSRSDocument(raw)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrMalformedResponse)

		var formatErr *SRSFormatError
		assert.ErrorAs(t, err, &formatErr)
	}
}

func TestExportService_Structured(t *testing.T) {
	dir := t.TempDir()
	completer := &fakeCompleter{reply: sampleSRS}
	s := NewExportService(completer, repositories.NewLocalExportStore(dir), "", nil)

	result, err := s.Export(context.Background(), sampleProject(), srs.ModeStructured)
	require.NoError(t, err)
	assert.Equal(t, "Book_Shop_SRS.pdf", result.FileName)
	assert.True(t, bytes.HasPrefix(result.Data, []byte("%PDF-")))
	require.NotNil(t, result.Stored)
	assert.Equal(t, "application/pdf", result.Stored.ContentType)

	saved, err := os.ReadFile(filepath.Join(dir, "Book_Shop_SRS.pdf"))
	require.NoError(t, err)
	assert.Equal(t, result.Data, saved)

	require.Len(t, completer.requests, 1)
	prompt := completer.requests[0].Messages[0].Content
	assert.Contains(t, prompt, "- Company: Analytical Ltd")
	assert.Contains(t, prompt, "DOMAIN REQUIREMENTS:\nNo domain requirements provided")
	assert.Contains(t, prompt, "CONSTRAINTS/EXCLUSIONS:\nNo constraints provided")
}

func TestExportService_SimpleSkipsTextService(t *testing.T) {
	completer := &fakeCompleter{}
	s := NewExportService(completer, nil, "", nil)

	p := sampleProject()
	result, err := s.Export(context.Background(), p, srs.ModeSimple)
	require.NoError(t, err)
	assert.Equal(t, "Book_Shop_requirements.pdf", result.FileName)
	assert.Nil(t, result.Stored)
	assert.Empty(t, completer.requests)

	outline, err := s.Outline(context.Background(), p, srs.ModeSimple)
	require.NoError(t, err)
	var texts []string
	for _, block := range outline.Section("6.") {
		texts = append(texts, block.Text)
	}
	assert.Contains(t, texts, "No specific constraints or exclusions have been documented.")
}

func TestExportService_MalformedSRS(t *testing.T) {
	s := NewExportService(&fakeCompleter{reply: "not json"}, nil, "", nil)

	_, err := s.Export(context.Background(), sampleProject(), srs.ModeStructured)
	assert.ErrorIs(t, err, models.ErrMalformedResponse)
	assert.Equal(t, "The AI response could not be understood. Please try again.", models.UserMessage(err))
}

func TestExportService_DefaultCompany(t *testing.T) {
	completer := &fakeCompleter{reply: sampleSRS}
	s := NewExportService(completer, nil, "Requira Consulting", nil)

	p := sampleProject()
	p.CompanyName = repositories.UnknownProfileValue
	_, err := s.Export(context.Background(), p, srs.ModeStructured)
	require.NoError(t, err)
	assert.Contains(t, completer.requests[0].Messages[0].Content, "- Company: Requira Consulting")
}
