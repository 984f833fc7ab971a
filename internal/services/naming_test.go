package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"requira/internal/models"
)

func TestNormalizeSuggestions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "five names",
			raw:  `["Alpha", "Beta", "Gamma", "Delta", "Epsilon"]`,
			want: []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"},
		},
		{
			name: "three names are padded",
			raw:  "```json\n[\"Alpha\", \"Beta\", \"Gamma\"]\n```",
			want: []string{"Alpha", "Beta", "Gamma", "Shop 4", "Shop 5"},
		},
		{
			name: "extra names are truncated",
			raw:  `["A", "B", "C", "D", "E", "F", "G"]`,
			want: []string{"A", "B", "C", "D", "E"},
		},
		{
			name: "plain list",
			raw:  "1. Alpha\n2. Beta\n\n- Gamma\n* Delta",
			want: []string{"Alpha", "Beta", "Gamma", "Delta", "Shop 5"},
		},
		{
			name: "invalid array falls back to lines",
			raw:  "[Alpha, Beta]",
			want: []string{"[Alpha, Beta]", "Shop 2", "Shop 3", "Shop 4", "Shop 5"},
		},
		{
			name: "empty reply",
			raw:  "",
			want: []string{"Shop 1", "Shop 2", "Shop 3", "Shop 4", "Shop 5"},
		},
		{
			name: "empty array",
			raw:  "[]",
			want: []string{"Shop 1", "Shop 2", "Shop 3", "Shop 4", "Shop 5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSuggestions(tt.raw, "Shop"))
		})
	}
}

func TestNamingService_Suggest(t *testing.T) {
	completer := &fakeCompleter{reply: `Here you go: ["Shelfie", "PageTurner", "Bookly"]`}
	s := NewNamingService(completer, nil)

	names, err := s.Suggest(context.Background(), sampleProject())
	require.NoError(t, err)
	assert.Equal(t, []string{"Shelfie", "PageTurner", "Bookly", "Book Shop 4", "Book Shop 5"}, names)

	require.Len(t, completer.requests, 1)
	prompt := completer.requests[0].Messages[0].Content
	assert.Contains(t, prompt, `Current project title: "Book Shop"`)
	assert.Contains(t, prompt, "functional: Browse books")
	assert.NotContains(t, prompt, "domain:")
	assert.Contains(t, prompt, "user: Browse books")
}

func TestNamingService_Error(t *testing.T) {
	s := NewNamingService(&fakeCompleter{err: &CompletionError{StatusCode: 402, Err: models.ErrQuotaExhausted}}, nil)

	_, err := s.Suggest(context.Background(), sampleProject())
	assert.ErrorIs(t, err, models.ErrQuotaExhausted)
}
