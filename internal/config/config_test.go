package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"requira/internal/models"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"REQUIRA_API_KEY", "ANTHROPIC_API_KEY", "REQUIRA_DB_PATH", "REQUIRA_HOST", "REQUIRA_PORT"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(writeConfig(t, "anthropic:\n  api_key: sk-test\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, cfg.Anthropic.Model)
	assert.Equal(t, DefaultBaseURL, cfg.Anthropic.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Anthropic.Timeout())
	assert.Equal(t, "requira.db", cfg.Database.Path)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Address())
	assert.Equal(t, DefaultMaxBodyBytes, cfg.Server.MaxBodyBytes)
	assert.Equal(t, 4, cfg.Conversation.CompletionThreshold)
	assert.Equal(t, 2, cfg.Conversation.FunctionalCapacity)
	assert.Equal(t, string(models.StatusUnderReview), cfg.Conversation.SubmitStatus)
	assert.Equal(t, "exports", cfg.Export.OutputDir)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTTL())
	assert.Equal(t, "logs", cfg.Logging.Dir)
}

func TestLoadConfig_ReadsSections(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(writeConfig(t, `
anthropic:
  api_key: sk-test
  model: claude-test
  retry_count: 5
database:
  path: /tmp/requira.db
server:
  host: 0.0.0.0
  port: 9000
conversation:
  completion_threshold: 6
  submit_status: completed
export:
  output_dir: out
  company_name: Acme
  s3:
    enabled: true
    bucket: exports
    prefix: srs/
auth:
  admin_emails:
    - Admin@Example.com
`))
	require.NoError(t, err)

	assert.Equal(t, "claude-test", cfg.Anthropic.Model)
	assert.Equal(t, 5, cfg.Anthropic.RetryCount)
	assert.Equal(t, "/tmp/requira.db", cfg.Database.Path)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Address())
	assert.Equal(t, 6, cfg.Conversation.CompletionThreshold)
	assert.Equal(t, string(models.StatusCompleted), cfg.Conversation.SubmitStatus)
	assert.True(t, cfg.Export.S3.Enabled)
	assert.Equal(t, "exports", cfg.Export.S3.Bucket)
	assert.Equal(t, "us-east-1", cfg.Export.S3.Region)
	assert.True(t, cfg.Auth.IsAdminEmail(" admin@example.com"))
	assert.False(t, cfg.Auth.IsAdminEmail("client@example.com"))
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-fallback")
	t.Setenv("REQUIRA_DB_PATH", "env.db")
	t.Setenv("REQUIRA_HOST", "0.0.0.0")
	t.Setenv("REQUIRA_PORT", "9999")

	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: 8000\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-fallback", cfg.Anthropic.APIKey)
	assert.Equal(t, "env.db", cfg.Database.Path)
	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Address())

	t.Setenv("REQUIRA_API_KEY", "sk-primary")
	t.Setenv("REQUIRA_PORT", "not-a-port")
	cfg, err = LoadConfig(writeConfig(t, "anthropic:\n  api_key: sk-file\nserver:\n  port: 8000\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-primary", cfg.Anthropic.APIKey)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing api key", mutate: func(c *Config) { c.Anthropic.APIKey = "" }, wantErr: "API key"},
		{name: "negative threshold", mutate: func(c *Config) { c.Conversation.CompletionThreshold = -1 }, wantErr: "threshold"},
		{name: "negative capacity", mutate: func(c *Config) { c.Conversation.DomainCapacity = -2 }, wantErr: "capacities"},
		{name: "bad submit status", mutate: func(c *Config) { c.Conversation.SubmitStatus = "in progress" }, wantErr: "submit status"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Export.S3.Enabled = true }, wantErr: "bucket"},
		{name: "bcrypt cost", mutate: func(c *Config) { c.Auth.BcryptCost = 40 }, wantErr: "bcrypt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Anthropic.APIKey = "sk-test"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = LoadConfig(writeConfig(t, "anthropic: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = LoadConfig(writeConfig(t, "database:\n  path: x.db\n"))
	assert.ErrorContains(t, err, "config validation failed")
}
