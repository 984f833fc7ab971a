package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"requira/internal/models"
)

const (
	// DefaultModel is used when anthropic.model is not set
	DefaultModel = "claude-sonnet-4-20250514"
	// DefaultBaseURL is the Anthropic Messages API endpoint
	DefaultBaseURL = "https://api.anthropic.com/v1/messages"
	// DefaultHost is the loopback interface used when no host is configured
	DefaultHost = "127.0.0.1"
	// DefaultPort is the default TCP port of the HTTP API
	DefaultPort = 8080
	// DefaultMaxBodyBytes limits request payloads to 1 MB
	DefaultMaxBodyBytes int64 = 1 << 20
)

// Config represents the application configuration
type Config struct {
	Anthropic    AnthropicConfig    `yaml:"anthropic"`
	Database     DatabaseConfig     `yaml:"database"`
	Server       ServerConfig       `yaml:"server"`
	Conversation ConversationConfig `yaml:"conversation"`
	Export       ExportConfig       `yaml:"export"`
	Auth         AuthConfig         `yaml:"auth"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// AnthropicConfig represents Anthropic API configuration
type AnthropicConfig struct {
	APIKey            string `yaml:"api_key"`
	Model             string `yaml:"model"`
	BaseURL           string `yaml:"base_url"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	MaxTokens         int    `yaml:"max_tokens"`
	RetryCount        int    `yaml:"retry_count"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
}

// Timeout returns the per-request timeout
func (a AnthropicConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// RetryDelay returns the pause between retries
func (a AnthropicConfig) RetryDelay() time.Duration {
	return time.Duration(a.RetryDelaySeconds) * time.Second
}

// DatabaseConfig represents the sqlite data store configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig represents HTTP API configuration
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	MaxBodyBytes        int64  `yaml:"max_body_bytes"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
}

// Address returns the TCP bind address in host:port form
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ReadTimeout guards hung clients
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout bounds handler writes. Text-service calls happen inside
// handlers, so it must exceed the Anthropic timeout.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// IdleTimeout bounds keep-alive connections
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// ConversationConfig represents requirements-gathering configuration
type ConversationConfig struct {
	CompletionThreshold   int    `yaml:"completion_threshold"`
	FunctionalCapacity    int    `yaml:"functional_capacity"`
	NonFunctionalCapacity int    `yaml:"non_functional_capacity"`
	DomainCapacity        int    `yaml:"domain_capacity"`
	SubmitStatus          string `yaml:"submit_status"`
}

// ExportConfig represents document export configuration
type ExportConfig struct {
	OutputDir   string   `yaml:"output_dir"`
	CompanyName string   `yaml:"company_name"`
	S3          S3Config `yaml:"s3"`
}

// S3Config represents the optional S3 upload of exported documents
type S3Config struct {
	Enabled        bool   `yaml:"enabled"`
	Bucket         string `yaml:"bucket"`
	Region         string `yaml:"region"`
	Prefix         string `yaml:"prefix"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

// AuthConfig represents account and session configuration
type AuthConfig struct {
	SessionTTLHours int      `yaml:"session_ttl_hours"`
	BcryptCost      int      `yaml:"bcrypt_cost"`
	AdminEmails     []string `yaml:"admin_emails"`
}

// SessionTTL returns how long a session stays valid
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLHours) * time.Hour
}

// IsAdminEmail reports whether an email is granted the admin role
func (a AuthConfig) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, admin := range a.AdminEmails {
		if strings.ToLower(strings.TrimSpace(admin)) == email {
			return true
		}
	}
	return false
}

// LoggingConfig represents the file log configuration
type LoggingConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from a YAML file, applies defaults and
// environment overrides, then validates the result
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Parse decodes YAML configuration and applies defaults and environment
// overrides without validating
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()
	config.applyEnvOverrides()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = DefaultModel
	}
	if c.Anthropic.BaseURL == "" {
		c.Anthropic.BaseURL = DefaultBaseURL
	}
	if c.Anthropic.TimeoutSeconds <= 0 {
		c.Anthropic.TimeoutSeconds = 60
	}
	if c.Anthropic.MaxTokens <= 0 {
		c.Anthropic.MaxTokens = 2048
	}
	if c.Anthropic.RetryCount <= 0 {
		c.Anthropic.RetryCount = 3
	}
	if c.Anthropic.RetryDelaySeconds < 0 {
		c.Anthropic.RetryDelaySeconds = 0
	}

	if strings.TrimSpace(c.Database.Path) == "" {
		c.Database.Path = "requira.db"
	}

	if strings.TrimSpace(c.Server.Host) == "" {
		c.Server.Host = DefaultHost
	}
	if !isValidPort(c.Server.Port) {
		c.Server.Port = DefaultPort
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds <= 0 {
		c.Server.WriteTimeoutSeconds = 180
	}
	if c.Server.IdleTimeoutSeconds <= 0 {
		c.Server.IdleTimeoutSeconds = 60
	}

	if c.Conversation.CompletionThreshold == 0 {
		c.Conversation.CompletionThreshold = 4
	}
	if c.Conversation.FunctionalCapacity == 0 {
		c.Conversation.FunctionalCapacity = 2
	}
	if c.Conversation.NonFunctionalCapacity == 0 {
		c.Conversation.NonFunctionalCapacity = 2
	}
	if c.Conversation.DomainCapacity == 0 {
		c.Conversation.DomainCapacity = 2
	}
	if strings.TrimSpace(c.Conversation.SubmitStatus) == "" {
		c.Conversation.SubmitStatus = string(models.StatusUnderReview)
	}

	if strings.TrimSpace(c.Export.OutputDir) == "" {
		c.Export.OutputDir = "exports"
	}
	if c.Export.S3.Region == "" {
		c.Export.S3.Region = "us-east-1"
	}

	if c.Auth.SessionTTLHours <= 0 {
		c.Auth.SessionTTLHours = 24 * 7
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 10
	}

	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = "logs"
	}
}

func (c *Config) applyEnvOverrides() {
	if key := strings.TrimSpace(os.Getenv("REQUIRA_API_KEY")); key != "" {
		c.Anthropic.APIKey = key
	} else if c.Anthropic.APIKey == "" {
		c.Anthropic.APIKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	}
	if path := strings.TrimSpace(os.Getenv("REQUIRA_DB_PATH")); path != "" {
		c.Database.Path = path
	}
	if host := strings.TrimSpace(os.Getenv("REQUIRA_HOST")); host != "" {
		c.Server.Host = host
	}
	if port := strings.TrimSpace(os.Getenv("REQUIRA_PORT")); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil && isValidPort(parsed) {
			c.Server.Port = parsed
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic API key is required")
	}

	if c.Conversation.CompletionThreshold <= 0 {
		return fmt.Errorf("conversation completion threshold must be positive")
	}

	if c.Conversation.FunctionalCapacity <= 0 || c.Conversation.NonFunctionalCapacity <= 0 || c.Conversation.DomainCapacity <= 0 {
		return fmt.Errorf("conversation capacities must be positive")
	}

	switch models.ProjectStatus(c.Conversation.SubmitStatus) {
	case models.StatusUnderReview, models.StatusCompleted:
	default:
		return fmt.Errorf("conversation submit status must be %q or %q, got %q",
			models.StatusUnderReview, models.StatusCompleted, c.Conversation.SubmitStatus)
	}

	if c.Export.S3.Enabled && strings.TrimSpace(c.Export.S3.Bucket) == "" {
		return fmt.Errorf("export S3 bucket is required when S3 upload is enabled")
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth bcrypt cost must be between 4 and 31")
	}

	return nil
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}
