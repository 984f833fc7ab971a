package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"requira/internal/config"
	"requira/internal/conversation"
	"requira/internal/models"
)

const anthropicVersion = "2023-06-01"

// Logger receives diagnostic lines
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

func loggerOrNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// Message is one entry of a completion request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a single call to the text-completion service
type CompletionRequest struct {
	System    string
	Messages  []Message
	MaxTokens int
}

// CompletionError is a failed call to the text-completion service. It
// matches one of models.ErrRateLimited, models.ErrQuotaExhausted or
// models.ErrTextService.
type CompletionError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *CompletionError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%v: %s", e.Err, e.Body)
	}
	return fmt.Sprintf("%v: status %d: %s", e.Err, e.StatusCode, e.Body)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// retryable reports whether another attempt could succeed
func (e *CompletionError) retryable() bool {
	if errors.Is(e.Err, models.ErrQuotaExhausted) {
		return false
	}
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// classifyStatus maps a failed response onto the text-service categories.
// Gateways do not always use the status code, so the body is checked too.
func classifyStatus(status int, body string) error {
	switch status {
	case http.StatusTooManyRequests, 529:
		return models.ErrRateLimited
	case http.StatusPaymentRequired:
		return models.ErrQuotaExhausted
	}

	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "rate_limit"):
		return models.ErrRateLimited
	case strings.Contains(lower, "credit"), strings.Contains(lower, "quota"):
		return models.ErrQuotaExhausted
	}
	return models.ErrTextService
}

// AIService calls the Anthropic Messages API
type AIService struct {
	config *config.AnthropicConfig
	client *http.Client
	logger Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewAIService creates a new AI service
func NewAIService(anthropicConfig *config.AnthropicConfig, logger Logger) *AIService {
	return &AIService{
		config: anthropicConfig,
		client: &http.Client{
			Timeout: anthropicConfig.Timeout(),
		},
		logger: loggerOrNop(logger),
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Complete sends a request, retrying transient failures. An empty reply is
// returned as "" so callers can apply their own fallback text.
func (s *AIService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	attempts := s.config.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := s.completeOnce(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var completionErr *CompletionError
		if !errors.As(err, &completionErr) || !completionErr.retryable() || ctx.Err() != nil {
			return "", err
		}
		if attempt < attempts {
			s.logger.Printf("ai: attempt %d/%d failed, retrying in %s: %v", attempt, attempts, s.config.RetryDelay(), err)
			if err := s.sleep(ctx, s.config.RetryDelay()); err != nil {
				return "", lastErr
			}
		}
	}

	s.logger.Printf("ai: request failed after %d attempts: %v", attempts, lastErr)
	return "", lastErr
}

func (s *AIService) completeOnce(ctx context.Context, req CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.config.MaxTokens
	}

	reqBody := map[string]interface{}{
		"model":      s.config.Model,
		"max_tokens": maxTokens,
		"messages":   req.Messages,
	}
	if req.System != "" {
		reqBody["system"] = req.System
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", s.config.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", &CompletionError{Body: err.Error(), Err: models.ErrTextService}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &CompletionError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			Err:        classifyStatus(resp.StatusCode, string(body)),
		}
	}

	var apiResponse struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", &CompletionError{
			StatusCode: resp.StatusCode,
			Body:       fmt.Sprintf("failed to decode API response: %v", err),
			Err:        models.ErrMalformedResponse,
		}
	}

	var text strings.Builder
	for _, block := range apiResponse.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(text.String()), nil
}

// ChatTurn produces the next assistant message of a requirements
// conversation. It satisfies conversation.Responder.
func (s *AIService) ChatTurn(ctx context.Context, req conversation.ChatRequest) (string, error) {
	return s.Complete(ctx, CompletionRequest{
		System:    chatSystemPrompt(req.ProjectTitle, req.ClientName),
		Messages:  chatMessages(req.History),
		MaxTokens: chatMaxTokens,
	})
}

// chatMessages converts history into API messages. The API expects the
// first message to come from the user, so an opening greeting is preceded
// by the kickoff prompt.
func chatMessages(history []models.ChatMessage) []Message {
	messages := make([]Message, 0, len(history)+1)
	if len(history) == 0 || history[0].Role == models.RoleAssistant {
		messages = append(messages, Message{Role: "user", Content: chatKickoff})
	}
	for _, msg := range history {
		role := "user"
		if msg.Role == models.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, Message{Role: role, Content: msg.Text})
	}
	return messages
}
