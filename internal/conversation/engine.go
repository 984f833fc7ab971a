// Package conversation drives the requirements-gathering chat for a project.
//
// Each user turn is appended optimistically, answered by the text service,
// and then folded into the project's requirements. A failed turn is rolled
// back so history only holds confirmed exchanges. Turns for the same project
// are serialised: a second message is refused while one is outstanding.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"requira/internal/models"
)

// DefaultCompletionThreshold is the number of user messages after which a
// conversation is ready to submit even without the completion sentinel
const DefaultCompletionThreshold = 4

// ChatRequest is the context sent to the text service for one assistant turn
type ChatRequest struct {
	ProjectTitle string
	ClientName   string
	History      []models.ChatMessage
}

// Responder produces the next assistant message for a conversation.
// The returned text may carry the completion sentinel.
type Responder interface {
	ChatTurn(ctx context.Context, req ChatRequest) (string, error)
}

// Store persists the conversation state of a project
type Store interface {
	SaveConversation(ctx context.Context, p *models.Project) error
}

// Logger receives diagnostic lines
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// TurnResult describes a committed user turn
type TurnResult struct {
	Reply        models.ChatMessage  `json:"reply"`
	Complete     bool                `json:"complete"`
	Ready        bool                `json:"readyToSubmit"`
	Requirements models.Requirements `json:"requirements"`
}

// Engine runs conversation turns against a Responder and a Store
type Engine struct {
	responder  Responder
	store      Store
	logger     Logger
	now        func() time.Time
	threshold  int
	capacities Capacities

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option customizes an Engine
type Option func(*Engine)

// WithLogger overrides the default no-op logger
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the clock used for timestamps
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.now = clock
		}
	}
}

// WithThreshold sets the user-message count that marks a conversation ready
func WithThreshold(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.threshold = n
		}
	}
}

// WithCapacities sets the per-category message capacities used for derivation
func WithCapacities(c Capacities) Option {
	return func(e *Engine) {
		if c.Valid() {
			e.capacities = c
		}
	}
}

// NewEngine creates a conversation engine
func NewEngine(responder Responder, store Store, opts ...Option) *Engine {
	e := &Engine{
		responder:  responder,
		store:      store,
		logger:     nopLogger{},
		now:        func() time.Time { return time.Now().UTC() },
		threshold:  DefaultCompletionThreshold,
		capacities: DefaultCapacities,
		inflight:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Ready reports whether the project may be submitted. The flag is
// reconstructed from history so a reload never loses it.
func (e *Engine) Ready(p *models.Project) bool {
	return p.ReadyToSubmit || len(p.UserMessages()) >= e.threshold
}

// Restore recomputes derived conversation state on a freshly loaded project
func (e *Engine) Restore(p *models.Project) {
	if p.IsGathering() && e.Ready(p) {
		p.ReadyToSubmit = true
	}
}

// Start appends the opening assistant message to an empty, active
// conversation. It returns nil when the conversation was already started.
func (e *Engine) Start(ctx context.Context, p *models.Project, clientName string) (*models.ChatMessage, error) {
	if !p.IsGathering() {
		return nil, models.ErrConversationLocked
	}
	if len(p.History) > 0 {
		return nil, nil
	}
	if !e.acquire(p.ID) {
		return nil, models.ErrTurnInProgress
	}
	defer e.release(p.ID)

	raw, err := e.responder.ChatTurn(ctx, ChatRequest{
		ProjectTitle: p.ProjectTitle,
		ClientName:   clientName,
	})
	text := ""
	if err != nil {
		e.logger.Printf("conversation: greeting for project %s failed, using default: %v", p.ID, err)
	} else {
		text, _ = StripSentinel(raw)
	}
	if text == "" {
		text = Greeting(p.ProjectTitle, clientName)
	}

	greeting := models.ChatMessage{Role: models.RoleAssistant, Text: text}
	prevUpdated := p.UpdatedAt
	p.History = []models.ChatMessage{greeting}
	p.UpdatedAt = e.now()

	if err := e.store.SaveConversation(ctx, p); err != nil {
		if errors.Is(err, models.ErrConversationLocked) {
			p.History, p.UpdatedAt = nil, prevUpdated
			return nil, models.ErrConversationLocked
		}
		e.logger.Printf("conversation: failed to save greeting for project %s: %v", p.ID, err)
		return &greeting, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return &greeting, nil
}

// Send runs one user turn. On a text-service failure the optimistic user
// entry is rolled back and requirements and status are left untouched.
// If the turn succeeds but cannot be persisted, the result is returned
// together with an error wrapping models.ErrPersistence.
func (e *Engine) Send(ctx context.Context, p *models.Project, clientName, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Please enter a message.")
	}
	if !p.IsGathering() {
		return nil, models.ErrConversationLocked
	}
	if !e.acquire(p.ID) {
		return nil, models.ErrTurnInProgress
	}
	defer e.release(p.ID)

	snapshot := append([]models.ChatMessage(nil), p.History...)
	p.History = append(snapshot[:len(snapshot):len(snapshot)], models.ChatMessage{Role: models.RoleUser, Text: text})

	raw, err := e.responder.ChatTurn(ctx, ChatRequest{
		ProjectTitle: p.ProjectTitle,
		ClientName:   clientName,
		History:      append([]models.ChatMessage(nil), p.History...),
	})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		p.History = snapshot
		e.logger.Printf("conversation: turn for project %s failed: %v", p.ID, err)
		return nil, classify(err)
	}

	reply, complete := StripSentinel(raw)
	if reply == "" {
		reply = emptyReplyFallback
	}
	assistant := models.ChatMessage{Role: models.RoleAssistant, Text: reply}
	prevRequirements, prevReady, prevUpdated := p.Requirements, p.ReadyToSubmit, p.UpdatedAt
	p.History = append(p.History, assistant)
	p.Requirements = Derive(p.History, e.capacities)
	p.ReadyToSubmit = p.ReadyToSubmit || complete || len(p.UserMessages()) >= e.threshold
	p.UpdatedAt = e.now()

	result := &TurnResult{
		Reply:        assistant,
		Complete:     complete,
		Ready:        p.ReadyToSubmit,
		Requirements: p.Requirements,
	}

	if err := e.store.SaveConversation(ctx, p); err != nil {
		if errors.Is(err, models.ErrConversationLocked) {
			p.History = snapshot
			p.Requirements, p.ReadyToSubmit, p.UpdatedAt = prevRequirements, prevReady, prevUpdated
			e.logger.Printf("conversation: project %s was submitted during the turn", p.ID)
			return nil, models.ErrConversationLocked
		}
		e.logger.Printf("conversation: failed to save turn for project %s: %v", p.ID, err)
		return result, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return result, nil
}

// Hold reserves the project's turn slot so a caller can change the project
// without racing a conversation turn. It fails with models.ErrTurnInProgress
// while a turn is running. The returned func releases the slot.
func (e *Engine) Hold(projectID string) (func(), error) {
	if !e.acquire(projectID) {
		return nil, models.ErrTurnInProgress
	}
	return func() { e.release(projectID) }, nil
}

func (e *Engine) acquire(projectID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[projectID]; busy {
		return false
	}
	e.inflight[projectID] = struct{}{}
	return true
}

func (e *Engine) release(projectID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, projectID)
}

// classify keeps the three text-service categories and folds everything
// else into the generic one
func classify(err error) error {
	switch {
	case errors.Is(err, models.ErrRateLimited),
		errors.Is(err, models.ErrQuotaExhausted),
		errors.Is(err, models.ErrTextService):
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrTextService, err)
}
