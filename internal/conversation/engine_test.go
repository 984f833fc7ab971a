package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"requira/internal/models"
)

type responderFunc func(ctx context.Context, req ChatRequest) (string, error)

func (f responderFunc) ChatTurn(ctx context.Context, req ChatRequest) (string, error) {
	return f(ctx, req)
}

type memoryStore struct {
	saves int
	last  models.Project
	err   error
}

func (s *memoryStore) SaveConversation(_ context.Context, p *models.Project) error {
	if s.err != nil {
		return s.err
	}
	s.saves++
	s.last = *p
	s.last.History = append([]models.ChatMessage(nil), p.History...)
	return nil
}

func echoResponder() responderFunc {
	return func(_ context.Context, req ChatRequest) (string, error) {
		return fmt.Sprintf("Noted (%d messages so far). What else?", len(req.History)), nil
	}
}

func activeProject() *models.Project {
	return &models.Project{
		ID:           "project-1",
		ClientID:     "client-1",
		ProjectTitle: "Inventory Tracker",
		Status:       models.StatusIncomplete,
	}
}

func TestStart_UsesServiceGreeting(t *testing.T) {
	store := &memoryStore{}
	engine := NewEngine(responderFunc(func(_ context.Context, req ChatRequest) (string, error) {
		assert.Empty(t, req.History)
		assert.Equal(t, "Inventory Tracker", req.ProjectTitle)
		assert.Equal(t, "Dana", req.ClientName)
		return "Hi Dana, what should Inventory Tracker do?", nil
	}), store)

	p := activeProject()
	greeting, err := engine.Start(context.Background(), p, "Dana")
	require.NoError(t, err)
	require.NotNil(t, greeting)
	assert.Equal(t, models.RoleAssistant, greeting.Role)
	assert.Equal(t, "Hi Dana, what should Inventory Tracker do?", greeting.Text)
	require.Len(t, p.History, 1)
	assert.Equal(t, 1, store.saves)
}

func TestStart_FallsBackToDefaultGreeting(t *testing.T) {
	store := &memoryStore{}
	engine := NewEngine(responderFunc(func(context.Context, ChatRequest) (string, error) {
		return "", errors.New("boom")
	}), store)

	p := activeProject()
	greeting, err := engine.Start(context.Background(), p, "Dana")
	require.NoError(t, err)
	assert.Equal(t, Greeting("Inventory Tracker", "Dana"), greeting.Text)
	assert.Contains(t, greeting.Text, `"Inventory Tracker"`)
	assert.Equal(t, 1, store.saves)
}

func TestStart_NoopWhenAlreadyStarted(t *testing.T) {
	engine := NewEngine(echoResponder(), &memoryStore{})
	p := activeProject()
	p.History = []models.ChatMessage{{Role: models.RoleAssistant, Text: "hello"}}

	greeting, err := engine.Start(context.Background(), p, "Dana")
	require.NoError(t, err)
	assert.Nil(t, greeting)
	assert.Len(t, p.History, 1)
}

func TestSend_AppendsAndDerives(t *testing.T) {
	store := &memoryStore{}
	engine := NewEngine(echoResponder(), store)
	p := activeProject()
	p.History = []models.ChatMessage{{Role: models.RoleAssistant, Text: "hello"}}

	result, err := engine.Send(context.Background(), p, "Dana", "  Track stock levels  ")
	require.NoError(t, err)

	require.Len(t, p.History, 3)
	assert.Equal(t, models.ChatMessage{Role: models.RoleUser, Text: "Track stock levels"}, p.History[1])
	assert.Equal(t, models.RoleAssistant, p.History[2].Role)
	assert.Equal(t, "Track stock levels", models.Text(result.Requirements.Functional))
	require.NotNil(t, result.Requirements.Inverse)
	assert.Equal(t, "", *result.Requirements.Inverse)
	assert.False(t, result.Ready)
	assert.Equal(t, 1, store.saves)
	assert.Len(t, store.last.History, 3)
}

func TestSend_RollsBackOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "rate limited", err: fmt.Errorf("status 429: %w", models.ErrRateLimited), wantErr: models.ErrRateLimited},
		{name: "quota", err: fmt.Errorf("status 402: %w", models.ErrQuotaExhausted), wantErr: models.ErrQuotaExhausted},
		{name: "generic", err: errors.New("connection reset"), wantErr: models.ErrTextService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{}
			engine := NewEngine(responderFunc(func(context.Context, ChatRequest) (string, error) {
				return "", tt.err
			}), store)

			p := activeProject()
			p.History = []models.ChatMessage{{Role: models.RoleAssistant, Text: "hello"}}
			functional := "kept"
			p.Requirements = models.Requirements{Functional: &functional}

			result, err := engine.Send(context.Background(), p, "Dana", "new message")
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
			assert.Equal(t, []models.ChatMessage{{Role: models.RoleAssistant, Text: "hello"}}, p.History)
			assert.Equal(t, "kept", models.Text(p.Requirements.Functional))
			assert.Equal(t, models.StatusIncomplete, p.Status)
			assert.Zero(t, store.saves)
		})
	}
}

func TestSend_RollsBackWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	engine := NewEngine(responderFunc(func(context.Context, ChatRequest) (string, error) {
		cancel()
		return "late reply", nil
	}), &memoryStore{})

	p := activeProject()
	_, err := engine.Send(ctx, p, "Dana", "hello")
	require.ErrorIs(t, err, models.ErrTextService)
	assert.Empty(t, p.History)
}

func TestSend_SentinelMarksReadyAndIsStripped(t *testing.T) {
	engine := NewEngine(responderFunc(func(context.Context, ChatRequest) (string, error) {
		return "Thanks, I have everything I need. REQUIREMENTS_COMPLETE", nil
	}), &memoryStore{})

	p := activeProject()
	result, err := engine.Send(context.Background(), p, "Dana", "That's all")
	require.NoError(t, err)
	assert.True(t, result.Complete)
	assert.True(t, result.Ready)
	assert.Equal(t, "Thanks, I have everything I need.", result.Reply.Text)
	assert.NotContains(t, p.History[len(p.History)-1].Text, CompletionSentinel)
}

func TestSend_EmptyReplyUsesFallback(t *testing.T) {
	engine := NewEngine(responderFunc(func(context.Context, ChatRequest) (string, error) {
		return "   ", nil
	}), &memoryStore{})

	result, err := engine.Send(context.Background(), activeProject(), "Dana", "hello")
	require.NoError(t, err)
	assert.Equal(t, emptyReplyFallback, result.Reply.Text)
}

func TestSend_ThresholdMarksReady(t *testing.T) {
	engine := NewEngine(echoResponder(), &memoryStore{})
	p := activeProject()

	for i := 1; i <= 3; i++ {
		result, err := engine.Send(context.Background(), p, "Dana", fmt.Sprintf("answer %d", i))
		require.NoError(t, err)
		assert.False(t, result.Ready, "turn %d", i)
	}
	result, err := engine.Send(context.Background(), p, "Dana", "answer 4")
	require.NoError(t, err)
	assert.True(t, result.Ready)
	assert.True(t, p.ReadyToSubmit)
}

func TestSend_ReadyIsMonotonic(t *testing.T) {
	calls := 0
	engine := NewEngine(responderFunc(func(context.Context, ChatRequest) (string, error) {
		calls++
		if calls == 1 {
			return "done REQUIREMENTS_COMPLETE", nil
		}
		return "more questions", nil
	}), &memoryStore{}, WithThreshold(10))

	p := activeProject()
	for i := 0; i < 5; i++ {
		result, err := engine.Send(context.Background(), p, "Dana", "reply")
		require.NoError(t, err)
		assert.True(t, result.Ready, "turn %d", i)
	}

	failing := NewEngine(responderFunc(func(context.Context, ChatRequest) (string, error) {
		return "", errors.New("down")
	}), &memoryStore{}, WithThreshold(10))
	_, err := failing.Send(context.Background(), p, "Dana", "reply")
	require.Error(t, err)
	assert.True(t, p.ReadyToSubmit)
}

func TestSend_LockedConversation(t *testing.T) {
	engine := NewEngine(echoResponder(), &memoryStore{})
	p := activeProject()
	p.Status = models.StatusUnderReview

	_, err := engine.Send(context.Background(), p, "Dana", "hello")
	require.ErrorIs(t, err, models.ErrConversationLocked)
	assert.Empty(t, p.History)

	_, err = engine.Start(context.Background(), p, "Dana")
	require.ErrorIs(t, err, models.ErrConversationLocked)
}

func TestSend_RejectsBlankMessage(t *testing.T) {
	engine := NewEngine(echoResponder(), &memoryStore{})
	_, err := engine.Send(context.Background(), activeProject(), "Dana", "   ")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestSend_RefusesConcurrentTurn(t *testing.T) {
	entered := make(chan struct{})
	unblock := make(chan struct{})
	var once sync.Once
	engine := NewEngine(responderFunc(func(context.Context, ChatRequest) (string, error) {
		once.Do(func() { close(entered) })
		<-unblock
		return "ok", nil
	}), &memoryStore{})

	first := activeProject()
	done := make(chan error, 1)
	go func() {
		_, err := engine.Send(context.Background(), first, "Dana", "first")
		done <- err
	}()
	<-entered

	second := activeProject()
	_, err := engine.Send(context.Background(), second, "Dana", "second")
	require.ErrorIs(t, err, models.ErrTurnInProgress)
	assert.Empty(t, second.History)

	close(unblock)
	require.NoError(t, <-done)

	_, err = engine.Send(context.Background(), second, "Dana", "second again")
	require.NoError(t, err)
}

func TestHold_BlocksTurnsUntilReleased(t *testing.T) {
	store := &memoryStore{}
	engine := NewEngine(echoResponder(), store)
	p := activeProject()

	release, err := engine.Hold(p.ID)
	require.NoError(t, err)

	_, err = engine.Hold(p.ID)
	require.ErrorIs(t, err, models.ErrTurnInProgress)
	_, err = engine.Send(context.Background(), p, "Dana", "hello")
	require.ErrorIs(t, err, models.ErrTurnInProgress)
	assert.Empty(t, p.History)
	assert.Zero(t, store.saves)

	release()
	_, err = engine.Send(context.Background(), p, "Dana", "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves)
}

func TestSend_SurfacesPersistenceFailure(t *testing.T) {
	store := &memoryStore{err: errors.New("disk full")}
	engine := NewEngine(echoResponder(), store)
	p := activeProject()

	result, err := engine.Send(context.Background(), p, "Dana", "hello")
	require.ErrorIs(t, err, models.ErrPersistence)
	require.NotNil(t, result)
	assert.Len(t, p.History, 2)
}

func TestSend_RollsBackWhenProjectWasSubmitted(t *testing.T) {
	store := &memoryStore{err: fmt.Errorf("project project-1: %w", models.ErrConversationLocked)}
	engine := NewEngine(echoResponder(), store)
	p := activeProject()
	p.History = []models.ChatMessage{{Role: models.RoleAssistant, Text: "Hello"}}

	result, err := engine.Send(context.Background(), p, "Dana", "late message")
	require.ErrorIs(t, err, models.ErrConversationLocked)
	assert.NotErrorIs(t, err, models.ErrPersistence)
	assert.Nil(t, result)
	assert.Len(t, p.History, 1)
	assert.Nil(t, p.Requirements.Domain)
	assert.False(t, p.ReadyToSubmit)
}

func TestSend_StampsUpdatedAt(t *testing.T) {
	at := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	engine := NewEngine(echoResponder(), &memoryStore{}, WithClock(func() time.Time { return at }))
	p := activeProject()

	_, err := engine.Send(context.Background(), p, "Dana", "hello")
	require.NoError(t, err)
	assert.Equal(t, at, p.UpdatedAt)
}

func TestRestore_ReconstructsReadyFromHistory(t *testing.T) {
	engine := NewEngine(echoResponder(), &memoryStore{})
	p := activeProject()
	for i := 0; i < 4; i++ {
		p.History = append(p.History,
			models.ChatMessage{Role: models.RoleAssistant, Text: "q"},
			models.ChatMessage{Role: models.RoleUser, Text: "a"})
	}
	assert.False(t, p.ReadyToSubmit)
	engine.Restore(p)
	assert.True(t, p.ReadyToSubmit)
}
