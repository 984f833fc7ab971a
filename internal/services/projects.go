package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"requira/internal/conversation"
	"requira/internal/lifecycle"
	"requira/internal/models"
	"requira/internal/repositories"
)

// ProjectStore persists projects
type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context, clientID string) ([]models.Project, error)
	CountByStatus(ctx context.Context) (models.ProjectStats, error)
	SaveProject(ctx context.Context, p *models.Project) error
	SaveConversation(ctx context.Context, p *models.Project) error
}

// ProjectService runs the project workflow on behalf of a signed-in user
type ProjectService struct {
	store   ProjectStore
	engine  *conversation.Engine
	machine *lifecycle.Machine
	logger  Logger
	now     func() time.Time
}

// NewProjectService creates a new project service
func NewProjectService(store ProjectStore, engine *conversation.Engine, machine *lifecycle.Machine, logger Logger) *ProjectService {
	return &ProjectService{
		store:   store,
		engine:  engine,
		machine: machine,
		logger:  loggerOrNop(logger),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func requireSession(session *models.Session) error {
	if session == nil || session.User.ID == "" {
		return models.ErrUnauthenticated
	}
	return nil
}

func actorFor(session *models.Session) lifecycle.Actor {
	if session.User.IsAdmin() {
		return lifecycle.Admin(session.User.ID)
	}
	return lifecycle.Client(session.User.ID)
}

func displayOrUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return repositories.UnknownProfileValue
	}
	return value
}

// Create starts a new project for the signed-in client
func (s *ProjectService) Create(ctx context.Context, session *models.Session, title, description string) (*models.Project, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if session.User.Role != models.UserRoleClient {
		return nil, fmt.Errorf("%w: only clients create projects", models.ErrForbidden)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, models.NewValidationError("Please enter a project title.")
	}

	now := s.now()
	p := &models.Project{
		ID:                 uuid.NewString(),
		ClientID:           session.User.ID,
		ClientName:         displayOrUnknown(session.User.Profile.Name),
		CompanyName:        displayOrUnknown(session.User.Profile.Company),
		ProjectTitle:       title,
		ProjectDescription: strings.TrimSpace(description),
		Status:             models.StatusIncomplete,
		History:            []models.ChatMessage{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

// Get loads a project the session may see. Clients only see their own.
func (s *ProjectService) Get(ctx context.Context, session *models.Session, id string) (*models.Project, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.User.IsAdmin() && p.ClientID != session.User.ID {
		return nil, fmt.Errorf("%w: project belongs to another client", models.ErrForbidden)
	}
	s.engine.Restore(p)
	return p, nil
}

func (s *ProjectService) getOwned(ctx context.Context, session *models.Session, id string) (*models.Project, error) {
	p, err := s.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if p.ClientID != session.User.ID {
		return nil, fmt.Errorf("%w: only the project's client may do this", models.ErrForbidden)
	}
	return p, nil
}

// List returns the projects visible to the session, newest first
func (s *ProjectService) List(ctx context.Context, session *models.Session) ([]models.Project, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	clientID := session.User.ID
	if session.User.IsAdmin() {
		clientID = ""
	}
	projects, err := s.store.ListProjects(ctx, clientID)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		s.engine.Restore(&projects[i])
	}
	return projects, nil
}

// Stats returns per-status project counts for admins
func (s *ProjectService) Stats(ctx context.Context, session *models.Session) (models.ProjectStats, error) {
	if err := requireSession(session); err != nil {
		return models.ProjectStats{}, err
	}
	if !session.User.IsAdmin() {
		return models.ProjectStats{}, fmt.Errorf("%w: statistics are for admins", models.ErrForbidden)
	}
	return s.store.CountByStatus(ctx)
}

// StartConversation adds the opening greeting to a project's empty
// conversation and returns the project
func (s *ProjectService) StartConversation(ctx context.Context, session *models.Session, id string) (*models.Project, error) {
	p, err := s.getOwned(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.engine.Start(ctx, p, p.ClientName); err != nil {
		return p, err
	}
	return p, nil
}

// SendMessage runs one conversation turn for the project's client
func (s *ProjectService) SendMessage(ctx context.Context, session *models.Session, id, text string) (*models.Project, *conversation.TurnResult, error) {
	p, err := s.getOwned(ctx, session, id)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.engine.Send(ctx, p, p.ClientName, text)
	return p, result, err
}

// Submit ends the gathering phase of a ready project. It is refused with
// models.ErrTurnInProgress while a conversation turn for the project runs.
func (s *ProjectService) Submit(ctx context.Context, session *models.Session, id string) (*models.Project, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	release, err := s.engine.Hold(id)
	if err != nil {
		return nil, err
	}
	defer release()

	p, err := s.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if err := s.machine.Submit(p, actorFor(session)); err != nil {
		return nil, err
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetStatus changes the status of a submitted project on behalf of an admin
func (s *ProjectService) SetStatus(ctx context.Context, session *models.Session, id string, status models.ProjectStatus) (*models.Project, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if err := s.machine.Transition(p, actorFor(session), status); err != nil {
		return nil, err
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SaveSuggestions records the names suggested for a project
func (s *ProjectService) SaveSuggestions(ctx context.Context, p *models.Project, names []string) error {
	p.SuggestedNames = append([]string(nil), names...)
	p.UpdatedAt = s.now()
	return s.save(ctx, p)
}

// AdoptName renames a project to one of its suggested names
func (s *ProjectService) AdoptName(ctx context.Context, session *models.Session, id, name string) (*models.Project, error) {
	p, err := s.getOwned(ctx, session, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("Please choose a project name.")
	}
	if !contains(p.SuggestedNames, name) {
		return nil, models.NewValidationError("Please choose one of the suggested names.")
	}

	p.ProjectTitle = name
	p.UpdatedAt = s.now()
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) save(ctx context.Context, p *models.Project) error {
	if err := s.store.SaveProject(ctx, p); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return err
		}
		s.logger.Printf("projects: failed to save project %s: %v", p.ID, err)
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
