// Package lifecycle validates and applies project status transitions.
//
// A project starts in "incomplete requirements". Only its client may move it
// out of that state, and only once the conversation is ready to submit. After
// that the admin may move it freely between the four review states. Nothing
// returns a project to "incomplete requirements".
package lifecycle

import (
	"fmt"
	"time"

	"requira/internal/models"
)

// Actor identifies who requests a transition
type Actor struct {
	UserID string
	Role   models.UserRole
}

// Client builds a client actor
func Client(userID string) Actor {
	return Actor{UserID: userID, Role: models.UserRoleClient}
}

// Admin builds an admin actor
func Admin(userID string) Actor {
	return Actor{UserID: userID, Role: models.UserRoleAdmin}
}

// Machine applies status transitions using a configurable submit target
type Machine struct {
	submitTarget models.ProjectStatus
	now          func() time.Time
}

// Option customizes a Machine
type Option func(*Machine)

// WithClock overrides the clock used for timestamps
func WithClock(clock func() time.Time) Option {
	return func(m *Machine) {
		if clock != nil {
			m.now = clock
		}
	}
}

// New creates a Machine. submitTarget is the status a client submit moves
// the project to and must be "under review" or "completed".
func New(submitTarget models.ProjectStatus, opts ...Option) (*Machine, error) {
	if !IsSubmitTarget(submitTarget) {
		return nil, fmt.Errorf("invalid submit status %q: must be %q or %q",
			submitTarget, models.StatusUnderReview, models.StatusCompleted)
	}
	m := &Machine{
		submitTarget: submitTarget,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SubmitTarget returns the status used for client submissions
func (m *Machine) SubmitTarget() models.ProjectStatus {
	return m.submitTarget
}

// IsSubmitTarget reports whether status may be reached by a client submit
func IsSubmitTarget(status models.ProjectStatus) bool {
	return status == models.StatusUnderReview || status == models.StatusCompleted
}

// IsReviewStatus reports whether status belongs to the admin-controlled set
func IsReviewStatus(status models.ProjectStatus) bool {
	switch status {
	case models.StatusUnderReview, models.StatusInProgress,
		models.StatusNeedsImprovement, models.StatusCompleted:
		return true
	}
	return false
}

// Check validates a transition without applying it
func (m *Machine) Check(p *models.Project, actor Actor, to models.ProjectStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", models.ErrInvalidTransition, to)
	}

	switch {
	case p.Status == models.StatusIncomplete:
		if actor.Role != models.UserRoleClient || actor.UserID != p.ClientID {
			return fmt.Errorf("%w: only the project's client may submit requirements", models.ErrForbidden)
		}
		if !p.ReadyToSubmit {
			return fmt.Errorf("%w: requirements are not ready to submit", models.ErrInvalidTransition)
		}
		if to != m.submitTarget {
			return fmt.Errorf("%w: submit must move to %q, not %q", models.ErrInvalidTransition, m.submitTarget, to)
		}
		return nil

	case IsReviewStatus(p.Status):
		if actor.Role != models.UserRoleAdmin {
			return fmt.Errorf("%w: only an admin may change a submitted project's status", models.ErrForbidden)
		}
		if !IsReviewStatus(to) {
			return fmt.Errorf("%w: cannot move from %q to %q", models.ErrInvalidTransition, p.Status, to)
		}
		return nil
	}

	return fmt.Errorf("%w: project has unknown status %q", models.ErrInvalidTransition, p.Status)
}

// Transition validates and applies a status change. A rejected transition
// leaves the project untouched.
func (m *Machine) Transition(p *models.Project, actor Actor, to models.ProjectStatus) error {
	if err := m.Check(p, actor, to); err != nil {
		return err
	}

	now := m.now()
	if p.Status == models.StatusIncomplete && p.SubmittedAt == nil {
		submitted := now
		p.SubmittedAt = &submitted
	}
	if actor.Role == models.UserRoleAdmin {
		p.AdminID = actor.UserID
	}
	p.Status = to
	p.UpdatedAt = now
	return nil
}

// Submit moves a ready project out of the gathering state on behalf of its client
func (m *Machine) Submit(p *models.Project, actor Actor) error {
	return m.Transition(p, actor, m.submitTarget)
}
