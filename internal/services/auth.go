package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"requira/internal/config"
	"requira/internal/models"
)

// minPasswordLength matches the minimum accepted at sign-up
const minPasswordLength = 6

// AuthStore persists accounts and sessions
type AuthStore interface {
	CreateUser(ctx context.Context, user *models.User, passwordHash string) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, string, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateSession(ctx context.Context, session *models.Session, now time.Time) error
	GetSession(ctx context.Context, token string, now time.Time) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SignUpForm holds the fields of the client registration form
type SignUpForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Company  string `json:"company"`
}

// Validate checks the form locally before any account is created
func (f SignUpForm) Validate() error {
	return f.validate(true)
}

// validate checks the form. Admin accounts are not tied to a company.
func (f SignUpForm) validate(requireCompany bool) error {
	if strings.TrimSpace(f.Email) == "" || f.Password == "" {
		return models.NewValidationError("Please enter email and password.")
	}
	if strings.TrimSpace(f.Name) == "" || (requireCompany && strings.TrimSpace(f.Company) == "") {
		return models.NewValidationError("Please fill in all fields.")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(f.Email)); err != nil {
		return models.NewValidationError("Please enter a valid email address.")
	}
	if len(f.Password) < minPasswordLength {
		return models.NewValidationError(fmt.Sprintf("Password must be at least %d characters.", minPasswordLength))
	}
	return nil
}

// AuthService signs users in and out and resolves sessions
type AuthService struct {
	store  AuthStore
	config *config.AuthConfig
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(store AuthStore, authConfig *config.AuthConfig) *AuthService {
	return &AuthService{
		store:  store,
		config: authConfig,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account with an explicit role
func (s *AuthService) Register(ctx context.Context, form SignUpForm, role models.UserRole) (*models.User, error) {
	if err := form.validate(role == models.UserRoleClient); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(form.Email))
	id := uuid.NewString()
	user := &models.User{
		ID:    id,
		Email: email,
		Role:  role,
		Profile: models.Profile{
			UserID:  id,
			Name:    strings.TrimSpace(form.Name),
			Company: strings.TrimSpace(form.Company),
			Email:   email,
		},
		CreatedAt: s.now(),
	}
	if err := s.store.CreateUser(ctx, user, string(hash)); err != nil {
		if errors.Is(err, models.ErrAlreadyRegistered) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// SignUp registers a client account and signs it in. Emails listed in the
// admin configuration receive the admin role.
func (s *AuthService) SignUp(ctx context.Context, form SignUpForm) (*models.Session, error) {
	role := models.UserRoleClient
	if s.config.IsAdminEmail(form.Email) {
		role = models.UserRoleAdmin
	}
	user, err := s.Register(ctx, form, role)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// SignIn checks credentials and opens a new session
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, models.NewValidationError("Please enter email and password.")
	}

	user, hash, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return s.issue(ctx, user)
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*models.Session, error) {
	now := s.now()
	session := &models.Session{
		Token:     uuid.NewString(),
		User:      *user,
		ExpiresAt: now.Add(s.config.SessionTTL()),
	}
	if err := s.store.CreateSession(ctx, session, now); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// SignOut ends a session
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if err := s.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// Session resolves a token into the session it identifies
func (s *AuthService) Session(ctx context.Context, token string) (*models.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, models.ErrUnauthenticated
	}
	return s.store.GetSession(ctx, token, s.now())
}

// CurrentUser returns the user signed in with token
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	session, err := s.Session(ctx, token)
	if err != nil {
		return nil, err
	}
	return &session.User, nil
}

// HasRole reports whether the user holds role. Unknown users hold no role.
func (s *AuthService) HasRole(ctx context.Context, userID string, role models.UserRole) (bool, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return user.Role == role, nil
}

// PurgeExpired removes sessions that have expired
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now())
}
