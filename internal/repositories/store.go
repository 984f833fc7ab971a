package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"requira/internal/models"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO
)

// Store is the relational data store for projects, profiles, users and
// sessions, backed by SQLite through gorm
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path and migrates
// the schema
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_time_format=sqlite"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: true,
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Exec("PRAGMA journal_mode = WAL;").Error; err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := db.Exec("PRAGMA synchronous = NORMAL;").Error; err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	// SQLite allows a single writer
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&ProjectRecord{}, &ProfileRecord{}, &UserRecord{}, &SessionRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return fmt.Errorf("failed to retrieve %s: %w", what, err)
}

// CreateProject inserts a new project
func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	record := projectRecordFrom(p)
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetProject retrieves a project joined with its owner's profile
func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var record ProjectRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "project")
	}

	profiles, err := s.profilesFor(ctx, []string{record.ClientID})
	if err != nil {
		return nil, err
	}
	return record.toModel(profiles[record.ClientID]), nil
}

// ListProjects returns projects newest first, joined with owner profiles.
// An empty clientID lists every project.
func (s *Store) ListProjects(ctx context.Context, clientID string) ([]models.Project, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}

	var records []ProjectRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve projects: %w", err)
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ClientID)
	}
	profiles, err := s.profilesFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	projects := make([]models.Project, 0, len(records))
	for _, r := range records {
		projects = append(projects, *r.toModel(profiles[r.ClientID]))
	}
	return projects, nil
}

// CountByStatus tallies projects per status
func (s *Store) CountByStatus(ctx context.Context) (models.ProjectStats, error) {
	var rows []struct {
		Status string
		Count  int
	}
	err := s.db.WithContext(ctx).Model(&ProjectRecord{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return models.ProjectStats{}, fmt.Errorf("failed to count projects: %w", err)
	}

	var stats models.ProjectStats
	for _, row := range rows {
		stats.Total += row.Count
		switch models.ProjectStatus(row.Status) {
		case models.StatusIncomplete:
			stats.Incomplete = row.Count
		case models.StatusUnderReview:
			stats.UnderReview = row.Count
		case models.StatusInProgress:
			stats.InProgress = row.Count
		case models.StatusNeedsImprovement:
			stats.NeedsImprovement = row.Count
		case models.StatusCompleted:
			stats.Completed = row.Count
		}
	}
	return stats, nil
}

// SaveProject writes every column of an existing project
func (s *Store) SaveProject(ctx context.Context, p *models.Project) error {
	record := projectRecordFrom(p)
	result := s.db.WithContext(ctx).Model(&ProjectRecord{ID: p.ID}).
		Select("*").Omit("id", "client_id", "created_at").
		Updates(&record)
	if result.Error != nil {
		return fmt.Errorf("failed to update project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("project %s: %w", p.ID, models.ErrNotFound)
	}
	return nil
}

// SaveConversation persists the conversation state of a project: its
// requirements, history and readiness. Only projects still gathering
// requirements are written; a submitted project yields
// models.ErrConversationLocked.
func (s *Store) SaveConversation(ctx context.Context, p *models.Project) error {
	record := projectRecordFrom(p)
	db := s.db.WithContext(ctx)
	result := db.Model(&ProjectRecord{ID: p.ID}).
		Where("status = ?", string(models.StatusIncomplete)).
		Select("requirements", "history", "ready_to_submit", "updated_at").
		Updates(&record)
	if result.Error != nil {
		return fmt.Errorf("failed to save conversation: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&ProjectRecord{}).Where("id = ?", p.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check project: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("project %s: %w", p.ID, models.ErrNotFound)
	}
	return fmt.Errorf("project %s: %w", p.ID, models.ErrConversationLocked)
}

func (s *Store) profilesFor(ctx context.Context, userIDs []string) (map[string]*ProfileRecord, error) {
	out := make(map[string]*ProfileRecord)
	if len(userIDs) == 0 {
		return out, nil
	}

	var profiles []ProfileRecord
	if err := s.db.WithContext(ctx).Where("user_id IN ?", uniqueStrings(userIDs)).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve profiles: %w", err)
	}
	for i := range profiles {
		out[profiles[i].UserID] = &profiles[i]
	}
	return out, nil
}

// CreateUser inserts an account and its profile in one transaction
func (s *Store) CreateUser(ctx context.Context, user *models.User, passwordHash string) error {
	email := normalizeEmail(user.Email)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&UserRecord{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if count > 0 {
			return models.ErrAlreadyRegistered
		}

		record := UserRecord{
			ID:           user.ID,
			Email:        email,
			PasswordHash: passwordHash,
			Role:         string(user.Role),
			CreatedAt:    user.CreatedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		profile := ProfileRecord{
			UserID:  user.ID,
			Name:    user.Profile.Name,
			Company: user.Profile.Company,
			Email:   email,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
}

// FindUserByEmail returns the account registered with email and its
// password hash
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, string, error) {
	var record UserRecord
	if err := s.db.WithContext(ctx).First(&record, "email = ?", normalizeEmail(email)).Error; err != nil {
		return nil, "", notFound(err, "user")
	}
	profiles, err := s.profilesFor(ctx, []string{record.ID})
	if err != nil {
		return nil, "", err
	}
	return record.toModel(profiles[record.ID]), record.PasswordHash, nil
}

// GetUser retrieves an account by id
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var record UserRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	profiles, err := s.profilesFor(ctx, []string{record.ID})
	if err != nil {
		return nil, err
	}
	return record.toModel(profiles[record.ID]), nil
}

// CreateSession stores an issued session token
func (s *Store) CreateSession(ctx context.Context, session *models.Session, now time.Time) error {
	record := SessionRecord{
		Token:     session.Token,
		UserID:    session.User.ID,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession resolves a token into a session with its user. Tokens that
// are unknown or expired at now are reported as models.ErrUnauthenticated.
func (s *Store) GetSession(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	var record SessionRecord
	err := s.db.WithContext(ctx).First(&record, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve session: %w", err)
	}
	if !record.ExpiresAt.After(now) {
		return nil, models.ErrUnauthenticated
	}

	user, err := s.GetUser(ctx, record.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return &models.Session{Token: record.Token, User: *user, ExpiresAt: record.ExpiresAt}, nil
}

// DeleteSession removes a session token. Deleting an unknown token is not
// an error.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if err := s.db.WithContext(ctx).Delete(&SessionRecord{}, "token = ?", token).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes every session that expired at or before now
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&SessionRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
