package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"requira/internal/config"
	"requira/internal/conversation"
	"requira/internal/helpers"
	"requira/internal/lifecycle"
	"requira/internal/logging"
	"requira/internal/models"
	"requira/internal/repositories"
	"requira/internal/server"
	"requira/internal/services"
)

// App holds the wired components shared by every command
type App struct {
	config *config.Config
	store  *repositories.Store
	logger *logging.Logger
	svc    server.Services
}

func newApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}

	store, err := repositories.Open(cfg.Database.Path)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	exports, err := exportStore(ctx, cfg)
	if err != nil {
		store.Close()
		logger.Close()
		return nil, err
	}

	machine, err := lifecycle.New(models.ProjectStatus(cfg.Conversation.SubmitStatus))
	if err != nil {
		store.Close()
		logger.Close()
		return nil, fmt.Errorf("failed to configure status lifecycle: %w", err)
	}

	ai := services.NewAIService(&cfg.Anthropic, logger)
	engine := conversation.NewEngine(ai, store,
		conversation.WithLogger(logger),
		conversation.WithThreshold(cfg.Conversation.CompletionThreshold),
		conversation.WithCapacities(conversation.Capacities{
			Functional:    cfg.Conversation.FunctionalCapacity,
			NonFunctional: cfg.Conversation.NonFunctionalCapacity,
			Domain:        cfg.Conversation.DomainCapacity,
		}),
	)

	return &App{
		config: cfg,
		store:  store,
		logger: logger,
		svc: server.Services{
			Auth:     services.NewAuthService(store, &cfg.Auth),
			Projects: services.NewProjectService(store, engine, machine, logger),
			Critique: services.NewCritiqueService(ai, logger),
			Export:   services.NewExportService(ai, exports, cfg.Export.CompanyName, logger),
			Naming:   services.NewNamingService(ai, logger),
		},
	}, nil
}

// exportStore always writes to the local output directory and mirrors to S3
// when enabled
func exportStore(ctx context.Context, cfg *config.Config) (repositories.ExportStore, error) {
	local := repositories.NewLocalExportStore(cfg.Export.OutputDir)
	if !cfg.Export.S3.Enabled {
		return local, nil
	}
	remote, err := repositories.NewS3ExportStore(ctx, cfg.Export.S3)
	if err != nil {
		return nil, fmt.Errorf("failed to configure S3 export: %w", err)
	}
	return repositories.NewMultiExportStore(local, remote), nil
}

// Close releases the database and log file
func (app *App) Close() {
	if err := app.store.Close(); err != nil {
		helpers.PrintWarning("Failed to close database: %v", err)
	}
	app.logger.Close()
}

// signIn opens a session for the --email/--password account, prompting for
// any missing credential
func (app *App) signIn(ctx context.Context) (*models.Session, error) {
	reader := bufio.NewReader(os.Stdin)
	user := strings.TrimSpace(email)
	if user == "" {
		user = prompt(reader, "Email: ")
	}
	secret := password
	if secret == "" {
		secret = prompt(reader, "Password: ")
	}

	session, err := app.svc.Auth.SignIn(ctx, user, secret)
	if err != nil {
		return nil, fmt.Errorf("%s", models.UserMessage(err))
	}
	return session, nil
}

func (app *App) signOut(ctx context.Context, session *models.Session) {
	if err := app.svc.Auth.SignOut(ctx, session.Token); err != nil {
		app.logger.Printf("cli: sign out failed: %v", err)
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// withSession runs fn with a loaded app and a signed-in session
func withSession(fn func(ctx context.Context, app *App, session *models.Session) error) error {
	ctx := context.Background()
	app, err := newApp(ctx, configFile)
	if err != nil {
		return err
	}
	defer app.Close()

	session, err := app.signIn(ctx)
	if err != nil {
		return err
	}
	defer app.signOut(ctx, session)

	return fn(ctx, app, session)
}

// userError turns a workflow error into the message shown to users
func userError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s", models.UserMessage(err))
}
