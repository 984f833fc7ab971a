package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"requira/internal/config"
	"requira/internal/helpers"
	"requira/internal/models"
	"requira/internal/server"
	"requira/internal/services"
	"requira/internal/srs"
)

func runInit(cmd *cobra.Command, args []string) error {
	helpers.PrintTitle("Initializing Requira Configuration")

	if helpers.FileExists(configFile) {
		reader := bufio.NewReader(os.Stdin)
		answer := prompt(reader, fmt.Sprintf("Configuration file already exists at %s. Overwrite it? (y/N): ", configFile))
		answer = strings.ToLower(answer)
		if answer != "y" && answer != "yes" {
			helpers.PrintInfo("Configuration initialization cancelled.")
			return nil
		}
	}

	cfg := config.Default()
	cfg.Anthropic.APIKey = "your-anthropic-api-key-here"
	cfg.Auth.AdminEmails = []string{"admin@example.com"}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := helpers.WriteFileAtomic(configFile, data); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	helpers.PrintSuccess("Configuration file created at %s", configFile)
	helpers.PrintWarning("Please add your Anthropic API key and admin emails before running serve.")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, configFile)
	if err != nil {
		return err
	}
	defer app.Close()

	if removed, err := app.svc.Auth.PurgeExpired(ctx); err != nil {
		helpers.PrintWarning("Failed to purge expired sessions: %v", err)
	} else if removed > 0 {
		app.logger.Printf("cli: purged %d expired sessions", removed)
	}

	srv := server.NewServer(app.config.Server, app.svc, server.WithLogger(app.logger))
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	helpers.PrintSuccess("Requira API listening on %s", srv.BaseURL())

	<-ctx.Done()
	helpers.PrintInfo("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	company, _ := cmd.Flags().GetString("company")
	admin, _ := cmd.Flags().GetBool("admin")

	ctx := context.Background()
	app, err := newApp(ctx, configFile)
	if err != nil {
		return err
	}
	defer app.Close()

	role := models.UserRoleClient
	if admin || app.config.Auth.IsAdminEmail(email) {
		role = models.UserRoleAdmin
	}

	secret := password
	if secret == "" {
		secret = prompt(bufio.NewReader(os.Stdin), "Password: ")
	}

	user, err := app.svc.Auth.Register(ctx, services.SignUpForm{
		Email:    email,
		Password: secret,
		Name:     name,
		Company:  company,
	}, role)
	if err != nil {
		return userError(err)
	}

	helpers.PrintSuccess("Registered %s (%s) as %s", user.Profile.Name, user.Email, user.Role)
	return nil
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	return withSession(func(ctx context.Context, app *App, session *models.Session) error {
		projects, err := app.svc.Projects.List(ctx, session)
		if err != nil {
			return userError(err)
		}

		helpers.PrintTitle("Projects (%d)", len(projects))
		if len(projects) == 0 {
			helpers.PrintInfo("No projects yet.")
			return nil
		}
		for _, p := range projects {
			fmt.Printf("%s %s\n", helpers.StatusBadge(p.Status), p.ProjectTitle)
			fmt.Printf("   id: %s  client: %s (%s)  created: %s\n",
				p.ID, p.ClientName, p.CompanyName, p.CreatedAt.Local().Format("2006-01-02 15:04"))
			if p.IsGathering() && p.ReadyToSubmit {
				helpers.PrintInfo("   Ready to submit")
			}
		}
		return nil
	})
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	description, _ := cmd.Flags().GetString("description")
	return withSession(func(ctx context.Context, app *App, session *models.Session) error {
		p, err := app.svc.Projects.Create(ctx, session, args[0], description)
		if err != nil {
			return userError(err)
		}
		helpers.PrintSuccess("Created project %q (%s)", p.ProjectTitle, p.ID)
		return nil
	})
}

func runProjectsStats(cmd *cobra.Command, args []string) error {
	return withSession(func(ctx context.Context, app *App, session *models.Session) error {
		stats, err := app.svc.Projects.Stats(ctx, session)
		if err != nil {
			return userError(err)
		}

		helpers.PrintTitle("Project Statistics")
		fmt.Printf("  %-20s %d\n", "Total", stats.Total)
		rows := []struct {
			status models.ProjectStatus
			count  int
		}{
			{models.StatusIncomplete, stats.Incomplete},
			{models.StatusUnderReview, stats.UnderReview},
			{models.StatusInProgress, stats.InProgress},
			{models.StatusNeedsImprovement, stats.NeedsImprovement},
			{models.StatusCompleted, stats.Completed},
		}
		for _, row := range rows {
			fmt.Printf("  %-20s %d\n", row.status.Label(), row.count)
		}
		return nil
	})
}

func runChat(cmd *cobra.Command, args []string) error {
	return withSession(func(ctx context.Context, app *App, session *models.Session) error {
		id := args[0]
		p, err := app.svc.Projects.Get(ctx, session, id)
		if err != nil {
			return userError(err)
		}

		helpers.PrintTitle("Requirements Chat: %s", p.ProjectTitle)
		if len(p.History) == 0 {
			started, err := app.svc.Projects.StartConversation(ctx, session, id)
			if started == nil {
				return userError(err)
			}
			if err != nil {
				helpers.PrintWarning("%s", models.UserMessage(err))
			}
			p = started
		}
		for _, msg := range p.History {
			if msg.Role == models.RoleAssistant {
				helpers.PrintAssistant(msg.Text)
			} else {
				helpers.PrintUser(msg.Text)
			}
		}
		if !p.IsGathering() {
			helpers.PrintWarning("This project has been submitted; the conversation is closed.")
			return nil
		}

		scanner := bufio.NewScanner(os.Stdin)
		for {
			if helpers.IsTerminal() {
				fmt.Print("> ")
			}
			if !scanner.Scan() {
				return scanner.Err()
			}
			text := strings.TrimSpace(scanner.Text())
			switch text {
			case "":
				continue
			case "/quit", "/exit":
				return nil
			case "/submit":
				submitted, err := app.svc.Projects.Submit(ctx, session, id)
				if err != nil {
					helpers.PrintError("%s", models.UserMessage(err))
					continue
				}
				helpers.PrintSuccess("Submitted. Status: %s", helpers.StatusBadge(submitted.Status))
				return nil
			}

			_, turn, err := app.svc.Projects.SendMessage(ctx, session, id, text)
			if err != nil {
				if turn == nil {
					helpers.PrintError("%s", models.UserMessage(err))
					continue
				}
				helpers.PrintWarning("Your message was answered but could not be saved.")
			}
			helpers.PrintAssistant(turn.Reply.Text)
			if turn.Ready {
				helpers.PrintInfo("Requirements are ready. Type /submit to send them for review.")
			}
		}
	})
}

func runSubmit(cmd *cobra.Command, args []string) error {
	return withSession(func(ctx context.Context, app *App, session *models.Session) error {
		p, err := app.svc.Projects.Submit(ctx, session, args[0])
		if err != nil {
			return userError(err)
		}
		helpers.PrintSuccess("Submitted %q. Status: %s", p.ProjectTitle, helpers.StatusBadge(p.Status))
		return nil
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	status, ok := models.ParseStatus(args[1])
	if !ok {
		return fmt.Errorf("unknown status %q", args[1])
	}
	return withSession(func(ctx context.Context, app *App, session *models.Session) error {
		p, err := app.svc.Projects.SetStatus(ctx, session, args[0], status)
		if err != nil {
			return userError(err)
		}
		helpers.PrintSuccess("%s is now %s", p.ProjectTitle, helpers.StatusBadge(p.Status))
		return nil
	})
}

func runCritique(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	return withSession(func(ctx context.Context, app *App, session *models.Session) error {
		if !session.User.IsAdmin() {
			return userError(models.ErrForbidden)
		}
		p, err := app.svc.Projects.Get(ctx, session, args[0])
		if err != nil {
			return userError(err)
		}

		helpers.PrintInfo("Requesting critique...")
		report, raw, err := app.svc.Critique.Critique(ctx, p)
		if err != nil {
			return userError(err)
		}
		services.DisplayCritique(p.ProjectTitle, report)

		if output != "" {
			if err := helpers.SaveJSON(services.CritiqueResult{Report: report, Raw: raw}, output); err != nil {
				return fmt.Errorf("failed to save critique: %w", err)
			}
			helpers.PrintSuccess("Critique saved to %s", output)
		}
		return nil
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := srs.ParseMode(modeFlag)
	if err != nil {
		return err
	}
	return withSession(func(ctx context.Context, app *App, session *models.Session) error {
		if !session.User.IsAdmin() {
			return userError(models.ErrForbidden)
		}
		p, err := app.svc.Projects.Get(ctx, session, args[0])
		if err != nil {
			return userError(err)
		}

		helpers.PrintInfo("Exporting %s (%s)...", p.ProjectTitle, mode)
		result, err := app.svc.Export.Export(ctx, p, mode)
		if err != nil {
			var formatErr *services.SRSFormatError
			if errors.As(err, &formatErr) {
				app.logger.Printf("cli: unparsed SRS reply for %s: %s", p.ID, formatErr.Raw)
			}
			return userError(err)
		}

		location := result.FileName
		if result.Stored != nil {
			location = result.Stored.Location
		}
		helpers.PrintSuccess("Exported %s (%d bytes)", location, len(result.Data))
		return nil
	})
}

func runSuggestNames(cmd *cobra.Command, args []string) error {
	adopt, _ := cmd.Flags().GetInt("adopt")
	return withSession(func(ctx context.Context, app *App, session *models.Session) error {
		p, err := app.svc.Projects.Get(ctx, session, args[0])
		if err != nil {
			return userError(err)
		}

		names, err := app.svc.Naming.Suggest(ctx, p)
		if err != nil {
			return userError(err)
		}
		if err := app.svc.Projects.SaveSuggestions(ctx, p, names); err != nil {
			return userError(err)
		}

		helpers.PrintTitle("Name Suggestions for %s", p.ProjectTitle)
		for i, name := range names {
			fmt.Printf("  %d. %s\n", i+1, name)
		}

		if adopt <= 0 {
			return nil
		}
		if adopt > len(names) {
			return fmt.Errorf("--adopt must be between 1 and %d", len(names))
		}
		renamed, err := app.svc.Projects.AdoptName(ctx, session, p.ID, names[adopt-1])
		if err != nil {
			return userError(err)
		}
		helpers.PrintSuccess("Project renamed to %q", renamed.ProjectTitle)
		return nil
	})
}
