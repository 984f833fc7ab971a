package main

import (
	"os"

	"github.com/spf13/cobra"

	"requira/internal/helpers"
)

var (
	configFile string
	email      string
	password   string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "requira",
		Short: "Requira - AI-assisted requirements gathering",
		Long: `Requira interviews clients about their software projects, turns the
conversation into categorised requirements and lets admins review, critique
and export them as SRS documents.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&email, "email", "e", "", "Account email")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "Account password (prompted when empty)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	})

	// Users
	var usersCmd = &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
	}
	var usersAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Register an account",
		Args:  cobra.NoArgs,
		RunE:  runUsersAdd,
	}
	usersAddCmd.Flags().String("name", "", "Display name")
	usersAddCmd.Flags().String("company", "", "Company name (clients only)")
	usersAddCmd.Flags().Bool("admin", false, "Grant the admin role")
	usersCmd.AddCommand(usersAddCmd)
	rootCmd.AddCommand(usersCmd)

	// Projects
	var projectsCmd = &cobra.Command{
		Use:   "projects",
		Short: "Work with projects",
	}
	projectsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the projects visible to the account",
		Args:  cobra.NoArgs,
		RunE:  runProjectsList,
	})
	var projectsCreateCmd = &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new project",
		Args:  cobra.ExactArgs(1),
		RunE:  runProjectsCreate,
	}
	projectsCreateCmd.Flags().StringP("description", "d", "", "Project description")
	projectsCmd.AddCommand(projectsCreateCmd)
	projectsCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show project counts per status (admin)",
		Args:  cobra.NoArgs,
		RunE:  runProjectsStats,
	})
	rootCmd.AddCommand(projectsCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "chat <project-id>",
		Short: "Describe a project's requirements to the assistant",
		Long:  "Start or continue the requirements conversation. Type /submit to submit a ready project and /quit to leave.",
		Args:  cobra.ExactArgs(1),
		RunE:  runChat,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "submit <project-id>",
		Short: "Submit a ready project for review",
		Args:  cobra.ExactArgs(1),
		RunE:  runSubmit,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "status <project-id> <status>",
		Short: "Change a submitted project's status (admin)",
		Args:  cobra.ExactArgs(2),
		RunE:  runStatus,
	})

	var critiqueCmd = &cobra.Command{
		Use:   "critique <project-id>",
		Short: "Critique a project's requirements (admin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runCritique,
	}
	critiqueCmd.Flags().StringP("output", "o", "", "Also save the critique as JSON to this file")
	rootCmd.AddCommand(critiqueCmd)

	var exportCmd = &cobra.Command{
		Use:   "export <project-id>",
		Short: "Export a project's requirements as a PDF (admin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().StringP("mode", "m", "structured", "Export mode (simple, structured)")
	rootCmd.AddCommand(exportCmd)

	var namesCmd = &cobra.Command{
		Use:   "suggest-names <project-id>",
		Short: "Suggest names for a project",
		Args:  cobra.ExactArgs(1),
		RunE:  runSuggestNames,
	}
	namesCmd.Flags().Int("adopt", 0, "Rename the project to the Nth suggestion")
	rootCmd.AddCommand(namesCmd)

	if err := rootCmd.Execute(); err != nil {
		helpers.PrintError("Error: %v", err)
		os.Exit(1)
	}
}
