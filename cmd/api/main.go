package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskloop/core/cmd/api/commands"
)

// @title TaskLoop API
// @version 1.0
// @description Team task management with recurring tasks and voice capture
// @termsOfService https://github.com/taskloop/core/blob/main/LICENSE

// @contact.name TaskLoop Support
// @contact.url https://github.com/taskloop/core
// @contact.email support@taskloop.dev

// @license.name MIT
// @license.url https://github.com/taskloop/core/blob/main/LICENSE

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskloop",
		Short: "TaskLoop API Server",
		Long:  `TaskLoop is a team task management system with recurring-task regeneration, voice-driven capture, and team dashboards.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
