package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/sessionauth/internal/config"
	"github.com/yourusername/sessionauth/internal/logging"
	"github.com/yourusername/sessionauth/internal/users"
)

// NewRootCmd はルートコマンドを作成します。サブコマンドなしで起動するとサーバーを動かします。
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sessionauth",
		Short:         "Session based register/login web app",
		SilenceUsage:  true,
		RunE:          runServe,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// NewServeCmd は serve サブコマンドを作成します。
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

// NewMigrateCmd は migrate サブコマンドを作成します。
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Apply the embedded PostgreSQL migrations for the users table.`,
		RunE:  runMigrate,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	return serve(cmd.Context(), cfg, logger)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx := cmd.Context()
	cmd.Println("Connecting to database...")
	pool, db, err := openPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	defer db.Close()

	cmd.Println("Running migrations...")
	if err := users.Migrate(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
