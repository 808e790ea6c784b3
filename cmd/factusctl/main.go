package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/factusapp/factusapp/internal/config"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/postgres"
	"github.com/factusapp/factusapp/internal/repository"
	"github.com/factusapp/factusapp/internal/service"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "factusctl",
		Short:         "Administrative tasks for the invoicing service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	var timeout time.Duration
	root.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "maximum time a command may run")

	root.AddCommand(
		newMigrateCmd(&timeout),
		newResetQuotasCmd(&timeout),
	)
	return root
}

func newMigrateCmd(timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), *timeout, func(ctx context.Context, env *environment) error {
				env.logger.Info("running database migrations...")
				if err := env.db.Migrate(ctx); err != nil {
					return err
				}
				env.logger.Info("migration completed successfully")
				return nil
			})
		},
	}
}

func newResetQuotasCmd(timeout *time.Duration) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "reset-quotas",
		Short: "Reset monthly invoice counters not reset since the start of the month",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if at != "" {
				parsed, err := time.Parse(time.DateOnly, at)
				if err != nil {
					return fmt.Errorf("invalid --at date %q: %w", at, err)
				}
				now = parsed
			}

			return withDB(cmd.Context(), *timeout, func(ctx context.Context, env *environment) error {
				svc := service.NewQuotaService(service.ServiceParams{
					Logger:   env.logger,
					Config:   env.cfg,
					DB:       env.db,
					UserRepo: repository.NewUserRepository(env.db, env.logger),
				})
				reset, err := svc.ResetMonthlyQuotas(ctx, now)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "reset %d users\n", reset)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "reference date (YYYY-MM-DD), defaults to today")
	return cmd
}

type environment struct {
	cfg    *config.Configuration
	logger *logger.Logger
	db     *postgres.DB
}

func withDB(parent context.Context, timeout time.Duration, fn func(ctx context.Context, env *environment) error) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Infow("connecting to database", "host", cfg.Postgres.Host, "dbname", cfg.Postgres.DBName)
	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	return fn(ctx, &environment{cfg: cfg, logger: log, db: db})
}
