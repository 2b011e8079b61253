package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/civicpulse-backend/internal/app"
	"github.com/yungbote/civicpulse-backend/internal/data/db"
	"github.com/yungbote/civicpulse-backend/internal/data/repos"
	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
	"github.com/yungbote/civicpulse-backend/internal/services"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootFlags struct {
	addr    string
	logMode string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "civicpulse",
		Short:         "CivicPulse citizen issue reporting API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.logMode, "log-mode", "", "log mode: development, production or test (overrides LOG_MODE)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	serve.Flags().StringVar(&flags.addr, "addr", "", "listen address (overrides HTTP_ADDR)")

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(flags)
		},
	}

	promote := &cobra.Command{
		Use:   "promote-admin <email>",
		Short: "Grant the admin role to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromoteAdmin(cmd.Context(), flags, args[0])
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	root.AddCommand(serve, migrate, promote, versionCmd)
	return root
}

func setup(flags *rootFlags) (*logger.Logger, app.Config, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, app.Config{}, fmt.Errorf("load config: %w", err)
	}
	if flags.logMode != "" {
		cfg.LogMode = flags.logMode
	}
	if flags.addr != "" {
		cfg.Addr = flags.addr
	}
	if cfg.Version == "dev" {
		cfg.Version = version
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, app.Config{}, fmt.Errorf("init logger: %w", err)
	}
	return log, cfg, nil
}

func runServe(ctx context.Context, flags *rootFlags) error {
	log, cfg, err := setup(flags)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Error("Startup failed", "error", err)
		log.Sync()
		return err
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Error("Server stopped with error", "error", err)
		return err
	}
	log.Info("Server stopped")
	return nil
}

func openDB(flags *rootFlags) (*logger.Logger, *db.PostgresService, error) {
	log, cfg, err := setup(flags)
	if err != nil {
		return nil, nil, err
	}
	pg, err := db.NewPostgresService(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	return log, pg, nil
}

func runMigrate(flags *rootFlags) error {
	log, pg, err := openDB(flags)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer pg.Close()

	if err := pg.AutoMigrateAll(); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	log.Info("Migrations applied", "driver", pg.Driver())
	return nil
}

func runPromoteAdmin(ctx context.Context, flags *rootFlags, email string) error {
	log, pg, err := openDB(flags)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer pg.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	theDB := pg.DB()
	authService := services.NewAuthService(
		theDB, log,
		repos.NewUserRepo(theDB, log),
		repos.NewUserTokenRepo(theDB, log),
		cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL,
	)
	u, err := authService.PromoteAdmin(ctx, email)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s) is now %s\n", u.Email, u.ID, u.Role)
	return nil
}
