package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "retailops/cmd/management-service/docs"
	"retailops/internal/config"
	"retailops/internal/constants"
	"retailops/internal/logger"
	sqlmigrations "retailops/migrations"
	"retailops/pkg/bootstrap"
	"retailops/pkg/logging"
	"retailops/pkg/migrations"
)

var (
	configFile string
)

// @title           RetailOps Management Service API
// @version         1.0
// @description     REST API for automation rules, customers and the activity feed

// @contact.name   API Support

// @host      localhost:8080
// @BasePath  /api/v1

// @schemes   http https

func main() {
	rootCmd := &cobra.Command{
		Use:   "management-service",
		Short: "Management Service for retail automation",
		Long:  "Management Service provides REST API for automation rules, customers and activity",
		RunE:  serveCmd().RunE,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (required)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(earlyLog *logging.EarlyLog) (*config.Config, error) {
	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
		if configFile == "" {
			earlyLog.Error("Config file is required. Use --config flag or CONFIG_FILE environment variable")
			return nil, fmt.Errorf("config file is required")
		}
	}

	earlyLog.Info("Loading config from %s", configFile)
	cfg, err := config.Load(configFile)
	if err != nil {
		earlyLog.Error("Failed to load config: %v", err)
		return nil, err
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the management service",
		RunE: func(cmd *cobra.Command, args []string) error {
			earlyLog := logging.NewEarlyLog(constants.ServiceNameManagement)

			cfg, err := loadConfig(earlyLog)
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				earlyLog.Error("Failed to init logger: %v", err)
				return err
			}
			defer log.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			ctx = logging.WithServiceName(ctx, constants.ServiceNameManagement)
			log.InfowCtx(ctx, "Starting Management Service")

			app := NewApp(cfg, log)
			if err := app.Initialize(ctx); err != nil {
				log.ErrorwCtx(ctx, "Failed to initialize application", "error", err)
				if shutdownErr := app.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
					log.WarnwCtx(ctx, "Cleanup after failed start was incomplete", "error", shutdownErr)
				}
				return err
			}

			if err := app.Run(ctx); err != nil {
				log.ErrorwCtx(ctx, "Application error", "error", err)
				return err
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the PostgreSQL schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(migrations.Up), string(migrations.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			earlyLog := logging.NewEarlyLog(constants.ServiceNameManagement)

			direction, err := migrations.ParseDirection(args[0])
			if err != nil {
				earlyLog.Error("%v", err)
				return err
			}

			cfg, err := loadConfig(earlyLog)
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				earlyLog.Error("Failed to init logger: %v", err)
				return err
			}
			defer log.Sync()

			ctx, cancel := context.WithTimeout(context.Background(), constants.InitTimeout)
			defer cancel()

			dbConnector := bootstrap.NewDatabaseConnector(cfg, log)
			db, err := dbConnector.InitPostgreSQL(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrations.RunPostgres(db, sqlmigrations.Postgres, sqlmigrations.PostgresDir, direction); err != nil {
				log.ErrorwCtx(ctx, "Migration failed", "direction", direction, "error", err)
				return err
			}
			log.InfowCtx(ctx, "Migrations applied", "direction", direction)
			return nil
		},
	}
}
