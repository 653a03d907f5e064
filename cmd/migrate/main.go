package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/membercards/pkg/config"
	"github.com/angelmondragon/membercards/pkg/db"
	"github.com/angelmondragon/membercards/pkg/logger"
	"github.com/angelmondragon/membercards/pkg/migrate"
)

var dirFlag string

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the member registry schema",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "migrations root holding postgres/ and sqlite/ (default: built into the binary, or "+migrate.DefaultDir+" for create/validate)")

	for _, command := range []string{"up", "down", "status"} {
		rootCmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: "goose " + command + " against the configured store",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(cmd.Context(), func(ctx context.Context, m migration) error {
					return migrate.Run(ctx, m.db, m.driver, dirFlag, command)
				})
			},
		})
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "to VERSION",
		Short: "Migrate up or down to VERSION (YYYYMMDDHHMMSS)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, m migration) error {
				return migrate.MigrateToVersion(ctx, m.db, m.driver, dirFlag, args[0])
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "create NAME",
		Short: "Add an empty migration for every SQL driver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			for _, driver := range sqlDrivers() {
				path, err := migrate.CreateSQLMigration(sourceDir(driver), args[0], now)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "created", path)
			}
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check migration names, goose markers and driver parity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var dirs []string
			for _, driver := range sqlDrivers() {
				dirs = append(dirs, sourceDir(driver))
			}
			if err := migrate.ValidateDirs(dirs...); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations ok")
			return nil
		},
	})
}

type migration struct {
	db     *sql.DB
	driver string
}

// withDatabase loads config, opens the configured SQL store and hands it to fn.
func withDatabase(ctx context.Context, fn func(context.Context, migration) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	driver := cfg.Store.NormalizedDriver()
	if !cfg.Store.UsesDB() {
		return fmt.Errorf("store driver %q has no database to migrate", driver)
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": driver})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "migrate.database_unavailable", err)
		return err
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	return fn(ctx, migration{db: sqlDB, driver: driver})
}

func sqlDrivers() []string {
	return []string{config.StoreDriverPostgres, config.StoreDriverSQLite}
}

func sourceDir(driver string) string {
	root := dirFlag
	if root == "" {
		root = migrate.DefaultDir
	}
	return migrate.DriverDir(root, driver)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
