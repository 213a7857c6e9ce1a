package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/lingdou-api/internal/platform/postgres/migrations"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

// slogGooseLogger forwards goose output to slog. Fatalf does not exit so
// that failures surface as command errors.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		migrateSubcommand(opts, "up", "Apply all pending migrations", goose.UpContext),
		migrateSubcommand(opts, "down", "Roll back the latest migration", goose.DownContext),
		migrateSubcommand(opts, "status", "Show the state of every migration", goose.StatusContext),
		migrateSubcommand(opts, "version", "Print the current schema version", goose.VersionContext),
	)
	return cmd
}

type gooseCommand func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error

func migrateSubcommand(opts *rootOptions, use, short string, run gooseCommand) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := openDatabase(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := configureGoose(logger); err != nil {
				return err
			}
			logger.Info("running migrations", slog.String("command", use))
			if err := run(ctx, db, "."); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			return nil
		},
	}
}

func configureGoose(logger *slog.Logger) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(&slogGooseLogger{logger: logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}
