package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/lingdou-api/internal/config"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "lingdou",
		Short:        "Progress and rewards engine for interview training",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "",
		"path to a config file (defaults to ./config.yaml when present)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newAuditCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}

// load reads the configuration and installs the configured logger as the
// slog default.
func (o *rootOptions) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(o.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Debug("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("grader_provider", cfg.Grader.Provider),
		slog.Bool("redis_cache", cfg.Cache.RedisAddr != ""))
	return cfg, log, nil
}
