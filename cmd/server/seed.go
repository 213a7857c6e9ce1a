package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/lingdou-api/internal/platform/cache"
	"github.com/phrazzld/lingdou-api/internal/platform/catalogfile"
	"github.com/phrazzld/lingdou-api/internal/platform/postgres"
	"github.com/phrazzld/lingdou-api/internal/service/catalog"
	"github.com/spf13/cobra"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "seed <catalog.yaml>",
		Short: "Load the training catalog and shop products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := catalogfile.Load(args[0])
			if err != nil {
				return err
			}
			if dryRun {
				printSummary(cmd, file.Count())
				return nil
			}

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

			uow := postgres.NewUnitOfWork(db, logger)
			sum, err := catalogfile.Seed(ctx, uow, file, logger)
			if err != nil {
				return err
			}

			// Running servers may hold a cached catalog in Redis.
			c, err := newCache(ctx, cfg.Cache, logger)
			if err != nil {
				return err
			}
			if rc, ok := c.(*cache.RedisCache); ok {
				defer func() { _ = rc.Close() }()
			}
			svc, err := catalog.NewService(uow.Stores().Catalog, c, 0, logger)
			if err != nil {
				return err
			}
			if err := svc.Invalidate(ctx); err != nil {
				logger.Warn("failed to invalidate catalog cache", slog.String("error", err.Error()))
			}

			printSummary(cmd, sum)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the file and print counts without writing")
	return cmd
}

func printSummary(cmd *cobra.Command, sum catalogfile.Summary) {
	fmt.Fprintf(cmd.OutOrStdout(), "categories=%d modules=%d topics=%d products=%d\n",
		sum.Categories, sum.Modules, sum.Topics, sum.Products)
}
