package main

import (
	"encoding/json"
	"fmt"

	"github.com/phrazzld/lingdou-api/internal/events"
	"github.com/phrazzld/lingdou-api/internal/platform/postgres"
	"github.com/phrazzld/lingdou-api/internal/service/ledger"
	"github.com/spf13/cobra"
)

func newAuditCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Replay every ledger account and report balance drift",
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

			svc, err := ledger.NewService(postgres.NewUnitOfWork(db, logger), events.NopEmitter{}, logger)
			if err != nil {
				return err
			}
			report, err := svc.Audit(ctx)
			if err != nil {
				return err
			}
			return writeAuditReport(cmd, report)
		},
	}
}

func writeAuditReport(cmd *cobra.Command, report *ledger.AuditReport) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if n := len(report.Violations); n > 0 {
		return fmt.Errorf("ledger audit found %d inconsistent accounts", n)
	}
	return nil
}
