package main

import (
	"fmt"

	"github.com/Chesten223/SoRight3/internal/config"
	"github.com/Chesten223/SoRight3/internal/platform/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|reset|status|version]",
		Short: "Manage the database schema",
		Long: "Apply or roll back the embedded schema migrations on the configured " +
			"postgres or sqlite database. The command defaults to up.",
		Args: cobra.MaximumNArgs(1),
		ValidArgs: []string{
			migrations.CommandUp,
			migrations.CommandDown,
			migrations.CommandReset,
			migrations.CommandStatus,
			migrations.CommandVersion,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := migrations.CommandUp
			if len(args) == 1 {
				command = args[0]
			}

			cfg, logger, err := bootstrap(opts, nil)
			if err != nil {
				return err
			}
			if cfg.Database.Driver == config.DriverMemory {
				return fmt.Errorf("migrations need a postgres or sqlite database, got driver %q", cfg.Database.Driver)
			}

			ctx := cmd.Context()
			db, _, err := openSQL(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			runner, err := migrations.NewRunner(db, cfg.Database.Driver, logger)
			if err != nil {
				return err
			}
			return runner.Run(ctx, command)
		},
	}
}
