// Package main is the SoRight study server. It serves the notes and
// notebook trees, the question catalog and the review schedule over HTTP,
// and carries the maintenance commands for migrations, imports and tokens.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "soright",
		Short:         "Personal study server for notes, notebooks and question review",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"path to a config file (defaults to ./config.yaml when present)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newImportCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger, err := bootstrap(opts, nil)
			if err != nil {
				return err
			}

			backend, err := openBackend(ctx, cfg, logger, true)
			if err != nil {
				return err
			}

			app, err := newApplication(cfg, logger, backend)
			if err != nil {
				backend.Close(logger)
				return err
			}
			return app.Run(ctx)
		},
	}
}
