package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Chesten223/SoRight3/internal/importer"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load question catalogs or legacy user data",
	}
	cmd.AddCommand(newImportCatalogCmd(opts), newImportLegacyCmd(opts))
	return cmd
}

func newImportCatalogCmd(opts *rootOptions) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "catalog FILE...",
		Short: "Import question catalog files (JSON or YAML)",
		Long: "Import question catalog files. Questions whose id is already in the " +
			"catalog are skipped, so re-running an import is safe.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			backend, err := openBackend(cmd.Context(), cfg, logger, true)
			if err != nil {
				return err
			}
			defer backend.Close(logger)

			res, err := importer.New(backend.tx, logger).ImportCatalog(cmd.Context(), args, mode)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "assign this mode to every imported question")
	return cmd
}

func newImportLegacyCmd(opts *rootOptions) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "legacy FILE",
		Short: "Import a legacy user data file for one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}

			cfg, logger, err := bootstrap(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			backend, err := openBackend(cmd.Context(), cfg, logger, true)
			if err != nil {
				return err
			}
			defer backend.Close(logger)

			res, err := importer.New(backend.tx, logger).ImportLegacy(cmd.Context(), userID, args[0])
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "id of the user that owns the imported data")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printResult(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
