package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"homedash/internal/dashboard"
	"homedash/internal/storage"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Export or import the dashboard configuration.",
	}
	cmd.AddCommand(newConfigExportCmd(a))
	cmd.AddCommand(newConfigImportCmd(a))
	return cmd
}

func newConfigExportCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the apps and dashboard settings as a bundle.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := dashboard.ParseFormat(format)
			if err != nil {
				return err
			}
			store, closeStore, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			data, err := store.Export(f)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "bundle format: json or yaml")
	return cmd
}

func newConfigImportCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the apps and dashboard settings with the contents of a bundle.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(path), ".")
			}
			f, err := dashboard.ParseFormat(format)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read bundle: %w", err)
			}

			store, closeStore, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			bundle, err := store.Import(cmd.Context(), data, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d app(s) from %s\n", len(bundle.Apps), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "bundle format: json or yaml (default from file extension)")
	return cmd
}

func (a *app) openStore(cmd *cobra.Command) (*dashboard.Store, func(), error) {
	backend, err := storage.Open(cmd.Context(), a.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	store := dashboard.NewStore(a.logger, backend)
	if err := store.Load(cmd.Context()); err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	return store, func() { _ = backend.Close() }, nil
}
