package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cindral/core/internal/parser"
)

func importCmd(opts *rootOptions) *cobra.Command {
	var tenant string

	cmd := &cobra.Command{
		Use:   "import <dataset.json>",
		Short: "Load a tenant dataset into the SQL store",
		Long:  "Reads a JSON dataset (regulations, articles, systems, impacts) and upserts it for one tenant. Requires the sql source.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("cannot read dataset: %w", err)
			}
			data, err := parser.ParseDataset(raw)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.close()
			if a.db == nil {
				return errors.New("import needs the sql source")
			}

			if err := a.db.ImportDataset(cmd.Context(), tenant, data); err != nil {
				return err
			}
			opts.logger.Info("dataset imported",
				"tenant", tenant,
				"regulations", len(data.Regulations),
				"articles", len(data.Articles),
				"systems", len(data.Systems),
				"impacts", len(data.Impacts),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d regulations, %d articles, %d systems, %d impacts into %s\n",
				len(data.Regulations), len(data.Articles), len(data.Systems), len(data.Impacts), tenant)
			return nil
		},
	}
	cmd.Flags().StringVarP(&tenant, "tenant", "t", "", "organization id (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
