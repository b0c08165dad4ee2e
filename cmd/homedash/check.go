package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"homedash/internal/connectivity"
)

type checkOutput struct {
	URL    string              `json:"url"`
	Class  string              `json:"class"`
	Result connectivity.Result `json:"result"`
}

type checkReport struct {
	Internet *bool         `json:"internet,omitempty"`
	Targets  []checkOutput `json:"targets"`
}

func newCheckCmd(a *app) *cobra.Command {
	var internet bool

	cmd := &cobra.Command{
		Use:   "check <url>...",
		Short: "Run a connectivity check against one or more URLs and print the results as JSON.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			checker := a.newChecker()

			report := checkReport{Targets: make([]checkOutput, len(args))}
			var g errgroup.Group
			for i, raw := range args {
				i, raw := i, raw
				g.Go(func() error {
					report.Targets[i] = checkOutput{
						URL:    raw,
						Class:  string(connectivity.Classify(connectivity.NormalizeURL(strings.TrimSpace(raw), true))),
						Result: checker.Check(ctx, raw),
					}
					return nil
				})
			}
			if internet {
				g.Go(func() error {
					online := a.newInternetChecker().Online(ctx)
					report.Internet = &online
					return nil
				})
			}
			_ = g.Wait()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&internet, "internet", false, "also check general internet reachability")
	return cmd
}
