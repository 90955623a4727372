package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eaa-compliance-agent/internal/bootstrap"
	"eaa-compliance-agent/internal/feedback"
)

func auditCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "audit <url>",
		Short: "Audit one page and print the compliance report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			pipeline, err := bootstrap.Pipeline(cfg, logger)
			if err != nil {
				return err
			}
			return runAudit(cmd, pipeline, args[0])
		},
	}
}

func runAudit(cmd *cobra.Command, runner feedback.Runner, url string) error {
	report, err := runner.Run(cmd.Context(), url)
	if err != nil {
		if kind := feedback.Kind(err); kind != "" {
			return fmt.Errorf("%s: %w", kind, err)
		}
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), report)
	return err
}
