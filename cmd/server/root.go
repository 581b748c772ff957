package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var policyFlag string

	ctx := newCommandContext(&policyFlag)

	rootCmd := &cobra.Command{
		Use:           "tesotunes",
		Short:         "Album ingest, ISRC generation and registration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&policyFlag, "policy", "", "Content policy TOML file (overrides POLICY_FILE)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newWorkCommand(ctx))
	rootCmd.AddCommand(newTasksCommand(ctx))
	rootCmd.AddCommand(newSubmitCommand(ctx))

	return rootCmd
}
