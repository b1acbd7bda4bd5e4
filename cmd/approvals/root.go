package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	actorID int64
}

func newRootCmd() *cobra.Command {
	var g globalOptions
	cmd := &cobra.Command{
		Use:           "approvals",
		Short:         "Spending request approval workflow",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().Int64Var(&g.actorID, "actor", 0, "Acting user id")

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newOptionsCmd())
	cmd.AddCommand(newDraftCmd(&g))
	cmd.AddCommand(newSubmitCmd(&g))
	cmd.AddCommand(newValidateCmd(&g))
	cmd.AddCommand(newDirectCmd(&g))
	cmd.AddCommand(newShowCmd(&g))
	cmd.AddCommand(newDashboardCmd(&g))
	cmd.AddCommand(newDepsCmd(&g))
	cmd.AddCommand(newPurgeCmd(&g))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
