package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iota-uz/approvals/modules/requests/domain/aggregates/request"
	"github.com/iota-uz/approvals/modules/requests/services"
)

func parseRequestID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, withCode(exitUsage, fmt.Errorf("invalid request id %q", arg))
	}
	return id, nil
}

// runWithActor opens the app, resolves the acting user and hands both to fn.
func runWithActor(cmd *cobra.Command, g *globalOptions, fn func(a *app, actor services.Actor) error) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()
	actor, err := a.actor(g.actorID)
	if err != nil {
		return err
	}
	return fn(a, actor)
}

func newDraftCmd(g *globalOptions) *cobra.Command {
	var flags payloadFlags
	var updateID int64
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Create a draft request, or update one with --id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := flags.payload()
			if err != nil {
				return withCode(exitUsage, err)
			}
			return runWithActor(cmd, g, func(a *app, actor services.Actor) error {
				if updateID > 0 {
					return report(a.module.Engine.UpdateDraft(a.ctx, actor, updateID, payload))
				}
				return report(a.module.Engine.CreateDraft(a.ctx, actor, payload))
			})
		},
	}
	flags.bind(cmd.Flags())
	cmd.Flags().Int64Var(&updateID, "id", 0, "Update this draft instead of creating one")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newSubmitCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <id>",
		Short: "Submit a draft for approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRequestID(args[0])
			if err != nil {
				return err
			}
			return runWithActor(cmd, g, func(a *app, actor services.Actor) error {
				return report(a.module.Engine.Submit(a.ctx, actor, id))
			})
		},
	}
}

func newValidateCmd(g *globalOptions) *cobra.Command {
	var decision, comment string
	cmd := &cobra.Command{
		Use:   "validate <id>",
		Short: "Approve or reject the pending stage of a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRequestID(args[0])
			if err != nil {
				return err
			}
			return runWithActor(cmd, g, func(a *app, actor services.Actor) error {
				return report(a.module.Engine.Validate(a.ctx, actor, id, request.Decision(decision), comment))
			})
		},
	}
	cmd.Flags().StringVar(&decision, "decision", "", "approve|reject")
	cmd.Flags().StringVar(&comment, "comment", "", "Decision comment")
	_ = cmd.MarkFlagRequired("decision")
	return cmd
}

func newDirectCmd(g *globalOptions) *cobra.Command {
	var (
		flags       payloadFlags
		onBehalfOf  int64
		directorID  int64
		autoApprove bool
		note        string
	)
	cmd := &cobra.Command{
		Use:   "direct",
		Short: "Create a request that skips the draft stage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := flags.payload()
			if err != nil {
				return withCode(exitUsage, err)
			}
			params := services.DirectParams{
				Payload:     payload,
				AutoApprove: autoApprove,
				Comment:     note,
			}
			if onBehalfOf > 0 {
				params.OnBehalfOf = &onBehalfOf
			}
			if directorID > 0 {
				params.DirectorID = &directorID
			}
			return runWithActor(cmd, g, func(a *app, actor services.Actor) error {
				return report(a.module.Engine.CreateDirect(a.ctx, actor, params))
			})
		},
	}
	flags.bind(cmd.Flags())
	cmd.Flags().Int64Var(&onBehalfOf, "on-behalf-of", 0, "Owner of the request (defaults to the actor)")
	cmd.Flags().Int64Var(&directorID, "director", 0, "Director recorded as having approved")
	cmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "Approve every stage immediately")
	cmd.Flags().StringVar(&note, "note", "", "Comment stored on the recorded decisions")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newShowCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a request visible to the actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRequestID(args[0])
			if err != nil {
				return err
			}
			return runWithActor(cmd, g, func(a *app, actor services.Actor) error {
				return report(a.module.Dashboard.Get(a.ctx, actor, id))
			})
		},
	}
}

func newDashboardCmd(g *globalOptions) *cobra.Command {
	var (
		statuses []string
		limit    int
		offset   int
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print request counts, or list requests with --status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			wanted := make([]request.Status, 0, len(statuses))
			for _, s := range statuses {
				st := request.Status(s)
				if !st.Valid() {
					return withCode(exitUsage, fmt.Errorf("unknown status %q", s))
				}
				wanted = append(wanted, st)
			}
			return runWithActor(cmd, g, func(a *app, actor services.Actor) error {
				if len(wanted) > 0 {
					return report(a.module.Dashboard.List(a.ctx, actor, wanted, limit, offset))
				}
				return report(a.module.Dashboard.DashboardCounts(a.ctx, actor))
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "List requests in these statuses")
	cmd.Flags().IntVar(&limit, "limit", 50, "Page size for --status")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset for --status")
	return cmd
}

func newDepsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deps <id>",
		Short: "Count the records that reference a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRequestID(args[0])
			if err != nil {
				return err
			}
			return runWithActor(cmd, g, func(a *app, actor services.Actor) error {
				return report(a.module.Maintenance.DependenciesOf(a.ctx, actor, id))
			})
		},
	}
}

func newPurgeCmd(g *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge <id>",
		Short: "Delete a request and everything that references it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRequestID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return withCode(exitUsage, fmt.Errorf("purge is irreversible; pass --yes to confirm"))
			}
			return runWithActor(cmd, g, func(a *app, actor services.Actor) error {
				return report(a.module.Maintenance.Purge(a.ctx, actor, id))
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the purge")
	return cmd
}
