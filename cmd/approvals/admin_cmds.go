package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/approvals/migrations"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/user"
	"github.com/iota-uz/approvals/modules/requests/infrastructure/persistence"
	"github.com/iota-uz/approvals/pkg/composables"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}
	for _, dir := range []migrations.Direction{migrations.Up, migrations.Down} {
		cmd.AddCommand(&cobra.Command{
			Use:   string(dir),
			Short: fmt.Sprintf("Run migrations %s", dir),
			RunE: func(cmd *cobra.Command, _ []string) error {
				pool, conf, err := connect(cmd.Context())
				if err != nil {
					return err
				}
				defer conf.Unload()
				defer pool.Close()
				if err := migrations.Run(cmd.Context(), pool, dir, conf.Logger()); err != nil {
					return withCode(exitDB, err)
				}
				return nil
			},
		})
	}
	return cmd
}

func newUserCmd() *cobra.Command {
	var (
		u         user.User
		role      string
		managerID int64
		inactive  bool
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create or update a user account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := user.ParseRole(role)
			if err != nil {
				return withCode(exitUsage, err)
			}
			u.Role = parsed
			u.Active = !inactive
			u.Region = strings.TrimSpace(u.Region)
			if managerID > 0 {
				u.ManagerID = &managerID
			}
			pool, conf, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conf.Unload()
			defer pool.Close()
			ctx := composables.WithPool(cmd.Context(), pool)
			if err := persistence.NewUserDirectory().Save(ctx, &u); err != nil {
				return withCode(exitDB, err)
			}
			return writeJSONLine(u)
		},
	}
	add.Flags().Int64Var(&u.ID, "id", 0, "User id")
	add.Flags().StringVar(&u.Name, "name", "", "Display name")
	add.Flags().StringVar(&u.Email, "email", "", "Email address")
	add.Flags().StringVar(&role, "role", "", "tc|director|finance-director|general-director|admin")
	add.Flags().Int64Var(&managerID, "manager", 0, "Manager user id")
	add.Flags().StringVar(&u.Region, "region", "", "Region")
	add.Flags().BoolVar(&inactive, "inactive", false, "Create the account deactivated")
	_ = add.MarkFlagRequired("id")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("role")

	cmd := &cobra.Command{Use: "user", Short: "Manage user accounts"}
	cmd.AddCommand(add)
	return cmd
}

func newOptionsCmd() *cobra.Command {
	var file string
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Upsert the allow-lists of a YAML file into the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := persistence.LoadYAMLOptionSource(file)
			if err != nil {
				return withCode(exitValidation, err)
			}
			pool, conf, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conf.Unload()
			defer pool.Close()
			ctx := composables.WithPool(cmd.Context(), pool)
			repo := persistence.NewOptionRepository()
			all := src.All()
			if err := composables.InTx(ctx, func(txCtx context.Context) error {
				for _, o := range all {
					if err := repo.Upsert(txCtx, o); err != nil {
						return err
					}
				}
				return nil
			}); err != nil {
				return withCode(exitDB, err)
			}
			return writeJSONLine(map[string]int{"synced": len(all)})
		},
	}
	syncCmd.Flags().StringVar(&file, "file", "", "Options YAML file")
	_ = syncCmd.MarkFlagRequired("file")

	cmd := &cobra.Command{Use: "options", Short: "Manage categorical allow-lists"}
	cmd.AddCommand(syncCmd)
	return cmd
}
