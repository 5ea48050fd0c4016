package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goBlade/blade"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "inspect the role administration API",
}

func init() {
	rolesCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "list roles",
			Args:  cobra.NoArgs,
			RunE:  listRoles,
		},
		&cobra.Command{
			Use:   "permissions [role-id]",
			Short: "list the permission catalogue, or the ids assigned to a role",
			Args:  cobra.MaximumNArgs(1),
			RunE:  listPermissions,
		},
	)
	rootCmd.AddCommand(rolesCmd)
}

func listRoles(c *cobra.Command, _ []string) error {
	ctx := c.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.requireSignedIn(ctx); err != nil {
		return err
	}

	var roles []blade.Role
	err = s.manager.AuthorizedDo(ctx, func(ctx context.Context, token string) error {
		var err error
		roles, err = s.client.ListRoles(ctx, token)
		return err
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tNAME\tSTATUS")
	for _, r := range roles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", r.ID, r.Code, r.Name, r.Status)
	}
	return w.Flush()
}

func listPermissions(c *cobra.Command, args []string) error {
	ctx := c.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.requireSignedIn(ctx); err != nil {
		return err
	}

	if len(args) == 1 {
		var ids []string
		err = s.manager.AuthorizedDo(ctx, func(ctx context.Context, token string) error {
			var err error
			ids, err = s.client.RolePermissions(ctx, token, args[0])
			return err
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(c.OutOrStdout(), id)
		}
		return nil
	}

	var perms []blade.Permission
	err = s.manager.AuthorizedDo(ctx, func(ctx context.Context, token string) error {
		var err error
		perms, err = s.client.ListPermissions(ctx, token)
		return err
	})
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPARENT\tCODE\tNAME")
	for _, p := range perms {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.ParentID, p.Code, p.Name)
	}
	return w.Flush()
}
