package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	goBlade "github.com/MrEthical07/goBlade"
	"github.com/MrEthical07/goBlade/jwt"
)

func init() {
	rootCmd.AddCommand(logoutCommand(), whoamiCommand(), codesCommand(), checkCommand())
}

func logoutCommand() *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "end the session",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if s.manager.AccessToken() == "" {
				fmt.Fprintln(c.OutOrStdout(), "not signed in")
				return nil
			}
			s.manager.Logout(c.Context(), goBlade.LogoutOptions{SkipAPICall: local})
			fmt.Fprintf(c.OutOrStdout(), "signed out, next %s\n", s.navigator.CurrentPath())
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "forget the session without telling the server")
	return cmd
}

func whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.requireSignedIn(c.Context()); err != nil {
				return err
			}

			out := c.OutOrStdout()
			if p, ok := s.manager.Profile(); ok {
				fmt.Fprintf(out, "user:     %s (%s)\n", p.Username, p.UserID)
				fmt.Fprintf(out, "name:     %s\n", p.RealName)
				fmt.Fprintf(out, "roles:    %s\n", strings.Join(p.Roles, ", "))
				fmt.Fprintf(out, "home:     %s\n", p.HomePath)
			}
			if exp, err := jwt.ExpiresAt(s.manager.AccessToken()); err == nil {
				fmt.Fprintf(out, "expires:  %s\n", exp.Local().Format(time.RFC3339))
			}
			if s.manager.Expired() {
				fmt.Fprintln(out, "status:   expired, sign in again")
			}
			return nil
		},
	}
}

func codesCommand() *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "list the access codes of the session",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.requireSignedIn(ctx); err != nil {
				return err
			}

			codes := s.manager.AccessCodes().Codes()
			if remote {
				err := s.manager.AuthorizedDo(ctx, func(ctx context.Context, token string) error {
					var err error
					codes, err = s.client.AccessCodes(ctx, token)
					return err
				})
				if err != nil {
					return err
				}
			}
			for _, code := range codes {
				fmt.Fprintln(c.OutOrStdout(), code)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the server instead of using the saved codes")
	return cmd
}

type errDenied []string

func (e errDenied) Error() string {
	return "missing access: " + strings.Join(e, ", ")
}

func checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <code>...",
		Short: "exit non-zero unless any of the codes is granted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.requireSignedIn(c.Context()); err != nil {
				return err
			}
			if !s.manager.IsGranted(args...) {
				return errDenied(args)
			}
			fmt.Fprintln(c.OutOrStdout(), "granted")
			return nil
		},
	}
}
