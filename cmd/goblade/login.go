package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	goBlade "github.com/MrEthical07/goBlade"
)

type loginCmd struct {
	username    string
	password    string
	captchaKey  string
	captchaCode string

	cobra.Command
}

func init() {
	rootCmd.AddCommand(loginCommand())
}

func loginCommand() *cobra.Command {
	cmd := &loginCmd{
		Command: cobra.Command{
			Use:   "login",
			Short: "sign in and keep the session for later commands",
			Args:  cobra.NoArgs,
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&cmd.username, "username", "u", "", "account name")
	flags.StringVarP(&cmd.password, "password", "p", "", "password (prompted when omitted)")
	flags.StringVar(&cmd.captchaKey, "captcha-key", "", "key returned by goblade captcha")
	flags.StringVar(&cmd.captchaCode, "captcha-code", "", "answer to the captcha")
	cmd.RunE = cmd.exec
	return &cmd.Command
}

func (cmd *loginCmd) exec(c *cobra.Command, _ []string) error {
	ctx := c.Context()
	in := bufio.NewReader(os.Stdin)

	username := cmd.username
	if username == "" {
		fmt.Fprint(os.Stderr, "Username: ")
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	password := cmd.password
	if password == "" && !c.Flags().Changed("password") {
		var err error
		password, err = readPassword(in)
		if err != nil {
			return err
		}
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	profile, err := s.manager.Login(ctx, goBlade.LoginRequest{
		Username:    username,
		Password:    password,
		CaptchaKey:  cmd.captchaKey,
		CaptchaCode: cmd.captchaCode,
	})
	switch {
	case errors.Is(err, goBlade.ErrCredentialRejected):
		return fmt.Errorf("sign in refused: %w", err)
	case errors.Is(err, goBlade.ErrNetworkFailure):
		return fmt.Errorf("cannot reach %s: %w", cfg.BaseURL, err)
	case err != nil:
		return err
	}

	fmt.Fprintf(c.OutOrStdout(), "signed in as %s (%s), home %s\n", profile.Username, profile.RealName, s.navigator.CurrentPath())
	return nil
}

func readPassword(in *bufio.Reader) (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
