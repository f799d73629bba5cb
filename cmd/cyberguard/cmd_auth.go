package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
)

func newAuthCmd(c *cli) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in, sign out and manage your profile",
	}
	authCmd.AddCommand(
		newLoginCmd(c),
		newRegisterCmd(c),
		&cobra.Command{
			Use:   "logout",
			Short: "Sign out and forget the stored token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.app.Session.Logout(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Show the signed-in user",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				u, err := c.requireUser()
				if err != nil {
					return err
				}
				renderUser(cmd.OutOrStdout(), u)
				return nil
			},
		},
		newProfileCmd(c),
		&cobra.Command{
			Use:   "token",
			Short: "Show when the stored access token expires",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				exp, err := c.app.Session.TokenExpiry(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Access token expires %s\n", when(exp))
				return nil
			},
		},
	)
	return authCmd
}

func newLoginCmd(c *cli) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in",
		Long: `Sign in with a username and password. Without --password the password is
read from the terminal, or from the first line of stdin when it is not a
terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = c.readPassword(cmd, "Password: "); err != nil {
					return err
				}
			}
			u, err := c.app.Session.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", u.Username, u.EffectiveRole())
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func newRegisterCmd(c *cli) *cobra.Command {
	var in model.RegisterInput
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Username = args[0]
			if in.Password == "" {
				var err error
				if in.Password, err = c.readPassword(cmd, "Password: "); err != nil {
					return err
				}
				if in.ConfirmPassword, err = c.readPassword(cmd, "Confirm password: "); err != nil {
					return err
				}
			}
			u, err := c.app.Session.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			if u == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Account created, sign in with `cyberguard auth login`")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", u.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newProfileCmd(c *cli) *cobra.Command {
	var username, email string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change your username or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in model.ProfileUpdate
			if cmd.Flags().Changed("username") {
				in.Username = &username
			}
			if cmd.Flags().Changed("email") {
				in.Email = &email
			}
			if in.Username == nil && in.Email == nil {
				return errors.New("nothing to update: pass --username or --email")
			}
			u, err := c.app.Session.UpdateProfile(cmd.Context(), in)
			if err != nil {
				return err
			}
			renderUser(cmd.OutOrStdout(), u)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "New username")
	cmd.Flags().StringVar(&email, "email", "", "New email")
	return cmd
}

// requireUser returns the signed-in user or ErrUnauthenticated.
func (c *cli) requireUser() (*model.User, error) {
	u := c.app.Session.User()
	if u == nil {
		return nil, fmt.Errorf("%w: run `cyberguard auth login` first", apperrors.ErrUnauthenticated)
	}
	return u, nil
}

func (c *cli) readPassword(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	if c.stdin == nil {
		c.stdin = bufio.NewReader(in)
	}
	line, err := c.stdin.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
