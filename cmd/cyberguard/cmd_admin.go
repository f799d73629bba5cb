package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cyberguard/internal/model"
)

func newAdminCmd(c *cli) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Moderation and user administration",
	}

	adminCmd.AddCommand(
		&cobra.Command{
			Use:   "dashboard",
			Short: "Show report and post statistics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				stats, err := c.app.Dashboard.Stats(cmd.Context())
				if err != nil {
					return err
				}
				renderStats(cmd.OutOrStdout(), stats)
				return nil
			},
		},
		&cobra.Command{
			Use:   "flagged",
			Short: "List posts waiting for review",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				posts, err := c.app.Moderation.LoadFlagged(cmd.Context())
				if err != nil {
					return err
				}
				renderPosts(cmd.OutOrStdout(), posts)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove-post <post-id>",
			Short: "Delete a flagged post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := c.app.Moderation.LoadFlagged(cmd.Context()); err != nil {
					return err
				}
				return c.app.Moderation.DeletePost(cmd.Context(), args[0])
			},
		},
		newFlagForReviewCmd(c),
		&cobra.Command{
			Use:   "users",
			Short: "List registered users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				users, err := c.app.Moderation.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				renderUsers(cmd.OutOrStdout(), users)
				return nil
			},
		},
		&cobra.Command{
			Use:   "promote <user-id>",
			Short: "Make a user an admin",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.app.Moderation.PromoteUser(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "delete-user <user-id>",
			Short: "Delete a user account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.app.Moderation.DeleteUser(cmd.Context(), args[0])
			},
		},
		newCreateAdminCmd(c),
	)
	return adminCmd
}

func newFlagForReviewCmd(c *cli) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "review <post-id>",
		Short: "Send a post to the moderation queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Moderation.FlagForReview(cmd.Context(), args[0], reason)
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Reason for review")
	return cmd
}

func newCreateAdminCmd(c *cli) *cobra.Command {
	var in model.CreateAdminInput
	cmd := &cobra.Command{
		Use:   "create-admin <username>",
		Short: "Create a new admin account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Username = args[0]
			if in.Password == "" {
				var err error
				if in.Password, err = c.readPassword(cmd, "Password for new admin: "); err != nil {
					return err
				}
			}
			u, err := c.app.Moderation.CreateAdmin(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created (%s)\n", u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
