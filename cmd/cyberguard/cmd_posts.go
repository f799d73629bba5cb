package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
)

func newPostsCmd(c *cli) *cobra.Command {
	postsCmd := &cobra.Command{
		Use:     "posts",
		Aliases: []string{"forum"},
		Short:   "Browse and take part in the community forum",
	}
	postsCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List forum posts, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				posts, err := c.app.Posts.Load(cmd.Context())
				if err != nil {
					return err
				}
				renderPosts(cmd.OutOrStdout(), posts)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <post-id>",
			Short: "Show a post with its comments",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := c.app.Posts.Load(cmd.Context()); err != nil {
					return err
				}
				return c.showPost(cmd, args[0])
			},
		},
		newCreatePostCmd(c),
		&cobra.Command{
			Use:   "like <post-id>",
			Short: "Like or unlike a post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := c.app.Posts.ToggleLike(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				verb := "Unliked"
				if res.Liked {
					verb = "Liked"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d likes)\n", verb, res.LikesCount)
				return nil
			},
		},
		&cobra.Command{
			Use:   "comment <post-id> <text>",
			Short: "Comment on a post",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				comment, err := c.app.Posts.AddComment(cmd.Context(), args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Comment %s added\n", comment.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "reply <post-id> <comment-id> <text>",
			Short: "Reply to a comment",
			Args:  cobra.MinimumNArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				reply, err := c.app.Posts.AddReply(cmd.Context(), args[0], args[1], strings.Join(args[2:], " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reply %s added\n", reply.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete-comment <post-id> <comment-id>",
			Short: "Delete a comment or reply",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.app.Posts.DeleteComment(cmd.Context(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "react <post-id> <emoji>",
			Short: "React to a post with an emoji",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Posts.React(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				if p, ok := c.app.Posts.Post(args[0]); ok && len(p.Reactions) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), reactionSummary(p.Reactions))
				}
				return nil
			},
		},
		newFlagPostCmd(c),
		&cobra.Command{
			Use:   "delete <post-id>",
			Short: "Delete a post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.app.Posts.Delete(cmd.Context(), args[0])
			},
		},
	)
	return postsCmd
}

func (c *cli) showPost(cmd *cobra.Command, id string) error {
	p, ok := c.app.Posts.Post(id)
	if !ok {
		return fmt.Errorf("%w: post %s", apperrors.ErrNotFound, id)
	}
	renderPost(cmd.OutOrStdout(), p)
	return nil
}

func newCreatePostCmd(c *cli) *cobra.Command {
	var (
		in       model.CreatePostInput
		postType string
	)
	cmd := &cobra.Command{
		Use:   "create <content>",
		Short: "Share an experience or ask for advice",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Content = strings.Join(args, " ")
			in.Type = model.PostType(postType)
			post, err := c.app.Posts.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Post %s created\n", post.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "Optional title")
	cmd.Flags().StringVar(&postType, "type", string(model.PostGeneral), "Incident type: physical, verbal, cyber or general")
	cmd.Flags().StringSliceVar(&in.Tags, "tag", nil, "Tag, repeatable")
	cmd.Flags().BoolVar(&in.AdviceRequested, "advice", false, "Ask the community for advice")
	cmd.Flags().BoolVar(&in.IsAnonymous, "anonymous", false, "Post without your username")
	return cmd
}

func newFlagPostCmd(c *cli) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "flag <post-id>",
		Short: "Flag a post for moderator review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Posts.Flag(cmd.Context(), args[0], reason)
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Why the post needs review")
	return cmd
}
