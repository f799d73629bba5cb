package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newChatCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>",
		Short: "Talk to the support chatbot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Chat.Send(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Response)
			return nil
		},
	}
}

func newWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the post and report lists in sync until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			interval := c.app.Config.SyncInterval
			if interval <= 0 {
				return errors.New("sync interval must be positive (CYBERGUARD_SYNC_SECONDS)")
			}
			if _, err := c.app.Posts.Load(ctx); err != nil {
				return err
			}
			signedIn := c.app.Session.User() != nil
			if signedIn {
				if err := c.app.Reports.Load(ctx); err != nil {
					return err
				}
			}
			c.printCounts(cmd, signedIn)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return c.app.Posts.Sync(ctx, interval) })
			if signedIn {
				g.Go(func() error { return c.app.Reports.Sync(ctx, interval) })
			}
			g.Go(func() error { return c.report(ctx, cmd, signedIn) })
			return g.Wait()
		},
	}
}

// report prints list sizes whenever they change.
func (c *cli) report(ctx context.Context, cmd *cobra.Command, signedIn bool) error {
	ticker := time.NewTicker(c.app.Config.SyncInterval)
	defer ticker.Stop()
	posts, reports := len(c.app.Posts.Posts()), len(c.app.Reports.Reports())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p, r := len(c.app.Posts.Posts()), len(c.app.Reports.Reports())
			if p != posts || r != reports {
				posts, reports = p, r
				c.printCounts(cmd, signedIn)
			}
		}
	}
}

func (c *cli) printCounts(cmd *cobra.Command, signedIn bool) {
	line := fmt.Sprintf("%d posts", len(c.app.Posts.Posts()))
	if signedIn {
		line += fmt.Sprintf(", %d reports (%d flagged)", len(c.app.Reports.Reports()), len(c.app.Reports.Flagged()))
	}
	fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render(line))
}
