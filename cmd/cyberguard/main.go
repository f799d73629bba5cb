package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cyberguard/internal/app"
	"cyberguard/internal/config"
	"cyberguard/internal/notify"
)

// cli carries state shared by every subcommand of one invocation.
type cli struct {
	verbose bool
	quiet   bool
	stdin   *bufio.Reader

	logger *zap.Logger
	app    *app.App
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cyberguard",
		Short: "CyberGuard - community support against bullying",
		Long: `cyberguard talks to the CyberGuard API: share and discuss experiences in
the community forum, file incident reports (anonymously if you prefer), talk to
the support chatbot and, for moderators and admins, review flagged content.

The session token is kept between runs (see CYBERGUARD_TOKEN_STORE).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "Suppress notices")

	rootCmd.AddCommand(
		newAuthCmd(c),
		newPostsCmd(c),
		newReportsCmd(c),
		newAdminCmd(c),
		newChatCmd(c),
		newWatchCmd(c),
	)
	return rootCmd
}

// setup builds the logger and the app, then restores the stored session.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if c.verbose || cfg.Debug {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	c.logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	notifiers := notify.Multi{}
	if !c.quiet {
		notifiers = append(notifiers, notify.NewWriterNotifier(cmd.ErrOrStderr()))
	}
	if c.verbose {
		notifiers = append(notifiers, notify.NewLogNotifier(c.logger))
	}

	c.app, err = app.New(cfg, c.logger, notifiers)
	if err != nil {
		return err
	}
	return c.app.Start(cmd.Context())
}

// execute runs cmd and tears down whatever setup built, whether the
// command succeeded or not.
func (c *cli) execute(ctx context.Context, cmd *cobra.Command) error {
	defer c.teardown()
	return cmd.ExecuteContext(ctx)
}

func (c *cli) teardown() {
	if c.app != nil {
		if err := c.app.Close(); err != nil && c.logger != nil {
			c.logger.Debug("close app", zap.Error(err))
		}
		c.app = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
		c.logger = nil
	}
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	c := &cli{}
	err := c.execute(ctx, newRootCmd(c))
	stop()
	if err != nil {
		os.Exit(1)
	}
}
