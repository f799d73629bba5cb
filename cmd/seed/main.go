package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cyberguard/internal/config"
)

//go:embed demo.json
var demoSeed []byte

func main() {
	_ = godotenv.Load()

	var source string
	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate a CyberGuard API with demo users, posts and reports",
		Long: `seed replays a JSON dataset through the API configured by CYBERGUARD_API_URL.
Users are registered (or signed in when they already exist), then their posts,
comments and reports are created. Without --source the built-in demo dataset
is used. --source accepts a file path or an http(s) URL.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			data, err := parseSeed(demoSeed)
			if source != "" {
				logger.Info("loading seed data", zap.String("source", source))
				data, err = loadSeed(cmd.Context(), source)
			}
			if err != nil {
				return err
			}

			s := newSeeder(cfg, logger)
			defer s.Close()

			logger.Info("seeding", zap.String("api", cfg.APIBaseURL),
				zap.Int("users", len(data.Users)), zap.Int("posts", len(data.Posts)), zap.Int("reports", len(data.Reports)))
			sum, err := s.Run(cmd.Context(), data)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}

			logger.Info("seed completed",
				zap.Int("users_created", sum.UsersCreated),
				zap.Int("users_existing", sum.UsersExisting),
				zap.Int("posts", sum.Posts),
				zap.Int("comments", sum.Comments),
				zap.Int("reports", sum.Reports))
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users (%d already existed), %d posts, %d comments, %d reports\n",
				sum.UsersCreated+sum.UsersExisting, sum.UsersExisting, sum.Posts, sum.Comments, sum.Reports)
			return nil
		},
	}
	rootCmd.Flags().StringVarP(&source, "source", "s", "", "Seed file path or URL")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
