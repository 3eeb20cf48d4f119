package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quiz-round/internal/config"
	"quiz-round/internal/logging"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	loadDotEnv()

	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "quiz-round",
		Short:        "Timed multiple-choice quiz rounds with a shared leaderboard",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port for serve (overrides config)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewPlayCmd(&configPath))
	cmd.AddCommand(NewLeaderboardCmd(&configPath))
	cmd.AddCommand(NewServeCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewQuestionsCmd(&configPath))
	return cmd
}

// loadDotEnv reads .env outside production so local settings reach the
// env overrides in config.Load.
func loadDotEnv() {
	if os.Getenv("APP_ENV") == "production" {
		return
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger := logging.New("quiz-round", "development", "warn")
		logger.Warn().Err(err).Msg("could not load .env file")
	}
}

// setup loads config and builds the logger every subcommand shares.
func setup(path string) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	return cfg, logging.New(cfg.App.Name, cfg.App.Env, cfg.App.LogLevel), nil
}
