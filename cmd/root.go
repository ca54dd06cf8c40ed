package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linkbridge/linkbridge/internal/config"
	"github.com/linkbridge/linkbridge/internal/logging"
)

// Cfg is the configuration loaded before any command runs.
var Cfg *config.Config

// Logger is built from Cfg.Logging before any command runs.
var Logger *zap.Logger

var cfgFile string

// RootCmd is the base command. Subcommands register themselves from their own
// init() functions.
var RootCmd = &cobra.Command{
	Use:   "linkbridge",
	Short: "Bridge third-party URL shorteners behind local short links",
	Long: `linkbridge asks a third-party shortening provider for a short URL, stores it
under a locally minted token, and serves /start/{token} redirects to it.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./configs/config.yaml)")
}

// initConfig loads .env, then the config file and environment, then builds
// the logger.
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	var err error
	Cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	Logger, err = logging.New(Cfg.Logging.Development, Cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
