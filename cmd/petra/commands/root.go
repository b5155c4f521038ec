package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"petra/internal/config"
)

var (
	configPath string
	logLevel   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "petra",
	Short: "Voice assistant device",
	Long: `petra - a push-to-talk voice assistant device.

It streams microphone audio to a voice service over a websocket, plays the
spoken reply and shows captions on a small status screen.

Configuration is read from --config, else $PETRA_CONFIG, then PETRA_*
environment variables override individual settings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig resolves the configuration and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if level := strings.TrimSpace(logLevel); level != "" {
		cfg.Log.Level = level
	}
	return cfg, nil
}
