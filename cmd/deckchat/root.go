package main

import (
	"fmt"
	"os"

	"github.com/Desarso/deckchat"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	version    string = "dev"
	commit     string = "unknown"
)

// newGateway is replaced in tests to avoid reaching a real provider.
var newGateway = func(cfg *deckchat.Config) (*deckchat.Gateway, error) {
	return deckchat.NewGateway(cfg, nil)
}

var rootCmd = &cobra.Command{
	Use:   "deckchat",
	Short: "Stateless chat gateway for presentation decks",
	Long: `deckchat streams chat completions to the browser in the AI SDK data
stream format and extracts titles, summaries and suggested questions from
uploaded PDF decks.

Quick Start:
  deckchat serve --provider openai          # Run the HTTP gateway
  deckchat extract slides.pdf               # Print metadata for a deck
  deckchat extract slides.pdf --json        # Same, as the API would return it`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults to $"+deckchat.ConfigEnv+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig reads the configuration and applies the logging flags on top.
func loadConfig() (*deckchat.Config, error) {
	cfg, err := deckchat.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if err := deckchat.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}
