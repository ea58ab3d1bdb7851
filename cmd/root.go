package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/markb/sbrt/internal/log"
	"github.com/markb/sbrt/realtime"
)

// Version information set via ldflags at build time
var (
	Version   = "dev"
	BuildTime = ""
	GitCommit = ""
)

var rootCmd = &cobra.Command{
	Use:     "sbrt",
	Short:   "sbrt - command-line client for Supabase Realtime",
	Long:    `A terminal client for the Supabase Realtime protocol: tail postgres change events, send broadcasts, and track presence over one WebSocket connection.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := log.DefaultConfig()
		cfg.Level, _ = cmd.Flags().GetString("log-level")
		cfg.Format, _ = cmd.Flags().GetString("log-format")
		log.Init(cfg)
	},
}

func init() {
	rootCmd.SetVersionTemplate("sbrt version {{.Version}}\n")

	rootCmd.PersistentFlags().String("url", "", "project base URL (env: SBRT_URL)")
	rootCmd.PersistentFlags().String("key", "", "API key (env: SBRT_KEY)")
	rootCmd.PersistentFlags().String("log-level", envOr("SBRT_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", envOr("SBRT_LOG_FORMAT", "text"), "log format (text, json)")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// clientFromFlags builds a realtime client from flags and environment.
// Priority: CLI flags > environment variables.
func clientFromFlags(cmd *cobra.Command) (*realtime.Client, error) {
	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		url = os.Getenv("SBRT_URL")
	}
	key, _ := cmd.Flags().GetString("key")
	if key == "" {
		key = os.Getenv("SBRT_KEY")
	}
	if url == "" {
		return nil, fmt.Errorf("project URL required: pass --url or set SBRT_URL")
	}
	if key == "" {
		return nil, fmt.Errorf("API key required: pass --key or set SBRT_KEY")
	}
	return realtime.New(realtime.Config{URL: url, Key: key})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
