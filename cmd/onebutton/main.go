// Command onebutton polls push buttons on GPIO lines, classifies clicks,
// double clicks and long presses, and publishes them to MQTT.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweeney/onebutton/internal/config"
)

var (
	configPath string
	logLevel   string
	logJSON    bool

	rootCmd = &cobra.Command{
		Use:               "onebutton",
		Short:             "Push button gesture detector",
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config path. YAML, or TOML with a .toml extension; built-in defaults when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	log.SetLevel(lvl)
	if logJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}
	return nil
}

// loadConfig reads --config, or returns the defaults when no path is set.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
