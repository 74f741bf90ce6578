// Package cli holds the hubcheck cobra commands
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/app"
	"github.com/ternarybob/hubcheck/internal/common"
)

// defaultConfigPaths are checked in order when no --config is given
var defaultConfigPaths = []string{"hubcheck.toml", "deployments/local/hubcheck.toml"}

// configFiles is bound to the root command's --config flag
var configFiles []string

// AddConfigFlag registers the repeatable --config flag on the root command
func AddConfigFlag(root *cobra.Command) {
	root.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil,
		"Configuration file path (can be repeated, later files override earlier ones)")
}

// discoverConfig returns the explicit config files, or the first default that exists
func discoverConfig(explicit []string) []string {
	if len(explicit) > 0 {
		return explicit
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return []string{path}
		}
	}
	return nil
}

// loadConfig runs the startup sequence: config (defaults -> files -> env),
// then the logger, then the banner.
func loadConfig(banner bool) (*common.Config, arbor.ILogger, error) {
	paths := discoverConfig(configFiles)

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		if len(paths) == 0 {
			return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil, nil, fmt.Errorf("failed to load configuration files %v: %w", paths, err)
	}

	common.InstallCrashHandler(config.Output.ResultsDir)
	logger := common.InitLogger(config)
	if banner {
		common.PrintBanner(config)
	}

	logger.Debug().
		Strs("config_files", paths).
		Str("base_url", config.App.BaseURL).
		Str("login_origin", config.App.LoginOrigin).
		Bool("headless", config.Browser.Headless).
		Bool("credentials_set", config.Credentials.IsSet()).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration (sanitized)")

	return config, logger, nil
}

// openApp loads configuration and opens the application
func openApp(banner bool) (*app.App, error) {
	config, logger, err := loadConfig(banner)
	if err != nil {
		return nil, err
	}
	return app.New(config, logger)
}
