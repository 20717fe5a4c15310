// Package commands provides the CLI commands for routekit.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/routekit/internal/config"
	"github.com/abdul-hamid-achik/routekit/internal/logger"
	"github.com/abdul-hamid-achik/routekit/internal/version"
	"github.com/abdul-hamid-achik/routekit/pkg/table"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "routekit",
	Short: "routekit - file-based routes for content sites",
	Long: `routekit turns a directory of pages into a route table.

Files under pages/ become routes: pages/blog/$slug.md serves /blog/:slug,
pages/docs/[lang]/intro.md serves /docs/intro and /docs/en/intro.

Quick Start:
  routekit init          Create routekit.yaml
  routekit routes        List all routes
  routekit find /blog/x  Resolve a request path
  routekit serve         Start the dev server with live reload
  routekit openapi       Describe the routes as OpenAPI

Documentation: https://github.com/abdul-hamid-achik/routekit`,
	Version: version.GetVersion(),
}

// Global flags
var (
	configFile string
	dirFlag    string
	logLevel   string
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for automation and LLM agents)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./routekit.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "d", "", "Routes directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error|off)")

	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(navCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(openapiCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(".", configFile)
	if err != nil {
		return nil, err
	}
	if dirFlag != "" {
		cfg.Dir = dirFlag
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(cfg.LoggerConfig())
}

// loadTable reads the config and scans the routes directory.
func loadTable(ctx context.Context) (*config.Config, *table.Table, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	t := cfg.NewTable(newLogger(cfg))
	if err := t.Load(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to load routes: %w", err)
	}
	return cfg, t, nil
}

// exitWithError reports err in the current output mode and exits.
func exitWithError(err error) {
	if jsonOutput {
		printJSONError(err)
	} else {
		fmt.Printf("  %s %v\n\n", color.RedString("Error:"), err)
	}
	os.Exit(1)
}
