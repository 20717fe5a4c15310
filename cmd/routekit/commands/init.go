package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/abdul-hamid-achik/routekit/internal/config"
	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create routekit.yaml",
	Long: `Create a routekit.yaml in the current directory, prompting for the
common settings. With --yes (or --json) the defaults are written as-is.

Examples:
  routekit init
  routekit init --yes
  routekit init --force`,
	Run: runInit,
}

var (
	initYes   bool
	initForce bool
)

func init() {
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Write the defaults without prompting")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing routekit.yaml")
}

func runInit(cmd *cobra.Command, args []string) {
	path := config.FileName + ".yaml"
	if configFile != "" {
		path = configFile
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		exitWithError(fmt.Errorf("%s already exists (use --force to overwrite)", path))
	}

	cfg := config.Default()

	if !initYes && !jsonOutput {
		if err := promptConfig(cfg); err != nil {
			fmt.Printf("  %s Cancelled\n", color.YellowString("!"))
			return
		}
	}

	if err := writeConfigFile(path, cfg); err != nil {
		exitWithError(err)
	}

	if jsonOutput {
		printSuccess(InitOutput{File: path, Config: cfg})
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n  %s Created %s\n\n", green("✓"), path)
	fmt.Printf("  Next steps:\n")
	fmt.Printf("    mkdir -p %s && echo '# Home' > %s/index.md\n", cfg.Dir, cfg.Dir)
	fmt.Printf("    routekit serve\n\n")
}

func promptConfig(cfg *config.Config) error {
	port := strconv.Itoa(cfg.Server.Port)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Routes directory").
				Description("Directory whose files become routes").
				Value(&cfg.Dir),
			huh.NewInput().
				Title("URL suffix").
				Description("Appended to every URL, e.g. .html (empty for none)").
				Value(&cfg.URLSuffix),
			huh.NewInput().
				Title("Data directory").
				Description("Directory holding global json/yaml data").
				Value(&cfg.Data.Dir),
			huh.NewInput().
				Title("Dev server port").
				Value(&port).
				Validate(func(s string) error {
					if _, err := strconv.Atoi(s); err != nil {
						return errors.New("port must be a number")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Server.Port, _ = strconv.Atoi(port)
	return nil
}

// writeConfigFile writes cfg as YAML to path.
func writeConfigFile(path string, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
