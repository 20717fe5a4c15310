package commands

import (
	"fmt"

	"github.com/abdul-hamid-achik/routekit/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			printSuccess(map[string]any{
				"version":              version.GetVersion(),
				"route_schema_version": version.GetRouteSchemaVersion(),
			})
			return
		}
		fmt.Printf("routekit %s\n", version.GetVersion())
	},
}
