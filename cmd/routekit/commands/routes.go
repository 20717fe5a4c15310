package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/routekit/internal/version"
	"github.com/abdul-hamid-achik/routekit/pkg/navigation"
	"github.com/abdul-hamid-achik/routekit/pkg/table"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List all routes",
	Long: `Scan the routes directory and list every route in table order.

Examples:
  routekit routes
  routekit routes --prefix /docs
  routekit routes --json`,
	Run: runRoutes,
}

var navCmd = &cobra.Command{
	Use:   "nav [prefix]",
	Short: "Print the navigation tree",
	Long: `Build the navigation tree of routes under a URL prefix.

Examples:
  routekit nav
  routekit nav /docs
  routekit nav --json`,
	Args: cobra.MaximumNArgs(1),
	Run:  runNav,
}

var routesPrefix string

func init() {
	routesCmd.Flags().StringVar(&routesPrefix, "prefix", "", "Only list routes whose URL starts with this prefix")
}

func runRoutes(cmd *cobra.Command, args []string) {
	_, t, err := loadTable(context.Background())
	if err != nil {
		exitWithError(err)
	}

	infos := filterInfos(t.Infos(), routesPrefix)

	if jsonOutput {
		printSuccess(map[string]any{
			"schema_version": version.GetRouteSchemaVersion(),
			"total":          len(infos),
			"routes":         infos,
		})
		return
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Printf("\n  %s Routes (%d)\n\n", cyan("routekit"), len(infos))
	writeRoutes(os.Stdout, infos)
	fmt.Println()
}

func filterInfos(infos []table.RouteInfo, prefix string) []table.RouteInfo {
	if prefix == "" {
		return infos
	}
	out := make([]table.RouteInfo, 0, len(infos))
	for _, info := range infos {
		if strings.HasPrefix(info.URL, prefix) {
			out = append(out, info)
		}
	}
	return out
}

// writeRoutes prints one aligned line per route: URL, kind, source file.
func writeRoutes(w io.Writer, infos []table.RouteInfo) {
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	width := 0
	for _, info := range infos {
		if len(info.URL) > width {
			width = len(info.URL)
		}
	}

	for _, info := range infos {
		kind := green("static ")
		if info.IsDynamic {
			kind = yellow("dynamic")
		}
		fmt.Fprintf(w, "  %-*s  %s  %s\n", width, info.URL, kind, dim(info.ID))
	}
}

func runNav(cmd *cobra.Command, args []string) {
	cfg, t, err := loadTable(context.Background())
	if err != nil {
		exitWithError(err)
	}

	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	nodes, err := t.Navigation(prefix, table.Meta(cfg.Meta))
	if err != nil {
		exitWithError(err)
	}

	if jsonOutput {
		printSuccess(nodes)
		return
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Printf("\n  %s Navigation (%d nodes)\n\n", cyan("routekit"), navigation.Count(nodes))
	writeTree(os.Stdout, nodes)
	fmt.Println()
}

// writeTree prints nodes indented by depth. Synthetic nodes have no URL.
func writeTree(w io.Writer, nodes []*navigation.Node) {
	dim := color.New(color.Faint).SprintFunc()

	navigation.Walk(nodes, func(n *navigation.Node, depth int) bool {
		indent := strings.Repeat("  ", depth+1)
		text := n.Text
		if text == "" {
			text = n.Stem
		}
		if n.IsSynthetic() {
			fmt.Fprintf(w, "%s%s/\n", indent, text)
		} else {
			fmt.Fprintf(w, "%s%s %s\n", indent, text, dim(n.URL))
		}
		return true
	})
}
