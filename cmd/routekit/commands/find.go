package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/routekit/pkg/route"
	"github.com/abdul-hamid-achik/routekit/pkg/table"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find <path>",
	Short: "Resolve a request path to its route",
	Long: `Resolve a request path the way the dev server does and print the
route and the captured parameters.

Examples:
  routekit find /blog/hello-world
  routekit find /docs/en/intro --json`,
	Args: cobra.ExactArgs(1),
	Run:  runFind,
}

var generateCmd = &cobra.Command{
	Use:   "generate <url> [key=value...]",
	Short: "Build a URL from a route template",
	Long: `Substitute parameter values into a route and print the resulting path.
The route is named by its URL template, stem or file. Repeat a key to
pass several values to a splat parameter.

Examples:
  routekit generate /blog/:slug.html slug=hello-world
  routekit generate docs/:lang?/intro
  routekit generate pages/files/*.md splats=a splats=b`,
	Args: cobra.MinimumNArgs(1),
	Run:  runGenerate,
}

func runFind(cmd *cobra.Command, args []string) {
	_, t, err := loadTable(context.Background())
	if err != nil {
		exitWithError(err)
	}

	path := args[0]
	r, params, ok := t.Match(path)

	if jsonOutput {
		out := FindOutput{Path: path, Found: ok}
		if ok {
			out.Route = table.Info(r)
			out.Params = params
		}
		printSuccess(out)
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if !ok {
		fmt.Printf("\n  %s No route matches %s\n", yellow("!"), path)
		if fb := t.Fallback(); fb != nil {
			fmt.Printf("  → Fallback: %s %s\n", fb.URL, dim(fb.ID))
		}
		fmt.Println()
		return
	}

	fmt.Printf("\n  %s %s\n\n", green("✓"), r.URL)
	fmt.Printf("  File:    %s\n", r.ID)
	fmt.Printf("  Stem:    %s\n", r.Stem)
	for _, line := range formatParams(params) {
		fmt.Printf("  Param:   %s\n", line)
	}
	fmt.Println()
}

func formatParams(params route.Params) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		if values := params.Strings(k); len(values) > 1 {
			lines = append(lines, fmt.Sprintf("%s = [%s]", k, strings.Join(values, ", ")))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s = %v", k, params[k]))
	}
	return lines
}

func runGenerate(cmd *cobra.Command, args []string) {
	params, err := parseParams(args[1:])
	if err != nil {
		exitWithError(err)
	}

	_, t, err := loadTable(context.Background())
	if err != nil {
		exitWithError(err)
	}

	path, err := t.GeneratePath(args[0], params)
	if err != nil {
		exitWithError(err)
	}

	if jsonOutput {
		printSuccess(GenerateOutput{URL: args[0], Path: path, Params: params})
		return
	}
	fmt.Println(path)
}

// parseParams turns key=value arguments into route params. A key given
// more than once collects its values into a list.
func parseParams(args []string) (route.Params, error) {
	params := route.Params{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (use key=value)", arg)
		}

		switch prev := params[key].(type) {
		case nil:
			params[key] = value
		case string:
			params[key] = []string{prev, value}
		case []string:
			params[key] = append(prev, value)
		}
	}
	return params, nil
}
