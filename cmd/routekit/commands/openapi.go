package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/routekit/pkg/openapi"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var openapiCmd = &cobra.Command{
	Use:   "openapi",
	Short: "Generate an OpenAPI specification of the routes",
	Long: `Describe every route as a GET operation in an OpenAPI 3.1 document.

Dynamic segments become path parameters. Optional and splat parameters
carry x-routekit-optional and x-routekit-splat extensions.

Examples:
  routekit openapi
  routekit openapi --output openapi.yaml --format yaml
  routekit openapi --title "Docs" --server http://localhost:3000`,
	Run: runOpenAPI,
}

// Flags
var (
	openapiOutput    string
	openapiFormat    string
	openapiTitle     string
	openapiVersion   string
	openapiDesc      string
	openapiServerURL string
	openapiOpenAPI30 bool
)

func init() {
	openapiCmd.Flags().StringVarP(&openapiOutput, "output", "o", "", "Output file path (default: stdout)")
	openapiCmd.Flags().StringVarP(&openapiFormat, "format", "f", "json", "Output format (json|yaml)")
	openapiCmd.Flags().StringVar(&openapiTitle, "title", "Routes", "Document title")
	openapiCmd.Flags().StringVar(&openapiVersion, "version", "1.0.0", "Document version")
	openapiCmd.Flags().StringVar(&openapiDesc, "description", "", "Document description")
	openapiCmd.Flags().StringVar(&openapiServerURL, "server", "", "Server URL (e.g., http://localhost:3000)")
	openapiCmd.Flags().BoolVar(&openapiOpenAPI30, "openapi30", false, "Use OpenAPI 3.0.3 instead of 3.1.0")
}

func runOpenAPI(cmd *cobra.Command, args []string) {
	_, t, err := loadTable(context.Background())
	if err != nil {
		exitWithError(err)
	}

	info := openapi.Info{
		Title:       openapiTitle,
		Version:     openapiVersion,
		Description: openapiDesc,
	}
	if openapiServerURL != "" {
		info.Servers = []string{openapiServerURL}
	}
	if openapiOpenAPI30 {
		info.OpenAPIVersion = "3.0.3"
	}

	doc := openapi.Generate(t.Routes(), info)
	data, err := openapi.Marshal(doc, openapiFormat)
	if err != nil {
		exitWithError(err)
	}

	if openapiOutput == "" {
		if jsonOutput && openapiFormat != "json" {
			printSuccess(map[string]any{"document": string(data)})
			return
		}
		fmt.Println(string(data))
		return
	}

	if err := os.WriteFile(openapiOutput, data, 0644); err != nil {
		exitWithError(fmt.Errorf("failed to write %s: %w", openapiOutput, err))
	}

	if jsonOutput {
		printSuccess(OpenAPIOutput{
			File:    openapiOutput,
			Format:  openapiFormat,
			Version: doc.OpenAPI,
			Routes:  t.Len(),
			Paths:   doc.Paths.Len(),
		})
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n  %s Spec generated\n\n", green("✓"))
	fmt.Printf("  Output:  %s\n", green(openapiOutput))
	fmt.Printf("  Format:  OpenAPI %s (%s)\n", doc.OpenAPI, openapiFormat)
	fmt.Printf("  Routes:  %d\n", t.Len())
	fmt.Printf("  Paths:   %d\n\n", doc.Paths.Len())
}
