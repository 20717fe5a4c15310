package commands

import (
	"encoding/json"
	"fmt"
	"os"
)

// jsonOutput is the global flag for JSON output mode
var jsonOutput bool

// JSONResponse is the standard response wrapper for JSON output
type JSONResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FindOutput represents the JSON output for the find command
type FindOutput struct {
	Path   string         `json:"path"`
	Found  bool           `json:"found"`
	Route  any            `json:"route,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// GenerateOutput represents the JSON output for the generate command
type GenerateOutput struct {
	URL    string         `json:"url"`
	Path   string         `json:"path"`
	Params map[string]any `json:"params,omitempty"`
}

// OpenAPIOutput represents the JSON output for the openapi command
type OpenAPIOutput struct {
	File    string `json:"file,omitempty"`
	Format  string `json:"format"`
	Version string `json:"version"`
	Routes  int    `json:"routes"`
	Paths   int    `json:"paths"`
}

// InitOutput represents the JSON output for the init command
type InitOutput struct {
	File   string `json:"file"`
	Config any    `json:"config"`
}

// ServeOutput represents the JSON output for the serve command
type ServeOutput struct {
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
	Routes int    `json:"routes"`
	Watch  bool   `json:"watch"`
}

// printJSON outputs data as formatted JSON to stdout
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
	}
}

// printSuccess outputs a successful JSON response
func printSuccess(data any) {
	printJSON(JSONResponse{Success: true, Data: data})
}

// printJSONError outputs an error as JSON
func printJSONError(err error) {
	printJSON(JSONResponse{Success: false, Error: err.Error()})
}
