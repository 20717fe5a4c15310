// Command routekit inspects, serves and documents file-based routes.
package main

import "github.com/abdul-hamid-achik/routekit/cmd/routekit/commands"

func main() {
	commands.Execute()
}
