// Package version provides version information for the routekit CLI.
package version

// Version is set via ldflags during build.
var Version = "dev"

// RouteSchemaVersion is bumped when the JSON shape emitted by `routekit routes --json`
// or the dev server's /__routes endpoint changes incompatibly.
const RouteSchemaVersion = 1

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}

// GetRouteSchemaVersion returns the current route schema version.
func GetRouteSchemaVersion() int {
	return RouteSchemaVersion
}
