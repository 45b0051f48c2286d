// Package buildinfo formats build information that is embedded into the
// binaries.
package buildinfo

import (
	"runtime"
	"strings"
)

// Version builds a version string based on binary release information.
func Version(version, commit, date string) string {
	parts := []string{version}
	if commit != "" {
		parts = append(parts, "commit: "+commit)
	}
	if date != "" {
		parts = append(parts, "built at: "+date)
	}
	parts = append(parts, "built with: "+runtime.Version())
	return strings.Join(parts, " ")
}
