// Package pathutil maps working-directory paths to the flattened
// directory names used under the projects root.
package pathutil

import (
	"path/filepath"
	"strings"
)

// EncodePath converts a filesystem path to the flat directory name the
// external writer uses for per-project session storage.
//
// Examples:
//
//	Unix:    /home/dev/webapp       → -home-dev-webapp
//	Windows: C:\Users\dev\webapp    → -C:-Users-dev-webapp
func EncodePath(path string) string {
	// Clean normalises separators and drops trailing slashes; ToSlash
	// makes the replace identical across platforms.
	return strings.ReplaceAll(filepath.ToSlash(filepath.Clean(path)), "/", "-")
}
