package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// ExpandHome replaces a leading ~ with the user's home directory.
// The path is returned unchanged when the home directory is unknown.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		return path
	}
	return filepath.Join(homeDir, path[1:])
}

// ResolvePath expands ~ and resolves a relative path against baseDir.
// An empty baseDir leaves relative paths relative to the working directory.
func ResolvePath(path, baseDir string) string {
	path = ExpandHome(path)
	if filepath.IsAbs(path) || baseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}
