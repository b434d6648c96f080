package config

import (
	"os"
	"path/filepath"
	"strings"
)

var projectConfigNames = []string{"tada.toml", ".tada.toml", "tada.yaml", ".tada.yaml"}

// findUserConfigFile returns the user-level config file, if any.
func findUserConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	for _, name := range []string{"config.toml", "config.yaml"} {
		p := filepath.Join(dir, "tada", name)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// findProjectConfigFile returns the first project config in the working directory.
func findProjectConfigFile() string {
	for _, name := range projectConfigNames {
		if fileExists(name) {
			return name
		}
	}
	return ""
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// expandPath expands ~ and environment variables.
func expandPath(p string) string {
	expanded := os.ExpandEnv(p)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		return filepath.Join(home, strings.TrimPrefix(expanded, "~"))
	}
	return expanded
}
