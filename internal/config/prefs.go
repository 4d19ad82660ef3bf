package config

import (
	"os"
	"path/filepath"
)

const (
	// Keys mirror the names the web client keeps in localStorage
	TokenKey    = "token"
	ProviderKey = "selectedProvider"
	ModelKey    = "selectedModel"

	DefaultProvider = "openai"
	DefaultModel    = "openai/gpt-4o-mini"
)

var prefsFile = GetEnvOrDefault("REVIEWLY_PREFS_FILE", defaultPrefsFile())

func defaultPrefsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".reviewly.yaml"
	}
	return filepath.Join(dir, "reviewly", "prefs.yaml")
}

// GetPrefsFile returns the path of the file-backed preference store
func GetPrefsFile() string {
	return prefsFile
}

// SetPrefsFile temporarily changes the preference file path and returns a function to restore it
// This is primarily used for testing
func SetPrefsFile(path string) func() {
	previous := prefsFile
	prefsFile = path
	return func() {
		prefsFile = previous
	}
}
