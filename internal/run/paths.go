package run

import (
	"os"
	"path/filepath"
)

// ConfigDir returns the per-user configuration directory for livespiff.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "livespiff"), nil
}

// DataDir returns the per-user data directory for livespiff, honoring
// XDG_DATA_HOME and falling back to ~/.local/share.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "livespiff"), nil
}

// RunsDir returns the default directory for saved run definition files.
func RunsDir() (string, error) {
	data, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(data, "runs"), nil
}
