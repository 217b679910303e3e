package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755

	// LocalSettingsFile overrides the global settings when present in the working directory
	LocalSettingsFile = ".kexedit.yaml"

	// DefaultDeviceURL is the converter's access point address
	DefaultDeviceURL = "http://192.168.4.1"
)

var (
	// ConfigDir is the global configuration directory (~/.kexedit)
	ConfigDir string

	// SettingsFile is the global YAML settings file
	SettingsFile string

	// KeybindsFile holds user key binding overrides
	KeybindsFile string

	// DatabasePath is the SQLite database file for the operation journal
	DatabasePath string

	// LogFile receives logs while the TUI owns the terminal
	LogFile string
)

const defaultSettings = `# kexedit settings
device: default
devices:
  - name: default
    url: ` + DefaultDeviceURL + `
# per-request timeout, 0 waits for the device indefinitely
timeout: 0s
history: true
log_level: info
# subscribe to /ws/scancodes in the TUI
monitor: false
`

// Initialize sets up the configuration directory and files
// It creates ~/.kexedit/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	return InitializeAt(filepath.Join(homeDir, ".kexedit"))
}

// InitializeAt sets up the configuration under dir
func InitializeAt(dir string) error {
	ConfigDir = dir
	SettingsFile = filepath.Join(ConfigDir, "config.yaml")
	KeybindsFile = filepath.Join(ConfigDir, "keybinds.json")
	DatabasePath = filepath.Join(ConfigDir, "kexedit.db")
	LogFile = filepath.Join(ConfigDir, "kexedit.log")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	// Create default settings if they don't exist
	if _, err := os.Stat(SettingsFile); os.IsNotExist(err) {
		if err := os.WriteFile(SettingsFile, []byte(defaultSettings), FilePermissions); err != nil {
			return fmt.Errorf("failed to create settings file: %w", err)
		}
	}

	return nil
}

// GetSettingsFilePath returns the settings file path (local or global)
func GetSettingsFilePath() string {
	if _, err := os.Stat(LocalSettingsFile); err == nil {
		return LocalSettingsFile
	}
	return SettingsFile
}
