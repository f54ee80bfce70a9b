package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const appDirName = "fortune-wheel"

var dataDirOverride string

// SetDataDir overrides the data directory (WHEEL_DATA_DIR).
func SetDataDir(dir string) {
	dataDirOverride = strings.TrimSpace(dir)
}

// GetDataDir returns the directory holding the database and logs.
func GetDataDir() string {
	if dataDirOverride != "" {
		return dataDirOverride
	}
	if dir := strings.TrimSpace(os.Getenv("WHEEL_DATA_DIR")); dir != "" {
		return dir
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, appDirName)
	}
	return filepath.Join(".", "data")
}

// GetDBPath returns the sqlite database path.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), "local.db")
}

// GetLogPath returns the log file used by the terminal client.
func GetLogPath() string {
	return filepath.Join(GetDataDir(), "wheel-tui.log")
}

// EnsureDataDirs creates the data directory if needed.
func EnsureDataDirs() error {
	return os.MkdirAll(GetDataDir(), 0o755)
}
