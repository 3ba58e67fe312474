// Package paths provides centralized path handling for mdrive.
// It implements XDG Base Directory specification compliance for the
// index database and log file locations.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvIndexFile overrides the default index database location
	EnvIndexFile = "MDRIVE_INDEX_FILE"

	// EnvStateDir overrides the XDG state directory for mdrive
	EnvStateDir = "MDRIVE_STATE_DIR"
)

// Default directories and files
const (
	// AppDirName is the directory name for mdrive-specific files
	AppDirName = "mdrive"

	// IndexFileName is the name of the index database file
	IndexFileName = "index.db"

	// LogFileName is the name of the log file
	LogFileName = "mdrive.log"
)

// IndexFile returns the path to the index database.
// Resolution order: MDRIVE_INDEX_FILE, then $XDG_DATA_HOME/mdrive/index.db.
func IndexFile() string {
	if p := os.Getenv(EnvIndexFile); p != "" {
		return p
	}
	return filepath.Join(xdg.DataHome, AppDirName, IndexFileName)
}

// LogFile returns the path to the log file.
// Resolution order: MDRIVE_STATE_DIR, then $XDG_STATE_HOME/mdrive.
func LogFile() string {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return filepath.Join(dir, LogFileName)
	}
	return filepath.Join(xdg.StateHome, AppDirName, LogFileName)
}
