package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// Config holds the on-disk locations forestctl and the forest package need.
type Config struct {
	DataDir          string
	ForestFilePrefix string
	LogFilename      string
}

// DefaultConfig is the config used when the caller doesn't override
// anything via CLI flags.
var DefaultConfig = &Config{
	DataDir:          defaultDataDir(),
	ForestFilePrefix: forestFilePrefix,
	LogFilename:      logFilename,
}

// ForestPath returns the full path to the forest leaf snapshot.
func (c *Config) ForestPath() string {
	return filepath.Join(c.DataDir, c.ForestFilePrefix)
}

// LogPath returns the full path to the log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, c.LogFilename)
}

// defaultDataDir places the data directory in the user's home dir, under
// an OS-conventional location.
func defaultDataDir() string {
	home := homeDir()
	if home == "" {
		return dirName
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", dirName)
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", dirName)
	default:
		return filepath.Join(home, dirName)
	}
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
