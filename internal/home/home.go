// Package home manages the shelfscan home directory layout.
package home

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultDirName is the default name for the shelfscan home directory.
	DefaultDirName = ".shelfscan"

	// ScansDirName is the subdirectory for archived shelf photos.
	ScansDirName = "scans"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the shelfscan home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.shelfscan).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ScansPath returns the path to the scan archive directory.
func (d *Dir) ScansPath() string {
	return filepath.Join(d.path, ScansDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// ScanResultPath returns the path where a scan's result JSON is written.
func (d *Dir) ScanResultPath(jobID string) string {
	return filepath.Join(d.ScansPath(), jobID+".json")
}

// ScanImagePath returns the path where a scan's source photo is archived.
// The extension follows the upload's type.
func (d *Dir) ScanImagePath(jobID, ext string) string {
	if ext == "" {
		ext = ".jpg"
	}
	return filepath.Join(d.ScansPath(), jobID+ext)
}

// EnsureExists creates the home directory and subdirectories if they
// don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.ScansPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create scans directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// Timestamp formats a time the way archived scan files are named.
func Timestamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
