package home

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDirPaths(t *testing.T) {
	d, err := New("/tmp/shelfscan-test")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if d.Path() != "/tmp/shelfscan-test" {
		t.Errorf("Path() = %q", d.Path())
	}
	if d.ScansPath() != filepath.Join("/tmp/shelfscan-test", "scans") {
		t.Errorf("ScansPath() = %q", d.ScansPath())
	}
	if d.ConfigPath() != filepath.Join("/tmp/shelfscan-test", "config.yaml") {
		t.Errorf("ConfigPath() = %q", d.ConfigPath())
	}
	if got := d.ScanResultPath("job-1"); got != filepath.Join(d.ScansPath(), "job-1.json") {
		t.Errorf("ScanResultPath() = %q", got)
	}
	if got := d.ScanImagePath("job-1", ".png"); got != filepath.Join(d.ScansPath(), "job-1.png") {
		t.Errorf("ScanImagePath() = %q", got)
	}
	if got := d.ScanImagePath("job-1", ""); got != filepath.Join(d.ScansPath(), "job-1.jpg") {
		t.Errorf("ScanImagePath() with empty ext = %q", got)
	}
}

func TestDirDefaultPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	d, err := New("")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if filepath.Base(d.Path()) != DefaultDirName {
		t.Errorf("default path = %q", d.Path())
	}
}

func TestEnsureExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "home")
	d, _ := New(root)

	if d.Exists() {
		t.Error("Exists() = true before creation")
	}
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error: %v", err)
	}
	if !d.Exists() {
		t.Error("Exists() = false after creation")
	}
	if d.ConfigExists() {
		t.Error("ConfigExists() = true with no config written")
	}

	// Idempotent.
	if err := d.EnsureExists(); err != nil {
		t.Errorf("second EnsureExists() error: %v", err)
	}
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.FixedZone("PST", -8*3600))
	if got := Timestamp(ts); got != "20260314T172653Z" {
		t.Errorf("Timestamp() = %q", got)
	}
}
