package legacyimport

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func saveSnapshot(dir string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	timestamp := time.Now().Format("20060102_150405")
	snapshotPath := filepath.Join(dir, fmt.Sprintf("legacy_export_%s.json", timestamp))
	return atomicWrite(snapshotPath, data)
}

func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
