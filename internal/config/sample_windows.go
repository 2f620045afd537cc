package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// CreateSample writes the sample configuration to path via a sibling temp
// file and rename. renameio does not build on Windows.
func CreateSample(path string) error {
	dir := filepath.Dir(path)
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create pending config: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.WriteString(sampleConfig); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close pending config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("commit sample config: %w", err)
	}
	return nil
}
