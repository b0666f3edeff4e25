// Package staging manages the transient local files and directories used to
// stage registry uploads and downloads. Every acquisition returns a cleanup
// function; callers defer it so the staging copy never outlives the
// operation, on success or failure.
package staging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/quantfoundry/mlgit/pkg/table"
)

// JSONFile writes v as <name>.json in the working directory. The path is
// deterministic: concurrent calls staging the same artifact name race, which
// is the documented contract for this client.
func JSONFile(name string, v any) (string, func(), error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	path := filepath.Join(wd, name+".json")

	data, err := json.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", nil, fmt.Errorf("failed to write staging file: %w", err)
	}
	return path, removeFile(path), nil
}

// CSVFile writes the table as <name>.csv in the working directory.
func CSVFile(name string, t *table.Table, opts table.WriteOptions) (string, func(), error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	path := filepath.Join(wd, name+".csv")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	if err := table.Encode(f, t, opts); err != nil {
		_ = f.Close()
		removeFile(path)()
		return "", nil, fmt.Errorf("failed to encode table: %w", err)
	}
	if err := f.Close(); err != nil {
		removeFile(path)()
		return "", nil, fmt.Errorf("failed to close staging file: %w", err)
	}
	return path, removeFile(path), nil
}

// VersionDir creates a staging directory named after the model version in
// the working directory and returns it together with the model file path
// inside it.
func VersionDir(version string) (string, string, func(), error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	dir := filepath.Join(wd, version)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", "", nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return dir, filepath.Join(dir, "model"), removeDir(dir), nil
}

// TempDir creates a fresh download directory with an unpredictable name.
func TempDir(pattern string) (string, func(), error) {
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return dir, removeDir(dir), nil
}

func removeFile(path string) func() {
	return func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove staging file", "path", path, "error", err)
		}
	}
}

func removeDir(dir string) func() {
	return func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("Failed to remove staging directory", "dir", dir, "error", err)
		}
	}
}
