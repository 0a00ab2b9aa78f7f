// Package statefile persists JSON snapshots to disk with a
// write-temp-then-rename pattern, so a crash mid-write never leaves a
// half-written file behind for the next startup to trip over.
package statefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	sitzerrors "sitzbot/backend/pkg/errors"
)

// Save marshals v as JSON and atomically replaces the file at path.
func Save(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling state for %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}
	return nil
}

// LoadOrDefault reads and unmarshals the JSON file at path into v. A
// missing or corrupt file is logged and silently treated as "use
// whatever zero value v already holds" rather than propagated, since
// persisted state is a cache of in-memory truth, not the source of it.
func LoadOrDefault(path string, v any, log *zap.Logger) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("error reading state file, falling back to default", zap.String("path", path), zap.Error(err))
		} else {
			log.Info("no state file found, using default", zap.String("path", path))
		}
		return
	}

	if err := json.Unmarshal(raw, v); err != nil {
		log.Warn("corrupt state file, falling back to default",
			zap.String("path", path), zap.Error(sitzerrors.NewCorruptStateFile(path, err)))
	}
}
