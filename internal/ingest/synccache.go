package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/driveagent/driveagent/pkg/models"
)

// FileSyncCache persists the sync record as a JSON file. Writes go through a
// temp file and rename so a crash mid-write leaves either the old record or
// none, never a torn one.
type FileSyncCache struct {
	path string
}

// NewFileSyncCache creates a cache at the given path. The file need not exist.
func NewFileSyncCache(path string) *FileSyncCache {
	return &FileSyncCache{path: path}
}

// Load reads the last sync record. A missing or unparseable file means no
// prior sync: (nil, nil).
func (c *FileSyncCache) Load() (*models.SyncRecord, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sync cache: %w", err)
	}

	var rec models.SyncRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.LastSyncTime == "" || rec.FileCount < 0 {
		log.Warn().Str("path", c.path).Msg("sync cache unreadable, treating as absent")
		return nil, nil
	}
	return &rec, nil
}

// Store writes the record atomically (tmp + rename).
func (c *FileSyncCache) Store(rec *models.SyncRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal sync cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sync-cache-*")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp cache: %w", err)
	}

	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename sync cache: %w", err)
	}
	return nil
}
