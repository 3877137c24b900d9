package research

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// DebugDumper writes pipeline artifacts to disk for offline inspection.
// Dumps are fire-and-forget: a write failure is logged and swallowed.
type DebugDumper struct {
	dir    string
	logger *zap.Logger
}

// NewDebugDumper creates a dumper writing into dir.
func NewDebugDumper(dir string, logger *zap.Logger) *DebugDumper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		dir = "."
	}
	return &DebugDumper{dir: dir, logger: logger}
}

// Dump writes one artifact as pretty-printed JSON.
func (d *DebugDumper) Dump(sessionID, name string, payload interface{}) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		d.logger.Warn("Debug dump marshal failed",
			zap.String("session_id", sessionID),
			zap.String("name", name),
			zap.Error(err),
		)
		return
	}

	filename := fmt.Sprintf("%s_%s_%s.json", name, sessionID, time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(d.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		d.logger.Warn("Debug dump write failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	d.logger.Debug("Debug dump written", zap.String("path", path))
}
