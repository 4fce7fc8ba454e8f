package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voxlight.ai/internal/persistence/indexdb"
)

func openRuntimeIndex(worldDir string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("VL_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(worldDir, "index", "world.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported VL_INDEX_BACKEND: %s", backend)
	}
}
