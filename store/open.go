package store

import (
	"fmt"

	"github.com/deepnoodle-ai/docdb/config"
)

// Open creates the backend selected by cfg
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendFileSys:
		return NewFileSysStore(cfg.Path)
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
