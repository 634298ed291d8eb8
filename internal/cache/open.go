package cache

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/ledgerloom/internal/utils"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Open returns the Store for backend rooted at dir.
func Open(ctx context.Context, backend, dir string) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(filepath.Join(dir, "models"))
	case BackendSQLite:
		if err := utils.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
		return OpenSQLite(ctx, filepath.Join(dir, "models.db"))
	case BackendBadger:
		return OpenBadger(filepath.Join(dir, "badger"))
	default:
		return nil, fmt.Errorf("unknown cache backend %q (use memory, file, sqlite or badger)", backend)
	}
}
