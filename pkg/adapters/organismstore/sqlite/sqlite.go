// Package sqlite opens per-organism SQLite store files. Each organism
// directory carries exactly one store file; the engine opens it read-only so
// a curation pipeline can swap files in place between requests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore"
	"github.com/moop-bio/moop-engine/pkg/apperrors"
)

// Open validates and opens the store file at path for the named organism.
// A missing or unreadable file maps to apperrors.ErrStoreUnavailable so
// federation treats it as a per-organism soft failure.
func Open(ctx context.Context, organism, path string) (organismstore.Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("store file %s: %v: %w", path, err, apperrors.ErrStoreUnavailable)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("store path %s is a directory: %w", path, apperrors.ErrStoreUnavailable)
	}

	dsn := "file:" + path + "?mode=ro&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %v: %w", path, err, apperrors.ErrStoreUnavailable)
	}
	// The file driver accepts any path lazily, so verify with a ping.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store %s unreadable: %v: %w", path, err, apperrors.ErrStoreUnavailable)
	}
	return organismstore.NewSQLStore(db, organism, nil), nil
}

// NewOpener binds Open to a path resolver, typically registry.Snapshot.StorePath.
func NewOpener(resolve func(organism string) string) organismstore.Opener {
	return func(ctx context.Context, organism string) (organismstore.Store, error) {
		return Open(ctx, organism, resolve(organism))
	}
}
