// Package postgres opens per-organism stores hosted on a PostgreSQL server,
// one database per organism. The DSN template carries an {organism}
// placeholder expanded per store, e.g.
// "postgres://engine:pw@db:5432/{organism}?sslmode=disable".
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore"
	"github.com/moop-bio/moop-engine/pkg/apperrors"
	"github.com/moop-bio/moop-engine/pkg/logging"
)

// OrganismPlaceholder is the token in the DSN template replaced by the
// organism identifier, lowercased to match Postgres database naming.
const OrganismPlaceholder = "{organism}"

// Open connects to the organism's database. Connection failures map to
// apperrors.ErrStoreUnavailable so federation treats the organism as a soft
// failure rather than aborting the request.
func Open(ctx context.Context, organism, dsnTemplate string) (organismstore.Store, error) {
	dsn := strings.ReplaceAll(dsnTemplate, OrganismPlaceholder, strings.ToLower(organism))
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store for %s: %v: %w", organism, err, apperrors.ErrStoreUnavailable)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store for %s unreachable: %s: %w",
			organism, logging.SanitizeError(err), apperrors.ErrStoreUnavailable)
	}
	return organismstore.NewSQLStore(db, organism, organismstore.RebindDollar), nil
}

// NewOpener binds Open to a configured DSN template.
func NewOpener(dsnTemplate string) organismstore.Opener {
	return func(ctx context.Context, organism string) (organismstore.Store, error) {
		return Open(ctx, organism, dsnTemplate)
	}
}
