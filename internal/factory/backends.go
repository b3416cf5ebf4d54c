// Package factory constructs the backend adapters and confirmation store
// from configuration. All clients are explicitly constructed and injected;
// open/close lifecycle belongs to the process entry point.
package factory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamshai/hr-gateway/internal/backend/document"
	"github.com/tamshai/hr-gateway/internal/backend/postgres"
	"github.com/tamshai/hr-gateway/internal/backend/searchidx"
	"github.com/tamshai/hr-gateway/internal/config"
	"github.com/tamshai/hr-gateway/internal/confirm"
	"github.com/tamshai/hr-gateway/internal/rolefilter"
)

// Backends bundles the constructed adapters and the handles the entry point
// must close on shutdown.
type Backends struct {
	Employees *postgres.Adapter
	TimeOff   *document.Adapter
	Tickets   *searchidx.Adapter
	Confirm   *confirm.SQLStore

	PostgresDB *sql.DB
	SQLiteDB   *sql.DB
}

// RoleConfig extracts the role filter configuration.
func RoleConfig(cfg *config.Config) rolefilter.Config {
	return rolefilter.Config{
		FullAccessRoles: cfg.FullAccessRoleSet(),
		TeamRoles:       cfg.TeamRoleSet(),
	}
}

// New constructs all backends. Bootstrap checks that can block (postgres
// ping, weaviate schema) run async with a timeout so startup stays fast.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backends, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("HR_GATEWAY_POSTGRES_DSN is required")
	}
	roles := RoleConfig(cfg)

	pgdb, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqdb, err := document.Open(cfg.SQLitePath)
	if err != nil {
		_ = pgdb.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := document.EnsureSchema(ctx, sqdb); err != nil {
		_ = pgdb.Close()
		_ = sqdb.Close()
		return nil, fmt.Errorf("document schema: %w", err)
	}
	if err := confirm.EnsureSchema(ctx, sqdb); err != nil {
		_ = pgdb.Close()
		_ = sqdb.Close()
		return nil, fmt.Errorf("confirm schema: %w", err)
	}

	tickets, err := searchidx.New(cfg.SearchIndexURL, roles)
	if err != nil {
		_ = pgdb.Close()
		_ = sqdb.Close()
		return nil, fmt.Errorf("search index client: %w", err)
	}

	// Async bootstrap checks with configurable timeout; don't block startup.
	go func() {
		bctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.BootstrapTimeoutSeconds)*time.Second)
		defer cancel()
		if err := postgres.Bootstrap(bctx, cfg.PostgresDSN); err != nil {
			log.Warn().Err(err).Msg("postgres bootstrap check failed")
		}
		if err := searchidx.Bootstrap(bctx, cfg.SearchIndexURL); err != nil {
			log.Warn().Err(err).Str("url", cfg.SearchIndexURL).Msg("search index bootstrap failed")
		}
	}()

	return &Backends{
		Employees:  postgres.New(pgdb),
		TimeOff:    document.New(sqdb, roles),
		Tickets:    tickets,
		Confirm:    confirm.New(sqdb, cfg.ConfirmTTL()),
		PostgresDB: pgdb,
		SQLiteDB:   sqdb,
	}, nil
}

// Close releases the database handles.
func (b *Backends) Close() {
	if b.PostgresDB != nil {
		_ = b.PostgresDB.Close()
	}
	if b.SQLiteDB != nil {
		_ = b.SQLiteDB.Close()
	}
}
