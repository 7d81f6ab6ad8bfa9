// Package bundb opens the Postgres connection and applies every schema the
// service owns: the per-module bun migrations and River's job tables.
package bundb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	activitydb "github.com/Black-And-White-Club/stride-bot/app/modules/activity/infrastructure/repositories"
	activitymigrations "github.com/Black-And-White-Club/stride-bot/app/modules/activity/infrastructure/repositories/migrations"
	rankdb "github.com/Black-And-White-Club/stride-bot/app/modules/rank/infrastructure/repositories"
	rankmigrations "github.com/Black-And-White-Club/stride-bot/app/modules/rank/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/stride-bot/app/shared/attr"
	"github.com/Black-And-White-Club/stride-bot/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// Open connects to Postgres and registers the ledger models.
func Open(ctx context.Context, cfg config.PostgresConfig) (*bun.DB, error) {
	sqldb, err := pgConn(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bunDB(sqldb)
	db.RegisterModel(
		(*activitydb.User)(nil),
		(*activitydb.ActivityRecord)(nil),
		(*rankdb.RankTier)(nil),
		(*rankdb.Challenge)(nil),
		(*rankdb.Motivation)(nil),
	)
	return db, nil
}

// bunDB returns a new bun.DB for given sql.DB connection pool.
func bunDB(sqldb *sql.DB) *bun.DB {
	return bun.NewDB(sqldb, pgdialect.New())
}

func pgConn(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqldb.PingContext(pingCtx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqldb, nil
}

// NamedMigrator is one module's migration set.
type NamedMigrator struct {
	Module   string
	Migrator *migrate.Migrator
}

// Migrators returns the module migrators in dependency order. Each module
// tracks its applied migrations in its own table so rollbacks stay scoped.
func Migrators(db *bun.DB) []NamedMigrator {
	return []NamedMigrator{
		{Module: "rank", Migrator: migrate.NewMigrator(db, rankmigrations.Migrations,
			migrate.WithTableName("rank_bun_migrations"),
			migrate.WithLocksTableName("rank_bun_migration_locks"),
		)},
		{Module: "activity", Migrator: migrate.NewMigrator(db, activitymigrations.Migrations,
			migrate.WithTableName("activity_bun_migrations"),
			migrate.WithLocksTableName("activity_bun_migration_locks"),
		)},
	}
}

// Migrate applies River's schema and every module migration.
func Migrate(ctx context.Context, db *bun.DB, dsn string, logger *slog.Logger) error {
	if err := MigrateRiver(ctx, dsn, logger); err != nil {
		return err
	}

	for _, m := range Migrators(db) {
		if err := m.Migrator.Init(ctx); err != nil {
			return fmt.Errorf("failed to init %s migrations: %w", m.Module, err)
		}
		if err := m.Migrator.Lock(ctx); err != nil {
			return fmt.Errorf("failed to lock %s migrations: %w", m.Module, err)
		}
		group, err := m.Migrator.Migrate(ctx)
		unlockErr := m.Migrator.Unlock(ctx)
		if err != nil {
			return fmt.Errorf("failed to migrate %s: %w", m.Module, err)
		}
		if unlockErr != nil {
			return fmt.Errorf("failed to unlock %s migrations: %w", m.Module, unlockErr)
		}
		if group.IsZero() {
			logger.InfoContext(ctx, "No new migrations", attr.String("module", m.Module))
			continue
		}
		logger.InfoContext(ctx, "Migrated module",
			attr.String("module", m.Module),
			attr.String("group", group.String()),
		)
	}
	return nil
}

// MigrateRiver brings River's job tables to the latest version.
func MigrateRiver(ctx context.Context, dsn string, logger *slog.Logger) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool for river migrations: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), &rivermigrate.Config{Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return fmt.Errorf("failed to run river migrations: %w", err)
	}
	for _, v := range res.Versions {
		logger.InfoContext(ctx, "Applied river migration", attr.Int("version", v.Version))
	}
	return nil
}
