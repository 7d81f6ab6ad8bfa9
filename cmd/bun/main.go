package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/Black-And-White-Club/stride-bot/config"
	"github.com/Black-And-White-Club/stride-bot/db/bundb"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "bun",
		Usage: "manage stride-bot database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			newMultiModuleDBCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// withMigrators opens the database for the duration of one command.
func withMigrators(c *cli.Context, fn func(ctx context.Context, cfg *config.Config, migrators []bundb.NamedMigrator) error) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := bundb.Open(c.Context, cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(c.Context, cfg, bundb.Migrators(db))
}

func findMigrator(migrators []bundb.NamedMigrator, moduleName string) (*migrate.Migrator, error) {
	for _, m := range migrators {
		if m.Module == moduleName {
			return m.Migrator, nil
		}
	}
	return nil, fmt.Errorf("invalid module name: %s", moduleName)
}

func newMultiModuleDBCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(ctx context.Context, _ *config.Config, migrators []bundb.NamedMigrator) error {
						for _, m := range migrators {
							fmt.Printf("Initializing migrations for module: %s\n", m.Module)
							if err := m.Migrator.Init(ctx); err != nil {
								fmt.Printf("Error initializing migrations for module %s: %v\n", m.Module, err)
								return err
							}
						}
						return nil
					})
				},
			},
			{
				Name:  "migrate",
				Usage: "migrate database, including River's job tables",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(ctx context.Context, cfg *config.Config, migrators []bundb.NamedMigrator) error {
						logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
						if err := bundb.MigrateRiver(ctx, cfg.Postgres.DSN, logger); err != nil {
							return err
						}
						for _, m := range migrators {
							fmt.Printf("Running migrations for module: %s\n", m.Module)
							if err := m.Migrator.Init(ctx); err != nil {
								return err
							}
							group, err := m.Migrator.Migrate(ctx)
							if err != nil {
								return err
							}
							if group.IsZero() {
								fmt.Printf("No new migrations to run for module: %s\n", m.Module)
							} else {
								fmt.Printf("Migrated module: %s to %s\n", m.Module, group)
							}
						}
						return nil
					})
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group of every module",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(ctx context.Context, _ *config.Config, migrators []bundb.NamedMigrator) error {
						// Reverse order so dependents roll back first.
						for i := len(migrators) - 1; i >= 0; i-- {
							m := migrators[i]
							fmt.Printf("Rolling back migrations for module: %s\n", m.Module)
							group, err := m.Migrator.Rollback(ctx)
							if err != nil {
								return err
							}
							if group.IsZero() {
								fmt.Printf("No groups to roll back for module: %s\n", m.Module)
							} else {
								fmt.Printf("Rolled back module: %s to %s\n", m.Module, group)
							}
						}
						return nil
					})
				},
			},
			{
				Name:      "create_go",
				Usage:     "create Go migration",
				ArgsUsage: "<module> <name...>",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(ctx context.Context, _ *config.Config, migrators []bundb.NamedMigrator) error {
						moduleName := c.Args().First()
						migrator, err := findMigrator(migrators, moduleName)
						if err != nil {
							return err
						}

						name := strings.Join(c.Args().Tail(), "_")
						mf, err := migrator.CreateGoMigration(ctx, name)
						if err != nil {
							return err
						}
						fmt.Printf("Created migration for module %s: %s (%s)\n", moduleName, mf.Name, mf.Path)
						return nil
					})
				},
			},
			{
				Name:      "create_sql",
				Usage:     "create up and down SQL migrations",
				ArgsUsage: "<module> <name...>",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(ctx context.Context, _ *config.Config, migrators []bundb.NamedMigrator) error {
						moduleName := c.Args().First()
						migrator, err := findMigrator(migrators, moduleName)
						if err != nil {
							return err
						}

						name := strings.Join(c.Args().Tail(), "_")
						files, err := migrator.CreateSQLMigrations(ctx, name)
						if err != nil {
							return err
						}

						for _, mf := range files {
							fmt.Printf("Created migration for module %s: %s (%s)\n", moduleName, mf.Name, mf.Path)
						}

						return nil
					})
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(ctx context.Context, _ *config.Config, migrators []bundb.NamedMigrator) error {
						for _, m := range migrators {
							ms, err := m.Migrator.MigrationsWithStatus(ctx)
							if err != nil {
								return err
							}
							fmt.Printf("Migrations for module: %s\n", m.Module)
							fmt.Printf("  %s\n", ms)
							fmt.Printf("  Applied: %s\n", ms.Applied())
							fmt.Printf("  Unapplied: %s\n", ms.Unapplied())
						}
						return nil
					})
				},
			},
		},
	}
}
