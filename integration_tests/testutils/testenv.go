package testutils

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"

	"github.com/Black-And-White-Club/stride-bot/app/eventbus"
	"github.com/Black-And-White-Club/stride-bot/config"
	"github.com/Black-And-White-Club/stride-bot/db/bundb"
	"github.com/Black-And-White-Club/stride-bot/integration_tests/containers"
)

// TestEnvironment holds all resources needed for integration testing
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer testcontainers.Container
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Config        *config.Config
	Logger        *slog.Logger
}

// NewTestEnvironment starts Postgres and NATS, applies every migration and
// creates the JetStream streams.
func NewTestEnvironment() (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())

	env := &TestEnvironment{
		Ctx:           ctx,
		CancelContext: cancel,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if err := env.setupContainers(ctx); err != nil {
		env.Cleanup()
		return nil, err
	}
	return env, nil
}

func (env *TestEnvironment) setupContainers(ctx context.Context) error {
	pgContainer, pgConnStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer = pgContainer

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup nats container: %w", err)
	}
	env.NatsContainer = natsContainer

	env.Config = &config.Config{
		Postgres: config.PostgresConfig{DSN: pgConnStr},
		NATS:     config.NATSConfig{URL: natsURL},
		Ledger:   config.LedgerConfig{Timezone: "UTC"},
	}

	db, err := bundb.Open(ctx, env.Config.Postgres)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	env.DB = db

	if err := bundb.Migrate(ctx, db, pgConnStr, env.Logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	eventBus, err := eventbus.NewEventBus(ctx, natsURL, env.Logger)
	if err != nil {
		return fmt.Errorf("failed to create EventBus: %w", err)
	}
	env.EventBus = eventBus

	if err := eventbus.InitializeStreams(ctx, eventBus, eventbus.DefaultStreams); err != nil {
		return fmt.Errorf("failed to create streams: %w", err)
	}
	return nil
}

// Reset empties the ledger tables and River's job table between tests.
func (env *TestEnvironment) Reset() error {
	return CleanupDatabase(env.Ctx, env.DB)
}

// Cleanup tears down all resources created for testing
func (env *TestEnvironment) Cleanup() {
	log.Println("Cleaning up test environment...")
	if env.CancelContext != nil {
		env.CancelContext()
	}
	if env.EventBus != nil {
		if err := env.EventBus.Close(); err != nil {
			log.Printf("Error closing EventBus: %v", err)
		}
	}
	if env.DB != nil {
		env.DB.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if env.NatsContainer != nil {
		if err := env.NatsContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating NATS container: %v", err)
		}
	}
	if env.PgContainer != nil {
		if err := env.PgContainer.Terminate(ctx); err != nil {
			log.Printf("Error terminating Postgres container: %v", err)
		}
	}
	log.Println("Cleanup complete.")
}
