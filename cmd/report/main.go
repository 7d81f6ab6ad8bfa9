// Command report enqueues a weekly report sweep on demand, for example to
// resend a week whose scheduled run failed.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	leaderboardqueue "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/infrastructure/queue"
	"github.com/Black-And-White-Club/stride-bot/app/observability/metrics"
	"github.com/Black-And-White-Club/stride-bot/app/shared/calendar"
	"github.com/Black-And-White-Club/stride-bot/config"
	"github.com/Black-And-White-Club/stride-bot/db/bundb"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "report",
		Usage: "enqueue a weekly report sweep",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:  "date",
				Usage: "any date (YYYY-MM-DD) inside the week to report; defaults to today",
			},
		},
		Action: trigger,
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func trigger(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	reportAt := time.Now().In(loc)
	if raw := c.String("date"); raw != "" {
		reportAt, err = time.ParseInLocation(calendar.DateLayout, raw, loc)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", raw, err)
		}
	}

	db, err := bundb.Open(c.Context, cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	// Insert-only: the client is never started, the running service picks the job up.
	queue, err := leaderboardqueue.NewService(c.Context, db, logger, cfg.Postgres.DSN, metrics.NoOpMetrics{}, nil, loc, nil)
	if err != nil {
		return err
	}
	defer func() { _ = queue.Stop(c.Context) }()

	jobID, err := queue.TriggerWeeklyReport(c.Context, reportAt)
	if err != nil {
		return err
	}
	fmt.Printf("Enqueued weekly report job %d for the week of %s\n", jobID, calendar.WeekOf(reportAt))
	return nil
}
