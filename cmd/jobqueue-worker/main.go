// Command jobqueue-worker runs a pool of Worker instances against a
// shared Store, plus the background RetentionWorker and
// MetricsRollupWorker tasks. It claims and executes jobs; it exposes no
// HTTP surface of its own.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brindlehq/jobqueue"
	"github.com/brindlehq/jobqueue/admission"
	"github.com/brindlehq/jobqueue/config"
	"github.com/brindlehq/jobqueue/eventbus"
	"github.com/brindlehq/jobqueue/handler"
	"github.com/brindlehq/jobqueue/job"
	gsql "github.com/brindlehq/jobqueue/sql"
)

var handlerSleep time.Duration

func main() {
	root := &cobra.Command{
		Use:   "jobqueue-worker",
		Short: "Runs a worker pool that claims and executes queued jobs",
		RunE:  runWorker,
	}
	root.Flags().DurationVar(&handlerSleep, "stub-sleep", 0,
		"duration the built-in stub handler sleeps per job; set this only when no real handler is wired in")
	if err := root.Execute(); err != nil {
		slog.Error("jobqueue-worker exited", "err", err)
		os.Exit(1)
	}
}

func runWorker(cmd *cobra.Command, args []string) error {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := gsql.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := gsql.InitDB(ctx, db); err != nil {
		return err
	}

	st := gsql.NewStore(db)
	gate := admission.NewGate()

	// Reseed the in-memory concurrency counter from the jobs table before
	// any worker starts claiming: the counter itself is never persisted,
	// only the RUNNING rows it is derived from.
	counts, err := st.RunningCounts(ctx)
	if err != nil {
		return err
	}
	gate.Seed(counts)

	bus := eventbus.New()
	defer bus.Close()

	pool := jobqueue.NewWorkerPool("worker", st, gate, bus, handler.Stub(handlerSleep), &jobqueue.PoolConfig{
		Size: cfg.WorkerPoolSize,
		Worker: jobqueue.WorkerConfig{
			PollInterval: cfg.PollInterval(),
			LeaseTTL:     cfg.LeaseTTL(),
			PollBackoff: jobqueue.BackoffConfig{
				MaxRetries:          uint32(cfg.PollBackoffMaxRetries),
				InitialInterval:     100 * time.Millisecond,
				MaxInterval:         10 * time.Second,
				Multiplier:          2,
				RandomizationFactor: 0.2,
			},
		},
	}, log)

	retention := jobqueue.NewRetentionWorker(st, &jobqueue.RetentionConfig{
		Status:   job.Unknown,
		Interval: time.Hour,
		Before:   true,
		Delta:    30 * 24 * time.Hour,
	}, log)

	rollup := jobqueue.NewMetricsRollupWorker(st, time.Minute, log)

	if err := pool.Start(ctx); err != nil {
		return err
	}
	if err := retention.Start(ctx); err != nil {
		return err
	}
	if err := rollup.Start(ctx); err != nil {
		return err
	}

	log.Info("jobqueue-worker started", "pool_size", cfg.WorkerPoolSize)
	<-ctx.Done()
	log.Info("jobqueue-worker shutting down")

	const drainTimeout = 30 * time.Second
	if err := pool.Stop(drainTimeout); err != nil {
		log.Error("worker pool failed to stop cleanly", "err", err)
	}
	if err := retention.Stop(drainTimeout); err != nil {
		log.Error("retention worker failed to stop cleanly", "err", err)
	}
	if err := rollup.Stop(drainTimeout); err != nil {
		log.Error("metrics rollup worker failed to stop cleanly", "err", err)
	}
	return nil
}
