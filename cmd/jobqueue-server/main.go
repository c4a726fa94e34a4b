// Command jobqueue-server runs the HTTP and WebSocket reference surface
// in front of a JobService: submission, read paths, and a live event
// feed. It does not claim or run jobs itself; pair it with one or more
// jobqueue-worker processes against the same DATABASE_URL.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brindlehq/jobqueue/admission"
	"github.com/brindlehq/jobqueue/config"
	"github.com/brindlehq/jobqueue/eventbus"
	"github.com/brindlehq/jobqueue/gateway"
	"github.com/brindlehq/jobqueue/httpapi"
	"github.com/brindlehq/jobqueue/service"
	gsql "github.com/brindlehq/jobqueue/sql"
)

func main() {
	root := &cobra.Command{
		Use:   "jobqueue-server",
		Short: "HTTP and WebSocket reference surface for the job queue",
		RunE:  runServer,
	}
	if err := root.Execute(); err != nil {
		slog.Error("jobqueue-server exited", "err", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
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

	// This process reserves against the same Gate a jobqueue-worker
	// process seeds its own Gate from; rebuild this one's concurrency
	// counter from the same RUNNING rows so a restart here doesn't let a
	// tenant briefly exceed its concurrency cap.
	counts, err := st.RunningCounts(ctx)
	if err != nil {
		return err
	}
	gate.Seed(counts)

	bus := eventbus.New()
	defer bus.Close()

	svc := service.New(st, gate, bus, cfg.WorkerMaxRetries)
	gw := gateway.New(bus, log)
	router := httpapi.NewRouter(httpapi.NewServer(svc), gw)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("jobqueue-server listening", "addr", cfg.HTTPAddr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("jobqueue-server shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
