package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filerelay/internal/server"
)

func main() {
	settings := server.LoadSettings()
	if err := server.ValidateSettings(settings); err != nil {
		log.Printf("service=backend msg=%q err=%v", "invalid_configuration", err)
		os.Exit(1)
	}

	db, err := server.OpenDB(settings.DatabaseURL)
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "db_connect_failed", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	log.Printf("service=backend msg=%q", "running_migrations")
	if err := server.RunMigrations(db); err != nil {
		log.Printf("service=backend msg=%q err=%v", "migration_failed", err)
		os.Exit(1)
	}
	log.Printf("service=backend msg=%q", "migrations_complete")

	blobs, err := server.NewBlobStore(settings)
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "blob_store_init_failed", err)
		os.Exit(1)
	}

	store := server.NewFileStore(db)

	ready := func(ctx context.Context) error {
		return db.PingContext(ctx)
	}

	app := server.NewApp(settings, store, blobs, ready)
	srv := server.New(app)

	// The sweeper runs for the lifetime of the process and stops on
	// shutdown via this context.
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	sweeper := server.NewSweeper(store, settings.SweepInterval)
	go sweeper.Run(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s", "starting", settings.Addr)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		stopSweeper()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}
