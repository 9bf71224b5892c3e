package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tinoosan/uniquefile/internal/config"
	"github.com/tinoosan/uniquefile/internal/fp"
	"github.com/tinoosan/uniquefile/internal/logging"
	"github.com/tinoosan/uniquefile/internal/metrics"
	"github.com/tinoosan/uniquefile/internal/repo"
	"github.com/tinoosan/uniquefile/internal/router"
	"github.com/tinoosan/uniquefile/internal/service"
	"github.com/tinoosan/uniquefile/internal/settings"
)

type store interface {
	repo.AttachmentRepo
	settings.Store
}

type memoryStore struct {
	*repo.InMemoryAttachmentRepo
	*repo.InMemoryOptionRepo
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	l, logCloser, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	var st store
	var closer io.Closer
	switch cfg.Storage {
	case config.StoragePostgres:
		pg, err := repo.NewPostgresRepo(cfg.Postgres.DSN())
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		st, closer = pg, pg
	default:
		st = memoryStore{repo.NewInMemoryAttachmentRepo(), repo.NewInMemoryOptionRepo()}
	}
	if closer != nil {
		defer closer.Close()
	}

	ctx := context.Background()
	if err := settings.EnsureDefaults(ctx, st); err != nil {
		return fmt.Errorf("option defaults: %w", err)
	}
	seedStoredAttachments(ctx, st, l)
	metrics.Register()

	alg, err := fp.ParseAlgorithm(cfg.FingerprintAlgorithm)
	if err != nil {
		return err
	}
	svc := service.NewAttachment(st, st, service.Options{
		UploadsDir: cfg.UploadsDir,
		UploadsURL: cfg.UploadsURL,
		SiteID:     cfg.SiteID,
		Algorithm:  alg,
	}, l)
	mgr := settings.NewManager(st, l)

	r := router.New(l, svc, mgr, st, router.Options{TmpDir: cfg.TmpDir, MaxUpload: cfg.MaxUploadBytes})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		l.Info("starting uniquefile", "addr", server.Addr, "storage", cfg.Storage, "fingerprint", alg)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	case sig := <-sigChan:
		l.Info("received terminate, graceful shutdown", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedStoredAttachments starts the gauge at the number of records already in
// the store. A failed count is logged and leaves the gauge at zero.
func seedStoredAttachments(ctx context.Context, r repo.AttachmentReader, l *slog.Logger) {
	list, err := r.List(ctx)
	if err != nil {
		l.Warn("count stored attachments", "err", err)
		return
	}
	metrics.StoredAttachments.Set(float64(len(list)))
}
