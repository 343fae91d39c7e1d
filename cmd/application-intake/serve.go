package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"application-intake-go/internal/api"
	"application-intake-go/internal/cache"
	"application-intake-go/internal/config"
	"application-intake-go/internal/intake"
	"application-intake-go/internal/logger"
	"application-intake-go/internal/notify"
	"application-intake-go/internal/store"
	"application-intake-go/internal/upload"

	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "addr",
			Usage: "listen address, overrides SERVER_ADDR",
		},
	},
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.AppConfig
	addr := cfg.ServerAddr
	if v := cCtx.String("addr"); v != "" {
		addr = v
	}

	uploadDir := config.UploadPath()
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	uploads := upload.NewHandler(uploadDir)
	s3r, err := upload.NewS3ReplicatorFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init s3 replication: %w", err)
	}
	if s3r != nil {
		uploads.Replicator = s3r
	}

	mirror, err := store.NewMirrorFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s mirror: %w", cfg.StoreBackend, err)
	}
	if mirror != nil {
		defer mirror.Close()
	}

	rc := cache.NewFromConfig(cfg)
	if rc != nil {
		defer rc.Close()
	}

	opts := intake.Options{
		Mirror:     mirror,
		Cache:      rc,
		ReceiptTTL: time.Duration(cfg.CacheDefaultTTLSec) * time.Second,
	}
	if wh := notify.NewWebhookFromConfig(cfg); wh != nil {
		opts.Notifier = wh
	}

	book := store.NewXlsxStore(config.WorkbookPath())
	svc := intake.New(uploads, book, opts)
	defer svc.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(svc, book, mirror).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting api server", "addr", addr, "workbook", book.Path, "uploads", uploadDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
