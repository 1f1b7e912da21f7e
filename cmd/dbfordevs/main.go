// Command dbfordevs runs the database access HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielss-dev/dbfordevs/internal/config"
	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/export"
	exportminio "github.com/danielss-dev/dbfordevs/internal/export/minio"
	"github.com/danielss-dev/dbfordevs/internal/logger"
	"github.com/danielss-dev/dbfordevs/internal/server"
	"github.com/danielss-dev/dbfordevs/internal/service"

	// Register the dialect drivers.
	_ "github.com/danielss-dev/dbfordevs/internal/db/mysql"
	_ "github.com/danielss-dev/dbfordevs/internal/db/postgres"
	_ "github.com/danielss-dev/dbfordevs/internal/db/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dbfordevs:", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr := db.NewManager(db.PoolOptions{
		MaxConns:        cfg.Pool.MaxConns,
		MinConns:        cfg.Pool.MinConns,
		MaxConnLifetime: cfg.Pool.MaxConnLifetime.Std(),
		MaxConnIdleTime: cfg.Pool.MaxConnIdleTime.Std(),
		ConnectTimeout:  cfg.Pool.ConnectTimeout.Std(),
	}, log)
	defer mgr.CloseAll()

	svc := service.New(mgr, log)

	var exporter *export.Exporter
	if cfg.Export.Enabled {
		sink, err := exportminio.New(ctx, exportminio.Config{
			Endpoint:  cfg.Export.Endpoint,
			AccessKey: cfg.Export.AccessKey,
			SecretKey: cfg.Export.SecretKey,
			UseSSL:    cfg.Export.UseSSL,
			Region:    cfg.Export.Region,
		})
		if err != nil {
			return err
		}
		if err := sink.EnsureBucket(ctx, cfg.Export.Bucket); err != nil {
			return err
		}
		exporter = export.NewExporter(sink, cfg.Export.Bucket, log)
		defer exporter.Close()
		log.Info().Str("endpoint", cfg.Export.Endpoint).Str("bucket", cfg.Export.Bucket).Msg("export sink ready")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(svc, exporter, log).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
