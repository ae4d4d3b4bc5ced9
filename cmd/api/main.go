// Package main is the entry point for the tag tracking API server.
// Its sole responsibility is wiring dependencies together and starting the
// server. No business logic belongs here.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/convoops/tagtrack/internal/airtable"
	"github.com/convoops/tagtrack/internal/config"
	"github.com/convoops/tagtrack/internal/handler"
	"github.com/convoops/tagtrack/internal/middleware"
	"github.com/convoops/tagtrack/internal/repo"
	"github.com/convoops/tagtrack/internal/service"
	"github.com/convoops/tagtrack/internal/tito"
)

// maxBodySize caps request bodies. The largest legitimate payload is a
// bulk scan of a few hundred EPCs, well under this.
const maxBodySize = 1 << 20 // 1 MiB

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output for log aggregators.
	// LOG_FILE switches to a size-rotated file for venue machines that run
	// unattended for days.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	var logOut io.Writer = os.Stdout
	if cfg.LogFile != "" {
		logOut = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
		}
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- External clients -------------------------------------------------
	store, err := airtable.NewClient(airtable.Config{
		APIKey: cfg.AirtableAPIKey,
		BaseID: cfg.AirtableBaseID,
		Table:  cfg.AirtableTable,
	}, logger)
	if err != nil {
		slog.Error("record store client error", "error", err)
		os.Exit(1)
	}

	ticketing, err := tito.NewClient(tito.Config{
		APIToken:    cfg.TitoAPIToken,
		AccountSlug: cfg.TitoAccountSlug,
		EventSlug:   cfg.TitoEventSlug,
	}, logger)
	if err != nil {
		slog.Error("ticketing client error", "error", err)
		os.Exit(1)
	}

	// --- Repo and engines -------------------------------------------------
	cache := repo.NewCache(cfg.CacheTTL)
	tags := repo.NewTagRepo(store, cache, logger)

	scans := service.NewScanService(tags, ticketing, logger)
	boxes := service.NewBoxService(tags, logger)
	dispatch := service.NewDispatchService(scans)
	dashboard := service.NewDashboardService(tags)
	reconcile := service.NewReconciliationService(tags)
	tagSvc := service.NewTagService(tags, logger)

	srv := handler.NewServer(scans, boxes, dispatch, dashboard, reconcile, tagSvc)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger →
	// Metrics → Recoverer → CORS → body cap.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(middleware.NewMetrics())
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodySize))

	srv.Routes(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // bulk scans make N sequential store calls
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for an OS signal, then give in-flight
	// requests up to 15 seconds to complete.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
