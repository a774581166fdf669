package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"altar/internal/law/catalog"
	"altar/internal/law/handler"
	lawmetrics "altar/internal/law/metrics"
	"altar/internal/law/ports"
	"altar/internal/law/service"
	observancestore "altar/internal/observance/store"
	"altar/internal/platform/config"
	"altar/internal/platform/httpserver"
	"altar/internal/platform/logger"
	"altar/internal/platform/metrics"
	"altar/internal/platform/middleware"
	"altar/internal/platform/postgres"
	"altar/internal/platform/redis"
	"altar/pkg/platform/audit/publisher"
	"altar/pkg/platform/audit/publishers/kafka"
	auditmemory "altar/pkg/platform/audit/store/memory"
	"altar/pkg/platform/httputil"
	"altar/pkg/platform/middleware/metadata"
	"altar/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid logger configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("altar stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	lawMetrics := lawmetrics.New(reg)
	httpMetrics := metrics.New(reg)

	initial, err := catalog.LoadOrDefault(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	holder, err := catalog.NewHolder(initial)
	if err != nil {
		return err
	}
	lawMetrics.SetCatalogRules(initial.Len())
	log.Info("catalog loaded",
		"path", cfg.Catalog.Path,
		"version", initial.Version(),
		"rules", initial.Len(),
	)

	observances, closeStore, err := openObservanceStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	auditPublisher, closeAudit, err := openAuditPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	svc, err := service.New(holder, observances,
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(lawMetrics),
		service.WithDefaultPoints(cfg.Observance.Points),
	)
	if err != nil {
		return fmt.Errorf("build law service: %w", err)
	}

	if cfg.Catalog.Watch {
		watcher, err := catalog.NewWatcher(cfg.Catalog.Path, holder,
			catalog.WithLogger(log),
			catalog.WithDebounce(cfg.Catalog.Debounce),
			catalog.WithReloadHook(svc.ObserveReload),
		)
		if err != nil {
			return fmt.Errorf("build catalog watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("start catalog watcher: %w", err)
		}
		defer watcher.Stop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"status":          "ok",
			"catalog_version": holder.Current().Version(),
		})
	})
	r.Handle("/metrics", metrics.Handler(reg))
	handler.New(svc, log, httpMetrics, handler.WithTimeout(cfg.Server.RequestTimeout)).Register(r)

	srv := httpserver.New(cfg.Server.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting altar", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func openObservanceStore(ctx context.Context, cfg config.Config, log *slog.Logger) (ports.ObservanceStore, func(), error) {
	switch cfg.Observance.Backend {
	case config.BackendRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("observance store ready", "backend", "redis")
		store := observancestore.NewRedis(client.Client, observancestore.WithMarkerTTL(cfg.Observance.TTL))
		return store, func() { _ = client.Close() }, nil
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := observancestore.NewPostgres(db)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info("observance store ready", "backend", "postgres")
		return store, func() { _ = db.Close() }, nil
	default:
		log.Info("observance store ready", "backend", "memory")
		return observancestore.NewInMemory(), func() {}, nil
	}
}

func openAuditPublisher(cfg config.Config, log *slog.Logger) (ports.AuditPublisher, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		store := auditmemory.NewInMemoryStore(auditmemory.WithCapacity(cfg.Audit.MemoryCapacity))
		p := publisher.NewPublisher(store, publisher.WithLogger(log))
		log.Info("audit publisher ready", "sink", "memory", "capacity", cfg.Audit.MemoryCapacity)
		return p, p.Close, nil
	}
	sink, err := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
	if err != nil {
		return nil, nil, fmt.Errorf("connect kafka: %w", err)
	}
	p := publisher.NewPublisher(sink,
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(cfg.Kafka.BufferSize),
	)
	log.Info("audit publisher ready", "sink", "kafka", "topic", cfg.Kafka.AuditTopic)
	return p, func() {
		p.Close()
		sink.Close()
	}, nil
}
