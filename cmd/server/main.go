package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	jwttoken "rightsledger/internal/jwt_token"
	"rightsledger/internal/ledger/handler"
	ledgermetrics "rightsledger/internal/ledger/metrics"
	"rightsledger/internal/ledger/service"
	"rightsledger/internal/ledger/store"
	balancestore "rightsledger/internal/ledger/store/balance"
	receiptstore "rightsledger/internal/ledger/store/receipt"
	sharestore "rightsledger/internal/ledger/store/revenueshare"
	tokenstore "rightsledger/internal/ledger/store/token"
	transferstore "rightsledger/internal/ledger/store/transfer"
	"rightsledger/internal/platform/config"
	"rightsledger/internal/platform/httpserver"
	"rightsledger/internal/platform/logger"
	"rightsledger/internal/platform/middleware"
	platformredis "rightsledger/internal/platform/redis"
	"rightsledger/internal/roles"
	id "rightsledger/pkg/domain"
	"rightsledger/pkg/platform/audit"
	auditkafka "rightsledger/pkg/platform/audit/kafka"
	"rightsledger/pkg/platform/audit/publisher"
	auditmemory "rightsledger/pkg/platform/audit/store/memory"
)

// main wires configuration, stores, the ledger facade, and the HTTP
// transport. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx := context.Background()

	stores, svcOpts, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	// Audit pipeline: Kafka when brokers are configured, otherwise an
	// in-process store.
	var sink audit.Store
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := auditkafka.NewSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("audit events routed to kafka", "topic", cfg.KafkaTopic)
	} else {
		sink = auditmemory.NewInMemoryStore()
	}
	events := publisher.NewPublisher(sink, publisher.WithLogger(log), publisher.WithAsyncBuffer(256))
	defer events.Close()

	if cfg.AdminAddress != "" {
		admin, err := id.ParseAddress(cfg.AdminAddress)
		if err != nil {
			return err
		}
		if err := stores.Roles.Grant(ctx, admin, roles.RoleAdmin); err != nil {
			return err
		}
		log.Info("bootstrapped admin role", "address", admin.String())
	}

	svcOpts = append(svcOpts,
		service.WithLogger(log),
		service.WithAuditPublisher(events),
		service.WithMetrics(ledgermetrics.New()),
	)
	ledger := service.New(stores, cfg.RequiredFee, svcOpts...)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "rightsledger", "rightsledger")

	router := chi.NewRouter()
	if cfg.RateLimitPerMinute > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		router.Use(limiter.Middleware)
		log.Info("rate limiting enabled", "requests_per_minute", cfg.RateLimitPerMinute)
	}
	handler.New(ledger, log, jwtService).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Info("starting rightsledger", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildStores selects the backend: postgres when a DSN is configured,
// otherwise in-process memory stores. The returned options carry the
// transaction runner for the postgres case.
func buildStores(ctx context.Context, cfg config.Server, log *slog.Logger) (service.Stores, []service.Option, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Info("using in-memory stores")
		return service.Stores{
			Tokens:    tokenstore.NewInMemory(cfg.UniqueDocuments),
			Balances:  balancestore.NewInMemory(),
			Shares:    sharestore.NewInMemory(),
			Receipts:  receiptstore.NewInMemory(),
			Transfers: transferstore.NewInMemory(),
			Roles:     roles.NewInMemoryStore(),
		}, nil, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return service.Stores{}, nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return service.Stores{}, nil, nil, err
	}
	if _, err := db.ExecContext(ctx, store.Schema); err != nil {
		_ = db.Close()
		return service.Stores{}, nil, nil, err
	}
	log.Info("using postgres stores")

	var balances service.BalanceStore = balancestore.NewPostgres(db)
	cleanup := func() { _ = db.Close() }

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		cleanup()
		return service.Stores{}, nil, nil, err
	}
	if redisClient != nil {
		balances = balancestore.NewRedisCache(balances, redisClient.Client, balancestore.WithCacheLogger(log))
		dbClose := cleanup
		cleanup = func() {
			_ = redisClient.Close()
			dbClose()
		}
		log.Info("balance reads served through redis cache")
	}

	stores := service.Stores{
		Tokens:    tokenstore.NewPostgres(db, cfg.UniqueDocuments),
		Balances:  balances,
		Shares:    sharestore.NewPostgres(db),
		Receipts:  receiptstore.NewPostgres(db),
		Transfers: transferstore.NewPostgres(db),
		Roles:     roles.NewPostgres(db),
	}
	return stores, []service.Option{service.WithStoreTx(service.NewSQLStoreTx(db))}, cleanup, nil
}
