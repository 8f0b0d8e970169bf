package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"mintledger/internal/access"
	accesshandler "mintledger/internal/access/handler"
	"mintledger/internal/audit"
	"mintledger/internal/balance"
	balancehandler "mintledger/internal/balance/handler"
	jwttoken "mintledger/internal/jwt_token"
	"mintledger/internal/notify"
	"mintledger/internal/platform/config"
	"mintledger/internal/platform/httpserver"
	"mintledger/internal/platform/logger"
	platformredis "mintledger/internal/platform/redis"
	"mintledger/internal/royalty"
	royaltyhandler "mintledger/internal/royalty/handler"
	supplyhandler "mintledger/internal/supply/handler"
	supplymetrics "mintledger/internal/supply/metrics"
	"mintledger/internal/supply/ports"
	supplyservice "mintledger/internal/supply/service"
	supplymemory "mintledger/internal/supply/store/memory"
	supplypostgres "mintledger/internal/supply/store/postgres"
	supplyredis "mintledger/internal/supply/store/redis"
	httptransport "mintledger/internal/transport/http"
	id "mintledger/pkg/domain"
)

// main wires configuration, stores, services, and the HTTP transport. All
// business rules live in internal services packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seedAdmin, err := id.ParsePrincipal(cfg.SeedAdmin)
	if err != nil {
		return fmt.Errorf("SEED_ADMIN must be a valid principal UUID: %w", err)
	}

	// Persistence backend. The supply and role stores share one backend so a
	// deployment has a single source of truth.
	var (
		supplyStore ports.SupplyStore
		roleStore   access.RoleStore
	)
	switch cfg.Store {
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		supplyStore = supplypostgres.New(db)
		roleStore = access.NewPostgres(db)
	case config.StoreRedis:
		client, err := platformredis.New(cfg.Redis())
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		supplyStore = supplyredis.New(client.Client)
		// Role grants are small and admin-driven; they stay in memory until a
		// redis role store is needed.
		roleStore = access.NewInMemoryRoleStore()
	default:
		supplyStore = supplymemory.New()
		roleStore = access.NewInMemoryRoleStore()
	}

	auditStore := audit.NewInMemoryStore()
	auditPublisher := audit.NewPublisher(auditStore, audit.WithAsyncBuffer(1024))
	defer auditPublisher.Close()

	registry, err := access.New(ctx, roleStore, seedAdmin,
		access.WithLogger(log),
		access.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return fmt.Errorf("bootstrap access registry: %w", err)
	}

	var notifier ports.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier, err := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
	} else {
		notifier = notify.NewMemoryNotifier()
	}

	ledger := balance.NewLedger()

	supplySvc, err := supplyservice.New(supplyStore, registry, ledger,
		supplyservice.WithLogger(log),
		supplyservice.WithNotifier(notifier),
		supplyservice.WithMetrics(supplymetrics.New()),
		supplyservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return fmt.Errorf("build supply service: %w", err)
	}

	royaltySvc, err := royalty.New(registry,
		royalty.WithLogger(log),
		royalty.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return fmt.Errorf("build royalty service: %w", err)
	}

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "mintledger", "mintledger-api")

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Extractor: tokens,
		Handlers: []httptransport.Registrar{
			supplyhandler.New(supplySvc, log),
			accesshandler.New(registry, log),
			royaltyhandler.New(royaltySvc, log),
			balancehandler.New(ledger, log),
		},
	})

	srv := httpserver.New(cfg.HTTP(), router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting mintledger", "addr", cfg.Addr, "store", string(cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("mintledger stopped")
	return nil
}
