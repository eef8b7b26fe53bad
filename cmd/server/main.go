package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tradepost/internal/audit"
	"tradepost/internal/auth/gate"
	authhandler "tradepost/internal/auth/handler"
	"tradepost/internal/auth/principal"
	"tradepost/internal/auth/revocation"
	"tradepost/internal/auth/secrets"
	authservice "tradepost/internal/auth/service"
	"tradepost/internal/auth/token"
	"tradepost/internal/platform/config"
	"tradepost/internal/platform/httpserver"
	"tradepost/internal/platform/logger"
	"tradepost/internal/platform/postgres"
	"tradepost/internal/platform/redis"
	producthandler "tradepost/internal/product/handler"
	productservice "tradepost/internal/product/service"
	productstore "tradepost/internal/product/store"
	httptransport "tradepost/internal/transport/http"
	userhandler "tradepost/internal/user/handler"
	userservice "tradepost/internal/user/service"
	userstore "tradepost/internal/user/store"
)

// main wires dependencies and runs the server plus background workers under a
// single errgroup. Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage backends. Empty DSN/URL means the corresponding backend is not
	// configured and in-memory stores are used instead.
	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	rdb, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var users userstore.Store
	var products productstore.Store
	if db != nil {
		users = userstore.NewPostgresStore(db)
		products = productstore.NewPostgresStore(db)
	} else {
		log.Warn("POSTGRES_DSN not set, using in-memory stores")
		users = userstore.NewInMemoryStore()
		products = productstore.NewInMemoryStore()
	}

	var revocations revocation.Store
	switch {
	case rdb != nil:
		revocations = revocation.NewRedisStore(rdb.Client)
	case db != nil:
		revocations = revocation.NewPostgresStore(db)
	default:
		revocations = revocation.NewInMemoryStore()
	}

	// Audit pipeline. Events always reach the log; Kafka is added when
	// brokers are configured.
	sinks := []audit.Sink{audit.NewLogSink(log)}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = kafka.Close(flushCtx)
		}()
		sinks = append(sinks, kafka)
	}
	auditor := audit.NewWorker(256, log, sinks...)

	codec := token.NewCodec(cfg.JWTSigningKey)
	hasher := secrets.NewHasher(cfg.BcryptCost)
	resolver := principal.NewResolver(users)
	authGate := gate.New(codec, revocations, resolver, log)

	handlers := httptransport.Handlers{
		Auth:     authhandler.New(authservice.New(users, hasher, codec, revocations, auditor, log), log),
		Users:    userhandler.New(userservice.New(users, hasher, auditor, log), log),
		Products: producthandler.New(productservice.New(products, users, auditor, log), log),
	}
	var checks []httptransport.HealthCheck
	if db != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
	}
	if rdb != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Check: rdb.Health})
	}
	router := httptransport.NewRouter(handlers, authGate, checks...)

	srv := httpserver.New(cfg.Addr, router)
	janitor := revocation.NewJanitor(revocations, cfg.PurgeInterval, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting tradepost", "addr", cfg.Addr)
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

	g.Go(func() error { return auditor.Run(gctx) })
	g.Go(func() error { return janitor.Run(gctx) })

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
