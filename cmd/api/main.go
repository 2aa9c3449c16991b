package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/ec-checkout/internal/api"
	"github.com/example/ec-checkout/internal/auth"
	"github.com/example/ec-checkout/internal/command"
	"github.com/example/ec-checkout/internal/domain/address"
	"github.com/example/ec-checkout/internal/domain/cart"
	"github.com/example/ec-checkout/internal/domain/catalog"
	"github.com/example/ec-checkout/internal/domain/coupon"
	"github.com/example/ec-checkout/internal/domain/order"
	"github.com/example/ec-checkout/internal/domain/pricing"
	"github.com/example/ec-checkout/internal/infrastructure/kafka"
	"github.com/example/ec-checkout/internal/infrastructure/postgres"
	"github.com/example/ec-checkout/internal/infrastructure/session"
	"github.com/example/ec-checkout/internal/infrastructure/store"
	"github.com/example/ec-checkout/internal/metrics"
	"github.com/example/ec-checkout/internal/projection"
	"github.com/example/ec-checkout/internal/query"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// couponStore is a coupon registry that also accepts admin upserts
type couponStore interface {
	coupon.Registry
	api.CouponWriter
}

// backend is everything the handlers read from and write to
type backend struct {
	events    store.EventStoreInterface
	readStore store.ReadStoreInterface
	sessions  session.Store
	catalog   catalog.Reader
	coupons   couponStore
	addresses address.Book
	closers   []func() error
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Printf("[API] Close error: %v", err)
		}
	}
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("[API] Invalid configuration: %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] EC Checkout - Event Sourced Checkout API")
	log.Println("[API] ========================================")
	log.Printf("[API] Store mode: %s", cfg.StoreMode)

	ctx := context.Background()
	var b *backend
	if cfg.StoreMode == storeModeMemory {
		b = newMemoryBackend()
	} else {
		b, err = newPostgresBackend(ctx, cfg)
		if err != nil {
			log.Fatalf("[API] %v", err)
		}
	}
	defer b.close()

	reg := prometheus.NewRegistry()
	serverMetrics := metrics.NewServerMetrics(reg, "api")
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)

	cartSvc := cart.NewService(b.events)
	orderSvc := order.NewService(b.events)
	evaluator := coupon.NewEvaluator(coupon.NewSharedRegistry(b.coupons))
	engine := pricing.NewEngine(cfg.Pricing)
	log.Printf("[API] Pricing: free standard shipping from %s, standard %s, express %s, tax %s%%",
		cfg.Pricing.FreeShippingThreshold, cfg.Pricing.StandardFee, cfg.Pricing.ExpressFee, cfg.Pricing.TaxRatePercent)

	cmdHandler := command.NewHandler(b.catalog, cartSvc, orderSvc, b.sessions, evaluator, b.addresses, engine).
		WithMetrics(checkoutMetrics)
	queryHandler := query.NewHandler(b.readStore, b.addresses)
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)

	handlers := api.NewHandlers(cmdHandler, queryHandler, b.coupons)
	router := api.NewRouter(handlers, jwtService, serverMetrics, reg)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[API] Server started on :%s", cfg.HTTPPort)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
	log.Println("[API] Stopped")
}

// newPostgresBackend writes events to Postgres and Kafka, reads projections
// from Postgres and keeps checkout sessions in Redis. The projector binary
// fills the read tables.
func newPostgresBackend(ctx context.Context, cfg *Config) (*backend, error) {
	b := &backend{}

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	b.closers = append(b.closers, db.Close)
	if err := store.RunMigrations(db); err != nil {
		b.close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Println("[API] Connected to PostgreSQL, schema up to date")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	b.closers = append(b.closers, redisClient.Close)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		b.close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	log.Printf("[API] Connected to Redis at %s (session TTL %s)", cfg.RedisAddr, cfg.SessionTTL)

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	b.closers = append(b.closers, producer.Close)
	log.Printf("[API] Publishing to Kafka %v topic %s", cfg.KafkaBrokers, cfg.KafkaTopic)

	b.events = store.NewPostgresEventStore(db, producer)
	b.readStore = store.NewPostgresReadStore(db)
	b.sessions = session.NewRedisStore(redisClient, cfg.SessionTTL)
	b.catalog = postgres.NewCatalog(db)
	b.coupons = postgres.NewCouponRegistry(db)
	b.addresses = postgres.NewAddressBook(db)
	return b, nil
}

// newMemoryBackend runs the whole checkout in process. The projector is
// the event store's publisher, so read models update synchronously.
func newMemoryBackend() *backend {
	readStore := store.NewReadStore()
	projector := projection.NewProjector(readStore)
	products, coupons := seedData()

	log.Printf("[API] In-memory stores seeded with %d products and %d coupons", len(products), len(coupons))
	log.Println("[API] Note: all state is lost on restart")

	return &backend{
		events:    store.NewEventStore(projector),
		readStore: readStore,
		sessions:  session.NewMemoryStore(),
		catalog:   catalog.NewMemoryCatalog(products...),
		coupons:   coupon.NewMemoryRegistry(coupons...),
		addresses: address.NewMemoryBook(),
	}
}
