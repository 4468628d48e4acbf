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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/marketplace-backend/internal/modules/address"
	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
	"github.com/georgemunganga/marketplace-backend/internal/modules/cart"
	"github.com/georgemunganga/marketplace-backend/internal/modules/catalog"
	"github.com/georgemunganga/marketplace-backend/internal/modules/customer"
	"github.com/georgemunganga/marketplace-backend/internal/modules/inventory"
	"github.com/georgemunganga/marketplace-backend/internal/modules/order"
	"github.com/georgemunganga/marketplace-backend/internal/modules/supplier"
	"github.com/georgemunganga/marketplace-backend/internal/modules/vendor"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/config"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/logging"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/metrics"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/store"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/store/memory"
)

// repositories is one storage backend for every module.
type repositories struct {
	tx        store.Transactor
	addresses address.Repository
	customers customer.Repository
	vendors   vendor.Repository
	suppliers supplier.Repository
	catalog   catalog.Repository
	listings  inventory.Repository
	carts     cart.Repository
	orders    order.Repository
	close     func() error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New("marketplace-api", cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Storage ─────────────────────────────────────────────
	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repos.close()

	sessions, err := openSessions(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// ── Metrics ─────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logging.Middleware(logger))
	router.Use(rec.Middleware)

	authService := auth.NewService(sessions, auth.Options{
		Secret:            []byte(cfg.JWTSecret),
		TTL:               cfg.SessionTTL,
		AdminID:           cfg.AdminID,
		AdminPasswordHash: cfg.AdminPasswordHash,
	})
	router.Use(auth.Middleware(authService))
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	auth.NewHandler(authService).RegisterRoutes(router)

	// ── Address Registry ────────────────────────────────────
	addressRegistry := address.NewRegistry(repos.addresses, repos.tx, authService, rec)
	address.NewHandler(addressRegistry).RegisterRoutes(router)

	// ── Catalog & Inventory ─────────────────────────────────
	catalogService := catalog.NewService(repos.catalog, repos.tx, authService)
	catalog.NewHandler(catalogService).RegisterRoutes(router)

	inventoryService := inventory.NewService(repos.listings, authService, rec)
	inventory.NewHandler(inventoryService).RegisterRoutes(router)

	// ── Parties ─────────────────────────────────────────────
	cartService := cart.NewService(repos.carts, inventoryService, repos.tx, authService)
	cart.NewHandler(cartService).RegisterRoutes(router)

	customerService := customer.NewService(repos.customers, addressRegistry, cartService, authService, repos.tx)
	customer.NewHandler(customerService).RegisterRoutes(router)

	vendorService := vendor.NewService(repos.vendors, addressRegistry, authService, repos.tx)
	vendor.NewHandler(vendorService).RegisterRoutes(router)

	supplierService := supplier.NewService(repos.suppliers, addressRegistry, repos.tx, authService)
	supplier.NewHandler(supplierService).RegisterRoutes(router)

	// ── Order Placement ─────────────────────────────────────
	orderService := order.NewService(order.Deps{
		Repo:      repos.orders,
		Carts:     repos.carts,
		Inventory: inventoryService,
		Addresses: addressRegistry,
		Suppliers: repos.suppliers,
		Tx:        repos.tx,
		Authz:     authService,
		Metrics:   rec,
	})
	order.NewHandler(orderService).RegisterRoutes(router)

	// ── Start Server ────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("marketplace API server starting", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openRepositories(ctx context.Context, cfg config.Config, logger *zap.Logger) (*repositories, error) {
	if cfg.StoreDriver == config.DriverMemory {
		s := memory.New()
		logger.Warn("using the in-memory store; data is lost on exit")
		return &repositories{
			tx:        s,
			addresses: s.Addresses(),
			customers: s.Customers(),
			vendors:   s.Vendors(),
			suppliers: s.Suppliers(),
			catalog:   s.Catalog(),
			listings:  s.Listings(),
			carts:     s.Carts(),
			orders:    s.Orders(),
			close:     func() error { return nil },
		}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("connected to the database")

	if cfg.AutoMigrate {
		if err := store.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("schema applied")
	}

	return &repositories{
		tx:        store.NewSQLTransactor(db),
		addresses: address.NewPostgresRepository(db),
		customers: customer.NewPostgresRepository(db),
		vendors:   vendor.NewPostgresRepository(db),
		suppliers: supplier.NewPostgresRepository(db),
		catalog:   catalog.NewPostgresRepository(db),
		listings:  inventory.NewPostgresRepository(db),
		carts:     cart.NewPostgresRepository(db),
		orders:    order.NewPostgresRepository(db),
		close:     db.Close,
	}, nil
}

func openSessions(ctx context.Context, cfg config.Config, logger *zap.Logger) (auth.SessionStore, error) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set; sessions are kept in process memory")
		return auth.NewMemorySessionStore(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return auth.NewRedisSessionStore(client, "marketplace:session"), nil
}
