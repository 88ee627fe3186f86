package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront/internal/cart/cache"
	cartrepo "storefront/internal/cart/repository"
	cartservice "storefront/internal/cart/service"
	"storefront/internal/catalog"
	h "storefront/internal/http"
	"storefront/internal/order/publisher"
	orderrepo "storefront/internal/order/repository"
	orderservice "storefront/internal/order/service"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	MigrationsPath   string

	MongoURI     string
	MongoDB      string
	MongoMaxPool int
	MongoMinPool int

	CatalogDBPath         string
	CatalogMigrationsPath string

	RedisAddr    string
	CartCacheTTL time.Duration
	KafkaBrokers []string

	PriceToleranceCents   int64
	AllowCancelProcessing bool
	ShippingRateCents     int64
	TaxBps                int64
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		PostgresHost:     getEnv("POSTGRES_HOST", ""),
		PostgresPort:     getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "storefront"),
		MigrationsPath:   getEnv("MIGRATIONS_PATH", "./internal/order/repository/migrations"),

		MongoURI:     getEnv("MONGO_URI", ""),
		MongoDB:      getEnv("MONGO_DB", "storefront"),
		MongoMaxPool: getEnvInt("MONGO_MAX_POOL_SIZE", 100),
		MongoMinPool: getEnvInt("MONGO_MIN_POOL_SIZE", 10),

		CatalogDBPath:         getEnv("CATALOG_DB_PATH", ""),
		CatalogMigrationsPath: getEnv("CATALOG_MIGRATIONS_PATH", "./internal/catalog/migrations"),

		RedisAddr:    getEnv("REDIS_ADDR", ""),
		CartCacheTTL: getEnvDuration("CART_CACHE_TTL", cache.DefaultCartTTL),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),

		PriceToleranceCents:   int64(getEnvInt("PRICE_TOLERANCE_CENTS", 0)),
		AllowCancelProcessing: getEnv("ALLOW_CANCEL_PROCESSING", "true") == "true",
		ShippingRateCents:     int64(getEnvInt("SHIPPING_RATE_CENTS", 500)),
		TaxBps:                int64(getEnvInt("TAX_BPS", 0)),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("invalid %s=%q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("invalid %s=%q, using %s", key, value, defaultValue)
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	// catalog: sqlite when configured, seeded in-memory otherwise
	var products catalog.ProductStore
	if cfg.CatalogDBPath != "" {
		store, err := catalog.NewSQLiteStore(cfg.CatalogDBPath)
		if err != nil {
			log.Fatalf("failed to open catalog database: %v", err)
		}
		defer store.Close()
		if err := store.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
			log.Fatalf("failed to run catalog migrations: %v", err)
		}
		existing, err := store.List(ctx)
		if err != nil {
			log.Fatalf("failed to read catalog: %v", err)
		}
		if len(existing) == 0 {
			for _, p := range demoProducts() {
				if err := store.Upsert(ctx, p); err != nil {
					log.Fatalf("failed to seed catalog: %v", err)
				}
			}
		}
		products = store
		log.Printf("catalog: sqlite (%s)", cfg.CatalogDBPath)
	} else {
		store := catalog.NewMemoryStore()
		for _, p := range demoProducts() {
			store.Put(p)
		}
		products = store
		log.Println("catalog: in-memory demo assortment")
	}

	// cart storage: mongo when configured, in-memory otherwise
	var cartRepository cartrepo.CartRepository
	if cfg.MongoURI != "" {
		db, err := cartrepo.ConnectMongoDB(ctx, cartrepo.MongoConfig{
			URI:         cfg.MongoURI,
			Database:    cfg.MongoDB,
			MaxPoolSize: uint64(cfg.MongoMaxPool),
			MinPoolSize: uint64(cfg.MongoMinPool),
		})
		if err != nil {
			log.Fatalf("failed to connect to MongoDB: %v", err)
		}
		mongoRepo := cartrepo.NewMongoRepository(db)
		if err := mongoRepo.CreateIndexes(ctx); err != nil {
			log.Fatalf("failed to create cart indexes: %v", err)
		}
		cartRepository = mongoRepo
		log.Printf("cart storage: mongodb (%s)", cfg.MongoDB)
	} else {
		cartRepository = cartrepo.NewMemoryRepository()
		log.Println("cart storage: in-memory")
	}

	var cartCache cache.CartCache = cache.Nop{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to ping redis: %v", err)
		}
		cartCache = cache.NewRedisCache(client, cfg.CartCacheTTL)
		log.Printf("cart cache: redis (%s)", cfg.RedisAddr)
	}

	// order storage: postgres when configured, in-memory otherwise
	var orderRepository orderrepo.OrderRepository
	if cfg.PostgresHost != "" {
		creds := &orderrepo.Credentials{
			Host:              cfg.PostgresHost,
			Port:              cfg.PostgresPort,
			User:              cfg.PostgresUser,
			Password:          cfg.PostgresPassword,
			DBName:            cfg.PostgresDB,
			MigrationsDirPath: cfg.MigrationsPath,
		}
		repo, err := orderrepo.NewRepository(creds)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer repo.Close()
		if err := repo.RunMigrations(creds); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		orderRepository = repo
		log.Printf("order storage: postgres (%s)", cfg.PostgresDB)
	} else {
		orderRepository = orderrepo.NewMemoryRepository()
		log.Println("order storage: in-memory")
	}

	var events publisher.Publisher = publisher.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := publisher.NewKafkaPublisher(cfg.KafkaBrokers...)
		defer kafkaPublisher.Close()
		events = kafkaPublisher
		log.Printf("order events: kafka (%v)", cfg.KafkaBrokers)
	}

	var tax orderservice.TaxCalculator = orderservice.ZeroTax{}
	if cfg.TaxBps > 0 {
		tax = orderservice.BasisPointTax{Bps: cfg.TaxBps}
	}

	carts := cartservice.NewCartService(cartRepository, cartCache, products)
	orders := orderservice.NewOrderService(
		orderRepository,
		products,
		orderservice.NewGuardedTax(tax),
		orderservice.NewGuardedShipping(orderservice.FlatRateShipping{Rate: cfg.ShippingRateCents}),
		events,
		orderservice.Config{
			PriceToleranceCents:   cfg.PriceToleranceCents,
			AllowCancelProcessing: cfg.AllowCancelProcessing,
		},
	)

	router := h.NewRouter(
		h.NewCartHandler(carts, cfg.RequestTimeout),
		h.NewOrdersHandler(orders, cfg.RequestTimeout),
		h.NewProductsHandler(products, cfg.RequestTimeout),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

// demoProducts is the assortment loaded when the catalog starts empty.
func demoProducts() []catalog.Product {
	return []catalog.Product{
		{
			ID: "tshirt-classic", SKU: "TS-CL-01", Name: "Classic T-Shirt",
			Price: 1999, Currency: "USD", Stock: 120,
			Variants: []catalog.Variant{
				{Name: "size", Value: "S"},
				{Name: "size", Value: "M"},
				{Name: "size", Value: "L"},
				{Name: "size", Value: "XL", PriceModifier: 200},
				{Name: "color", Value: "black"},
				{Name: "color", Value: "white"},
			},
		},
		{
			ID: "mug-logo", SKU: "MG-LG-01", Name: "Logo Mug",
			Price: 1250, Currency: "USD", Stock: 64,
		},
		{
			ID: "poster-city", SKU: "PS-CT-01", Name: "City Poster",
			Price: 899, Currency: "USD", Stock: 30,
			Variants: []catalog.Variant{
				{Name: "format", Value: "A2"},
				{Name: "format", Value: "A1", PriceModifier: 400},
			},
		},
		{
			ID: "guide-digital", SKU: "EB-GD-01", Name: "Style Guide (PDF)",
			Price: 1499, Currency: "USD", Digital: true,
		},
	}
}
