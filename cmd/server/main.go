package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/SamBailey6194/boutique-ado-v1/internal/bag"
	"github.com/SamBailey6194/boutique-ado-v1/internal/catalog"
	"github.com/SamBailey6194/boutique-ado-v1/internal/checkout"
	"github.com/SamBailey6194/boutique-ado-v1/internal/httpapi"
	"github.com/SamBailey6194/boutique-ado-v1/internal/notify"
	"github.com/SamBailey6194/boutique-ado-v1/internal/orders"
	"github.com/SamBailey6194/boutique-ado-v1/internal/payments"
	"github.com/SamBailey6194/boutique-ado-v1/internal/profiles"
	"github.com/SamBailey6194/boutique-ado-v1/internal/session"
)

type Config struct {
	HTTPPort        string
	RedisAddr       string
	RedisPassword   string
	MongoURI        string
	MongoDBName     string
	Postgres        orders.Credentials
	KafkaBrokers    string
	StripeSecretKey string
	StripeWHSecret  string
	Currency        string
	RequestTimeout  time.Duration
	WebhookTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:   getEnv("MONGO_DB_NAME", "boutiquedb"),
		Postgres: orders.Credentials{
			Host:              getEnv("POSTGRES_HOST", "localhost"),
			Port:              getEnvInt("POSTGRES_PORT", 5432),
			User:              getEnv("POSTGRES_USER", "postgres"),
			Password:          getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:            getEnv("POSTGRES_DB", "boutique"),
			MigrationsDirPath: getEnv("MIGRATIONS_DIR", "./migrations"),
		},
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		StripeWHSecret:  getEnv("STRIPE_WH_SECRET", ""),
		Currency:        getEnv("STRIPE_CURRENCY", "usd"),
		RequestTimeout:  30 * time.Second,
		WebhookTimeout:  25 * time.Second,
		ShutdownTimeout: 10 * time.Second,
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
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	if cfg.StripeSecretKey == "" {
		log.Printf("stripe secret key is missing, did you forget to set it in your environment?")
	}

	// Postgres: orders + profiles
	repo, err := orders.NewPostgresRepository(&cfg.Postgres)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer repo.Close()
	if err := repo.RunMigrations(&cfg.Postgres); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	log.Printf("connected to postgres at %s:%d", cfg.Postgres.Host, cfg.Postgres.Port)
	profileRepo := profiles.NewPostgresRepository(repo.DB())

	// MongoDB: product catalog
	mongoDB, err := catalog.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(ctx)
	cat := catalog.NewMongoCatalog(mongoDB)
	log.Printf("connected to MongoDB at %s", cfg.MongoURI)

	// Redis: session bags
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	sessions := session.NewRedisStore(redisClient)
	log.Printf("redis ping succeeded")

	// Kafka: confirmation notifier (optional)
	var notifier notify.Notifier = notify.Noop{}
	if cfg.KafkaBrokers != "" {
		kafkaNotifier := notify.NewKafkaNotifier(notify.ParseBrokers(cfg.KafkaBrokers)...)
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
		log.Printf("publishing confirmations to kafka at %s", cfg.KafkaBrokers)
	}

	rule := bag.DefaultDeliveryRule()
	bagService := bag.NewService(sessions, cat, rule)

	gateway := payments.NewStripeClient(cfg.StripeSecretKey)
	verifier := payments.NewWebhookVerifier(cfg.StripeWHSecret)

	engine := checkout.NewService(repo, cat, gateway, profileRepo, notifier, sessions, rule, checkout.DefaultConfig())

	bagHandler := httpapi.NewBagHandler(bagService, cfg.RequestTimeout)
	checkoutHandler := httpapi.NewCheckoutHandler(engine, bagService, repo, gateway, cfg.Currency, cfg.RequestTimeout)
	webhookHandler := httpapi.NewWebhookHandler(verifier, engine, cfg.WebhookTimeout)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Webhook stays outside the session middleware: the provider has no
	// session and the raw body must not be touched before verification.
	r.Post("/webhooks/stripe", webhookHandler.HandleStripeWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httpapi.SessionMiddleware)
		r.Route("/bag", func(r chi.Router) {
			r.Get("/", bagHandler.GetBag)
			r.Post("/items", bagHandler.AddItem)
			r.Put("/items/{product_id}", bagHandler.AdjustItem)
			r.Delete("/items/{product_id}", bagHandler.RemoveItem)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.StartCheckout)
			r.Post("/cache", checkoutHandler.CacheCheckoutData)
			r.Post("/complete", checkoutHandler.CompleteCheckout)
		})
		r.Get("/orders/{order_number}", checkoutHandler.GetOrder)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
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
