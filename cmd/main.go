/**
 * @description
 * This is the main entry point for the payment-consumer-service. It is
 * responsible for initializing all components of the service, including
 * configuration, the account store, the resilient downstream clients, the
 * message producer, the core orchestration service, and the HTTP server.
 * It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/beneficiaryclient, pkg/processorclient: Resilient downstream clients.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/payflow/payment-consumer-service/internal/api"
	"github.com/payflow/payment-consumer-service/internal/app"
	"github.com/payflow/payment-consumer-service/internal/config"
	"github.com/payflow/payment-consumer-service/internal/store"
	"github.com/payflow/payment-consumer-service/pkg/beneficiaryclient"
	"github.com/payflow/payment-consumer-service/pkg/processorclient"
	rmrabbit "github.com/payflow/payment-consumer-service/pkg/rabbitmq"
	"github.com/payflow/payment-consumer-service/pkg/resilience"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting payment-consumer-service\" port=%s", cfg.ServerPort)

	// Initialize the data access layer. A configured DATABASE_URL selects the
	// Postgres-backed store; otherwise accounts are served from memory.
	var repository store.Repository
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		poolConfig, parseErr := pgxpool.ParseConfig(cfg.DatabaseURL)
		if parseErr != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", parseErr)
		}

		poolConfig.MaxConns = 50
		poolConfig.MinConns = 5
		poolConfig.MaxConnLifetime = 30 * time.Minute
		poolConfig.MaxConnIdleTime = 5 * time.Minute

		// Disable prepared statement caching to prevent conflicts
		poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

		dbpool, poolErr := pgxpool.NewWithConfig(context.Background(), poolConfig)
		if poolErr != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", poolErr)
		}
		defer dbpool.Close()
		log.Println("level=info component=bootstrap msg=\"database connected\"")

		pgRepo := store.NewPostgresRepository(dbpool)
		seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
		if seedErr := pgRepo.EnsureSeedAccounts(seedCtx); seedErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"seed account provisioning failed\" err=%v", seedErr)
		}
		cancelSeed()
		repository = pgRepo
	} else {
		log.Println("level=info component=bootstrap msg=\"no database configured; using in-memory account store\"")
		repository = store.NewMemoryRepository()
	}

	// Initialize the RabbitMQ producer to publish payment lifecycle events.
	// This service only needs to publish, so we use a producer.
	var eventProducer rmrabbit.Publisher
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		log.Println("level=info component=bootstrap msg=\"no rabbitmq configured; payment events disabled\"")
		eventProducer = &rmrabbit.EventProducerFallback{}
	} else {
		rabbitProducer, rabbitErr := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
		if rabbitErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", rabbitErr)
			eventProducer = &rmrabbit.EventProducerFallback{}
		} else {
			defer rabbitProducer.Close()
			log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
			eventProducer = rabbitProducer
		}
	}

	// Configure the per-service resilience policies and build the downstream
	// clients on top of the shared registry.
	registry := resilience.NewRegistry()
	registry.Configure(beneficiaryclient.ServiceName, cfg.BeneficiariesPolicy())
	registry.Configure(processorclient.ServiceName, cfg.PaymentProcessorPolicy())

	beneficiaryGateway := beneficiaryclient.NewClient(cfg.BeneficiariesServiceURL, cfg.BeneficiariesBasePath, registry)
	processorGateway := processorclient.NewClient(cfg.PaymentProcessorURL, cfg.PaymentProcessorBasePath, registry)

	var redisClient *redis.Client
	if cfg.PaymentSubmitRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; submission rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; submission rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; submission rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the core application service with its dependencies.
	paymentService := app.NewService(
		repository,
		beneficiaryGateway,
		processorGateway,
		eventProducer,
		cfg.PaymentEventsExchange,
	)
	if redisClient != nil {
		paymentService.SetPaymentRateLimiter(
			app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix),
			cfg.PaymentSubmitRateLimitPerMinute,
		)
	}

	// Initialize the API handlers.
	paymentHandlers := api.NewPaymentHandlers(paymentService)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/api/v1/consumer", api.ConsumerRoutes(paymentHandlers))

	// Start the HTTP server.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
