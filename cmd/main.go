package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pizza-backoffice/internal/adapter/logger"
	"pizza-backoffice/internal/adapter/payment"
	"pizza-backoffice/internal/adapter/postgres"
	"pizza-backoffice/internal/adapter/rabbitmq"
	redisAdapter "pizza-backoffice/internal/adapter/redis"
	"pizza-backoffice/internal/app/lifecycle"
	"pizza-backoffice/internal/app/notify"
	"pizza-backoffice/internal/app/trust"
	"pizza-backoffice/internal/config"

	amqpAdapter "pizza-backoffice/internal/adapter/amqp"
	httpAdapter "pizza-backoffice/internal/adapter/http"
)

func main() {
	mode := flag.String("mode", "server", "Service mode: server, notification-subscriber")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	ctx := context.Background()
	lgr := logger.New(*mode)

	switch *mode {
	case "server":
		runServer(ctx, cfg, lgr)
	case "notification-subscriber":
		runNotificationSubscriber(ctx, cfg, lgr)
	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func runServer(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	// The mirror is best-effort; its absence only degrades dashboards.
	mirror, err := redisAdapter.Connect(ctx, cfg.Redis)
	if err != nil {
		lgr.Error("redis_connect_failed", "Sync mirror unavailable, continuing without it", "startup", nil, err)
		mirror = nil
	} else {
		lgr.Info("redis_connected", "Connected to Redis mirror", "startup", map[string]interface{}{
			"host": cfg.Redis.Host,
		})
	}

	orderRepo := postgres.NewOrderRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	cancellationRepo := postgres.NewCancellationRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)

	publisher := rabbitmq.NewPublisher(mqConn)
	gateway := payment.NewStubGateway(lgr)

	notifier := notify.NewService(notificationRepo, publisher, lgr)
	engine := lifecycle.NewService(orderRepo, cancellationRepo, notifier, gateway, mirror, lgr)
	evaluator := trust.NewEvaluator(orderRepo, cfg.Trust.ScoreThreshold, cfg.Trust.MinimumCompleted)

	orderHandler := httpAdapter.NewOrderHandler(engine, notifier, lgr)
	notificationHandler := httpAdapter.NewNotificationHandler(notifier, lgr)
	catalogHandler := httpAdapter.NewCatalogHandler(catalogRepo, evaluator, engine, lgr)

	mux := http.NewServeMux()
	mux.HandleFunc("/orders", orderHandler.HandleOrders)
	mux.HandleFunc("/orders/", orderHandler.HandleOrder)
	mux.HandleFunc("/notifications/", notificationHandler.HandleNotification)
	mux.HandleFunc("/pizzas", catalogHandler.GetPizzas)
	mux.HandleFunc("/customers/", catalogHandler.GetTrust)
	mux.HandleFunc("/stats", catalogHandler.GetStats)

	handler := httpAdapter.LoggingMiddleware(lgr)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Order service started on port %d", cfg.Server.Port), "startup", map[string]interface{}{
		"port": cfg.Server.Port,
	})

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down order service", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	consumer := rabbitmq.NewConsumer(mqConn)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification subscriber started", "startup", nil)

	go func() {
		if err := consumer.ConsumeNotifications(ctx, notificationHandler.HandleNotification); err != nil {
			lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down notification subscriber", "shutdown", nil)
}
