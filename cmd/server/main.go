package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pulsefit-app/billing-service/config"
	"github.com/pulsefit-app/billing-service/internal/api/rest"
	"github.com/pulsefit-app/billing-service/internal/integration/yookassa"
	"github.com/pulsefit-app/billing-service/internal/kafka"
	"github.com/pulsefit-app/billing-service/internal/kafka/producer"
	"github.com/pulsefit-app/billing-service/internal/metrics"
	"github.com/pulsefit-app/billing-service/internal/observer"
	"github.com/pulsefit-app/billing-service/internal/repository"
	"github.com/pulsefit-app/billing-service/internal/repository/postgres"
	"github.com/pulsefit-app/billing-service/internal/service"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.ParseLevel(cfg.Logging.Level))
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: %v", err)
	}

	log.Info("Starting billing service on port %s", cfg.Server.Port)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	billingMetrics := metrics.NewBillingMetrics(registry, log)
	systemMetrics := metrics.NewSystemMetrics(registry, log)
	systemMetrics.StartRecording(15 * time.Second)
	defer systemMetrics.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewConnection(ctx, cfg.Database.GetDSN(), log)
	if err != nil {
		log.Fatal("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	var userRepo repository.UserRepository = postgres.NewUserRepository(pool, log)
	pendingRepo := postgres.NewPendingPaymentRepository(pool, log)

	cache, err := repository.NewRedisCacheRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		log.Warn("Redis unavailable, running without cache: %v", err)
	} else {
		defer cache.Close()
		userRepo = repository.NewCachedUserRepository(userRepo, cache, log)
	}

	gateway, err := yookassa.NewClient(cfg.Gateway, log)
	if err != nil {
		log.Fatal("Failed to create payment gateway client: %v", err)
	}

	var events service.EventPublisher = &producer.NoopProducer{}
	var subscriptionProducer *producer.SubscriptionProducer
	if len(cfg.Kafka.Brokers) > 0 {
		if err := kafka.EnsureTopics(cfg.Kafka.Brokers, log); err != nil {
			log.Warn("Failed to ensure kafka topics: %v", err)
		}
		saramaProducer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, kafka.NewSaramaConfig(kafka.DefaultProducerConfig()))
		if err != nil {
			log.Warn("Kafka unavailable, events disabled: %v", err)
		} else {
			subscriptionProducer = producer.NewSubscriptionProducer(saramaProducer, log)
			events = subscriptionProducer
			defer subscriptionProducer.Close()
		}
	}

	workoutRepo := repository.NewInMemoryWorkoutRepository(log)

	reconciler := service.NewReconcilerService(userRepo, events, billingMetrics, log)
	purchases := service.NewPurchaseService(gateway, pendingRepo, billingMetrics, log)
	activations := service.NewActivationService(gateway, userRepo, pendingRepo, events, billingMetrics, log)
	subscriptions := service.NewSubscriptionService(userRepo, reconciler, events, log)
	users := service.NewUserService(userRepo, workoutRepo, log)

	if subscriptionProducer != nil {
		obs := observer.New(cfg.Kafka.Brokers, cfg.Kafka.GroupID, reconciler, log)
		defer obs.Close()
		go func() {
			if err := obs.Run(ctx); err != nil {
				log.Error("Subscription observer exited: %v", err)
			}
		}()
	}

	router := rest.SetupRouter(rest.RouterDeps{
		Config:        cfg,
		Registry:      registry,
		Pool:          pool,
		Purchases:     purchases,
		Activations:   activations,
		Subscriptions: subscriptions,
		Users:         users,
		Log:           log,
	})

	server := rest.NewServer(
		":"+cfg.Server.Port,
		router,
		time.Duration(cfg.Server.ReadTimeout)*time.Second,
		time.Duration(cfg.Server.WriteTimeout)*time.Second,
		log,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("HTTP server failed: %v", err)
		}
	case sig := <-quit:
		log.Info("Received signal %s, shutting down", sig)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed: %v", err)
	}

	log.Info("Billing service stopped")
}
