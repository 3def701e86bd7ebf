package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"event-scheduler/internal/config"
	"event-scheduler/internal/events/event_api"
	"event-scheduler/internal/events/store"
	"event-scheduler/internal/kafka"
	"event-scheduler/internal/logger"
	"event-scheduler/internal/notify"
	"event-scheduler/internal/reminder"
	"event-scheduler/internal/sse"
)

func openBackend(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) store.Backend {
	switch cfg.Backend {
	case config.BackendSQLite:
		backend, err := store.OpenSQLite(ctx, cfg.SQLiteDSN)
		if err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to open SQLite store: %v", err))
		}
		log.Info("DATABASE", fmt.Sprintf("✅ SQLite store ready (%s)", cfg.SQLiteDSN))
		return backend
	default:
		log.Info("STORE", fmt.Sprintf("Using JSON file store %s", cfg.EventsFile))
		return store.NewFileBackend(cfg.EventsFile)
	}
}

// buildNotifiers always includes the console and the SSE stream; Redis and
// Kafka are added when enabled. The returned cleanup closes their clients.
func buildNotifiers(ctx context.Context, cfg *config.Config, stream *sse.ReminderStream, log *logger.Logger) (notify.Multi, func()) {
	notifiers := notify.Multi{notify.NewConsoleNotifier(log), stream}
	var closers []func()

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("REDIS", fmt.Sprintf("Redis not reachable at %s, reminders will not be published there: %v", cfg.Redis.Addr, err))
			redisClient.Close()
		} else {
			log.Info("REDIS", fmt.Sprintf("✅ Publishing reminders on %s via %s", cfg.Redis.Channel, cfg.Redis.Addr))
			notifiers = append(notifiers, notify.NewRedisNotifier(redisClient, cfg.Redis.Channel))
			closers = append(closers, func() { redisClient.Close() })
		}
	}

	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topic}, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for topic %s", cfg.Kafka.Topic))
		notifiers = append(notifiers, notify.NewKafkaNotifier(producer, cfg.Kafka.Topic))
		closers = append(closers, func() {
			if err := producer.Close(); err != nil {
				log.Error("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
			}
		})
	}

	return notifiers, func() {
		for _, c := range closers {
			c()
		}
	}
}

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger(cfg.Log.Dir)
	defer log.Close()
	log.SetLevel(logger.ParseLevel(cfg.Log.Level))

	log.Info("APP", "Starting Event Scheduler")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal("CONFIG", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := openBackend(ctx, cfg.Store, log)
	eventStore, err := store.New(ctx, backend, log)
	if err != nil {
		log.Fatal("STORE", fmt.Sprintf("Failed to load events: %v", err))
	}
	defer eventStore.Close()

	stream := sse.NewReminderStream(log)
	notifiers, closeNotifiers := buildNotifiers(ctx, cfg, stream, log)
	defer closeNotifiers()

	stopSweeper := func() {}
	if cfg.Reminder.Enabled {
		sweeper := reminder.NewSweeper(eventStore, notifiers, cfg.Reminder.Interval, cfg.Reminder.Lookahead, log)
		stopSweeper = sweeper.Start(ctx)
	} else {
		log.Warn("REMINDER", "Reminder sweeper disabled")
	}

	handler := event_api.NewHandler(eventStore, log)
	router := event_api.NewRouter(handler, stream)
	log.Info("ROUTER", "Event routes registered under /events")

	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Event Scheduler running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	stopSweeper()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Request contexts derive from ctx; cancelling it ends open reminder streams.
	cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Event Scheduler shutdown complete")
	}
}
