package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Reminder ReminderConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	Backend    string
	EventsFile string
	SQLiteDSN  string
}

type ReminderConfig struct {
	Enabled   bool
	Interval  time.Duration
	Lookahead time.Duration
}

type RedisConfig struct {
	Enabled bool
	Addr    string
	Channel string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

type LogConfig struct {
	Dir   string
	Level string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", ":5000"),
			ReadTimeout:     15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Store: StoreConfig{
			Backend:    strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
			EventsFile: getEnv("EVENTS_FILE", "events.json"),
			SQLiteDSN:  getEnv("SQLITE_DSN", "file:events.db?cache=shared"),
		},
		Reminder: ReminderConfig{
			Enabled:   getEnvBool("REMINDER_ENABLED", true),
			Interval:  getEnvDuration("REMINDER_INTERVAL", time.Minute),
			Lookahead: getEnvDuration("REMINDER_LOOKAHEAD", time.Hour),
		},
		Redis: RedisConfig{
			Enabled: getEnvBool("REDIS_ENABLED", false),
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			Channel: getEnv("REDIS_CHANNEL", "events.reminders"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "events.reminders"),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
		},
		Log: LogConfig{
			Dir:   getEnv("LOG_DIR", "logs"),
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
	}
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile:
		if c.Store.EventsFile == "" {
			return fmt.Errorf("EVENTS_FILE must not be empty for the file backend")
		}
	case BackendSQLite:
		if c.Store.SQLiteDSN == "" {
			return fmt.Errorf("SQLITE_DSN must not be empty for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want %q or %q)", c.Store.Backend, BackendFile, BackendSQLite)
	}
	if c.Reminder.Interval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive, got %s", c.Reminder.Interval)
	}
	if c.Reminder.Lookahead <= 0 {
		return fmt.Errorf("REMINDER_LOOKAHEAD must be positive, got %s", c.Reminder.Lookahead)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS must be set when KAFKA_ENABLED is true")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		if secs := getEnvInt(key, -1); secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
