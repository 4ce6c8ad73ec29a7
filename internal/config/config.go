package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	NotifierNone   = "none"
	NotifierRedis  = "redis"
	NotifierPubNub = "pubnub"
)

type Config struct {
	Env      string   `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTP     HTTP     `yaml:"http"`
	Database Database `yaml:"database"`
	Auth     Auth     `yaml:"auth"`
	Redis    Redis    `yaml:"redis"`
	Notifier Notifier `yaml:"notifier"`
	Waitlist Waitlist `yaml:"waitlist"`
	Kafka    Kafka    `yaml:"kafka"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	AllowedOrigin   string        `yaml:"allowed_origin" env:"HTTP_ALLOWED_ORIGIN" env-default:"http://localhost:5173"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

// Database configures the primary store. Driver is "mysql" in production
// and "sqlite" for embedded and local runs.
type Database struct {
	Driver          string        `yaml:"driver" env:"DB_DRIVER" env-default:"mysql"`
	DSN             string        `yaml:"dsn" env:"DB_DSN" env-default:"root:root@tcp(127.0.0.1:3306)/fitstudio?parseTime=true"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"25"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
	ConnectAttempts uint          `yaml:"connect_attempts" env:"DB_CONNECT_ATTEMPTS" env-default:"5"`
	ConnectDelay    time.Duration `yaml:"connect_delay" env:"DB_CONNECT_DELAY" env-default:"1s"`
	ConnectMaxDelay time.Duration `yaml:"connect_max_delay" env:"DB_CONNECT_MAX_DELAY" env-default:"10s"`
	AutoMigrate     bool          `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"JWT_TTL" env-default:"72h"`
}

// Redis is optional. An empty URL disables rate limiting and the redis notifier.
type Redis struct {
	URL                string `yaml:"url" env:"REDIS_URL"`
	RateLimitPerMinute int64  `yaml:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"120"`
}

type Notifier struct {
	Backend            string        `yaml:"backend" env:"NOTIFIER" env-default:"none"`
	KeyTTL             time.Duration `yaml:"key_ttl" env:"NOTIFY_KEY_TTL" env-default:"24h"`
	PubNubPublishKey   string        `yaml:"pubnub_publish_key" env:"PUBNUB_PUBLISH_KEY"`
	PubNubSubscribeKey string        `yaml:"pubnub_subscribe_key" env:"PUBNUB_SUBSCRIBE_KEY"`
	PubNubSecretKey    string        `yaml:"pubnub_secret_key" env:"PUBNUB_SECRET_KEY"`
	PubNubUserID       string        `yaml:"pubnub_user_id" env:"PUBNUB_USER_ID" env-default:"fitstudio-api"`
}

// Waitlist controls expiry of notified entries. A zero NotifyTTL keeps
// notified entries forever.
type Waitlist struct {
	NotifyTTL     time.Duration `yaml:"notify_ttl" env:"WAITLIST_NOTIFY_TTL" env-default:"0s"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"WAITLIST_SWEEP_INTERVAL" env-default:"1m"`
}

// Kafka publishing is disabled when Brokers is empty.
type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"fitstudio.bookings"`
	Version string   `yaml:"version" env:"KAFKA_VERSION" env-default:"3.6.0"`
}

// Load reads CONFIG_PATH when set, otherwise the environment alone.
// Environment variables always override values from the file.
func Load() (*Config, error) {
	var cfg Config

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file %q: %w", configPath, err)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown APP_ENV %q", c.Env)
	}

	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Notifier.Backend {
	case NotifierNone:
	case NotifierRedis:
		if c.Redis.URL == "" {
			return errors.New("NOTIFIER=redis requires REDIS_URL")
		}
	case NotifierPubNub:
		if c.Notifier.PubNubPublishKey == "" || c.Notifier.PubNubSubscribeKey == "" {
			return errors.New("NOTIFIER=pubnub requires PUBNUB_PUBLISH_KEY and PUBNUB_SUBSCRIBE_KEY")
		}
	default:
		return fmt.Errorf("unknown NOTIFIER %q", c.Notifier.Backend)
	}

	if c.Waitlist.NotifyTTL < 0 {
		return errors.New("WAITLIST_NOTIFY_TTL must not be negative")
	}
	if c.Waitlist.NotifyTTL > 0 && c.Waitlist.SweepInterval <= 0 {
		return errors.New("WAITLIST_SWEEP_INTERVAL must be positive when WAITLIST_NOTIFY_TTL is set")
	}
	return nil
}
