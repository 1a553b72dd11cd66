package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Config holds runtime configuration for the API server.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	StoreDriver string `envconfig:"STORE_DRIVER" default:"mongo"`

	MongoURI          string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDB           string `envconfig:"MONGO_DB" default:"service_center"`
	MongoTransactions bool   `envconfig:"MONGO_TRANSACTIONS" default:"true"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"default-secret-key-change-in-production"`
	JWTExpiry time.Duration `envconfig:"JWT_EXPIRY" default:"24h"`

	TaxRate float64 `envconfig:"TAX_RATE" default:"0.10"`

	MQTTBroker      string `envconfig:"MQTT_BROKER"`
	MQTTClientID    string `envconfig:"MQTT_CLIENT_ID" default:"service-center-api"`
	MQTTTopicPrefix string `envconfig:"MQTT_TOPIC_PREFIX" default:"servicecenter"`

	RateLimitRequests      int `envconfig:"RATE_LIMIT_REQUESTS" default:"100"`
	RateLimitWindowSeconds int `envconfig:"RATE_LIMIT_WINDOW_SECONDS" default:"60"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	AdminUsername string `envconfig:"ADMIN_USERNAME"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:"admin@servicecenter.local"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "mongo", "memory":
	default:
		return errors.New("STORE_DRIVER must be mongo or memory")
	}
	if c.StoreDriver == "mongo" && !c.MongoTransactions {
		return errors.New("STORE_DRIVER=mongo requires MONGO_TRANSACTIONS=true")
	}
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return errors.New("TAX_RATE must be in [0, 1)")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindowSeconds <= 0 {
		return errors.New("rate limit settings must be positive")
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *log.Logger {
	logger := log.New()
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger
}
