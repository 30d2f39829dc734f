// Package config loads consume service configuration from file and
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the consume service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds the admin HTTP server settings (probes and metrics).
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// NATSConfig holds message bus connection settings.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// PostgresConfig holds analytics store connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// ConnString builds a connection string for the analytics store.
func (c PostgresConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// ConsumerConfig holds message consumption settings.
type ConsumerConfig struct {
	AckWait       time.Duration `mapstructure:"ack_wait"`
	MaxAckPending int           `mapstructure:"max_ack_pending"`
}

// LoggingConfig holds log level and format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8081)

	v.SetDefault("nats.url", "nats://localhost:4222")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "pagepulse")
	v.SetDefault("postgres.password", "pagepulse")
	v.SetDefault("postgres.database", "pagepulse_analytics")
	v.SetDefault("postgres.ssl_mode", "disable")

	v.SetDefault("consumer.ack_wait", "30s")
	v.SetDefault("consumer.max_ack_pending", 100)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/pagepulse/consume")
	}

	// Environment variables override file values
	v.SetEnvPrefix("CONSUME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
