package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rl1809/garage-ledger/internal/core/domain"
)

type Config struct {
	ServiceName string `yaml:"service_name"`
	LogLevel    string `yaml:"log_level"`
	HTTPAddr    string `yaml:"http_addr"`
	GRPCAddr    string `yaml:"grpc_addr"`

	MySQL    MySQLConfig    `yaml:"mysql"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Alerts   AlertsConfig   `yaml:"alerts"`

	SummaryCacheTTL time.Duration `yaml:"summary_cache_ttl"`
	FinanceRoles    []string      `yaml:"finance_roles"`
}

type MySQLConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type AlertsConfig struct {
	Workers        int           `yaml:"workers"`
	QueueSize      int           `yaml:"queue_size"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

// Default has no credentials; the MySQL DSN and RabbitMQ URL come from the
// file or the environment.
func Default() *Config {
	return &Config{
		ServiceName: "garage-ledger",
		LogLevel:    "info",
		HTTPAddr:    ":8080",
		GRPCAddr:    ":50051",
		MySQL: MySQLConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 20,
		},
		RabbitMQ: RabbitMQConfig{
			Exchange: "garage.events",
		},
		Alerts: AlertsConfig{
			Workers:        2,
			QueueSize:      256,
			PublishTimeout: 5 * time.Second,
		},
		SummaryCacheTTL: 30 * time.Second,
		FinanceRoles:    []string{string(domain.RoleOwner), string(domain.RoleManager)},
	}
}

// Load applies, in order: defaults, the YAML file at path (skipped when path
// is empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.ServiceName = getEnv("SERVICE_NAME", c.ServiceName)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.GRPCAddr = getEnv("GRPC_ADDR", c.GRPCAddr)
	c.MySQL.DSN = getEnv("MYSQL_DSN", c.MySQL.DSN)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.RabbitMQ.URL = getEnv("RABBITMQ_URL", c.RabbitMQ.URL)
	c.RabbitMQ.Exchange = getEnv("RABBITMQ_EXCHANGE", c.RabbitMQ.Exchange)

	var err error
	if c.Redis.DB, err = getEnvInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if c.Alerts.Workers, err = getEnvInt("ALERT_WORKERS", c.Alerts.Workers); err != nil {
		return err
	}
	if c.SummaryCacheTTL, err = getEnvDuration("SUMMARY_CACHE_TTL", c.SummaryCacheTTL); err != nil {
		return err
	}
	if roles := os.Getenv("FINANCE_ROLES"); roles != "" {
		c.FinanceRoles = strings.Split(roles, ",")
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.MySQL.DSN == "" {
		errs = append(errs, errors.New("mysql.dsn (MYSQL_DSN) is required"))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr (REDIS_ADDR) is required"))
	}
	if c.Alerts.Workers < 1 {
		errs = append(errs, errors.New("alerts.workers must be at least 1"))
	}
	if c.Alerts.QueueSize < 1 {
		errs = append(errs, errors.New("alerts.queue_size must be at least 1"))
	}
	if c.SummaryCacheTTL < 0 {
		errs = append(errs, errors.New("summary_cache_ttl must not be negative"))
	}
	if _, err := c.Roles(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Roles returns the finance roles allowed to read financial output.
func (c *Config) Roles() ([]domain.Role, error) {
	roles := make([]domain.Role, 0, len(c.FinanceRoles))
	for _, raw := range c.FinanceRoles {
		role := domain.Role(strings.TrimSpace(raw))
		if !role.Valid() {
			return nil, fmt.Errorf("finance_roles: unknown role %q", raw)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
