package db

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// retryInterval は接続リトライの間隔です。
const retryInterval = 3 * time.Second

// Config はデータベース接続設定です。
type Config struct {
	Driver       string        `yaml:"driver" default:"mysql" validate:"oneof=mysql postgres sqlite"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	Name         string        `yaml:"name"`
	Host         string        `yaml:"host" default:"127.0.0.1"`
	Port         string        `yaml:"port" default:"3306"`
	InstanceName string        `yaml:"instance_name"` // Cloud SQL の接続名。設定されていれば Host/Port より優先
	SSLMode      string        `yaml:"sslmode" default:"disable"`
	Path         string        `yaml:"path" default:"finance_etl.db"` // sqlite のファイルパス
	Timeout      time.Duration `yaml:"connect_timeout" default:"60s"`
}

// LoadConfigFromEnv は環境変数から接続設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		Driver:       os.Getenv("DB_DRIVER"),
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Name:         os.Getenv("DB_NAME"),
		Host:         os.Getenv("DB_HOST"),
		Port:         os.Getenv("DB_PORT"),
		InstanceName: os.Getenv("INSTANCE_CONNECTION_NAME"),
		SSLMode:      os.Getenv("DB_SSLMODE"),
		Path:         os.Getenv("DB_PATH"),
	}
	if v := os.Getenv("DB_CONNECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	return cfg
}

// BuildDSN は設定からドライバごとの DSN 文字列を組み立てます。
func BuildDSN(cfg Config) string {
	switch cfg.Driver {
	case DriverPostgres:
		sslmode := cfg.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, sslmode)
	case DriverSQLite:
		return cfg.Path
	}

	if cfg.InstanceName != "" {
		return fmt.Sprintf("%s:%s@unix(/cloudsql/%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.InstanceName, cfg.Name)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
}

// Opener returns the gorm opener for a driver name. Unknown names fall back to MySQL.
func Opener(driver string) func(dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	return func(dsn string) (*gorm.DB, error) {
		switch driver {
		case DriverPostgres:
			return gorm.Open(postgres.Open(dsn), gcfg)
		case DriverSQLite:
			return gorm.Open(sqlite.Open(dsn), gcfg)
		default:
			return gorm.Open(gmysql.Open(dsn), gcfg)
		}
	}
}

// ConnectWithRetry は timeout に達するまで retryInterval 間隔で接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, opener func(string) (*gorm.DB, error)) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		log.Warn().Err(err).Dur("retry_in", retryInterval).Msg("db connect failed, retrying")
		time.Sleep(retryInterval)
	}
}

// Open は設定に従って接続を確立します。
func Open(cfg Config) (*gorm.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return ConnectWithRetry(BuildDSN(cfg), timeout, Opener(cfg.Driver))
}
