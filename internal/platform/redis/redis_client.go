// Package redis はキャッシュ用のRedisクライアントを生成します。
package redis

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Config はRedis接続設定です。Host が空の場合キャッシュは無効です。
type Config struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"min=0"`
}

// Enabled はRedisが設定されているかを返します。
func (c Config) Enabled() bool { return c.Host != "" }

// Addr は host:port を返します。
func (c Config) Addr() string { return net.JoinHostPort(c.Host, c.Port) }

// LoadConfigFromEnv は REDIS_* 環境変数から設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		Host:     os.Getenv("REDIS_HOST"),
		Port:     os.Getenv("REDIS_PORT"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
	if cfg.Port == "" {
		cfg.Port = "6379"
	}
	if v, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
		cfg.DB = v
	}
	return cfg
}

// NewRedisClient は接続確認済みのクライアントを返します。
// 無効な設定の場合は nil, nil を返し、呼び出し側はキャッシュなしで動作します。
func NewRedisClient(ctx context.Context, cfg Config, log zerolog.Logger) (*redis.Client, error) {
	if !cfg.Enabled() {
		log.Info().Msg("redis not configured, cache disabled")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 接続確認
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		log.Error().Err(err).Str("address", cfg.Addr()).Msg("redis connection failed")
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr(), err)
	}

	log.Info().Str("address", cfg.Addr()).Msg("redis connection successful")
	return rdb, nil
}
