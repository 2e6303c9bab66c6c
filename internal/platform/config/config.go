// Package config loads the configuration shared by the ETL driver and the API server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"finance_etl/internal/platform/db"
	"finance_etl/internal/platform/externalapi/coindesk"
	"finance_etl/internal/platform/externalapi/nytimes"
	"finance_etl/internal/platform/externalapi/ratesapi"
	"finance_etl/internal/platform/externalapi/twelvedata"
	"finance_etl/internal/platform/logger"
	"finance_etl/internal/platform/metrics"
	"finance_etl/internal/platform/redis"
)

// Config is the root of config.yaml.
type Config struct {
	Environment string         `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Log         logger.Config  `yaml:"log"`
	DB          db.Config      `yaml:"db"`
	Redis       redis.Config   `yaml:"redis"`
	Metrics     metrics.Config `yaml:"metrics"`
	Server      ServerConfig   `yaml:"server"`
	Cache       CacheConfig    `yaml:"cache"`

	Stock StockConfig `yaml:"stock"`
	News  NewsConfig  `yaml:"news"`
	Forex ForexConfig `yaml:"forex"`

	TwelveData twelvedata.Config `yaml:"twelvedata"`
	NYTimes    nytimes.Config    `yaml:"nytimes"`
	Rates      ratesapi.Config   `yaml:"rates"`
	Coindesk   coindesk.Config   `yaml:"coindesk"`
}

// ServerConfig configures the read API.
type ServerConfig struct {
	Port            string        `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

// CacheConfig controls how long tick queries stay cached: until the next RefreshHour
// in Location, which should match the ETL schedule.
type CacheConfig struct {
	RefreshHour int    `yaml:"refresh_hour" default:"8" validate:"min=0,max=23"`
	Location    string `yaml:"location" default:"UTC"`
	Namespace   string `yaml:"namespace" default:"ticks"`
}

// StockConfig configures the stock pipeline. An empty Symbols list falls back to the
// active rows of the symbols table.
type StockConfig struct {
	Symbols           []string `yaml:"symbols"`
	Interval          string   `yaml:"interval" default:"1day"`
	Exchange          string   `yaml:"exchange"`
	Period            string   `yaml:"period" default:"2Y"`
	RequestsPerMinute int      `yaml:"requests_per_minute" default:"8" validate:"min=0"`
}

// NewsConfig configures the news pipeline. A zero end falls back to the current month.
type NewsConfig struct {
	StartYear         int      `yaml:"start_year" default:"2018" validate:"min=1851"`
	StartMonth        int      `yaml:"start_month" default:"1" validate:"min=1,max=12"`
	EndYear           int      `yaml:"end_year" validate:"omitempty,min=1851"`
	EndMonth          int      `yaml:"end_month" validate:"omitempty,min=1,max=12"`
	Desks             []string `yaml:"desks"`
	RequestsPerMinute int      `yaml:"requests_per_minute" default:"5" validate:"min=0"`
}

// ForexConfig configures the forex pipeline. Start and End are YYYY-MM-DD; when Start is
// empty the run covers the LookbackDays before End, and an empty End means today.
type ForexConfig struct {
	Start        string        `yaml:"start"`
	End          string        `yaml:"end"`
	LookbackDays int           `yaml:"lookback_days" default:"30" validate:"min=0"`
	RetryDelay   time.Duration `yaml:"retry_delay" default:"5s" validate:"min=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Load reads the .env files (missing ones are skipped), applies defaults, decodes the YAML
// file at path when path is not empty, applies environment overrides and validates.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Environment, "APP_ENV")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	envDB := db.LoadConfigFromEnv()
	setIf(&c.DB.Driver, envDB.Driver)
	setIf(&c.DB.User, envDB.User)
	setIf(&c.DB.Password, envDB.Password)
	setIf(&c.DB.Name, envDB.Name)
	setIf(&c.DB.Host, envDB.Host)
	setIf(&c.DB.Port, envDB.Port)
	setIf(&c.DB.InstanceName, envDB.InstanceName)
	setIf(&c.DB.SSLMode, envDB.SSLMode)
	setIf(&c.DB.Path, envDB.Path)
	if envDB.Timeout > 0 {
		c.DB.Timeout = envDB.Timeout
	}

	setString(&c.Redis.Host, "REDIS_HOST")
	setString(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	setString(&c.Metrics.PushgatewayURL, "PUSHGATEWAY_URL")
	setString(&c.Server.Port, "PORT")

	setString(&c.TwelveData.TwelveDataAPIKey, "TWELVE_DATA_API_KEY")
	setString(&c.NYTimes.APIKey, "NYTIMES_API_KEY")
	if v := os.Getenv("STOCK_SYMBOLS"); v != "" {
		c.Stock.Symbols = splitList(v)
	}
}

// Validate checks every `validate` tag and reports the failing keys by their YAML path.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := fe.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", key, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", key, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
