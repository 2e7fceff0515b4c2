package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Address string
	}
	Catalog struct {
		BaseURL      string
		Timeout      time.Duration
		RateInterval time.Duration
	}
	Search struct {
		Debounce time.Duration
	}
	Storage struct {
		Driver        string // "sqlite" (default), "redis" or "memory"
		SQLitePath    string
		RedisAddr     string
		RedisPassword string
		RedisDB       int
		RedisPrefix   string
	}
	Export struct {
		Dir string
	}
	Log struct {
		Level string
	}
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("catalog.base_url", "https://openlibrary.org")
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("catalog.rate_interval", time.Duration(0))
	v.SetDefault("search.debounce", 450*time.Millisecond)
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_path", "./data/shelf.db")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.redis_prefix", "shelf")
	v.SetDefault("export.dir", ".")
	v.SetDefault("log.level", "info")
}

// New returns a viper instance reading defaults, SHELF_* env vars and an
// optional config file. An empty cfgFile searches for shelf.yaml in the
// working directory.
func New(cfgFile string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}

	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("SHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("shelf")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return v, nil
}

// FromViper maps viper keys into a typed Config
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{}
	cfg.Server.Address = v.GetString("server.address")
	cfg.Catalog.BaseURL = strings.TrimRight(v.GetString("catalog.base_url"), "/")
	cfg.Catalog.Timeout = v.GetDuration("catalog.timeout")
	cfg.Catalog.RateInterval = v.GetDuration("catalog.rate_interval")
	cfg.Search.Debounce = v.GetDuration("search.debounce")
	cfg.Storage.Driver = strings.ToLower(v.GetString("storage.driver"))
	cfg.Storage.SQLitePath = v.GetString("storage.sqlite_path")
	cfg.Storage.RedisAddr = v.GetString("storage.redis_addr")
	cfg.Storage.RedisPassword = v.GetString("storage.redis_password")
	cfg.Storage.RedisDB = v.GetInt("storage.redis_db")
	cfg.Storage.RedisPrefix = v.GetString("storage.redis_prefix")
	cfg.Export.Dir = v.GetString("export.dir")
	cfg.Log.Level = v.GetString("log.level")

	if cfg.Storage.Driver == "sqlite3" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	return cfg
}
