package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. FILMORATE_DATABASE_MODE.
const EnvPrefix = "FILMORATE"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Security SecurityConfig `mapstructure:"security"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Debug           bool          `mapstructure:"debug"`
	AdminKey        string        `mapstructure:"admin_key"`
	AdminIPs        []string      `mapstructure:"admin_ips"` // empty allows any IP
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Mode        string        `mapstructure:"mode"` // memory | sqlite | mysql | postgres
	SQLitePath  string        `mapstructure:"sqlite_path"`
	MySQLDSN    string        `mapstructure:"mysql_dsn"`
	PostgresDSN string        `mapstructure:"postgres_dsn"`
	MaxOpen     int           `mapstructure:"max_open"`
	MaxIdle     int           `mapstructure:"max_idle"`
	MaxLife     time.Duration `mapstructure:"max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type SecurityConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type CatalogConfig struct {
	// RejectDuplicates turns on natural-key duplicate detection: users by
	// email or login, films by name + release date + duration.
	RejectDuplicates      bool          `mapstructure:"reject_duplicates"`
	PopularDefaultCount   int           `mapstructure:"popular_default_count"`
	PopularCacheTTL       time.Duration `mapstructure:"popular_cache_ttl"`
	PopularWarmupInterval time.Duration `mapstructure:"popular_warmup_interval"`
	// PopularWarmupCount is the ranking size kept warm by the scheduler.
	PopularWarmupCount    int           `mapstructure:"popular_warmup_count"`
}

// Load reads config from the given YAML file path. A missing file is not an
// error: defaults and FILMORATE_* environment variables still apply. A .env
// file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.admin_key", "")
	v.SetDefault("server.admin_ips", []string{})
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.mode", "memory")
	v.SetDefault("database.sqlite_path", "./data/filmorate.db")
	v.SetDefault("database.mysql_dsn", "")
	v.SetDefault("database.postgres_dsn", "")
	v.SetDefault("database.max_open", 50)
	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_life", "1h")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
	v.SetDefault("catalog.reject_duplicates", true)
	v.SetDefault("catalog.popular_default_count", 10)
	v.SetDefault("catalog.popular_cache_ttl", "30s")
	v.SetDefault("catalog.popular_warmup_interval", "1m")
	v.SetDefault("catalog.popular_warmup_count", 10)
}
