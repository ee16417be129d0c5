package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Convert ConvertConfig `yaml:"convert" mapstructure:"convert"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Seed    SeedConfig    `yaml:"seed" mapstructure:"seed"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ConvertConfig configures the KMZ to CSV conversion.
type ConvertConfig struct {
	ArchivePath     string `yaml:"archive_path" mapstructure:"archive_path"`
	WorkDir         string `yaml:"work_dir" mapstructure:"work_dir"`
	Document        string `yaml:"document" mapstructure:"document"`
	OutputPath      string `yaml:"output_path" mapstructure:"output_path"`
	MalformedPolicy string `yaml:"malformed_policy" mapstructure:"malformed_policy"`
	DownloadURL     string `yaml:"download_url" mapstructure:"download_url"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig holds Postgres connection pool sizing.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port             int      `yaml:"port" mapstructure:"port"`
	CORSOrigins      []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	ReadTimeoutSecs  int      `yaml:"read_timeout_secs" mapstructure:"read_timeout_secs"`
	WriteTimeoutSecs int      `yaml:"write_timeout_secs" mapstructure:"write_timeout_secs"`
}

// SeedConfig configures loading the converted CSV into the store.
type SeedConfig struct {
	CSVPath  string `yaml:"csv_path" mapstructure:"csv_path"`
	Truncate bool   `yaml:"truncate" mapstructure:"truncate"`
}

// FetchConfig configures archive downloads.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EVMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("convert.archive_path", "data/EV-friendly hotels in Europe.kmz")
	v.SetDefault("convert.work_dir", "")
	v.SetDefault("convert.document", "")
	v.SetDefault("convert.output_path", "data/EV-friendly hotels in Europe.csv")
	v.SetDefault("convert.malformed_policy", "emit")
	v.SetDefault("convert.download_url", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "evmap.db")
	v.SetDefault("store.pool.max_conns", 4)
	v.SetDefault("store.pool.min_conns", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout_secs", 15)
	v.SetDefault("server.write_timeout_secs", 30)
	v.SetDefault("seed.csv_path", "data/EV-friendly hotels in Europe.csv")
	v.SetDefault("seed.truncate", false)
	v.SetDefault("fetch.user_agent", "evmap/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "convert", "layers", "seed", "serve", "token" and "migrate".
func (c *Config) Validate(mode string) error {
	var errs []string

	checkStore := func() {
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			errs = append(errs, fmt.Sprintf("store.driver %q is not sqlite or postgres", c.Store.Driver))
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	}

	switch mode {
	case "convert":
		if c.Convert.OutputPath == "" {
			errs = append(errs, "convert.output_path is required")
		}
		if c.Convert.ArchivePath == "" {
			errs = append(errs, "convert.archive_path is required")
		}
		switch c.Convert.MalformedPolicy {
		case "", "emit", "warn", "drop":
		default:
			errs = append(errs, fmt.Sprintf("convert.malformed_policy %q is not emit, warn or drop", c.Convert.MalformedPolicy))
		}
		if c.Fetch.MaxRetries < 0 {
			errs = append(errs, "fetch.max_retries must be >= 0")
		}
	case "layers":
		if c.Convert.ArchivePath == "" {
			errs = append(errs, "convert.archive_path is required")
		}
	case "seed":
		checkStore()
		if c.Seed.CSVPath == "" {
			errs = append(errs, "seed.csv_path is required")
		}
	case "serve":
		checkStore()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "token", "migrate":
		checkStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}

	zap.ReplaceGlobals(logger)
	return nil
}
