package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Scrape ScrapeConfig `yaml:"scrape" mapstructure:"scrape"`
	Dedup  DedupConfig  `yaml:"dedup" mapstructure:"dedup"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ScrapeConfig configures fetching and pagination.
type ScrapeConfig struct {
	TimeoutSecs          int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts          int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	MaxPages             int     `yaml:"max_pages" mapstructure:"max_pages"`
	MaxConsecutiveMisses int     `yaml:"max_consecutive_misses" mapstructure:"max_consecutive_misses"`
	PerSiteConcurrency   int64   `yaml:"per_site_concurrency" mapstructure:"per_site_concurrency"`
	RequestsPerSecond    float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst                int     `yaml:"burst" mapstructure:"burst"`
	UserAgent            string  `yaml:"user_agent" mapstructure:"user_agent"`
	MemSampleMs          int     `yaml:"mem_sample_ms" mapstructure:"mem_sample_ms"`
}

// DedupConfig tunes the listing identity key granularity.
type DedupConfig struct {
	PriceTolerance    float64 `yaml:"price_tolerance" mapstructure:"price_tolerance"`
	AreaToleranceSqFt float64 `yaml:"area_tolerance_sqft" mapstructure:"area_tolerance_sqft"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OutputConfig configures the CSV output artifact.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
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
	v.SetEnvPrefix("PROPSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("scrape.max_attempts", 3)
	v.SetDefault("scrape.max_pages", 10)
	v.SetDefault("scrape.max_consecutive_misses", 2)
	v.SetDefault("scrape.per_site_concurrency", 2)
	v.SetDefault("scrape.requests_per_second", 2.0)
	v.SetDefault("scrape.burst", 2)
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (compatible; propscout/1.0)")
	v.SetDefault("scrape.mem_sample_ms", 50)
	v.SetDefault("dedup.price_tolerance", 0.01)
	v.SetDefault("dedup.area_tolerance_sqft", 10.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "propscout.db")
	v.SetDefault("output.dir", "data")
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
