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
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Inputs   InputsConfig   `yaml:"inputs" mapstructure:"inputs"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Estimate EstimateConfig `yaml:"estimate" mapstructure:"estimate"`
	Nectar   NectarConfig   `yaml:"nectar" mapstructure:"nectar"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// InputsConfig holds paths to the raw survey tables (CSV or XLSX).
type InputsConfig struct {
	Observations string `yaml:"observations" mapstructure:"observations"`
	Thesis       string `yaml:"thesis" mapstructure:"thesis"`
	Notes        string `yaml:"notes" mapstructure:"notes"`
	NectarBags   string `yaml:"nectar_bags" mapstructure:"nectar_bags"`
	Cameras      string `yaml:"cameras" mapstructure:"cameras"`
	Expert       string `yaml:"expert" mapstructure:"expert"`
	Nectar       string `yaml:"nectar" mapstructure:"nectar"`
	Catalog      string `yaml:"catalog" mapstructure:"catalog"`
	Sites        string `yaml:"sites" mapstructure:"sites"`
}

// OutputConfig configures where stage tables are written.
type OutputConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ResolverConfig tunes the count unit distribution comparison.
type ResolverConfig struct {
	MinKnownRows   int     `yaml:"min_known_rows" mapstructure:"min_known_rows"`
	MinUnknownRows int     `yaml:"min_unknown_rows" mapstructure:"min_unknown_rows"`
	MaxKSDistance  float64 `yaml:"max_ks_distance" mapstructure:"max_ks_distance"`
}

// EstimateConfig tunes the flowers-per-unit estimator.
type EstimateConfig struct {
	BractThreshold    int     `yaml:"bract_threshold" mapstructure:"bract_threshold"`
	BractFloorFlowers float64 `yaml:"bract_floor_flowers" mapstructure:"bract_floor_flowers"`
}

// NectarConfig tunes the nectar to calorie conversion.
type NectarConfig struct {
	KcalPerGram float64 `yaml:"kcal_per_gram" mapstructure:"kcal_per_gram"`
}

// ServerConfig configures the read-only API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("NECTAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "nectar.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.format", "csv")
	v.SetDefault("inputs.observations", "data/observations.csv")
	v.SetDefault("inputs.thesis", "")
	v.SetDefault("inputs.notes", "")
	v.SetDefault("inputs.nectar_bags", "")
	v.SetDefault("inputs.cameras", "")
	v.SetDefault("inputs.expert", "")
	v.SetDefault("inputs.nectar", "")
	v.SetDefault("inputs.catalog", "")
	v.SetDefault("inputs.sites", "")
	v.SetDefault("resolver.min_known_rows", 2)
	v.SetDefault("resolver.min_unknown_rows", 2)
	v.SetDefault("resolver.max_ks_distance", 0.35)
	v.SetDefault("estimate.bract_threshold", 9)
	v.SetDefault("estimate.bract_floor_flowers", 2)
	v.SetDefault("nectar.kcal_per_gram", 3.94)

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

// Validate checks the settings a command mode depends on. Mode is one of
// "run", "serve" or "sites"; every mode checks the shared settings.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres", "none":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of sqlite, postgres, none", c.Store.Driver))
	}
	if c.Store.Driver != "none" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	switch c.Output.Format {
	case "csv", "xlsx":
	default:
		errs = append(errs, fmt.Sprintf("output.format %q is not one of csv, xlsx", c.Output.Format))
	}
	if c.Estimate.BractThreshold < 0 {
		errs = append(errs, "estimate.bract_threshold must be >= 0")
	}
	if c.Nectar.KcalPerGram <= 0 {
		errs = append(errs, "nectar.kcal_per_gram must be > 0")
	}
	if c.Resolver.MaxKSDistance < 0 || c.Resolver.MaxKSDistance > 1 {
		errs = append(errs, "resolver.max_ks_distance must be between 0 and 1")
	}

	switch mode {
	case "run":
		if c.Inputs.Observations == "" {
			errs = append(errs, "inputs.observations is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Store.Driver == "none" {
			errs = append(errs, "serve needs a store (store.driver is none)")
		}
	case "sites":
		if c.Inputs.Sites == "" {
			errs = append(errs, "inputs.sites is required")
		}
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
