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
	Engine   EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Baseline BaselineConfig `yaml:"baseline" mapstructure:"baseline"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// EngineConfig holds the attribution models' tunables.
type EngineConfig struct {
	Models      []string          `yaml:"models" mapstructure:"models" json:"models,omitempty"`
	Concurrency int               `yaml:"concurrency" mapstructure:"concurrency" json:"-"`
	Rolling     RollingConfig     `yaml:"rolling" mapstructure:"rolling" json:"rolling"`
	Correlation CorrelationConfig `yaml:"correlation" mapstructure:"correlation" json:"correlation"`
	Funnel      FunnelConfig      `yaml:"funnel" mapstructure:"funnel" json:"funnel"`
	YoY         YoYConfig         `yaml:"yoy" mapstructure:"yoy" json:"yoy"`
}

// RollingConfig configures the rolling-average baseline and its lift model.
type RollingConfig struct {
	Window        int     `yaml:"window" mapstructure:"window" json:"window"`
	CapMultiplier float64 `yaml:"cap_multiplier" mapstructure:"cap_multiplier" json:"cap_multiplier"`
}

// CorrelationConfig configures the correlation model.
type CorrelationConfig struct {
	CapMultiplier   float64 `yaml:"cap_multiplier" mapstructure:"cap_multiplier" json:"cap_multiplier"`
	MinActiveMonths int     `yaml:"min_active_months" mapstructure:"min_active_months" json:"min_active_months"`
}

// FunnelConfig configures the two-path funnel model. Rates are fractions.
type FunnelConfig struct {
	BrowseRate     float64 `yaml:"browse_rate" mapstructure:"browse_rate" json:"browse_rate"`
	RecallRate     float64 `yaml:"recall_rate" mapstructure:"recall_rate" json:"recall_rate"`
	ConversionRate float64 `yaml:"conversion_rate" mapstructure:"conversion_rate" json:"conversion_rate"`
	AOV            float64 `yaml:"aov" mapstructure:"aov" json:"aov"`
	MaxBuyRate     float64 `yaml:"max_buy_rate" mapstructure:"max_buy_rate" json:"max_buy_rate"`
}

// YoYConfig configures the year-over-year ad-halo model.
type YoYConfig struct {
	CapMultiplier             float64 `yaml:"cap_multiplier" mapstructure:"cap_multiplier" json:"cap_multiplier"`
	HaloRate                  float64 `yaml:"halo_rate" mapstructure:"halo_rate" json:"halo_rate"`
	MinTTSGMV                 float64 `yaml:"min_tts_gmv" mapstructure:"min_tts_gmv" json:"min_tts_gmv"`
	StableAdSpend             float64 `yaml:"stable_ad_spend" mapstructure:"stable_ad_spend" json:"stable_ad_spend"`
	NoBaselineShareCeiling    float64 `yaml:"no_baseline_share_ceiling" mapstructure:"no_baseline_share_ceiling" json:"no_baseline_share_ceiling"`
	NoBaselineIntensityFactor float64 `yaml:"no_baseline_intensity_factor" mapstructure:"no_baseline_intensity_factor" json:"no_baseline_intensity_factor"`
}

// BaselineConfig selects the prior-year reference table source.
type BaselineConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"` // none, yaml, sqlite, postgres
	Path          string `yaml:"path" mapstructure:"path"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	SelfHistory   bool   `yaml:"self_history" mapstructure:"self_history"`
	CacheSize     int    `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTLMins  int    `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	RetryAttempts int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoff  int    `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst          int      `yaml:"burst" mapstructure:"burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// MetricsConfig configures Prometheus export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("engine.models", []string{"correlation", "funnel", "yoy", "rolling"})
	v.SetDefault("engine.concurrency", 8)
	v.SetDefault("engine.rolling.window", 3)
	v.SetDefault("engine.rolling.cap_multiplier", 4.0)
	v.SetDefault("engine.correlation.cap_multiplier", 4.0)
	v.SetDefault("engine.correlation.min_active_months", 3)
	v.SetDefault("engine.funnel.browse_rate", 0.15)
	v.SetDefault("engine.funnel.recall_rate", 0.002)
	v.SetDefault("engine.funnel.conversion_rate", 0.10)
	v.SetDefault("engine.funnel.aov", 35.0)
	v.SetDefault("engine.funnel.max_buy_rate", 0.5)
	v.SetDefault("engine.yoy.cap_multiplier", 5.0)
	v.SetDefault("engine.yoy.halo_rate", 0.25)
	v.SetDefault("engine.yoy.min_tts_gmv", 1000.0)
	v.SetDefault("engine.yoy.stable_ad_spend", 0.20)
	v.SetDefault("engine.yoy.no_baseline_share_ceiling", 0.10)
	v.SetDefault("engine.yoy.no_baseline_intensity_factor", 10.0)
	v.SetDefault("baseline.driver", "none")
	v.SetDefault("baseline.self_history", true)
	v.SetDefault("baseline.cache_size", 16)
	v.SetDefault("baseline.cache_ttl_mins", 60)
	v.SetDefault("baseline.retry_attempts", 3)
	v.SetDefault("baseline.retry_backoff_ms", 250)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_body_bytes", int64(8<<20))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the configuration required by mode: "attribute" (engine
// tunables and baseline source), "serve" (attribute plus server settings) or
// "baseline" (baseline source only). All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "attribute":
		errs = append(errs, c.Engine.Problems()...)
		errs = append(errs, c.Baseline.problems()...)
	case "serve":
		errs = append(errs, c.Engine.Problems()...)
		errs = append(errs, c.Baseline.problems()...)
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimit <= 0 {
			errs = append(errs, "server.rate_limit must be > 0")
		}
		if c.Server.Burst < 1 {
			errs = append(errs, "server.burst must be >= 1")
		}
	case "baseline":
		errs = append(errs, c.Baseline.problems()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (b BaselineConfig) problems() []string {
	switch b.Driver {
	case "", "none":
	case "yaml", "sqlite":
		if b.Path == "" {
			return []string{fmt.Sprintf("baseline.path is required for driver %s", b.Driver)}
		}
	case "postgres":
		if b.DatabaseURL == "" {
			return []string{"baseline.database_url is required for driver postgres (LIFT_BASELINE_DATABASE_URL)"}
		}
	default:
		return []string{fmt.Sprintf("baseline.driver %q is not one of none, yaml, sqlite, postgres", b.Driver)}
	}
	return nil
}

// Problems lists every out-of-range engine tunable.
func (e EngineConfig) Problems() []string {
	var errs []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Sprintf(format, args...))
		}
	}
	fraction := func(name string, v float64) {
		check(v >= 0 && v <= 1, "%s must be between 0 and 1 (got %g)", name, v)
	}

	check(e.Rolling.Window >= 2 && e.Rolling.Window <= 12, "rolling.window must be between 2 and 12 (got %d)", e.Rolling.Window)
	check(e.Rolling.CapMultiplier > 0, "rolling.cap_multiplier must be > 0")
	check(e.Correlation.CapMultiplier >= 2 && e.Correlation.CapMultiplier <= 8,
		"correlation.cap_multiplier must be between 2 and 8 (got %g)", e.Correlation.CapMultiplier)
	check(e.Correlation.MinActiveMonths >= 1, "correlation.min_active_months must be >= 1")
	fraction("funnel.browse_rate", e.Funnel.BrowseRate)
	fraction("funnel.recall_rate", e.Funnel.RecallRate)
	fraction("funnel.conversion_rate", e.Funnel.ConversionRate)
	fraction("funnel.max_buy_rate", e.Funnel.MaxBuyRate)
	check(e.Funnel.AOV > 0, "funnel.aov must be > 0")
	check(e.YoY.CapMultiplier > 0, "yoy.cap_multiplier must be > 0")
	fraction("yoy.halo_rate", e.YoY.HaloRate)
	fraction("yoy.stable_ad_spend", e.YoY.StableAdSpend)
	fraction("yoy.no_baseline_share_ceiling", e.YoY.NoBaselineShareCeiling)
	check(e.YoY.MinTTSGMV >= 0, "yoy.min_tts_gmv must be >= 0")
	check(e.YoY.NoBaselineIntensityFactor >= 0, "yoy.no_baseline_intensity_factor must be >= 0")
	check(e.Concurrency >= 0, "concurrency must be >= 0")
	return errs
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
