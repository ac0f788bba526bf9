// Package config provides configuration loading and validation for the
// market-making engine.
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	VenueA    VenueAConfig    `mapstructure:"venue_a"`
	VenueB    VenueBConfig    `mapstructure:"venue_b"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// VenueAConfig configures the derivatives venue quoted on (delta-25 book).
type VenueAConfig struct {
	WSHost          string        `mapstructure:"ws_host"`
	RESTBaseURL     string        `mapstructure:"rest_base_url"`
	Symbol          string        `mapstructure:"symbol"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	Tick            float64       `mapstructure:"tick"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
}

// TickDecimal returns the venue tick size as decimal.Decimal.
func (c *VenueAConfig) TickDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Tick)
}

// VenueBConfig configures the hedge/reference venue (Binance-style
// incremental depth book).
type VenueBConfig struct {
	WSHost           string        `mapstructure:"ws_host"`
	RESTBaseURL      string        `mapstructure:"rest_base_url"`
	Symbol           string        `mapstructure:"symbol"`
	CredentialsFile  string        `mapstructure:"credentials_file"`
	DepthLimit       int           `mapstructure:"depth_limit"`
	ListenKeyRefresh time.Duration `mapstructure:"listen_key_refresh"`
}

// StrategyConfig holds quote-pricing, lifecycle and hedging parameters.
//
// HedgeRatio and Symbol are promoted to configuration per SPEC_FULL.md §9
// (the source hard-codes them; this repo's config layer makes them free).
type StrategyConfig struct {
	Fee            float64       `mapstructure:"fee"`
	Profit         float64       `mapstructure:"profit"`
	Risk           float64       `mapstructure:"risk"`
	QuoteSize      int64         `mapstructure:"quote_size"`
	InventoryLimit int64         `mapstructure:"inventory_limit"`
	HedgeRatio     int64         `mapstructure:"hedge_ratio"`
	UpdateInterval int           `mapstructure:"update_interval"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
}

func (c *StrategyConfig) FeeDecimal() decimal.Decimal    { return decimal.NewFromFloat(c.Fee) }
func (c *StrategyConfig) ProfitDecimal() decimal.Decimal { return decimal.NewFromFloat(c.Profit) }
func (c *StrategyConfig) RiskDecimal() decimal.Decimal   { return decimal.NewFromFloat(c.Risk) }

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	TUIMode        bool   `mapstructure:"-"` // set at runtime, not from config file
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("MM")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "MM_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "MM_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "MM_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("venue_a.ws_host", "MM_VENUE_A_WS_HOST")
	v.BindEnv("venue_a.rest_base_url", "MM_VENUE_A_REST_URL")
	v.BindEnv("venue_a.symbol", "MM_VENUE_A_SYMBOL")
	v.BindEnv("venue_a.credentials_file", "MM_VENUE_A_CREDENTIALS")

	v.BindEnv("venue_b.ws_host", "MM_VENUE_B_WS_HOST")
	v.BindEnv("venue_b.rest_base_url", "MM_VENUE_B_REST_URL")
	v.BindEnv("venue_b.symbol", "MM_VENUE_B_SYMBOL")
	v.BindEnv("venue_b.credentials_file", "MM_VENUE_B_CREDENTIALS")

	v.BindEnv("strategy.hedge_ratio", "MM_HEDGE_RATIO")
	v.BindEnv("strategy.inventory_limit", "MM_INVENTORY_LIMIT")

	v.BindEnv("telemetry.enabled", "MM_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "MM_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "MM_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "xvenue-mm")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("venue_a.symbol", "XBTUSD")
	v.SetDefault("venue_a.tick", 0.5)
	v.SetDefault("venue_a.ping_interval", "30s")

	v.SetDefault("venue_b.symbol", "BTCUSD_PERP")
	v.SetDefault("venue_b.depth_limit", 1000)
	v.SetDefault("venue_b.listen_key_refresh", "30m")

	// Reference constants from spec.md §4.5.1/§4.5.4.
	v.SetDefault("strategy.fee", 1.5e-4)
	v.SetDefault("strategy.profit", 5e-5)
	v.SetDefault("strategy.risk", 2.5e-4)
	v.SetDefault("strategy.quote_size", 100)
	v.SetDefault("strategy.inventory_limit", 2000)
	v.SetDefault("strategy.hedge_ratio", 100)
	v.SetDefault("strategy.update_interval", 3)
	v.SetDefault("strategy.ping_interval", "30s")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "xvenue-mm")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.VenueA.WSHost == "" {
		return fmt.Errorf("venue_a.ws_host is required")
	}
	if c.VenueB.WSHost == "" {
		return fmt.Errorf("venue_b.ws_host is required")
	}
	if c.VenueA.Symbol == "" || c.VenueB.Symbol == "" {
		return fmt.Errorf("venue_a.symbol and venue_b.symbol are required")
	}
	if c.Strategy.HedgeRatio <= 0 {
		return fmt.Errorf("strategy.hedge_ratio must be positive")
	}
	if c.Strategy.QuoteSize <= 0 {
		return fmt.Errorf("strategy.quote_size must be positive")
	}
	if c.Strategy.UpdateInterval <= 0 {
		return fmt.Errorf("strategy.update_interval must be positive")
	}
	return nil
}
