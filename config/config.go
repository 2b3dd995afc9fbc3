// Package config loads the exchange desk settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"go-currency-exchange/domain"
)

// Prefix of every environment variable, e.g. EXCHANGE_REFRESH_INTERVAL
const Prefix = "EXCHANGE"

type ProviderConfig struct {
	Url     string        `envconfig:"URL" default:"https://api.currencyfreaks.com/v2.0/rates/latest"`
	ApiKey  string        `envconfig:"API_KEY"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"5s"`
}

type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`

	Provider        ProviderConfig `envconfig:"PROVIDER"`
	RefreshInterval time.Duration  `envconfig:"REFRESH_INTERVAL" default:"10s"`

	// ReferenceCurrency the currency the provider quotes rates against
	ReferenceCurrency string `envconfig:"REFERENCE_CURRENCY" default:"USD"`
	BaseCurrency      string `envconfig:"BASE_CURRENCY" default:"USD"`
	BuyCurrency       string `envconfig:"BUY_CURRENCY" default:"EUR"`

	// Balances opening balances, e.g. USD:500,EUR:400
	Balances map[string]float64 `envconfig:"BALANCES" default:"USD:500,EUR:400,GBP:300"`
}

// Load reads an optional .env file (the first of envFilePath, or ./.env) and
// then the environment. Variables already set win over the file.
func Load(logger log.Logger, envFilePath ...string) (*Config, error) {
	var err error
	if len(envFilePath) > 0 && envFilePath[0] != "" {
		err = godotenv.Load(envFilePath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		level.Debug(logger).Log("msg", "no .env file loaded, using environment only", "err", err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level.Info(logger).Log(
		"msg", "config loaded",
		"listen_addr", cfg.ListenAddr,
		"provider_url", cfg.Provider.Url,
		"provider_api_key", maskApiKey(cfg.Provider.ApiKey),
		"refresh_interval", cfg.RefreshInterval,
		"base", cfg.BaseCurrency,
		"buy", cfg.BuyCurrency,
	)
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %v", c.RefreshInterval)
	}
	if c.BaseCurrency == c.BuyCurrency {
		return fmt.Errorf("base and buy currency are both %v", c.BaseCurrency)
	}
	if _, ok := levels[c.LogLevel]; !ok {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// OpeningBalances the configured balances as domain values
func (c *Config) OpeningBalances() domain.Balances {
	balances := make(domain.Balances, len(c.Balances))
	for k, v := range c.Balances {
		balances[domain.Currency(k)] = domain.Amount(v)
	}
	return balances
}

var levels = map[string]func() level.Option{
	"debug": level.AllowDebug,
	"info":  level.AllowInfo,
	"warn":  level.AllowWarn,
	"error": level.AllowError,
}

// LevelOption the level filter matching LogLevel, info when unknown
func (c *Config) LevelOption() level.Option {
	if allow, ok := levels[c.LogLevel]; ok {
		return allow()
	}
	return level.AllowInfo()
}

func maskApiKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
