// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DiscordToken string `mapstructure:"discord_token"`
	DiscordAppID string `mapstructure:"discord_app_id"`
	HeliusKey    string `mapstructure:"helius_key"`

	PageSize     int `mapstructure:"page_size"`
	BatchSize    int `mapstructure:"batch_size"`
	Retries      int `mapstructure:"retries"`
	RetryDelayMS int `mapstructure:"retry_delay_ms"`

	RateCapacity int `mapstructure:"rate_capacity"`
	RateRefill   int `mapstructure:"rate_refill"`

	FontPath     string `mapstructure:"font_path"`
	LogFile      string `mapstructure:"log_file"`
	DebugLogging bool   `mapstructure:"debug_logging"`
}

const (
	DefaultPageSize     = 500
	DefaultBatchSize    = 100
	DefaultRetries      = 3
	DefaultRetryDelayMS = 1000
	DefaultRateCapacity = 10
	DefaultRateRefill   = 10
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"page_size":      DefaultPageSize,
		"batch_size":     DefaultBatchSize,
		"retries":        DefaultRetries,
		"retry_delay_ms": DefaultRetryDelayMS,
		"rate_capacity":  DefaultRateCapacity,
		"rate_refill":    DefaultRateRefill,
		"log_file":       "logs/pnl-bot.log",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.HeliusKey == "" {
		return errors.New("missing helius_key in configuration")
	}
	if cfg.DiscordToken == "" {
		return errors.New("missing discord_token in configuration")
	}
	if cfg.PageSize <= 0 {
		return errors.New("invalid page_size")
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > 100 {
		return errors.New("invalid batch_size")
	}
	if cfg.Retries <= 0 {
		return errors.New("invalid retries count")
	}
	if cfg.RetryDelayMS <= 0 {
		return errors.New("invalid retry_delay_ms")
	}
	if cfg.RateCapacity <= 0 || cfg.RateRefill <= 0 {
		return errors.New("invalid rate limiter settings")
	}
	return nil
}

// RetryDelay returns the linear-backoff base as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// SolanaRPCURL is the keyed Helius JSON-RPC endpoint.
func (c *Config) SolanaRPCURL() string {
	return fmt.Sprintf("https://mainnet.helius-rpc.com/?api-key=%s", c.HeliusKey)
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.AutomaticEnv()
	v.SetEnvPrefix("PNL_BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if token := v.GetString("DISCORD_TOKEN"); token != "" {
		cfg.DiscordToken = token
	}
	if appID := v.GetString("DISCORD_APP_ID"); appID != "" {
		cfg.DiscordAppID = appID
	}
	if key := v.GetString("HELIUS_KEY"); key != "" {
		cfg.HeliusKey = key
	}
}
