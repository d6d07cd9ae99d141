package config

import (
	"bytes"
	_ "embed"
	"strings"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	Platform PlatformConfig `mapstructure:"platform"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	PIN      PINConfig      `mapstructure:"pin"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// PlatformConfig holds the card-issuing platform's v3 API endpoint and the
// basic-auth credential pair attached to every outbound call.
type PlatformConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	ApplicationToken string `mapstructure:"application_token"`
	AdminToken       string `mapstructure:"admin_token"`
}

type LimitsConfig struct {
	BalanceLimitCents int64  `mapstructure:"balance_limit_cents"`
	Currency          string `mapstructure:"currency"`
	VelocityWindow    string `mapstructure:"velocity_window"`
}

// WebhookConfig is the delivery credential pair attached to simulated
// authorizations when the caller supplies a webhook endpoint.
type WebhookConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// PINConfig drives the PIN-gated payment path: a single demo PIN plus an
// optional static PAN→PIN table that takes precedence per card.
type PINConfig struct {
	Demo  string            `mapstructure:"demo"`
	Cards map[string]string `mapstructure:"cards"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (CARDLAB_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (CARDLAB_*); nested keys map dots to underscores,
	// e.g. platform.admin_token <- CARDLAB_PLATFORM_ADMIN_TOKEN
	v.SetEnvPrefix("CARDLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
