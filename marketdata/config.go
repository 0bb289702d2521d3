package marketdata

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables holding the provider API keys. Keys never live
// in the settings file.
const (
	EnvAlphaVantageKey = "ALPHAVANTAGE_API_KEY"
	EnvFinnhubKey      = "FINNHUB_API_KEY"
	EnvMarketstackKey  = "MARKETSTACK_API_KEY"
)

// Duration is a time.Duration that reads YAML strings like "12s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ProviderConfig tunes one quote service client.
type ProviderConfig struct {
	// BaseURL overrides the production endpoint, mostly for tests.
	BaseURL string `yaml:"base_url"`
	// MinInterval is the minimum spacing between two calls.
	MinInterval Duration `yaml:"min_interval"`
	// Key is the API key, resolved from the environment, never from
	// the settings file.
	Key string `yaml:"-"`
}

// Config tunes the whole market data layer. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	AlphaVantage ProviderConfig `yaml:"alphavantage"`
	Finnhub      ProviderConfig `yaml:"finnhub"`
	Marketstack  ProviderConfig `yaml:"marketstack"`
	// Timeout bounds every HTTP call.
	Timeout Duration `yaml:"timeout"`
	// Attempts is the per-provider retry budget for transient failures.
	Attempts int `yaml:"attempts"`
	// Backoff is the first retry delay; it doubles on each retry.
	Backoff Duration `yaml:"backoff"`
}

// DefaultConfig matches the production services: Alpha Vantage and
// Finnhub free tiers want 12s between calls, Marketstack 2s.
func DefaultConfig() Config {
	return Config{
		AlphaVantage: ProviderConfig{
			BaseURL:     "https://www.alphavantage.co",
			MinInterval: Duration(12 * time.Second),
			Key:         os.Getenv(EnvAlphaVantageKey),
		},
		Finnhub: ProviderConfig{
			BaseURL:     "https://finnhub.io",
			MinInterval: Duration(12 * time.Second),
			Key:         os.Getenv(EnvFinnhubKey),
		},
		Marketstack: ProviderConfig{
			BaseURL:     "https://api.marketstack.com",
			MinInterval: Duration(2 * time.Second),
			Key:         os.Getenv(EnvMarketstackKey),
		},
		Timeout:  Duration(60 * time.Second),
		Attempts: 3,
		Backoff:  Duration(time.Second),
	}
}

// LoadConfig overlays an optional YAML settings file on the defaults.
// An empty path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	if cfg.Attempts < 1 {
		return Config{}, fmt.Errorf("settings %s: attempts must be at least 1", path)
	}
	return cfg, nil
}
