// Package config loads the user agent configuration from defaults, an
// optional YAML file and USERAGENT_* environment variables, in that order.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/frankli0324/go-useragent/internal/useragent"
)

const EnvPrefix = "USERAGENT_"

// Load reads the configuration. path may be empty, a file that is named
// must exist.
func Load(path string) (*useragent.Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	// USERAGENT_MAX_RETRIES=5 -> max_retries, lists are comma separated
	if err := k.Load(envprovider.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "valid_status_codes" {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg useragent.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaults() map[string]any {
	d := useragent.DefaultConfig()
	return map[string]any{
		"max_redirects":      d.MaxRedirects,
		"max_retries":        d.MaxRetries,
		"retry_delay":        d.RetryDelay.String(),
		"timeout":            d.Timeout.String(),
		"valid_status_codes": d.ValidStatusCodes,
		"cookies":            d.Cookies,
		"max_conns_per_host": d.MaxConnsPerHost,
		"max_idle_per_host":  d.MaxIdlePerHost,
		"max_idle_time":      d.MaxIdleTime.String(),
		"rate_limit":         d.RateLimit,
		"rate_burst":         d.RateBurst,
	}
}
