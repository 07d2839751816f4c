package useragent

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const Version = "0.3.0"

// DefaultValidStatusCodes are the status codes accepted unless a call or the
// config says otherwise.
var DefaultValidStatusCodes = []int{200, 301, 302, 303, 307}

// Config is the policy of a UserAgent. it is copied when the agent is built.
type Config struct {
	MaxRedirects     int               `koanf:"max_redirects" validate:"min=1"`
	MaxRetries       int               `koanf:"max_retries" validate:"min=1"`
	RetryDelay       time.Duration     `koanf:"retry_delay" validate:"gte=0"`
	Timeout          time.Duration     `koanf:"timeout" validate:"gte=0"`
	ValidStatusCodes []int             `koanf:"valid_status_codes" validate:"min=1,dive,gte=100,lte=599"`
	Headers          map[string]string `koanf:"headers"`
	Cookies          bool              `koanf:"cookies"`

	MaxConnsPerHost uint          `koanf:"max_conns_per_host" validate:"min=1"`
	MaxIdlePerHost  uint          `koanf:"max_idle_per_host"`
	MaxIdleTime     time.Duration `koanf:"max_idle_time" validate:"gte=0"`
	Proxy           string        `koanf:"proxy" validate:"omitempty,url"`
	RateLimit       float64       `koanf:"rate_limit" validate:"gte=0"`
	RateBurst       int           `koanf:"rate_burst" validate:"gte=0"`
	RequestIDHeader string        `koanf:"request_id_header"`
}

func DefaultConfig() Config {
	return Config{
		MaxRedirects:     3,
		MaxRetries:       3,
		ValidStatusCodes: append([]int(nil), DefaultValidStatusCodes...),
		MaxConnsPerHost:  100,
		MaxIdlePerHost:   80,
		MaxIdleTime:      90 * time.Second,
		RateBurst:        1,
	}
}

// DefaultHeaders are sent with every request unless overridden.
func DefaultHeaders() Header {
	return HeaderFromMap(map[string]string{"User-Agent": "go-useragent/" + Version})
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid user agent config: %w", err)
	}
	return nil
}

func (c *Config) poolConfig() PoolConfig {
	return PoolConfig{
		MaxConnsPerHost: c.MaxConnsPerHost,
		MaxIdlePerHost:  c.MaxIdlePerHost,
		MaxIdleTime:     c.MaxIdleTime,
		Proxy:           c.Proxy,
		RateLimit:       c.RateLimit,
		RateBurst:       c.RateBurst,
		RequestIDHeader: c.RequestIDHeader,
	}
}
