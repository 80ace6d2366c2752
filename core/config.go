package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultServiceName        = "linebot"
	DefaultAPIBaseURL         = "https://api.line.me"
	DefaultRateLimitRequests  = 2000
	DefaultRateLimitWindow    = 1
	DefaultMaxBodyBytes       = 1 << 20
	DefaultImageSetTTLSeconds = 0
	DefaultDedupeRedeliveries = false
)

type RateLimitConfig struct {
	Requests      int `koanf:"requests" mapstructure:"requests"`
	WindowSeconds int `koanf:"window_seconds" mapstructure:"window_seconds"`
}

type Config struct {
	ServiceName        string          `koanf:"service_name" mapstructure:"service_name"`
	ChannelSecret      string          `koanf:"channel_secret" mapstructure:"channel_secret"`
	ChannelAccessToken string          `koanf:"channel_access_token" mapstructure:"channel_access_token"`
	APIBaseURL         string          `koanf:"api_base_url" mapstructure:"api_base_url"`
	RateLimit          RateLimitConfig `koanf:"rate_limit" mapstructure:"rate_limit"`
	ImageSetTTLSeconds int             `koanf:"image_set_ttl_seconds" mapstructure:"image_set_ttl_seconds"`
	MaxBodyBytes       int64           `koanf:"max_body_bytes" mapstructure:"max_body_bytes"`
	DedupeRedeliveries bool            `koanf:"dedupe_redeliveries" mapstructure:"dedupe_redeliveries"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: DefaultServiceName,
		APIBaseURL:  DefaultAPIBaseURL,
		RateLimit: RateLimitConfig{
			Requests:      DefaultRateLimitRequests,
			WindowSeconds: DefaultRateLimitWindow,
		},
		ImageSetTTLSeconds: DefaultImageSetTTLSeconds,
		MaxBodyBytes:       DefaultMaxBodyBytes,
		DedupeRedeliveries: DefaultDedupeRedeliveries,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.ChannelSecret) == "" {
		return fmt.Errorf("core: channel_secret is required")
	}
	if strings.TrimSpace(c.ChannelAccessToken) == "" {
		return fmt.Errorf("core: channel_access_token is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(c.APIBaseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("core: api_base_url is invalid")
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("core: rate_limit.requests must be positive")
	}
	if c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("core: rate_limit.window_seconds must be positive")
	}
	if c.ImageSetTTLSeconds < 0 {
		return fmt.Errorf("core: image_set_ttl_seconds must not be negative")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("core: max_body_bytes must be positive")
	}
	return nil
}

func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

func (c Config) ImageSetTTL() time.Duration {
	return time.Duration(c.ImageSetTTLSeconds) * time.Second
}
