package core

import (
	"context"
	"fmt"
	"os"
	"strings"

	env "github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type StaticConfigLoader struct {
	Values map[string]any
}

func (l StaticConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type envConfig struct {
	ServiceName        string `env:"SERVICE_NAME"`
	ChannelSecret      string `env:"CHANNEL_SECRET"`
	ChannelAccessToken string `env:"CHANNEL_ACCESS_TOKEN"`
	APIBaseURL         string `env:"API_BASE_URL"`
	RateLimitRequests  *int   `env:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow    *int   `env:"RATE_LIMIT_WINDOW_SECONDS"`
	ImageSetTTLSeconds *int   `env:"IMAGE_SET_TTL_SECONDS"`
	MaxBodyBytes       *int64 `env:"MAX_BODY_BYTES"`
	DedupeRedeliveries *bool  `env:"DEDUPE_REDELIVERIES"`
}

// EnvConfigLoader reads LINE_* variables (LINE_CHANNEL_SECRET,
// LINE_CHANNEL_ACCESS_TOKEN, ...). Environment overrides the process
// environment when set.
type EnvConfigLoader struct {
	Prefix      string
	Environment map[string]string
}

func (l EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	prefix := l.Prefix
	if strings.TrimSpace(prefix) == "" {
		prefix = "LINE_"
	}
	options := env.Options{Prefix: prefix}
	if l.Environment != nil {
		options.Environment = l.Environment
	}
	var parsed envConfig
	if err := env.ParseWithOptions(&parsed, options); err != nil {
		return nil, fmt.Errorf("core: parse environment config: %w", err)
	}

	raw := map[string]any{}
	setString := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			raw[key] = value
		}
	}
	setString("service_name", parsed.ServiceName)
	setString("channel_secret", parsed.ChannelSecret)
	setString("channel_access_token", parsed.ChannelAccessToken)
	setString("api_base_url", parsed.APIBaseURL)

	rateLimit := map[string]any{}
	if parsed.RateLimitRequests != nil {
		rateLimit["requests"] = *parsed.RateLimitRequests
	}
	if parsed.RateLimitWindow != nil {
		rateLimit["window_seconds"] = *parsed.RateLimitWindow
	}
	if len(rateLimit) > 0 {
		raw["rate_limit"] = rateLimit
	}
	if parsed.ImageSetTTLSeconds != nil {
		raw["image_set_ttl_seconds"] = *parsed.ImageSetTTLSeconds
	}
	if parsed.MaxBodyBytes != nil {
		raw["max_body_bytes"] = *parsed.MaxBodyBytes
	}
	if parsed.DedupeRedeliveries != nil {
		raw["dedupe_redeliveries"] = *parsed.DedupeRedeliveries
	}
	return raw, nil
}

type YAMLConfigLoader struct {
	Path string
}

func (l YAMLConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	path := strings.TrimSpace(l.Path)
	if path == "" {
		return nil, fmt.Errorf("core: yaml config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("core: read yaml config: %w", err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("core: decode yaml config: %w", err)
	}
	return raw, nil
}

// ChainConfigLoaders merges loader output left to right; later loaders win
// key by key, nested maps included.
func ChainConfigLoaders(loaders ...RawConfigLoader) RawConfigLoader {
	return chainedConfigLoader(append([]RawConfigLoader(nil), loaders...))
}

type chainedConfigLoader []RawConfigLoader

func (c chainedConfigLoader) LoadRaw(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	for _, loader := range c {
		if loader == nil {
			continue
		}
		raw, err := loader.LoadRaw(ctx)
		if err != nil {
			return nil, err
		}
		mergeRaw(out, raw)
	}
	return out, nil
}

func mergeRaw(dst map[string]any, src map[string]any) {
	for key, value := range src {
		nested, ok := value.(map[string]any)
		if !ok {
			dst[key] = value
			continue
		}
		existing, ok := dst[key].(map[string]any)
		if !ok {
			existing = map[string]any{}
		}
		mergeRaw(existing, nested)
		dst[key] = existing
	}
}
