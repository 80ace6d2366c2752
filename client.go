package linebot

import (
	"context"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-linebot/core"
	"github.com/goliatone/go-linebot/imageset"
	"github.com/goliatone/go-linebot/messaging"
	"github.com/goliatone/go-linebot/ratelimit"
	"github.com/goliatone/go-linebot/router"
	"github.com/goliatone/go-linebot/transport"
	"github.com/goliatone/go-linebot/webhooks"
)

const loggerName = "linebot"

type Option func(*clientBuilder)

type clientBuilder struct {
	runtimeConfig   Config
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metrics         core.MetricsRecorder
	httpClient      transport.HTTPDoer
	adapter         core.TransportAdapter
	ledger          webhooks.DeliveryLedger
	retryKey        func() string
	limiterOptions  []ratelimit.Option
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *clientBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(b *clientBuilder) {
		b.optionsResolver = resolver
	}
}

func WithLogger(logger core.Logger) Option {
	return func(b *clientBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *clientBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(b *clientBuilder) {
		b.metrics = recorder
	}
}

// WithHTTPClient replaces the client used by the default REST transport.
func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(b *clientBuilder) {
		b.httpClient = client
	}
}

// WithTransport replaces the outbound transport entirely. The adapter is
// responsible for its own authorization.
func WithTransport(adapter core.TransportAdapter) Option {
	return func(b *clientBuilder) {
		b.adapter = adapter
	}
}

// WithDeliveryLedger enables redelivery dedupe with a custom ledger,
// regardless of Config.DedupeRedeliveries.
func WithDeliveryLedger(ledger webhooks.DeliveryLedger) Option {
	return func(b *clientBuilder) {
		b.ledger = ledger
	}
}

func WithRetryKeyFunc(fn func() string) Option {
	return func(b *clientBuilder) {
		b.retryKey = fn
	}
}

func WithLimiterOptions(opts ...ratelimit.Option) Option {
	return func(b *clientBuilder) {
		b.limiterOptions = append(b.limiterOptions, opts...)
	}
}

// Client is the bot: register handlers with On, mount Handler on the
// webhook path, and send with Reply or Push.
type Client struct {
	config    Config
	observer  core.Observer
	limiter   *ratelimit.Limiter
	sender    *messaging.Sender
	router    *router.Router
	images    *imageset.Buffer
	processor *webhooks.Processor
	handler   *webhooks.Handler
}

// NewClient resolves cfg over the configured provider and defaults, then
// builds every component. cfg acts as the runtime layer and wins over
// loaded values.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	builder := clientBuilder{runtimeConfig: cfg}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	observer := core.NewObserver(loggerName, builder.loggerProvider, builder.logger, builder.metrics)

	resolved, err := core.ResolveConfig(context.Background(), builder.configProvider, builder.optionsResolver, builder.runtimeConfig)
	if err != nil {
		return nil, core.WrapError(err, goerrors.CategoryBadInput, "linebot: invalid configuration", core.ErrorBadInput, nil)
	}

	limiterOptions := append([]ratelimit.Option{ratelimit.WithObserver(observer)}, builder.limiterOptions...)
	limiter, err := ratelimit.NewLimiter(resolved.RateLimit.Requests, resolved.RateLimitWindow(), limiterOptions...)
	if err != nil {
		return nil, err
	}

	adapter := builder.adapter
	if adapter == nil {
		adapter = messaging.NewTransport(resolved.ChannelAccessToken, builder.httpClient)
	}
	senderOptions := []messaging.SenderOption{
		messaging.WithLimiter(limiter),
		messaging.WithObserver(observer),
		messaging.WithBaseURL(resolved.APIBaseURL),
	}
	if builder.retryKey != nil {
		senderOptions = append(senderOptions, messaging.WithRetryKeyFunc(builder.retryKey))
	}
	sender, err := messaging.NewSender(adapter, senderOptions...)
	if err != nil {
		return nil, err
	}

	images := imageset.New()
	rt := router.New(
		router.WithImageBuffer(images),
		router.WithImageSetTTL(resolved.ImageSetTTL()),
		router.WithReplier(sender),
		router.WithObserver(observer),
	)

	processor := webhooks.NewProcessor(webhooks.SignatureVerifier{Secret: resolved.ChannelSecret}, rt)
	processor.Observer = observer
	switch {
	case builder.ledger != nil:
		processor.Ledger = builder.ledger
	case resolved.DedupeRedeliveries:
		processor.Ledger = webhooks.NewMemoryDeliveryLedger(0)
	}

	handler := webhooks.NewHandler(processor, resolved.MaxBodyBytes)
	handler.Observer = observer

	observer.LogInfo(context.Background(), "linebot: client ready", map[string]any{
		"service_name":        resolved.ServiceName,
		"api_base_url":        resolved.APIBaseURL,
		"rate_limit_requests": resolved.RateLimit.Requests,
		"rate_limit_window":   resolved.RateLimitWindow().String(),
		"dedupe_redeliveries": processor.Ledger != nil,
	})

	return &Client{
		config:    resolved,
		observer:  observer,
		limiter:   limiter,
		sender:    sender,
		router:    rt,
		images:    images,
		processor: processor,
		handler:   handler,
	}, nil
}

// Config returns the resolved configuration with the channel credentials
// masked.
func (c *Client) Config() Config {
	cfg := c.config
	cfg.ChannelSecret = mask(cfg.ChannelSecret)
	cfg.ChannelAccessToken = mask(cfg.ChannelAccessToken)
	return cfg
}

// On registers handler for a notification name. Handlers for one name run in
// registration order.
func (c *Client) On(name string, handler Handler) error {
	return c.router.Register(name, handler)
}

// Handler is the http.Handler to mount on the webhook path.
func (c *Client) Handler() http.Handler {
	return c.handler
}

// Process handles one webhook request without the HTTP layer.
func (c *Client) Process(ctx context.Context, req Request) (Result, error) {
	return c.processor.Process(ctx, req)
}

func (c *Client) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	return c.sender.Reply(ctx, replyToken, messages...)
}

func (c *Client) Push(ctx context.Context, to string, messages ...Message) error {
	return c.sender.Push(ctx, to, messages...)
}

// RateLimit reports the outbound limiter state.
func (c *Client) RateLimit() ratelimit.State {
	return c.limiter.Snapshot()
}

// PendingImageSets reports how many image sets are waiting for parts.
func (c *Client) PendingImageSets() int {
	return c.images.Len()
}

func mask(secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
