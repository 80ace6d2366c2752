package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-linebot/core"
	"github.com/goliatone/go-linebot/transport"
)

const (
	replyPath = "/v2/bot/message/reply"
	pushPath  = "/v2/bot/message/push"

	RetryKeyHeader  = "X-Line-Retry-Key"
	requestIDHeader = "X-Line-Request-Id"

	// MaxMessages is the platform limit per reply or push call.
	MaxMessages = 5
)

// Limiter admits outbound calls.
type Limiter interface {
	Dispatch(ctx context.Context) error
}

// Sender delivers reply and push messages. Every call passes the limiter
// before touching the transport.
type Sender struct {
	adapter  core.TransportAdapter
	limiter  Limiter
	baseURL  string
	observer core.Observer
	retryKey func() string
}

type SenderOption func(*Sender)

func WithLimiter(limiter Limiter) SenderOption {
	return func(s *Sender) {
		s.limiter = limiter
	}
}

func WithObserver(observer core.Observer) SenderOption {
	return func(s *Sender) {
		s.observer = observer
	}
}

func WithBaseURL(baseURL string) SenderOption {
	return func(s *Sender) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			s.baseURL = trimmed
		}
	}
}

// WithRetryKeyFunc replaces the generator for push retry keys.
func WithRetryKeyFunc(fn func() string) SenderOption {
	return func(s *Sender) {
		if fn != nil {
			s.retryKey = fn
		}
	}
}

func NewSender(adapter core.TransportAdapter, opts ...SenderOption) (*Sender, error) {
	if adapter == nil {
		return nil, core.Internal("messaging: transport adapter is required", nil)
	}
	sender := &Sender{
		adapter:  adapter,
		baseURL:  core.DefaultAPIBaseURL,
		retryKey: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(sender)
		}
	}
	return sender, nil
}

// NewTransport returns a REST adapter that signs requests with the channel
// access token and forwards push retry keys.
func NewTransport(accessToken string, client transport.HTTPDoer) *transport.RESTAdapter {
	adapter := transport.NewRESTAdapter(client)
	adapter.Signer = transport.BearerTokenSigner{Token: accessToken}
	adapter.IdempotencyHeader = RetryKeyHeader
	return adapter
}

type replyRequest struct {
	ReplyToken           string    `json:"replyToken"`
	Messages             []Message `json:"messages"`
	NotificationDisabled bool      `json:"notificationDisabled,omitempty"`
}

type pushRequest struct {
	To                   string    `json:"to"`
	Messages             []Message `json:"messages"`
	NotificationDisabled bool      `json:"notificationDisabled,omitempty"`
}

// Reply answers the event that issued replyToken. Reply tokens are single
// use.
func (s *Sender) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	token := strings.TrimSpace(replyToken)
	if token == "" {
		return badInput("reply token is required", nil)
	}
	if err := validateMessages(messages); err != nil {
		return err
	}
	return s.send(ctx, "reply", replyPath, replyRequest{ReplyToken: token, Messages: messages}, "", map[string]any{
		"reply_token":   token,
		"message_count": len(messages),
	})
}

// Push sends messages to a user, group or room id. Each call carries a fresh
// retry key so the platform can drop duplicates of a retried request.
func (s *Sender) Push(ctx context.Context, to string, messages ...Message) error {
	target := strings.TrimSpace(to)
	if target == "" {
		return badInput("push target is required", nil)
	}
	if err := validateMessages(messages); err != nil {
		return err
	}
	retryKey := s.retryKey()
	return s.send(ctx, "push", pushPath, pushRequest{To: target, Messages: messages}, retryKey, map[string]any{
		"to":            target,
		"retry_key":     retryKey,
		"message_count": len(messages),
	})
}

func (s *Sender) send(
	ctx context.Context,
	endpoint string,
	path string,
	payload any,
	retryKey string,
	fields map[string]any,
) (err error) {
	if s == nil || s.adapter == nil {
		return core.Internal("messaging: sender is not configured", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	defer func() {
		s.observer.Observe(ctx, startedAt, "outbound."+endpoint, err, fields)
	}()

	if s.limiter != nil {
		if err = s.limiter.Dispatch(ctx); err != nil {
			return err
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return core.WrapError(err, goerrors.CategoryInternal, "messaging: encode request", core.ErrorInternal, nil)
	}
	res, err := s.adapter.Do(ctx, core.TransportRequest{
		Method:      http.MethodPost,
		URL:         s.baseURL + path,
		Body:        body,
		Idempotency: retryKey,
		Headers:     map[string]string{"Content-Type": "application/json"},
	})
	if err != nil {
		return err
	}
	if requestID := res.Headers[requestIDHeader]; requestID != "" {
		fields["request_id"] = requestID
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return statusError(endpoint, res)
	}
	return nil
}

func validateMessages(messages []Message) error {
	if len(messages) == 0 {
		return badInput("at least one message is required", nil)
	}
	if len(messages) > MaxMessages {
		return badInput("too many messages", map[string]any{
			"message_count": len(messages),
			"max_messages":  MaxMessages,
		})
	}
	for i, msg := range messages {
		if msg == nil {
			return badInput("message is nil", map[string]any{"index": i})
		}
		if err := msg.Validate(); err != nil {
			return invalidMessage(i, msg, err)
		}
	}
	return nil
}
