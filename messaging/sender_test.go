package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goliatone/go-linebot/core"
)

type recordedRequest struct {
	Path     string
	Auth     string
	RetryKey string
	Body     map[string]any
}

type recordingServer struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (s *recordingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		Path:     r.URL.Path,
		Auth:     r.Header.Get("Authorization"),
		RetryKey: r.Header.Get(RetryKeyHeader),
		Body:     body,
	})
	status := s.status
	response := s.body
	s.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	if response == "" {
		response = `{}`
	}
	w.Header().Set(requestIDHeader, "req-123")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(response))
}

type countingLimiter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (l *countingLimiter) Dispatch(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.err
}

func newTestSender(t *testing.T, server *recordingServer, limiter Limiter) *Sender {
	t.Helper()
	httpServer := httptest.NewServer(server)
	t.Cleanup(httpServer.Close)
	sender, err := NewSender(
		NewTransport("channel-token", httpServer.Client()),
		WithBaseURL(httpServer.URL+"/"),
		WithLimiter(limiter),
		WithRetryKeyFunc(func() string { return "11111111-2222-3333-4444-555555555555" }),
	)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	return sender
}

func TestSender_ReplyPostsMessages(t *testing.T) {
	server := &recordingServer{}
	limiter := &countingLimiter{}
	sender := newTestSender(t, server, limiter)

	if err := sender.Reply(context.Background(), "reply-token", NewText("hello"), NewSticker("446", "1988")); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if limiter.calls != 1 {
		t.Fatalf("expected one limiter admission, got %d", limiter.calls)
	}
	if len(server.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(server.requests))
	}
	got := server.requests[0]
	if got.Path != "/v2/bot/message/reply" {
		t.Fatalf("unexpected path %q", got.Path)
	}
	if got.Auth != "Bearer channel-token" {
		t.Fatalf("expected bearer token, got %q", got.Auth)
	}
	if got.RetryKey != "" {
		t.Fatalf("expected no retry key on reply, got %q", got.RetryKey)
	}
	if got.Body["replyToken"] != "reply-token" {
		t.Fatalf("expected reply token in body, got %#v", got.Body)
	}
	messages, ok := got.Body["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("expected two messages, got %#v", got.Body["messages"])
	}
	first, _ := messages[0].(map[string]any)
	if first["type"] != "text" || first["text"] != "hello" {
		t.Fatalf("unexpected first message %#v", first)
	}
}

func TestSender_PushCarriesRetryKey(t *testing.T) {
	server := &recordingServer{}
	sender := newTestSender(t, server, nil)

	if err := sender.Push(context.Background(), "Cgroup", NewText("ping")); err != nil {
		t.Fatalf("push: %v", err)
	}
	got := server.requests[0]
	if got.Path != "/v2/bot/message/push" {
		t.Fatalf("unexpected path %q", got.Path)
	}
	if got.RetryKey != "11111111-2222-3333-4444-555555555555" {
		t.Fatalf("expected retry key header, got %q", got.RetryKey)
	}
	if got.Body["to"] != "Cgroup" {
		t.Fatalf("expected push target, got %#v", got.Body)
	}
}

func TestSender_DefaultRetryKeyIsUUID(t *testing.T) {
	sender, err := NewSender(NewTransport("token", nil))
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	key := sender.retryKey()
	if len(key) != 36 || key == sender.retryKey() {
		t.Fatalf("expected fresh uuid retry keys, got %q", key)
	}
}

func TestSender_NonSuccessStatusIsTransportFailed(t *testing.T) {
	server := &recordingServer{
		status: http.StatusBadRequest,
		body:   `{"message":"Invalid reply token","details":[{"message":"expired","property":"replyToken"}]}`,
	}
	sender := newTestSender(t, server, nil)

	err := sender.Reply(context.Background(), "stale", NewText("late"))
	if !core.HasTextCode(err, core.ErrorTransportFailed) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	mapped := core.MapError(err)
	if mapped.Metadata["status_code"] != http.StatusBadRequest {
		t.Fatalf("expected upstream status in metadata, got %#v", mapped.Metadata)
	}
	if mapped.Metadata["api_message"] != "Invalid reply token" {
		t.Fatalf("expected api message in metadata, got %#v", mapped.Metadata)
	}
	if mapped.Metadata["request_id"] != "req-123" {
		t.Fatalf("expected request id in metadata, got %#v", mapped.Metadata)
	}
}

func TestSender_RejectsBadInputBeforeLimiter(t *testing.T) {
	server := &recordingServer{}
	limiter := &countingLimiter{}
	sender := newTestSender(t, server, limiter)

	six := []Message{NewText("1"), NewText("2"), NewText("3"), NewText("4"), NewText("5"), NewText("6")}
	cases := []struct {
		name string
		call func() error
	}{
		{"no reply token", func() error { return sender.Reply(context.Background(), " ", NewText("x")) }},
		{"no push target", func() error { return sender.Push(context.Background(), "", NewText("x")) }},
		{"no messages", func() error { return sender.Reply(context.Background(), "token") }},
		{"too many messages", func() error { return sender.Reply(context.Background(), "token", six...) }},
		{"invalid message", func() error { return sender.Reply(context.Background(), "token", NewSticker("x", "y")) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !core.HasTextCode(err, core.ErrorBadInput) {
				t.Fatalf("expected bad input, got %v", err)
			}
		})
	}
	if limiter.calls != 0 || len(server.requests) != 0 {
		t.Fatalf("expected no admissions or requests, got %d and %d", limiter.calls, len(server.requests))
	}
}

func TestSender_LimiterErrorStopsRequest(t *testing.T) {
	server := &recordingServer{}
	limiter := &countingLimiter{err: errors.New("limiter closed")}
	sender := newTestSender(t, server, limiter)

	if err := sender.Reply(context.Background(), "token", NewText("x")); err == nil {
		t.Fatalf("expected limiter error")
	}
	if len(server.requests) != 0 {
		t.Fatalf("expected no request, got %d", len(server.requests))
	}
}

func TestNewSender_RequiresAdapter(t *testing.T) {
	if _, err := NewSender(nil); !core.HasTextCode(err, core.ErrorInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
