package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-linebot/core"
)

func TestRESTAdapter_SendsSignedRequest(t *testing.T) {
	var (
		gotMethod      string
		gotPath        string
		gotAuth        string
		gotContentType string
		gotRetryKey    string
		gotBody        string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotRetryKey = r.Header.Get("X-Line-Retry-Key")
		gotBody = string(body)
		w.Header().Set("X-Line-Request-Id", "req-1")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	adapter.Signer = BearerTokenSigner{Token: "token-1"}
	adapter.IdempotencyHeader = "X-Line-Retry-Key"

	res, err := adapter.Do(context.Background(), core.TransportRequest{
		Method:      "post",
		URL:         server.URL + "/v2/bot/message/push",
		Headers:     map[string]string{" Content-Type ": "application/json", "": "dropped"},
		Body:        []byte(`{"to":"U1"}`),
		Idempotency: "retry-1",
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}
	if res.Headers["X-Line-Request-Id"] != "req-1" {
		t.Fatalf("expected request id header, got %#v", res.Headers)
	}
	if gotMethod != http.MethodPost || gotPath != "/v2/bot/message/push" {
		t.Fatalf("unexpected request line %s %s", gotMethod, gotPath)
	}
	if gotAuth != "Bearer token-1" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("expected json content type, got %q", gotContentType)
	}
	if gotRetryKey != "retry-1" {
		t.Fatalf("expected retry key header, got %q", gotRetryKey)
	}
	if gotBody != `{"to":"U1"}` {
		t.Fatalf("unexpected body %q", gotBody)
	}
}

func TestRESTAdapter_NonSuccessStatusIsReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer server.Close()

	res, err := NewRESTAdapter(server.Client()).Do(context.Background(), core.TransportRequest{
		Method: http.MethodPost,
		URL:    server.URL,
	})
	if err != nil {
		t.Fatalf("expected status to be returned without error, got %v", err)
	}
	if res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", res.StatusCode)
	}
	if string(res.Body) != `{"message":"rate limited"}` {
		t.Fatalf("unexpected body %q", res.Body)
	}
}

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestRESTAdapter_ClientFailureIsTransportFailed(t *testing.T) {
	_, err := NewRESTAdapter(failingDoer{}).Do(context.Background(), core.TransportRequest{
		Method: http.MethodPost,
		URL:    "https://api.example.test/v2/bot/message/reply",
	})
	if !core.HasTextCode(err, core.ErrorTransportFailed) {
		t.Fatalf("expected transport failure, got %v", err)
	}
}

func TestRESTAdapter_SignerFailureStopsRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	adapter.Signer = BearerTokenSigner{}

	_, err := adapter.Do(context.Background(), core.TransportRequest{Method: http.MethodPost, URL: server.URL})
	if !core.HasTextCode(err, core.ErrorInternal) {
		t.Fatalf("expected internal signing error, got %v", err)
	}
	if called {
		t.Fatalf("expected request not to be sent")
	}
}
