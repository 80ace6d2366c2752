package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-linebot/core"
)

const (
	defaultClientTimeout       = 30 * time.Second
	defaultMaxBodyBytes  int64 = 1 << 20
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTAdapter posts platform API calls over HTTP. Non-2xx responses are
// returned, not treated as errors; the caller decodes the API error body.
type RESTAdapter struct {
	Client            HTTPDoer
	Signer            Signer
	IdempotencyHeader string
	MaxBodyBytes      int64
}

func NewRESTAdapter(client HTTPDoer) *RESTAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}
	return &RESTAdapter{Client: client, MaxBodyBytes: defaultMaxBodyBytes}
}

func (a *RESTAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Client == nil {
		return core.TransportResponse{}, transportError("transport: rest adapter requires an http client", goerrors.CategoryInternal, nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	httpReq, err := a.newRequest(ctx, req)
	if err != nil {
		return core.TransportResponse{}, err
	}
	fields := map[string]any{"method": httpReq.Method, "url": httpReq.URL.String()}

	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, transportWrapError(err, goerrors.CategoryExternal, "transport: execute http request", fields)
	}
	defer httpRes.Body.Close()

	body, err := a.readBody(httpRes)
	if err != nil {
		return core.TransportResponse{}, err
	}
	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       body,
	}, nil
}

func (a *RESTAdapter) newRequest(ctx context.Context, req core.TransportRequest) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodPost
	}
	target := strings.TrimSpace(req.URL)
	if target == "" {
		return nil, transportError("transport: request url is required", goerrors.CategoryBadInput, nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(req.Body))
	if err != nil {
		return nil, transportWrapError(err, goerrors.CategoryBadInput, "transport: create http request", map[string]any{
			"method": method,
			"url":    target,
		})
	}
	for key, value := range req.Headers {
		if key = strings.TrimSpace(key); key != "" {
			httpReq.Header.Set(key, strings.TrimSpace(value))
		}
	}
	if header, key := strings.TrimSpace(a.IdempotencyHeader), strings.TrimSpace(req.Idempotency); header != "" && key != "" {
		httpReq.Header.Set(header, key)
	}
	if a.Signer != nil {
		if err := a.Signer.Sign(ctx, httpReq); err != nil {
			return nil, transportWrapError(err, goerrors.CategoryInternal, "transport: sign request", map[string]any{
				"method": method,
				"url":    target,
			})
		}
	}
	return httpReq, nil
}

func (a *RESTAdapter) readBody(res *http.Response) ([]byte, error) {
	limit := a.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return nil, transportWrapError(err, goerrors.CategoryExternal, "transport: read response body", map[string]any{
			"status_code": res.StatusCode,
		})
	}
	if int64(len(body)) > limit {
		return nil, transportError(fmt.Sprintf("transport: response body exceeds %d bytes", limit), goerrors.CategoryExternal, map[string]any{
			"status_code": res.StatusCode,
		})
	}
	return body, nil
}

// flattenHeaders keys the result by canonical header name.
func flattenHeaders(headers http.Header) map[string]string {
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		flat[http.CanonicalHeaderKey(key)] = strings.Join(values, ",")
	}
	return flat
}

var _ core.TransportAdapter = (*RESTAdapter)(nil)
