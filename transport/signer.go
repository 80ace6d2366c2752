package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Signer decorates an outbound request with credentials.
type Signer interface {
	Sign(ctx context.Context, req *http.Request) error
}

// BearerTokenSigner sets a static channel access token.
type BearerTokenSigner struct {
	Token string
}

func (s BearerTokenSigner) Sign(_ context.Context, req *http.Request) error {
	if req == nil {
		return fmt.Errorf("transport: http request is required")
	}
	token := strings.TrimSpace(s.Token)
	if token == "" {
		return fmt.Errorf("transport: access token is required for bearer signing")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
