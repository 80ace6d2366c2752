package core

import (
	stderrors "errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestNewError_AssignsStatusAndTextCode(t *testing.T) {
	err := NewError("signature mismatch", goerrors.CategoryAuth, ErrorInvalidSignature, map[string]any{
		"header": "X-Line-Signature",
	})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if rich.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rich.Code)
	}
	if rich.TextCode != ErrorInvalidSignature {
		t.Fatalf("expected invalid signature text code, got %q", rich.TextCode)
	}
	if rich.Metadata["header"] != "X-Line-Signature" {
		t.Fatalf("expected metadata to be attached, got %#v", rich.Metadata)
	}
}

func TestNewError_DefaultsTextCodeFromCategory(t *testing.T) {
	err := NewError("upstream down", goerrors.CategoryExternal, "", nil)
	if !HasTextCode(err, ErrorTransportFailed) {
		t.Fatalf("expected transport failed default text code")
	}
	if MapError(err).Code != http.StatusBadGateway {
		t.Fatalf("expected bad gateway status")
	}
}

func TestWrapError_CarriesHandlerCode(t *testing.T) {
	source := stderrors.New("handler exploded")
	err := WrapError(source, goerrors.CategoryOperation, "handler failed", ErrorHandlerFailed, nil)
	if !HasTextCode(err, ErrorHandlerFailed) {
		t.Fatalf("expected handler failed text code")
	}
	mapped := MapError(err)
	if mapped.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for operation failure, got %d", mapped.Code)
	}
}

func TestMapError_NormalizesPlainErrors(t *testing.T) {
	mapped := MapError(stderrors.New("boom"))
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.Code == 0 {
		t.Fatalf("expected http status code on mapped error")
	}
	if mapped.TextCode == "" {
		t.Fatalf("expected text code on mapped error")
	}
	if MapError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestHasTextCode_IgnoresPlainErrors(t *testing.T) {
	if HasTextCode(stderrors.New("plain"), ErrorInternal) {
		t.Fatalf("expected plain error to carry no text code")
	}
	if HasTextCode(nil, ErrorInternal) {
		t.Fatalf("expected nil error to carry no text code")
	}
}

func TestHTTPStatus_CategoryTable(t *testing.T) {
	cases := map[goerrors.Category]int{
		goerrors.CategoryBadInput:   http.StatusBadRequest,
		goerrors.CategoryValidation: http.StatusBadRequest,
		goerrors.CategoryAuth:       http.StatusUnauthorized,
		goerrors.CategoryNotFound:   http.StatusNotFound,
		goerrors.CategoryConflict:   http.StatusConflict,
		goerrors.CategoryRateLimit:  http.StatusTooManyRequests,
		goerrors.CategoryExternal:   http.StatusBadGateway,
		goerrors.CategoryInternal:   http.StatusInternalServerError,
	}
	for category, expected := range cases {
		if got := HTTPStatus(category); got != expected {
			t.Fatalf("expected %d for %q, got %d", expected, category, got)
		}
	}
}
