package core

import "testing"

func TestRedactSensitiveMapPreservesTraceabilityMetadata(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"request_id":           "req_1",
		"webhook_event_id":     "01HWEBHOOK",
		"reply_token":          "rt_1",
		"channel_access_token": "secret-token",
		"authorization":        "Bearer secret-token",
		"nested":               map[string]any{"channel_secret": "s3cret", "retry_key": "rk_1"},
		"headers":              []any{map[string]any{"x-line-signature": "abc="}, map[string]any{"image_set_id": "set_1"}},
	})

	if redacted["request_id"] != "req_1" || redacted["webhook_event_id"] != "01HWEBHOOK" {
		t.Fatalf("expected traceability ids to remain visible, got %#v", redacted)
	}
	if redacted["reply_token"] != "rt_1" {
		t.Fatalf("expected reply_token to remain visible, got %#v", redacted["reply_token"])
	}
	if redacted["channel_access_token"] != RedactedValue || redacted["authorization"] != RedactedValue {
		t.Fatalf("expected credentials to be redacted, got %#v", redacted)
	}
	nested, ok := redacted["nested"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested redacted map")
	}
	if nested["channel_secret"] != RedactedValue || nested["retry_key"] != "rk_1" {
		t.Fatalf("unexpected nested redaction %#v", nested)
	}
	headers, ok := redacted["headers"].([]any)
	if !ok || headers[0].(map[string]any)["x-line-signature"] != RedactedValue {
		t.Fatalf("expected signature header to be redacted, got %#v", redacted["headers"])
	}
	if headers[1].(map[string]any)["image_set_id"] != "set_1" {
		t.Fatalf("expected image_set_id to remain visible")
	}
}

func TestRedactSensitiveMapEmpty(t *testing.T) {
	if got := RedactSensitiveMap(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty map, got %#v", got)
	}
}
