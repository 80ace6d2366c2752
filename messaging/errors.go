package messaging

import (
	"encoding/json"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-linebot/core"
)

func badInput(message string, metadata map[string]any) error {
	return core.BadInput("messaging: "+message, metadata)
}

func invalidMessage(index int, msg Message, err error) error {
	return core.WrapError(err, goerrors.CategoryBadInput, fmt.Sprintf("messaging: message %d is invalid", index), core.ErrorBadInput, map[string]any{
		"index":        index,
		"message_type": msg.Type(),
	})
}

// apiError is the error body returned by the messaging API.
type apiError struct {
	Message string `json:"message"`
	Details []struct {
		Message  string `json:"message"`
		Property string `json:"property"`
	} `json:"details"`
}

func statusError(endpoint string, res core.TransportResponse) error {
	metadata := map[string]any{
		"endpoint":    endpoint,
		"status_code": res.StatusCode,
	}
	if requestID := strings.TrimSpace(res.Headers[requestIDHeader]); requestID != "" {
		metadata["request_id"] = requestID
	}
	message := fmt.Sprintf("messaging: %s returned status %d", endpoint, res.StatusCode)

	var parsed apiError
	if err := json.Unmarshal(res.Body, &parsed); err == nil && parsed.Message != "" {
		message += ": " + parsed.Message
		metadata["api_message"] = parsed.Message
		if len(parsed.Details) > 0 {
			details := make([]string, 0, len(parsed.Details))
			for _, detail := range parsed.Details {
				details = append(details, strings.TrimSpace(detail.Property+" "+detail.Message))
			}
			metadata["api_details"] = details
		}
	} else if len(res.Body) > 0 {
		metadata["body"] = string(res.Body)
	}
	return core.NewError(message, goerrors.CategoryExternal, core.ErrorTransportFailed, metadata)
}
