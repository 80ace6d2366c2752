package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-linebot/core"
)

const defaultMaxBodyBytes int64 = 1 << 20

// RequestProcessor handles one raw webhook request.
type RequestProcessor interface {
	Process(ctx context.Context, req core.Request) (core.Result, error)
}

// Handler is the HTTP endpoint the platform posts webhooks to.
type Handler struct {
	Processor    RequestProcessor
	MaxBodyBytes int64
	Observer     core.Observer
}

func NewHandler(processor RequestProcessor, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{Processor: processor, MaxBodyBytes: maxBodyBytes}
}

type response struct {
	Message  string `json:"message"`
	TextCode string `json:"code,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, response{Message: "method not allowed"})
		return
	}
	if h == nil || h.Processor == nil {
		writeJSON(w, http.StatusInternalServerError, response{Message: "webhook processor is not configured", TextCode: core.ErrorInternal})
		return
	}

	requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-Id", requestID)

	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, response{Message: "request body too large", TextCode: core.ErrorBadInput})
			return
		}
		writeJSON(w, http.StatusBadRequest, response{Message: "read request body", TextCode: core.ErrorBadInput})
		return
	}

	_, err = h.Processor.Process(r.Context(), core.Request{
		Headers:  flattenRequestHeaders(r.Header),
		Body:     body,
		Metadata: map[string]any{"request_id": requestID},
	})
	if err != nil {
		mapped := core.MapError(err)
		h.Observer.LogWarn(r.Context(), "webhooks: request rejected", map[string]any{
			"request_id":      requestID,
			"status_code":     mapped.Code,
			"error_text_code": mapped.TextCode,
		})
		writeJSON(w, mapped.Code, response{Message: mapped.Message, TextCode: mapped.TextCode})
		return
	}
	writeJSON(w, http.StatusOK, response{Message: "OK"})
}

func writeJSON(w http.ResponseWriter, status int, payload response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func flattenRequestHeaders(headers http.Header) map[string]string {
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		flat[key] = strings.Join(values, ",")
	}
	return flat
}
