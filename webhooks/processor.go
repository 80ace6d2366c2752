package webhooks

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-linebot/core"
	"github.com/goliatone/go-linebot/events"
)

// Router receives classified events.
type Router interface {
	Route(ctx context.Context, event events.Event) error
	Verified(ctx context.Context) error
}

// Processor verifies a webhook request, classifies each event and routes it.
// Events run sequentially in body order; the first failure aborts the rest
// of the batch.
type Processor struct {
	Verifier   Verifier
	Ledger     DeliveryLedger
	Router     Router
	ClaimLease time.Duration
	Observer   core.Observer
}

func NewProcessor(verifier Verifier, router Router) *Processor {
	return &Processor{
		Verifier:   verifier,
		Router:     router,
		ClaimLease: defaultClaimLease,
	}
}

func (p *Processor) Process(ctx context.Context, req core.Request) (result core.Result, err error) {
	if p == nil || p.Router == nil {
		return core.Result{}, core.Internal("webhooks: processor requires a router", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	fields := map[string]any{}
	if requestID := metadataString(req.Metadata, "request_id"); requestID != "" {
		fields["request_id"] = requestID
	}
	defer func() {
		p.Observer.Observe(ctx, startedAt, "webhook", err, fields)
	}()

	if p.Verifier != nil {
		if err := p.Verifier.Verify(ctx, req); err != nil {
			return core.Result{
				Accepted:   false,
				StatusCode: http.StatusUnauthorized,
				Metadata:   map[string]any{"rejected": true},
			}, err
		}
	}

	envelope, err := events.DecodeEnvelope(req.Body)
	if err != nil {
		return core.Result{}, err
	}
	if envelope.Events == nil {
		return core.Result{}, core.NewError("webhooks: body has no events array", goerrors.CategoryValidation, core.ErrorMalformedPayload, map[string]any{
			"path": "events",
		})
	}
	fields["destination"] = envelope.Destination
	fields["event_count"] = len(envelope.Events)

	if len(envelope.Events) == 0 {
		if err := p.Router.Verified(ctx); err != nil {
			return core.Result{}, err
		}
		fields["verified"] = true
		return p.result(envelope, 0, 0, true), nil
	}

	routed, deduped := 0, 0
	for index, raw := range envelope.Events {
		skipped, err := p.processEvent(ctx, raw)
		if err != nil {
			fields["failed_index"] = index
			return core.Result{}, err
		}
		if skipped {
			deduped++
			continue
		}
		routed++
	}
	fields["routed"] = routed
	fields["deduped"] = deduped
	return p.result(envelope, routed, deduped, false), nil
}

func (p *Processor) processEvent(ctx context.Context, raw map[string]any) (bool, error) {
	event, err := events.Classify(raw)
	if err != nil {
		return false, err
	}
	if p.Ledger == nil {
		return false, p.Router.Route(ctx, event)
	}

	key := event.Meta().WebhookEventID
	claimID, claimed, err := p.Ledger.Claim(ctx, key, p.claimLease())
	if err != nil {
		return false, core.WrapError(err, goerrors.CategoryInternal, "webhooks: delivery claim failed", core.ErrorInternal, map[string]any{
			"webhook_event_id": key,
		})
	}
	if !claimed {
		p.Observer.LogInfo(ctx, "webhooks: skipped duplicate delivery", map[string]any{
			"webhook_event_id": key,
			"event_type":       string(event.Kind()),
			"is_redelivery":    event.Meta().IsRedelivery(),
		})
		return true, nil
	}

	if err := p.Router.Route(ctx, event); err != nil {
		if failErr := p.Ledger.Fail(ctx, claimID, err); failErr != nil {
			p.Observer.LogWarn(ctx, "webhooks: mark delivery failed", map[string]any{
				"webhook_event_id": key,
				"error":            failErr.Error(),
			})
		}
		return false, err
	}
	if err := p.Ledger.Complete(ctx, claimID); err != nil {
		return false, core.WrapError(err, goerrors.CategoryInternal, "webhooks: complete delivery claim", core.ErrorInternal, map[string]any{
			"webhook_event_id": key,
		})
	}
	return false, nil
}

func (p *Processor) result(envelope events.Envelope, routed, deduped int, verified bool) core.Result {
	metadata := map[string]any{
		"destination": envelope.Destination,
		"events":      len(envelope.Events),
		"routed":      routed,
	}
	if deduped > 0 {
		metadata["deduped"] = deduped
	}
	if verified {
		metadata["verified"] = true
	}
	return core.Result{Accepted: true, StatusCode: http.StatusOK, Metadata: metadata}
}

func (p *Processor) claimLease() time.Duration {
	if p != nil && p.ClaimLease > 0 {
		return p.ClaimLease
	}
	return defaultClaimLease
}

func metadataString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	value, ok := metadata[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}
