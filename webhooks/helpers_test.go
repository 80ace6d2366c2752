package webhooks

import (
	"context"
	"strings"

	"github.com/goliatone/go-linebot/core"
	"github.com/goliatone/go-linebot/events"
)

const testSecret = "channel-secret"

func textEventJSON(eventID string, text string) string {
	return `{"type":"message","mode":"active","timestamp":1700000000123,` +
		`"source":{"type":"user","userId":"U1"},"webhookEventId":"` + eventID + `",` +
		`"deliveryContext":{"isRedelivery":false},"replyToken":"rt_` + eventID + `",` +
		`"message":{"type":"text","id":"m_` + eventID + `","quoteToken":"q_` + eventID + `","text":"` + text + `"}}`
}

func envelopeJSON(eventsJSON ...string) []byte {
	return []byte(`{"destination":"Ubot","events":[` + strings.Join(eventsJSON, ",") + `]}`)
}

func signedRequest(body []byte) core.Request {
	return core.Request{
		Headers: map[string]string{"x-line-signature": Sign(testSecret, body)},
		Body:    body,
	}
}

type recordingRouter struct {
	routed    []events.Event
	verified  int
	failOn    string
	failures  int
	routeErr  error
	verifyErr error
}

func (r *recordingRouter) Route(_ context.Context, event events.Event) error {
	if r.failOn != "" && event.Meta().WebhookEventID == r.failOn && r.failures > 0 {
		r.failures--
		return r.routeErr
	}
	r.routed = append(r.routed, event)
	return nil
}

func (r *recordingRouter) Verified(context.Context) error {
	r.verified++
	return r.verifyErr
}

func (r *recordingRouter) routedIDs() []string {
	ids := make([]string, 0, len(r.routed))
	for _, event := range r.routed {
		ids = append(ids, event.Meta().WebhookEventID)
	}
	return ids
}
