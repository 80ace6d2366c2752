// Package webhooks receives platform webhook calls: it checks the channel
// signature, decodes the envelope, classifies every event and hands it to
// the router.
//
// An optional delivery ledger keyed by webhook event id drops redeliveries
// of events that already completed. A failed event releases its claim so a
// later redelivery is processed again.
package webhooks
