// Package ratelimit gates outbound calls with a fixed-window limiter that
// elects a single waiter per exhausted window.
package ratelimit
