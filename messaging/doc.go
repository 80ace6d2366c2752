// Package messaging builds outbound message objects and delivers them through
// the reply and push endpoints under the shared rate limiter.
package messaging
