// Package router turns classified webhook events into named notifications
// and runs the handlers registered for each name in registration order.
//
// Message events emit "message" with the raw event, then one notification
// per message type with an adapted context. Image sets are buffered until
// their final part arrives; that part emits "image", "image_set" and
// "image_fulfill" with the whole batch.
package router
