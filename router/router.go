package router

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-linebot/core"
	"github.com/goliatone/go-linebot/eventctx"
	"github.com/goliatone/go-linebot/events"
	"github.com/goliatone/go-linebot/imageset"
)

// Handler receives one notification. A returned error stops the remaining
// handlers and the rest of the batch.
type Handler func(ctx context.Context, n Notification) error

var messageNotifications = map[events.MessageType]string{
	events.MessageTypeText:     NotificationText,
	events.MessageTypeImage:    NotificationImage,
	events.MessageTypeVideo:    NotificationVideo,
	events.MessageTypeAudio:    NotificationAudio,
	events.MessageTypeFile:     NotificationFile,
	events.MessageTypeLocation: NotificationLocation,
	events.MessageTypeSticker:  NotificationSticker,
}

// Router maps classified events to notifications and fans them out to the
// handlers registered for each name.
type Router struct {
	mu       sync.RWMutex
	handlers map[string][]Handler

	images      *imageset.Buffer
	imageSetTTL time.Duration
	replier     eventctx.Replier
	observer    core.Observer
}

type Option func(*Router)

func WithImageBuffer(buffer *imageset.Buffer) Option {
	return func(r *Router) {
		if buffer != nil {
			r.images = buffer
		}
	}
}

// WithImageSetTTL drops buffered sets that saw no part for ttl. Zero keeps
// sets until they complete.
func WithImageSetTTL(ttl time.Duration) Option {
	return func(r *Router) {
		r.imageSetTTL = ttl
	}
}

func WithReplier(replier eventctx.Replier) Option {
	return func(r *Router) {
		r.replier = replier
	}
}

func WithObserver(observer core.Observer) Option {
	return func(r *Router) {
		r.observer = observer
	}
}

func New(opts ...Option) *Router {
	router := &Router{handlers: map[string][]Handler{}}
	for _, opt := range opts {
		if opt != nil {
			opt(router)
		}
	}
	if router.images == nil {
		router.images = imageset.New()
	}
	return router
}

// Register appends handler to the handlers of name.
func (r *Router) Register(name string, handler Handler) error {
	name = strings.TrimSpace(name)
	if handler == nil {
		return core.BadInput("router: handler is nil", map[string]any{"notification": name})
	}
	if !IsKnown(name) {
		return core.BadInput(fmt.Sprintf("router: unknown notification %q", name), map[string]any{"notification": name})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = append(r.handlers[name], handler)
	return nil
}

// Handlers reports how many handlers are registered for name.
func (r *Router) Handlers(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[strings.TrimSpace(name)])
}

func (r *Router) snapshot(name string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	registered := r.handlers[name]
	if len(registered) == 0 {
		return nil
	}
	return append([]Handler(nil), registered...)
}

// Dispatch runs the handlers of n.Name in registration order. A name without
// handlers is a no-op.
func (r *Router) Dispatch(ctx context.Context, n Notification) (err error) {
	handlers := r.snapshot(n.Name)
	if len(handlers) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	fields := notificationFields(n)
	defer func() {
		r.observer.Observe(ctx, startedAt, "notification", err, fields)
	}()

	for index, handler := range handlers {
		if handlerErr := handler(ctx, n); handlerErr != nil {
			return handlerFailed(n, index, handlerErr)
		}
	}
	return nil
}

// Verified emits the liveness notification sent for an empty webhook.
func (r *Router) Verified(ctx context.Context) error {
	return r.Dispatch(ctx, Notification{Name: NotificationVerified})
}

// Route emits every notification event maps to, in order.
func (r *Router) Route(ctx context.Context, event events.Event) error {
	if event == nil {
		return core.BadInput("router: event is required", nil)
	}
	if message, ok := event.(events.MessageEvent); ok {
		return r.routeMessage(ctx, message)
	}
	name, ok := kindNotifications[event.Kind()]
	if !ok {
		return unrecognizedKind("type", string(event.Kind()))
	}
	return r.Dispatch(ctx, Notification{
		Name:    name,
		Event:   event,
		Context: eventctx.Adapt(event, r.replier),
	})
}

func (r *Router) routeMessage(ctx context.Context, event events.MessageEvent) error {
	if event.Message == nil {
		return core.NewError("router: message event has no message", goerrors.CategoryValidation, core.ErrorMalformedPayload, map[string]any{
			"webhook_event_id": event.WebhookEventID,
		})
	}
	name, ok := messageNotifications[event.Message.Type()]
	if !ok {
		return unrecognizedKind("message.type", string(event.Message.Type()))
	}
	if err := r.Dispatch(ctx, Notification{Name: NotificationMessage, Event: event}); err != nil {
		return err
	}
	messageCtx := eventctx.Adapt(event, r.replier)
	if image, ok := event.Message.(*events.ImageMessage); ok {
		return r.routeImage(ctx, event, image, messageCtx)
	}
	return r.Dispatch(ctx, Notification{Name: name, Event: event, Context: messageCtx})
}

// routeImage applies the image-set policy: a standalone image is fulfilled
// on its own, a non-final part is buffered, and the final part releases the
// whole set.
func (r *Router) routeImage(
	ctx context.Context,
	event events.MessageEvent,
	image *events.ImageMessage,
	messageCtx eventctx.Context,
) error {
	set := image.ImageSet
	var batch []*events.ImageMessage
	if set == nil {
		batch = []*events.ImageMessage{image}
	} else {
		r.evictStaleSets(ctx)
		r.images.Append(set.ID, image)
		if set.Final() {
			released, err := r.images.Release(set.ID)
			if err != nil {
				return err
			}
			batch = released
		}
	}

	if err := r.Dispatch(ctx, Notification{Name: NotificationImage, Event: event, Context: messageCtx}); err != nil {
		return err
	}
	if batch == nil {
		return nil
	}
	if set != nil {
		if err := r.Dispatch(ctx, Notification{
			Name:    NotificationImageSet,
			Event:   event,
			Context: messageCtx,
			Images:  cloneBatch(batch),
		}); err != nil {
			return err
		}
	}
	return r.Dispatch(ctx, Notification{
		Name:    NotificationImageFulfill,
		Event:   event,
		Context: messageCtx,
		Images:  cloneBatch(batch),
	})
}

func (r *Router) evictStaleSets(ctx context.Context) {
	if r.imageSetTTL <= 0 {
		return
	}
	if evicted := r.images.Evict(r.imageSetTTL); evicted > 0 {
		r.observer.LogWarn(ctx, "router: evicted incomplete image sets", map[string]any{
			"evicted": evicted,
			"ttl_ms":  r.imageSetTTL.Milliseconds(),
		})
		r.observer.Count(ctx, "linebot.imageset.evicted", int64(evicted), nil)
	}
}

func cloneBatch(batch []*events.ImageMessage) []*events.ImageMessage {
	return append([]*events.ImageMessage(nil), batch...)
}

func notificationFields(n Notification) map[string]any {
	fields := map[string]any{"notification": n.Name}
	if n.Event == nil {
		return fields
	}
	fields["event_type"] = string(n.Event.Kind())
	fields["webhook_event_id"] = n.Event.Meta().WebhookEventID
	if message, ok := n.Event.(events.MessageEvent); ok && message.Message != nil {
		fields["message_type"] = string(message.Message.Type())
	}
	if len(n.Images) > 0 {
		fields["image_count"] = len(n.Images)
	}
	return fields
}

func handlerFailed(n Notification, index int, err error) error {
	metadata := notificationFields(n)
	metadata["handler_index"] = index
	return core.WrapError(
		err,
		goerrors.CategoryOperation,
		fmt.Sprintf("router: %s handler failed", n.Name),
		core.ErrorHandlerFailed,
		metadata,
	)
}

func unrecognizedKind(path, value string) error {
	return core.NewError(
		fmt.Sprintf("router: no notification for %s %q", path, value),
		goerrors.CategoryBadInput,
		core.ErrorUnrecognizedKind,
		map[string]any{"path": path, "value": value},
	)
}
