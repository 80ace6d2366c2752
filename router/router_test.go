package router

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-linebot/core"
	"github.com/goliatone/go-linebot/eventctx"
	"github.com/goliatone/go-linebot/events"
	"github.com/goliatone/go-linebot/imageset"
)

type recorded struct {
	name   string
	images []string
	hasCtx bool
}

type recorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *recorder) handler(ctx context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	call := recorded{name: n.Name, hasCtx: n.Context != nil}
	for _, image := range n.Images {
		call.images = append(call.images, image.ID)
	}
	r.calls = append(r.calls, call)
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.calls))
	for _, call := range r.calls {
		names = append(names, call.name)
	}
	return names
}

func registerAll(t *testing.T, r *Router, rec *recorder) {
	t.Helper()
	for name := range knownNotifications {
		if err := r.Register(name, rec.handler); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
}

func common() events.Common {
	return events.Common{
		Mode:           events.ModeActive,
		Timestamp:      1700000000123,
		Source:         events.UserSource{UserID: "U1"},
		WebhookEventID: "01HWEBHOOK",
	}
}

func imageEvent(id string, set *events.ImageSet) events.MessageEvent {
	return events.MessageEvent{
		Common:     common(),
		ReplyToken: "rt",
		Message:    &events.ImageMessage{ID: id, ContentProvider: events.LineContentProvider{}, ImageSet: set},
	}
}

func TestRoute_StandaloneImageFulfilsSingleton(t *testing.T) {
	router := New()
	rec := &recorder{}
	registerAll(t, router, rec)

	if err := router.Route(context.Background(), imageEvent("i1", nil)); err != nil {
		t.Fatalf("route: %v", err)
	}
	expected := []string{NotificationMessage, NotificationImage, NotificationImageFulfill}
	if got := rec.names(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	fulfil := rec.calls[2]
	if !reflect.DeepEqual(fulfil.images, []string{"i1"}) || !fulfil.hasCtx {
		t.Fatalf("expected singleton batch with context, got %#v", fulfil)
	}
	if rec.calls[0].hasCtx {
		t.Fatalf("expected raw message notification without context")
	}
}

func TestRoute_ImageSetReleasesOnFinalPart(t *testing.T) {
	router := New()
	rec := &recorder{}
	registerAll(t, router, rec)

	for i := 1; i <= 2; i++ {
		event := imageEvent("p"+string(rune('0'+i)), &events.ImageSet{ID: "s1", Index: i, Total: 3})
		if err := router.Route(context.Background(), event); err != nil {
			t.Fatalf("route part %d: %v", i, err)
		}
	}
	partial := []string{NotificationMessage, NotificationImage, NotificationMessage, NotificationImage}
	if got := rec.names(); !reflect.DeepEqual(got, partial) {
		t.Fatalf("expected no fulfilment before final part, got %v", got)
	}

	rec.calls = nil
	if err := router.Route(context.Background(), imageEvent("p3", &events.ImageSet{ID: "s1", Index: 3, Total: 3})); err != nil {
		t.Fatalf("route final part: %v", err)
	}
	expected := []string{NotificationMessage, NotificationImage, NotificationImageSet, NotificationImageFulfill}
	if got := rec.names(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	batch := []string{"p1", "p2", "p3"}
	if !reflect.DeepEqual(rec.calls[2].images, batch) || !reflect.DeepEqual(rec.calls[3].images, batch) {
		t.Fatalf("expected full batch on image_set and image_fulfill, got %#v", rec.calls[2:])
	}
	if router.images.Len() != 0 {
		t.Fatalf("expected set to be released")
	}
}

func TestRoute_MessageTypesEmitTypedNotification(t *testing.T) {
	cases := []struct {
		message events.Message
		name    string
	}{
		{&events.TextMessage{ID: "t", Text: "hi"}, NotificationText},
		{&events.VideoMessage{ID: "v"}, NotificationVideo},
		{&events.AudioMessage{ID: "a"}, NotificationAudio},
		{&events.FileMessage{ID: "f", FileName: "a.txt"}, NotificationFile},
		{&events.LocationMessage{ID: "l"}, NotificationLocation},
		{&events.StickerMessage{ID: "s", StickerResourceType: events.StickerResourceStatic}, NotificationSticker},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := New()
			rec := &recorder{}
			registerAll(t, router, rec)
			event := events.MessageEvent{Common: common(), ReplyToken: "rt", Message: tc.message}
			if err := router.Route(context.Background(), event); err != nil {
				t.Fatalf("route: %v", err)
			}
			expected := []string{NotificationMessage, tc.name}
			if got := rec.names(); !reflect.DeepEqual(got, expected) {
				t.Fatalf("expected %v, got %v", expected, got)
			}
			if !rec.calls[1].hasCtx {
				t.Fatalf("expected typed notification to carry a context")
			}
		})
	}
}

func TestRoute_NonMessageKinds(t *testing.T) {
	cases := []struct {
		event events.Event
		name  string
	}{
		{events.UnsendEvent{Common: common(), MessageID: "m"}, NotificationUnsend},
		{events.FollowEvent{Common: common(), ReplyToken: "rt"}, NotificationFollow},
		{events.UnfollowEvent{Common: common()}, NotificationUnfollow},
		{events.JoinEvent{Common: common(), ReplyToken: "rt"}, NotificationJoin},
		{events.LeaveEvent{Common: common()}, NotificationLeave},
		{events.MemberJoinedEvent{Common: common(), ReplyToken: "rt"}, NotificationMemberJoined},
		{events.MemberLeftEvent{Common: common()}, NotificationMemberLeft},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := New()
			rec := &recorder{}
			registerAll(t, router, rec)
			if err := router.Route(context.Background(), tc.event); err != nil {
				t.Fatalf("route: %v", err)
			}
			if got := rec.names(); !reflect.DeepEqual(got, []string{tc.name}) {
				t.Fatalf("expected only %s, got %v", tc.name, got)
			}
		})
	}
}

func TestDispatch_RegistrationOrderAndAbortOnError(t *testing.T) {
	router := New()
	var order []int
	boom := errors.New("boom")
	_ = router.Register(NotificationText, func(context.Context, Notification) error {
		order = append(order, 1)
		return nil
	})
	_ = router.Register(NotificationText, func(context.Context, Notification) error {
		order = append(order, 2)
		return boom
	})
	_ = router.Register(NotificationText, func(context.Context, Notification) error {
		order = append(order, 3)
		return nil
	})
	if router.Handlers(NotificationText) != 3 {
		t.Fatalf("expected 3 handlers, got %d", router.Handlers(NotificationText))
	}

	err := router.Dispatch(context.Background(), Notification{Name: NotificationText})
	if !core.HasTextCode(err, core.ErrorHandlerFailed) {
		t.Fatalf("expected handler failure, got %v", err)
	}
	mapped := core.MapError(err)
	if mapped.Code != 500 || mapped.Metadata["handler_index"] != 1 {
		t.Fatalf("unexpected envelope code=%d metadata=%#v", mapped.Code, mapped.Metadata)
	}
	if !reflect.DeepEqual(order, []int{1, 2}) {
		t.Fatalf("expected remaining handlers to be skipped, got %v", order)
	}
}

func TestRoute_HandlerErrorStopsLaterNotifications(t *testing.T) {
	router := New()
	rec := &recorder{}
	_ = router.Register(NotificationImage, func(context.Context, Notification) error {
		return errors.New("nope")
	})
	_ = router.Register(NotificationImageFulfill, rec.handler)

	err := router.Route(context.Background(), imageEvent("i1", nil))
	if !core.HasTextCode(err, core.ErrorHandlerFailed) {
		t.Fatalf("expected handler failure, got %v", err)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("expected image_fulfill not to run")
	}
}

func TestDispatch_NoHandlersIsNoop(t *testing.T) {
	if err := New().Dispatch(context.Background(), Notification{Name: NotificationSticker}); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if err := New().Verified(context.Background()); err != nil {
		t.Fatalf("expected verified no-op, got %v", err)
	}
}

func TestRegister_RejectsInvalidInput(t *testing.T) {
	router := New()
	if err := router.Register("txet", func(context.Context, Notification) error { return nil }); !core.HasTextCode(err, core.ErrorBadInput) {
		t.Fatalf("expected unknown name to be rejected, got %v", err)
	}
	if err := router.Register(NotificationText, nil); !core.HasTextCode(err, core.ErrorBadInput) {
		t.Fatalf("expected nil handler to be rejected, got %v", err)
	}
}

func TestRoute_ContextRepliesThroughInjectedReplier(t *testing.T) {
	replier := &captureReplier{}
	router := New(WithReplier(replier))
	_ = router.Register(NotificationText, func(ctx context.Context, n Notification) error {
		repliable, ok := n.Context.(eventctx.Repliable)
		if !ok {
			t.Fatalf("expected repliable context")
		}
		return repliable.Reply(ctx)
	})
	event := events.MessageEvent{Common: common(), ReplyToken: "rt_42", Message: &events.TextMessage{ID: "t", Text: "hi"}}
	if err := router.Route(context.Background(), event); err != nil {
		t.Fatalf("route: %v", err)
	}
	if replier.token != "rt_42" {
		t.Fatalf("expected reply token to reach replier, got %q", replier.token)
	}
}

func TestRoute_RejectsNilEvent(t *testing.T) {
	if err := New().Route(context.Background(), nil); !core.HasTextCode(err, core.ErrorBadInput) {
		t.Fatalf("expected bad input, got %v", err)
	}
}

func TestRoute_EvictsStaleImageSets(t *testing.T) {
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	buffer := imageset.New(imageset.WithClock(func() time.Time { return now }))
	router := New(WithImageBuffer(buffer), WithImageSetTTL(time.Minute))

	if err := router.Route(context.Background(), imageEvent("a1", &events.ImageSet{ID: "abandoned", Index: 1, Total: 2})); err != nil {
		t.Fatalf("route abandoned part: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := router.Route(context.Background(), imageEvent("b1", &events.ImageSet{ID: "live", Index: 1, Total: 2})); err != nil {
		t.Fatalf("route live part: %v", err)
	}
	if buffer.Pending("abandoned") != 0 || buffer.Pending("live") != 1 {
		t.Fatalf("expected abandoned set to be evicted and live set kept")
	}
}
