package eventctx

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-linebot/core"
	"github.com/goliatone/go-linebot/events"
	"github.com/goliatone/go-linebot/messaging"
)

// Replier sends reply messages for a reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken string, messages ...messaging.Message) error
}

// Context is the read view handed to notification handlers.
type Context interface {
	Event() events.Event
	Kind() events.Kind
	Mode() events.Mode
	Timestamp() int64
	Time() time.Time
	Source() events.Source
	WebhookEventID() string
	IsRedelivery() bool
	UserID() string
	GroupID() (string, bool)
	RoomID() (string, bool)
	ChatID() string
}

// Repliable is implemented by contexts whose event carries a reply token.
type Repliable interface {
	Context
	ReplyToken() string
	Reply(ctx context.Context, messages ...messaging.Message) error
}

var (
	_ Repliable = (*Text)(nil)
	_ Repliable = (*Image)(nil)
	_ Repliable = (*Video)(nil)
	_ Repliable = (*Audio)(nil)
	_ Repliable = (*File)(nil)
	_ Repliable = (*Location)(nil)
	_ Repliable = (*Sticker)(nil)
	_ Repliable = (*Follow)(nil)
	_ Repliable = (*Join)(nil)
	_ Repliable = (*MemberJoined)(nil)
	_ Context   = (*Unsend)(nil)
	_ Context   = (*Unfollow)(nil)
	_ Context   = (*Leave)(nil)
	_ Context   = (*MemberLeft)(nil)
)

// Adapt wraps event in its typed context. The event is shared, not copied;
// contexts never write to it.
func Adapt(event events.Event, replier Replier) Context {
	switch e := event.(type) {
	case events.MessageEvent:
		return adaptMessage(e, replier)
	case events.UnsendEvent:
		return &Unsend{base: newBase(e), event: e}
	case events.FollowEvent:
		return &Follow{base: newBase(e), replyable: replyable{token: e.ReplyToken, replier: replier}, event: e}
	case events.UnfollowEvent:
		return &Unfollow{base: newBase(e)}
	case events.JoinEvent:
		return &Join{base: newBase(e), replyable: replyable{token: e.ReplyToken, replier: replier}}
	case events.LeaveEvent:
		return &Leave{base: newBase(e)}
	case events.MemberJoinedEvent:
		return &MemberJoined{base: newBase(e), replyable: replyable{token: e.ReplyToken, replier: replier}, event: e}
	case events.MemberLeftEvent:
		return &MemberLeft{base: newBase(e), event: e}
	default:
		return nil
	}
}

func adaptMessage(event events.MessageEvent, replier Replier) Context {
	msg := message{
		base:      newBase(event),
		replyable: replyable{token: event.ReplyToken, replier: replier},
		event:     event,
	}
	switch m := event.Message.(type) {
	case *events.TextMessage:
		return &Text{message: msg, payload: m}
	case *events.ImageMessage:
		return &Image{message: msg, payload: m}
	case *events.VideoMessage:
		return &Video{message: msg, payload: m}
	case *events.AudioMessage:
		return &Audio{message: msg, payload: m}
	case *events.FileMessage:
		return &File{message: msg, payload: m}
	case *events.LocationMessage:
		return &Location{message: msg, payload: m}
	case *events.StickerMessage:
		return &Sticker{message: msg, payload: m}
	default:
		return nil
	}
}

type base struct {
	event  events.Event
	common events.Common
}

func newBase(event events.Event) base {
	return base{event: event, common: event.Meta()}
}

func (b base) Event() events.Event    { return b.event }
func (b base) Kind() events.Kind      { return b.event.Kind() }
func (b base) Mode() events.Mode      { return b.common.Mode }
func (b base) Timestamp() int64       { return b.common.Timestamp }
func (b base) Time() time.Time        { return b.common.Time() }
func (b base) Source() events.Source  { return b.common.Source }
func (b base) WebhookEventID() string { return b.common.WebhookEventID }
func (b base) IsRedelivery() bool     { return b.common.IsRedelivery() }

// UserID is empty for group and room sources that omit the sender.
func (b base) UserID() string {
	if b.common.Source == nil {
		return ""
	}
	return b.common.Source.User()
}

// GroupID resolves to the room id for room sources so group and room chats
// share addressing. User sources have neither.
func (b base) GroupID() (string, bool) {
	switch source := b.common.Source.(type) {
	case events.GroupSource:
		return source.GroupID, true
	case events.RoomSource:
		return source.RoomID, true
	default:
		return "", false
	}
}

func (b base) RoomID() (string, bool) {
	return b.GroupID()
}

// ChatID is the push target for the conversation: the group or room id when
// present, otherwise the user id.
func (b base) ChatID() string {
	if id, ok := b.GroupID(); ok {
		return id
	}
	return b.UserID()
}

type replyable struct {
	token   string
	replier Replier
}

func (r replyable) ReplyToken() string {
	return r.token
}

func (r replyable) Reply(ctx context.Context, messages ...messaging.Message) error {
	if r.replier == nil {
		return core.NewError("eventctx: reply requires a replier", goerrors.CategoryInternal, core.ErrorInternal, map[string]any{
			"reply_token": r.token,
		})
	}
	return r.replier.Reply(ctx, r.token, messages...)
}

type Unsend struct {
	base
	event events.UnsendEvent
}

// MessageID is the id of the message that was unsent.
func (c *Unsend) MessageID() string { return c.event.MessageID }

type Follow struct {
	base
	replyable
	event events.FollowEvent
}

// IsUnblocked is true when the user unblocked the account rather than adding
// it as a friend.
func (c *Follow) IsUnblocked() bool { return c.event.IsUnblocked }

type Unfollow struct {
	base
}

type Join struct {
	base
	replyable
}

type Leave struct {
	base
}

type MemberJoined struct {
	base
	replyable
	event events.MemberJoinedEvent
}

func (c *MemberJoined) Members() []events.UserSource { return cloneMembers(c.event.Members) }
func (c *MemberJoined) MemberIDs() []string          { return memberIDs(c.event.Members) }

type MemberLeft struct {
	base
	event events.MemberLeftEvent
}

func (c *MemberLeft) Members() []events.UserSource { return cloneMembers(c.event.Members) }
func (c *MemberLeft) MemberIDs() []string          { return memberIDs(c.event.Members) }

func cloneMembers(members []events.UserSource) []events.UserSource {
	if len(members) == 0 {
		return nil
	}
	out := make([]events.UserSource, len(members))
	copy(out, members)
	return out
}

func memberIDs(members []events.UserSource) []string {
	ids := make([]string, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.UserID)
	}
	return ids
}
