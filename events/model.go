package events

import "time"

type Kind string

const (
	KindMessage      Kind = "message"
	KindUnsend       Kind = "unsend"
	KindFollow       Kind = "follow"
	KindUnfollow     Kind = "unfollow"
	KindJoin         Kind = "join"
	KindLeave        Kind = "leave"
	KindMemberJoined Kind = "memberJoined"
	KindMemberLeft   Kind = "memberLeft"
)

type Mode string

const (
	ModeActive  Mode = "active"
	ModeStandby Mode = "standby"
)

// Event is implemented only by the event types of this package. Meta is
// promoted from the embedded Common.
type Event interface {
	Kind() Kind
	Meta() Common
	sealedEvent()
}

type DeliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

// Common carries the fields every webhook event has regardless of kind.
type Common struct {
	Mode            Mode            `json:"mode"`
	Timestamp       int64           `json:"timestamp"`
	Source          Source          `json:"-"`
	WebhookEventID  string          `json:"webhookEventId"`
	DeliveryContext DeliveryContext `json:"deliveryContext"`
}

func (c Common) Meta() Common {
	return c
}

// Time converts the millisecond epoch timestamp.
func (c Common) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

func (c Common) IsRedelivery() bool {
	return c.DeliveryContext.IsRedelivery
}

type MessageEvent struct {
	Common     `json:"-"`
	ReplyToken string  `json:"replyToken"`
	Message    Message `json:"-"`
}

type UnsendEvent struct {
	Common    `json:"-"`
	MessageID string `json:"-"`
}

type FollowEvent struct {
	Common      `json:"-"`
	ReplyToken  string `json:"replyToken"`
	IsUnblocked bool   `json:"-"`
}

type UnfollowEvent struct {
	Common `json:"-"`
}

type JoinEvent struct {
	Common     `json:"-"`
	ReplyToken string `json:"replyToken"`
}

type LeaveEvent struct {
	Common `json:"-"`
}

type MemberJoinedEvent struct {
	Common     `json:"-"`
	ReplyToken string       `json:"replyToken"`
	Members    []UserSource `json:"-"`
}

type MemberLeftEvent struct {
	Common  `json:"-"`
	Members []UserSource `json:"-"`
}

func (MessageEvent) Kind() Kind      { return KindMessage }
func (UnsendEvent) Kind() Kind       { return KindUnsend }
func (FollowEvent) Kind() Kind       { return KindFollow }
func (UnfollowEvent) Kind() Kind     { return KindUnfollow }
func (JoinEvent) Kind() Kind         { return KindJoin }
func (LeaveEvent) Kind() Kind        { return KindLeave }
func (MemberJoinedEvent) Kind() Kind { return KindMemberJoined }
func (MemberLeftEvent) Kind() Kind   { return KindMemberLeft }

func (MessageEvent) sealedEvent()      {}
func (UnsendEvent) sealedEvent()       {}
func (FollowEvent) sealedEvent()       {}
func (UnfollowEvent) sealedEvent()     {}
func (JoinEvent) sealedEvent()         {}
func (LeaveEvent) sealedEvent()        {}
func (MemberJoinedEvent) sealedEvent() {}
func (MemberLeftEvent) sealedEvent()   {}

type SourceType string

const (
	SourceTypeUser  SourceType = "user"
	SourceTypeGroup SourceType = "group"
	SourceTypeRoom  SourceType = "room"
)

// Source identifies where an event came from. UserID is empty for group and
// room sources of events outside the message family when the platform omits
// it.
type Source interface {
	Type() SourceType
	User() string
	sealedSource()
}

type UserSource struct {
	UserID string `json:"userId"`
}

type GroupSource struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type RoomSource struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

func (UserSource) Type() SourceType  { return SourceTypeUser }
func (GroupSource) Type() SourceType { return SourceTypeGroup }
func (RoomSource) Type() SourceType  { return SourceTypeRoom }

func (s UserSource) User() string  { return s.UserID }
func (s GroupSource) User() string { return s.UserID }
func (s RoomSource) User() string  { return s.UserID }

func (UserSource) sealedSource()  {}
func (GroupSource) sealedSource() {}
func (RoomSource) sealedSource()  {}

type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeVideo    MessageType = "video"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeFile     MessageType = "file"
	MessageTypeLocation MessageType = "location"
	MessageTypeSticker  MessageType = "sticker"
)

type Message interface {
	Type() MessageType
	MessageID() string
	sealedMessage()
}

type Emoji struct {
	Index     int    `json:"index"`
	Length    int    `json:"length"`
	ProductID string `json:"productId"`
	EmojiID   string `json:"emojiId"`
}

type MentioneeType string

const (
	MentioneeUser MentioneeType = "user"
	MentioneeAll  MentioneeType = "all"
)

type Mentionee struct {
	Type   MentioneeType `json:"type"`
	Index  int           `json:"index"`
	Length int           `json:"length"`
	UserID string        `json:"userId"`
}

type Mention struct {
	Mentionees []Mentionee `json:"mentionees"`
}

type TextMessage struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Emojis          []Emoji  `json:"emojis"`
	Mention         *Mention `json:"mention"`
	QuoteToken      string   `json:"quoteToken"`
	QuotedMessageID string   `json:"quotedMessageId"`
}

type ImageSet struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Total int    `json:"total"`
}

// Final reports whether this part completes its set.
func (s ImageSet) Final() bool {
	return s.Index == s.Total
}

type ImageMessage struct {
	ID              string          `json:"id"`
	QuoteToken      string          `json:"quoteToken"`
	ContentProvider ContentProvider `json:"-"`
	ImageSet        *ImageSet       `json:"imageSet"`
}

type VideoMessage struct {
	ID              string          `json:"id"`
	QuoteToken      string          `json:"quoteToken"`
	Duration        *int64          `json:"duration"`
	ContentProvider ContentProvider `json:"-"`
}

type AudioMessage struct {
	ID              string          `json:"id"`
	Duration        *int64          `json:"duration"`
	ContentProvider ContentProvider `json:"-"`
}

type FileMessage struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

type LocationMessage struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type StickerResourceType string

const (
	StickerResourceStatic         StickerResourceType = "STATIC"
	StickerResourceAnimation      StickerResourceType = "ANIMATION"
	StickerResourceSound          StickerResourceType = "SOUND"
	StickerResourceAnimationSound StickerResourceType = "ANIMATION_SOUND"
	StickerResourceCustom         StickerResourceType = "CUSTOM"
	StickerResourceMessage        StickerResourceType = "MESSAGE"
	StickerResourcePerStickerText StickerResourceType = "PER_STICKER_TEXT"
	StickerResourceNameText       StickerResourceType = "NAME_TEXT"
)

type StickerMessage struct {
	ID                  string              `json:"id"`
	QuoteToken          string              `json:"quoteToken"`
	QuotedMessageID     string              `json:"quotedMessageId"`
	PackageID           string              `json:"packageId"`
	StickerID           string              `json:"stickerId"`
	StickerResourceType StickerResourceType `json:"stickerResourceType"`
	Keywords            []string            `json:"keywords"`
	Text                string              `json:"text"`
}

func (*TextMessage) Type() MessageType     { return MessageTypeText }
func (*ImageMessage) Type() MessageType    { return MessageTypeImage }
func (*VideoMessage) Type() MessageType    { return MessageTypeVideo }
func (*AudioMessage) Type() MessageType    { return MessageTypeAudio }
func (*FileMessage) Type() MessageType     { return MessageTypeFile }
func (*LocationMessage) Type() MessageType { return MessageTypeLocation }
func (*StickerMessage) Type() MessageType  { return MessageTypeSticker }

func (m *TextMessage) MessageID() string     { return m.ID }
func (m *ImageMessage) MessageID() string    { return m.ID }
func (m *VideoMessage) MessageID() string    { return m.ID }
func (m *AudioMessage) MessageID() string    { return m.ID }
func (m *FileMessage) MessageID() string     { return m.ID }
func (m *LocationMessage) MessageID() string { return m.ID }
func (m *StickerMessage) MessageID() string  { return m.ID }

func (*TextMessage) sealedMessage()     {}
func (*ImageMessage) sealedMessage()    {}
func (*VideoMessage) sealedMessage()    {}
func (*AudioMessage) sealedMessage()    {}
func (*FileMessage) sealedMessage()     {}
func (*LocationMessage) sealedMessage() {}
func (*StickerMessage) sealedMessage()  {}

type ContentProviderType string

const (
	ContentProviderLine     ContentProviderType = "line"
	ContentProviderExternal ContentProviderType = "external"
)

type ContentProvider interface {
	Type() ContentProviderType
	sealedContentProvider()
}

type LineContentProvider struct{}

// ExternalContentProvider points at content hosted outside the platform.
// PreviewImageURL is always empty for audio.
type ExternalContentProvider struct {
	OriginalContentURL string `json:"originalContentUrl"`
	PreviewImageURL    string `json:"previewImageUrl"`
}

func (LineContentProvider) Type() ContentProviderType     { return ContentProviderLine }
func (ExternalContentProvider) Type() ContentProviderType { return ContentProviderExternal }

func (LineContentProvider) sealedContentProvider()     {}
func (ExternalContentProvider) sealedContentProvider() {}

// Envelope is the webhook request body. Events stay loosely typed until
// Classify is applied to each one.
type Envelope struct {
	Destination string           `json:"destination"`
	Events      []map[string]any `json:"events"`
}
