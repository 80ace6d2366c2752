package messaging

import (
	"encoding/json"
)

// Message is an outbound message object accepted by the reply and push
// endpoints.
type Message interface {
	Type() string
	Validate() error
	json.Marshaler
}

const (
	TypeText     = "text"
	TypeSticker  = "sticker"
	TypeImage    = "image"
	TypeVideo    = "video"
	TypeAudio    = "audio"
	TypeLocation = "location"
)

var (
	_ Message = Text{}
	_ Message = Sticker{}
	_ Message = Image{}
	_ Message = Video{}
	_ Message = Audio{}
	_ Message = Location{}
)

// Options are shared by every message type.
type Options struct {
	Sender     *SenderProfile `json:"sender,omitempty"`
	QuickReply *QuickReply    `json:"quickReply,omitempty"`
}

type Option func(*Options)

func WithSender(sender SenderProfile) Option {
	return func(o *Options) {
		o.Sender = &sender
	}
}

func WithQuickReply(items ...QuickReplyItem) Option {
	return func(o *Options) {
		o.QuickReply = &QuickReply{Items: append([]QuickReplyItem(nil), items...)}
	}
}

func buildOptions(opts []Option) Options {
	var out Options
	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}

// Emoji places a LINE emoji at a $ placeholder of the text.
type Emoji struct {
	Index     int    `json:"index"`
	ProductID string `json:"productId"`
	EmojiID   string `json:"emojiId"`
}

type Text struct {
	Text       string  `json:"text"`
	Emojis     []Emoji `json:"emojis,omitempty"`
	QuoteToken string  `json:"quoteToken,omitempty"`
	Options
}

// NewText builds a text message. Occurrences of <productId:emojiId> in text
// are replaced with $ placeholders and listed in Emojis.
func NewText(text string, opts ...Option) Text {
	fitted, emojis := FitEmojis(text)
	return Text{Text: fitted, Emojis: emojis, Options: buildOptions(opts)}
}

// Quote returns a copy of m that quotes the message owning quoteToken.
func (m Text) Quote(quoteToken string) Text {
	m.QuoteToken = quoteToken
	return m
}

func (Text) Type() string { return TypeText }

func (m Text) MarshalJSON() ([]byte, error) {
	type wire Text
	return marshalTyped(TypeText, wire(m))
}

type Sticker struct {
	PackageID  string `json:"packageId"`
	StickerID  string `json:"stickerId"`
	QuoteToken string `json:"quoteToken,omitempty"`
	Options
}

func NewSticker(packageID, stickerID string, opts ...Option) Sticker {
	return Sticker{PackageID: packageID, StickerID: stickerID, Options: buildOptions(opts)}
}

func (Sticker) Type() string { return TypeSticker }

func (m Sticker) MarshalJSON() ([]byte, error) {
	type wire Sticker
	return marshalTyped(TypeSticker, wire(m))
}

type Image struct {
	OriginalContentURL string `json:"originalContentUrl"`
	PreviewImageURL    string `json:"previewImageUrl"`
	Options
}

func NewImage(originalContentURL, previewImageURL string, opts ...Option) Image {
	return Image{
		OriginalContentURL: originalContentURL,
		PreviewImageURL:    previewImageURL,
		Options:            buildOptions(opts),
	}
}

func (Image) Type() string { return TypeImage }

func (m Image) MarshalJSON() ([]byte, error) {
	type wire Image
	return marshalTyped(TypeImage, wire(m))
}

// Video messages may carry a TrackingID that the platform echoes back in the
// video viewing complete event. Tracking ids are rejected in group and room
// chats by the platform.
type Video struct {
	OriginalContentURL string `json:"originalContentUrl"`
	PreviewImageURL    string `json:"previewImageUrl"`
	TrackingID         string `json:"trackingId,omitempty"`
	Options
}

func NewVideo(originalContentURL, previewImageURL, trackingID string, opts ...Option) Video {
	return Video{
		OriginalContentURL: originalContentURL,
		PreviewImageURL:    previewImageURL,
		TrackingID:         trackingID,
		Options:            buildOptions(opts),
	}
}

func (Video) Type() string { return TypeVideo }

func (m Video) MarshalJSON() ([]byte, error) {
	type wire Video
	return marshalTyped(TypeVideo, wire(m))
}

// Audio Duration is in milliseconds.
type Audio struct {
	OriginalContentURL string `json:"originalContentUrl"`
	Duration           int64  `json:"duration"`
	Options
}

func NewAudio(originalContentURL string, duration int64, opts ...Option) Audio {
	return Audio{OriginalContentURL: originalContentURL, Duration: duration, Options: buildOptions(opts)}
}

func (Audio) Type() string { return TypeAudio }

func (m Audio) MarshalJSON() ([]byte, error) {
	type wire Audio
	return marshalTyped(TypeAudio, wire(m))
}

type Location struct {
	Title     string  `json:"title"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Options
}

func NewLocation(title, address string, latitude, longitude float64, opts ...Option) Location {
	return Location{
		Title:     title,
		Address:   address,
		Latitude:  latitude,
		Longitude: longitude,
		Options:   buildOptions(opts),
	}
}

func (Location) Type() string { return TypeLocation }

func (m Location) MarshalJSON() ([]byte, error) {
	type wire Location
	return marshalTyped(TypeLocation, wire(m))
}

// marshalTyped writes the type discriminant ahead of the payload fields.
func marshalTyped(kind string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	head, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(head)+len(body)+10)
	out = append(out, `{"type":`...)
	out = append(out, head...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
		return out, nil
	}
	return append(out, '}'), nil
}
