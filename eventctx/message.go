package eventctx

import (
	"strings"

	"github.com/goliatone/go-linebot/events"
)

// message is shared by every message-kind context.
type message struct {
	base
	replyable
	event events.MessageEvent
}

func (m message) MessageEvent() events.MessageEvent { return m.event }
func (m message) MessageType() events.MessageType   { return m.event.Message.Type() }
func (m message) MessageID() string                 { return m.event.Message.MessageID() }

type Text struct {
	message
	payload *events.TextMessage
}

func (c *Text) Message() *events.TextMessage { return c.payload }
func (c *Text) Text() string                 { return c.payload.Text }
func (c *Text) QuoteToken() string           { return c.payload.QuoteToken }
func (c *Text) QuotedMessageID() string      { return c.payload.QuotedMessageID }
func (c *Text) Emojis() []events.Emoji       { return append([]events.Emoji(nil), c.payload.Emojis...) }

func (c *Text) Mentionees() []events.Mentionee {
	if c.payload.Mention == nil {
		return nil
	}
	return append([]events.Mentionee(nil), c.payload.Mention.Mentionees...)
}

// FormattedText puts the <productId:emojiId> syntax back where the platform
// left placeholders.
func (c *Text) FormattedText() string {
	return FormatEmojis(c.payload.Text, c.payload.Emojis)
}

// FormatEmojis rebuilds emoji syntax into placeholder-bearing text. Emojis are
// applied in slice order with a cursor over the original text, so every
// Index is read against the text the platform sent, never against text that
// already had a substitution applied. Spans that start before the cursor or
// run past the end are skipped. Index and Length count code points.
func FormatEmojis(text string, emojis []events.Emoji) string {
	if len(emojis) == 0 {
		return text
	}
	runes := []rune(text)
	var out strings.Builder
	cursor := 0
	for _, emoji := range emojis {
		start := emoji.Index
		end := emoji.Index + emoji.Length
		if emoji.Length <= 0 || start < cursor || end > len(runes) {
			continue
		}
		out.WriteString(string(runes[cursor:start]))
		out.WriteString("<" + emoji.ProductID + ":" + emoji.EmojiID + ">")
		cursor = end
	}
	out.WriteString(string(runes[cursor:]))
	return out.String()
}

type Image struct {
	message
	payload *events.ImageMessage
}

func (c *Image) Message() *events.ImageMessage           { return c.payload }
func (c *Image) QuoteToken() string                      { return c.payload.QuoteToken }
func (c *Image) ContentProvider() events.ContentProvider { return c.payload.ContentProvider }

// ImageSet is nil for a standalone image.
func (c *Image) ImageSet() *events.ImageSet {
	if c.payload.ImageSet == nil {
		return nil
	}
	set := *c.payload.ImageSet
	return &set
}

type Video struct {
	message
	payload *events.VideoMessage
}

func (c *Video) Message() *events.VideoMessage           { return c.payload }
func (c *Video) QuoteToken() string                      { return c.payload.QuoteToken }
func (c *Video) ContentProvider() events.ContentProvider { return c.payload.ContentProvider }

// Duration is in milliseconds; ok is false when the platform omitted it.
func (c *Video) Duration() (int64, bool) {
	if c.payload.Duration == nil {
		return 0, false
	}
	return *c.payload.Duration, true
}

type Audio struct {
	message
	payload *events.AudioMessage
}

func (c *Audio) Message() *events.AudioMessage           { return c.payload }
func (c *Audio) ContentProvider() events.ContentProvider { return c.payload.ContentProvider }

func (c *Audio) Duration() (int64, bool) {
	if c.payload.Duration == nil {
		return 0, false
	}
	return *c.payload.Duration, true
}

type File struct {
	message
	payload *events.FileMessage
}

func (c *File) Message() *events.FileMessage { return c.payload }
func (c *File) FileName() string             { return c.payload.FileName }
func (c *File) FileSize() int64              { return c.payload.FileSize }

type Location struct {
	message
	payload *events.LocationMessage
}

func (c *Location) Message() *events.LocationMessage { return c.payload }
func (c *Location) Title() string                    { return c.payload.Title }
func (c *Location) Address() string                  { return c.payload.Address }
func (c *Location) Latitude() float64                { return c.payload.Latitude }
func (c *Location) Longitude() float64               { return c.payload.Longitude }

func (c *Location) LatLng() (float64, float64) {
	return c.payload.Latitude, c.payload.Longitude
}

type Sticker struct {
	message
	payload *events.StickerMessage
}

func (c *Sticker) Message() *events.StickerMessage          { return c.payload }
func (c *Sticker) QuoteToken() string                       { return c.payload.QuoteToken }
func (c *Sticker) QuotedMessageID() string                  { return c.payload.QuotedMessageID }
func (c *Sticker) PackageID() string                        { return c.payload.PackageID }
func (c *Sticker) StickerID() string                        { return c.payload.StickerID }
func (c *Sticker) ResourceType() events.StickerResourceType { return c.payload.StickerResourceType }
func (c *Sticker) Keywords() []string                       { return append([]string(nil), c.payload.Keywords...) }

// MessageText returns the text typed into a MESSAGE sticker. Other resource
// types have none.
func (c *Sticker) MessageText() (string, bool) {
	if c.payload.StickerResourceType != events.StickerResourceMessage || c.payload.Text == "" {
		return "", false
	}
	return c.payload.Text, true
}
