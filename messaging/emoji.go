package messaging

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const emojiPlaceholder = "$"

var emojiSyntax = regexp.MustCompile(`<(\w{24}):(\d{3})>`)

// FitEmojis replaces every <productId:emojiId> token with a $ placeholder and
// returns the rewritten text with one Emoji per placeholder. Index counts
// code points of the rewritten text.
func FitEmojis(text string) (string, []Emoji) {
	matches := emojiSyntax.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}
	var out strings.Builder
	out.Grow(len(text))
	emojis := make([]Emoji, 0, len(matches))
	runes := 0
	prev := 0
	for _, match := range matches {
		literal := text[prev:match[0]]
		out.WriteString(literal)
		runes += utf8.RuneCountInString(literal)
		emojis = append(emojis, Emoji{
			Index:     runes,
			ProductID: text[match[2]:match[3]],
			EmojiID:   text[match[4]:match[5]],
		})
		out.WriteString(emojiPlaceholder)
		runes++
		prev = match[1]
	}
	out.WriteString(text[prev:])
	return out.String(), emojis
}
