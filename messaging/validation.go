package messaging

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	maxTextRunes      = 5000
	maxTextEmojis     = 20
	maxSenderName     = 20
	maxURLLength      = 2000
	maxTrackingID     = 100
	maxQuickReplies   = 13
	maxActionLabel    = 20
	maxActionText     = 300
	maxActionData     = 300
	maxActionURI      = 1000
	maxLocationLength = 100
)

var (
	digitsOnly    = regexp.MustCompile(`^[0-9]+$`)
	httpsURL      = regexp.MustCompile(`^https://\S+$`)
	trackingChars = regexp.MustCompile(`^[A-Za-z0-9\-.=,+*()%$&;:@{}!?<>\[\]]+$`)

	errReservedName = validation.NewError("validation_reserved_name", "must not contain the word LINE")
)

var urlRules = []validation.Rule{
	validation.Required,
	validation.Length(1, maxURLLength),
	validation.Match(httpsURL).Error("must be an https url"),
}

func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Sender),
		validation.Field(&o.QuickReply),
	)
}

func (s SenderProfile) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name,
			validation.When(strings.TrimSpace(s.IconURL) == "", validation.Required.Error("name or icon url is required")),
			validation.RuneLength(0, maxSenderName),
			validation.By(rejectReservedName),
		),
		validation.Field(&s.IconURL,
			validation.Length(0, maxURLLength),
			validation.Match(httpsURL).Error("must be an https url"),
		),
	)
}

// rejectReservedName refuses names that use LINE as a standalone word.
func rejectReservedName(value any) error {
	name, _ := value.(string)
	for _, word := range strings.Fields(strings.ToLower(name)) {
		if word == "line" {
			return errReservedName
		}
	}
	return nil
}

func (q QuickReply) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Items, validation.Required, validation.Length(1, maxQuickReplies)),
	)
}

func (i QuickReplyItem) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ImageURL, validation.Length(0, maxURLLength), validation.Match(httpsURL)),
		validation.Field(&i.Action),
	)
}

func (a Action) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Type, validation.Required, validation.In(ActionMessage, ActionPostback, ActionURI)),
		validation.Field(&a.Label, validation.Required, validation.RuneLength(1, maxActionLabel)),
		validation.Field(&a.Text,
			validation.When(a.Type == ActionMessage, validation.Required),
			validation.RuneLength(0, maxActionText),
		),
		validation.Field(&a.Data,
			validation.When(a.Type == ActionPostback, validation.Required),
			validation.Length(0, maxActionData),
		),
		validation.Field(&a.URI,
			validation.When(a.Type == ActionURI, validation.Required),
			validation.Length(0, maxActionURI),
		),
	)
}

func (e Emoji) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Index, validation.Min(0)),
		validation.Field(&e.ProductID, validation.Required),
		validation.Field(&e.EmojiID, validation.Required),
	)
}

func (m Text) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Text, validation.Required, validation.RuneLength(1, maxTextRunes)),
		validation.Field(&m.Emojis, validation.Length(0, maxTextEmojis)),
		validation.Field(&m.Options),
	)
}

func (m Sticker) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.PackageID, validation.Required, validation.Match(digitsOnly).Error("must be numeric")),
		validation.Field(&m.StickerID, validation.Required, validation.Match(digitsOnly).Error("must be numeric")),
		validation.Field(&m.Options),
	)
}

func (m Image) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.OriginalContentURL, urlRules...),
		validation.Field(&m.PreviewImageURL, urlRules...),
		validation.Field(&m.Options),
	)
}

func (m Video) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.OriginalContentURL, urlRules...),
		validation.Field(&m.PreviewImageURL, urlRules...),
		validation.Field(&m.TrackingID,
			validation.Length(0, maxTrackingID),
			validation.Match(trackingChars).Error("contains unsupported characters"),
		),
		validation.Field(&m.Options),
	)
}

func (m Audio) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.OriginalContentURL, urlRules...),
		validation.Field(&m.Duration, validation.Required, validation.Min(int64(1))),
		validation.Field(&m.Options),
	)
}

func (m Location) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required, validation.RuneLength(1, maxLocationLength)),
		validation.Field(&m.Address, validation.Required, validation.RuneLength(1, maxLocationLength)),
		validation.Field(&m.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&m.Longitude, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&m.Options),
	)
}
