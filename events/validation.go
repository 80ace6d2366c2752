package events

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var stickerResourceTypes = []any{
	StickerResourceStatic,
	StickerResourceAnimation,
	StickerResourceSound,
	StickerResourceAnimationSound,
	StickerResourceCustom,
	StickerResourceMessage,
	StickerResourcePerStickerText,
	StickerResourceNameText,
}

func (e Emoji) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Index, validation.Min(0)),
		validation.Field(&e.Length, validation.Required, validation.Min(1)),
		validation.Field(&e.ProductID, validation.Required),
		validation.Field(&e.EmojiID, validation.Required),
	)
}

func (m Mentionee) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Type, validation.Required, validation.In(MentioneeUser, MentioneeAll)),
		validation.Field(&m.Index, validation.Min(0)),
		validation.Field(&m.Length, validation.Required, validation.Min(1)),
		validation.Field(&m.UserID, validation.When(m.Type == MentioneeUser, validation.Required)),
	)
}

func (m Mention) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Mentionees),
	)
}

// Validate enforces 1 <= Index <= Total.
func (s ImageSet) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ID, validation.Required),
		validation.Field(&s.Index, validation.Required, validation.Min(1)),
		validation.Field(&s.Total, validation.Required, validation.Min(s.Index)),
	)
}

func validateCommon(common Common) error {
	err := validation.ValidateStruct(&common,
		validation.Field(&common.Mode, validation.Required, validation.In(ModeActive, ModeStandby)),
		validation.Field(&common.Timestamp, validation.Min(int64(0))),
		validation.Field(&common.WebhookEventID, validation.Required),
	)
	return malformedRules("", err)
}

func validateSource(path string, source Source) error {
	var err error
	switch s := source.(type) {
	case UserSource:
		err = validation.ValidateStruct(&s,
			validation.Field(&s.UserID, validation.Required),
		)
	case GroupSource:
		err = validation.ValidateStruct(&s,
			validation.Field(&s.GroupID, validation.Required),
		)
	case RoomSource:
		err = validation.ValidateStruct(&s,
			validation.Field(&s.RoomID, validation.Required),
		)
	}
	return malformedRules(path, err)
}

func validateReplyToken(token string) error {
	return malformedRules("", validation.Errors{
		"replyToken": validation.Validate(token, validation.Required),
	}.Filter())
}

func validateText(message *TextMessage) error {
	err := validation.ValidateStruct(message,
		validation.Field(&message.ID, validation.Required),
		validation.Field(&message.Text, validation.Required),
		validation.Field(&message.Emojis),
		validation.Field(&message.Mention),
	)
	return malformedRules("message", err)
}

func validateImage(message *ImageMessage) error {
	err := validation.ValidateStruct(message,
		validation.Field(&message.ID, validation.Required),
		validation.Field(&message.ImageSet),
	)
	return malformedRules("message", err)
}

func validateMediaID(id string) error {
	return malformedRules("message", validation.Errors{
		"id": validation.Validate(id, validation.Required),
	}.Filter())
}

func validateFile(message *FileMessage) error {
	err := validation.ValidateStruct(message,
		validation.Field(&message.ID, validation.Required),
		validation.Field(&message.FileName, validation.Required),
		validation.Field(&message.FileSize, validation.Min(int64(0))),
	)
	return malformedRules("message", err)
}

func validateLocation(message *LocationMessage) error {
	err := validation.ValidateStruct(message,
		validation.Field(&message.ID, validation.Required),
		validation.Field(&message.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&message.Longitude, validation.Min(-180.0), validation.Max(180.0)),
	)
	return malformedRules("message", err)
}

func validateSticker(message *StickerMessage) error {
	err := validation.ValidateStruct(message,
		validation.Field(&message.ID, validation.Required),
		validation.Field(&message.PackageID, validation.Required),
		validation.Field(&message.StickerID, validation.Required),
		validation.Field(&message.StickerResourceType, validation.Required, validation.In(stickerResourceTypes...)),
	)
	return malformedRules("message", err)
}

func validateExternalProvider(provider ExternalContentProvider) error {
	err := validation.ValidateStruct(&provider,
		validation.Field(&provider.OriginalContentURL, validation.Required),
	)
	return malformedRules("message.contentProvider", err)
}
