package router

import (
	"github.com/goliatone/go-linebot/eventctx"
	"github.com/goliatone/go-linebot/events"
)

const (
	NotificationVerified     = "verified"
	NotificationMessage      = "message"
	NotificationText         = "text"
	NotificationImage        = "image"
	NotificationImageSet     = "image_set"
	NotificationImageFulfill = "image_fulfill"
	NotificationVideo        = "video"
	NotificationAudio        = "audio"
	NotificationFile         = "file"
	NotificationLocation     = "location"
	NotificationSticker      = "sticker"
	NotificationUnsend       = "unsend"
	NotificationFollow       = "follow"
	NotificationUnfollow     = "unfollow"
	NotificationJoin         = "join"
	NotificationLeave        = "leave"
	NotificationMemberJoined = "member_joined"
	NotificationMemberLeft   = "member_left"
)

var knownNotifications = map[string]struct{}{
	NotificationVerified:     {},
	NotificationMessage:      {},
	NotificationText:         {},
	NotificationImage:        {},
	NotificationImageSet:     {},
	NotificationImageFulfill: {},
	NotificationVideo:        {},
	NotificationAudio:        {},
	NotificationFile:         {},
	NotificationLocation:     {},
	NotificationSticker:      {},
	NotificationUnsend:       {},
	NotificationFollow:       {},
	NotificationUnfollow:     {},
	NotificationJoin:         {},
	NotificationLeave:        {},
	NotificationMemberJoined: {},
	NotificationMemberLeft:   {},
}

// kindNotifications names the single notification of each non-message kind.
var kindNotifications = map[events.Kind]string{
	events.KindUnsend:       NotificationUnsend,
	events.KindFollow:       NotificationFollow,
	events.KindUnfollow:     NotificationUnfollow,
	events.KindJoin:         NotificationJoin,
	events.KindLeave:        NotificationLeave,
	events.KindMemberJoined: NotificationMemberJoined,
	events.KindMemberLeft:   NotificationMemberLeft,
}

// Notification is what handlers receive. Event is set for every notification
// except verified. Context is nil for the raw message notification. Images is
// set for image_set and image_fulfill.
type Notification struct {
	Name    string
	Event   events.Event
	Context eventctx.Context
	Images  []*events.ImageMessage
}

// IsKnown reports whether name is a notification the router can emit.
func IsKnown(name string) bool {
	_, ok := knownNotifications[name]
	return ok
}
