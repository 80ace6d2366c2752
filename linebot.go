// Package linebot wires the webhook processor, notification router, image-set
// buffer, outbound limiter and reply sender into one Client.
package linebot

import (
	"github.com/goliatone/go-linebot/core"
	"github.com/goliatone/go-linebot/messaging"
	"github.com/goliatone/go-linebot/router"
)

type Config = core.Config

type Request = core.Request
type Result = core.Result

type Handler = router.Handler
type Notification = router.Notification

type Message = messaging.Message

const (
	NotificationVerified     = router.NotificationVerified
	NotificationMessage      = router.NotificationMessage
	NotificationText         = router.NotificationText
	NotificationImage        = router.NotificationImage
	NotificationImageSet     = router.NotificationImageSet
	NotificationImageFulfill = router.NotificationImageFulfill
	NotificationVideo        = router.NotificationVideo
	NotificationAudio        = router.NotificationAudio
	NotificationFile         = router.NotificationFile
	NotificationLocation     = router.NotificationLocation
	NotificationSticker      = router.NotificationSticker
	NotificationUnsend       = router.NotificationUnsend
	NotificationFollow       = router.NotificationFollow
	NotificationUnfollow     = router.NotificationUnfollow
	NotificationJoin         = router.NotificationJoin
	NotificationLeave        = router.NotificationLeave
	NotificationMemberJoined = router.NotificationMemberJoined
	NotificationMemberLeft   = router.NotificationMemberLeft
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}
