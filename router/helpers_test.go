package router

import (
	"context"

	"github.com/goliatone/go-linebot/messaging"
)

type captureReplier struct {
	token string
}

func (c *captureReplier) Reply(_ context.Context, replyToken string, _ ...messaging.Message) error {
	c.token = replyToken
	return nil
}
