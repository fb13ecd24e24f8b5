package notify

import (
	"context"
	"time"
	"tieba-assist/internal/components/assert"
	"tieba-assist/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

// Lark posts to a Lark (Feishu) custom bot webhook.
type Lark struct {
	webhook string
	http    *resty.Client
}

func NewLark(webhook string, timeout time.Duration, tel telemetry.API) Lark {
	assert.NotEmptyStr(webhook, "lark webhook")
	return Lark{webhook: webhook, http: newHttpClient(timeout, tel)}
}

func (Lark) Name() string {
	return "lark"
}

type larkText struct {
	Text string `json:"text"`
}

type larkMessage struct {
	MsgType string   `json:"msg_type"`
	Content larkText `json:"content"`
}

func (l Lark) Send(ctx context.Context, text string) error {
	return postWebhook(
		ctx, l.http, l.webhook,
		larkMessage{MsgType: "text", Content: larkText{Text: text}},
		func(s webhookStatus) (*int, string) {
			if s.Code != nil {
				return s.Code, s.Msg
			}
			return s.StatusCode, s.Msg
		},
	)
}
