package notify

import (
	"context"
	"fmt"
	"net/url"
	"time"
	"tieba-assist/internal/components/assert"
	"tieba-assist/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const DefaultWorkWechatBaseUrl = "https://qyapi.weixin.qq.com"

// WorkWechat posts to a WeCom group bot identified by its key.
type WorkWechat struct {
	webhook string
	http    *resty.Client
}

// NewWorkWechat builds the webhook url from key, baseUrl may be empty to use the public api.
func NewWorkWechat(key, baseUrl string, timeout time.Duration, tel telemetry.API) WorkWechat {
	assert.NotEmptyStr(key, "work wechat key")
	if baseUrl == "" {
		baseUrl = DefaultWorkWechatBaseUrl
	}
	return WorkWechat{
		webhook: fmt.Sprintf("%s/cgi-bin/webhook/send?key=%s", baseUrl, url.QueryEscape(key)),
		http:    newHttpClient(timeout, tel),
	}
}

func (WorkWechat) Name() string {
	return "work_wechat"
}

type weworkText struct {
	Content string `json:"content"`
}

type weworkMessage struct {
	MsgType string     `json:"msgtype"`
	Text    weworkText `json:"text"`
}

func (w WorkWechat) Send(ctx context.Context, text string) error {
	return postWebhook(
		ctx, w.http, w.webhook,
		weworkMessage{MsgType: "text", Text: weworkText{Content: text}},
		func(s webhookStatus) (*int, string) {
			return s.Errcode, s.Errmsg
		},
	)
}
