// Package notify delivers plain text run summaries to chat bots and mailboxes.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"tieba-assist/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	report_broadcast = "broadcast"
)

// Sink is a single notification channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, text string) error
}

// Broadcast sends text to every sink. Failures are reported and never returned, a broken
// channel must not hide the result of the task that produced the text.
func Broadcast(ctx context.Context, sinks []Sink, text string, tel telemetry.API) (delivered int) {
	for _, sink := range sinks {
		err := sink.Send(ctx, text)
		if err != nil {
			tel.ReportBroken(report_broadcast, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		delivered++
	}
	return delivered
}

func newHttpClient(timeout time.Duration, tel telemetry.API) *resty.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("content-type", "application/json")
	telemetry.InstrumentResty(client, "tieba-assist/notify", tel)
	return client
}

// webhookStatus is the union of the status fields of the supported bots.
type webhookStatus struct {
	Code       *int   `json:"code"`
	Msg        string `json:"msg"`
	StatusCode *int   `json:"StatusCode"`
	Errcode    *int   `json:"errcode"`
	Errmsg     string `json:"errmsg"`
}

func postWebhook(ctx context.Context, client *resty.Client, url string, payload any, statusField func(webhookStatus) (*int, string)) error {
	res, err := client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("post webhook: status %d: %s", res.StatusCode(), res.String())
	}

	var status webhookStatus
	err = json.Unmarshal(res.Body(), &status)
	if err != nil {
		// some deployments answer with an empty body
		return nil
	}
	code, msg := statusField(status)
	if code != nil && *code != 0 {
		return fmt.Errorf("webhook rejected message: code %d: %s", *code, msg)
	}
	return nil
}
