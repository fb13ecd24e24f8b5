package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"
	"tieba-assist/internal/components/assert"
	"tieba-assist/internal/components/chrono"
	"tieba-assist/internal/components/telemetry"
	"tieba-assist/internal/tieba"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_sign_followed_forum = "sign-followed.forum"
	report_sign_followed_count = "sign-followed.followed"
)

var signResults, _ = meter.Int64Counter(
	"sign_in_results",
	metric.WithDescription("sign-in calls by outcome"),
)

// SignFollowed signs in to every forum the account follows.
type SignFollowed struct {
	client   SignClient
	clock    chrono.API
	interval time.Duration
	tel      telemetry.API
}

func NewSignFollowed(client SignClient, clock chrono.API, interval time.Duration, tel telemetry.API) SignFollowed {
	assert.NotNil(client, "client")
	assert.NotNil(clock, "clock")
	return SignFollowed{
		client:   client,
		clock:    clock,
		interval: interval,
		tel:      telemetry.NewScopedAPI("sign_followed", tel),
	}
}

func (SignFollowed) Name() string {
	return "sign followed forums"
}

func (s SignFollowed) Run(ctx context.Context) (Summary, error) {
	summary := Summary{Task: s.Name(), Started: s.clock.Now()}

	forums := s.client.CollectAllFollowed(ctx)
	s.tel.ReportCount(report_sign_followed_count, int64(len(forums)))

	var failed []string
	var runErr error
	for i, forum := range forums {
		if i > 0 {
			err := s.clock.Sleep(ctx, s.interval)
			if err != nil {
				runErr = err
				break
			}
		}

		err := s.client.SignIn(ctx, forum)
		outcome := tieba.Classify(err)
		signResults.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
		if err != nil {
			summary.Failed++
			failed = append(failed, forum.Name)
			s.tel.ReportWarning(report_sign_followed_forum, forum.Name, outcome.String(), err)
			continue
		}
		summary.Succeeded++
	}

	summary.Finished = s.clock.Now()
	summary.Message = fmt.Sprintf(
		"tieba sign-in finished: %d succeeded, %d failed",
		summary.Succeeded, summary.Failed,
	)
	if len(failed) > 0 {
		summary.Message += fmt.Sprintf("\nfailed forums: %s", strings.Join(failed, ", "))
	}
	if runErr != nil {
		summary.Message += fmt.Sprintf("\nstopped early: %d forums not processed", len(forums)-summary.Succeeded-summary.Failed)
	}
	return summary, runErr
}
