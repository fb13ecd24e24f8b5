package tasks

import (
	"context"
	"fmt"
	"tieba-assist/internal/components/assert"
	"tieba-assist/internal/components/chrono"
	"tieba-assist/internal/components/telemetry"
	"tieba-assist/internal/tieba"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_follow_trending_list  = "follow-trending.list"
	report_follow_trending_forum = "follow-trending.forum"
)

const (
	DefaultTrendingPage = 8
	DefaultTrendingSize = 20
)

var followResults, _ = meter.Int64Counter(
	"follow_results",
	metric.WithDescription("follow calls by outcome"),
)

// FollowTrending follows the forums currently recommended by the platform.
type FollowTrending struct {
	client FollowClient
	clock  chrono.API
	page   int
	size   int
	tel    telemetry.API
}

func NewFollowTrending(client FollowClient, clock chrono.API, page, size int, tel telemetry.API) FollowTrending {
	assert.NotNil(client, "client")
	assert.NotNil(clock, "clock")
	assert.Positive(size, "size")
	return FollowTrending{
		client: client,
		clock:  clock,
		page:   page,
		size:   size,
		tel:    telemetry.NewScopedAPI("follow_trending", tel),
	}
}

func (FollowTrending) Name() string {
	return "follow trending forums"
}

func (f FollowTrending) Run(ctx context.Context) (Summary, error) {
	summary := Summary{Task: f.Name(), Started: f.clock.Now()}

	forums, err := f.client.ListTrending(ctx, f.page, f.size)
	if err != nil {
		f.tel.ReportBroken(report_follow_trending_list, err)
	}

	var runErr error
	// least popular first, so the most popular forum ends up being the latest follow
	for i := len(forums) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		forum := forums[i]
		err := f.client.Follow(ctx, forum)
		outcome := tieba.Classify(err)
		followResults.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
		if err != nil {
			summary.Failed++
			f.tel.ReportWarning(report_follow_trending_forum, forum.Name, outcome.String(), err)
			continue
		}
		summary.Succeeded++
	}

	summary.Finished = f.clock.Now()
	summary.Message = fmt.Sprintf("followed %d trending forums", summary.Succeeded)
	if summary.Failed > 0 {
		summary.Message += fmt.Sprintf(", %d failed", summary.Failed)
	}
	return summary, runErr
}
