// Package tasks sequences the sweeps over forums and reports their results.
package tasks

import (
	"context"
	"time"
	"tieba-assist/internal/tieba"

	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("tieba-assist/tasks")

// DefaultSignInterval is the pause between two consecutive sign-in calls, the platform starts
// throttling accounts that sign faster than this.
const DefaultSignInterval = 1300 * time.Millisecond

// Summary is the result of one task run.
type Summary struct {
	Task      string
	Succeeded int
	Failed    int
	Message   string
	Started   time.Time
	Finished  time.Time
}

type Task interface {
	Name() string
	// Run executes the task, the returned error is only non-nil when ctx ended the run early,
	// the summary then covers the forums processed so far.
	Run(ctx context.Context) (Summary, error)
}

// SignClient is the part of tieba.Client used by SignFollowed.
type SignClient interface {
	CollectAllFollowed(ctx context.Context) []tieba.ForumRef
	SignIn(ctx context.Context, forum tieba.ForumRef) error
}

// FollowClient is the part of tieba.Client used by FollowTrending.
type FollowClient interface {
	ListTrending(ctx context.Context, page, size int) ([]tieba.ForumRef, error)
	Follow(ctx context.Context, forum tieba.ForumRef) error
}
