package tieba

import (
	"context"
	"fmt"
	"testing"
	"tieba-assist/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

type scriptedCall struct {
	page FollowedPage
	err  error
}

type scriptedLister struct {
	// calls to each page are answered in order, the last answer repeats
	script map[int][]scriptedCall
	calls  []int
}

func (l *scriptedLister) ListFollowed(_ context.Context, page, size int) (FollowedPage, error) {
	l.calls = append(l.calls, page)
	answers := l.script[page]
	if len(answers) == 0 {
		return FollowedPage{}, nil
	}
	n := 0
	for _, p := range l.calls {
		if p == page {
			n++
		}
	}
	if n > len(answers) {
		n = len(answers)
	}
	answer := answers[n-1]
	return answer.page, answer.err
}

func forums(prefix string, n int) []ForumRef {
	out := make([]ForumRef, n)
	for i := range out {
		out[i] = ForumRef{Id: ForumId(fmt.Sprint(i)), Name: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return out
}

var errUnavailable = &TransportError{Op: "list followed", StatusCode: 503}

func TestPaginatorCollectsEveryPage(t *testing.T) {
	lister := &scriptedLister{script: map[int][]scriptedCall{
		1: {{page: FollowedPage{Forums: forums("one", 200), HasMore: true}}},
		2: {{page: FollowedPage{Forums: forums("two", 50), HasMore: false}}},
	}}
	p := NewPaginator(lister, DefaultPageSize, DefaultPageAttempts, telemetry.NewRecorder())

	result := p.CollectAllFollowed(context.Background())
	require.Len(t, result, 250)
	require.Equal(t, "one-0", result[0].Name)
	require.Equal(t, "one-199", result[199].Name)
	require.Equal(t, "two-0", result[200].Name)
	require.Equal(t, "two-49", result[249].Name)
	require.Equal(t, []int{1, 2}, lister.calls)
}

func TestPaginatorRetryBound(t *testing.T) {
	lister := &scriptedLister{script: map[int][]scriptedCall{
		1: {{page: FollowedPage{Forums: forums("one", 3), HasMore: true}}},
		2: {{err: errUnavailable}},
	}}
	rec := telemetry.NewRecorder()
	p := NewPaginator(lister, DefaultPageSize, DefaultPageAttempts, rec)

	result := p.CollectAllFollowed(context.Background())
	require.Equal(t, forums("one", 3), result)
	require.Equal(t, []int{1, 2, 2, 2, 2}, lister.calls)
	require.Len(t, rec.Reports("warning"), 4)
	require.Len(t, rec.Broken(report_paginator_collect), 1)
}

func TestPaginatorFirstPageFails(t *testing.T) {
	lister := &scriptedLister{script: map[int][]scriptedCall{
		1: {{err: errUnavailable}},
	}}
	p := NewPaginator(lister, DefaultPageSize, DefaultPageAttempts, telemetry.NewRecorder())

	result := p.CollectAllFollowed(context.Background())
	require.Empty(t, result)
	require.Equal(t, []int{1, 1, 1, 1}, lister.calls)
}

func TestPaginatorRecoversWithinBudget(t *testing.T) {
	lister := &scriptedLister{script: map[int][]scriptedCall{
		1: {
			{err: errUnavailable},
			{err: errUnavailable},
			{err: errUnavailable},
			{page: FollowedPage{Forums: forums("one", 2)}},
		},
	}}
	p := NewPaginator(lister, DefaultPageSize, DefaultPageAttempts, telemetry.NewRecorder())

	result := p.CollectAllFollowed(context.Background())
	require.Equal(t, forums("one", 2), result)
	require.Equal(t, []int{1, 1, 1, 1}, lister.calls)
}

func TestPaginatorBudgetIsPerPage(t *testing.T) {
	lister := &scriptedLister{script: map[int][]scriptedCall{
		1: {
			{err: errUnavailable},
			{err: errUnavailable},
			{page: FollowedPage{Forums: forums("one", 1), HasMore: true}},
		},
		2: {
			{err: errUnavailable},
			{err: errUnavailable},
			{err: errUnavailable},
			{page: FollowedPage{Forums: forums("two", 1)}},
		},
	}}
	p := NewPaginator(lister, DefaultPageSize, DefaultPageAttempts, telemetry.NewRecorder())

	result := p.CollectAllFollowed(context.Background())
	require.Len(t, result, 2)
	require.Equal(t, []int{1, 1, 1, 2, 2, 2, 2}, lister.calls)
}

func TestPaginatorDoesNotRetryApplicationErrors(t *testing.T) {
	lister := &scriptedLister{script: map[int][]scriptedCall{
		1: {{err: &ApplicationError{Op: "list followed", Code: "1", Message: "not logged in"}}},
	}}
	p := NewPaginator(lister, DefaultPageSize, DefaultPageAttempts, telemetry.NewRecorder())

	require.Empty(t, p.CollectAllFollowed(context.Background()))
	require.Equal(t, []int{1}, lister.calls)
}

func TestPaginatorStopsOnCancel(t *testing.T) {
	lister := &scriptedLister{script: map[int][]scriptedCall{
		1: {{err: errUnavailable}},
	}}
	p := NewPaginator(lister, DefaultPageSize, DefaultPageAttempts, telemetry.NewRecorder())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Empty(t, p.CollectAllFollowed(ctx))
	require.Empty(t, lister.calls)
}

func TestClassify(t *testing.T) {
	require.Equal(t, OutcomeSuccess, Classify(nil))
	require.Equal(t, OutcomeApplicationError, Classify(fmt.Errorf("wrapped: %w", &ApplicationError{})))
	require.Equal(t, OutcomeTransportError, Classify(errUnavailable))
	require.Equal(t, OutcomeTransportError, Classify(ErrTokenUnavailable))
	require.Equal(t, "application_error", OutcomeApplicationError.String())
}
