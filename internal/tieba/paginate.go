package tieba

import (
	"context"
	"tieba-assist/internal/components/assert"
	"tieba-assist/internal/components/telemetry"
)

const (
	report_paginator_collect = "paginator.collect"
)

// DefaultPageAttempts is how many times a single page is requested before giving up on it.
const DefaultPageAttempts = 4

// FollowedLister is the part of Client the Paginator drives.
type FollowedLister interface {
	ListFollowed(ctx context.Context, page, size int) (FollowedPage, error)
}

type Paginator struct {
	lister   FollowedLister
	pageSize int
	attempts int
	tel      telemetry.API
}

func NewPaginator(lister FollowedLister, pageSize, attempts int, tel telemetry.API) Paginator {
	assert.NotNil(lister, "lister")
	assert.Positive(pageSize, "pageSize")
	assert.Positive(attempts, "attempts")
	return Paginator{
		lister:   lister,
		pageSize: pageSize,
		attempts: attempts,
		tel:      tel,
	}
}

// CollectAllFollowed walks the followed forums from page 1 until the api reports no more
// pages. A page that keeps failing ends the walk, the forums collected before it are returned.
func (p Paginator) CollectAllFollowed(ctx context.Context) []ForumRef {
	var forums []ForumRef

	for page := 1; ; page++ {
		result, ok := p.fetchPage(ctx, page)
		if !ok {
			p.tel.ReportBroken(
				report_paginator_collect,
				"giving up",
				page,
				len(forums),
			)
			return forums
		}

		forums = append(forums, result.Forums...)
		if !result.HasMore {
			return forums
		}
	}
}

func (p Paginator) fetchPage(ctx context.Context, page int) (FollowedPage, bool) {
	for attempt := 0; attempt < p.attempts; attempt++ {
		if ctx.Err() != nil {
			return FollowedPage{}, false
		}

		result, err := p.lister.ListFollowed(ctx, page, p.pageSize)
		if err == nil {
			return result, true
		}
		if Classify(err) != OutcomeTransportError {
			return FollowedPage{}, false
		}
		p.tel.ReportWarning(report_paginator_collect, err, page, attempt+1)
	}
	return FollowedPage{}, false
}

// CollectAllFollowed lists every followed forum with the page size and retry budget of the
// client options.
func (c *Client) CollectAllFollowed(ctx context.Context) []ForumRef {
	return NewPaginator(c, c.pageSize, c.pageAttempts, c.tel).CollectAllFollowed(ctx)
}
